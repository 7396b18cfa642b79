// Package caution computes how the up-front lease payment splits into
// advance rent, security deposit and broker fee, and when the first
// regular rent payment falls due. Amounts are minor currency units.
package caution

import (
	"errors"
	"time"
)

var (
	ErrInvalidRent   = errors.New("invalid_rent")
	ErrInvalidMonths = errors.New("invalid_months")
)

// Breakdown is the caution decomposition for one lease.
type Breakdown struct {
	AdvanceAmount int64 `json:"advance_amount"`
	DepositAmount int64 `json:"deposit_amount"`
	BrokerAmount  int64 `json:"broker_amount"`
	TotalAmount   int64 `json:"total_amount"`
	TotalMonths   int   `json:"total_months"`
}

// Compute breaks a monthly rent into the caution components.
// advanceMonths must be 2 or 3, depositMonths 1 or 2, brokerMonths 0 or 1.
func Compute(monthlyRent int64, advanceMonths, depositMonths, brokerMonths int) (Breakdown, error) {
	if monthlyRent <= 0 {
		return Breakdown{}, ErrInvalidRent
	}
	if advanceMonths < 2 || advanceMonths > 3 {
		return Breakdown{}, ErrInvalidMonths
	}
	if depositMonths < 1 || depositMonths > 2 {
		return Breakdown{}, ErrInvalidMonths
	}
	if brokerMonths < 0 || brokerMonths > 1 {
		return Breakdown{}, ErrInvalidMonths
	}

	totalMonths := advanceMonths + depositMonths + brokerMonths
	return Breakdown{
		AdvanceAmount: monthlyRent * int64(advanceMonths),
		DepositAmount: monthlyRent * int64(depositMonths),
		BrokerAmount:  monthlyRent * int64(brokerMonths),
		TotalAmount:   monthlyRent * int64(totalMonths),
		TotalMonths:   totalMonths,
	}, nil
}

// FirstRegularPaymentDate returns the day the advance period ends: the
// caution date advanced by advanceMonths calendar months, clamped to the
// last day of the target month when it is shorter.
func FirstRegularPaymentDate(cautionPaidAt time.Time, advanceMonths int) time.Time {
	return AddMonthsClamped(cautionPaidAt, advanceMonths)
}

// AddMonthsClamped adds n calendar months keeping the day-of-month, clamped
// to end-of-month (Jan 31 + 1 month is Feb 28/29, never Mar 2/3).
func AddMonthsClamped(t time.Time, n int) time.Time {
	t = t.UTC()
	year, month, day := t.Date()

	m := int(month) + n
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if m <= 0 {
		m += 12
		year--
	}

	if last := daysIn(year, time.Month(m)); day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
