package caution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompute_Breakdown(t *testing.T) {
	// rent 100,000 with 2+2+1 months -> 200k/200k/100k, total 500k over 5 months
	b, err := Compute(100_000, 2, 2, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(200_000), b.AdvanceAmount)
	assert.Equal(t, int64(200_000), b.DepositAmount)
	assert.Equal(t, int64(100_000), b.BrokerAmount)
	assert.Equal(t, int64(500_000), b.TotalAmount)
	assert.Equal(t, 5, b.TotalMonths)
}

func TestCompute_SumInvariant(t *testing.T) {
	rents := []int64{1, 75_000, 100_000, 333_333, 1_000_001}
	for _, rent := range rents {
		for _, adv := range []int{2, 3} {
			for _, dep := range []int{1, 2} {
				for _, brk := range []int{0, 1} {
					b, err := Compute(rent, adv, dep, brk)
					assert.NoError(t, err)
					assert.Equal(t, b.TotalAmount, b.AdvanceAmount+b.DepositAmount+b.BrokerAmount)
					assert.Equal(t, rent*int64(b.TotalMonths), b.TotalAmount)
				}
			}
		}
	}
}

func TestCompute_Rejections(t *testing.T) {
	_, err := Compute(0, 2, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidRent)

	_, err = Compute(-500, 2, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidRent)

	_, err = Compute(100_000, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidMonths)

	_, err = Compute(100_000, 4, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidMonths)

	_, err = Compute(100_000, 2, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidMonths)

	_, err = Compute(100_000, 2, 3, 0)
	assert.ErrorIs(t, err, ErrInvalidMonths)

	_, err = Compute(100_000, 2, 1, 2)
	assert.ErrorIs(t, err, ErrInvalidMonths)
}

func TestFirstRegularPaymentDate(t *testing.T) {
	paid := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	got := FirstRegularPaymentDate(paid, 2)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), got)
}

func TestAddMonthsClamped_EndOfMonth(t *testing.T) {
	jan31 := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), AddMonthsClamped(jan31, 1))

	// leap year
	jan31leap := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), AddMonthsClamped(jan31leap, 1))

	oct31 := time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC), AddMonthsClamped(oct31, 1))

	// year rollover
	nov15 := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), AddMonthsClamped(nov15, 3))
}

func TestAddMonthsClamped_Monotonic(t *testing.T) {
	// advancing the caution date by one day never moves the result back
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := AddMonthsClamped(start, 2)
	for day := 1; day < 120; day++ {
		cur := AddMonthsClamped(start.AddDate(0, 0, day), 2)
		assert.False(t, cur.Before(prev), "result went backwards at day %d", day)
		prev = cur
	}
}
