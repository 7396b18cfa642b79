package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusInProgress PaymentStatus = "in_progress"
	PaymentStatusSettled    PaymentStatus = "settled"
	PaymentStatusFailed     PaymentStatus = "failed"
)

type PaymentKind string

const (
	PaymentKindCaution PaymentKind = "caution"
	PaymentKindRent    PaymentKind = "rent"
)

// Payment is one money movement tied to a lease. Period is the first UTC
// day of the calendar month the payment covers. The unique index on
// (lease_id, period, kind) is the invoice generator's idempotency guard.
type Payment struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	SpaceID snowflake.ID `gorm:"not null;index" json:"space_id"`
	LeaseID snowflake.ID `gorm:"not null;uniqueIndex:idx_payments_lease_period,priority:1" json:"lease_id"`

	Kind   PaymentKind `gorm:"not null;uniqueIndex:idx_payments_lease_period,priority:3" json:"kind"`
	Amount int64       `gorm:"not null" json:"amount"`
	Period time.Time   `gorm:"not null;uniqueIndex:idx_payments_lease_period,priority:2" json:"period"`

	Status        PaymentStatus `gorm:"not null;index" json:"status"`
	Method        string        `json:"method,omitempty"`
	PayerPhone    string        `json:"payer_phone,omitempty"`
	ExternalTxnID string        `gorm:"column:external_txn_id;index" json:"external_txn_id,omitempty"`
	SettledAt     *time.Time    `json:"settled_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// PeriodOf normalizes t to the canonical payment period, the first day of
// its month in UTC.
func PeriodOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
