package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type InitiateCautionRequest struct {
	LeaseID    snowflake.ID
	PayerPhone string
	Method     string
}

type InitiateRentRequest struct {
	PaymentID  snowflake.ID
	PayerPhone string
	Method     string
}

type SettlementRequest struct {
	ExternalTxnID string
	SettledAt     time.Time
}

type Service interface {
	// CreateRentInvoice creates the pending rent payment for a period.
	// Re-invocation for an already-invoiced (lease, period) reports
	// created=false without error.
	CreateRentInvoice(ctx context.Context, leaseID snowflake.ID, period time.Time) (Payment, bool, error)

	// InitiateCautionPayment charges the tenant the full caution amount
	// through the mobile-money gateway and records the in-progress payment.
	InitiateCautionPayment(ctx context.Context, req InitiateCautionRequest) (Payment, error)

	// InitiateRentPayment charges the tenant for a generated rent invoice
	// through the mobile-money gateway. Retrying while a charge is in
	// flight hands back the in-progress payment; a failed charge may be
	// initiated again.
	InitiateRentPayment(ctx context.Context, req InitiateRentRequest) (Payment, error)

	// RecordSettlement handles the gateway callback for a successful
	// charge. Settling an overdue lease's currently due period flips the
	// lease back to active_regular.
	RecordSettlement(ctx context.Context, req SettlementRequest) (Payment, error)

	// RecordFailure handles the gateway callback for a failed charge.
	RecordFailure(ctx context.Context, externalTxnID string) (Payment, error)

	GetByID(ctx context.Context, id snowflake.ID) (Payment, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByExternalTxnID(ctx context.Context, db *gorm.DB, externalTxnID string) (*Payment, error)
	FindByLeasePeriod(ctx context.Context, db *gorm.DB, leaseID snowflake.ID, period time.Time, kind PaymentKind) (*Payment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status PaymentStatus, settledAt *time.Time) error
	SettledExists(ctx context.Context, db *gorm.DB, leaseID snowflake.ID, period time.Time) (bool, error)
	SettledOrInProgressExists(ctx context.Context, db *gorm.DB, leaseID snowflake.ID, period time.Time) (bool, error)
}

var (
	ErrNotFound         = errors.New("payment_not_found")
	ErrAlreadySettled   = errors.New("payment_already_settled")
	ErrDuplicatePayment = errors.New("duplicate_payment")
	ErrInvalidState     = errors.New("invalid_payment_state")
)
