package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// Calculate produces the split record for a settled payment. A second
	// call for the same payment returns the existing record unchanged.
	Calculate(ctx context.Context, paymentID snowflake.ID) (PaymentDistribution, error)

	GetByPaymentID(ctx context.Context, paymentID snowflake.ID) (PaymentDistribution, error)

	// Disburse pushes one pending recipient's share through the payout
	// gateway and marks it sent.
	Disburse(ctx context.Context, distributionID snowflake.ID, kind RecipientKind) (Recipient, error)

	// MarkRecipientSent records an externally confirmed transfer for one
	// recipient, independent of the others.
	MarkRecipientSent(ctx context.Context, distributionID snowflake.ID, kind RecipientKind, transferID string) (Recipient, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, dist *PaymentDistribution, recipients []Recipient) error
	FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (*PaymentDistribution, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentDistribution, error)
	FindRecipient(ctx context.Context, db *gorm.DB, distributionID snowflake.ID, kind RecipientKind) (*Recipient, error)
	UpdateRecipientStatus(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, status RecipientStatus, transferID string) error
}

var (
	ErrPaymentNotFound     = errors.New("payment_not_found")
	ErrLeaseNotFound       = errors.New("lease_not_found")
	ErrNotFound            = errors.New("distribution_not_found")
	ErrRecipientNotFound   = errors.New("recipient_not_found")
	ErrPaymentNotSettled   = errors.New("payment_not_settled")
	ErrRecipientNotPending = errors.New("recipient_not_pending")
)
