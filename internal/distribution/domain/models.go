package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type DistributionKind string

const (
	DistributionKindCaution DistributionKind = "caution"
	DistributionKindRent    DistributionKind = "rent"
)

type RecipientKind string

const (
	RecipientOwner   RecipientKind = "owner"
	RecipientManager RecipientKind = "manager"
	RecipientBroker  RecipientKind = "broker"
)

type RecipientStatus string

const (
	RecipientStatusPending       RecipientStatus = "pending"
	RecipientStatusSettled       RecipientStatus = "settled"
	RecipientStatusNotApplicable RecipientStatus = "not_applicable"
)

// PaymentDistribution is the immutable split record for one settled
// payment. The unique index on payment_id makes creation idempotent.
// The advance/deposit/broker columns are populated for caution payments
// only.
type PaymentDistribution struct {
	ID        snowflake.ID     `gorm:"primaryKey" json:"id"`
	SpaceID   snowflake.ID     `gorm:"not null;index" json:"space_id"`
	PaymentID snowflake.ID     `gorm:"not null;uniqueIndex" json:"payment_id"`
	LeaseID   snowflake.ID     `gorm:"not null;index" json:"lease_id"`
	Kind      DistributionKind `gorm:"not null" json:"kind"`

	TotalAmount int64 `gorm:"not null" json:"total_amount"`

	AdvanceAmount         int64 `gorm:"not null;default:0" json:"advance_amount,omitempty"`
	DepositAmount         int64 `gorm:"not null;default:0" json:"deposit_amount,omitempty"`
	BrokerAmount          int64 `gorm:"not null;default:0" json:"broker_amount,omitempty"`
	OwnerShareOfAdvance   int64 `gorm:"not null;default:0" json:"owner_share_of_advance,omitempty"`
	ManagerShareOfAdvance int64 `gorm:"not null;default:0" json:"manager_share_of_advance,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Recipients []Recipient `gorm:"-" json:"recipients,omitempty"`
}

func (PaymentDistribution) TableName() string {
	return "payment_distributions"
}

// Recipient is one party's share of a distribution. Owner, manager and
// broker rows share this uniform shape and are processed generically.
type Recipient struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	DistributionID snowflake.ID    `gorm:"not null;uniqueIndex:idx_distribution_recipient,priority:1" json:"distribution_id"`
	Kind           RecipientKind   `gorm:"not null;uniqueIndex:idx_distribution_recipient,priority:2" json:"kind"`
	Name           string          `json:"name,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Channel        string          `json:"channel,omitempty"`
	Amount         int64           `gorm:"not null" json:"amount"`
	Status         RecipientStatus `gorm:"not null" json:"status"`
	TransferID     string          `gorm:"column:transfer_id" json:"transfer_id,omitempty"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Recipient) TableName() string {
	return "distribution_recipients"
}
