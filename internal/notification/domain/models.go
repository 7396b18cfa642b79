package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Notification is one abstract event for a recipient. Delivery transport
// (push, SMS, in-app) is handled outside this service; rows act as an
// outbox for whatever transport picks them up.
type Notification struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	SpaceID     snowflake.ID `gorm:"not null;index" json:"space_id"`
	RecipientID snowflake.ID `gorm:"not null;index" json:"recipient_id"`
	LeaseID     snowflake.ID `gorm:"index" json:"lease_id,omitempty"`
	Type        string       `gorm:"not null" json:"type"`
	Title       string       `gorm:"not null" json:"title"`
	Message     string       `gorm:"not null" json:"message"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

const (
	TypeInvoiceCreated        = "invoice_created"
	TypeAdvanceEnding         = "advance_ending"
	TypeCourtesy              = "payment_courtesy"
	TypeDeadline              = "payment_deadline"
	TypeOverdue               = "payment_overdue"
	TypeOverdueManager        = "payment_overdue_manager"
	TypeCautionConfirmed      = "caution_confirmed"
	TypeDistributionCompleted = "distribution_completed"
)
