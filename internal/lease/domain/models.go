package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/caution"
)

type LeaseStatus string

const (
	LeaseStatusPendingCaution   LeaseStatus = "pending_caution"
	LeaseStatusCautionSubmitted LeaseStatus = "caution_submitted"
	LeaseStatusActiveAdvance    LeaseStatus = "active_advance"
	LeaseStatusActiveRegular    LeaseStatus = "active_regular"
	LeaseStatusOverdue          LeaseStatus = "overdue"
	LeaseStatusTerminated       LeaseStatus = "terminated"
)

// Lease is one tenancy. Rows are never deleted; terminated leases are
// retained for audit.
type Lease struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	SpaceID    snowflake.ID `gorm:"not null;index" json:"space_id"`
	PropertyID snowflake.ID `gorm:"not null;index" json:"property_id"`
	TenantID   snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	ManagerID  snowflake.ID `gorm:"not null" json:"manager_id"`

	MonthlyRent   int64 `gorm:"not null" json:"monthly_rent"`
	AdvanceMonths int   `gorm:"not null" json:"advance_months"`
	DepositMonths int   `gorm:"not null" json:"deposit_months"`
	BrokerMonths  int   `gorm:"not null" json:"broker_months"`

	StartDate      time.Time   `gorm:"not null" json:"start_date"`
	Status         LeaseStatus `gorm:"not null;index" json:"status"`
	CautionPaid    bool        `gorm:"not null;default:false" json:"caution_paid"`
	CautionPaidAt  *time.Time  `json:"caution_paid_at,omitempty"`
	FirstRegularAt *time.Time  `gorm:"column:first_regular_payment_at" json:"first_regular_payment_at,omitempty"`
	EndedAt        *time.Time  `json:"ended_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Lease) TableName() string {
	return "leases"
}

// CautionBreakdown recomputes the caution decomposition from the lease's
// own terms.
func (l Lease) CautionBreakdown() (caution.Breakdown, error) {
	return caution.Compute(l.MonthlyRent, l.AdvanceMonths, l.DepositMonths, l.BrokerMonths)
}

// CautionTotal is rent × (advance+deposit+broker) months. Zero when the
// terms are out of range.
func (l Lease) CautionTotal() int64 {
	b, err := l.CautionBreakdown()
	if err != nil {
		return 0
	}
	return b.TotalAmount
}

// Active reports whether the lease still produces invoices and reminders.
func (l Lease) Active() bool {
	switch l.Status {
	case LeaseStatusActiveAdvance, LeaseStatusActiveRegular, LeaseStatusOverdue:
		return true
	}
	return false
}
