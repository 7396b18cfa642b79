package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateLeaseRequest struct {
	PropertyID    snowflake.ID
	TenantID      snowflake.ID
	ManagerID     snowflake.ID
	MonthlyRent   int64
	AdvanceMonths int
	DepositMonths int
	BrokerMonths  int
	StartDate     time.Time
}

type ListLeaseRequest struct {
	pagination.Pagination
	Status   string
	TenantID string
}

type ListLeaseResponse struct {
	pagination.PageInfo
	Leases []Lease `json:"leases"`
}

type Service interface {
	Create(ctx context.Context, req CreateLeaseRequest) (Lease, error)
	GetByID(ctx context.Context, id snowflake.ID) (Lease, error)
	List(ctx context.Context, req ListLeaseRequest) (ListLeaseResponse, error)

	SubmitCautionReceipt(ctx context.Context, id snowflake.ID) (Lease, error)
	ConfirmCaution(ctx context.Context, id snowflake.ID) (Lease, error)
	ActivateRegular(ctx context.Context, id snowflake.ID) (Lease, error)
	MarkOverdue(ctx context.Context, id snowflake.ID) (Lease, error)
	ResumeFromOverdue(ctx context.Context, id snowflake.ID) (Lease, error)
	Terminate(ctx context.Context, id snowflake.ID) (Lease, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lease *Lease) error
	FindByID(ctx context.Context, db *gorm.DB, spaceID, id snowflake.ID) (*Lease, error)
	Update(ctx context.Context, db *gorm.DB, lease *Lease) error
	List(ctx context.Context, db *gorm.DB, spaceID snowflake.ID, req ListLeaseRequest) ([]*Lease, error)
}

var (
	ErrInvalidSpace      = errors.New("invalid_space")
	ErrNotFound          = errors.New("lease_not_found")
	ErrInvalidRequest    = errors.New("invalid_lease_request")
	ErrInvalidTransition = errors.New("invalid_lease_transition")
)

// transitions holds every legal edge. active_regular <-> overdue is the
// only reversible pair; terminated is reachable from any live status.
var transitions = map[LeaseStatus][]LeaseStatus{
	LeaseStatusPendingCaution:   {LeaseStatusCautionSubmitted, LeaseStatusTerminated},
	LeaseStatusCautionSubmitted: {LeaseStatusActiveAdvance, LeaseStatusTerminated},
	LeaseStatusActiveAdvance:    {LeaseStatusActiveRegular, LeaseStatusTerminated},
	LeaseStatusActiveRegular:    {LeaseStatusOverdue, LeaseStatusTerminated},
	LeaseStatusOverdue:          {LeaseStatusActiveRegular, LeaseStatusTerminated},
	LeaseStatusTerminated:       {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to LeaseStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
