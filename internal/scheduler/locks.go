package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
)

// WorkLease is the slice of a lease the jobs need. Only leases whose
// caution is confirmed produce invoices or reminders.
type WorkLease struct {
	ID                    snowflake.ID
	SpaceID               snowflake.ID
	TenantID              snowflake.ID
	ManagerID             snowflake.ID
	MonthlyRent           int64
	Status                leasedomain.LeaseStatus
	StartDate             time.Time
	FirstRegularPaymentAt *time.Time
}

func (s *Scheduler) fetchLeasesForWork(ctx context.Context, afterID snowflake.ID, limit int) ([]WorkLease, error) {
	var leases []WorkLease
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, space_id, tenant_id, manager_id, monthly_rent, status, start_date, first_regular_payment_at
		 FROM leases
		 WHERE caution_paid = ?
		   AND status IN (?, ?, ?)
		   AND id > ?
		 ORDER BY id
		 LIMIT ?`+s.lockClause(),
		true,
		leasedomain.LeaseStatusActiveAdvance,
		leasedomain.LeaseStatusActiveRegular,
		leasedomain.LeaseStatusOverdue,
		afterID,
		limit,
	).Scan(&leases).Error
	if err != nil {
		return nil, err
	}
	return leases, nil
}

// lockClause claims rows against concurrent scheduler replicas. SQLite
// has a single writer and no row locks, so the clause is skipped there.
func (s *Scheduler) lockClause() string {
	switch s.db.Dialector.Name() {
	case "postgres", "mysql":
		return " FOR UPDATE SKIP LOCKED"
	}
	return ""
}
