package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/kirapay/kirapay/internal/audit/domain"
	"github.com/kirapay/kirapay/internal/caution"
	"github.com/kirapay/kirapay/internal/lease/domain"
	propertydomain "github.com/kirapay/kirapay/internal/property/domain"
	"github.com/kirapay/kirapay/internal/spacectx"
	"github.com/kirapay/kirapay/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	PropertySvc propertydomain.Service
	AuditSvc    auditdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	propertySvc propertydomain.Service
	auditSvc    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("lease.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		propertySvc: p.PropertySvc,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLeaseRequest) (domain.Lease, error) {
	spaceID, ok := spacectx.SpaceIDFromContext(ctx)
	if !ok || spaceID == 0 {
		return domain.Lease{}, domain.ErrInvalidSpace
	}
	if req.PropertyID == 0 || req.TenantID == 0 || req.ManagerID == 0 {
		return domain.Lease{}, domain.ErrInvalidRequest
	}
	// validates rent and month counts up front
	if _, err := caution.Compute(req.MonthlyRent, req.AdvanceMonths, req.DepositMonths, req.BrokerMonths); err != nil {
		return domain.Lease{}, err
	}

	now := time.Now().UTC()
	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = now
	}

	lease := domain.Lease{
		ID:            s.genID.Generate(),
		SpaceID:       spaceID,
		PropertyID:    req.PropertyID,
		TenantID:      req.TenantID,
		ManagerID:     req.ManagerID,
		MonthlyRent:   req.MonthlyRent,
		AdvanceMonths: req.AdvanceMonths,
		DepositMonths: req.DepositMonths,
		BrokerMonths:  req.BrokerMonths,
		StartDate:     startDate.UTC(),
		Status:        domain.LeaseStatusPendingCaution,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, &lease); err != nil {
		return domain.Lease{}, err
	}

	s.audit(ctx, lease, "lease.created", map[string]any{
		"property_id":  lease.PropertyID.String(),
		"tenant_id":    lease.TenantID.String(),
		"monthly_rent": lease.MonthlyRent,
	})
	return lease, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Lease, error) {
	spaceID, _ := spacectx.SpaceIDFromContext(ctx)
	lease, err := s.repo.FindByID(ctx, s.db, spaceID, id)
	if err != nil {
		return domain.Lease{}, err
	}
	if lease == nil {
		return domain.Lease{}, domain.ErrNotFound
	}
	return *lease, nil
}

func (s *Service) List(ctx context.Context, req domain.ListLeaseRequest) (domain.ListLeaseResponse, error) {
	spaceID, ok := spacectx.SpaceIDFromContext(ctx)
	if !ok || spaceID == 0 {
		return domain.ListLeaseResponse{}, domain.ErrInvalidSpace
	}

	req.Pagination = req.Pagination.Normalize()

	items, err := s.repo.List(ctx, s.db, spaceID, req)
	if err != nil {
		return domain.ListLeaseResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, req.PageSize, func(lease *domain.Lease) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        lease.ID.String(),
			CreatedAt: lease.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > req.PageSize {
		items = items[:req.PageSize]
	}

	leases := make([]domain.Lease, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		leases = append(leases, *item)
	}

	resp := domain.ListLeaseResponse{Leases: leases}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) SubmitCautionReceipt(ctx context.Context, id snowflake.ID) (domain.Lease, error) {
	return s.transition(ctx, id, domain.LeaseStatusCautionSubmitted, nil)
}

func (s *Service) ConfirmCaution(ctx context.Context, id snowflake.ID) (domain.Lease, error) {
	now := time.Now().UTC()
	lease, err := s.transition(ctx, id, domain.LeaseStatusActiveAdvance, func(l *domain.Lease) {
		paidAt := now
		firstRegular := caution.FirstRegularPaymentDate(paidAt, l.AdvanceMonths)
		l.CautionPaid = true
		l.CautionPaidAt = &paidAt
		l.FirstRegularAt = &firstRegular
	})
	if err != nil {
		return domain.Lease{}, err
	}

	if err := s.propertySvc.SetOccupied(ctx, lease.PropertyID, true); err != nil {
		s.log.Warn("mark property occupied failed",
			zap.String("lease_id", lease.ID.String()),
			zap.String("property_id", lease.PropertyID.String()),
			zap.Error(err),
		)
	}
	return lease, nil
}

func (s *Service) ActivateRegular(ctx context.Context, id snowflake.ID) (domain.Lease, error) {
	return s.transition(ctx, id, domain.LeaseStatusActiveRegular, nil)
}

func (s *Service) MarkOverdue(ctx context.Context, id snowflake.ID) (domain.Lease, error) {
	return s.transition(ctx, id, domain.LeaseStatusOverdue, nil)
}

func (s *Service) ResumeFromOverdue(ctx context.Context, id snowflake.ID) (domain.Lease, error) {
	return s.transition(ctx, id, domain.LeaseStatusActiveRegular, nil)
}

func (s *Service) Terminate(ctx context.Context, id snowflake.ID) (domain.Lease, error) {
	now := time.Now().UTC()
	lease, err := s.transition(ctx, id, domain.LeaseStatusTerminated, func(l *domain.Lease) {
		l.EndedAt = &now
	})
	if err != nil {
		return domain.Lease{}, err
	}

	if err := s.propertySvc.SetOccupied(ctx, lease.PropertyID, false); err != nil {
		s.log.Warn("mark property available failed",
			zap.String("lease_id", lease.ID.String()),
			zap.String("property_id", lease.PropertyID.String()),
			zap.Error(err),
		)
	}
	return lease, nil
}

// transition applies one state-machine edge under a transaction. mutate
// runs after the edge check and may set derived fields.
func (s *Service) transition(ctx context.Context, id snowflake.ID, to domain.LeaseStatus, mutate func(*domain.Lease)) (domain.Lease, error) {
	spaceID, _ := spacectx.SpaceIDFromContext(ctx)

	var out domain.Lease
	var from domain.LeaseStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lease, err := s.repo.FindByID(ctx, tx, spaceID, id)
		if err != nil {
			return err
		}
		if lease == nil {
			return domain.ErrNotFound
		}
		if !domain.CanTransition(lease.Status, to) {
			return domain.ErrInvalidTransition
		}

		from = lease.Status
		lease.Status = to
		lease.UpdatedAt = time.Now().UTC()
		if mutate != nil {
			mutate(lease)
		}
		if err := s.repo.Update(ctx, tx, lease); err != nil {
			return err
		}
		out = *lease
		return nil
	})
	if err != nil {
		return domain.Lease{}, err
	}

	s.audit(ctx, out, "lease.status_changed", map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	s.log.Info("lease status changed",
		zap.String("lease_id", out.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return out, nil
}

func (s *Service) audit(ctx context.Context, lease domain.Lease, action string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, lease.SpaceID, "", "", action, "lease", lease.ID.String(), metadata)
}
