package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/kirapay/kirapay/internal/audit/domain"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	notificationdomain "github.com/kirapay/kirapay/internal/notification/domain"
	"github.com/kirapay/kirapay/internal/payment/domain"
	"github.com/kirapay/kirapay/internal/payment/gateway"
	"github.com/kirapay/kirapay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	LeaseSvc leasedomain.Service
	Gateway  gateway.Gateway
	Notifier notificationdomain.Notifier
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	leaseSvc leasedomain.Service
	gateway  gateway.Gateway
	notifier notificationdomain.Notifier
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		leaseSvc: p.LeaseSvc,
		gateway:  p.Gateway,
		notifier: p.Notifier,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) CreateRentInvoice(ctx context.Context, leaseID snowflake.ID, period time.Time) (domain.Payment, bool, error) {
	lease, err := s.leaseSvc.GetByID(ctx, leaseID)
	if err != nil {
		return domain.Payment{}, false, err
	}

	period = domain.PeriodOf(period)
	existing, err := s.repo.FindByLeasePeriod(ctx, s.db, lease.ID, period, domain.PaymentKindRent)
	if err != nil {
		return domain.Payment{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		ID:        s.genID.Generate(),
		SpaceID:   lease.SpaceID,
		LeaseID:   lease.ID,
		Kind:      domain.PaymentKindRent,
		Amount:    lease.MonthlyRent,
		Period:    period,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		// a concurrent job run won the insert; treat as already invoiced
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindByLeasePeriod(ctx, s.db, lease.ID, period, domain.PaymentKindRent)
			if findErr == nil && existing != nil {
				return *existing, false, nil
			}
			return domain.Payment{}, false, err
		}
		return domain.Payment{}, false, err
	}

	s.notify(ctx, lease, lease.TenantID, notificationdomain.TypeInvoiceCreated,
		"Rent due",
		fmt.Sprintf("Your rent of %d for %s is due. Please pay before the 10th.", payment.Amount, period.Format("January 2006")),
	)
	s.audit(ctx, payment, "payment.invoice_created", map[string]any{
		"lease_id": lease.ID.String(),
		"period":   period.Format("2006-01-02"),
		"amount":   payment.Amount,
	})
	return payment, true, nil
}

func (s *Service) InitiateCautionPayment(ctx context.Context, req domain.InitiateCautionRequest) (domain.Payment, error) {
	lease, err := s.leaseSvc.GetByID(ctx, req.LeaseID)
	if err != nil {
		return domain.Payment{}, err
	}

	breakdown, err := lease.CautionBreakdown()
	if err != nil {
		return domain.Payment{}, err
	}

	period := domain.PeriodOf(lease.StartDate)
	existing, err := s.repo.FindByLeasePeriod(ctx, s.db, lease.ID, period, domain.PaymentKindCaution)
	if err != nil {
		return domain.Payment{}, err
	}
	if existing != nil {
		if existing.Status == domain.PaymentStatusSettled {
			return *existing, domain.ErrAlreadySettled
		}
		return *existing, nil
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		ID:         s.genID.Generate(),
		SpaceID:    lease.SpaceID,
		LeaseID:    lease.ID,
		Kind:       domain.PaymentKindCaution,
		Amount:     breakdown.TotalAmount,
		Period:     period,
		Status:     domain.PaymentStatusPending,
		Method:     strings.TrimSpace(req.Method),
		PayerPhone: strings.TrimSpace(req.PayerPhone),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Payment{}, domain.ErrDuplicatePayment
		}
		return domain.Payment{}, err
	}

	result, err := s.gateway.Collect(ctx, gateway.CollectRequest{
		Amount:     payment.Amount,
		PayerPhone: payment.PayerPhone,
		Method:     payment.Method,
		Reference:  payment.ID.String(),
	})
	if err != nil {
		return domain.Payment{}, err
	}

	payment.Status = domain.PaymentStatusInProgress
	payment.ExternalTxnID = result.TransactionID
	if err := s.db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, external_txn_id = ?, updated_at = ? WHERE id = ?`,
		payment.Status,
		payment.ExternalTxnID,
		time.Now().UTC(),
		payment.ID,
	).Error; err != nil {
		return domain.Payment{}, err
	}

	s.audit(ctx, payment, "payment.caution_initiated", map[string]any{
		"lease_id": lease.ID.String(),
		"amount":   payment.Amount,
		"txn_id":   payment.ExternalTxnID,
	})
	return payment, nil
}

func (s *Service) InitiateRentPayment(ctx context.Context, req domain.InitiateRentRequest) (domain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, req.PaymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	if payment.Kind != domain.PaymentKindRent {
		return domain.Payment{}, domain.ErrInvalidState
	}

	switch payment.Status {
	case domain.PaymentStatusSettled:
		return *payment, domain.ErrAlreadySettled
	case domain.PaymentStatusInProgress:
		// charge already in flight; the gateway callback will resolve it
		return *payment, nil
	}

	payment.Method = strings.TrimSpace(req.Method)
	payment.PayerPhone = strings.TrimSpace(req.PayerPhone)

	result, err := s.gateway.Collect(ctx, gateway.CollectRequest{
		Amount:     payment.Amount,
		PayerPhone: payment.PayerPhone,
		Method:     payment.Method,
		Reference:  payment.ID.String(),
	})
	if err != nil {
		return domain.Payment{}, err
	}

	payment.Status = domain.PaymentStatusInProgress
	payment.ExternalTxnID = result.TransactionID
	if err := s.db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, external_txn_id = ?, method = ?, payer_phone = ?, updated_at = ? WHERE id = ?`,
		payment.Status,
		payment.ExternalTxnID,
		payment.Method,
		payment.PayerPhone,
		time.Now().UTC(),
		payment.ID,
	).Error; err != nil {
		return domain.Payment{}, err
	}

	s.audit(ctx, *payment, "payment.rent_initiated", map[string]any{
		"lease_id": payment.LeaseID.String(),
		"amount":   payment.Amount,
		"txn_id":   payment.ExternalTxnID,
	})
	return *payment, nil
}

func (s *Service) RecordSettlement(ctx context.Context, req domain.SettlementRequest) (domain.Payment, error) {
	payment, err := s.repo.FindByExternalTxnID(ctx, s.db, strings.TrimSpace(req.ExternalTxnID))
	if err != nil {
		return domain.Payment{}, err
	}
	if payment == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	// replayed callback for a payment we already settled
	if payment.Status == domain.PaymentStatusSettled {
		return *payment, nil
	}

	settledAt := req.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now().UTC()
	}
	settledAt = settledAt.UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// only one payment per (lease, period) may reach settled
		already, err := s.repo.SettledExists(ctx, tx, payment.LeaseID, payment.Period)
		if err != nil {
			return err
		}
		if already {
			return domain.ErrAlreadySettled
		}
		return s.repo.UpdateStatus(ctx, tx, payment.ID, domain.PaymentStatusSettled, &settledAt)
	})
	if err != nil {
		return domain.Payment{}, err
	}
	payment.Status = domain.PaymentStatusSettled
	payment.SettledAt = &settledAt

	if payment.Kind == domain.PaymentKindRent {
		if lease, err := s.leaseSvc.GetByID(ctx, payment.LeaseID); err == nil && lease.Status == leasedomain.LeaseStatusOverdue {
			if _, err := s.leaseSvc.ResumeFromOverdue(ctx, lease.ID); err != nil {
				s.log.Warn("resume from overdue failed",
					zap.String("lease_id", lease.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	s.audit(ctx, *payment, "payment.settled", map[string]any{
		"lease_id": payment.LeaseID.String(),
		"kind":     string(payment.Kind),
		"amount":   payment.Amount,
	})
	return *payment, nil
}

func (s *Service) RecordFailure(ctx context.Context, externalTxnID string) (domain.Payment, error) {
	payment, err := s.repo.FindByExternalTxnID(ctx, s.db, strings.TrimSpace(externalTxnID))
	if err != nil {
		return domain.Payment{}, err
	}
	if payment == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	if payment.Status == domain.PaymentStatusSettled {
		return domain.Payment{}, domain.ErrInvalidState
	}

	if err := s.repo.UpdateStatus(ctx, s.db, payment.ID, domain.PaymentStatusFailed, nil); err != nil {
		return domain.Payment{}, err
	}
	payment.Status = domain.PaymentStatusFailed

	s.audit(ctx, *payment, "payment.failed", map[string]any{
		"lease_id": payment.LeaseID.String(),
		"txn_id":   payment.ExternalTxnID,
	})
	return *payment, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	return *payment, nil
}

func (s *Service) notify(ctx context.Context, lease leasedomain.Lease, recipientID snowflake.ID, typ, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, notificationdomain.NotifyRequest{
		SpaceID:     lease.SpaceID,
		RecipientID: recipientID,
		LeaseID:     lease.ID,
		Type:        typ,
		Title:       title,
		Message:     message,
	}); err != nil {
		s.log.Warn("notify failed", zap.String("type", typ), zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, payment domain.Payment, action string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, payment.SpaceID, "", "", action, "payment", payment.ID.String(), metadata)
}
