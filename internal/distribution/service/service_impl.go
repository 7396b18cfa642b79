package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/kirapay/kirapay/internal/audit/domain"
	"github.com/kirapay/kirapay/internal/distribution/domain"
	configdomain "github.com/kirapay/kirapay/internal/distributionconfig/domain"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
	"github.com/kirapay/kirapay/internal/payment/gateway"
	"github.com/kirapay/kirapay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	PaymentSvc paymentdomain.Service
	LeaseSvc   leasedomain.Service
	ConfigSvc  configdomain.Service
	Gateway    gateway.Gateway
	AuditSvc   auditdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	paymentSvc paymentdomain.Service
	leaseSvc   leasedomain.Service
	configSvc  configdomain.Service
	gateway    gateway.Gateway
	auditSvc   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("distribution.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		paymentSvc: p.PaymentSvc,
		leaseSvc:   p.LeaseSvc,
		configSvc:  p.ConfigSvc,
		gateway:    p.Gateway,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) Calculate(ctx context.Context, paymentID snowflake.ID) (domain.PaymentDistribution, error) {
	payment, err := s.paymentSvc.GetByID(ctx, paymentID)
	if err != nil {
		return domain.PaymentDistribution{}, domain.ErrPaymentNotFound
	}
	if payment.Status != paymentdomain.PaymentStatusSettled {
		return domain.PaymentDistribution{}, domain.ErrPaymentNotSettled
	}

	lease, err := s.leaseSvc.GetByID(ctx, payment.LeaseID)
	if err != nil {
		return domain.PaymentDistribution{}, domain.ErrLeaseNotFound
	}

	// configuration errors propagate verbatim; no silent percentage defaults
	cfg, err := s.configSvc.Get(ctx, lease.SpaceID)
	if err != nil {
		return domain.PaymentDistribution{}, err
	}

	// already distributed: idempotent no-op
	if existing, err := s.repo.FindByPaymentID(ctx, s.db, paymentID); err != nil {
		return domain.PaymentDistribution{}, err
	} else if existing != nil {
		return *existing, nil
	}

	var dist domain.PaymentDistribution
	var recipients []domain.Recipient
	if payment.Amount == lease.CautionTotal() {
		dist, recipients, err = s.buildCaution(payment, lease, cfg)
	} else {
		dist, recipients = s.buildRent(payment, lease, cfg)
	}
	if err != nil {
		return domain.PaymentDistribution{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &dist, recipients); err != nil {
		// a concurrent settlement callback already created the record
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindByPaymentID(ctx, s.db, paymentID)
			if findErr == nil && existing != nil {
				return *existing, nil
			}
		}
		return domain.PaymentDistribution{}, err
	}
	dist.Recipients = recipients

	s.audit(ctx, dist, "distribution.created", map[string]any{
		"payment_id":   payment.ID.String(),
		"kind":         string(dist.Kind),
		"total_amount": dist.TotalAmount,
	})
	return dist, nil
}

func (s *Service) buildRent(payment paymentdomain.Payment, lease leasedomain.Lease, cfg configdomain.Config) (domain.PaymentDistribution, []domain.Recipient) {
	ownerShare := payment.Amount * int64(cfg.OwnerPct) / 100
	managerShare := payment.Amount - ownerShare // remainder absorbs rounding

	dist := s.newDistribution(payment, lease, domain.DistributionKindRent)
	recipients := []domain.Recipient{
		s.newRecipient(dist.ID, domain.RecipientOwner, cfg.OwnerName, cfg.OwnerPhone, cfg.OwnerChannel, ownerShare, domain.RecipientStatusPending),
		s.newRecipient(dist.ID, domain.RecipientManager, cfg.ManagerName, cfg.ManagerPhone, cfg.ManagerChannel, managerShare, domain.RecipientStatusPending),
		s.newRecipient(dist.ID, domain.RecipientBroker, cfg.BrokerName, cfg.BrokerPhone, cfg.BrokerChannel, 0, domain.RecipientStatusNotApplicable),
	}
	return dist, recipients
}

func (s *Service) buildCaution(payment paymentdomain.Payment, lease leasedomain.Lease, cfg configdomain.Config) (domain.PaymentDistribution, []domain.Recipient, error) {
	// recompute from the lease's own terms so the split stays correct
	// even if percentages changed after lease creation
	breakdown, err := lease.CautionBreakdown()
	if err != nil {
		return domain.PaymentDistribution{}, nil, err
	}

	ownerAdvance := breakdown.AdvanceAmount * int64(cfg.OwnerPct) / 100
	managerAdvance := breakdown.AdvanceAmount - ownerAdvance

	// deposit is held by the manager as guarantee, not split
	managerTotal := managerAdvance + breakdown.DepositAmount

	brokerStatus := domain.RecipientStatusPending
	if !cfg.HasBroker() || breakdown.BrokerAmount == 0 {
		// never reassigned to another party; surfaces on the broker row
		brokerStatus = domain.RecipientStatusNotApplicable
	}

	dist := s.newDistribution(payment, lease, domain.DistributionKindCaution)
	dist.AdvanceAmount = breakdown.AdvanceAmount
	dist.DepositAmount = breakdown.DepositAmount
	dist.BrokerAmount = breakdown.BrokerAmount
	dist.OwnerShareOfAdvance = ownerAdvance
	dist.ManagerShareOfAdvance = managerAdvance

	recipients := []domain.Recipient{
		s.newRecipient(dist.ID, domain.RecipientOwner, cfg.OwnerName, cfg.OwnerPhone, cfg.OwnerChannel, ownerAdvance, domain.RecipientStatusPending),
		s.newRecipient(dist.ID, domain.RecipientManager, cfg.ManagerName, cfg.ManagerPhone, cfg.ManagerChannel, managerTotal, domain.RecipientStatusPending),
		s.newRecipient(dist.ID, domain.RecipientBroker, cfg.BrokerName, cfg.BrokerPhone, cfg.BrokerChannel, breakdown.BrokerAmount, brokerStatus),
	}
	return dist, recipients, nil
}

func (s *Service) newDistribution(payment paymentdomain.Payment, lease leasedomain.Lease, kind domain.DistributionKind) domain.PaymentDistribution {
	return domain.PaymentDistribution{
		ID:          s.genID.Generate(),
		SpaceID:     lease.SpaceID,
		PaymentID:   payment.ID,
		LeaseID:     lease.ID,
		Kind:        kind,
		TotalAmount: payment.Amount,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *Service) newRecipient(distID snowflake.ID, kind domain.RecipientKind, name, phone, channel string, amount int64, status domain.RecipientStatus) domain.Recipient {
	return domain.Recipient{
		ID:             s.genID.Generate(),
		DistributionID: distID,
		Kind:           kind,
		Name:           name,
		Phone:          phone,
		Channel:        channel,
		Amount:         amount,
		Status:         status,
		UpdatedAt:      time.Now().UTC(),
	}
}

func (s *Service) GetByPaymentID(ctx context.Context, paymentID snowflake.ID) (domain.PaymentDistribution, error) {
	dist, err := s.repo.FindByPaymentID(ctx, s.db, paymentID)
	if err != nil {
		return domain.PaymentDistribution{}, err
	}
	if dist == nil {
		return domain.PaymentDistribution{}, domain.ErrNotFound
	}
	return *dist, nil
}

func (s *Service) Disburse(ctx context.Context, distributionID snowflake.ID, kind domain.RecipientKind) (domain.Recipient, error) {
	recipient, err := s.repo.FindRecipient(ctx, s.db, distributionID, kind)
	if err != nil {
		return domain.Recipient{}, err
	}
	if recipient == nil {
		return domain.Recipient{}, domain.ErrRecipientNotFound
	}
	if recipient.Status != domain.RecipientStatusPending || recipient.Amount <= 0 {
		return domain.Recipient{}, domain.ErrRecipientNotPending
	}

	result, err := s.gateway.Transfer(ctx, gateway.TransferRequest{
		Amount:         recipient.Amount,
		RecipientPhone: recipient.Phone,
		Channel:        recipient.Channel,
		Reference:      recipient.ID.String(),
	})
	if err != nil {
		return domain.Recipient{}, err
	}

	return s.MarkRecipientSent(ctx, distributionID, kind, result.TransactionID)
}

func (s *Service) MarkRecipientSent(ctx context.Context, distributionID snowflake.ID, kind domain.RecipientKind, transferID string) (domain.Recipient, error) {
	transferID = strings.TrimSpace(transferID)

	recipient, err := s.repo.FindRecipient(ctx, s.db, distributionID, kind)
	if err != nil {
		return domain.Recipient{}, err
	}
	if recipient == nil {
		return domain.Recipient{}, domain.ErrRecipientNotFound
	}
	if recipient.Status == domain.RecipientStatusSettled {
		return *recipient, nil
	}
	if recipient.Status != domain.RecipientStatusPending {
		return domain.Recipient{}, domain.ErrRecipientNotPending
	}

	if err := s.repo.UpdateRecipientStatus(ctx, s.db, recipient.ID, domain.RecipientStatusSettled, transferID); err != nil {
		return domain.Recipient{}, err
	}
	recipient.Status = domain.RecipientStatusSettled
	recipient.TransferID = transferID

	s.log.Info("recipient share settled",
		zap.String("distribution_id", distributionID.String()),
		zap.String("kind", string(kind)),
		zap.Int64("amount", recipient.Amount),
	)
	return *recipient, nil
}

func (s *Service) audit(ctx context.Context, dist domain.PaymentDistribution, action string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, dist.SpaceID, "", "", action, "payment_distribution", dist.ID.String(), metadata)
}
