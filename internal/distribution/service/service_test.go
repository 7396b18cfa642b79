package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/kirapay/kirapay/internal/audit/domain"
	auditrepository "github.com/kirapay/kirapay/internal/audit/repository"
	auditservice "github.com/kirapay/kirapay/internal/audit/service"
	"github.com/kirapay/kirapay/internal/distribution/domain"
	"github.com/kirapay/kirapay/internal/distribution/repository"
	configdomain "github.com/kirapay/kirapay/internal/distributionconfig/domain"
	configrepository "github.com/kirapay/kirapay/internal/distributionconfig/repository"
	configservice "github.com/kirapay/kirapay/internal/distributionconfig/service"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	leaserepository "github.com/kirapay/kirapay/internal/lease/repository"
	leaseservice "github.com/kirapay/kirapay/internal/lease/service"
	notificationdomain "github.com/kirapay/kirapay/internal/notification/domain"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
	"github.com/kirapay/kirapay/internal/payment/gateway"
	paymentrepository "github.com/kirapay/kirapay/internal/payment/repository"
	paymentservice "github.com/kirapay/kirapay/internal/payment/service"
	propertydomain "github.com/kirapay/kirapay/internal/property/domain"
	propertyservice "github.com/kirapay/kirapay/internal/property/service"
	"github.com/kirapay/kirapay/internal/spacectx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, notificationdomain.NotifyRequest) error { return nil }

type fixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	svc       domain.Service
	configSvc configdomain.Service
	space     snowflake.ID
	ctx       context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&leasedomain.Lease{},
		&paymentdomain.Payment{},
		&configdomain.Config{},
		&domain.PaymentDistribution{},
		&domain.Recipient{},
		&propertydomain.Property{},
		&auditdomain.AuditLog{},
		&notificationdomain.Notification{},
	))

	node, _ := snowflake.NewNode(1)
	log := zap.NewNop()
	gw := gateway.NewSimulated(log)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepository.Provide(),
	})
	propertySvc := propertyservice.New(propertyservice.Params{DB: db, Log: log})
	leaseSvc := leaseservice.New(leaseservice.Params{
		DB: db, Log: log, GenID: node, Repo: leaserepository.Provide(),
		PropertySvc: propertySvc, AuditSvc: auditSvc,
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB: db, Log: log, GenID: node, Repo: paymentrepository.Provide(),
		LeaseSvc: leaseSvc, Gateway: gw, Notifier: noopNotifier{}, AuditSvc: auditSvc,
	})
	configSvc := configservice.New(configservice.Params{
		DB: db, Log: log, GenID: node, Repo: configrepository.Provide(),
	})
	svc := New(Params{
		DB: db, Log: log, GenID: node, Repo: repository.Provide(),
		PaymentSvc: paymentSvc, LeaseSvc: leaseSvc, ConfigSvc: configSvc,
		Gateway: gw, AuditSvc: auditSvc,
	})

	space := node.Generate()
	return &fixture{
		db:        db,
		node:      node,
		svc:       svc,
		configSvc: configSvc,
		space:     space,
		ctx:       spacectx.WithSpaceID(context.Background(), space),
	}
}

func (f *fixture) configure(t *testing.T, ownerPct int, withBroker bool) {
	t.Helper()

	req := configdomain.UpsertConfigRequest{
		OwnerName: "Owner", OwnerPhone: "+237650000001", OwnerChannel: "mtn_momo", OwnerPct: ownerPct,
		ManagerName: "Manager", ManagerPhone: "+237650000002", ManagerChannel: "orange_money", ManagerPct: 100 - ownerPct,
	}
	if withBroker {
		req.BrokerName = "Broker"
		req.BrokerPhone = "+237650000003"
		req.BrokerChannel = "mtn_momo"
	}
	_, err := f.configSvc.Upsert(f.ctx, f.space, req)
	assert.NoError(t, err)
}

func (f *fixture) createLease(t *testing.T, rent int64, adv, dep, brk int) leasedomain.Lease {
	t.Helper()

	now := time.Now().UTC()
	lease := leasedomain.Lease{
		ID:            f.node.Generate(),
		SpaceID:       f.space,
		PropertyID:    f.node.Generate(),
		TenantID:      f.node.Generate(),
		ManagerID:     f.node.Generate(),
		MonthlyRent:   rent,
		AdvanceMonths: adv,
		DepositMonths: dep,
		BrokerMonths:  brk,
		StartDate:     now,
		Status:        leasedomain.LeaseStatusActiveRegular,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	assert.NoError(t, f.db.Create(&lease).Error)
	return lease
}

func (f *fixture) settledPayment(t *testing.T, lease leasedomain.Lease, amount int64, kind paymentdomain.PaymentKind) paymentdomain.Payment {
	t.Helper()

	now := time.Now().UTC()
	payment := paymentdomain.Payment{
		ID:        f.node.Generate(),
		SpaceID:   f.space,
		LeaseID:   lease.ID,
		Kind:      kind,
		Amount:    amount,
		Period:    paymentdomain.PeriodOf(now),
		Status:    paymentdomain.PaymentStatusSettled,
		SettledAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	assert.NoError(t, f.db.Create(&payment).Error)
	return payment
}

func recipientByKind(t *testing.T, dist domain.PaymentDistribution, kind domain.RecipientKind) domain.Recipient {
	t.Helper()
	for _, r := range dist.Recipients {
		if r.Kind == kind {
			return r
		}
	}
	t.Fatalf("recipient %s not found", kind)
	return domain.Recipient{}
}

func recipientSum(dist domain.PaymentDistribution) int64 {
	var sum int64
	for _, r := range dist.Recipients {
		sum += r.Amount
	}
	return sum
}

func TestCalculate_RentSplit(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 90, false)
	lease := f.createLease(t, 50_000, 2, 1, 0)
	payment := f.settledPayment(t, lease, 50_000, paymentdomain.PaymentKindRent)

	dist, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.DistributionKindRent, dist.Kind)
	assert.Equal(t, int64(50_000), dist.TotalAmount)

	owner := recipientByKind(t, dist, domain.RecipientOwner)
	manager := recipientByKind(t, dist, domain.RecipientManager)
	broker := recipientByKind(t, dist, domain.RecipientBroker)
	assert.Equal(t, int64(45_000), owner.Amount)
	assert.Equal(t, int64(5_000), manager.Amount)
	assert.Equal(t, int64(0), broker.Amount)
	assert.Equal(t, domain.RecipientStatusNotApplicable, broker.Status)
	assert.Equal(t, dist.TotalAmount, recipientSum(dist))
}

func TestCalculate_RentRoundingRemainderToManager(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 33, false)
	lease := f.createLease(t, 100_001, 2, 1, 0)
	payment := f.settledPayment(t, lease, 100_001, paymentdomain.PaymentKindRent)

	dist, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)

	owner := recipientByKind(t, dist, domain.RecipientOwner)
	manager := recipientByKind(t, dist, domain.RecipientManager)
	// 100,001 × 33% = 33,000.33 truncated; manager picks up the remainder
	assert.Equal(t, int64(33_000), owner.Amount)
	assert.Equal(t, int64(67_001), manager.Amount)
	assert.Equal(t, dist.TotalAmount, recipientSum(dist))
}

func TestCalculate_CautionWithBroker(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 90, true)
	lease := f.createLease(t, 100_000, 2, 2, 1)
	payment := f.settledPayment(t, lease, 500_000, paymentdomain.PaymentKindCaution)

	dist, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.DistributionKindCaution, dist.Kind)
	assert.Equal(t, int64(200_000), dist.AdvanceAmount)
	assert.Equal(t, int64(200_000), dist.DepositAmount)
	assert.Equal(t, int64(100_000), dist.BrokerAmount)
	assert.Equal(t, int64(180_000), dist.OwnerShareOfAdvance)
	assert.Equal(t, int64(20_000), dist.ManagerShareOfAdvance)
	assert.Equal(t, dist.AdvanceAmount, dist.OwnerShareOfAdvance+dist.ManagerShareOfAdvance)
	assert.Equal(t, dist.TotalAmount, dist.AdvanceAmount+dist.DepositAmount+dist.BrokerAmount)

	owner := recipientByKind(t, dist, domain.RecipientOwner)
	manager := recipientByKind(t, dist, domain.RecipientManager)
	broker := recipientByKind(t, dist, domain.RecipientBroker)
	assert.Equal(t, int64(180_000), owner.Amount)
	// manager holds the deposit plus their advance share
	assert.Equal(t, int64(220_000), manager.Amount)
	assert.Equal(t, int64(100_000), broker.Amount)
	assert.Equal(t, domain.RecipientStatusPending, broker.Status)
	assert.Equal(t, dist.TotalAmount, recipientSum(dist))
}

func TestCalculate_CautionWithoutBrokerConfigured(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 90, false)
	lease := f.createLease(t, 100_000, 2, 2, 1)
	payment := f.settledPayment(t, lease, 500_000, paymentdomain.PaymentKindCaution)

	dist, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)

	broker := recipientByKind(t, dist, domain.RecipientBroker)
	// broker month exists but no broker is configured: the amount stays on
	// the broker row, never merged into another share
	assert.Equal(t, int64(100_000), broker.Amount)
	assert.Equal(t, domain.RecipientStatusNotApplicable, broker.Status)
	assert.Equal(t, dist.TotalAmount, recipientSum(dist))
}

func TestCalculate_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 90, false)
	lease := f.createLease(t, 50_000, 2, 1, 0)
	payment := f.settledPayment(t, lease, 50_000, paymentdomain.PaymentKindRent)

	first, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)

	second, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	f.db.Model(&domain.PaymentDistribution{}).Where("payment_id = ?", payment.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCalculate_Failures(t *testing.T) {
	f := newFixture(t)

	// unknown payment
	_, err := f.svc.Calculate(f.ctx, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)

	// config missing is its own error so callers can prompt setup
	lease := f.createLease(t, 50_000, 2, 1, 0)
	payment := f.settledPayment(t, lease, 50_000, paymentdomain.PaymentKindRent)
	_, err = f.svc.Calculate(f.ctx, payment.ID)
	assert.ErrorIs(t, err, configdomain.ErrConfigMissing)

	// unsettled payment
	f.configure(t, 90, false)
	pending := paymentdomain.Payment{
		ID: f.node.Generate(), SpaceID: f.space, LeaseID: lease.ID,
		Kind: paymentdomain.PaymentKindRent, Amount: 50_000,
		Period:    paymentdomain.PeriodOf(time.Now().UTC().AddDate(0, 1, 0)),
		Status:    paymentdomain.PaymentStatusPending,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	assert.NoError(t, f.db.Create(&pending).Error)
	_, err = f.svc.Calculate(f.ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentNotSettled)
}

func TestMarkRecipientSent_Independent(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 90, false)
	lease := f.createLease(t, 50_000, 2, 1, 0)
	payment := f.settledPayment(t, lease, 50_000, paymentdomain.PaymentKindRent)

	dist, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)

	owner, err := f.svc.MarkRecipientSent(f.ctx, dist.ID, domain.RecipientOwner, "MOMO-123")
	assert.NoError(t, err)
	assert.Equal(t, domain.RecipientStatusSettled, owner.Status)
	assert.Equal(t, "MOMO-123", owner.TransferID)

	// marking again is a no-op
	again, err := f.svc.MarkRecipientSent(f.ctx, dist.ID, domain.RecipientOwner, "MOMO-456")
	assert.NoError(t, err)
	assert.Equal(t, "MOMO-123", again.TransferID)

	// manager untouched
	reloaded, err := f.svc.GetByPaymentID(f.ctx, payment.ID)
	assert.NoError(t, err)
	manager := recipientByKind(t, reloaded, domain.RecipientManager)
	assert.Equal(t, domain.RecipientStatusPending, manager.Status)

	// the not_applicable broker row cannot be disbursed
	_, err = f.svc.Disburse(f.ctx, dist.ID, domain.RecipientBroker)
	assert.ErrorIs(t, err, domain.ErrRecipientNotPending)
}

func TestDisburse_PushesTransferAndMarksSent(t *testing.T) {
	f := newFixture(t)
	f.configure(t, 90, false)
	lease := f.createLease(t, 50_000, 2, 1, 0)
	payment := f.settledPayment(t, lease, 50_000, paymentdomain.PaymentKindRent)

	dist, err := f.svc.Calculate(f.ctx, payment.ID)
	assert.NoError(t, err)

	manager, err := f.svc.Disburse(f.ctx, dist.ID, domain.RecipientManager)
	assert.NoError(t, err)
	assert.Equal(t, domain.RecipientStatusSettled, manager.Status)
	assert.NotEmpty(t, manager.TransferID)
}
