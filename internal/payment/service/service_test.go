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
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	leaserepository "github.com/kirapay/kirapay/internal/lease/repository"
	leaseservice "github.com/kirapay/kirapay/internal/lease/service"
	notificationdomain "github.com/kirapay/kirapay/internal/notification/domain"
	"github.com/kirapay/kirapay/internal/payment/domain"
	"github.com/kirapay/kirapay/internal/payment/gateway"
	"github.com/kirapay/kirapay/internal/payment/repository"
	propertydomain "github.com/kirapay/kirapay/internal/property/domain"
	propertyservice "github.com/kirapay/kirapay/internal/property/service"
	"github.com/kirapay/kirapay/internal/spacectx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	sent []notificationdomain.NotifyRequest
}

func (n *recordingNotifier) Notify(_ context.Context, req notificationdomain.NotifyRequest) error {
	n.sent = append(n.sent, req)
	return nil
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      domain.Service
	leaseSvc leasedomain.Service
	notifier *recordingNotifier
	space    snowflake.ID
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&leasedomain.Lease{},
		&domain.Payment{},
		&propertydomain.Property{},
		&auditdomain.AuditLog{},
		&notificationdomain.Notification{},
	))

	node, _ := snowflake.NewNode(1)
	log := zap.NewNop()
	notifier := &recordingNotifier{}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepository.Provide(),
	})
	propertySvc := propertyservice.New(propertyservice.Params{DB: db, Log: log})
	leaseSvc := leaseservice.New(leaseservice.Params{
		DB: db, Log: log, GenID: node, Repo: leaserepository.Provide(),
		PropertySvc: propertySvc, AuditSvc: auditSvc,
	})
	svc := New(Params{
		DB: db, Log: log, GenID: node, Repo: repository.Provide(),
		LeaseSvc: leaseSvc, Gateway: gateway.NewSimulated(log),
		Notifier: notifier, AuditSvc: auditSvc,
	})

	space := node.Generate()
	return &fixture{
		db:       db,
		node:     node,
		svc:      svc,
		leaseSvc: leaseSvc,
		notifier: notifier,
		space:    space,
		ctx:      spacectx.WithSpaceID(context.Background(), space),
	}
}

func (f *fixture) createLease(t *testing.T, status leasedomain.LeaseStatus) leasedomain.Lease {
	t.Helper()

	now := time.Now().UTC()
	lease := leasedomain.Lease{
		ID:            f.node.Generate(),
		SpaceID:       f.space,
		PropertyID:    f.node.Generate(),
		TenantID:      f.node.Generate(),
		ManagerID:     f.node.Generate(),
		MonthlyRent:   100_000,
		AdvanceMonths: 2,
		DepositMonths: 2,
		BrokerMonths:  1,
		StartDate:     now,
		Status:        status,
		CautionPaid:   status != leasedomain.LeaseStatusPendingCaution,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	assert.NoError(t, f.db.Create(&lease).Error)
	return lease
}

func TestCreateRentInvoice(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusActiveRegular)
	period := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	payment, created, err := f.svc.CreateRentInvoice(f.ctx, lease.ID, period)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(100_000), payment.Amount)
	assert.Equal(t, domain.PaymentKindRent, payment.Kind)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	assert.Equal(t, period, payment.Period.UTC())

	// tenant is told about the new invoice
	assert.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notificationdomain.TypeInvoiceCreated, f.notifier.sent[0].Type)
	assert.Equal(t, lease.TenantID, f.notifier.sent[0].RecipientID)

	// mid-month timestamps normalize to the same period
	again, createdAgain, err := f.svc.CreateRentInvoice(f.ctx, lease.ID, period.AddDate(0, 0, 14))
	assert.NoError(t, err)
	assert.False(t, createdAgain)
	assert.Equal(t, payment.ID, again.ID)
	assert.Len(t, f.notifier.sent, 1)
}

func TestCreateRentInvoice_LeaseNotFound(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.CreateRentInvoice(f.ctx, f.node.Generate(), time.Now().UTC())
	assert.ErrorIs(t, err, leasedomain.ErrNotFound)
}

func TestInitiateCautionPayment(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusPendingCaution)

	payment, err := f.svc.InitiateCautionPayment(f.ctx, domain.InitiateCautionRequest{
		LeaseID:    lease.ID,
		PayerPhone: "+237650000009",
		Method:     "mtn_momo",
	})
	assert.NoError(t, err)
	// 100,000 × (2+2+1) months
	assert.Equal(t, int64(500_000), payment.Amount)
	assert.Equal(t, domain.PaymentKindCaution, payment.Kind)
	assert.Equal(t, domain.PaymentStatusInProgress, payment.Status)
	assert.NotEmpty(t, payment.ExternalTxnID)

	// retry while in progress hands back the same charge
	again, err := f.svc.InitiateCautionPayment(f.ctx, domain.InitiateCautionRequest{LeaseID: lease.ID})
	assert.NoError(t, err)
	assert.Equal(t, payment.ID, again.ID)
}

func TestInitiateRentPayment(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusActiveRegular)
	period := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	invoice, _, err := f.svc.CreateRentInvoice(f.ctx, lease.ID, period)
	assert.NoError(t, err)

	payment, err := f.svc.InitiateRentPayment(f.ctx, domain.InitiateRentRequest{
		PaymentID:  invoice.ID,
		PayerPhone: "+237650000010",
		Method:     "mtn_momo",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusInProgress, payment.Status)
	assert.NotEmpty(t, payment.ExternalTxnID)
	assert.Equal(t, invoice.ID, payment.ID)

	// retry while in progress hands back the same charge
	again, err := f.svc.InitiateRentPayment(f.ctx, domain.InitiateRentRequest{PaymentID: invoice.ID})
	assert.NoError(t, err)
	assert.Equal(t, payment.ExternalTxnID, again.ExternalTxnID)

	_, err = f.svc.RecordSettlement(f.ctx, domain.SettlementRequest{
		ExternalTxnID: payment.ExternalTxnID,
	})
	assert.NoError(t, err)

	// a settled invoice cannot be charged again
	_, err = f.svc.InitiateRentPayment(f.ctx, domain.InitiateRentRequest{PaymentID: invoice.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestInitiateRentPayment_RetriesFailedCharge(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusActiveRegular)
	period := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	invoice, _, err := f.svc.CreateRentInvoice(f.ctx, lease.ID, period)
	assert.NoError(t, err)

	first, err := f.svc.InitiateRentPayment(f.ctx, domain.InitiateRentRequest{
		PaymentID:  invoice.ID,
		PayerPhone: "+237650000010",
		Method:     "mtn_momo",
	})
	assert.NoError(t, err)

	_, err = f.svc.RecordFailure(f.ctx, first.ExternalTxnID)
	assert.NoError(t, err)

	retried, err := f.svc.InitiateRentPayment(f.ctx, domain.InitiateRentRequest{
		PaymentID:  invoice.ID,
		PayerPhone: "+237650000010",
		Method:     "orange_money",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusInProgress, retried.Status)
	assert.NotEqual(t, first.ExternalTxnID, retried.ExternalTxnID)
}

func TestInitiateRentPayment_Failures(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusPendingCaution)

	_, err := f.svc.InitiateRentPayment(f.ctx, domain.InitiateRentRequest{PaymentID: f.node.Generate()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// a caution payment is not payable through the rent flow
	caution, err := f.svc.InitiateCautionPayment(f.ctx, domain.InitiateCautionRequest{
		LeaseID:    lease.ID,
		PayerPhone: "+237650000010",
		Method:     "mtn_momo",
	})
	assert.NoError(t, err)
	_, err = f.svc.InitiateRentPayment(f.ctx, domain.InitiateRentRequest{PaymentID: caution.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRecordSettlement(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusPendingCaution)

	payment, err := f.svc.InitiateCautionPayment(f.ctx, domain.InitiateCautionRequest{
		LeaseID: lease.ID, PayerPhone: "+237650000009", Method: "mtn_momo",
	})
	assert.NoError(t, err)

	settledAt := time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)
	settled, err := f.svc.RecordSettlement(f.ctx, domain.SettlementRequest{
		ExternalTxnID: payment.ExternalTxnID,
		SettledAt:     settledAt,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSettled, settled.Status)
	assert.NotNil(t, settled.SettledAt)
	assert.Equal(t, settledAt, settled.SettledAt.UTC())

	// replayed callback is a no-op
	replayed, err := f.svc.RecordSettlement(f.ctx, domain.SettlementRequest{ExternalTxnID: payment.ExternalTxnID})
	assert.NoError(t, err)
	assert.Equal(t, settled.ID, replayed.ID)
	assert.Equal(t, domain.PaymentStatusSettled, replayed.Status)

	// initiating again after settlement is refused
	_, err = f.svc.InitiateCautionPayment(f.ctx, domain.InitiateCautionRequest{LeaseID: lease.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestRecordSettlement_OnePerLeasePeriod(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusActiveRegular)
	period := domain.PeriodOf(time.Now().UTC())
	now := time.Now().UTC()

	first := domain.Payment{
		ID: f.node.Generate(), SpaceID: f.space, LeaseID: lease.ID,
		Kind: domain.PaymentKindRent, Amount: 100_000, Period: period,
		Status: domain.PaymentStatusInProgress, ExternalTxnID: "TXN-A",
		CreatedAt: now, UpdatedAt: now,
	}
	second := domain.Payment{
		ID: f.node.Generate(), SpaceID: f.space, LeaseID: lease.ID,
		Kind: domain.PaymentKindCaution, Amount: 100_000, Period: period,
		Status: domain.PaymentStatusInProgress, ExternalTxnID: "TXN-B",
		CreatedAt: now, UpdatedAt: now,
	}
	assert.NoError(t, f.db.Create(&first).Error)
	assert.NoError(t, f.db.Create(&second).Error)

	_, err := f.svc.RecordSettlement(f.ctx, domain.SettlementRequest{ExternalTxnID: "TXN-A"})
	assert.NoError(t, err)

	_, err = f.svc.RecordSettlement(f.ctx, domain.SettlementRequest{ExternalTxnID: "TXN-B"})
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestRecordSettlement_ResumesOverdueLease(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusOverdue)
	now := time.Now().UTC()

	payment := domain.Payment{
		ID: f.node.Generate(), SpaceID: f.space, LeaseID: lease.ID,
		Kind: domain.PaymentKindRent, Amount: 100_000,
		Period: domain.PeriodOf(now), Status: domain.PaymentStatusInProgress,
		ExternalTxnID: "TXN-LATE", CreatedAt: now, UpdatedAt: now,
	}
	assert.NoError(t, f.db.Create(&payment).Error)

	_, err := f.svc.RecordSettlement(f.ctx, domain.SettlementRequest{ExternalTxnID: "TXN-LATE"})
	assert.NoError(t, err)

	reloaded, err := f.leaseSvc.GetByID(f.ctx, lease.ID)
	assert.NoError(t, err)
	assert.Equal(t, leasedomain.LeaseStatusActiveRegular, reloaded.Status)
}

func TestRecordFailure(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusPendingCaution)

	payment, err := f.svc.InitiateCautionPayment(f.ctx, domain.InitiateCautionRequest{
		LeaseID: lease.ID, PayerPhone: "+237650000009", Method: "mtn_momo",
	})
	assert.NoError(t, err)

	failed, err := f.svc.RecordFailure(f.ctx, payment.ExternalTxnID)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, failed.Status)

	// unknown transaction
	_, err = f.svc.RecordFailure(f.ctx, "TXN-UNKNOWN")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordFailure_SettledIsFinal(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t, leasedomain.LeaseStatusPendingCaution)

	payment, err := f.svc.InitiateCautionPayment(f.ctx, domain.InitiateCautionRequest{
		LeaseID: lease.ID, PayerPhone: "+237650000009", Method: "mtn_momo",
	})
	assert.NoError(t, err)

	_, err = f.svc.RecordSettlement(f.ctx, domain.SettlementRequest{ExternalTxnID: payment.ExternalTxnID})
	assert.NoError(t, err)

	_, err = f.svc.RecordFailure(f.ctx, payment.ExternalTxnID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
