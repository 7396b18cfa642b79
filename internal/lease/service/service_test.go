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
	"github.com/kirapay/kirapay/internal/lease/domain"
	"github.com/kirapay/kirapay/internal/lease/repository"
	propertydomain "github.com/kirapay/kirapay/internal/property/domain"
	propertyservice "github.com/kirapay/kirapay/internal/property/service"
	"github.com/kirapay/kirapay/internal/spacectx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	svc   domain.Service
	space snowflake.ID
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&domain.Lease{},
		&propertydomain.Property{},
		&auditdomain.AuditLog{},
	))

	node, _ := snowflake.NewNode(1)
	log := zap.NewNop()

	propertySvc := propertyservice.New(propertyservice.Params{DB: db, Log: log})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepository.Provide(),
	})

	svc := New(Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Repo:        repository.Provide(),
		PropertySvc: propertySvc,
		AuditSvc:    auditSvc,
	})

	space := node.Generate()
	return &fixture{
		db:    db,
		node:  node,
		svc:   svc,
		space: space,
		ctx:   spacectx.WithSpaceID(context.Background(), space),
	}
}

func (f *fixture) createLease(t *testing.T) domain.Lease {
	t.Helper()

	propertyID := f.node.Generate()
	f.db.Create(&propertydomain.Property{
		ID: propertyID, SpaceID: f.space, Label: "Apt 4B",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	})

	lease, err := f.svc.Create(f.ctx, domain.CreateLeaseRequest{
		PropertyID:    propertyID,
		TenantID:      f.node.Generate(),
		ManagerID:     f.node.Generate(),
		MonthlyRent:   100_000,
		AdvanceMonths: 2,
		DepositMonths: 1,
		BrokerMonths:  1,
	})
	assert.NoError(t, err)
	return lease
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateLeaseRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidSpace)

	_, err = f.svc.Create(f.ctx, domain.CreateLeaseRequest{
		PropertyID: 1, TenantID: 2, ManagerID: 3,
		MonthlyRent: 100_000, AdvanceMonths: 5, DepositMonths: 1,
	})
	assert.Error(t, err)
}

func TestLifecycle_HappyPath(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t)
	assert.Equal(t, domain.LeaseStatusPendingCaution, lease.Status)
	assert.False(t, lease.CautionPaid)
	assert.Nil(t, lease.FirstRegularAt)

	lease, err := f.svc.SubmitCautionReceipt(f.ctx, lease.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusCautionSubmitted, lease.Status)

	lease, err = f.svc.ConfirmCaution(f.ctx, lease.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusActiveAdvance, lease.Status)
	assert.True(t, lease.CautionPaid)
	assert.NotNil(t, lease.CautionPaidAt)
	assert.NotNil(t, lease.FirstRegularAt)
	// first regular payment = caution date + advance months
	expected := lease.CautionPaidAt.AddDate(0, lease.AdvanceMonths, 0)
	assert.Equal(t, expected.Truncate(time.Second), lease.FirstRegularAt.Truncate(time.Second))

	// property flipped to occupied
	var prop propertydomain.Property
	f.db.First(&prop, "id = ?", lease.PropertyID)
	assert.True(t, prop.Occupied)

	lease, err = f.svc.ActivateRegular(f.ctx, lease.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusActiveRegular, lease.Status)

	lease, err = f.svc.MarkOverdue(f.ctx, lease.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusOverdue, lease.Status)

	lease, err = f.svc.ResumeFromOverdue(f.ctx, lease.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusActiveRegular, lease.Status)

	lease, err = f.svc.Terminate(f.ctx, lease.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LeaseStatusTerminated, lease.Status)
	assert.NotNil(t, lease.EndedAt)

	f.db.First(&prop, "id = ?", lease.PropertyID)
	assert.False(t, prop.Occupied)
}

func TestLifecycle_IllegalEdges(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t)

	// cannot confirm before receipt is submitted
	_, err := f.svc.ConfirmCaution(f.ctx, lease.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// cannot go overdue before regular phase
	_, err = f.svc.MarkOverdue(f.ctx, lease.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// terminated is terminal
	_, err = f.svc.Terminate(f.ctx, lease.ID)
	assert.NoError(t, err)
	_, err = f.svc.SubmitCautionReceipt(f.ctx, lease.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.Terminate(f.ctx, lease.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetByID(f.ctx, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusChanged_Audited(t *testing.T) {
	f := newFixture(t)
	lease := f.createLease(t)

	_, err := f.svc.SubmitCautionReceipt(f.ctx, lease.ID)
	assert.NoError(t, err)

	var count int64
	f.db.Model(&auditdomain.AuditLog{}).
		Where("action = ? AND target_id = ?", "lease.status_changed", lease.ID.String()).
		Count(&count)
	assert.Equal(t, int64(1), count)
}
