package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/lease/domain"
	"github.com/kirapay/kirapay/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lease *domain.Lease) error {
	return db.WithContext(ctx).Create(lease).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, spaceID, id snowflake.ID) (*domain.Lease, error) {
	var lease domain.Lease
	stmt := db.WithContext(ctx).Model(&domain.Lease{}).Where("id = ?", id)
	if spaceID != 0 {
		stmt = stmt.Where("space_id = ?", spaceID)
	}
	if err := stmt.Scan(&lease).Error; err != nil {
		return nil, err
	}
	if lease.ID == 0 {
		return nil, nil
	}
	return &lease, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, lease *domain.Lease) error {
	return db.WithContext(ctx).
		Model(&domain.Lease{}).
		Where("id = ?", lease.ID).
		Updates(map[string]any{
			"status":                   lease.Status,
			"caution_paid":             lease.CautionPaid,
			"caution_paid_at":          lease.CautionPaidAt,
			"first_regular_payment_at": lease.FirstRegularAt,
			"ended_at":                 lease.EndedAt,
			"updated_at":               lease.UpdatedAt,
		}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, spaceID snowflake.ID, req domain.ListLeaseRequest) ([]*domain.Lease, error) {
	var leases []*domain.Lease
	stmt := db.WithContext(ctx).
		Model(&domain.Lease{}).
		Where("space_id = ?", spaceID)
	if req.Status != "" {
		stmt = stmt.Where("status = ?", req.Status)
	}
	if req.TenantID != "" {
		stmt = stmt.Where("tenant_id = ?", req.TenantID)
	}
	stmt = option.ApplyPagination(req.Pagination).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&leases).Error
	if err != nil {
		return nil, err
	}
	return leases, nil
}
