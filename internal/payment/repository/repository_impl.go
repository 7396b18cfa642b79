package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE id = ?`,
		id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindByExternalTxnID(ctx context.Context, db *gorm.DB, externalTxnID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE external_txn_id = ? LIMIT 1`,
		externalTxnID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindByLeasePeriod(ctx context.Context, db *gorm.DB, leaseID snowflake.ID, period time.Time, kind domain.PaymentKind) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE lease_id = ? AND period = ? AND kind = ? LIMIT 1`,
		leaseID,
		period,
		kind,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.PaymentStatus, settledAt *time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, settled_at = ?, updated_at = ? WHERE id = ?`,
		status,
		settledAt,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) SettledExists(ctx context.Context, db *gorm.DB, leaseID snowflake.ID, period time.Time) (bool, error) {
	return r.existsWithStatus(ctx, db, leaseID, period, []domain.PaymentStatus{domain.PaymentStatusSettled})
}

func (r *repo) SettledOrInProgressExists(ctx context.Context, db *gorm.DB, leaseID snowflake.ID, period time.Time) (bool, error) {
	return r.existsWithStatus(ctx, db, leaseID, period, []domain.PaymentStatus{domain.PaymentStatusSettled, domain.PaymentStatusInProgress})
}

func (r *repo) existsWithStatus(ctx context.Context, db *gorm.DB, leaseID snowflake.ID, period time.Time, statuses []domain.PaymentStatus) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("lease_id = ? AND period = ? AND status IN ?", leaseID, period, statuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
