package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/distribution/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, dist *domain.PaymentDistribution, recipients []domain.Recipient) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dist).Error; err != nil {
			return err
		}
		for i := range recipients {
			if err := tx.Create(&recipients[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (*domain.PaymentDistribution, error) {
	var dist domain.PaymentDistribution
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_distributions WHERE payment_id = ?`,
		paymentID,
	).Scan(&dist).Error
	if err != nil {
		return nil, err
	}
	if dist.ID == 0 {
		return nil, nil
	}
	return r.withRecipients(ctx, db, &dist)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentDistribution, error) {
	var dist domain.PaymentDistribution
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_distributions WHERE id = ?`,
		id,
	).Scan(&dist).Error
	if err != nil {
		return nil, err
	}
	if dist.ID == 0 {
		return nil, nil
	}
	return r.withRecipients(ctx, db, &dist)
}

func (r *repo) withRecipients(ctx context.Context, db *gorm.DB, dist *domain.PaymentDistribution) (*domain.PaymentDistribution, error) {
	var recipients []domain.Recipient
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM distribution_recipients WHERE distribution_id = ? ORDER BY kind`,
		dist.ID,
	).Scan(&recipients).Error
	if err != nil {
		return nil, err
	}
	dist.Recipients = recipients
	return dist, nil
}

func (r *repo) FindRecipient(ctx context.Context, db *gorm.DB, distributionID snowflake.ID, kind domain.RecipientKind) (*domain.Recipient, error) {
	var recipient domain.Recipient
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM distribution_recipients WHERE distribution_id = ? AND kind = ?`,
		distributionID,
		kind,
	).Scan(&recipient).Error
	if err != nil {
		return nil, err
	}
	if recipient.ID == 0 {
		return nil, nil
	}
	return &recipient, nil
}

func (r *repo) UpdateRecipientStatus(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, status domain.RecipientStatus, transferID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE distribution_recipients SET status = ?, transfer_id = ?, updated_at = ? WHERE id = ?`,
		status,
		transferID,
		time.Now().UTC(),
		recipientID,
	).Error
}
