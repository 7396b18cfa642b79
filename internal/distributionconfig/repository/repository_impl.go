package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/distributionconfig/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindBySpace(ctx context.Context, db *gorm.DB, spaceID snowflake.ID) (*domain.Config, error) {
	var cfg domain.Config
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM distribution_configs WHERE space_id = ?`,
		spaceID,
	).Scan(&cfg).Error
	if err != nil {
		return nil, err
	}
	if cfg.ID == 0 {
		return nil, nil
	}
	return &cfg, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cfg *domain.Config) error {
	return db.WithContext(ctx).Create(cfg).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, cfg *domain.Config) error {
	return db.WithContext(ctx).
		Model(&domain.Config{}).
		Where("id = ?", cfg.ID).
		Updates(map[string]any{
			"owner_name":      cfg.OwnerName,
			"owner_phone":     cfg.OwnerPhone,
			"owner_channel":   cfg.OwnerChannel,
			"owner_pct":       cfg.OwnerPct,
			"manager_name":    cfg.ManagerName,
			"manager_phone":   cfg.ManagerPhone,
			"manager_channel": cfg.ManagerChannel,
			"manager_pct":     cfg.ManagerPct,
			"broker_name":     cfg.BrokerName,
			"broker_phone":    cfg.BrokerPhone,
			"broker_channel":  cfg.BrokerChannel,
			"updated_at":      cfg.UpdatedAt,
		}).Error
}
