package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/property/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("property.service"),
	}
}

func (s *Service) SetOccupied(ctx context.Context, propertyID snowflake.ID, occupied bool) error {
	if propertyID == 0 {
		return domain.ErrNotFound
	}

	res := s.db.WithContext(ctx).Exec(
		`UPDATE properties SET occupied = ?, updated_at = ? WHERE id = ?`,
		occupied,
		time.Now().UTC(),
		propertyID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	s.log.Info("property occupancy updated",
		zap.String("property_id", propertyID.String()),
		zap.Bool("occupied", occupied),
	)
	return nil
}
