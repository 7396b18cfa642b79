package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) domain.Notifier {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
	}
}

func (s *Service) Notify(ctx context.Context, req domain.NotifyRequest) error {
	if req.RecipientID == 0 || strings.TrimSpace(req.Type) == "" {
		return nil
	}

	row := domain.Notification{
		ID:          s.genID.Generate(),
		SpaceID:     req.SpaceID,
		RecipientID: req.RecipientID,
		LeaseID:     req.LeaseID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	s.log.Info("notification queued",
		zap.String("type", req.Type),
		zap.String("recipient_id", req.RecipientID.String()),
		zap.String("lease_id", req.LeaseID.String()),
	)
	return nil
}
