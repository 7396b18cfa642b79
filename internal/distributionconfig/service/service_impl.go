package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/distributionconfig/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("distributionconfig.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, spaceID snowflake.ID) (domain.Config, error) {
	if spaceID == 0 {
		return domain.Config{}, domain.ErrInvalidSpace
	}

	cfg, err := s.repo.FindBySpace(ctx, s.db, spaceID)
	if err != nil {
		return domain.Config{}, err
	}
	if cfg == nil {
		return domain.Config{}, domain.ErrConfigMissing
	}
	return *cfg, nil
}

func (s *Service) Upsert(ctx context.Context, spaceID snowflake.ID, req domain.UpsertConfigRequest) (domain.Config, error) {
	if spaceID == 0 {
		return domain.Config{}, domain.ErrInvalidSpace
	}
	if err := validate(req); err != nil {
		return domain.Config{}, err
	}

	now := time.Now().UTC()
	var out domain.Config

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindBySpace(ctx, tx, spaceID)
		if err != nil {
			return err
		}

		if existing != nil {
			existing.OwnerName = strings.TrimSpace(req.OwnerName)
			existing.OwnerPhone = strings.TrimSpace(req.OwnerPhone)
			existing.OwnerChannel = strings.TrimSpace(req.OwnerChannel)
			existing.OwnerPct = req.OwnerPct
			existing.ManagerName = strings.TrimSpace(req.ManagerName)
			existing.ManagerPhone = strings.TrimSpace(req.ManagerPhone)
			existing.ManagerChannel = strings.TrimSpace(req.ManagerChannel)
			existing.ManagerPct = req.ManagerPct
			existing.BrokerName = strings.TrimSpace(req.BrokerName)
			existing.BrokerPhone = strings.TrimSpace(req.BrokerPhone)
			existing.BrokerChannel = strings.TrimSpace(req.BrokerChannel)
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
			out = *existing
			return nil
		}

		cfg := domain.Config{
			ID:             s.genID.Generate(),
			SpaceID:        spaceID,
			OwnerName:      strings.TrimSpace(req.OwnerName),
			OwnerPhone:     strings.TrimSpace(req.OwnerPhone),
			OwnerChannel:   strings.TrimSpace(req.OwnerChannel),
			OwnerPct:       req.OwnerPct,
			ManagerName:    strings.TrimSpace(req.ManagerName),
			ManagerPhone:   strings.TrimSpace(req.ManagerPhone),
			ManagerChannel: strings.TrimSpace(req.ManagerChannel),
			ManagerPct:     req.ManagerPct,
			BrokerName:     strings.TrimSpace(req.BrokerName),
			BrokerPhone:    strings.TrimSpace(req.BrokerPhone),
			BrokerChannel:  strings.TrimSpace(req.BrokerChannel),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.Insert(ctx, tx, &cfg); err != nil {
			return err
		}
		out = cfg
		return nil
	})
	if err != nil {
		return domain.Config{}, err
	}
	return out, nil
}

func validate(req domain.UpsertConfigRequest) error {
	if req.OwnerPct < 0 || req.OwnerPct > 100 || req.ManagerPct < 0 || req.ManagerPct > 100 {
		return domain.ErrInvalidPercentage
	}
	if req.OwnerPct+req.ManagerPct != 100 {
		return domain.ErrInvalidPercentage
	}
	if strings.TrimSpace(req.OwnerName) == "" || strings.TrimSpace(req.OwnerPhone) == "" {
		return domain.ErrInvalidRecipient
	}
	if strings.TrimSpace(req.ManagerName) == "" || strings.TrimSpace(req.ManagerPhone) == "" {
		return domain.ErrInvalidRecipient
	}
	// broker is optional but must be complete when present
	if strings.TrimSpace(req.BrokerName) != "" && strings.TrimSpace(req.BrokerPhone) == "" {
		return domain.ErrInvalidRecipient
	}
	return nil
}
