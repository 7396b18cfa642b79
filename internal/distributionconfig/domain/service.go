package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type UpsertConfigRequest struct {
	OwnerName    string `json:"owner_name"`
	OwnerPhone   string `json:"owner_phone"`
	OwnerChannel string `json:"owner_channel"`
	OwnerPct     int    `json:"owner_pct"`

	ManagerName    string `json:"manager_name"`
	ManagerPhone   string `json:"manager_phone"`
	ManagerChannel string `json:"manager_channel"`
	ManagerPct     int    `json:"manager_pct"`

	BrokerName    string `json:"broker_name,omitempty"`
	BrokerPhone   string `json:"broker_phone,omitempty"`
	BrokerChannel string `json:"broker_channel,omitempty"`
}

type Service interface {
	Get(ctx context.Context, spaceID snowflake.ID) (Config, error)
	Upsert(ctx context.Context, spaceID snowflake.ID, req UpsertConfigRequest) (Config, error)
}

type Repository interface {
	FindBySpace(ctx context.Context, db *gorm.DB, spaceID snowflake.ID) (*Config, error)
	Insert(ctx context.Context, db *gorm.DB, cfg *Config) error
	Update(ctx context.Context, db *gorm.DB, cfg *Config) error
}

var (
	// ErrConfigMissing means no manager has configured recipients for the
	// space yet. Distinct from a generic not-found so callers can prompt
	// configuration instead of failing hard.
	ErrConfigMissing = errors.New("distribution_config_missing")

	ErrInvalidSpace      = errors.New("invalid_space")
	ErrInvalidPercentage = errors.New("invalid_percentage")
	ErrInvalidRecipient  = errors.New("invalid_recipient")
)
