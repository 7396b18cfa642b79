package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Config is the per-space recipient and split configuration. At most one
// row exists per management space (unique index on space_id; Upsert
// updates in place).
type Config struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	SpaceID snowflake.ID `gorm:"not null;uniqueIndex" json:"space_id"`

	OwnerName    string `gorm:"not null" json:"owner_name"`
	OwnerPhone   string `gorm:"not null" json:"owner_phone"`
	OwnerChannel string `gorm:"not null" json:"owner_channel"`
	OwnerPct     int    `gorm:"not null" json:"owner_pct"`

	ManagerName    string `gorm:"not null" json:"manager_name"`
	ManagerPhone   string `gorm:"not null" json:"manager_phone"`
	ManagerChannel string `gorm:"not null" json:"manager_channel"`
	ManagerPct     int    `gorm:"not null" json:"manager_pct"`

	BrokerName    string `json:"broker_name,omitempty"`
	BrokerPhone   string `json:"broker_phone,omitempty"`
	BrokerChannel string `json:"broker_channel,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Config) TableName() string {
	return "distribution_configs"
}

// HasBroker reports whether a broker recipient is configured.
func (c Config) HasBroker() bool {
	return c.BrokerName != "" && c.BrokerPhone != ""
}
