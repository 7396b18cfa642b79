package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Property struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SpaceID   snowflake.ID `gorm:"not null;index" json:"space_id"`
	Label     string       `gorm:"not null" json:"label"`
	Occupied  bool         `gorm:"not null;default:false" json:"occupied"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

// Service flips the external occupied/available flag when a lease
// activates or terminates. The lifecycle engine only calls it through
// the status-changed hook.
type Service interface {
	SetOccupied(ctx context.Context, propertyID snowflake.ID, occupied bool) error
}

var ErrNotFound = errors.New("property_not_found")
