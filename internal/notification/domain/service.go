package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type NotifyRequest struct {
	SpaceID     snowflake.ID
	RecipientID snowflake.ID
	LeaseID     snowflake.ID
	Type        string
	Title       string
	Message     string
}

// Notifier records notification events for out-of-process delivery.
type Notifier interface {
	Notify(ctx context.Context, req NotifyRequest) error
}
