package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	AuditLog(ctx context.Context, spaceID snowflake.ID, actorType, actorID, action, targetType, targetID string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, spaceID snowflake.ID, req ListAuditLogRequest) ([]*AuditLog, error)
}

const (
	ActorTypeSystem  = "system"
	ActorTypeManager = "manager"
	ActorTypeTenant  = "tenant"
)

var (
	ErrInvalidSpace  = errors.New("invalid_space")
	ErrInvalidAction = errors.New("invalid_action")
)
