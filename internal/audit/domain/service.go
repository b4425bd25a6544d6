package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentalclinic/payouts/pkg/db/pagination"
)

// Entry is a state change to record. Before and After are snapshots of the
// target; either may be nil for create or delete.
type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	Before     any
	After      any
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	ActorID    string
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
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

type ListFilter struct {
	Action     string
	ActorID    string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	AfterID    snowflake.ID
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db DB, entry *AuditLog) error
	List(ctx context.Context, db DB, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
)
