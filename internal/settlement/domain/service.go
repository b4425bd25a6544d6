package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentalclinic/payouts/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateSettlementRequest struct {
	ProfessionalID string `json:"professional_id"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	Notes          string `json:"notes"`
}

type MarkPaidRequest struct {
	PaymentReference string `json:"payment_reference"`
}

type GenerateRequest struct {
	PeriodStart     string   `json:"period_start"`
	PeriodEnd       string   `json:"period_end"`
	ProfessionalIDs []string `json:"professional_ids"`
}

type GenerateResult struct {
	Settlements []Settlement `json:"settlements"`
	// Created holds the ids inserted by this call; the rest already existed.
	Created []string `json:"created"`
}

type ListSettlementRequest struct {
	pagination.Pagination
	ProfessionalID string `form:"professional_id"`
	Status         string `form:"status"`
	PeriodFrom     string `form:"period_from"`
	PeriodTo       string `form:"period_to"`
}

type ListSettlementResponse struct {
	pagination.PageInfo
	Settlements []Settlement `json:"settlements"`
}

type ReportRequest struct {
	ProfessionalID string `form:"professional_id"`
	Status         string `form:"status"`
	PeriodFrom     string `form:"period_from"`
	PeriodTo       string `form:"period_to"`
}

type StatusTotal struct {
	Status    Status          `json:"status"`
	Count     int64           `json:"count"`
	NetAmount decimal.Decimal `json:"net_amount"`
}

type Report struct {
	Count     int64           `json:"count"`
	NetAmount decimal.Decimal `json:"net_amount"`
	ByStatus  []StatusTotal   `json:"by_status"`
}

type Service interface {
	Create(ctx context.Context, req CreateSettlementRequest) (Settlement, error)
	Get(ctx context.Context, id string) (Detail, error)
	List(ctx context.Context, req ListSettlementRequest) (ListSettlementResponse, error)
	Recompute(ctx context.Context, id string) (Settlement, error)
	Approve(ctx context.Context, id string) (Settlement, error)
	MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (Settlement, error)
	Cancel(ctx context.Context, id string, reason string) (Settlement, error)
	Delete(ctx context.Context, id string) error
	GenerateForPeriod(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Report(ctx context.Context, req ReportRequest) (Report, error)
}

type ListFilter struct {
	ProfessionalID snowflake.ID
	Status         Status
	PeriodFrom     *time.Time
	PeriodTo       *time.Time
	AfterID        snowflake.ID
	Limit          int
}

type Repository interface {
	// Insert returns false when the (professional, period) tuple already exists.
	Insert(ctx context.Context, db *gorm.DB, s *Settlement) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Settlement, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Settlement, error)
	FindByPeriod(ctx context.Context, db *gorm.DB, professionalID snowflake.ID, start, end time.Time) (*Settlement, error)
	// Update writes s when the stored version still equals expectedVersion.
	Update(ctx context.Context, db *gorm.DB, s *Settlement, expectedVersion int64) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID, expectedVersion int64) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Settlement, error)
	Report(ctx context.Context, db *gorm.DB, filter ListFilter) ([]StatusTotal, error)

	DeleteChildren(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) error
	InsertLineItems(ctx context.Context, db *gorm.DB, items []LineItem) error
	InsertDiscounts(ctx context.Context, db *gorm.DB, discounts []AppliedDiscount) error
	ListLineItems(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) ([]LineItem, error)
	ListDiscounts(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) ([]AppliedDiscount, error)
}

// Event is handed to the audit sink after a committed change.
type Event struct {
	Action string
	Before *Settlement
	After  *Settlement
}

// Notifier receives settlement-ready notifications after approval. Delivery is best effort.
type Notifier interface {
	SettlementReady(ctx context.Context, s Settlement) error
}

// Locker serializes writers of a single settlement across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Unlocker, error)
}

type Unlocker interface {
	Release(ctx context.Context) error
}
