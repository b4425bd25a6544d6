package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Service is a catalog entry of the clinic. Its commission percentage is the
// default rate for attentions that carry no override.
type Service struct {
	ID                   snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code                 string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`
	Name                 string          `gorm:"type:varchar(200);not null" json:"name"`
	CommissionPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_percentage"`
	Active               bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (Service) TableName() string { return "services" }

// Attention is a billable clinical event. The settlement engine reads it and never writes it.
type Attention struct {
	ID                          snowflake.ID        `gorm:"primaryKey" json:"id"`
	ProfessionalID              snowflake.ID        `gorm:"not null;index:idx_attentions_professional_date,priority:1" json:"professional_id"`
	ServiceID                   snowflake.ID        `gorm:"not null" json:"service_id"`
	PatientName                 string              `gorm:"type:varchar(200);not null" json:"patient_name"`
	PatientDocument             string              `gorm:"type:varchar(64)" json:"patient_document"`
	HealthInsurance             string              `gorm:"type:varchar(200)" json:"health_insurance"`
	Date                        time.Time           `gorm:"not null;index:idx_attentions_professional_date,priority:2" json:"date"`
	AmountCharged               decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount_charged"`
	InsuranceDiscountPercentage decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:0" json:"insurance_discount_percentage"`
	CommissionPercentage        decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"commission_percentage"`
	Status                      Status              `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	Notes                       string              `gorm:"type:text" json:"notes"`
	CreatedAt                   time.Time           `json:"created_at"`
	UpdatedAt                   time.Time           `json:"updated_at"`
}

func (Attention) TableName() string { return "attentions" }

// Eligible is a completed attention joined with the catalog fields a line item snapshots.
type Eligible struct {
	Attention
	ServiceCode                 string
	ServiceName                 string
	ServiceCommissionPercentage decimal.Decimal
}

type Repository interface {
	// ListCompletedForPeriod returns completed attentions of the professional whose date
	// falls on a calendar day (UTC) within [start, end], ordered by date then id.
	ListCompletedForPeriod(ctx context.Context, db *gorm.DB, professionalID snowflake.ID, start, end time.Time) ([]Eligible, error)
}
