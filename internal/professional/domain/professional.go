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
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Professional is a clinician whose attentions are settled. CommissionPercentage is
// informational; commission rates come from the service or the attention.
type Professional struct {
	ID                   snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name                 string          `gorm:"type:varchar(200);not null" json:"name"`
	Email                string          `gorm:"type:varchar(200)" json:"email"`
	LicenseNumber        string          `gorm:"type:varchar(64)" json:"license_number"`
	Specialization       string          `gorm:"type:varchar(120)" json:"specialization"`
	Status               Status          `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	CommissionPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_percentage"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (Professional) TableName() string { return "professionals" }

type Repository interface {
	// FindByID returns nil when the professional does not exist.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Professional, error)
	ListActiveIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
}
