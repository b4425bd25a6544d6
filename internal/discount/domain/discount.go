package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryDiscount  Category = "discount"
	CategoryRetention Category = "retention"
	// CategoryDeduction rules are stored but do not change settlement totals.
	CategoryDeduction Category = "deduction"
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Discount is a clinic-wide rule applied to every settlement's commission total.
type Discount struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(200);not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Category     Category        `gorm:"type:varchar(16);not null" json:"category"`
	DiscountType Type            `gorm:"type:varchar(16);not null" json:"discount_type"`
	Value        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	Active       bool            `gorm:"not null;default:true;index" json:"active"`
	Mandatory    bool            `gorm:"not null;default:false" json:"mandatory"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Discount) TableName() string { return "discounts" }

type Repository interface {
	// ListActive returns the active rules ordered by id; the result is the snapshot a recompute pins.
	ListActive(ctx context.Context, db *gorm.DB) ([]Discount, error)
}
