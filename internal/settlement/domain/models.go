// Package domain contains the settlement aggregate, its children and lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Settlement is the record of one professional's commission payout for one period.
// Totals are derived by recompute and never edited directly.
type Settlement struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	ProfessionalID   snowflake.ID    `gorm:"not null;uniqueIndex:ux_settlements_professional_period,priority:1" json:"professional_id"`
	PeriodStart      time.Time       `gorm:"type:date;not null;uniqueIndex:ux_settlements_professional_period,priority:2" json:"period_start"`
	PeriodEnd        time.Time       `gorm:"type:date;not null;uniqueIndex:ux_settlements_professional_period,priority:3" json:"period_end"`
	Status           Status          `gorm:"type:varchar(16);not null;default:draft;index" json:"status"`
	TotalAttended    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_attended"`
	TotalCommission  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_commission"`
	TotalDiscounts   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_discounts"`
	TotalRetentions  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_retentions"`
	NetAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"net_amount"`
	PaymentReference *string         `gorm:"type:varchar(120)" json:"payment_reference,omitempty"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
	Notes            string          `gorm:"type:text" json:"notes"`
	CreatedBy        *string         `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	Version          int64           `gorm:"not null;default:1" json:"version"`
	CalculatedAt     *time.Time      `json:"calculated_at,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (Settlement) TableName() string { return "settlements" }

// LineItem snapshots one attention's contribution at compute time.
// AttentionID is a weak reference and survives deletion of the attention.
type LineItem struct {
	ID                          snowflake.ID    `gorm:"primaryKey" json:"id"`
	SettlementID                snowflake.ID    `gorm:"not null;index" json:"settlement_id"`
	AttentionID                 *snowflake.ID   `json:"attention_id,omitempty"`
	ServiceCode                 string          `gorm:"type:varchar(32)" json:"service_code"`
	ServiceName                 string          `gorm:"type:varchar(200)" json:"service_name"`
	AttentionDate               time.Time       `gorm:"not null" json:"attention_date"`
	AmountCharged               decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_charged"`
	InsuranceDiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"insurance_discount_percentage"`
	CommissionPercentage        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_percentage"`
	CommissionAmount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission_amount"`
	CreatedAt                   time.Time       `gorm:"not null" json:"created_at"`
}

func (LineItem) TableName() string { return "settlement_line_items" }

// AppliedDiscount snapshots one rule's effect on one settlement.
type AppliedDiscount struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	SettlementID   snowflake.ID    `gorm:"not null;index" json:"settlement_id"`
	DiscountID     snowflake.ID    `gorm:"not null" json:"discount_id"`
	Name           string          `gorm:"type:varchar(200)" json:"name"`
	Category       string          `gorm:"type:varchar(16);not null" json:"category"`
	DiscountType   string          `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
}

func (AppliedDiscount) TableName() string { return "settlement_discounts" }

// Detail is a settlement with the children of its most recent recompute.
type Detail struct {
	Settlement
	LineItems []LineItem        `json:"line_items"`
	Discounts []AppliedDiscount `json:"discounts"`
}
