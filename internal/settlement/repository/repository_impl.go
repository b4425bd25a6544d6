package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentalclinic/payouts/internal/settlement/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *domain.Settlement) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "professional_id"},
				{Name: "period_start"},
				{Name: "period_end"},
			},
			DoNothing: true,
		}).
		Create(s)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Settlement, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate takes a row lock. The sqlite dialect drops the clause.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Settlement, error) {
	return first(db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *repo) FindByPeriod(ctx context.Context, db *gorm.DB, professionalID snowflake.ID, start, end time.Time) (*domain.Settlement, error) {
	return first(db.WithContext(ctx).
		Where("professional_id = ? AND period_start = ? AND period_end = ?", professionalID, start, end))
}

func first(stmt *gorm.DB) (*domain.Settlement, error) {
	var s domain.Settlement
	err := stmt.First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, s *domain.Settlement, expectedVersion int64) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.Settlement{}).
		Where("id = ? AND version = ?", s.ID, expectedVersion).
		Updates(map[string]any{
			"status":            s.Status,
			"total_attended":    s.TotalAttended,
			"total_commission":  s.TotalCommission,
			"total_discounts":   s.TotalDiscounts,
			"total_retentions":  s.TotalRetentions,
			"net_amount":        s.NetAmount,
			"payment_reference": s.PaymentReference,
			"payment_date":      s.PaymentDate,
			"notes":             s.Notes,
			"version":           s.Version,
			"calculated_at":     s.CalculatedAt,
			"approved_at":       s.ApprovedAt,
			"cancelled_at":      s.CancelledAt,
			"updated_at":        s.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID, expectedVersion int64) (bool, error) {
	if err := r.DeleteChildren(ctx, db, id); err != nil {
		return false, err
	}
	result := db.WithContext(ctx).
		Where("id = ? AND version = ?", id, expectedVersion).
		Delete(&domain.Settlement{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Settlement, error) {
	var items []*domain.Settlement
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Settlement{}), filter)
	if filter.AfterID != 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type reportRow struct {
	Status    domain.Status
	Count     int64
	NetAmount decimal.NullDecimal
}

func (r *repo) Report(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.StatusTotal, error) {
	var rows []reportRow
	err := applyFilter(db.WithContext(ctx).Model(&domain.Settlement{}), filter).
		Select("status, COUNT(*) AS count, SUM(net_amount) AS net_amount").
		Group("status").
		Order("status asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.StatusTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.StatusTotal{
			Status:    row.Status,
			Count:     row.Count,
			NetAmount: row.NetAmount.Decimal,
		})
	}
	return out, nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	if filter.ProfessionalID != 0 {
		stmt = stmt.Where("professional_id = ?", filter.ProfessionalID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PeriodFrom != nil {
		stmt = stmt.Where("period_start >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		stmt = stmt.Where("period_end <= ?", *filter.PeriodTo)
	}
	return stmt
}

func (r *repo) DeleteChildren(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Delete(&domain.LineItem{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Delete(&domain.AppliedDiscount{}).Error
}

func (r *repo) InsertLineItems(ctx context.Context, db *gorm.DB, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (r *repo) InsertDiscounts(ctx context.Context, db *gorm.DB, discounts []domain.AppliedDiscount) error {
	if len(discounts) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(discounts).Error
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("attention_date asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) ListDiscounts(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) ([]domain.AppliedDiscount, error) {
	var discounts []domain.AppliedDiscount
	err := db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("id asc").
		Find(&discounts).Error
	return discounts, err
}
