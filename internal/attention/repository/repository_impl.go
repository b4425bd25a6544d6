package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentalclinic/payouts/internal/attention/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListCompletedForPeriod(ctx context.Context, db *gorm.DB, professionalID snowflake.ID, start, end time.Time) ([]domain.Eligible, error) {
	from := truncateDay(start)
	until := truncateDay(end).AddDate(0, 0, 1)

	within, order, args := dateWindow(db, from, until)

	var rows []domain.Eligible
	err := db.WithContext(ctx).
		Table("attentions").
		Select(`attentions.*,
			services.code AS service_code,
			services.name AS service_name,
			services.commission_percentage AS service_commission_percentage`).
		Joins("JOIN services ON services.id = attentions.service_id").
		Where("attentions.professional_id = ?", professionalID).
		Where("attentions.status = ?", domain.StatusCompleted).
		Where(within, args...).
		Order(order).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// sqlite keeps timestamps as text carrying their own offset, so the window
// compares values normalized to UTC instead of the raw strings.
const sqliteDateTime = "2006-01-02 15:04:05"

func dateWindow(db *gorm.DB, from, until time.Time) (string, string, []any) {
	if db.Dialector.Name() == "sqlite" {
		return "datetime(attentions.date) >= ? AND datetime(attentions.date) < ?",
			"datetime(attentions.date) asc, attentions.id asc",
			[]any{from.Format(sqliteDateTime), until.Format(sqliteDateTime)}
	}
	return "attentions.date >= ? AND attentions.date < ?",
		"attentions.date asc, attentions.id asc",
		[]any{from, until}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
