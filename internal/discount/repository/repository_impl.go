package repository

import (
	"context"

	"github.com/dentalclinic/payouts/internal/discount/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Discount, error) {
	var rules []domain.Discount
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("id asc").
		Find(&rules).Error
	return rules, err
}
