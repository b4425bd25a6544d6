package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/dentalclinic/payouts/internal/professional/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Professional, error) {
	var p domain.Professional
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListActiveIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Professional{}).
		Where("status = ?", domain.StatusActive).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}
