package repository

import (
	"context"

	"playpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimeTierRepository interface {
	Create(ctx context.Context, t *model.TimeTier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TimeTier, error)
	// ListActive returns the pricing table: active tiers ordered by position.
	ListActive(ctx context.Context) ([]model.TimeTier, error)
	Update(ctx context.Context, t *model.TimeTier) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type timeTierRepo struct{ db *gorm.DB }

func NewTimeTierRepository(db *gorm.DB) TimeTierRepository { return &timeTierRepo{db: db} }

func (r *timeTierRepo) Create(ctx context.Context, t *model.TimeTier) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *timeTierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TimeTier, error) {
	var t model.TimeTier
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *timeTierRepo) ListActive(ctx context.Context) ([]model.TimeTier, error) {
	var tiers []model.TimeTier
	err := r.db.WithContext(ctx).
		Where("active = true").
		Order("position ASC").
		Find(&tiers).Error
	return tiers, err
}

func (r *timeTierRepo) Update(ctx context.Context, t *model.TimeTier) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *timeTierRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.TimeTier{}).Where("id = ?", id).Update("active", false).Error
}
