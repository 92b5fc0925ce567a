package repository

import (
	"context"

	"playpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComboRepository interface {
	Create(ctx context.Context, c *model.Combo) error
	// FindByID loads the combo with its lines, line products and time tier.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Combo, error)
	ListActive(ctx context.Context) ([]model.Combo, error)
	Update(ctx context.Context, c *model.Combo) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type comboRepo struct{ db *gorm.DB }

func NewComboRepository(db *gorm.DB) ComboRepository { return &comboRepo{db: db} }

func (r *comboRepo) Create(ctx context.Context, c *model.Combo) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *comboRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Combo, error) {
	var c model.Combo
	err := r.db.WithContext(ctx).
		Preload("Lines.Product").
		Preload("TimeTier").
		First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *comboRepo) ListActive(ctx context.Context) ([]model.Combo, error) {
	var combos []model.Combo
	err := r.db.WithContext(ctx).
		Preload("Lines.Product").
		Preload("TimeTier").
		Where("active = true").
		Order("name ASC").
		Find(&combos).Error
	return combos, err
}

func (r *comboRepo) Update(ctx context.Context, c *model.Combo) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *comboRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Combo{}).Where("id = ?", id).Update("active", false).Error
}
