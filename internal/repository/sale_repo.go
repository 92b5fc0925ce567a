package repository

import (
	"context"
	"errors"
	"time"

	"playpos/internal/dto"
	"playpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	// FindByID loads the sale with its lines.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// FindPendingByCard returns (nil, nil) when the card has no pending sale.
	FindPendingByCard(ctx context.Context, cardID string) (*model.Sale, error)
	// ListFinalizedBetween returns finalized sales created in [from, to],
	// used by cash reconciliation.
	ListFinalizedBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)

	// Used inside transactions — callers must pass the tx instance.
	CreateTx(tx *gorm.DB, s *model.Sale) error
	UpdateTx(tx *gorm.DB, s *model.Sale) error
	AppendLineTx(tx *gorm.DB, line *model.SaleLine) error
	UpdateLineTx(tx *gorm.DB, line *model.SaleLine) error
	DeleteLineTx(tx *gorm.DB, lineID uuid.UUID) error
	// DeleteTx removes the sale and all its lines.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Lines").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) FindPendingByCard(ctx context.Context, cardID string) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("card_id = ? AND state = ?", cardID, model.SalePending).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) ListFinalizedBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("state = ? AND created_at BETWEEN ? AND ?", model.SaleFinalized, from, to).
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.State != "" && filter.State != "all" {
		q = q.Where("state = ?", filter.State)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Lines").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return translateUniqueViolation(tx.Create(s).Error)
}

func (r *saleRepo) UpdateTx(tx *gorm.DB, s *model.Sale) error {
	// Omit associations: lines are written through the explicit line methods
	// so the persisted delta stays auditable.
	return tx.Omit("Lines").Save(s).Error
}

func (r *saleRepo) AppendLineTx(tx *gorm.DB, line *model.SaleLine) error {
	return tx.Create(line).Error
}

func (r *saleRepo) UpdateLineTx(tx *gorm.DB, line *model.SaleLine) error {
	return tx.Model(&model.SaleLine{}).Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"quantity": line.Quantity,
			"subtotal": line.Subtotal,
		}).Error
}

func (r *saleRepo) DeleteLineTx(tx *gorm.DB, lineID uuid.UUID) error {
	return tx.Delete(&model.SaleLine{}, lineID).Error
}

func (r *saleRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("sale_id = ?", id).Delete(&model.SaleLine{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Sale{}, id).Error
}
