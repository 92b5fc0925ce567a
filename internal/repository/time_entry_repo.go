package repository

import (
	"context"
	"errors"

	"playpos/internal/model"

	"gorm.io/gorm"
)

type TimeEntryRepository interface {
	Create(ctx context.Context, e *model.TimeEntry) error
	// FindActiveByCard returns (nil, nil) when the card has no active entry.
	FindActiveByCard(ctx context.Context, cardID string) (*model.TimeEntry, error)
	ListByDate(ctx context.Context, date string) ([]model.TimeEntry, error)

	UpdateTx(tx *gorm.DB, e *model.TimeEntry) error
}

type timeEntryRepo struct{ db *gorm.DB }

func NewTimeEntryRepository(db *gorm.DB) TimeEntryRepository { return &timeEntryRepo{db: db} }

func (r *timeEntryRepo) Create(ctx context.Context, e *model.TimeEntry) error {
	return translateUniqueViolation(r.db.WithContext(ctx).Create(e).Error)
}

func (r *timeEntryRepo) FindActiveByCard(ctx context.Context, cardID string) (*model.TimeEntry, error) {
	var e model.TimeEntry
	err := r.db.WithContext(ctx).
		Where("card_id = ? AND state = ?", cardID, model.TimeEntryActive).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *timeEntryRepo) ListByDate(ctx context.Context, date string) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	q := r.db.WithContext(ctx)
	if date != "" {
		q = q.Where("DATE(entry_at) = ?", date)
	} else {
		q = q.Where("DATE(entry_at) = CURRENT_DATE")
	}
	err := q.Order("entry_at DESC").Find(&entries).Error
	return entries, err
}

func (r *timeEntryRepo) UpdateTx(tx *gorm.DB, e *model.TimeEntry) error {
	return tx.Save(e).Error
}
