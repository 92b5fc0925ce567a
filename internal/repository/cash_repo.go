package repository

import (
	"context"
	"errors"
	"time"

	"playpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CashRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	// FindOpenSession returns (nil, nil) when no session is open.
	FindOpenSession(ctx context.Context) (*model.CashSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	ListSessions(ctx context.Context, from, to *time.Time) ([]model.CashSession, error)

	CreateMovement(ctx context.Context, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)

	UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) DB() *gorm.DB { return r.db }

func (r *cashRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	return translateUniqueViolation(r.db.WithContext(ctx).Create(s).Error)
}

func (r *cashRepo) FindOpenSession(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Where("closed = false").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Movements").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) ListSessions(ctx context.Context, from, to *time.Time) ([]model.CashSession, error) {
	var sessions []model.CashSession
	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if from != nil {
		q = q.Where("opened_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("opened_at <= ?", *to)
	}
	err := q.Order("opened_at DESC").Find(&sessions).Error
	return sessions, err
}

func (r *cashRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cashRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cashRepo) UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Omit("Movements").Save(s).Error
}
