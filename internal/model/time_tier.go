package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeTier is one breakpoint of the piecewise-linear billing table.
// Sorted by Position, active tiers must form a strictly increasing sequence
// in both Minutes and Price — the pricing engine rejects anything else.
type TimeTier struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string          `gorm:"not null"`
	Minutes   int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Position  int             `gorm:"not null;index"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
