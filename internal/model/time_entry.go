package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeEntry states.
const (
	TimeEntryActive    = "active"
	TimeEntryFinalized = "finalized"
)

// TimeEntry is a standalone timed admission not tied to a combo: the card is
// tapped on the way in and billed by elapsed minutes on the way out.
// At most one active entry may exist per card id.
type TimeEntry struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CardID    string          `gorm:"type:varchar(64);index;not null"`
	Date      time.Time       `gorm:"type:date;not null"`
	EntryAt   time.Time       `gorm:"not null"`
	ExitAt    *time.Time
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	State     string          `gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
