package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash movement kinds.
const (
	MovementDeposit    = "deposit"
	MovementWithdrawal = "withdrawal"
)

// CashSession is the lifecycle of one drawer period, from open to close.
// Totals are NOT accumulated incrementally: they are recomputed from the
// finalized sales and movements at close time and snapshotted here, so a
// closed session is a derived, auditable record. At most one session may be
// open at a time.
type CashSession struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OpenedAt    time.Time        `gorm:"not null"`
	ClosedAt    *time.Time
	OpeningCash decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	CountedCash *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Snapshot fields, written once on close.
	CashSalesTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CardSalesTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CashSalesCount   int             `gorm:"not null;default:0"`
	CardSalesCount   int             `gorm:"not null;default:0"`
	DepositsTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	WithdrawalsTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ExpectedCash     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Variance         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Closed   bool    `gorm:"not null;default:false;index"`
	Notes    *string
	ClosedBy *string `gorm:"type:varchar(80)"`

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

// CashMovement is an immutable deposit or withdrawal recorded while the
// session is open. Movements are never updated or deleted.
type CashMovement struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Kind      string          `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Memo      string          `gorm:"not null"`
	Notes     *string
	User      *string `gorm:"type:varchar(80)"`
	CreatedAt time.Time
}
