package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale states.
const (
	SalePending   = "pending"
	SaleFinalized = "finalized"
)

// Payment methods.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

// SaleLine kinds. The kind is carried explicitly on every line instead of
// sign-encoding it into the catalog reference.
const (
	LineProduct     = "product"
	LineCombo       = "combo"
	LineTimeCharge  = "time_charge"
	LineLostCardFee = "lost_card_fee"
)

// Sale is a checkout. A pending sale is an open time tab bound to an NFC card;
// finalizing it bills excess minutes and freezes the total. At most one
// pending sale may exist per card id at any time.
type Sale struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	State           string          `gorm:"type:varchar(20);not null;index"`
	PaymentMethod   string          `gorm:"type:varchar(10);not null"`
	CardID          *string         `gorm:"type:varchar(64);index"`
	EntryAt         *time.Time
	IncludedMinutes *int
	CustomerName    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Lines []SaleLine `gorm:"foreignKey:SaleID"`
}

// SaleLine is one item of a sale. ProductID is set only for product lines,
// ComboID only for combo lines; time charges and lost-card fees carry no
// catalog reference. Subtotal starts at Quantity×UnitPrice and shrinks on
// partial returns.
type SaleLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Kind      string          `gorm:"type:varchar(20);not null"`
	ProductID *uuid.UUID      `gorm:"type:uuid"`
	ComboID   *uuid.UUID      `gorm:"type:uuid"`
	Name      string          `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
}

// LineTotal returns the sum of line subtotals; at finalization it must match
// Sale.Total within a tolerance of 0.01.
func (s *Sale) LineTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}
