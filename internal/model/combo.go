package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Combo bundles product quantities at a single price, optionally granting
// included play minutes through a TimeTier reference.
// A combo with zero lines and no time tier is invalid for checkout.
type Combo struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string          `gorm:"index;not null"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TimeTierID *uuid.UUID      `gorm:"type:uuid"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	TimeTier *TimeTier   `gorm:"foreignKey:TimeTierID"`
	Lines    []ComboLine `gorm:"foreignKey:ComboID"`
}

// ComboLine is one constituent product of a combo.
type ComboLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComboID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity  int       `gorm:"not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// AvailableStock is the number of times the combo can still be sold:
// the minimum over its lines of floor(product stock / line quantity).
// A combo without lines (time-only) is limited by nothing — returns -1.
func (c *Combo) AvailableStock() int {
	if len(c.Lines) == 0 {
		return -1
	}
	available := -1
	for _, line := range c.Lines {
		if line.Product == nil || line.Quantity <= 0 {
			return 0
		}
		n := line.Product.Stock / line.Quantity
		if available < 0 || n < available {
			available = n
		}
	}
	return available
}
