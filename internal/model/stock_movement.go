package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every stock change on a product: sale decrements,
// cancellation and return restores, and manual adjustments.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind        string    `gorm:"not null"` // "sale" | "cancel_restore" | "return_restore" | "adjustment"
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Reason      string
	RefID       *uuid.UUID `gorm:"type:uuid"` // originating sale id if applicable
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
