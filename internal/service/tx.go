package service

import (
	"context"
	"time"

	"playpos/internal/model"
	"playpos/internal/poserr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// timeFmt is the wire format for timestamps in response DTOs. RFC 3339 with
// the real zone offset — local wall-clock times must not claim UTC.
const timeFmt = time.RFC3339

// totalTolerance is the maximum allowed gap between a sale's declared total
// and the sum of its line subtotals.
var totalTolerance = decimal.NewFromFloat(0.01)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// checkTotal enforces the sale/line invariant before any commit.
func checkTotal(s *model.Sale) error {
	sum := s.LineTotal()
	if s.Total.Sub(sum).Abs().GreaterThan(totalTolerance) {
		return &poserr.TotalMismatchError{Declared: s.Total, Computed: sum}
	}
	return nil
}
