package infra

import (
	"fmt"

	"playpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables, then applies the partial unique indexes that AutoMigrate
// cannot express. Those indexes back the store-level exclusivity invariants:
// one pending sale per card, one active time entry per card, one open
// cash session.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates the schema. Shared with integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.Combo{},
		&model.ComboLine{},
		&model.TimeTier{},
		&model.Sale{},
		&model.SaleLine{},
		&model.TimeEntry{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.StockMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM cannot express. A second
// concurrent transaction violating one of these indexes fails at commit, which
// the services surface as the matching domain error.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one pending sale per card id.
		{"unique pending sale per card", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_sales_pending_card') THEN
    CREATE UNIQUE INDEX uni_sales_pending_card
        ON sales (card_id)
        WHERE state = 'pending' AND card_id IS NOT NULL;
  END IF;
END $$`},
		// At most one active time entry per card id.
		{"unique active time entry per card", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_time_entries_active_card') THEN
    CREATE UNIQUE INDEX uni_time_entries_active_card
        ON time_entries (card_id)
        WHERE state = 'active';
  END IF;
END $$`},
		// At most one open cash session, full stop. Unique over a constant
		// expression restricted to open rows allows exactly one such row.
		{"single open cash session", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_cash_sessions_open') THEN
    CREATE UNIQUE INDEX uni_cash_sessions_open
        ON cash_sessions ((closed))
        WHERE closed = false;
  END IF;
END $$`},
		// Stock can never go negative, independent of application checks.
		{"non-negative stock", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_stock_nonneg') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_stock_nonneg CHECK (stock >= 0);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
