package infra

import (
	"fmt"

	"tillpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (sequences, partial indexes).
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

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Register{},
		&model.Session{},
		&model.Transaction{},
		&model.TransactionItem{},
		&model.TransactionPayment{},
		&model.Product{},
		&model.ProductVariant{},
		&model.StockMovement{},
		&model.User{},
		&model.Receipt{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Ticket numbering draws from a dedicated sequence so numbers are
		// gapless-enough and never reused across deletes.
		{"transaction number sequence",
			`CREATE SEQUENCE IF NOT EXISTS transactions_number_seq`},

		// DB-level backstop for the one-open-session-per-register rule. The
		// service checks first, but two racing opens both pass that check;
		// the second insert dies here instead.
		{"one open session per register",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_open
			     ON sessions (register_id)
			     WHERE status = 'open'`},

		// Partial index backing the retry cron query.
		{"receipt retry index",
			`CREATE INDEX IF NOT EXISTS idx_receipts_retry
			     ON receipts (next_retry_at)
			     WHERE status = 'error' AND next_retry_at IS NOT NULL`},

		// Guards against a racing refund double-flipping the same sale.
		{"one refund per original transaction",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_one_refund
			     ON transactions (original_transaction_id)
			     WHERE original_transaction_id IS NOT NULL`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("schema patch %q: %w", p.descr, err)
		}
	}
	return nil
}
