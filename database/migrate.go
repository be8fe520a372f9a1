package database

import (
	"fmt"

	"envelopamento-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2)) and quantity columns (NUMERIC(14,4))
// - Indexes (receivables/ledger origin, payments, pieces)
// - Basic CHECK constraints
// - Seed row for the quote code counter
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.Product{},
			&models.ProductComponent{},
			&models.CatalogService{},
			&models.Customer{},
			&models.Employee{},
			&models.Quote{},
			&models.Piece{},
			&models.Payment{},
			&models.QuoteCounter{},
			&models.Receivable{},
			&models.LedgerEntry{},
			&models.InternalConsumption{},
			&models.StockMovement{},
			&models.TrashedQuote{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money/quantity column types (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE products        ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE products        ALTER COLUMN stock           TYPE numeric(14,4)`,
			`ALTER TABLE catalog_services ALTER COLUMN unit_price     TYPE numeric(12,2)`,
			`ALTER TABLE quotes          ALTER COLUMN grand_total     TYPE numeric(12,2)`,
			`ALTER TABLE quotes          ALTER COLUMN subtotal        TYPE numeric(12,2)`,
			`ALTER TABLE quotes          ALTER COLUMN discount_amount TYPE numeric(12,2)`,
			`ALTER TABLE quotes          ALTER COLUMN total_area      TYPE numeric(14,4)`,
			`ALTER TABLE payments        ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE receivables     ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE ledger_entries  ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE stock_movements ALTER COLUMN delta           TYPE numeric(14,4)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_receivables_origin ON receivables (origin_type, origin_id)`,
			`CREATE INDEX IF NOT EXISTS idx_ledger_entries_origin ON ledger_entries (origin_type, origin_id)`,
			`CREATE INDEX IF NOT EXISTS idx_pieces_quote ON pieces (quote_id)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_quote ON payments (quote_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_quotes_code ON quotes (code)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Stock never negative (the engine clamps, the DB backstops)
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'products'::regclass
					  AND conname  = 'chk_products_stock_nonneg'
				) THEN
					ALTER TABLE products
					ADD CONSTRAINT chk_products_stock_nonneg
					CHECK (stock >= 0);
				END IF;
			END $$;`,
			// Payments.amount >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
			// Grand total never negative
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'quotes'::regclass
					  AND conname  = 'chk_quotes_grand_total_nonneg'
				) THEN
					ALTER TABLE quotes
					ADD CONSTRAINT chk_quotes_grand_total_nonneg
					CHECK (grand_total >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		// --- Seed the quote code counter (keep existing value) ---
		seed := `INSERT INTO quote_counters (name, value, updated_at)
			VALUES ('quote_code', '0', NOW())
			ON CONFLICT (name) DO NOTHING`
		if err := tx.Exec(seed).Error; err != nil {
			return fmt.Errorf("counter seed failed: %w", err)
		}

		return nil
	})
}
