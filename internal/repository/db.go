package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			external_id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			fee INTEGER NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			type TEXT NOT NULL,
			occurred_at DATETIME NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			customer_email TEXT NOT NULL DEFAULT '',
			imported_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_occurred
			ON transactions(account_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,

		`CREATE TABLE IF NOT EXISTS monthly_statements (
			account_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			currency TEXT NOT NULL,
			opening_balance INTEGER NOT NULL,
			closing_balance INTEGER NOT NULL,
			gross_revenue INTEGER NOT NULL,
			refunds INTEGER NOT NULL,
			net_revenue INTEGER NOT NULL,
			processing_fees INTEGER NOT NULL,
			activity_balance INTEGER NOT NULL,
			other_activity INTEGER NOT NULL,
			payouts INTEGER NOT NULL,
			payouts_absolute INTEGER NOT NULL,
			calculated_balance INTEGER NOT NULL,
			transaction_count INTEGER NOT NULL,
			payment_count INTEGER NOT NULL,
			payout_count INTEGER NOT NULL,
			refund_count INTEGER NOT NULL,
			is_reconciled INTEGER NOT NULL,
			balance_discrepancy INTEGER NOT NULL,
			reconciliation_notes TEXT NOT NULL DEFAULT '',
			generated_at DATETIME NOT NULL,
			PRIMARY KEY (account_id, year, month)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statements_account
			ON monthly_statements(account_id, year, month)`,

		`CREATE TABLE IF NOT EXISTS import_files (
			file_hash TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL,
			account_id TEXT NOT NULL,
			total_rows INTEGER NOT NULL,
			imported INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			imported_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
