package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerline/statements/internal/domain"
)

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const upsertTransactionSQL = `
	INSERT INTO transactions
	(external_id, account_id, amount, fee, currency, status, type,
	 occurred_at, description, customer_email, imported_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(external_id) DO UPDATE SET
		account_id = excluded.account_id,
		amount = excluded.amount,
		fee = excluded.fee,
		currency = excluded.currency,
		status = excluded.status,
		type = excluded.type,
		occurred_at = excluded.occurred_at,
		description = excluded.description,
		customer_email = excluded.customer_email,
		imported_at = excluded.imported_at`

// Upsert inserts the transaction or, if its external_id is already known,
// fully replaces the stored record. Re-importing the same external
// transaction must update, not duplicate.
func (r *TransactionRepo) Upsert(tx *domain.Transaction) error {
	_, err := r.db.Exec(upsertTransactionSQL, upsertArgs(tx)...)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

// BulkUpsert writes all transactions in a single SQL transaction: either the
// whole batch is committed or none of it. Returns how many rows were new and
// how many refreshed existing records.
func (r *TransactionRepo) BulkUpsert(txns []domain.Transaction) (inserted, refreshed int, err error) {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	existsStmt, err := sqlTx.Prepare("SELECT 1 FROM transactions WHERE external_id = ?")
	if err != nil {
		return 0, 0, fmt.Errorf("prepare exists: %w", err)
	}
	defer existsStmt.Close()

	upsertStmt, err := sqlTx.Prepare(upsertTransactionSQL)
	if err != nil {
		return 0, 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsertStmt.Close()

	for i := range txns {
		tx := &txns[i]

		var one int
		exists := true
		if err := existsStmt.QueryRow(tx.ExternalID).Scan(&one); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return 0, 0, fmt.Errorf("check row %d: %w", i, err)
			}
			exists = false
		}

		if _, err := upsertStmt.Exec(upsertArgs(tx)...); err != nil {
			return 0, 0, fmt.Errorf("upsert row %d (%s): %w", i, tx.ExternalID, err)
		}
		if exists {
			refreshed++
		} else {
			inserted++
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, refreshed, nil
}

func (r *TransactionRepo) GetByExternalID(externalID string) (*domain.Transaction, error) {
	row := r.db.QueryRow("SELECT * FROM transactions WHERE external_id = ?", externalID)

	tx, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// ListInRange returns the account's transactions with occurred_at inside the
// half-open interval [start, end), ordered by occurred_at then external_id so
// repeated calls over the same data yield the same slice.
func (r *TransactionRepo) ListInRange(accountID string, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := r.db.Query(
		`SELECT * FROM transactions
		 WHERE account_id = ? AND occurred_at >= ? AND occurred_at < ?
		 ORDER BY occurred_at, external_id`,
		accountID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Bounds returns the earliest and latest occurred_at for the account, or
// (nil, nil) when the account has no transactions.
func (r *TransactionRepo) Bounds(accountID string) (earliest, latest *time.Time, err error) {
	var minStr, maxStr sql.NullString
	err = r.db.QueryRow(
		"SELECT MIN(occurred_at), MAX(occurred_at) FROM transactions WHERE account_id = ?",
		accountID,
	).Scan(&minStr, &maxStr)
	if err != nil {
		return nil, nil, fmt.Errorf("query bounds: %w", err)
	}
	if !minStr.Valid || !maxStr.Valid {
		return nil, nil, nil
	}

	minT, err := time.Parse(time.RFC3339, minStr.String)
	if err != nil {
		return nil, nil, fmt.Errorf("parse earliest: %w", err)
	}
	maxT, err := time.Parse(time.RFC3339, maxStr.String)
	if err != nil {
		return nil, nil, fmt.Errorf("parse latest: %w", err)
	}
	return &minT, &maxT, nil
}

func (r *TransactionRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

type TransactionFilter struct {
	AccountID string
	Type      string
	Status    string
	Currency  string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

func (r *TransactionRepo) List(f TransactionFilter) ([]domain.Transaction, int, error) {
	where, args := buildTransactionWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM transactions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT * FROM transactions" + where + " ORDER BY occurred_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// --- helpers ---

func upsertArgs(tx *domain.Transaction) []any {
	return []any{
		tx.ExternalID, tx.AccountID, tx.Amount, tx.Fee, tx.Currency,
		string(tx.Status), string(tx.Type), tx.OccurredAt.UTC().Format(time.RFC3339),
		tx.Description, tx.CustomerEmail, tx.ImportedAt.UTC().Format(time.RFC3339),
	}
}

func buildTransactionWhere(f TransactionFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.AccountID != "" {
		clauses = append(clauses, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.Currency != "" {
		clauses = append(clauses, "currency = ?")
		args = append(args, f.Currency)
	}
	if f.From != nil {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "occurred_at <= ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		tx, err := scanTransactionRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		txns = append(txns, *tx)
	}
	return txns, rows.Err()
}

func scanTransactionRow(row *sql.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var status, txType, occurredAt, importedAt string

	err := row.Scan(
		&tx.ExternalID, &tx.AccountID, &tx.Amount, &tx.Fee, &tx.Currency,
		&status, &txType, &occurredAt, &tx.Description, &tx.CustomerEmail, &importedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Status = domain.TransactionStatus(status)
	tx.Type = domain.TransactionType(txType)
	tx.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
	tx.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
	return &tx, nil
}

func scanTransactionRows(rows *sql.Rows) (*domain.Transaction, error) {
	var tx domain.Transaction
	var status, txType, occurredAt, importedAt string

	err := rows.Scan(
		&tx.ExternalID, &tx.AccountID, &tx.Amount, &tx.Fee, &tx.Currency,
		&status, &txType, &occurredAt, &tx.Description, &tx.CustomerEmail, &importedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Status = domain.TransactionStatus(status)
	tx.Type = domain.TransactionType(txType)
	tx.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
	tx.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
	return &tx, nil
}
