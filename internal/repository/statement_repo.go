package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/statements/internal/domain"
)

type StatementRepo struct {
	db *sql.DB
}

func NewStatementRepo(db *sql.DB) *StatementRepo {
	return &StatementRepo{db: db}
}

// Upsert writes the statement keyed by (account_id, year, month), fully
// replacing any prior row in a single atomic statement. Regeneration must
// never leave a half-updated close behind.
func (r *StatementRepo) Upsert(s *domain.MonthlyStatement) error {
	_, err := r.db.Exec(
		`INSERT INTO monthly_statements
		(account_id, year, month, currency,
		 opening_balance, closing_balance,
		 gross_revenue, refunds, net_revenue, processing_fees,
		 activity_balance, other_activity, payouts, payouts_absolute,
		 calculated_balance,
		 transaction_count, payment_count, payout_count, refund_count,
		 is_reconciled, balance_discrepancy, reconciliation_notes, generated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(account_id, year, month) DO UPDATE SET
			currency = excluded.currency,
			opening_balance = excluded.opening_balance,
			closing_balance = excluded.closing_balance,
			gross_revenue = excluded.gross_revenue,
			refunds = excluded.refunds,
			net_revenue = excluded.net_revenue,
			processing_fees = excluded.processing_fees,
			activity_balance = excluded.activity_balance,
			other_activity = excluded.other_activity,
			payouts = excluded.payouts,
			payouts_absolute = excluded.payouts_absolute,
			calculated_balance = excluded.calculated_balance,
			transaction_count = excluded.transaction_count,
			payment_count = excluded.payment_count,
			payout_count = excluded.payout_count,
			refund_count = excluded.refund_count,
			is_reconciled = excluded.is_reconciled,
			balance_discrepancy = excluded.balance_discrepancy,
			reconciliation_notes = excluded.reconciliation_notes,
			generated_at = excluded.generated_at`,
		s.AccountID, s.Year, s.Month, s.Currency,
		s.OpeningBalance, s.ClosingBalance,
		s.GrossRevenue, s.Refunds, s.NetRevenue, s.ProcessingFees,
		s.ActivityBalance, s.OtherActivity, s.Payouts, s.PayoutsAbsolute,
		s.CalculatedBalance,
		s.TransactionCount, s.PaymentCount, s.PayoutCount, s.RefundCount,
		boolToInt(s.IsReconciled), s.BalanceDiscrepancy, s.ReconciliationNotes,
		s.GeneratedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert statement: %w", err)
	}
	return nil
}

func (r *StatementRepo) Get(accountID string, year, month int) (*domain.MonthlyStatement, error) {
	row := r.db.QueryRow(
		"SELECT * FROM monthly_statements WHERE account_id = ? AND year = ? AND month = ?",
		accountID, year, month,
	)

	s, err := scanStatement(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatementNotFound
		}
		return nil, fmt.Errorf("scan statement: %w", err)
	}
	return s, nil
}

// ListByAccount returns all statements for the account in chronological order.
func (r *StatementRepo) ListByAccount(accountID string) ([]domain.MonthlyStatement, error) {
	rows, err := r.db.Query(
		"SELECT * FROM monthly_statements WHERE account_id = ? ORDER BY year, month",
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	var stmts []domain.MonthlyStatement
	for rows.Next() {
		s, err := scanStatement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		stmts = append(stmts, *s)
	}
	return stmts, rows.Err()
}

func (r *StatementRepo) Delete(accountID string, year, month int) error {
	_, err := r.db.Exec(
		"DELETE FROM monthly_statements WHERE account_id = ? AND year = ? AND month = ?",
		accountID, year, month,
	)
	return err
}

func (r *StatementRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM monthly_statements").Scan(&count)
	return count, err
}

func scanStatement(scan func(...any) error) (*domain.MonthlyStatement, error) {
	var s domain.MonthlyStatement
	var reconciled int
	var generatedAt string

	err := scan(
		&s.AccountID, &s.Year, &s.Month, &s.Currency,
		&s.OpeningBalance, &s.ClosingBalance,
		&s.GrossRevenue, &s.Refunds, &s.NetRevenue, &s.ProcessingFees,
		&s.ActivityBalance, &s.OtherActivity, &s.Payouts, &s.PayoutsAbsolute,
		&s.CalculatedBalance,
		&s.TransactionCount, &s.PaymentCount, &s.PayoutCount, &s.RefundCount,
		&reconciled, &s.BalanceDiscrepancy, &s.ReconciliationNotes, &generatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.IsReconciled = reconciled != 0
	s.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	return &s, nil
}
