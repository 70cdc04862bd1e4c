// Package statement implements the monthly close: deterministic aggregation
// of one account-month of transactions into a persisted, chained statement.
package statement

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ledgerline/statements/internal/currency"
	"github.com/ledgerline/statements/internal/domain"
	"github.com/ledgerline/statements/internal/period"
	"github.com/ledgerline/statements/internal/repository"
)

// Config controls aggregation policy.
type Config struct {
	// IncludeOtherInActivity folds the amounts of adjustment, transfer, fee,
	// and other transactions into the activity balance. The source system
	// excludes them from balance math while still counting them; that
	// exclusion is preserved as the default.
	IncludeOtherInActivity bool

	// DefaultCurrency labels statements for months with no revenue
	// transactions.
	DefaultCurrency string
}

// DefaultConfig matches the source system's aggregation policy.
func DefaultConfig() Config {
	return Config{
		IncludeOtherInActivity: false,
		DefaultCurrency:        "usd",
	}
}

// Service computes and persists monthly statements.
//
// Writes for the same account are serialized through a per-account mutex:
// month N's opening balance is month N-1's freshly written closing balance,
// so two computations for one account must never interleave. Different
// accounts share no state and proceed in parallel.
type Service struct {
	accounts *repository.AccountRepo
	txns     *repository.TransactionRepo
	stmts    *repository.StatementRepo
	cfg      Config

	locks sync.Map // account id -> *sync.Mutex
}

// NewService creates a statement calculator over the given repositories.
func NewService(
	accounts *repository.AccountRepo,
	txns *repository.TransactionRepo,
	stmts *repository.StatementRepo,
	cfg Config,
) *Service {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "usd"
	}
	return &Service{
		accounts: accounts,
		txns:     txns,
		stmts:    stmts,
		cfg:      cfg,
	}
}

func (s *Service) lockAccount(accountID string) func() {
	v, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Compute builds the statement for (account, year, month) from the month's
// transactions and upserts it, fully replacing any prior close for that key.
//
// The opening balance comes from openingOverride when given, else from the
// previous month's persisted closing balance, else 0 (first-ever period).
// A fresh compute is reconciled by construction: closing equals calculated
// and the discrepancy is zero.
func (s *Service) Compute(accountID string, year, month int, openingOverride *int64) (*domain.MonthlyStatement, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	stmt, err := s.build(accountID, year, month, openingOverride)
	if err != nil {
		return nil, err
	}

	if err := s.stmts.Upsert(stmt); err != nil {
		return nil, fmt.Errorf("persist statement %s %04d-%02d: %w", accountID, year, month, err)
	}

	log.Printf("[statement] Computed %s %04d-%02d: opening=%d activity=%d payouts=%d closing=%d (%d txns)",
		accountID, year, month, stmt.OpeningBalance, stmt.ActivityBalance,
		stmt.PayoutsAbsolute, stmt.ClosingBalance, stmt.TransactionCount)

	return stmt, nil
}

// GetOrGenerate returns the persisted statement when present, else computes
// and persists it.
func (s *Service) GetOrGenerate(accountID string, year, month int) (*domain.MonthlyStatement, error) {
	if _, err := period.New(year, month); err != nil {
		return nil, err
	}

	stmt, err := s.stmts.Get(accountID, year, month)
	if err == nil {
		return stmt, nil
	}
	if err != domain.ErrStatementNotFound {
		return nil, err
	}
	return s.Compute(accountID, year, month, nil)
}

// Reconcile is the operator path: recompute the month from transactions,
// record the operator-reported closing balance, and store the signed
// difference against the calculated balance. A mismatch is data, not an
// error; the statement is simply marked unreconciled.
func (s *Service) Reconcile(accountID string, year, month int, reportedClosing int64, notes string) (*domain.MonthlyStatement, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	stmt, err := s.build(accountID, year, month, nil)
	if err != nil {
		return nil, err
	}

	stmt.ClosingBalance = reportedClosing
	stmt.BalanceDiscrepancy = reportedClosing - stmt.CalculatedBalance
	stmt.IsReconciled = stmt.BalanceDiscrepancy == 0
	stmt.ReconciliationNotes = notes

	if err := s.stmts.Upsert(stmt); err != nil {
		return nil, fmt.Errorf("persist statement %s %04d-%02d: %w", accountID, year, month, err)
	}

	if !stmt.IsReconciled {
		log.Printf("[statement] Reconciliation mismatch %s %04d-%02d: reported=%d calculated=%d diff=%d",
			accountID, year, month, reportedClosing, stmt.CalculatedBalance, stmt.BalanceDiscrepancy)
	}

	return stmt, nil
}

// build computes all aggregate fields without persisting. No partial state
// escapes: either a fully populated statement is returned or an error.
func (s *Service) build(accountID string, year, month int, openingOverride *int64) (*domain.MonthlyStatement, error) {
	p, err := period.New(year, month)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.GetByID(accountID); err != nil {
		if err == domain.ErrAccountNotFound {
			return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}

	opening, err := s.resolveOpening(accountID, p, openingOverride)
	if err != nil {
		return nil, err
	}

	txns, err := s.txns.ListInRange(accountID, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("load transactions %s %s: %w", accountID, p, err)
	}

	stmt := aggregate(accountID, p, opening, txns, s.cfg)
	return stmt, nil
}

func (s *Service) resolveOpening(accountID string, p period.Period, override *int64) (int64, error) {
	if override != nil {
		return *override, nil
	}

	prev := p.Prev()
	prevStmt, err := s.stmts.Get(accountID, prev.Year, prev.Month)
	if err == domain.ErrStatementNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load prior statement %s %s: %w", accountID, prev, err)
	}
	return prevStmt.ClosingBalance, nil
}

// aggregate reduces one month of transactions to statement fields. Pure
// in-memory arithmetic over signed minor units; deterministic for a given
// input slice.
func aggregate(accountID string, p period.Period, opening int64, txns []domain.Transaction, cfg Config) *domain.MonthlyStatement {
	var (
		grossCharges  int64
		refundAmounts int64
		fees          int64
		payoutTotal   int64
		otherActivity int64

		paymentCount int
		refundCount  int
		payoutCount  int
	)
	currencyCounts := make(map[string]int)

	for i := range txns {
		tx := &txns[i]
		switch {
		case tx.IsRevenue():
			grossCharges += tx.Amount
			fees += currency.Abs(tx.Fee)
			currencyCounts[tx.Currency]++
			paymentCount++
		case tx.Type == domain.TypeRefund:
			refundAmounts += tx.Amount
			fees += currency.Abs(tx.Fee)
			refundCount++
		case tx.Type == domain.TypePayout:
			payoutTotal += tx.Amount
			payoutCount++
		default:
			// adjustment, transfer, fee, other: counted, and folded into the
			// balance only when configured in.
			if cfg.IncludeOtherInActivity {
				otherActivity += tx.Amount
			}
		}
	}

	grossRevenue := grossCharges + currency.Abs(refundAmounts)
	netRevenue := grossCharges + refundAmounts
	activity := netRevenue - fees + otherActivity
	payoutsAbs := currency.Abs(payoutTotal)
	closing := opening + activity - payoutsAbs

	return &domain.MonthlyStatement{
		AccountID: accountID,
		Year:      p.Year,
		Month:     p.Month,
		Currency:  dominantCurrency(currencyCounts, cfg.DefaultCurrency),

		OpeningBalance: opening,
		ClosingBalance: closing,

		GrossRevenue:    grossRevenue,
		Refunds:         refundAmounts,
		NetRevenue:      netRevenue,
		ProcessingFees:  fees,
		ActivityBalance: activity,
		OtherActivity:   otherActivity,

		Payouts:         payoutTotal,
		PayoutsAbsolute: payoutsAbs,

		CalculatedBalance: closing,

		TransactionCount: len(txns),
		PaymentCount:     paymentCount,
		PayoutCount:      payoutCount,
		RefundCount:      refundCount,

		IsReconciled:       true,
		BalanceDiscrepancy: 0,

		GeneratedAt: time.Now().UTC(),
	}
}

// dominantCurrency returns the currency with the most revenue transactions.
// Ties break lexicographically (smallest code) so repeated runs over the same
// data always elect the same currency.
func dominantCurrency(counts map[string]int, fallback string) string {
	if len(counts) == 0 {
		return fallback
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	best := codes[0]
	for _, code := range codes[1:] {
		if counts[code] > counts[best] {
			best = code
		}
	}
	return best
}
