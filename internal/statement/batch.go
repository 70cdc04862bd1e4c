package statement

import (
	"fmt"
	"log"

	"github.com/ledgerline/statements/internal/domain"
	"github.com/ledgerline/statements/internal/period"
	"github.com/ledgerline/statements/internal/repository"
)

// ChainError reports the period at which a batch regeneration stopped.
// Statements for earlier periods in the batch were written and remain valid;
// no statement after the failed period was attempted.
type ChainError struct {
	AccountID string
	Period    period.Period
	Err       error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("statement chain for account %s broken at %s: %v", e.AccountID, e.Period, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// Computer computes one monthly close. Satisfied by *Service.
type Computer interface {
	Compute(accountID string, year, month int, openingOverride *int64) (*domain.MonthlyStatement, error)
}

// BatchDriver regenerates a contiguous range of monthly statements for one
// account, carrying the running balance forward month by month.
type BatchDriver struct {
	computer Computer
	txns     *repository.TransactionRepo
}

func NewBatchDriver(computer Computer, txns *repository.TransactionRepo) *BatchDriver {
	return &BatchDriver{computer: computer, txns: txns}
}

// RegenerateRange recomputes every month from `from` to `to` inclusive, in
// strictly increasing order. A zero `from` or `to` defaults to the month of
// the account's earliest or latest transaction. initialBalance seeds only the
// very first period; every later month reads its predecessor's freshly
// written closing balance, which is what makes
// statement[N].opening == statement[N-1].closing hold across the range.
//
// On failure at month K the statements generated for months before K are
// returned together with a *ChainError; months after K are never attempted,
// since skipping would silently break the chain for everything that follows.
func (d *BatchDriver) RegenerateRange(accountID string, from, to period.Period, initialBalance int64) ([]domain.MonthlyStatement, error) {
	from, to, err := d.resolveRange(accountID, from, to)
	if err != nil {
		return nil, err
	}
	if from == (period.Period{}) {
		// No transactions and no explicit range: nothing to regenerate.
		log.Printf("[batch] Account %s has no transactions, nothing to regenerate", accountID)
		return nil, nil
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range %s..%s is reversed", domain.ErrInvalidPeriod, from, to)
	}

	var generated []domain.MonthlyStatement
	for p := from; ; p = p.Next() {
		var override *int64
		if p == from {
			override = &initialBalance
		}

		stmt, err := d.computer.Compute(accountID, p.Year, p.Month, override)
		if err != nil {
			return generated, &ChainError{AccountID: accountID, Period: p, Err: err}
		}
		generated = append(generated, *stmt)

		if p == to {
			break
		}
	}

	log.Printf("[batch] Regenerated %d statements for account %s (%s..%s)",
		len(generated), accountID, from, to)

	return generated, nil
}

func (d *BatchDriver) resolveRange(accountID string, from, to period.Period) (period.Period, period.Period, error) {
	if from != (period.Period{}) && to != (period.Period{}) {
		if _, err := period.New(from.Year, from.Month); err != nil {
			return from, to, err
		}
		if _, err := period.New(to.Year, to.Month); err != nil {
			return from, to, err
		}
		return from, to, nil
	}

	earliest, latest, err := d.txns.Bounds(accountID)
	if err != nil {
		return from, to, fmt.Errorf("resolve range for %s: %w", accountID, err)
	}
	if earliest == nil {
		return period.Period{}, period.Period{}, nil
	}

	if from == (period.Period{}) {
		from = period.FromTime(*earliest)
	}
	if to == (period.Period{}) {
		to = period.FromTime(*latest)
	}
	return from, to, nil
}
