package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/statements/internal/domain"
	"github.com/ledgerline/statements/internal/period"
)

func seedMonths(t *testing.T, env *testEnv, months int) {
	t.Helper()
	for m := 0; m < months; m++ {
		occurred := time.Date(2024, time.Month(1+m), 10, 9, 0, 0, 0, time.UTC)
		env.addTxn(t, "ch_"+occurred.Format("2006_01"), domain.TypeCharge, 10000, 300, occurred)
	}
}

func TestRegenerateRangeChainInvariant(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	seedMonths(t, env, 4)
	driver := NewBatchDriver(env.svc, env.txns)

	generated, err := driver.RegenerateRange("acct_1",
		period.Period{Year: 2024, Month: 1}, period.Period{Year: 2024, Month: 4}, 5000)
	require.NoError(t, err)
	require.Len(t, generated, 4)

	assert.Equal(t, int64(5000), generated[0].OpeningBalance)
	for i := 1; i < len(generated); i++ {
		assert.Equal(t, generated[i-1].ClosingBalance, generated[i].OpeningBalance,
			"month %d opening must equal month %d closing", i+1, i)
	}
	// 5000 + 4 * (10000 - 300)
	assert.Equal(t, int64(5000+4*9700), generated[3].ClosingBalance)
}

func TestRegenerateRangeDefaultsFromTransactionBounds(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	seedMonths(t, env, 3)
	driver := NewBatchDriver(env.svc, env.txns)

	generated, err := driver.RegenerateRange("acct_1", period.Period{}, period.Period{}, 0)
	require.NoError(t, err)
	require.Len(t, generated, 3)

	assert.Equal(t, 1, generated[0].Month)
	assert.Equal(t, 3, generated[2].Month)
}

func TestRegenerateRangeNoTransactions(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	driver := NewBatchDriver(env.svc, env.txns)

	generated, err := driver.RegenerateRange("acct_1", period.Period{}, period.Period{}, 0)
	require.NoError(t, err)
	assert.Empty(t, generated)
}

func TestRegenerateRangeReversed(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	seedMonths(t, env, 2)
	driver := NewBatchDriver(env.svc, env.txns)

	_, err := driver.RegenerateRange("acct_1",
		period.Period{Year: 2024, Month: 5}, period.Period{Year: 2024, Month: 2}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

// failingComputer delegates to the real calculator but sabotages the account
// right before a chosen call, simulating the account disappearing mid-batch.
type failingComputer struct {
	env    *testEnv
	calls  int
	failAt int
}

func (f *failingComputer) Compute(accountID string, year, month int, override *int64) (*domain.MonthlyStatement, error) {
	f.calls++
	if f.calls == f.failAt {
		if err := f.env.accounts.Delete(accountID); err != nil {
			return nil, err
		}
	}
	return f.env.svc.Compute(accountID, year, month, override)
}

func TestRegenerateRangePartialFailure(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	seedMonths(t, env, 6)

	fc := &failingComputer{env: env, failAt: 4}
	driver := NewBatchDriver(fc, env.txns)

	generated, err := driver.RegenerateRange("acct_1",
		period.Period{Year: 2024, Month: 1}, period.Period{Year: 2024, Month: 6}, 0)

	require.Error(t, err)
	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, period.Period{Year: 2024, Month: 4}, chainErr.Period)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	// Months 1-3 were written and remain valid.
	require.Len(t, generated, 3)
	for m := 1; m <= 3; m++ {
		stmt, err := env.stmts.Get("acct_1", 2024, m)
		require.NoError(t, err, "month %d should be persisted", m)
		assert.Equal(t, int64(m)*9700, stmt.ClosingBalance)
	}

	// Months 4-6 were never written.
	for m := 4; m <= 6; m++ {
		_, err := env.stmts.Get("acct_1", 2024, m)
		assert.ErrorIs(t, err, domain.ErrStatementNotFound, "month %d must not exist", m)
	}

	// The driver stopped: months 5 and 6 were never attempted.
	assert.Equal(t, 4, fc.calls)
}

func TestRegenerateRangeIsIdempotent(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	seedMonths(t, env, 3)
	driver := NewBatchDriver(env.svc, env.txns)

	first, err := driver.RegenerateRange("acct_1", period.Period{}, period.Period{}, 1000)
	require.NoError(t, err)
	second, err := driver.RegenerateRange("acct_1", period.Period{}, period.Period{}, 1000)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		first[i].GeneratedAt = time.Time{}
		second[i].GeneratedAt = time.Time{}
		assert.Equal(t, first[i], second[i])
	}
}
