package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/statements/internal/domain"
	"github.com/ledgerline/statements/internal/repository"
)

func newTestImporter(t *testing.T) (*Service, *repository.TransactionRepo) {
	t.Helper()

	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	txns := repository.NewTransactionRepo(db)
	return NewService(txns, repository.NewImportRepo(db)), txns
}

const sampleCSV = `Transaction ID,Created,Gross Amount,Fee Amount,Currency Code,State,Transaction Type,Customer Email
ch_001,2024-01-10T09:30:00Z,100.00,2.90,usd,succeeded,charge,alice@example.com
ch_002,2024-01-12,"$1,234.56",35.80,usd,succeeded,charge,bob@example.com
re_001,2024-01-15 14:00:00,-40.00,-1.00,usd,succeeded,refund,alice@example.com
po_001,01/31/2024,-800.00,0,usd,succeeded,payout,
`

func TestImportDetectsAliasedHeaders(t *testing.T) {
	svc, txns := newTestImporter(t)

	summary, err := svc.Import([]byte(sampleCSV), "acct_1")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 4, summary.Imported)
	assert.Equal(t, 0, summary.Skipped)
	assert.Empty(t, summary.Errors)
	assert.NotEmpty(t, summary.BatchID)

	tx, err := txns.GetByExternalID("ch_002")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), tx.Amount)
	assert.Equal(t, int64(3580), tx.Fee)
	assert.Equal(t, domain.TypeCharge, tx.Type)
	assert.Equal(t, "bob@example.com", tx.CustomerEmail)

	re, err := txns.GetByExternalID("re_001")
	require.NoError(t, err)
	assert.Equal(t, int64(-4000), re.Amount)
	assert.Equal(t, int64(-100), re.Fee)
	assert.Equal(t, domain.TypeRefund, re.Type)
	assert.Equal(t, time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC), re.OccurredAt)

	po, err := txns.GetByExternalID("po_001")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), po.OccurredAt)
	assert.Equal(t, domain.TypePayout, po.Type)
}

func TestImportSameFileTwiceIsIdempotent(t *testing.T) {
	svc, txns := newTestImporter(t)

	first, err := svc.Import([]byte(sampleCSV), "acct_1")
	require.NoError(t, err)
	require.Equal(t, 4, first.Imported)

	second, err := svc.Import([]byte(sampleCSV), "acct_1")
	require.NoError(t, err)

	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, second.TotalRows, second.Skipped)

	count, err := txns.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestImportOverlappingFileUpdatesNotDuplicates(t *testing.T) {
	svc, txns := newTestImporter(t)

	_, err := svc.Import([]byte(sampleCSV), "acct_1")
	require.NoError(t, err)

	// A later export repeats ch_001 with a corrected amount and adds one row.
	overlap := `transaction_id,created,amount,fee,currency,status,type
ch_001,2024-01-10T09:30:00Z,110.00,3.19,usd,succeeded,charge
ch_003,2024-01-20T10:00:00Z,50.00,1.45,usd,succeeded,charge
`
	summary, err := svc.Import([]byte(overlap), "acct_1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)

	tx, err := txns.GetByExternalID("ch_001")
	require.NoError(t, err)
	assert.Equal(t, int64(11000), tx.Amount)

	count, err := txns.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestImportRejectsUnparseableDates(t *testing.T) {
	svc, txns := newTestImporter(t)

	data := `id,amount,date
ch_ok,10.00,2024-01-05
ch_bad,20.00,sometime in January
ch_ok2,30.00,2024-01-07
`
	summary, err := svc.Import([]byte(data), "acct_1")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 2, summary.Imported)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 3, summary.Errors[0].Line)
	assert.Equal(t, "date", summary.Errors[0].Field)

	// The bad row must not exist under any timestamp.
	_, err = txns.GetByExternalID("ch_bad")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestImportCollectsRowErrorsWithoutAborting(t *testing.T) {
	svc, _ := newTestImporter(t)

	data := `id,amount,date
ch_1,10.00,2024-01-05
,20.00,2024-01-06
ch_3,not-a-number,2024-01-07
ch_4,40.00,2024-01-08
`
	summary, err := svc.Import([]byte(data), "acct_1")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 2, summary.Imported)
	assert.Len(t, summary.Errors, 2)
}

func TestImportUnknownLayoutFails(t *testing.T) {
	svc, _ := newTestImporter(t)

	data := "foo,bar,baz\n1,2,3\n"
	_, err := svc.Import([]byte(data), "acct_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized CSV layout")
}

func TestImportInfersTypeFromSign(t *testing.T) {
	svc, txns := newTestImporter(t)

	data := `id,amount,date
ch_pos,10.00,2024-01-05
re_neg,-10.00,2024-01-06
`
	_, err := svc.Import([]byte(data), "acct_1")
	require.NoError(t, err)

	pos, err := txns.GetByExternalID("ch_pos")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeCharge, pos.Type)

	neg, err := txns.GetByExternalID("re_neg")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeRefund, neg.Type)
}

func TestImportNormalizesUnknownType(t *testing.T) {
	svc, txns := newTestImporter(t)

	data := `id,amount,date,type
tx_1,10.00,2024-01-05,mystery_row
`
	_, err := svc.Import([]byte(data), "acct_1")
	require.NoError(t, err)

	tx, err := txns.GetByExternalID("tx_1")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeOther, tx.Type)
}

func TestNormalizeHeaderHandlesBOMAndCase(t *testing.T) {
	data := strings.Join([]string{
		"\ufeffID,Amount,Date",
		"tx_1,12.34,2024-02-01",
		"",
	}, "\n")

	svc, txns := newTestImporter(t)
	summary, err := svc.Import([]byte(data), "acct_1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	tx, err := txns.GetByExternalID("tx_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), tx.Amount)
}
