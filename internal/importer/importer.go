// Package importer parses heterogeneous transaction CSV exports and upserts
// them into the transaction store, deduplicated by external transaction ID.
package importer

import (
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/statements/internal/currency"
	"github.com/ledgerline/statements/internal/domain"
	"github.com/ledgerline/statements/internal/repository"
)

// RowError is a per-row parse failure. Rows that fail to parse are rejected
// for operator review, never silently defaulted: a transaction attributed to
// the wrong month would corrupt every statement downstream of it.
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d, field %s: %s", e.Line, e.Field, e.Message)
}

// Summary reports the outcome of one file import.
type Summary struct {
	BatchID   string     `json:"batch_id"`
	TotalRows int        `json:"total_rows"`
	Imported  int        `json:"imported"`
	Skipped   int        `json:"skipped"`
	Errors    []RowError `json:"errors,omitempty"`
}

// Service imports CSV exports into the transaction store.
type Service struct {
	txns    *repository.TransactionRepo
	imports *repository.ImportRepo
}

func NewService(txns *repository.TransactionRepo, imports *repository.ImportRepo) *Service {
	return &Service{txns: txns, imports: imports}
}

// columnAliases maps canonical field names to known header spellings, in
// priority order. Matching is case-insensitive on the normalized header.
var columnAliases = map[string][]string{
	"id":          {"id", "external_id", "transaction_id", "txn_id", "charge_id", "balance_transaction_id"},
	"amount":      {"amount", "gross", "gross_amount", "amount_paid", "converted_amount"},
	"fee":         {"fee", "fees", "processing_fee", "fee_amount"},
	"currency":    {"currency", "converted_currency", "currency_code"},
	"status":      {"status", "state"},
	"type":        {"type", "transaction_type", "txn_type", "reporting_category"},
	"date":        {"date", "created", "created_at", "occurred_at", "transaction_date", "available_on"},
	"email":       {"email", "customer_email", "cardholder_email"},
	"description": {"description", "memo", "statement_descriptor"},
}

// dateFormats is tried in order against the raw date cell.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02",
}

// Import parses one CSV export for the given account and commits all valid
// rows in a single database transaction. The file's content hash makes the
// whole operation idempotent: re-importing an identical file changes nothing
// and reports every row as skipped.
func (s *Service) Import(data []byte, accountID string) (*Summary, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	prior, err := s.imports.GetByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("check file hash: %w", err)
	}
	if prior != nil {
		log.Printf("[importer] File already imported (batch %s), skipping %d rows",
			prior.BatchID, prior.TotalRows)
		return &Summary{
			BatchID:   prior.BatchID,
			TotalRows: prior.TotalRows,
			Imported:  0,
			Skipped:   prior.TotalRows,
		}, nil
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := detectColumns(header)
	if err != nil {
		return nil, err
	}

	summary := &Summary{BatchID: uuid.NewString()}
	var txns []domain.Transaction
	now := time.Now().UTC()
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.TotalRows++
			summary.Errors = append(summary.Errors, RowError{
				Line: lineNum, Field: "row", Message: err.Error(),
			})
			continue
		}

		summary.TotalRows++
		tx, rowErr := parseRow(row, cols, accountID, lineNum, now)
		if rowErr != nil {
			summary.Errors = append(summary.Errors, *rowErr)
			continue
		}
		txns = append(txns, *tx)
	}

	inserted, refreshed, err := s.txns.BulkUpsert(txns)
	if err != nil {
		return nil, fmt.Errorf("commit rows: %w", err)
	}
	summary.Imported = inserted
	summary.Skipped = refreshed

	if err := s.imports.Insert(&repository.ImportFile{
		FileHash:   hash,
		BatchID:    summary.BatchID,
		AccountID:  accountID,
		TotalRows:  summary.TotalRows,
		Imported:   summary.Imported,
		Skipped:    summary.Skipped,
		ErrorCount: len(summary.Errors),
		ImportedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	log.Printf("[importer] Batch %s: %d rows, %d imported, %d refreshed, %d errors",
		summary.BatchID, summary.TotalRows, summary.Imported, summary.Skipped, len(summary.Errors))

	return summary, nil
}

// detectColumns resolves the header layout against the alias table. The id,
// amount, and date columns are mandatory; without them no row can be stored
// under the dedup and period-attribution contracts.
func detectColumns(header []string) (map[string]int, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	cols := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			idx := indexOf(normalized, alias)
			if idx >= 0 {
				cols[field] = idx
				break
			}
		}
	}

	for _, required := range []string{"id", "amount", "date"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("unrecognized CSV layout: no %s column among %v", required, header)
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int, accountID string, line int, now time.Time) (*domain.Transaction, *RowError) {
	get := func(field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	externalID := get("id")
	if externalID == "" {
		return nil, &RowError{Line: line, Field: "id", Message: "missing transaction id"}
	}

	amount, err := currency.ParseMinor(get("amount"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "amount", Message: err.Error()}
	}

	var fee int64
	if raw := get("fee"); raw != "" {
		fee, err = currency.ParseMinor(raw)
		if err != nil {
			return nil, &RowError{Line: line, Field: "fee", Message: err.Error()}
		}
	}

	occurredAt, err := parseDate(get("date"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "date", Message: err.Error()}
	}

	curr := strings.ToLower(get("currency"))
	if curr == "" {
		curr = "usd"
	}

	status := domain.TransactionStatus(strings.ToLower(get("status")))
	if status == "" {
		status = domain.StatusSucceeded
	}

	txType := normalizeType(get("type"), amount)

	return &domain.Transaction{
		ExternalID:    externalID,
		AccountID:     accountID,
		Amount:        amount,
		Fee:           fee,
		Currency:      curr,
		Status:        status,
		Type:          txType,
		OccurredAt:    occurredAt,
		Description:   get("description"),
		CustomerEmail: strings.ToLower(get("email")),
		ImportedAt:    now,
	}, nil
}

// parseDate tries the known formats in order. An unparseable date is a hard
// error, never defaulted to the current time.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// normalizeType maps the raw type cell onto the known transaction types,
// falling back on the amount sign for untyped exports.
func normalizeType(raw string, amount int64) domain.TransactionType {
	switch domain.TransactionType(strings.ToLower(raw)) {
	case domain.TypeCharge:
		return domain.TypeCharge
	case domain.TypePayment:
		return domain.TypePayment
	case domain.TypeRefund:
		return domain.TypeRefund
	case domain.TypePayout:
		return domain.TypePayout
	case domain.TypeAdjustment:
		return domain.TypeAdjustment
	case domain.TypeFee:
		return domain.TypeFee
	case domain.TypeTransfer:
		return domain.TypeTransfer
	case domain.TypeOther:
		return domain.TypeOther
	}

	if raw == "" {
		if amount < 0 {
			return domain.TypeRefund
		}
		return domain.TypeCharge
	}
	return domain.TypeOther
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff") // BOM on the first column
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
