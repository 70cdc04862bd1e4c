package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportFile records one ingested export, keyed by content hash so the same
// file is never imported twice.
type ImportFile struct {
	FileHash   string    `json:"file_hash"`
	BatchID    string    `json:"batch_id"`
	AccountID  string    `json:"account_id"`
	TotalRows  int       `json:"total_rows"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
	ErrorCount int       `json:"error_count"`
	ImportedAt time.Time `json:"imported_at"`
}

type ImportRepo struct {
	db *sql.DB
}

func NewImportRepo(db *sql.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

// GetByHash returns the prior import with the given content hash, or nil when
// the file has not been seen before.
func (r *ImportRepo) GetByHash(hash string) (*ImportFile, error) {
	row := r.db.QueryRow(
		`SELECT file_hash, batch_id, account_id, total_rows, imported, skipped,
		        error_count, imported_at
		 FROM import_files WHERE file_hash = ?`, hash,
	)

	var f ImportFile
	var importedAt string
	err := row.Scan(&f.FileHash, &f.BatchID, &f.AccountID, &f.TotalRows,
		&f.Imported, &f.Skipped, &f.ErrorCount, &importedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan import file: %w", err)
	}

	f.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
	return &f, nil
}

func (r *ImportRepo) Insert(f *ImportFile) error {
	_, err := r.db.Exec(
		`INSERT INTO import_files
		(file_hash, batch_id, account_id, total_rows, imported, skipped,
		 error_count, imported_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		f.FileHash, f.BatchID, f.AccountID, f.TotalRows, f.Imported,
		f.Skipped, f.ErrorCount, f.ImportedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert import file: %w", err)
	}
	return nil
}
