package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/statements/internal/domain"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Insert(a *domain.Account) error {
	_, err := r.db.Exec(
		`INSERT INTO accounts (id, name, active, created_at) VALUES (?,?,?,?)`,
		a.ID, a.Name, boolToInt(a.Active), a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByID(id string) (*domain.Account, error) {
	row := r.db.QueryRow(
		"SELECT id, name, active, created_at FROM accounts WHERE id = ?", id,
	)

	var a domain.Account
	var active int
	var createdAt string
	if err := row.Scan(&a.ID, &a.Name, &active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	a.Active = active != 0
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func (r *AccountRepo) List() ([]domain.Account, error) {
	rows, err := r.db.Query("SELECT id, name, active, created_at FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		var active int
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Name, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Active = active != 0
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepo) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM accounts WHERE id = ?", id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
