package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/ledgerline/statements/internal/api"
	"github.com/ledgerline/statements/internal/config"
	"github.com/ledgerline/statements/internal/domain"
	"github.com/ledgerline/statements/internal/importer"
	"github.com/ledgerline/statements/internal/repository"
	"github.com/ledgerline/statements/internal/statement"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	log.Printf("Initializing database at %s", cfg.Database.Path)
	db, err := repository.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	accountRepo := repository.NewAccountRepo(db)
	txnRepo := repository.NewTransactionRepo(db)
	stmtRepo := repository.NewStatementRepo(db)
	importRepo := repository.NewImportRepo(db)

	// Create services.
	calculator := statement.NewService(accountRepo, txnRepo, stmtRepo, statement.Config{
		IncludeOtherInActivity: cfg.Statement.IncludeOtherInActivity,
		DefaultCurrency:        cfg.Statement.DefaultCurrency,
	})
	batch := statement.NewBatchDriver(calculator, txnRepo)
	importSvc := importer.NewService(txnRepo, importRepo)

	// Seed accounts and transactions if DB is empty.
	count, err := txnRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count transactions: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding from testdata...")
		if err := seed(accountRepo, txnRepo); err != nil {
			log.Printf("WARNING: Failed to seed: %v", err)
		}
	} else {
		log.Printf("Database already has %d transactions, skipping seed", count)
	}

	// Create router.
	router := api.NewRouter(accountRepo, txnRepo, stmtRepo, calculator, batch, importSvc)

	log.Printf("Monthly Statement Reconciliation Service")
	log.Printf("Listening on http://localhost:%s", cfg.Server.Port)
	log.Printf("API base: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/imports")
	log.Printf("  GET    /api/v1/accounts")
	log.Printf("  POST   /api/v1/accounts")
	log.Printf("  GET    /api/v1/accounts/{id}/statements")
	log.Printf("  POST   /api/v1/accounts/{id}/statements/regenerate")
	log.Printf("  GET    /api/v1/accounts/{id}/statements/{year}/{month}")
	log.Printf("  POST   /api/v1/accounts/{id}/statements/{year}/{month}")
	log.Printf("  POST   /api/v1/accounts/{id}/statements/{year}/{month}/reconcile")
	log.Printf("  GET    /api/v1/transactions")
	log.Printf("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(":"+cfg.Server.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

type seedFile struct {
	Accounts     []domain.Account     `json:"accounts"`
	Transactions []domain.Transaction `json:"transactions"`
}

func seed(accountRepo *repository.AccountRepo, txnRepo *repository.TransactionRepo) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/transactions.json",
		filepath.Join(".", "testdata", "transactions.json"),
	}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "transactions.json"),
			filepath.Join(dir, "..", "..", "testdata", "transactions.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded seed data from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find transactions.json in any candidate path: %w", loadErr)
	}

	var sf seedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("unmarshal seed data: %w", err)
	}

	for i := range sf.Accounts {
		if err := accountRepo.Insert(&sf.Accounts[i]); err != nil {
			return fmt.Errorf("insert account %s: %w", sf.Accounts[i].ID, err)
		}
	}

	inserted, _, err := txnRepo.BulkUpsert(sf.Transactions)
	if err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}

	log.Printf("Seeded %d accounts and %d transactions", len(sf.Accounts), inserted)
	return nil
}
