package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/statements/internal/importer"
	"github.com/ledgerline/statements/internal/repository"
	"github.com/ledgerline/statements/internal/statement"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	accountRepo *repository.AccountRepo,
	txnRepo *repository.TransactionRepo,
	stmtRepo *repository.StatementRepo,
	calculator *statement.Service,
	batch *statement.BatchDriver,
	importSvc *importer.Service,
) http.Handler {
	h := &Handlers{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		stmtRepo:    stmtRepo,
		calculator:  calculator,
		batch:       batch,
		importSvc:   importSvc,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Import.
		r.Post("/imports", h.ImportTransactions)

		// Accounts.
		r.Get("/accounts", h.ListAccounts)
		r.Post("/accounts", h.CreateAccount)

		// Statements.
		r.Get("/accounts/{id}/statements", h.ListStatements)
		r.Post("/accounts/{id}/statements/regenerate", h.RegenerateStatements)
		r.Get("/accounts/{id}/statements/{year}/{month}", h.GetStatement)
		r.Post("/accounts/{id}/statements/{year}/{month}", h.ComputeStatement)
		r.Post("/accounts/{id}/statements/{year}/{month}/reconcile", h.ReconcileStatement)

		// Transactions.
		r.Get("/transactions", h.ListTransactions)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
