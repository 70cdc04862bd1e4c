package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerline/statements/internal/domain"
	"github.com/ledgerline/statements/internal/importer"
	"github.com/ledgerline/statements/internal/period"
	"github.com/ledgerline/statements/internal/repository"
	"github.com/ledgerline/statements/internal/statement"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	accountRepo *repository.AccountRepo
	txnRepo     *repository.TransactionRepo
	stmtRepo    *repository.StatementRepo
	calculator  *statement.Service
	batch       *statement.BatchDriver
	importSvc   *importer.Service
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func urlPeriod(r *http.Request) (string, int, int, error) {
	accountID := chi.URLParam(r, "id")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return "", 0, 0, domain.ErrInvalidPeriod
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return "", 0, 0, domain.ErrInvalidPeriod
	}
	return accountID, year, month, nil
}

// --- ImportTransactions ---

func (h *Handlers) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	accountID := r.FormValue("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if _, err := h.accountRepo.GetByID(accountID); err != nil {
		writeServiceError(w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	summary, err := h.importSvc.Import(data, accountID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// --- Accounts ---

func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ID == "" {
		req.ID = "acct_" + uuid.NewString()
	}

	account := &domain.Account{
		ID:        req.ID,
		Name:      req.Name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.accountRepo.Insert(account); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// --- Statements ---

func (h *Handlers) ListStatements(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if _, err := h.accountRepo.GetByID(accountID); err != nil {
		writeServiceError(w, err)
		return
	}

	stmts, err := h.stmtRepo.ListByAccount(accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": accountID,
		"statements": stmts,
		"total":      len(stmts),
	})
}

func (h *Handlers) GetStatement(w http.ResponseWriter, r *http.Request) {
	accountID, year, month, err := urlPeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	stmt, err := h.calculator.GetOrGenerate(accountID, year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stmt)
}

func (h *Handlers) ComputeStatement(w http.ResponseWriter, r *http.Request) {
	accountID, year, month, err := urlPeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var override *int64
	if r.ContentLength > 0 {
		var req struct {
			OpeningBalanceOverride *int64 `json:"opening_balance_override"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		override = req.OpeningBalanceOverride
	}

	stmt, err := h.calculator.Compute(accountID, year, month, override)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stmt)
}

func (h *Handlers) ReconcileStatement(w http.ResponseWriter, r *http.Request) {
	accountID, year, month, err := urlPeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req struct {
		ReportedClosingBalance int64  `json:"reported_closing_balance"`
		Notes                  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	stmt, err := h.calculator.Reconcile(accountID, year, month, req.ReportedClosingBalance, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stmt)
}

func (h *Handlers) RegenerateStatements(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req struct {
		StartYear      int   `json:"start_year"`
		StartMonth     int   `json:"start_month"`
		EndYear        int   `json:"end_year"`
		EndMonth       int   `json:"end_month"`
		InitialBalance int64 `json:"initial_balance"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}

	from := period.Period{Year: req.StartYear, Month: req.StartMonth}
	to := period.Period{Year: req.EndYear, Month: req.EndMonth}

	generated, err := h.batch.RegenerateRange(accountID, from, to, req.InitialBalance)
	if err != nil {
		var chainErr *statement.ChainError
		if errors.As(err, &chainErr) {
			// Earlier months were written and stay valid; report where the
			// chain stopped alongside them.
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"statements":    generated,
				"generated":     len(generated),
				"error":         chainErr.Error(),
				"failed_period": chainErr.Period.String(),
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"statements": generated,
		"generated":  len(generated),
	})
}

// --- ListTransactions ---

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TransactionFilter{
		AccountID: q.Get("account_id"),
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		Currency:  q.Get("currency"),
		From:      parseTime(q.Get("from")),
		To:        parseTime(q.Get("to")),
		Page:      parseIntDefault(q.Get("page"), 1),
		Limit:     parseIntDefault(q.Get("limit"), 50),
	}

	txns, total, err := h.txnRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txns,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	txnCount, err := h.txnRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stmtCount, err := h.stmtRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type accountEntry struct {
		AccountID      string `json:"account_id"`
		Name           string `json:"name"`
		Statements     int    `json:"statements"`
		LatestPeriod   string `json:"latest_period,omitempty"`
		LatestClosing  int64  `json:"latest_closing_balance"`
		LatestCurrency string `json:"latest_currency,omitempty"`
	}

	var byAccount []accountEntry
	for _, a := range accounts {
		entry := accountEntry{AccountID: a.ID, Name: a.Name}
		stmts, err := h.stmtRepo.ListByAccount(a.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		entry.Statements = len(stmts)
		if len(stmts) > 0 {
			last := stmts[len(stmts)-1]
			entry.LatestPeriod = period.Period{Year: last.Year, Month: last.Month}.String()
			entry.LatestClosing = last.ClosingBalance
			entry.LatestCurrency = last.Currency
		}
		byAccount = append(byAccount, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts":     len(accounts),
		"transactions": txnCount,
		"statements":   stmtCount,
		"by_account":   byAccount,
	})
}
