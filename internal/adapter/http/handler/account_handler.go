package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	InitializeAccount(ctx context.Context, input usecase.InitializeAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, tenantID, code string) (*domain.Account, error)
	GetBalance(ctx context.Context, tenantID, code string, asOf *time.Time) (decimal.Decimal, error)
	GetMovements(ctx context.Context, input usecase.GetMovementsInput) (*domain.MovementStatement, error)
	PostTransaction(ctx context.Context, input usecase.PostTransactionInput) (*domain.Movement, error)
	SetActiveStatus(ctx context.Context, tenantID, code string, active bool, updatedBy string) error
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Initialize creates a new account.
func (h *AccountHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req dto.InitializeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tenantID := middleware.TenantID(r.Context())

	account, err := h.accountUC.InitializeAccount(r.Context(), req.ToUseCaseInput(tenantID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to initialize account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by code.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), middleware.TenantID(r.Context()), code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetBalance retrieves the current or historical balance of an account.
// The optional as_of query parameter is an RFC 3339 timestamp.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var asOf *time.Time
	if val := r.URL.Query().Get("as_of"); val != "" {
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of parameter", err.Error())
			return
		}
		asOf = &t
	}

	balance, err := h.accountUC.GetBalance(r.Context(), middleware.TenantID(r.Context()), code, asOf)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		AccountCode: code,
		Balance:     balance,
		AsOf:        asOf,
	})
}

// GetMovements retrieves a movement statement for an account. The from and
// to query parameters bound the range; they default to the last 30 days.
func (h *AccountHandler) GetMovements(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	now := time.Now().UTC()
	from := parseTimeQuery(r, "from", now.AddDate(0, 0, -30))
	to := parseTimeQuery(r, "to", now)

	statement, err := h.accountUC.GetMovements(r.Context(), usecase.GetMovementsInput{
		TenantID:    middleware.TenantID(r.Context()),
		AccountCode: code,
		From:        from,
		To:          to,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get movements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromDomain(statement))
}

// PostTransaction applies a single debit or credit to an account.
func (h *AccountHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req dto.PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tenantID := middleware.TenantID(r.Context())

	movement, err := h.accountUC.PostTransaction(r.Context(), req.ToUseCaseInput(tenantID, code))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to post transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// SetStatus activates or deactivates an account.
func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req dto.SetAccountStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tenantID := middleware.TenantID(r.Context())

	if err := h.accountUC.SetActiveStatus(r.Context(), tenantID, code, req.Active, req.UpdatedBy); err != nil {
		writeError(w, mapDomainError(err), "failed to update account status", err.Error())
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), tenantID, code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
