package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	CheckConsistency(ctx context.Context, tenantID string) (bool, error)
	ReconcileAccount(ctx context.Context, tenantID, code string) (*usecase.ReconciliationResult, error)
	GenerateReport(ctx context.Context, tenantID string, accountCodes []string) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide check HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CheckConsistency verifies that the tenant's debits equal its credits.
// An inconsistent ledger is reported with 200 and consistent=false; it is
// a finding, not a request failure.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	consistent, err := h.ledgerUC.CheckConsistency(r.Context(), tenantID)
	if err != nil && !errors.Is(err, usecase.ErrInconsistentLedger) {
		writeError(w, mapDomainError(err), "failed to check consistency", err.Error())
		return
	}

	resp := dto.ConsistencyResponse{
		TenantID:   tenantID,
		Consistent: consistent,
	}
	if err != nil {
		resp.Detail = err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

// ReconcileAccount recomputes one account's balance from movements and
// compares it with the recorded balance.
func (h *LedgerHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	result, err := h.ledgerUC.ReconcileAccount(r.Context(), middleware.TenantID(r.Context()), code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, reconciliationFromResult(result))
}

// Report reconciles the accounts named in the comma-separated codes query
// parameter and runs the tenant-wide consistency check.
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	codesParam := r.URL.Query().Get("codes")
	if codesParam == "" {
		writeError(w, http.StatusBadRequest, "missing codes parameter", "provide a comma-separated list of account codes")
		return
	}

	codes := strings.Split(codesParam, ",")

	report, err := h.ledgerUC.GenerateReport(r.Context(), middleware.TenantID(r.Context()), codes)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to generate report", err.Error())
		return
	}

	discrepancies := make([]*dto.ReconciliationResponse, len(report.Discrepancies))
	for i, d := range report.Discrepancies {
		discrepancies[i] = reconciliationFromResult(d)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant_id":           report.TenantID,
		"total_accounts":      report.TotalAccounts,
		"reconciled_accounts": report.ReconciledAccounts,
		"discrepancies":       discrepancies,
		"ledger_consistent":   report.LedgerConsistent,
		"checked_at":          report.CheckedAt,
	})
}

func reconciliationFromResult(r *usecase.ReconciliationResult) *dto.ReconciliationResponse {
	return &dto.ReconciliationResponse{
		AccountCode:       r.AccountCode,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		CheckedAt:         r.CheckedAt,
	}
}
