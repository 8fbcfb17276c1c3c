package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// PeriodService defines the behavior needed by PeriodHandler.
type PeriodService interface {
	OpenPeriod(ctx context.Context, input usecase.OpenPeriodInput) (*domain.FiscalPeriod, error)
	GetPeriod(ctx context.Context, tenantID string, year int, month time.Month) (*domain.FiscalPeriod, error)
	ClosePeriod(ctx context.Context, tenantID string, year int, month time.Month, closedBy string) error
	ReopenPeriod(ctx context.Context, tenantID string, year int, month time.Month, reopenedBy string) error
	LockPeriod(ctx context.Context, tenantID string, year int, month time.Month, lockedBy string) error
}

// PeriodHandler handles fiscal period HTTP requests.
type PeriodHandler struct {
	periodUC PeriodService
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodUC PeriodService) *PeriodHandler {
	return &PeriodHandler{periodUC: periodUC}
}

// Open opens a fiscal period for posting.
func (h *PeriodHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	period, err := h.periodUC.OpenPeriod(r.Context(), usecase.OpenPeriodInput{
		TenantID: middleware.TenantID(r.Context()),
		Year:     req.Year,
		Month:    time.Month(req.Month),
		OpenedBy: req.OpenedBy,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to open period", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PeriodFromDomain(period))
}

// Get retrieves a fiscal period by year and month.
func (h *PeriodHandler) Get(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriodParams(w, r)
	if !ok {
		return
	}

	period, err := h.periodUC.GetPeriod(r.Context(), middleware.TenantID(r.Context()), year, month)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get period", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodFromDomain(period))
}

// Close closes an open fiscal period.
func (h *PeriodHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to close period", h.periodUC.ClosePeriod)
}

// Reopen reopens a closed fiscal period.
func (h *PeriodHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to reopen period", h.periodUC.ReopenPeriod)
}

// Lock locks a closed fiscal period permanently.
func (h *PeriodHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to lock period", h.periodUC.LockPeriod)
}

func (h *PeriodHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	failureMessage string,
	fn func(ctx context.Context, tenantID string, year int, month time.Month, actor string) error,
) {
	year, month, ok := parsePeriodParams(w, r)
	if !ok {
		return
	}

	var req dto.PeriodActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tenantID := middleware.TenantID(r.Context())

	if err := fn(r.Context(), tenantID, year, month, req.Actor); err != nil {
		writeError(w, mapDomainError(err), failureMessage, err.Error())
		return
	}

	period, err := h.periodUC.GetPeriod(r.Context(), tenantID, year, month)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get period", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodFromDomain(period))
}

func parsePeriodParams(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err.Error())
		return 0, 0, false
	}

	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month", "month must be 1-12")
		return 0, 0, false
	}

	return year, time.Month(month), true
}
