package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.JournalEntry, error)
	GetEntry(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)
	AddLine(ctx context.Context, tenantID, entryID string, line usecase.LineInput, updatedBy string) (*domain.JournalEntry, error)
	RemoveLine(ctx context.Context, tenantID, entryID string, lineNumber int, updatedBy string) (*domain.JournalEntry, error)
	ValidateEntry(ctx context.Context, tenantID, entryID string) error
	Submit(ctx context.Context, tenantID, entryID, submittedBy string) (*domain.JournalEntry, error)
	Approve(ctx context.Context, tenantID, entryID, approvedBy string) (*domain.JournalEntry, error)
	Reject(ctx context.Context, tenantID, entryID, rejectedBy, reason string) (*domain.JournalEntry, error)
	Cancel(ctx context.Context, tenantID, entryID, cancelledBy, reason string) (*domain.JournalEntry, error)
	Post(ctx context.Context, tenantID, entryID, postedBy string) (*domain.JournalEntry, error)
	Reverse(ctx context.Context, input usecase.ReverseEntryInput) (*domain.JournalEntry, error)
}

// EntryHandler handles journal entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// Create creates a new journal entry in Draft status.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tenantID := middleware.TenantID(r.Context())

	entry, err := h.entryUC.CreateEntry(r.Context(), req.ToUseCaseInput(tenantID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves a journal entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	entry, err := h.entryUC.GetEntry(r.Context(), middleware.TenantID(r.Context()), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// AddLine appends a line to a draft entry.
func (h *EntryHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		dto.JournalLineRequest

		UpdatedBy string `json:"updated_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.entryUC.AddLine(r.Context(), middleware.TenantID(r.Context()), id, usecase.LineInput{
		AccountCode: req.AccountCode,
		Description: req.Description,
		Debit:       req.Debit,
		Credit:      req.Credit,
		CostCenter:  req.CostCenter,
		Dimensions:  req.Dimensions,
	}, req.UpdatedBy)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add line", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// RemoveLine removes a line from a draft entry by line number.
func (h *EntryHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lineNumber, err := strconv.Atoi(chi.URLParam(r, "lineNumber"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line number", err.Error())
		return
	}

	updatedBy := r.URL.Query().Get("updated_by")

	entry, err := h.entryUC.RemoveLine(r.Context(), middleware.TenantID(r.Context()), id, lineNumber, updatedBy)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to remove line", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Validate checks whether the entry balances without changing its status.
func (h *EntryHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.entryUC.ValidateEntry(r.Context(), middleware.TenantID(r.Context()), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
	case errors.Is(err, domain.ErrEntryNotBalanced),
		errors.Is(err, domain.ErrEntryEmpty),
		errors.Is(err, domain.ErrLineAmountConflict):
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "reason": err.Error()})
	default:
		writeError(w, mapDomainError(err), "failed to validate journal entry", err.Error())
	}
}

// Submit moves a draft entry to pending approval.
func (h *EntryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, tenantID, id string, req dto.EntryActionRequest) (*domain.JournalEntry, error) {
		return h.entryUC.Submit(ctx, tenantID, id, req.Actor)
	})
}

// Approve moves a pending entry to approved.
func (h *EntryHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, tenantID, id string, req dto.EntryActionRequest) (*domain.JournalEntry, error) {
		return h.entryUC.Approve(ctx, tenantID, id, req.Actor)
	})
}

// Reject returns a pending entry to draft.
func (h *EntryHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, tenantID, id string, req dto.EntryActionRequest) (*domain.JournalEntry, error) {
		return h.entryUC.Reject(ctx, tenantID, id, req.Actor, req.Reason)
	})
}

// Cancel cancels a draft or pending entry.
func (h *EntryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, tenantID, id string, req dto.EntryActionRequest) (*domain.JournalEntry, error) {
		return h.entryUC.Cancel(ctx, tenantID, id, req.Actor, req.Reason)
	})
}

// Post posts an approved entry to the ledger.
func (h *EntryHandler) Post(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, tenantID, id string, req dto.EntryActionRequest) (*domain.JournalEntry, error) {
		return h.entryUC.Post(ctx, tenantID, id, req.Actor)
	})
}

// Reverse creates and posts a mirror entry for a posted entry, returning
// the mirror.
func (h *EntryHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.EntryActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.entryUC.Reverse(r.Context(), usecase.ReverseEntryInput{
		TenantID:   middleware.TenantID(r.Context()),
		EntryID:    id,
		ReversedBy: req.Actor,
		Reason:     req.Reason,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

func (h *EntryHandler) action(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, tenantID, id string, req dto.EntryActionRequest) (*domain.JournalEntry, error),
) {
	id := chi.URLParam(r, "id")

	var req dto.EntryActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := fn(r.Context(), middleware.TenantID(r.Context()), id, req)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to transition journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
