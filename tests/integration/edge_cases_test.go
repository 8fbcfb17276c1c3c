package integration

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/tests/testutil"
)

func TestPostIntoClosedPeriod(t *testing.T) {
	s := newTestStack(t)
	tenant := testutil.NewTenantID()
	date := time.Now().UTC()

	s.openPeriod(t, tenant, date)
	s.createAccount(t, tenant, "1000", "ASSET")
	s.createAccount(t, tenant, "4000", "REVENUE")

	entry := s.createBalancedEntry(t, tenant, date, "100")
	for _, action := range []string{"submit", "approve"} {
		w := s.entryAction(t, tenant, entry.ID, action, "workflow")
		require.Equal(t, http.StatusOK, w.Code)
	}

	closePath := fmt.Sprintf("/api/v1/periods/%d/%d/close", date.Year(), int(date.Month()))
	w := s.do(t, http.MethodPost, closePath, tenant, dto.PeriodActionRequest{Actor: "controller"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The gate fires at posting time, and the approved entry stays approved.
	w = s.entryAction(t, tenant, entry.ID, "post", "system")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	wg := s.do(t, http.MethodGet, "/api/v1/journal-entries/"+entry.ID, tenant, nil)
	require.Equal(t, http.StatusOK, wg.Code)
	require.Equal(t, "APPROVED", decode[dto.EntryResponse](t, wg).Status)

	t.Run("reopening lets the entry through", func(t *testing.T) {
		reopenPath := fmt.Sprintf("/api/v1/periods/%d/%d/reopen", date.Year(), int(date.Month()))
		w := s.do(t, http.MethodPost, reopenPath, tenant, dto.PeriodActionRequest{Actor: "controller"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.entryAction(t, tenant, entry.ID, "post", "system")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, "POSTED", decode[dto.EntryResponse](t, w).Status)
	})
}

func TestUnbalancedEntryRejected(t *testing.T) {
	s := newTestStack(t)
	tenant := testutil.NewTenantID()

	s.createAccount(t, tenant, "1000", "ASSET")
	s.createAccount(t, tenant, "4000", "REVENUE")

	w := s.do(t, http.MethodPost, "/api/v1/journal-entries", tenant, map[string]any{
		"date":        time.Now().UTC().Format(time.RFC3339),
		"description": "does not balance",
		"lines": []map[string]any{
			{"account_code": "1000", "debit": "100", "credit": "0"},
			{"account_code": "4000", "debit": "0", "credit": "90"},
		},
		"created_by": "clerk",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestIdempotentAccountInitialization(t *testing.T) {
	s := newTestStack(t)
	tenant := testutil.NewTenantID()

	body := dto.InitializeAccountRequest{
		Code: "1000", Name: "Cash", Type: "ASSET", Currency: "USD", CreatedBy: "setup",
	}
	key := testutil.GenerateID()

	send := func() *httptest.ResponseRecorder {
		return s.doWithHeaders(t, http.MethodPost, "/api/v1/accounts", tenant, body,
			map[string]string{"Idempotency-Key": key})
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	require.Empty(t, first.Header().Get("X-Idempotency-Replay"))

	// Retrying with the same key replays the stored response instead of
	// hitting the conflict path.
	second := send()
	require.Equal(t, "true", second.Header().Get("X-Idempotency-Replay"))
	require.JSONEq(t, first.Body.String(), second.Body.String())

	// A different key reaches the handler and sees the duplicate.
	third := s.doWithHeaders(t, http.MethodPost, "/api/v1/accounts", tenant, body,
		map[string]string{"Idempotency-Key": testutil.GenerateID()})
	require.Equal(t, http.StatusConflict, third.Code)
}

func TestSystemAccountCannotBeDeactivated(t *testing.T) {
	s := newTestStack(t)
	tenant := testutil.NewTenantID()

	w := s.do(t, http.MethodPost, "/api/v1/accounts", tenant, dto.InitializeAccountRequest{
		Code:            "3999",
		Name:            "Retained Earnings",
		Type:            "EQUITY",
		Currency:        "USD",
		IsSystemAccount: true,
		CreatedBy:       "setup",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPatch, "/api/v1/accounts/3999/status", tenant, dto.SetAccountStatusRequest{
		Active: false, UpdatedBy: "admin",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestDraftLineManagement(t *testing.T) {
	s := newTestStack(t)
	tenant := testutil.NewTenantID()
	date := time.Now().UTC()

	s.createAccount(t, tenant, "1000", "ASSET")
	s.createAccount(t, tenant, "4000", "REVENUE")
	s.createAccount(t, tenant, "4100", "REVENUE")

	entry := s.createBalancedEntry(t, tenant, date, "100")

	t.Run("added line unbalances the draft", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/journal-entries/"+entry.ID+"/lines", tenant,
			dto.JournalLineRequest{AccountCode: "4100", Credit: decimal.NewFromInt(40)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := decode[dto.EntryResponse](t, w)
		require.Len(t, got.Lines, 3)
		require.Equal(t, 3, got.Lines[2].LineNumber)

		wv := s.do(t, http.MethodGet, "/api/v1/journal-entries/"+entry.ID+"/validate", tenant, nil)
		require.Equal(t, http.StatusOK, wv.Code)
		result := decode[map[string]any](t, wv)
		require.Equal(t, false, result["valid"])
	})

	t.Run("removing a middle line renumbers the rest", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, "/api/v1/journal-entries/"+entry.ID+"/lines/2", tenant, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := decode[dto.EntryResponse](t, w)
		require.Len(t, got.Lines, 2)
		require.Equal(t, 1, got.Lines[0].LineNumber)
		require.Equal(t, "1000", got.Lines[0].AccountCode)
		require.Equal(t, 2, got.Lines[1].LineNumber)
		require.Equal(t, "4100", got.Lines[1].AccountCode)
	})
}
