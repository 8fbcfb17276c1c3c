package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/erpledger/internal/actor"
	adaptershttp "github.com/iho/erpledger/internal/adapter/http"
	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/adapter/http/handler"
	"github.com/iho/erpledger/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/erpledger/internal/adapter/repository/redis"
	infraredis "github.com/iho/erpledger/internal/infrastructure/redis"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/tests/testutil"
)

// testStack wires the full service the way cmd/server does, minus metrics
// and rate limiting, on top of real Postgres and Redis.
type testStack struct {
	router   http.Handler
	db       *testutil.TestDB
	accounts *usecase.AccountUseCase
	journal  *usecase.JournalUseCase
	periods  *usecase.PeriodUseCase
	ledger   *usecase.LedgerUseCase
	outbox   *postgres.OutboxRepository
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	require.NoError(t, err, "connect to redis")
	t.Cleanup(func() { _ = redisClient.Close() })

	pool := db.Pool
	txManager := postgres.NewTxManager(pool)
	stateStore := postgres.NewStateStore(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	idGen := postgres.NewULIDGenerator()

	system := actor.NewSystem()

	numberingUC := usecase.NewNumberingUseCase(system, stateStore, nil)
	periodUC := usecase.NewPeriodUseCase(system, stateStore, txManager, outboxRepo, auditRepo, idGen, nil)
	accountUC := usecase.NewAccountUseCase(
		system, stateStore, txManager, movementRepo, outboxRepo, auditRepo, idGen, numberingUC, nil,
	).WithCache(redisrepo.NewCache(redisClient))
	journalUC := usecase.NewJournalUseCase(
		system, stateStore, txManager, outboxRepo, auditRepo, idGen, numberingUC, accountUC, periodUC, nil,
	).WithPostingTimeout(10 * time.Second)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo, movementRepo, accountUC)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC),
		EntryHandler:     handler.NewEntryHandler(journalUC),
		PeriodHandler:    handler.NewPeriodHandler(periodUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: redisrepo.NewIdempotencyStore(redisClient),
		Logger:           zerolog.Nop(),
	})

	return &testStack{
		router:   router,
		db:       db,
		accounts: accountUC,
		journal:  journalUC,
		periods:  periodUC,
		ledger:   ledgerUC,
		outbox:   outboxRepo,
	}
}

// do performs one request against the in-process router.
func (s *testStack) do(t *testing.T, method, path, tenant string, body any) *httptest.ResponseRecorder {
	t.Helper()

	return s.doWithHeaders(t, method, path, tenant, body, nil)
}

func (s *testStack) doWithHeaders(t *testing.T, method, path, tenant string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Tenant-ID", tenant)
	for name, value := range headers {
		r.Header.Set(name, value)
	}
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, r)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "decode response: %s", w.Body.String())

	return out
}

// openPeriod opens the fiscal period containing date for the tenant.
func (s *testStack) openPeriod(t *testing.T, tenant string, date time.Time) {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/v1/periods", tenant, dto.OpenPeriodRequest{
		Year:     date.Year(),
		Month:    int(date.Month()),
		OpenedBy: "controller",
	})
	require.Equal(t, http.StatusCreated, w.Code, "open period: %s", w.Body.String())
}

// createAccount initializes an account over HTTP and returns its response.
func (s *testStack) createAccount(t *testing.T, tenant, code, accountType string) dto.AccountResponse {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/v1/accounts", tenant, dto.InitializeAccountRequest{
		Code:      code,
		Name:      "Account " + code,
		Type:      accountType,
		Currency:  "USD",
		CreatedBy: "setup",
	})
	require.Equal(t, http.StatusCreated, w.Code, "create account %s: %s", code, w.Body.String())

	return decode[dto.AccountResponse](t, w)
}

// createBalancedEntry creates a draft entry debiting 1000 and crediting 4000.
func (s *testStack) createBalancedEntry(t *testing.T, tenant string, date time.Time, amount string) dto.EntryResponse {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/v1/journal-entries", tenant, map[string]any{
		"date":        date.Format(time.RFC3339),
		"description": "integration entry",
		"lines": []map[string]any{
			{"account_code": "1000", "debit": amount, "credit": "0"},
			{"account_code": "4000", "debit": "0", "credit": amount},
		},
		"created_by": "clerk",
	})
	require.Equal(t, http.StatusCreated, w.Code, "create entry: %s", w.Body.String())

	return decode[dto.EntryResponse](t, w)
}

// entryAction drives one workflow transition over HTTP.
func (s *testStack) entryAction(t *testing.T, tenant, entryID, action, actorName string) *httptest.ResponseRecorder {
	t.Helper()

	return s.do(t, http.MethodPost, "/api/v1/journal-entries/"+entryID+"/"+action, tenant,
		dto.EntryActionRequest{Actor: actorName})
}

// postedEntry runs an entry through create, submit, approve and post.
func (s *testStack) postedEntry(t *testing.T, tenant string, date time.Time, amount string) dto.EntryResponse {
	t.Helper()

	entry := s.createBalancedEntry(t, tenant, date, amount)

	for _, action := range []string{"submit", "approve", "post"} {
		w := s.entryAction(t, tenant, entry.ID, action, "workflow")
		require.Equal(t, http.StatusOK, w.Code, "%s entry: %s", action, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/api/v1/journal-entries/"+entry.ID, tenant, nil)
	require.Equal(t, http.StatusOK, w.Code)

	return decode[dto.EntryResponse](t, w)
}
