// Package mocks provides in-memory test doubles for the usecase interfaces.
// Every method can be overridden per test via its Func field; the defaults
// behave like a small, correct in-memory backend.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

type storedState struct {
	data    []byte
	version int64
}

// MockStateStore is an in-memory implementation of StateStore with the same
// optimistic versioning contract as the durable store.
type MockStateStore struct {
	mu     sync.Mutex
	states map[string]storedState

	LoadFunc func(ctx context.Context, key actor.Key) ([]byte, int64, error)
	SaveFunc func(ctx context.Context, tx usecase.Transaction, key actor.Key, data []byte, newVersion int64) error
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{states: make(map[string]storedState)}
}

func (m *MockStateStore) Load(ctx context.Context, key actor.Key) ([]byte, int64, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[key.String()]
	if !ok {
		return nil, 0, usecase.ErrStateNotFound
	}
	return s.data, s.version, nil
}

func (m *MockStateStore) Save(ctx context.Context, tx usecase.Transaction, key actor.Key, data []byte, newVersion int64) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, key, data, newVersion)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.states[key.String()]
	if newVersion == 1 {
		if ok {
			return usecase.ErrStateConflict
		}
	} else if !ok || current.version != newVersion-1 {
		return usecase.ErrStateConflict
	}
	m.states[key.String()] = storedState{data: data, version: newVersion}
	return nil
}

// Count returns the number of stored aggregates.
func (m *MockStateStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

// MockTransaction is a no-op transaction recording its lifecycle.
type MockTransaction struct {
	mu         sync.Mutex
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockMovementRepository is an in-memory movement log.
type MockMovementRepository struct {
	mu        sync.Mutex
	movements []*domain.Movement

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error
	GetByTransactionIDFunc func(ctx context.Context, tenantID, accountCode, transactionID string) (*domain.Movement, error)
	ListByAccountFunc      func(ctx context.Context, tenantID, accountCode string, from, to time.Time) ([]*domain.Movement, error)
	BalanceAsOfFunc        func(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error)
	BalanceBeforeFunc      func(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error)
}

func NewMockMovementRepository() *MockMovementRepository {
	return &MockMovementRepository{}
}

func (m *MockMovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, movement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mv := *movement
	m.movements = append(m.movements, &mv)
	return nil
}

func (m *MockMovementRepository) GetByTransactionID(ctx context.Context, tenantID, accountCode, transactionID string) (*domain.Movement, error) {
	if m.GetByTransactionIDFunc != nil {
		return m.GetByTransactionIDFunc(ctx, tenantID, accountCode, transactionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.AccountCode == accountCode && mv.TransactionID == transactionID {
			found := *mv
			return &found, nil
		}
	}
	return nil, fmt.Errorf("movement %s: not found", transactionID)
}

func (m *MockMovementRepository) ListByAccount(ctx context.Context, tenantID, accountCode string, from, to time.Time) ([]*domain.Movement, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, tenantID, accountCode, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Movement
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.AccountCode == accountCode &&
			!mv.Date.Before(from) && !mv.Date.After(to) {
			found := *mv
			out = append(out, &found)
		}
	}
	return out, nil
}

func (m *MockMovementRepository) BalanceAsOf(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error) {
	if m.BalanceAsOfFunc != nil {
		return m.BalanceAsOfFunc(ctx, tenantID, accountCode, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.AccountCode == accountCode && !mv.Date.After(at) {
			total = total.Add(mv.SignedAmount)
		}
	}
	return total, nil
}

func (m *MockMovementRepository) BalanceBefore(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error) {
	if m.BalanceBeforeFunc != nil {
		return m.BalanceBeforeFunc(ctx, tenantID, accountCode, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.AccountCode == accountCode && mv.Date.Before(at) {
			total = total.Add(mv.SignedAmount)
		}
	}
	return total, nil
}

// All returns a copy of every recorded movement.
func (m *MockMovementRepository) All() []*domain.Movement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Movement, len(m.movements))
	copy(out, m.movements)
	return out
}

// MockLedgerRepository sums debit and credit movements per tenant.
type MockLedgerRepository struct {
	Movements *MockMovementRepository

	TotalsByTenantFunc func(ctx context.Context, tenantID string) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockLedgerRepository(movements *MockMovementRepository) *MockLedgerRepository {
	return &MockLedgerRepository{Movements: movements}
}

func (m *MockLedgerRepository) TotalsByTenant(ctx context.Context, tenantID string) (decimal.Decimal, decimal.Decimal, error) {
	if m.TotalsByTenantFunc != nil {
		return m.TotalsByTenantFunc(ctx, tenantID)
	}
	debits, credits := decimal.Zero, decimal.Zero
	for _, mv := range m.Movements.All() {
		if mv.TenantID != tenantID {
			continue
		}
		switch mv.Direction {
		case domain.DirectionDebit:
			debits = debits.Add(mv.Amount)
		case domain.DirectionCredit:
			credits = credits.Add(mv.Amount)
		}
	}
	return debits, credits, nil
}

// MockOutboxRepository is an in-memory outbox.
type MockOutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := *event
	m.events = append(m.events, &ev)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, ev := range m.events {
		if ev.PublishedAt == nil {
			found := *ev
			out = append(out, &found)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id {
			t := publishedAt
			ev.PublishedAt = &t
			return nil
		}
	}
	return fmt.Errorf("outbox event %s: not found", id)
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, ev := range m.events {
		if ev.PublishedAt == nil || ev.PublishedAt.After(before) {
			kept = append(kept, ev)
		}
	}
	m.events = kept
	return nil
}

// Events returns a copy of every recorded event.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockAuditRepository is an in-memory audit log.
type MockAuditRepository struct {
	mu   sync.Mutex
	logs []*domain.AuditLog

	CreateFunc func(ctx context.Context, log *domain.AuditLog) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l := *log
	m.logs = append(m.logs, &l)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if filter.TenantID != "" && l.TenantID != filter.TenantID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		found := *l
		out = append(out, &found)
	}
	return out, nil
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			found := *l
			out = append(out, &found)
		}
	}
	return out, nil
}

// Logs returns a copy of every recorded audit log.
func (m *MockAuditRepository) Logs() []*domain.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.AuditLog, len(m.logs))
	copy(out, m.logs)
	return out
}

// MockIDGenerator issues sequential ids, unique within one instance.
type MockIDGenerator struct {
	mu  sync.Mutex
	seq int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("id-%06d", m.seq)
}

// MockDocumentNumberService issues sequential document numbers.
type MockDocumentNumberService struct {
	mu       sync.Mutex
	entrySeq int64
	codeSeq  int64

	GenerateJournalEntryNumberFunc func(ctx context.Context, tenantID string, date time.Time) (string, error)
	GenerateAccountCodeFunc        func(ctx context.Context, tenantID string, accountType domain.AccountType) (string, error)
}

func NewMockDocumentNumberService() *MockDocumentNumberService {
	return &MockDocumentNumberService{}
}

func (m *MockDocumentNumberService) GenerateJournalEntryNumber(ctx context.Context, tenantID string, date time.Time) (string, error) {
	if m.GenerateJournalEntryNumberFunc != nil {
		return m.GenerateJournalEntryNumberFunc(ctx, tenantID, date)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entrySeq++
	return fmt.Sprintf("JE-%s-%06d", date.UTC().Format("200601"), m.entrySeq), nil
}

func (m *MockDocumentNumberService) GenerateAccountCode(ctx context.Context, tenantID string, accountType domain.AccountType) (string, error) {
	if m.GenerateAccountCodeFunc != nil {
		return m.GenerateAccountCodeFunc(ctx, tenantID, accountType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codeSeq++
	return fmt.Sprintf("1%04d", m.codeSeq), nil
}

// MockAccountPoster records posting calls and succeeds by default.
type MockAccountPoster struct {
	mu    sync.Mutex
	calls []usecase.PostTransactionInput

	PostTransactionFunc func(ctx context.Context, input usecase.PostTransactionInput) (*domain.Movement, error)
}

func NewMockAccountPoster() *MockAccountPoster {
	return &MockAccountPoster{}
}

func (m *MockAccountPoster) PostTransaction(ctx context.Context, input usecase.PostTransactionInput) (*domain.Movement, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()

	if m.PostTransactionFunc != nil {
		return m.PostTransactionFunc(ctx, input)
	}
	return &domain.Movement{
		TenantID:      input.TenantID,
		AccountCode:   input.AccountCode,
		TransactionID: input.TransactionID,
		Direction:     input.Direction,
		Amount:        input.Amount,
		Date:          input.Date,
		Reference:     input.Reference,
		PostedBy:      input.PostedBy,
	}, nil
}

// Calls returns a copy of every recorded posting input.
func (m *MockAccountPoster) Calls() []usecase.PostTransactionInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]usecase.PostTransactionInput, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockPeriodGate allows every posting by default.
type MockPeriodGate struct {
	CanPostTransactionsFunc func(ctx context.Context, tenantID string, date time.Time) error
}

func NewMockPeriodGate() *MockPeriodGate {
	return &MockPeriodGate{}
}

func (m *MockPeriodGate) CanPostTransactions(ctx context.Context, tenantID string, date time.Time) error {
	if m.CanPostTransactionsFunc != nil {
		return m.CanPostTransactionsFunc(ctx, tenantID, date)
	}
	return nil
}

// MockRetrier invokes the operation exactly once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockCache is an in-memory cache ignoring TTLs.
type MockCache struct {
	mu      sync.Mutex
	entries map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("cache key %s: not found", key)
	}
	return v, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// MockIdempotencyStore is an in-memory idempotency key store.
type MockIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{entries: make(map[string][]byte)}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[key]; ok {
		return true, existing, nil
	}
	m.entries[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = response
	return nil
}
