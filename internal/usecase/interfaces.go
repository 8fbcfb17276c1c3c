package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
)

// State store errors.
var (
	ErrStateNotFound = errors.New("aggregate state not found")
	ErrStateConflict = errors.New("aggregate state version conflict")
)

// StateStore persists one serializable record per aggregate instance.
// Save with newVersion == 1 creates the record and fails with
// ErrStateConflict if it already exists; otherwise it replaces the record
// whose stored version is newVersion-1. The durable write completes before
// the owning operation acknowledges success.
type StateStore interface {
	Load(ctx context.Context, key actor.Key) (data []byte, version int64, err error)
	Save(ctx context.Context, tx Transaction, key actor.Key, data []byte, newVersion int64) error
}

// MovementRepository defines data access for account movements.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.Movement) error
	GetByTransactionID(ctx context.Context, tenantID, accountCode, transactionID string) (*domain.Movement, error)
	ListByAccount(ctx context.Context, tenantID, accountCode string, from, to time.Time) ([]*domain.Movement, error)
	BalanceAsOf(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error)
	BalanceBefore(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error)
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	TotalsByTenant(ctx context.Context, tenantID string) (totalDebits, totalCredits decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// DocumentNumberService issues tenant-scoped document numbers. Within one
// tenant no two callers ever receive the same number.
type DocumentNumberService interface {
	GenerateJournalEntryNumber(ctx context.Context, tenantID string, date time.Time) (string, error)
	GenerateAccountCode(ctx context.Context, tenantID string, accountType domain.AccountType) (string, error)
}

// AccountPoster is the account-side posting capability the journal entry
// fan-out calls into.
type AccountPoster interface {
	PostTransaction(ctx context.Context, input PostTransactionInput) (*domain.Movement, error)
}

// PeriodGate answers whether postings dated at a given time are accepted.
type PeriodGate interface {
	CanPostTransactions(ctx context.Context, tenantID string, date time.Time) error
}

// Retrier retries an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
