package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/usecase"
)

// StateStore implements usecase.StateStore on a single jsonb snapshot table.
// Version 1 creates the row; every later save replaces the row whose stored
// version is exactly one less, so a stale writer always fails with
// ErrStateConflict instead of silently overwriting.
type StateStore struct {
	pool *pgxpool.Pool
}

// NewStateStore creates a new StateStore.
func NewStateStore(pool *pgxpool.Pool) *StateStore {
	return &StateStore{pool: pool}
}

// Load retrieves the snapshot and its version for the key.
func (s *StateStore) Load(ctx context.Context, key actor.Key) ([]byte, int64, error) {
	query := `
		SELECT data, version
		FROM aggregate_states
		WHERE tenant_id = $1 AND kind = $2 AND aggregate_id = $3
	`

	var (
		data    []byte
		version int64
	)

	err := s.pool.QueryRow(ctx, query, key.TenantID, string(key.Kind), key.ID).Scan(&data, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, usecase.ErrStateNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	return data, version, nil
}

// Save writes the snapshot at newVersion. The write joins tx when one is
// given so snapshot, movements and outbox events commit atomically.
func (s *StateStore) Save(ctx context.Context, tx usecase.Transaction, key actor.Key, data []byte, newVersion int64) error {
	q := querierFor(s.pool, tx)

	var (
		tag pgconn.CommandTag
		err error
	)

	if newVersion == 1 {
		query := `
			INSERT INTO aggregate_states (tenant_id, kind, aggregate_id, data, version, updated_at)
			VALUES ($1, $2, $3, $4, 1, now())
			ON CONFLICT (tenant_id, kind, aggregate_id) DO NOTHING
		`
		tag, err = q.Exec(ctx, query, key.TenantID, string(key.Kind), key.ID, data)
	} else {
		query := `
			UPDATE aggregate_states
			SET data = $4, version = $5, updated_at = now()
			WHERE tenant_id = $1 AND kind = $2 AND aggregate_id = $3 AND version = $5 - 1
		`
		tag, err = q.Exec(ctx, query, key.TenantID, string(key.Kind), key.ID, data, newVersion)
	}

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return usecase.ErrStateConflict
	}

	return nil
}
