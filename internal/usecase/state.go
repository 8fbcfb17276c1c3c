package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iho/erpledger/internal/actor"
)

// loadState returns the cached aggregate state from the handle, loading and
// caching the stored snapshot on first access. It returns (nil, nil) when no
// state has ever been persisted for the key.
func loadState[T any](ctx context.Context, store StateStore, h *actor.Handle) (*T, error) {
	if h.Loaded() {
		if h.State() == nil {
			return nil, nil
		}

		return h.State().(*T), nil
	}

	data, version, err := store.Load(ctx, h.Key())
	if errors.Is(err, ErrStateNotFound) {
		h.SetState(nil, 0)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", h.Key(), err)
	}

	state := new(T)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", h.Key(), err)
	}

	h.SetState(state, version)

	return state, nil
}

// marshalState serializes an aggregate snapshot for the state store.
func marshalState(state any) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	return data, nil
}
