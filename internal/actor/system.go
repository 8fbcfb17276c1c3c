// Package actor provides the single-writer-per-aggregate execution model:
// a registry of durable aggregate keys, each guarded by its own exclusive
// lock. Operations on one key run strictly sequentially; operations on
// different keys run in parallel. There is no shared mutable state between
// aggregates; all cross-aggregate effects go through method calls on other
// keys.
package actor

import (
	"context"
	"sync"
)

// Kind identifies an aggregate type within the registry.
type Kind string

const (
	KindAccount      Kind = "account"
	KindJournalEntry Kind = "journal_entry"
	KindManager      Kind = "accounting_manager"
	KindPeriod       Kind = "fiscal_period"
)

// Key addresses one aggregate instance. Every key embeds the tenant id, so
// no cross-tenant access path exists.
type Key struct {
	TenantID string
	Kind     Kind
	ID       string
}

// String returns the canonical storage key, tenant/kind/id.
func (k Key) String() string {
	return k.TenantID + "/" + string(k.Kind) + "/" + k.ID
}

// Handle is the exclusive-access view of one aggregate while its lock is
// held. It caches the loaded state and its persisted version; under the
// single-writer guarantee the cache is authoritative once loaded.
type Handle struct {
	key     Key
	state   any
	version int64
	loaded  bool
}

// Key returns the aggregate key this handle guards.
func (h *Handle) Key() Key { return h.key }

// Loaded reports whether state has been cached on this handle.
func (h *Handle) Loaded() bool { return h.loaded }

// State returns the cached state, or nil when not loaded.
func (h *Handle) State() any { return h.state }

// Version returns the persisted version of the cached state.
func (h *Handle) Version() int64 { return h.version }

// SetState caches state and its persisted version on the handle. Call it
// only after the corresponding durable write succeeded.
func (h *Handle) SetState(state any, version int64) {
	h.state = state
	h.version = version
	h.loaded = true
}

type slot struct {
	mu     sync.Mutex
	handle Handle
}

// System is the registry mapping keys to handles.
type System struct {
	mu    sync.Mutex
	slots map[Key]*slot
}

// NewSystem creates an empty registry.
func NewSystem() *System {
	return &System{slots: make(map[Key]*slot)}
}

func (s *System) slotFor(key Key) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{handle: Handle{key: key}}
		s.slots[key] = sl
	}

	return sl
}

// Do runs fn with exclusive access to the aggregate identified by key. The
// caller holds no other aggregate's lock requirement: fn may call into other
// keys, but a key never calls back into itself.
func (s *System) Do(ctx context.Context, key Key, fn func(h *Handle) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sl := s.slotFor(key)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(&sl.handle)
}

// Evict drops the cached handle for key. The next Do loads state from the
// store again. Intended for tests and cache invalidation after external
// writes.
func (s *System) Evict(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
}
