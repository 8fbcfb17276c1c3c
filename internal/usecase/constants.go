package usecase

import "time"

const (
	// DefaultPostingTimeout bounds one fan-out posting round so a stuck
	// account call cannot hold the entry forever.
	DefaultPostingTimeout = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// balanceCacheTTL is how long cached balances stay valid between
	// invalidations.
	balanceCacheTTL = 5 * time.Minute
)
