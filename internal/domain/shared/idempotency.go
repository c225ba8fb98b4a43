package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers caller-supplied request keys so a retried
// recharge, consume or order placement is rejected instead of appending a
// second ledger row.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key was already claimed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim, used when the guarded operation failed and may be retried.
	Release(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}
