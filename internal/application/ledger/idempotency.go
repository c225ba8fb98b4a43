package ledger

import (
	"context"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdempotencyGuard claims caller-supplied request keys. A key seen within
// the TTL is rejected with DUPLICATE_REQUEST; a failed operation gives its
// key back so the caller can retry.
type IdempotencyGuard struct {
	store  shared.IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdempotencyGuard creates a guard. A nil store disables it.
func NewIdempotencyGuard(store shared.IdempotencyStore, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyGuard{store: store, ttl: ttl}
}

// WithLogger sets the logger used when a key cannot be given back
func (g *IdempotencyGuard) WithLogger(logger *zap.Logger) *IdempotencyGuard {
	g.logger = logger
	return g
}

// Run executes fn once per key. An empty key always runs fn.
func (g *IdempotencyGuard) Run(ctx context.Context, tenantID uuid.UUID, op, key string, fn func() error) error {
	if g == nil || g.store == nil || key == "" {
		return fn()
	}
	scoped := tenantID.String() + ":" + op + ":" + key
	ok, err := g.store.Reserve(ctx, scoped, g.ttl)
	if err != nil {
		return shared.WrapStoreError("idempotency.reserve", err)
	}
	if !ok {
		return shared.ErrDuplicateRequest
	}
	if err := fn(); err != nil {
		if rerr := g.store.Release(context.WithoutCancel(ctx), scoped); rerr != nil {
			LoggerFor(ctx, g.logger).Warn("Failed to release idempotency key",
				zap.String("op", op),
				zap.String("tenant_id", tenantID.String()),
				zap.Error(rerr),
			)
		}
		return err
	}
	return nil
}
