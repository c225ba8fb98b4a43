package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStore(client, "")
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("reserve is set-if-absent with ttl", func(t *testing.T) {
		store, mr := newMiniredisStore(t)

		ok, err := store.Reserve(ctx, "tenant:recharge:abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, mr.Exists("sb:idem:tenant:recharge:abc"))
		assert.Equal(t, time.Minute, mr.TTL("sb:idem:tenant:recharge:abc"))

		ok, err = store.Reserve(ctx, "tenant:recharge:abc", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		mr.FastForward(time.Minute)
		ok, err = store.Reserve(ctx, "tenant:recharge:abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release deletes the key", func(t *testing.T) {
		store, mr := newMiniredisStore(t)

		_, err := store.Reserve(ctx, "k", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "k"))
		assert.False(t, mr.Exists("sb:idem:k"))
	})

	t.Run("server errors surface", func(t *testing.T) {
		store, mr := newMiniredisStore(t)
		mr.SetError("LOADING")

		_, err := store.Reserve(ctx, "k", time.Hour)
		require.Error(t, err)
	})
}

func TestIdempotencyStoreFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses memory", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("reachable redis is used", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.RedisConfig{Enabled: true, Host: mr.Host()}
		cfg.Port = mustPort(t, mr)

		store, err := NewIdempotencyStoreFactory(cfg).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	unreachable := func(f *IdempotencyStoreFactory) {
		f.dial = func(context.Context, config.RedisConfig) (*redis.Client, error) {
			return nil, errors.New("connection refused")
		}
	}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true}, unreachable).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fallback can be refused", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true}, unreachable, WithInMemoryFallback(false)).CreateStore(ctx)
		require.Error(t, err)
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
