package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdempotencyStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisIdempotencyStoreWithClient(client, ""), mr
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("first mark succeeds, second reports duplicate", func(t *testing.T) {
		store, _ := newTestIdempotencyStore(t)
		eventID := uuid.NewString()

		fresh, err := store.MarkProcessed(ctx, eventID, time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, eventID, time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("is processed reflects marks", func(t *testing.T) {
		store, _ := newTestIdempotencyStore(t)
		eventID := uuid.NewString()

		processed, err := store.IsProcessed(ctx, eventID)
		require.NoError(t, err)
		assert.False(t, processed)

		_, err = store.MarkProcessed(ctx, eventID, time.Hour)
		require.NoError(t, err)

		processed, err = store.IsProcessed(ctx, eventID)
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("mark expires after ttl", func(t *testing.T) {
		store, mr := newTestIdempotencyStore(t)
		eventID := uuid.NewString()

		_, err := store.MarkProcessed(ctx, eventID, time.Minute)
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		fresh, err := store.MarkProcessed(ctx, eventID, time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})
}
