package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("claims a new key", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "statement-run:t1:c1:2026", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("rejects a live claim", func(t *testing.T) {
		key := "webhook-delivery:d1:0"

		claimed, err := store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed, "second claim on a live key should be rejected")
	})

	t.Run("allows reclaiming after expiration", func(t *testing.T) {
		key := "statement-run:t1:c2:2026"

		claimed, err := store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, claimed)

		time.Sleep(20 * time.Millisecond)

		claimed, err = store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed, "expired key should be reclaimable")
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", time.Hour)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = store.MarkProcessed(ctx, "short-lived", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	processed, err = store.IsProcessed(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, processed, "expired claim should read as unprocessed")
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const workers = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.MarkProcessed(ctx, "contended", time.Hour)
			require.NoError(t, err)
			if claimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one worker should win the claim")
}

func TestInMemoryIdempotencyStore_EvictExpired(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.MarkProcessed(ctx, fmt.Sprintf("stale-%d", i), time.Millisecond)
		require.NoError(t, err)
	}
	_, err := store.MarkProcessed(ctx, "live", time.Hour)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	store.evictExpired()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
