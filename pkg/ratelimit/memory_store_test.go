package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordIfAllowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	start := time.Unix(1_700_000_000, 0)

	allowed, count, oldest, err := store.RecordIfAllowed(ctx, "k", start, time.Minute, 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, start, oldest)

	allowed, count, _, err = store.RecordIfAllowed(ctx, "k", start.Add(time.Second), time.Minute, 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(2), count)

	allowed, count, oldest, err = store.RecordIfAllowed(ctx, "k", start.Add(2*time.Second), time.Minute, 2)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, start, oldest)

	count, oldest, err = store.Count(ctx, "k", start.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, start.Add(time.Second), oldest)
}

func TestMemoryStore_CountMissingKey(t *testing.T) {
	t.Parallel()
	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	count, oldest, err := store.Count(context.Background(), "missing", time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, oldest.IsZero())
}

func TestMemoryStore_Cleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(10 * time.Millisecond))
	t.Cleanup(func() { _ = store.Close() })

	start := time.Unix(1_700_000_000, 0)
	_, _, _, err := store.RecordIfAllowed(ctx, "old", start, time.Second, 5)
	require.NoError(t, err)
	_, _, _, err = store.RecordIfAllowed(ctx, "fresh", start.Add(time.Hour), time.Second, 5)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	t.Parallel()
	store := ratelimit.NewMemoryStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
