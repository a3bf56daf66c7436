package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache spins up a miniredis server and returns the cache plus
// the underlying server for TTL manipulation.
func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client), mr
}

func TestCache_GetSet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	value, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_SetNX(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	set, err := cache.SetNX(ctx, "eventCleanup:holiday2024", "true", time.Hour)
	require.NoError(t, err)
	assert.True(t, set)

	// Second claim loses while the marker lives.
	set, err = cache.SetNX(ctx, "eventCleanup:holiday2024", "true", time.Hour)
	require.NoError(t, err)
	assert.False(t, set)

	// A released marker can be claimed again.
	require.NoError(t, cache.Delete(ctx, "eventCleanup:holiday2024"))
	set, err = cache.SetNX(ctx, "eventCleanup:holiday2024", "true", time.Hour)
	require.NoError(t, err)
	assert.True(t, set)

	// So can an expired one.
	mr.FastForward(2 * time.Hour)
	set, err = cache.SetNX(ctx, "eventCleanup:holiday2024", "true", time.Hour)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestCache_Lists(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	empty, err := cache.ListRange(ctx, "event:holiday2024:partners", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, cache.ListAppend(ctx, "event:holiday2024:partners", "a", "b"))
	require.NoError(t, cache.ListAppend(ctx, "event:holiday2024:partners", "c"))

	all, err := cache.ListRange(ctx, "event:holiday2024:partners", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)

	part, err := cache.ListRange(ctx, "event:holiday2024:partners", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, part)
}

func TestCache_NoValuesAppendIsNoop(t *testing.T) {
	cache, _ := newTestCache(t)
	require.NoError(t, cache.ListAppend(context.Background(), "l"))
}
