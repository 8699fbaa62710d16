package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-spam-detector/internal/core"
)

func newTestMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	t.Cleanup(c.Stop)
	return c
}

func entry(sender string, score float64, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		SenderEmail: sender,
		PctSpam:     score,
		LastSeen:    now,
		ExpiresAt:   now.Add(ttl),
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("a@example.com", 42.5, time.Hour)))

	got, err := c.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.SenderEmail)
	assert.InDelta(t, 42.5, got.PctSpam, 0.0001)
}

func TestMemoryCache_MissReturnsErrNotFound(t *testing.T) {
	c := newTestMemoryCache(t)

	_, err := c.Get(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_ExpiredEntryIsMiss(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("old@example.com", 10, -time.Minute)))

	_, err := c.Get(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("a@example.com", 5, time.Hour)))
	require.NoError(t, c.Delete(ctx, "a@example.com"))

	_, err := c.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_CleanupRemovesOnlyExpired(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("fresh@example.com", 1, time.Hour)))
	require.NoError(t, c.Set(ctx, entry("stale@example.com", 2, -time.Minute)))

	require.NoError(t, c.Cleanup(ctx))

	_, err := c.Get(ctx, "fresh@example.com")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "stale@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_StopIsIdempotent(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	c.Stop()
	c.Stop()
}
