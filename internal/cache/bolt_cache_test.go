package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBoltCache(t *testing.T, opts BoltOptions) (*BoltCache, *fakeClock) {
	t.Helper()

	c, err := OpenBoltCache(filepath.Join(t.TempDir(), "cache.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("failed to close bolt cache: %v", err)
		}
	})

	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	return c, clock
}

func TestBoltCache_SetGetHas(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestBoltCache(t, BoltOptions{})

	has, err := c.Has(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, has)

	stored, err := c.Set(ctx, "missing", []any{"x", 1.5}, NoTTL)
	require.NoError(t, err)
	assert.True(t, stored)

	has, err = c.Has(ctx, "missing")
	require.NoError(t, err)
	assert.True(t, has)

	value, err := c.Get(ctx, "missing", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", 1.5}, value)
}

func TestBoltCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestBoltCache(t, BoltOptions{DefaultTTL: time.Hour})

	_, err := c.Set(ctx, "short", "v", After(time.Minute))
	require.NoError(t, err)
	_, err = c.Set(ctx, "default", "v", NoTTL)
	require.NoError(t, err)
	_, err = c.Set(ctx, "forever", "v", Forever)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	values, err := c.GetMultiple(ctx, []string{"short", "default", "forever"}, "gone")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"short": "gone", "default": "v", "forever": "v"}, values)

	clock.Advance(2 * time.Hour)

	has, err := c.Has(ctx, "default")
	require.NoError(t, err)
	assert.False(t, has)

	purged, err := c.Purge()
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	value, err := c.Get(ctx, "forever", nil)
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestBoltCache_SetMultipleAndDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestBoltCache(t, BoltOptions{Bucket: "ns"})

	stored, err := c.SetMultiple(ctx, map[string]any{"app.a": 1, "app.b": map[string]any{"k": "v"}}, NoTTL)
	require.NoError(t, err)
	assert.True(t, stored)

	values, err := c.GetMultiple(ctx, []string{"app.a", "app.b", "app.c"}, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"app.a": float64(1),
		"app.b": map[string]any{"k": "v"},
		"app.c": 0,
	}, values)

	deleted, err := c.Delete(ctx, "app.a")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = c.SetMultiple(ctx, map[string]any{"app.b": 2}, After(0))
	require.NoError(t, err)

	values, err = c.GetMultiple(ctx, []string{"app.a", "app.b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"app.a": nil, "app.b": nil}, values)
}

func TestBoltCache_InvalidKey(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestBoltCache(t, BoltOptions{})

	_, err := c.Set(ctx, "a(b)", 1, NoTTL)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = c.GetMultiple(ctx, []string{"\tkey"}, nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestBoltCache_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := OpenBoltCache(path, BoltOptions{})
	require.NoError(t, err)
	_, err = c.Set(ctx, "k", "persisted", NoTTL)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = OpenBoltCache(path, BoltOptions{})
	require.NoError(t, err)
	defer c.Close()

	value, err := c.Get(ctx, "k", nil)
	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
}
