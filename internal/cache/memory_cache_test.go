package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetHas(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0)

	value, err := c.Get(ctx, "user:1", "none")
	require.NoError(t, err)
	assert.Equal(t, "none", value)

	has, err := c.Has(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, has)

	stored, err := c.Set(ctx, "user:1", map[string]any{"name": "a"}, NoTTL)
	require.NoError(t, err)
	assert.True(t, stored)

	value, err = c.Get(ctx, "user:1", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "a"}, value)

	has, err = c.Has(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(20*time.Millisecond, 0)

	_, err := c.Set(ctx, "default", 1, NoTTL)
	require.NoError(t, err)
	_, err = c.Set(ctx, "forever", 2, Forever)
	require.NoError(t, err)
	_, err = c.Set(ctx, "long", 3, After(time.Hour))
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	values, err := c.GetMultiple(ctx, []string{"default", "forever", "long"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"default": nil, "forever": 2, "long": 3}, values)
}

func TestMemoryCache_NonPositiveTTLRemovesEntry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0)

	_, err := c.Set(ctx, "k", "v", NoTTL)
	require.NoError(t, err)

	stored, err := c.Set(ctx, "k", "v2", After(0))
	require.NoError(t, err)
	assert.True(t, stored)

	has, err := c.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMemoryCache_SetMultipleRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0)

	stored, err := c.SetMultiple(ctx, map[string]any{"good": 1, "bad key": 2}, NoTTL)
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.False(t, stored)
	assert.Equal(t, 0, c.ItemCount())
}

func TestMemoryCache_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0)

	_, err := c.SetMultiple(ctx, map[string]any{"a": 1, "b": 2}, NoTTL)
	require.NoError(t, err)

	deleted, err := c.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 1, c.ItemCount())

	c.Flush()
	assert.Equal(t, 0, c.ItemCount())
}
