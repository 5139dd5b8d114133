package cache

import (
	"context"
)

// KeySeparator joins the namespace prefix and a caller key.
const KeySeparator = "."

var _ Cache = (*PrefixedCache)(nil)

// PrefixedCache namespaces every key of an underlying Cache and applies a default
// expiration when a caller does not pass one.
//
// It holds no state besides its construction arguments and adds no validation, retries or
// error translation: whatever the underlying cache returns is returned unchanged. Raw keys
// containing KeySeparator can collide with keys of a nested namespace; that is not checked.
type PrefixedCache struct {
	inner      Cache
	prefix     string
	defaultTTL Expiration
}

// NewPrefixedCache wraps inner so that every key is stored as prefix + "." + key.
// defaultTTL is used when a call passes NoTTL; pass NoTTL to defer to inner's own default.
func NewPrefixedCache(inner Cache, prefix string, defaultTTL Expiration) *PrefixedCache {
	return &PrefixedCache{
		inner:      inner,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// Prefix returns the namespace.
func (c *PrefixedCache) Prefix() string {
	return c.prefix
}

// DefaultTTL returns the expiration applied when callers omit one.
func (c *PrefixedCache) DefaultTTL() Expiration {
	return c.defaultTTL
}

// WithPrefix returns a nested namespace sharing the same underlying cache and default expiration.
func (c *PrefixedCache) WithPrefix(prefix string) *PrefixedCache {
	return NewPrefixedCache(c.inner, c.KeyWithPrefix(prefix), c.defaultTTL)
}

// KeyWithPrefix returns the storage key used for key.
func (c *PrefixedCache) KeyWithPrefix(key string) string {
	return c.prefix + KeySeparator + key
}

// Set implements Cache.
func (c *PrefixedCache) Set(ctx context.Context, key string, value any, ttl Expiration) (bool, error) {
	return c.inner.Set(ctx, c.KeyWithPrefix(key), value, ttl.Or(c.defaultTTL))
}

// Get implements Cache.
func (c *PrefixedCache) Get(ctx context.Context, key string, def any) (any, error) {
	return c.inner.Get(ctx, c.KeyWithPrefix(key), def)
}

// Has implements Cache. A true result does not guarantee a following Get hits,
// concurrent writers on the underlying cache may remove the entry in between.
func (c *PrefixedCache) Has(ctx context.Context, key string) (bool, error) {
	return c.inner.Has(ctx, c.KeyWithPrefix(key))
}

// SetMultiple implements Cache.
func (c *PrefixedCache) SetMultiple(ctx context.Context, values map[string]any, ttl Expiration) (bool, error) {
	prefixed := make(map[string]any, len(values))
	for key, value := range values {
		prefixed[c.KeyWithPrefix(key)] = value
	}
	return c.inner.SetMultiple(ctx, prefixed, ttl.Or(c.defaultTTL))
}

// GetMultiple implements Cache.
//
// The result is what the underlying cache returns, keyed by the prefixed storage keys.
// Use KeyWithPrefix to look up a logical key in it.
func (c *PrefixedCache) GetMultiple(ctx context.Context, keys []string, def any) (map[string]any, error) {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.KeyWithPrefix(key)
	}
	return c.inner.GetMultiple(ctx, prefixed, def)
}

// Delete implements Cache.
func (c *PrefixedCache) Delete(ctx context.Context, key string) (bool, error) {
	return c.inner.Delete(ctx, c.KeyWithPrefix(key))
}
