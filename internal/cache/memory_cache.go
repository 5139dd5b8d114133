package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = (*MemoryCache)(nil)

// MemoryCache implements the Cache interface on top of go-cache.
// Values are kept as-is, without serialization.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-process cache.
// defaultExpiration applies to NoTTL writes; zero or negative keeps such entries forever.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	if defaultExpiration <= 0 {
		defaultExpiration = gocache.NoExpiration
	}
	return &MemoryCache{
		store: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl Expiration) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	c.set(key, value, ttl)
	return true, nil
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string, def any) (any, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if value, found := c.store.Get(key); found {
		return value, nil
	}
	return def, nil
}

// Has implements Cache.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	_, found := c.store.Get(key)
	return found, nil
}

// SetMultiple implements Cache.
// Keys are checked up front so an illegal key leaves the store untouched.
func (c *MemoryCache) SetMultiple(_ context.Context, values map[string]any, ttl Expiration) (bool, error) {
	if err := checkValueKeys(values); err != nil {
		return false, err
	}
	for key, value := range values {
		c.set(key, value, ttl)
	}
	return true, nil
}

// GetMultiple implements Cache.
func (c *MemoryCache) GetMultiple(_ context.Context, keys []string, def any) (map[string]any, error) {
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	results := make(map[string]any, len(keys))
	for _, key := range keys {
		value, found := c.store.Get(key)
		if !found {
			value = def
		}
		results[key] = value
	}
	return results, nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	c.store.Delete(key)
	return true, nil
}

// Flush drops every entry.
func (c *MemoryCache) Flush() {
	c.store.Flush()
}

// ItemCount returns the number of entries, expired ones included until the janitor runs.
func (c *MemoryCache) ItemCount() int {
	return c.store.ItemCount()
}

func (c *MemoryCache) set(key string, value any, ttl Expiration) {
	switch {
	case ttl.Expired():
		c.store.Delete(key)
	case ttl.IsForever():
		c.store.Set(key, value, gocache.NoExpiration)
	case ttl.IsSet():
		d, _ := ttl.Duration()
		c.store.Set(key, value, d)
	default:
		c.store.Set(key, value, gocache.DefaultExpiration)
	}
}
