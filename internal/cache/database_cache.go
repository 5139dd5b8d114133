package cache

import (
	"context"
	"errors"
	"time"

	"namespaced-cache/internal/domain"
	"namespaced-cache/internal/repository"
)

var _ Cache = (*DatabaseCache)(nil)

// DatabaseCache implements the Cache interface over an EntryRepository.
// Values are stored JSON-encoded, expired rows read as absent until DeleteExpired removes them.
type DatabaseCache struct {
	repo       repository.EntryRepository
	defaultTTL Expiration
	now        func() time.Time
}

// NewDatabaseCache creates a cache over repo.
// defaultTTL applies to NoTTL writes; zero or negative keeps such entries forever.
func NewDatabaseCache(repo repository.EntryRepository, defaultTTL time.Duration) *DatabaseCache {
	ttl := Forever
	if defaultTTL > 0 {
		ttl = After(defaultTTL)
	}
	return &DatabaseCache{repo: repo, defaultTTL: ttl, now: time.Now}
}

// Set implements Cache.
func (c *DatabaseCache) Set(ctx context.Context, key string, value any, ttl Expiration) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	if ttl.Expired() {
		return c.Delete(ctx, key)
	}

	entry, err := c.entry(key, value, ttl)
	if err != nil {
		return false, err
	}
	if err := c.repo.Upsert(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Get implements Cache.
func (c *DatabaseCache) Get(ctx context.Context, key string, def any) (any, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	now := c.now()
	entry, err := c.repo.Find(ctx, key, now)
	if errors.Is(err, domain.ErrEntryNotFound) {
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.IsExpired(now) {
		return def, nil
	}
	return decodeValue(entry.Value)
}

// Has implements Cache.
func (c *DatabaseCache) Has(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	return c.repo.Exists(ctx, key, c.now())
}

// SetMultiple implements Cache.
func (c *DatabaseCache) SetMultiple(ctx context.Context, values map[string]any, ttl Expiration) (bool, error) {
	if err := checkValueKeys(values); err != nil {
		return false, err
	}

	if ttl.Expired() {
		for key := range values {
			if err := c.repo.Delete(ctx, key); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	entries := make([]*domain.Entry, 0, len(values))
	for key, value := range values {
		entry, err := c.entry(key, value, ttl)
		if err != nil {
			return false, err
		}
		entries = append(entries, entry)
	}
	if err := c.repo.UpsertMany(ctx, entries); err != nil {
		return false, err
	}
	return true, nil
}

// GetMultiple implements Cache.
func (c *DatabaseCache) GetMultiple(ctx context.Context, keys []string, def any) (map[string]any, error) {
	if err := checkKeys(keys); err != nil {
		return nil, err
	}

	now := c.now()
	entries, err := c.repo.FindMany(ctx, keys, now)
	if err != nil {
		return nil, err
	}

	results := make(map[string]any, len(keys))
	for _, key := range keys {
		results[key] = def
	}
	for _, entry := range entries {
		if entry.IsExpired(now) {
			continue
		}
		value, err := decodeValue(entry.Value)
		if err != nil {
			return nil, err
		}
		results[entry.Key] = value
	}
	return results, nil
}

// Delete implements Cache.
func (c *DatabaseCache) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	if err := c.repo.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// Purge removes expired rows and returns how many were dropped.
func (c *DatabaseCache) Purge(ctx context.Context) (int64, error) {
	return c.repo.DeleteExpired(ctx, c.now())
}

func (c *DatabaseCache) entry(key string, value any, ttl Expiration) (*domain.Entry, error) {
	data, err := encodeValue(value)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{Key: key, Value: data}
	if at := deadline(ttl, c.defaultTTL, c.now()); !at.IsZero() {
		entry.ExpiresAt = &at
	}
	return entry, nil
}
