package repository

import (
	"context"
	"time"

	"namespaced-cache/internal/domain"
)

// EntryRepository defines the contract for cache entry data access
// This interface allows us to swap implementations (PostgreSQL, MySQL, etc.)
// without changing the cache adapter built on top of it
type EntryRepository interface {
	// Upsert inserts or replaces an entry
	Upsert(ctx context.Context, entry *domain.Entry) error

	// UpsertMany inserts or replaces entries in a single statement
	UpsertMany(ctx context.Context, entries []*domain.Entry) error

	// Find retrieves a live entry by key, returning domain.ErrEntryNotFound when absent or expired
	Find(ctx context.Context, key string, now time.Time) (*domain.Entry, error)

	// FindMany retrieves the live entries among keys; absent keys are simply not returned
	FindMany(ctx context.Context, keys []string, now time.Time) ([]*domain.Entry, error)

	// Exists checks if a live entry exists without fetching its value
	Exists(ctx context.Context, key string, now time.Time) (bool, error)

	// Delete removes an entry by key
	Delete(ctx context.Context, key string) error

	// DeleteExpired removes all expired entries (cleanup job)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
