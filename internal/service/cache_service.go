package service

import (
	"context"

	"namespaced-cache/internal/cache"
	"namespaced-cache/internal/domain"
)

// NamespacedCache is a cache that exposes the storage key it derives for a logical key
// *cache.PrefixedCache satisfies it
type NamespacedCache interface {
	cache.Cache
	KeyWithPrefix(key string) string
	Prefix() string
}

// CacheService defines the application operations on the namespaced cache
// This layer converts request payloads, logs, and maps store failures to AppErrors
type CacheService interface {
	// Put stores a single value, ttl_seconds omitted means the namespace default
	Put(ctx context.Context, key string, req *domain.SetRequest) (*domain.SetResponse, error)

	// Fetch returns the value stored under key, or def on a miss
	Fetch(ctx context.Context, key string, def any) (*domain.GetResponse, error)

	// Exists reports whether key is currently present
	Exists(ctx context.Context, key string) (*domain.ExistsResponse, error)

	// PutMany stores several values in one bulk call
	PutMany(ctx context.Context, req *domain.SetMultipleRequest) (*domain.SetResponse, error)

	// FetchMany reads several values in one bulk call, keyed by storage key
	FetchMany(ctx context.Context, req *domain.GetMultipleRequest) (*domain.GetMultipleResponse, error)

	// Remove deletes key
	Remove(ctx context.Context, key string) (*domain.DeleteResponse, error)

	// StorageKey returns the key the underlying store uses for key
	StorageKey(key string) *domain.StorageKeyResponse

	// Namespace returns the prefix applied to every key
	Namespace() string
}
