package service

import (
	"context"
	"errors"
	"math"
	"time"

	"namespaced-cache/internal/cache"
	"namespaced-cache/internal/domain"
	"namespaced-cache/pkg/logger"
)

// cacheService implements the CacheService interface
type cacheService struct {
	cache  NamespacedCache
	logger *logger.Logger
}

// NewCacheService creates a new cache service with dependencies injected
func NewCacheService(c NamespacedCache, logger *logger.Logger) CacheService {
	return &cacheService{
		cache:  c,
		logger: logger,
	}
}

// Put stores a single value
func (s *cacheService) Put(ctx context.Context, key string, req *domain.SetRequest) (*domain.SetResponse, error) {
	ttl, err := expirationFromSeconds(req.TTLSeconds)
	if err != nil {
		return nil, err
	}

	stored, err := s.cache.Set(ctx, key, req.Value, ttl)
	if err != nil {
		return nil, s.mapError(err, "set", key)
	}

	s.logger.Debugw("Cache entry stored", "key", key, "ttl", ttl.String(), "stored", stored)
	return &domain.SetResponse{Key: key, Stored: stored}, nil
}

// Fetch returns the stored value or def
func (s *cacheService) Fetch(ctx context.Context, key string, def any) (*domain.GetResponse, error) {
	value, err := s.cache.Get(ctx, key, def)
	if err != nil {
		return nil, s.mapError(err, "get", key)
	}

	return &domain.GetResponse{Key: key, Value: value}, nil
}

// Exists checks presence; the answer may be stale by the time the caller acts on it
func (s *cacheService) Exists(ctx context.Context, key string) (*domain.ExistsResponse, error) {
	exists, err := s.cache.Has(ctx, key)
	if err != nil {
		return nil, s.mapError(err, "has", key)
	}

	return &domain.ExistsResponse{Key: key, Exists: exists}, nil
}

// PutMany stores several values in one bulk call
func (s *cacheService) PutMany(ctx context.Context, req *domain.SetMultipleRequest) (*domain.SetResponse, error) {
	ttl, err := expirationFromSeconds(req.TTLSeconds)
	if err != nil {
		return nil, err
	}

	stored, err := s.cache.SetMultiple(ctx, req.Values, ttl)
	if err != nil {
		return nil, s.mapError(err, "set_multiple", "")
	}

	s.logger.Debugw("Cache entries stored", "count", len(req.Values), "ttl", ttl.String(), "stored", stored)
	return &domain.SetResponse{Stored: stored}, nil
}

// FetchMany reads several values; the result is keyed by storage key as the store returns it
func (s *cacheService) FetchMany(ctx context.Context, req *domain.GetMultipleRequest) (*domain.GetMultipleResponse, error) {
	values, err := s.cache.GetMultiple(ctx, req.Keys, req.Default)
	if err != nil {
		return nil, s.mapError(err, "get_multiple", "")
	}

	return &domain.GetMultipleResponse{Values: values}, nil
}

// Remove deletes a single key
func (s *cacheService) Remove(ctx context.Context, key string) (*domain.DeleteResponse, error) {
	deleted, err := s.cache.Delete(ctx, key)
	if err != nil {
		return nil, s.mapError(err, "delete", key)
	}

	s.logger.Debugw("Cache entry deleted", "key", key)
	return &domain.DeleteResponse{Key: key, Deleted: deleted}, nil
}

// StorageKey exposes the exact key the store sees
func (s *cacheService) StorageKey(key string) *domain.StorageKeyResponse {
	return &domain.StorageKeyResponse{Key: key, StorageKey: s.cache.KeyWithPrefix(key)}
}

// Namespace returns the cache prefix
func (s *cacheService) Namespace() string {
	return s.cache.Prefix()
}

// mapError turns store failures into AppErrors and logs internal ones
func (s *cacheService) mapError(err error, op, key string) error {
	if errors.Is(err, cache.ErrInvalidKey) {
		s.logger.Warnw("Invalid cache key", "op", op, "key", key, "error", err)
		return domain.NewValidationError(err, err.Error())
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		s.logger.Errorw("Cache store error", "op", op, "key", key, "error", appErr.Err)
		return appErr
	}

	s.logger.Errorw("Cache store unavailable", "op", op, "key", key, "error", err)
	return domain.NewUnavailableError(err)
}

// maxTTLSeconds is the largest ttl_seconds that fits in a time.Duration
const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

// expirationFromSeconds converts an optional ttl_seconds field.
// nil means no ttl was given, zero means never expire.
func expirationFromSeconds(seconds *int) (cache.Expiration, error) {
	if seconds == nil {
		return cache.NoTTL, nil
	}
	if *seconds < 0 || int64(*seconds) > maxTTLSeconds {
		return cache.NoTTL, domain.NewValidationError(domain.ErrInvalidTTL, domain.ErrInvalidTTL.Error())
	}
	if *seconds == 0 {
		return cache.Forever, nil
	}
	return cache.After(time.Duration(*seconds) * time.Second), nil
}
