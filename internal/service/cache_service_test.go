package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"namespaced-cache/internal/cache"
	"namespaced-cache/internal/domain"
	"namespaced-cache/pkg/logger"
)

// MockNamespacedCache is a mock implementation of NamespacedCache
type MockNamespacedCache struct {
	mock.Mock
}

func (m *MockNamespacedCache) Set(ctx context.Context, key string, value any, ttl cache.Expiration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockNamespacedCache) Get(ctx context.Context, key string, def any) (any, error) {
	args := m.Called(ctx, key, def)
	return args.Get(0), args.Error(1)
}

func (m *MockNamespacedCache) Has(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockNamespacedCache) SetMultiple(ctx context.Context, values map[string]any, ttl cache.Expiration) (bool, error) {
	args := m.Called(ctx, values, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockNamespacedCache) GetMultiple(ctx context.Context, keys []string, def any) (map[string]any, error) {
	args := m.Called(ctx, keys, def)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockNamespacedCache) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockNamespacedCache) KeyWithPrefix(key string) string {
	return m.Called(key).String(0)
}

func (m *MockNamespacedCache) Prefix() string {
	return m.Called().String(0)
}

func setupCacheServiceTest() (CacheService, *MockNamespacedCache) {
	c := new(MockNamespacedCache)
	return NewCacheService(c, logger.NewNop()), c
}

func intPtr(v int) *int { return &v }

func TestPut_TTLConversion(t *testing.T) {
	tests := []struct {
		name    string
		seconds *int
		want    cache.Expiration
	}{
		{name: "omitted", seconds: nil, want: cache.NoTTL},
		{name: "zero means forever", seconds: intPtr(0), want: cache.Forever},
		{name: "positive", seconds: intPtr(60), want: cache.After(60 * time.Second)},
		{name: "largest representable", seconds: intPtr(9223372036), want: cache.After(9223372036 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, c := setupCacheServiceTest()
			ctx := context.Background()

			c.On("Set", ctx, "user:1", "v", tt.want).Return(true, nil)

			resp, err := svc.Put(ctx, "user:1", &domain.SetRequest{Value: "v", TTLSeconds: tt.seconds})

			require.NoError(t, err)
			assert.Equal(t, &domain.SetResponse{Key: "user:1", Stored: true}, resp)
			c.AssertExpectations(t)
		})
	}
}

func TestPut_InvalidTTL(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
	}{
		{name: "negative", seconds: -1},
		{name: "overflows duration", seconds: 10000000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, c := setupCacheServiceTest()

			_, err := svc.Put(context.Background(), "k", &domain.SetRequest{Value: 1, TTLSeconds: intPtr(tt.seconds)})

			var appErr *domain.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
			assert.ErrorIs(t, err, domain.ErrInvalidTTL)
			c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPutMany_OverflowingTTL(t *testing.T) {
	svc, c := setupCacheServiceTest()

	_, err := svc.PutMany(context.Background(), &domain.SetMultipleRequest{
		Values:     map[string]any{"a": 1},
		TTLSeconds: intPtr(10000000000),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidTTL)
	c.AssertNotCalled(t, "SetMultiple", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetch_InvalidKeyBecomesValidationError(t *testing.T) {
	svc, c := setupCacheServiceTest()
	ctx := context.Background()
	storeErr := fmt.Errorf("%w %q", cache.ErrInvalidKey, "app.bad key")

	c.On("Get", ctx, "bad key", nil).Return(nil, storeErr)

	_, err := svc.Fetch(ctx, "bad key", nil)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.False(t, appErr.Internal)
	assert.ErrorIs(t, err, cache.ErrInvalidKey)
}

func TestFetch_StoreFailureBecomesUnavailable(t *testing.T) {
	svc, c := setupCacheServiceTest()
	ctx := context.Background()

	c.On("Get", ctx, "k", "d").Return(nil, errors.New("dial tcp: connection refused"))

	_, err := svc.Fetch(ctx, "k", "d")

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
	assert.True(t, appErr.Internal)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestFetch_AppErrorPassesThrough(t *testing.T) {
	svc, c := setupCacheServiceTest()
	ctx := context.Background()
	repoErr := domain.NewInternalError(errors.New("syntax error"))

	c.On("Get", ctx, "k", nil).Return(nil, repoErr)

	_, err := svc.Fetch(ctx, "k", nil)
	assert.Same(t, repoErr, err)
}

func TestExistsAndRemove(t *testing.T) {
	svc, c := setupCacheServiceTest()
	ctx := context.Background()

	c.On("Has", ctx, "k").Return(true, nil)
	c.On("Delete", ctx, "k").Return(true, nil)

	exists, err := svc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, &domain.ExistsResponse{Key: "k", Exists: true}, exists)

	deleted, err := svc.Remove(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, &domain.DeleteResponse{Key: "k", Deleted: true}, deleted)
}

func TestPutManyAndFetchMany(t *testing.T) {
	svc, c := setupCacheServiceTest()
	ctx := context.Background()
	values := map[string]any{"a": 1, "b": 2}

	c.On("SetMultiple", ctx, values, cache.After(30*time.Second)).Return(true, nil)
	c.On("GetMultiple", ctx, []string{"a", "c"}, 0).Return(map[string]any{"app.a": 1, "app.c": 0}, nil)

	stored, err := svc.PutMany(ctx, &domain.SetMultipleRequest{Values: values, TTLSeconds: intPtr(30)})
	require.NoError(t, err)
	assert.True(t, stored.Stored)

	fetched, err := svc.FetchMany(ctx, &domain.GetMultipleRequest{Keys: []string{"a", "c"}, Default: 0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"app.a": 1, "app.c": 0}, fetched.Values)

	c.AssertExpectations(t)
}

func TestStorageKeyAndNamespace(t *testing.T) {
	svc, c := setupCacheServiceTest()

	c.On("KeyWithPrefix", "user:1").Return("app.user:1")
	c.On("Prefix").Return("app")

	assert.Equal(t, &domain.StorageKeyResponse{Key: "user:1", StorageKey: "app.user:1"}, svc.StorageKey("user:1"))
	assert.Equal(t, "app", svc.Namespace())
}

func TestPrefixedCacheSatisfiesNamespacedCache(t *testing.T) {
	var _ NamespacedCache = cache.NewPrefixedCache(cache.NewMemoryCache(0, 0), "app", cache.NoTTL)
}
