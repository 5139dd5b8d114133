package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	_ Cache     = (*RedisCache)(nil)
	_ io.Closer = (*RedisCache)(nil)
)

// RedisCache implements the Cache interface using Redis.
// Values are stored JSON-encoded.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache creates a new Redis cache client
// Returns error if connection fails
// defaultTTL applies to NoTTL writes; zero keeps such entries forever.
func NewRedisCache(addr, password string, db int, defaultTTL time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10, // Connection pool size
		MinIdleConns: 5,  // Minimum idle connections
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if defaultTTL < 0 {
		defaultTTL = 0
	}

	return &RedisCache{client: client, defaultTTL: defaultTTL}, nil
}

// Set stores a value in Redis using SET with PX for atomic expiry
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl Expiration) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	if ttl.Expired() {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("redis delete failed: %w", err)
		}
		return true, nil
	}

	data, err := encodeValue(value)
	if err != nil {
		return false, err
	}

	status, err := c.client.Set(ctx, key, data, c.expiration(ttl)).Result()
	if err != nil {
		return false, fmt.Errorf("redis set failed: %w", err)
	}

	return status == "OK", nil
}

// Get retrieves a value from Redis by key
// Returns def if the key doesn't exist (not an error)
func (c *RedisCache) Get(ctx context.Context, key string, def any) (any, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return decodeValue(data)
}

// Has checks if a key exists in Redis
func (c *RedisCache) Has(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists check failed: %w", err)
	}

	return count > 0, nil
}

// SetMultiple stores multiple key-value pairs in a single pipeline
func (c *RedisCache) SetMultiple(ctx context.Context, values map[string]any, ttl Expiration) (bool, error) {
	if err := checkValueKeys(values); err != nil {
		return false, err
	}
	if len(values) == 0 {
		return true, nil
	}

	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := encodeValue(value)
		if err != nil {
			return false, err
		}
		encoded[key] = data
	}

	pipe := c.client.Pipeline()
	expiration := c.expiration(ttl)
	for key, data := range encoded {
		if ttl.Expired() {
			pipe.Del(ctx, key)
			continue
		}
		pipe.Set(ctx, key, data, expiration)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis pipeline failed: %w", err)
	}

	return true, nil
}

// GetMultiple retrieves multiple values with a single MGET
func (c *RedisCache) GetMultiple(ctx context.Context, keys []string, def any) (map[string]any, error) {
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return make(map[string]any), nil
	}

	raw, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget failed: %w", err)
	}

	results := make(map[string]any, len(keys))
	for i, key := range keys {
		s, ok := raw[i].(string)
		if !ok {
			results[key] = def
			continue
		}
		value, err := decodeValue([]byte(s))
		if err != nil {
			return nil, err
		}
		results[key] = value
	}

	return results, nil
}

// Delete removes a key from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("redis delete failed: %w", err)
	}

	return true, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// expiration maps ttl to the value go-redis expects, where zero means no expiry
func (c *RedisCache) expiration(ttl Expiration) time.Duration {
	switch {
	case ttl.IsForever():
		return 0
	case ttl.IsSet():
		d, _ := ttl.Duration()
		return d
	default:
		return c.defaultTTL
	}
}
