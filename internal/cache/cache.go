package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidKey is returned by stores when a key does not satisfy their legality rules.
// Callers should match it with errors.Is, stores wrap it with the offending key.
var ErrInvalidKey = errors.New("invalid cache key")

// Cache defines the capability set every key-value store exposes.
// This abstraction allows swapping store implementations (Redis, bbolt, PostgreSQL, in-memory)
// and stacking decorators such as PrefixedCache on top of them.
type Cache interface {
	// Set stores a value under key. A ttl of NoTTL defers to the store's default expiration.
	Set(ctx context.Context, key string, value any, ttl Expiration) (bool, error)

	// Get retrieves the value stored under key, or def on a miss
	Get(ctx context.Context, key string, def any) (any, error)

	// Has reports whether key is present.
	// The answer can be stale as soon as it is returned if other writers share the store.
	Has(ctx context.Context, key string) (bool, error)

	// SetMultiple stores every entry of values in one bulk operation
	SetMultiple(ctx context.Context, values map[string]any, ttl Expiration) (bool, error)

	// GetMultiple fetches keys in one bulk operation.
	// The result is keyed by the keys exactly as passed in, missing ones map to def.
	GetMultiple(ctx context.Context, keys []string, def any) (map[string]any, error)

	// Delete removes key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) (bool, error)
}

type expirationKind uint8

const (
	kindUnset expirationKind = iota
	kindForever
	kindAfter
)

// Expiration is an optional time-to-live. The zero value is NoTTL.
type Expiration struct {
	kind expirationKind
	ttl  time.Duration
}

var (
	// NoTTL means no expiration was supplied; whoever receives it falls back to its own default.
	NoTTL = Expiration{}

	// Forever stores an entry without expiration.
	Forever = Expiration{kind: kindForever}
)

// After returns an expiration of d. Non-positive durations mean the entry is already expired.
func After(d time.Duration) Expiration {
	return Expiration{kind: kindAfter, ttl: d}
}

// IsSet reports whether an expiration was supplied at all.
func (e Expiration) IsSet() bool {
	return e.kind != kindUnset
}

// IsForever reports whether the entry should never expire.
func (e Expiration) IsForever() bool {
	return e.kind == kindForever
}

// Duration returns the ttl and whether the expiration is a finite duration.
func (e Expiration) Duration() (time.Duration, bool) {
	return e.ttl, e.kind == kindAfter
}

// Expired reports whether an entry written with e would already be gone.
func (e Expiration) Expired() bool {
	return e.kind == kindAfter && e.ttl <= 0
}

// Or returns e when it is set, otherwise fallback.
func (e Expiration) Or(fallback Expiration) Expiration {
	if e.IsSet() {
		return e
	}
	return fallback
}

func (e Expiration) String() string {
	switch e.kind {
	case kindForever:
		return "forever"
	case kindAfter:
		return e.ttl.String()
	default:
		return "default"
	}
}

// deadline resolves e against a store default into an absolute expiry.
// The zero time means the entry never expires.
func deadline(e Expiration, storeDefault Expiration, now time.Time) time.Time {
	e = e.Or(storeDefault)
	if d, ok := e.Duration(); ok {
		return now.Add(d)
	}
	return time.Time{}
}
