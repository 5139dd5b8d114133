package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiration(t *testing.T) {
	assert.False(t, NoTTL.IsSet())
	assert.Equal(t, NoTTL, Expiration{})

	assert.True(t, Forever.IsSet())
	assert.True(t, Forever.IsForever())
	_, finite := Forever.Duration()
	assert.False(t, finite)

	ttl := After(time.Minute)
	d, finite := ttl.Duration()
	assert.True(t, finite)
	assert.Equal(t, time.Minute, d)
	assert.False(t, ttl.Expired())

	assert.True(t, After(0).Expired())
	assert.True(t, After(-time.Second).Expired())
}

func TestExpirationOr(t *testing.T) {
	fallback := After(time.Hour)

	assert.Equal(t, fallback, NoTTL.Or(fallback))
	assert.Equal(t, Forever, Forever.Or(fallback))
	assert.Equal(t, After(time.Second), After(time.Second).Or(fallback))
	assert.Equal(t, NoTTL, NoTTL.Or(NoTTL))
}

func TestDeadline(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(time.Minute), deadline(After(time.Minute), Forever, now))
	assert.Equal(t, now.Add(time.Hour), deadline(NoTTL, After(time.Hour), now))
	assert.True(t, deadline(Forever, After(time.Hour), now).IsZero())
	assert.True(t, deadline(NoTTL, NoTTL, now).IsZero())
}
