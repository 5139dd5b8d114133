package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	_ Cache     = (*BoltCache)(nil)
	_ io.Closer = (*BoltCache)(nil)
)

const expiryHeaderLen = 8

// BoltOptions configures a BoltCache.
type BoltOptions struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
	// DefaultTTL is used for NoTTL writes; if DefaultTTL <= 0, such items never expire.
	DefaultTTL time.Duration
}

// BoltCache is a file-backed Cache.
// Records are laid out as 8 bytes big endian expiry (unix nanoseconds, 0 = never) followed by
// the JSON-encoded value. Expired records read as absent and are dropped by Purge.
type BoltCache struct {
	db         *bolt.DB
	bucket     []byte
	defaultTTL Expiration
	now        func() time.Time
}

// OpenBoltCache initializes or opens a BoltCache at the given path.
func OpenBoltCache(path string, opts BoltOptions) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache: %w", err)
	}

	bucket := []byte("cache")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bolt bucket: %w", err)
	}

	defaultTTL := Forever
	if opts.DefaultTTL > 0 {
		defaultTTL = After(opts.DefaultTTL)
	}

	return &BoltCache{db: db, bucket: bucket, defaultTTL: defaultTTL, now: time.Now}, nil
}

// Close closes the underlying database.
func (c *BoltCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Set implements Cache.
func (c *BoltCache) Set(_ context.Context, key string, value any, ttl Expiration) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	record, err := c.record(value, ttl)
	if err != nil {
		return false, err
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return c.put(tx.Bucket(c.bucket), key, record)
	})
	if err != nil {
		return false, fmt.Errorf("bolt set failed: %w", err)
	}
	return true, nil
}

// Get implements Cache.
func (c *BoltCache) Get(_ context.Context, key string, def any) (any, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		data = c.lookup(tx.Bucket(c.bucket), key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt get failed: %w", err)
	}
	if data == nil {
		return def, nil
	}
	return decodeValue(data)
}

// Has implements Cache.
func (c *BoltCache) Has(_ context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		found = c.lookup(tx.Bucket(c.bucket), key) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("bolt has failed: %w", err)
	}
	return found, nil
}

// SetMultiple implements Cache. All entries are written in one transaction.
func (c *BoltCache) SetMultiple(_ context.Context, values map[string]any, ttl Expiration) (bool, error) {
	if err := checkValueKeys(values); err != nil {
		return false, err
	}

	records := make(map[string][]byte, len(values))
	for key, value := range values {
		record, err := c.record(value, ttl)
		if err != nil {
			return false, err
		}
		records[key] = record
	}

	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		for key, record := range records {
			if err := c.put(b, key, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("bolt set multiple failed: %w", err)
	}
	return true, nil
}

// GetMultiple implements Cache. All keys are read in one transaction.
func (c *BoltCache) GetMultiple(_ context.Context, keys []string, def any) (map[string]any, error) {
	if err := checkKeys(keys); err != nil {
		return nil, err
	}

	raw := make(map[string][]byte, len(keys))
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		for _, key := range keys {
			raw[key] = c.lookup(b, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt get multiple failed: %w", err)
	}

	results := make(map[string]any, len(keys))
	for key, data := range raw {
		if data == nil {
			results[key] = def
			continue
		}
		value, err := decodeValue(data)
		if err != nil {
			return nil, err
		}
		results[key] = value
	}
	return results, nil
}

// Delete implements Cache.
func (c *BoltCache) Delete(_ context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Delete([]byte(key))
	})
	if err != nil {
		return false, fmt.Errorf("bolt delete failed: %w", err)
	}
	return true, nil
}

// Purge removes expired records and returns how many were dropped.
func (c *BoltCache) Purge() (int, error) {
	now := c.now()
	purged := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		cur := tx.Bucket(c.bucket).Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			if !expired(v, now) {
				continue
			}
			if err := cur.Delete(); err != nil {
				return err
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return purged, fmt.Errorf("bolt purge failed: %w", err)
	}
	return purged, nil
}

// record builds the stored bytes for value; nil means the entry is already expired.
func (c *BoltCache) record(value any, ttl Expiration) ([]byte, error) {
	if ttl.Expired() {
		return nil, nil
	}

	data, err := encodeValue(value)
	if err != nil {
		return nil, err
	}

	var expiresAt int64
	if at := deadline(ttl, c.defaultTTL, c.now()); !at.IsZero() {
		expiresAt = at.UnixNano()
	}

	buf := make([]byte, expiryHeaderLen+len(data))
	binary.BigEndian.PutUint64(buf[:expiryHeaderLen], uint64(expiresAt))
	copy(buf[expiryHeaderLen:], data)
	return buf, nil
}

func (c *BoltCache) put(b *bolt.Bucket, key string, record []byte) error {
	if record == nil {
		return b.Delete([]byte(key))
	}
	return b.Put([]byte(key), record)
}

// lookup returns a copy of the live value bytes for key, or nil.
func (c *BoltCache) lookup(b *bolt.Bucket, key string) []byte {
	v := b.Get([]byte(key))
	if v == nil || expired(v, c.now()) {
		return nil
	}
	return append([]byte(nil), v[expiryHeaderLen:]...)
}

func expired(record []byte, now time.Time) bool {
	if len(record) < expiryHeaderLen {
		return true
	}
	expiresAt := int64(binary.BigEndian.Uint64(record[:expiryHeaderLen]))
	return expiresAt > 0 && now.UnixNano() >= expiresAt
}
