// Package cache is a small TTL key-value store used to avoid re-translating
// identical caption text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// DefaultTTL is how long entries live unless a TTL is given.
const DefaultTTL = 24 * time.Hour

// Cache wraps a badger database with TTL semantics.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) a disk-backed cache at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, ttl: DefaultTTL}, nil
}

// OpenInMemory opens a cache that lives only for the process. Used in tests
// and when no cache directory is configured.
func OpenInMemory() (*Cache, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, ttl: DefaultTTL}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key builds a stable cache key from its parts. Hashing keeps caption text
// out of the key space and bounds key length.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached value for key, or ErrMiss.
func (c *Cache) Get(key string) (string, error) {
	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key, value string) error {
	return c.SetTTL(key, value, c.ttl)
}

// SetTTL stores value under key, expiring after ttl.
func (c *Cache) SetTTL(key, value string, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), []byte(value)).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}
