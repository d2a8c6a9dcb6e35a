package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
)

const failureKeyPrefix = "dirsync:authfail:"

// FailureCache stores failure markers with an expiry. It is the subset of
// the fiber storage interface the authenticator needs, so every
// gofiber/storage backend satisfies it.
type FailureCache interface {
	// Get returns nil without an error when the key is absent or expired.
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
}

// NewMySQLCache returns a failure cache stored in a MySQL table.
func NewMySQLCache(connectionURI string) FailureCache {
	return mysql.New(mysql.Config{
		ConnectionURI: connectionURI,
		Table:         "dirsync_auth_failures",
	})
}

// NewPostgresCache returns a failure cache stored in a PostgreSQL table.
func NewPostgresCache(connectionURI string) FailureCache {
	return postgres.New(postgres.Config{
		ConnectionURI: connectionURI,
		Table:         "dirsync_auth_failures",
	})
}

type memoryEntry struct {
	val    []byte
	expiry time.Time // zero means no expiry
}

// MemoryCache is an in-process FailureCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements FailureCache.
func (c *MemoryCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}

	if !e.expiry.IsZero() && !c.now().Before(e.expiry) {
		delete(c.entries, key)
		return nil, nil
	}

	return e.val, nil
}

// Set implements FailureCache. A zero exp keeps the entry forever.
func (c *MemoryCache) Set(key string, val []byte, exp time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{val: val}
	if exp > 0 {
		e.expiry = c.now().Add(exp)
	}

	c.entries[key] = e

	return nil
}

func failureKey(login string) string {
	return failureKeyPrefix + strings.ToLower(strings.TrimSpace(login))
}
