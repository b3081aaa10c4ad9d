package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is a cached payload with the time it was stored.
type Entry struct {
	Data     []byte
	StoredAt time.Time
}

// Age returns how long ago the entry was stored, relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Cache defines the interface for raw dataset caching implementations.
// Get returns the entry if present and younger than maxAge. Entries past maxAge
// are kept so a caller can retry with a longer stale window.
type Cache interface {
	Get(ctx context.Context, key string, maxAge time.Duration) (Entry, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by backends that can report reachability for health checks.
type Pinger interface {
	Ping() error
}

// InMemoryCache implements Cache using a map guarded by a mutex.
// Entries older than retention are removed on access.
type InMemoryCache struct {
	mu        sync.Mutex
	data      map[string]Entry
	retention time.Duration
	now       func() time.Time
}

// NewInMemoryCache creates a new in-memory cache. A non-positive retention keeps entries forever.
func NewInMemoryCache(retention time.Duration) *InMemoryCache {
	return &InMemoryCache{
		data:      make(map[string]Entry),
		retention: retention,
		now:       time.Now,
	}
}

// Get retrieves the entry for key if present and younger than maxAge.
// Returns (entry, true, nil) on hit, (zero, false, nil) on miss or when too old.
func (c *InMemoryCache) Get(ctx context.Context, key string, maxAge time.Duration) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data[key]
	if !ok {
		return Entry{}, false, nil
	}
	age := entry.Age(c.now())
	if c.retention > 0 && age >= c.retention {
		delete(c.data, key)
		return Entry{}, false, nil
	}
	if age >= maxAge {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores value under key, stamped with the current time.
func (c *InMemoryCache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = Entry{Data: buf, StoredAt: c.now()}
	return nil
}
