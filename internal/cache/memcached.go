package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "geodata:"

// maxRelativeExp is the longest relative expiration memcached accepts.
const maxRelativeExp = 30 * 24 * 60 * 60

// MemcachedCache implements Cache using memcached. Items carry their store
// time in an envelope so freshness is decided by the caller's maxAge, not by
// memcached expiration. Expiration only bounds the stale window.
type MemcachedCache struct {
	client    *memcache.Client
	retention time.Duration
	now       func() time.Time
}

type envelope struct {
	StoredAt time.Time `json:"storedAt"`
	Data     []byte    `json:"data"`
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero. retention sets item expiration.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int, retention time.Duration) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client, retention: retention, now: time.Now}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// key sanitizes k since memcached rejects spaces and control characters.
func (c *MemcachedCache) key(k string) string {
	return keyPrefix + SanitizeKey(k)
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, key string, maxAge time.Duration) (Entry, bool, error) {
	if ctx.Err() != nil {
		return Entry{}, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var env envelope
	if err := json.Unmarshal(item.Value, &env); err != nil {
		return Entry{}, false, err
	}
	entry := Entry{Data: env.Data, StoredAt: env.StoredAt}
	if entry.Age(c.now()) >= maxAge {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache) Set(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(envelope{StoredAt: c.now(), Data: value})
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expirationSeconds(c.retention),
	})
}

// expirationSeconds converts retention to memcached relative seconds,
// falling back to the 30-day maximum when out of range.
func expirationSeconds(retention time.Duration) int32 {
	sec := int64(retention.Seconds())
	if sec <= 0 || sec > maxRelativeExp {
		return maxRelativeExp
	}
	return int32(sec)
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
