//go:build integration
// +build integration

package cache

import (
	"context"
	"testing"
	"time"
)

// TestMemcachedCache_GetSet_Integration verifies that MemcachedCache successfully
// stores and retrieves values when memcached server is available.
func TestMemcachedCache_GetSet_Integration(t *testing.T) {
	c, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2, time.Hour)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	val := []byte(`{"names":["Bibliothek"]}`)
	if err := c.Set(ctx, "osm:CH:amenity=library", val); err != nil {
		t.Skipf("Set failed (memcached may not be running): %v", err)
	}

	got, ok, err := c.Get(ctx, "osm:CH:amenity=library", time.Minute)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if string(got.Data) != string(val) {
		t.Errorf("Get() = %s, want %s", got.Data, val)
	}
}

// TestMemcachedCache_Get_Miss_Integration verifies that a missing key is a miss, not an error.
func TestMemcachedCache_Get_Miss_Integration(t *testing.T) {
	c, _ := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2, time.Hour)
	defer c.Close()
	if err := c.Ping(); err != nil {
		t.Skipf("memcached not reachable: %v", err)
	}
	_, ok, err := c.Get(context.Background(), "definitely-not-set", time.Minute)
	if err != nil || ok {
		t.Errorf("Get() = ok %v, err %v; want miss", ok, err)
	}
}
