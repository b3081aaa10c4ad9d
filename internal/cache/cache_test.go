package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// TestInMemoryCache_GetSet verifies that Set stores values and Get retrieves
// them correctly with the expected data.
func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(time.Hour)

	val := []byte(`{"names":["Orell Füssli"]}`)
	if err := c.Set(ctx, "osm:CH:shop=books", val); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "osm:CH:shop=books", time.Minute)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if !bytes.Equal(got.Data, val) {
		t.Errorf("Get() = %s, want %s", got.Data, val)
	}
}

// TestInMemoryCache_Get_Miss verifies that Get returns ok=false when
// the requested key does not exist in cache.
func TestInMemoryCache_Get_Miss(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(time.Hour)

	_, ok, err := c.Get(ctx, "nonexistent", time.Minute)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

// TestInMemoryCache_Get_TooOldStillStale verifies that an entry past maxAge
// misses but is still returned for a longer stale window.
func TestInMemoryCache_Get_TooOldStillStale(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(48 * time.Hour)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	now = now.Add(25 * time.Hour)

	if _, ok, _ := c.Get(ctx, "k", 24*time.Hour); ok {
		t.Error("Get(24h) ok = true, want false for 25h old entry")
	}
	got, ok, _ := c.Get(ctx, "k", 48*time.Hour)
	if !ok {
		t.Fatal("Get(48h) ok = false, want true")
	}
	if age := got.Age(now); age != 25*time.Hour {
		t.Errorf("Age() = %v, want 25h", age)
	}
}

// TestInMemoryCache_Get_PastRetention verifies that entries older than the
// retention are removed on access.
func TestInMemoryCache_Get_PastRetention(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(time.Hour)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"))
	now = now.Add(2 * time.Hour)

	if _, ok, _ := c.Get(ctx, "k", 24*time.Hour); ok {
		t.Error("Get() ok = true, want false past retention")
	}
	if _, exists := c.data["k"]; exists {
		t.Error("entry past retention should be deleted from cache")
	}
}

// TestInMemoryCache_SetCopiesValue verifies that later mutation of the caller's
// slice does not change the cached entry.
func TestInMemoryCache_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(0)
	val := []byte("abc")
	_ = c.Set(ctx, "k", val)
	val[0] = 'x'

	got, _, _ := c.Get(ctx, "k", time.Hour)
	if string(got.Data) != "abc" {
		t.Errorf("Get() = %q, want %q", got.Data, "abc")
	}
}

func TestInMemoryCache_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewInMemoryCache(time.Hour)
	if err := c.Set(ctx, "k", []byte("v")); err == nil {
		t.Error("Set() error = nil, want context error")
	}
	if _, _, err := c.Get(ctx, "k", time.Hour); err == nil {
		t.Error("Get() error = nil, want context error")
	}
}

func TestExpirationSeconds(t *testing.T) {
	tests := []struct {
		name      string
		retention time.Duration
		want      int32
	}{
		{name: "zero uses maximum", retention: 0, want: maxRelativeExp},
		{name: "two days", retention: 48 * time.Hour, want: 172800},
		{name: "beyond maximum", retention: 60 * 24 * time.Hour, want: maxRelativeExp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expirationSeconds(tt.retention); got != tt.want {
				t.Errorf("expirationSeconds(%v) = %d, want %d", tt.retention, got, tt.want)
			}
		})
	}
}

func TestParseAddrs(t *testing.T) {
	got := parseAddrs(" host1:11211, ,host2:11211 ")
	if len(got) != 2 || got[0] != "host1:11211" || got[1] != "host2:11211" {
		t.Errorf("parseAddrs() = %v", got)
	}
}
