package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "books", want: "books"},
		{key: "osm:CH:shop=books", want: "osm_CH_shop_books"},
		{key: "zueri/72", want: "zueri_72"},
		{key: "ev.status", want: "ev.status"},
		{key: "../etc/passwd", want: "_._etc_passwd"},
		{key: "", want: "_"},
		{key: "Zürich", want: "Z_rich"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := SanitizeKey(tt.key); got != tt.want {
				t.Errorf("SanitizeKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// TestNewFileCache_CreatesDir verifies that the cache directory is created when absent.
func TestNewFileCache_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temp")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	if err := c.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

func TestNewFileCache_EmptyDir(t *testing.T) {
	if _, err := NewFileCache(""); err == nil {
		t.Error("NewFileCache(\"\") error = nil, want error")
	}
}

// TestFileCache_SetGet verifies round trip through the file and the file name.
func TestFileCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := c.Set(ctx, "osm:CH:shop=books", []byte(`{"names":[]}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(c.Dir(), "osm_CH_shop_books.json")); err != nil {
		t.Fatalf("expected cache file: %v", err)
	}

	got, ok, err := c.Get(ctx, "osm:CH:shop=books", 24*time.Hour)
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v; want hit", ok, err)
	}
	if string(got.Data) != `{"names":[]}` {
		t.Errorf("Get() = %s", got.Data)
	}
}

// TestFileCache_Freshness verifies the modification-time window: a file
// younger than maxAge is reused, an older one is a miss.
func TestFileCache_Freshness(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "books", []byte("[]"))

	old := time.Now().Add(-25 * time.Hour)
	if err := os.Chtimes(c.Path("books"), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, ok, _ := c.Get(ctx, "books", 24*time.Hour); ok {
		t.Error("Get(24h) ok = true, want false for 25h old file")
	}
	got, ok, _ := c.Get(ctx, "books", 7*24*time.Hour)
	if !ok {
		t.Fatal("Get(7d) ok = false, want stale hit")
	}
	if got.Age(time.Now()) < 25*time.Hour {
		t.Errorf("Age() = %v, want >= 25h", got.Age(time.Now()))
	}
}

func TestFileCache_Get_Miss(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	_, ok, err := c.Get(context.Background(), "missing", time.Hour)
	if err != nil || ok {
		t.Errorf("Get() = ok %v, err %v; want miss without error", ok, err)
	}
}

// TestFileCache_Set_Overwrites verifies that Set replaces the file and leaves no temp files.
func TestFileCache_Set_Overwrites(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("one"))
	_ = c.Set(ctx, "k", []byte("two"))

	got, _, _ := c.Get(ctx, "k", time.Hour)
	if string(got.Data) != "two" {
		t.Errorf("Get() = %q, want %q", got.Data, "two")
	}
	entries, _ := os.ReadDir(c.Dir())
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestFileCache_Ping_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	c, _ := NewFileCache(dir)
	_ = os.RemoveAll(dir)
	if err := c.Ping(); err == nil {
		t.Error("Ping() error = nil, want error for removed dir")
	}
}
