package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache implements Cache as one JSON file per key in a directory.
// Freshness is the file modification time, so entries survive restarts and
// can be inspected or seeded by hand.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates dir if absent and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// Path returns the file backing key.
func (c *FileCache) Path(key string) string {
	return filepath.Join(c.dir, SanitizeKey(key)+".json")
}

// Get returns the file contents when the file exists and its age is below maxAge.
func (c *FileCache) Get(ctx context.Context, key string, maxAge time.Duration) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	path := c.Path(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	if c.now().Sub(info.ModTime()) >= maxAge {
		return Entry{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return Entry{Data: data, StoredAt: info.ModTime()}, true, nil
}

// Set writes value to a temp file in the cache directory and renames it into
// place, so readers never observe a partial file.
func (c *FileCache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.Path(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Ping reports whether the cache directory is still present.
func (c *FileCache) Ping() error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.dir)
	}
	return nil
}

// SanitizeKey maps a cache key to a safe file name: letters, digits, '-', '_'
// and '.' are kept, everything else becomes '_'. Leading dots are replaced so
// keys never collide with temp files.
func SanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
