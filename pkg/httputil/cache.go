package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const appName = "cookgems"

// ErrExpired is returned by [Cache.Get] when an entry exists but is older
// than the cache TTL. Callers should refetch and [Cache.Set] the result.
var ErrExpired = errors.New("cache entry expired")

// Cache stores JSON-encodable values as files named by the SHA-256 of
// their key. Entry age is the file modification time; a TTL of 0 means
// entries never expire.
//
// A Cache is not goroutine-safe, but several instances may share a
// directory.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// DefaultDir returns $XDG_CACHE_HOME/cookgems, or ~/.cache/cookgems.
func DefaultDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// NewCache creates a cache in dir, or in [DefaultDir] when dir is empty.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get decodes the entry for key into v. It reports (false, nil) on a miss
// and (false, ErrExpired) for a stale entry. A nil Cache always misses.
func (c *Cache) Get(key string, v any) (bool, error) {
	if c == nil {
		return false, nil
	}
	path := c.keyPath(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = os.Remove(path)
		return false, nil
	}
	return true, nil
}

// Set stores v under key, refreshing its age. A nil Cache discards it.
func (c *Cache) Set(key string, v any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), data, 0o644)
}

// Namespace returns a view of the cache whose keys are prefixed.
func (c *Cache) Namespace(prefix string) *Cache {
	if c == nil {
		return nil
	}
	return &Cache{dir: c.dir, ttl: c.ttl, prefix: c.prefix + prefix}
}

// Clear removes every entry and reports how many were removed.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
			n++
		}
	}
	return n, nil
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(c.prefix + key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
