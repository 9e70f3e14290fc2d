// Package cache keeps synthesized audio on disk so repeated requests for the
// same text and voice skip the backend.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileExt = ".audio"

// Cache is a disk-backed LRU cache bounded by total size in bytes.
type Cache struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	log      *slog.Logger
	entries  map[string]*entry
	size     int64
}

type entry struct {
	size     int64
	lastUsed time.Time
	path     string
}

// New opens a cache rooted at dir, creating it when needed, and indexes any
// audio files already present.
func New(dir string, maxBytes int64, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("cache: max size must be positive, got %d", maxBytes)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	c := &Cache{
		dir:      dir,
		maxBytes: maxBytes,
		log:      logger.With("component", "audio_cache"),
		entries:  make(map[string]*entry),
	}
	c.index()
	return c, nil
}

// Key derives the cache key for one synthesis request.
func Key(text, voice string, markup bool, format string) string {
	h := sha256.New()
	fmt.Fprintf(h, "voice=%s\nmarkup=%t\nformat=%s\ntext=%s", voice, markup, format, text)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached audio for key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		c.log.Warn("cache file unreadable, dropping entry", "key", key, "error", err)
		c.drop(key)
		return nil, false
	}
	e.lastUsed = time.Now()
	return data, true
}

// Put stores data under key, evicting least recently used entries to make
// room. Entries larger than the cache are skipped.
func (c *Cache) Put(key string, data []byte) error {
	n := int64(len(data))
	if n > c.maxBytes {
		c.log.Debug("entry larger than cache, not stored", "key", key, "size", n)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.drop(key)
	}
	c.evict(n)

	path := filepath.Join(c.dir, key+fileExt)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	c.entries[key] = &entry{size: n, lastUsed: time.Now(), path: path}
	c.size += n
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Size returns the total bytes held by the cache.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// drop removes key and its file. Must be called with mu held.
func (c *Cache) drop(key string) {
	e := c.entries[key]
	os.Remove(e.path)
	delete(c.entries, key)
	c.size -= e.size
}

// evict drops least recently used entries until needed more bytes fit.
// Must be called with mu held.
func (c *Cache) evict(needed int64) {
	for c.size+needed > c.maxBytes && len(c.entries) > 0 {
		var victim string
		var oldest time.Time
		for k, e := range c.entries {
			if victim == "" || e.lastUsed.Before(oldest) {
				victim, oldest = k, e.lastUsed
			}
		}
		c.log.Debug("evicting cache entry", "key", victim, "size", c.entries[victim].size)
		c.drop(victim)
	}
}

// index loads existing files using their modification time as last use.
func (c *Cache) index() {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+fileExt))
	if err != nil {
		c.log.Warn("cache: scan existing files", "error", err)
		return
	}
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(p), fileExt)
		c.entries[key] = &entry{size: info.Size(), lastUsed: info.ModTime(), path: p}
		c.size += info.Size()
	}
	if len(c.entries) > 0 {
		c.log.Info("indexed existing cache entries", "count", len(c.entries), "total_bytes", c.size)
		c.evict(0)
	}
}
