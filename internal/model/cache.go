package model

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/logger"
)

// Cache keeps loaded models keyed by absolute path. An entry is reused
// while the file's size and modification time are unchanged. A rewrite that
// keeps the size within the filesystem's mtime granularity is not detected;
// callers that know the file changed call Invalidate first.
type Cache struct {
	opts Options

	mu      sync.Mutex
	entries map[string]cacheEntry

	// Stats
	hits   int
	misses int
}

type cacheEntry struct {
	model   *Model
	size    int64
	modTime time.Time
}

// NewCache creates a cache that loads with opts.
func NewCache(opts Options) *Cache {
	return &Cache{
		opts:    opts,
		entries: make(map[string]cacheEntry),
	}
}

// Load returns the cached model for path, reloading it when the file changed.
func (c *Cache) Load(path string) (*Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	e, ok := c.entries[abs]
	if ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		c.hits++
		c.mu.Unlock()
		return e.model, nil
	}
	c.misses++
	c.mu.Unlock()

	m, err := LoadFile(abs, c.opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[abs] = cacheEntry{model: m, size: info.Size(), modTime: info.ModTime()}
	c.mu.Unlock()

	logger.Debug("model cached", zap.String("path", abs), zap.Bool("replaced", ok))
	return m, nil
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, abs)
	c.mu.Unlock()
}

// Clear drops every entry and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
