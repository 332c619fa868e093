package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Cache wraps an Embedder with a content-addressed vector cache. Keys are the
// SHA-256 of the exact text, so any edit to a chunk produces a fresh provider
// call while unchanged chunks are free on re-ingestion.
type Cache struct {
	inner Embedder
	path  string
	log   *zap.Logger

	mu      sync.Mutex
	entries map[string][]float32
	dirty   bool
}

// NewCache returns a caching embedder persisting to path. Call Load before
// first use to pick up vectors from a previous run.
func NewCache(inner Embedder, path string, log *zap.Logger) *Cache {
	return &Cache{
		inner:   inner,
		path:    path,
		log:     log,
		entries: make(map[string][]float32),
	}
}

// Load reads the persisted cache file. A missing file is a cold cache, not an
// error.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading embedding cache %s: %w", c.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return fmt.Errorf("parsing embedding cache %s: %w", c.path, err)
	}
	c.log.Debug("loaded embedding cache", zap.String("path", c.path), zap.Int("entries", len(c.entries)))
	return nil
}

func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := hashText(text)

	c.mu.Lock()
	if vec, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return vec, nil
	}
	c.mu.Unlock()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = vec
	c.dirty = true
	c.mu.Unlock()

	return vec, nil
}

func (c *Cache) Dimensions() int {
	return c.inner.Dimensions()
}

// Flush writes the cache to disk if anything was added since the last flush.
// The file is written to a temp path then renamed so a crash mid-write never
// leaves a truncated cache behind.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encoding embedding cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing embedding cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing embedding cache: %w", err)
	}

	c.dirty = false
	c.log.Debug("flushed embedding cache", zap.String("path", c.path), zap.Int("entries", len(c.entries)))
	return nil
}

// Close flushes pending entries and closes the wrapped embedder.
func (c *Cache) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	return c.inner.Close()
}

// Len reports the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
