package storage

import (
	"encoding/json"
	"os"
	"time"

	"github.com/maypok86/otter/v2"
)

// Cache wraps otter with optional JSON persistence. Capacity 0 means
// unbounded, ttl 0 means entries never expire; the translation cache
// runs with both at 0 and lives for the process lifetime.
type Cache[T any] struct {
	outer *otter.Cache[string, T]

	persist   bool
	filePath  string
	stopFlush chan struct{}
}

func NewCache[T any](capacity int, ttl time.Duration, persist bool, filePath string, flushInterval time.Duration) *Cache[T] {
	c := &Cache[T]{
		persist:   persist,
		filePath:  filePath,
		stopFlush: make(chan struct{}),
	}

	opts := &otter.Options[string, T]{}
	if capacity > 0 {
		opts.MaximumSize = capacity
	}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryAccessing[string, T](ttl)
	}
	c.outer = otter.Must(opts)

	if c.persist && c.filePath != "" {
		_ = c.loadFromDisk()

		if flushInterval > 0 {
			go c.periodicFlush(flushInterval)
		}
	}

	return c
}

func (c *Cache[T]) Set(key string, val T) {
	c.outer.Set(key, val)
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.outer.GetIfPresent(key)
}

func (c *Cache[T]) Len() int {
	return c.outer.EstimatedSize()
}

func (c *Cache[T]) ClearAll() {
	c.outer.InvalidateAll()
}

func (c *Cache[T]) FlushToDisk() {
	if !c.persist || c.filePath == "" {
		return
	}

	cacheData := make(map[string]T)
	for k, v := range c.outer.All() {
		cacheData[k] = v
	}

	data, err := json.MarshalIndent(cacheData, "", "  ")
	if err != nil {
		return
	}

	_ = os.WriteFile(c.filePath, data, 0600)
}

func (c *Cache[T]) periodicFlush(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.FlushToDisk()
		case <-c.stopFlush:
			return
		}
	}
}

func (c *Cache[T]) loadFromDisk() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	var items map[string]T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	for k, v := range items {
		c.outer.Set(k, v)
	}

	return nil
}

func (c *Cache[T]) Close() {
	close(c.stopFlush)
	c.FlushToDisk()
}
