// Package cache provides the layered (memory + disk) byte cache used for
// language-model responses. Identical prompts against identical content are
// common (re-analysis after a crash, dedup near-misses) and skipping the
// round trip is far cheaper than paying for it twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL-bounded byte store.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResponseKey derives the cache key for one completion request. Everything
// that changes the response participates in the digest.
func ResponseKey(model, system, prompt string, temperature float32) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%.2f", model, system, prompt, temperature)))
	return "pagesift:v1:" + hex.EncodeToString(sum[:])
}

// MemoryCache is the in-process layer.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache with the given default TTL.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

// Layered checks memory first and falls back to disk, promoting disk hits
// back into memory.
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered creates a memory+disk cache rooted at dir.
func NewLayered(memoryTTL time.Duration, dir string, diskTTL time.Duration) *Layered {
	return &Layered{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(dir, diskTTL),
	}
}

func (c *Layered) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}
	if val, found := c.disk.Get(key); found {
		c.memory.Set(key, val, 0)
		return val, true
	}
	return nil, false
}

func (c *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

func (c *Layered) Delete(key string) error {
	c.memory.Delete(key)
	c.disk.Delete(key)
	return nil
}

func (c *Layered) Clear() error {
	c.memory.Clear()
	return c.disk.Clear()
}
