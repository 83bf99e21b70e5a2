// Package cache is the process-wide read cache: a bounded TTL+LRU
// mapping with substring pattern invalidation. Invalidation is
// deliberately coarse; the sync job clears supersets of the keys an
// entity change could affect.
package cache

import (
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type Cache struct {
	items *ttlcache.Cache[string, any]
}

// New builds a cache holding at most maxSize entries, each expiring
// after ttl. Entries are evicted least-recently-set first when full.
func New(maxSize int, ttl time.Duration) *Cache {
	items := ttlcache.New[string, any](
		ttlcache.WithTTL[string, any](ttl),
		ttlcache.WithCapacity[string, any](uint64(maxSize)),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	go items.Start()
	return &Cache{items: items}
}

// Close stops the expiry loop. The cache may be re-created afterwards;
// tests rely on that.
func (c *Cache) Close() {
	c.items.Stop()
}

// Key joins the non-empty parts with ":".
func Key(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}

func (c *Cache) Get(key string) (any, bool) {
	item := c.items.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (c *Cache) Set(key string, value any) {
	c.items.Set(key, value, ttlcache.DefaultTTL)
}

// SetWithTTL stores an entry with its own lifetime; branded OG images
// use a longer one than list responses.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.items.Set(key, value, ttl)
}

func (c *Cache) Len() int {
	return c.items.Len()
}

func (c *Cache) ClearAll() {
	c.items.DeleteAll()
}

// ClearByPattern evicts every entry whose key contains the pattern as a
// substring and returns the number evicted.
func (c *Cache) ClearByPattern(pattern string) int {
	evicted := 0
	for _, key := range c.items.Keys() {
		if strings.Contains(key, pattern) {
			c.items.Delete(key)
			evicted++
		}
	}
	return evicted
}

// InvalidateSpec clears everything a spec change could affect.
func (c *Cache) InvalidateSpec(specID string) int {
	evicted := 0
	for _, pattern := range []string{
		Key("spec", specID),
		Key("spec_images", specID),
		"specs_list",
		"filter:",
		"stats",
	} {
		evicted += c.ClearByPattern(pattern)
	}
	return evicted
}

// InvalidateLibrary clears everything a library change could affect.
func (c *Cache) InvalidateLibrary(libraryID string) int {
	evicted := 0
	for _, pattern := range []string{
		Key("lib_images", libraryID),
		"libraries",
		"filter:",
		"stats",
	} {
		evicted += c.ClearByPattern(pattern)
	}
	return evicted
}
