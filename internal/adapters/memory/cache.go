// Package memory provides the in-process cache backend used when no Valkey
// URL is configured.
package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/samirrijal/skywatch/internal/core/ports"
)

// Cache is a bounded TTL cache. When full, the least recently used entry is
// evicted.
type Cache struct {
	store *ttlcache.Cache[string, []byte]
}

// New creates a cache holding at most maxEntries values and starts its
// background expiry loop. Call Close to stop it.
func New(maxEntries int) *Cache {
	store := ttlcache.New[string, []byte](
		ttlcache.WithCapacity[string, []byte](uint64(maxEntries)),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go store.Start()
	return &Cache{store: store}
}

var _ ports.CacheStore = (*Cache)(nil)

// Get returns the value for key. Expired entries are never returned.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	item := c.store.Get(key)
	if item == nil || item.IsExpired() {
		return nil, ports.ErrCacheMiss
	}
	return item.Value(), nil
}

// Set stores value for ttl.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

// Flush drops every entry.
func (c *Cache) Flush(context.Context) error {
	c.store.DeleteAll()
	return nil
}

// Ping always succeeds.
func (c *Cache) Ping(context.Context) error { return nil }

// Len returns the number of stored entries, including not yet swept ones.
func (c *Cache) Len() int { return c.store.Len() }

// Close stops the expiry loop.
func (c *Cache) Close() { c.store.Stop() }
