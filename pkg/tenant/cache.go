package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache is the interface for tenant descriptor caching. The router checks
// the cache before hitting the registry on every request.
type Cache interface {
	// Get retrieves a tenant from cache by key.
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a tenant in cache with the given TTL.
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)

	// Delete removes a tenant from cache.
	Delete(ctx context.Context, key string)

	// Close releases any resources held by the cache.
	Close() error
}

// DefaultCacheSize is the default maximum number of cached descriptors.
const DefaultCacheSize = 1000

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// inMemoryCache is the default in-process cache with TTL expiry and LRU
// eviction.
type inMemoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	lru     []string
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewInMemoryCache creates an in-memory cache with automatic cleanup.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates an in-memory cache with a size limit.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	c := &inMemoryCache{
		items:   make(map[string]cacheItem),
		lru:     make([]string, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *inMemoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, key)
		c.removeLRU(key)
		return nil, false
	}

	c.touchLRU(key)
	t := *item.tenant
	return &t, true
}

func (c *inMemoryCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize && len(c.lru) > 0 {
		evict := c.lru[0]
		delete(c.items, evict)
		c.lru = c.lru[1:]
	}

	// Store and serve copies: the cached descriptor is shared across
	// requests, and a caller mutating its copy must not poison the cache.
	cp := *t
	c.items[key] = cacheItem{tenant: &cp, expiresAt: time.Now().Add(ttl)}
	c.touchLRU(key)
}

func (c *inMemoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.removeLRU(key)
}

func (c *inMemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

func (c *inMemoryCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *inMemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			c.removeLRU(key)
		}
	}
}

func (c *inMemoryCache) touchLRU(key string) {
	c.removeLRU(key)
	c.lru = append(c.lru, key)
}

func (c *inMemoryCache) removeLRU(key string) {
	for i, k := range c.lru {
		if k == key {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

// noOpCache disables caching; every lookup goes to the registry.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache.
func NewNoOpCache() Cache { return &noOpCache{} }

func (noOpCache) Get(ctx context.Context, key string) (*Tenant, bool)               { return nil, false }
func (noOpCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {}
func (noOpCache) Delete(ctx context.Context, key string)                            {}
func (noOpCache) Close() error                                                      { return nil }
