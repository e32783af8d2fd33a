package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares resolved tenant descriptors across service instances.
// Descriptors are stored as JSON under a common key prefix; Redis handles
// expiry, so there is no local cleanup loop.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed tenant cache. The prefix namespaces
// keys so several environments can share one Redis instance.
func NewRedisCache(client *redis.Client, prefix string) Cache {
	if prefix == "" {
		prefix = "tenant:"
	}
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var t redisTenant
	if err := json.Unmarshal(raw, &t); err != nil {
		// A corrupt entry behaves like a miss; the registry remains the
		// source of truth and will repopulate it.
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, false
	}
	return t.toTenant(), true
}

func (c *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	raw, err := json.Marshal(fromTenant(t))
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, c.prefix+key).Err()
}

func (c *redisCache) Close() error { return nil }

// redisTenant is the cache wire format. Tenant itself hides the schema name
// from JSON on purpose, so the cache needs its own shape that keeps it.
type redisTenant struct {
	Tenant
	Schema string `json:"schema"`
}

func fromTenant(t *Tenant) redisTenant {
	return redisTenant{Tenant: *t, Schema: t.Schema}
}

func (rt redisTenant) toTenant() *Tenant {
	t := rt.Tenant
	t.Schema = rt.Schema
	return &t
}
