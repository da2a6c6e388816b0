package projects

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "projects:aggregate:"

// Cache is a read-through Redis cache for single project aggregates.
// Mutators invalidate per-id keys rather than versioning the whole
// namespace because the aggregate is the only cached shape.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// FetchProject returns the cached aggregate or populates it using the
// loader. Loader errors are returned as-is and never cached.
func (c *Cache) FetchProject(ctx context.Context, id string, loader func(context.Context) (Project, error)) (Project, error) {
	if loader == nil {
		return Project{}, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := cacheKeyPrefix + id
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var p Project
		if err := json.Unmarshal(payload, &p); err == nil {
			return p, nil
		}
		// Undecodable entry: fall through and repopulate.
	} else if err != redis.Nil {
		return Project{}, err
	}
	p, err := loader(ctx)
	if err != nil {
		return Project{}, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Project{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Invalidate drops the cached aggregate for the given id.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKeyPrefix+id).Err()
}
