package menus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "menus:catalog"

// Cache keeps a Redis snapshot of the whole catalog. Concurrent rebuilds on
// a cold key collapse into one repository round trip.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs a catalog cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Catalog returns the cached catalog, rebuilding it through load on a miss.
func (c *Cache) Catalog(ctx context.Context, load func(context.Context) ([]Menu, error)) ([]Menu, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}

	payload, err := c.client.Get(ctx, catalogKey).Bytes()
	if err == nil {
		var menus []Menu
		if err := json.Unmarshal(payload, &menus); err == nil {
			return menus, nil
		}
		// Corrupt payload, drop it and rebuild.
		_ = c.client.Del(ctx, catalogKey).Err()
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	resultChan := c.group.DoChan(catalogKey, func() (interface{}, error) {
		menus, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(menus); err == nil {
			_ = c.client.Set(ctx, catalogKey, payload, c.ttl).Err()
		}
		return menus, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Menu), nil
	}
}

// Invalidate drops the cached snapshot after a catalog write.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, catalogKey).Err()
}
