package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"candlebliss-api/internal/metrics"
)

const (
	keyProducts = "catalog:products"
	keyPrices   = "catalog:prices"
	keyGifts    = "catalog:gifts"
)

// Cache keeps raw backend lists in Redis. Concurrent misses for the same key
// share one backend call. A failing Redis degrades to direct loads.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewCache instantiates the cache; a nil client disables caching
func NewCache(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{client: client, ttl: ttl, metrics: m}
}

// FetchJSON loads a cached value into dest or populates it using the loader
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}

	if c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(payload, dest); jsonErr == nil {
				c.metrics.CacheHit(key)
				return nil
			}
			log.Printf("[Catalog] Discarding undecodable cache entry %s", key)
		case errors.Is(err, redis.Nil):
		default:
			c.metrics.CacheError(key)
			log.Printf("[Catalog] Cache read %s failed: %v", key, err)
		}
	}
	c.metrics.CacheMiss(key)

	raw, err := c.load(ctx, key, loader)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// load runs the loader once per key for all concurrent callers. The shared
// call is detached from the first caller's cancellation; each caller still
// stops waiting when its own ctx is done.
func (c *Cache) load(ctx context.Context, key string, loader func(context.Context) (interface{}, error)) ([]byte, error) {
	detached := context.WithoutCancel(ctx)
	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		value, err := loader(detached)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		c.store(detached, key, raw)
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Refresh reloads a key unconditionally
func (c *Cache) Refresh(ctx context.Context, key string, loader func(context.Context) (interface{}, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	c.store(ctx, key, raw)
	return nil
}

// Invalidate drops keys so the next read reloads them
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

func (c *Cache) store(ctx context.Context, key string, raw []byte) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.metrics.CacheError(key)
		log.Printf("[Catalog] Cache write %s failed: %v", key, err)
	}
}
