package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/dressrental/internal/domain"
)

const (
	catalogKeyPrefix = "catalog:list:"
	catalogKeySet    = "catalog:keys"
)

// CatalogCache implements repository.CatalogCache using Redis. Every cached
// listing key is tracked in a set so that Invalidate can drop them together.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a new Redis-backed catalogue listing cache.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached listing for key. The bool is false on a miss.
func (c *CatalogCache) Get(ctx context.Context, key string) ([]domain.Dress, bool, error) {
	data, err := c.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get catalog: %w", err)
	}

	var dresses []domain.Dress
	if err := json.Unmarshal(data, &dresses); err != nil {
		return nil, false, fmt.Errorf("unmarshal catalog: %w", err)
	}

	return dresses, true, nil
}

// Set caches a listing under key with the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, key string, dresses []domain.Dress) error {
	if dresses == nil {
		dresses = []domain.Dress{}
	}
	data, err := json.Marshal(dresses)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, catalogKeyPrefix+key, data, c.ttl)
	pipe.SAdd(ctx, catalogKeySet, key)
	pipe.Expire(ctx, catalogKeySet, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set catalog: %w", err)
	}

	return nil
}

// Invalidate drops every cached listing.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, catalogKeySet).Result()
	if err != nil {
		return fmt.Errorf("redis list catalog keys: %w", err)
	}

	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, catalogKeyPrefix+k)
	}
	del = append(del, catalogKeySet)

	if err := c.client.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("redis del catalog: %w", err)
	}

	return nil
}
