package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"youtube-card/domain/repository"

	"github.com/redis/go-redis/v9"
)

type metadataCache struct {
	client redis.Cmdable
}

// NewMetadataCache stores entries as plain Redis strings with EX expiry.
func NewMetadataCache(client redis.Cmdable) repository.IMetadataCache {
	return &metadataCache{client: client}
}

func (c *metadataCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (c *metadataCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("redis set %s: ttl must be positive", key)
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *metadataCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
