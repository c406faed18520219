package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"promptshift/internal/embeddings"
)

// Key prefix for cached embedding groups
const groupKeyPrefix = "embgroup:"

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

// GetGroup retrieves a cached embedding group by key
func (c *RedisCache) GetGroup(ctx context.Context, key string) ([]embeddings.Vector, error) {
	data, err := c.client.Get(ctx, groupKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var group []embeddings.Vector
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, err
	}
	return group, nil
}

// SetGroup stores an embedding group with TTL
func (c *RedisCache) SetGroup(ctx context.Context, key string, group []embeddings.Vector, ttl time.Duration) error {
	data, err := json.Marshal(group)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, groupKeyPrefix+key, data, ttl).Err()
}

// Close closes the cache connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
