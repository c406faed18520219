package cache

import (
	"context"
	"time"

	"promptshift/internal/embeddings"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetGroup always returns nil (cache miss)
func (c *NoOpCache) GetGroup(ctx context.Context, key string) ([]embeddings.Vector, error) {
	return nil, nil
}

// SetGroup does nothing and always succeeds
func (c *NoOpCache) SetGroup(ctx context.Context, key string, group []embeddings.Vector, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
