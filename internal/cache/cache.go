package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"promptshift/internal/embeddings"
)

// Cache stores embedding groups for sampled prompts so repeated comparisons
// against the same prompt skip the generation and embedding calls.
type Cache interface {
	// GetGroup retrieves a cached embedding group by key.
	// Returns nil, nil if not found.
	GetGroup(ctx context.Context, key string) ([]embeddings.Vector, error)

	// SetGroup stores an embedding group with TTL.
	SetGroup(ctx context.Context, key string, group []embeddings.Vector, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// GroupKey derives a cache key from the model namespace, the prompt, and the
// sample count. Any of the three changing must yield a different key.
func GroupKey(namespace, prompt string, samples int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", namespace, samples, prompt)))
	return hex.EncodeToString(sum[:])
}
