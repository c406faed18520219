package embeddings

import "context"

// Vector is a fixed-dimension embedding as returned by the backend.
type Vector []float32

// Embedder turns a batch of texts into one vector per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
}
