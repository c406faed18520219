package llm

import "context"

// Sampler draws repeated completions for a single prompt so that the spread
// of the model's output distribution can be measured.
type Sampler interface {
	Sample(ctx context.Context, prompt string, n int) ([]string, error)
}
