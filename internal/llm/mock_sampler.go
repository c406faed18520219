package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSampler is a mock implementation of Sampler using testify/mock.
type MockSampler struct {
	mock.Mock
}

func (m *MockSampler) Sample(ctx context.Context, prompt string, n int) ([]string, error) {
	args := m.Called(ctx, prompt, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
