package perturb

import (
	"context"
	"math/rand"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of Runner using testify/mock.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Quantify(ctx context.Context, rng *rand.Rand, req Request) (Outcome, error) {
	args := m.Called(ctx, rng, req)
	return args.Get(0).(Outcome), args.Error(1)
}
