package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateExperiment(ctx context.Context, exp Experiment) (Experiment, error) {
	args := m.Called(ctx, exp)
	return args.Get(0).(Experiment), args.Error(1)
}

func (m *MockStore) GetExperiment(ctx context.Context, id uuid.UUID) (Experiment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Experiment), args.Error(1)
}

func (m *MockStore) UpdateExperimentStatus(ctx context.Context, id uuid.UUID, status ExperimentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SaveResult(ctx context.Context, res RunResult) (RunResult, error) {
	args := m.Called(ctx, res)
	return args.Get(0).(RunResult), args.Error(1)
}

func (m *MockStore) ListResults(ctx context.Context, experimentID uuid.UUID) ([]RunResult, error) {
	args := m.Called(ctx, experimentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RunResult), args.Error(1)
}
