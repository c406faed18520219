package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type ExperimentStatus string

const (
	StatusPending ExperimentStatus = "pending"
	StatusRunning ExperimentStatus = "running"
	StatusDone    ExperimentStatus = "done"
	StatusFailed  ExperimentStatus = "failed"
)

var ErrExperimentNotFound = errors.New("experiment not found")

// Experiment is one stored perturbation comparison request.
type Experiment struct {
	ID   uuid.UUID
	Text string
	// Changes holds alternating original/replacement phrase tokens.
	Changes      []string
	Method       string
	Distance     string
	Permutations int
	Samples      int
	Status       ExperimentStatus
	CreatedAt    time.Time
}

// RunResult is one completed execution of an experiment. An experiment can
// accumulate several runs under different seeds.
type RunResult struct {
	ID            uuid.UUID
	ExperimentID  uuid.UUID
	Statistic     float64
	PValue        float64
	Seed          int64
	PerturbedText string
	CompletedAt   time.Time
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateExperiment(ctx context.Context, exp Experiment) (Experiment, error)
	GetExperiment(ctx context.Context, id uuid.UUID) (Experiment, error)
	UpdateExperimentStatus(ctx context.Context, id uuid.UUID, status ExperimentStatus) error
	SaveResult(ctx context.Context, res RunResult) (RunResult, error)
	ListResults(ctx context.Context, experimentID uuid.UUID) ([]RunResult, error)
}
