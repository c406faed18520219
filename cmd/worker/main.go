// Command worker consumes queued experiment runs, executes the quantifier,
// and persists each run's statistic and p-value.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"promptshift/internal/app"
	"promptshift/internal/httputil"
	"promptshift/internal/perturb"
	"promptshift/internal/queue"
	"promptshift/internal/stats"
	"promptshift/internal/store"
)

type runTaskPayload struct {
	ExperimentID uuid.UUID `json:"experiment_id"`
	Seed         int64     `json:"seed"`
}

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("run worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeRun, func(ctx context.Context, task queue.Task) error {
			var payload runTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleRun(ctx, deps, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, deps.Config.Port, "worker")
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("worker stopped", "err", err)
	}
}

func handleRun(ctx context.Context, deps app.WorkerDeps, payload runTaskPayload) error {
	exp, err := deps.Store.GetExperiment(ctx, payload.ExperimentID)
	if err != nil {
		return fmt.Errorf("load experiment %s: %w", payload.ExperimentID, err)
	}
	if err := deps.Store.UpdateExperimentStatus(ctx, exp.ID, store.StatusRunning); err != nil {
		return err
	}

	req, err := experimentRequest(deps, exp)
	if err != nil {
		markFailed(ctx, deps, exp.ID, err)
		return err
	}

	rng := rand.New(rand.NewSource(payload.Seed))
	outcome, err := deps.Quantifier.Quantify(ctx, rng, req)
	if err != nil {
		markFailed(ctx, deps, exp.ID, err)
		return fmt.Errorf("experiment %s: %w", exp.ID, err)
	}

	if _, err := deps.Store.SaveResult(ctx, store.RunResult{
		ExperimentID:  exp.ID,
		Statistic:     outcome.Statistic,
		PValue:        outcome.PValue,
		Seed:          payload.Seed,
		PerturbedText: outcome.PerturbedText,
	}); err != nil {
		markFailed(ctx, deps, exp.ID, err)
		return err
	}
	if err := deps.Store.UpdateExperimentStatus(ctx, exp.ID, store.StatusDone); err != nil {
		return err
	}

	deps.Log.Info("experiment run completed",
		"experiment_id", exp.ID,
		"statistic", outcome.Statistic,
		"p_value", outcome.PValue,
		"seed", payload.Seed,
	)
	return nil
}

func experimentRequest(deps app.WorkerDeps, exp store.Experiment) (perturb.Request, error) {
	changes, err := perturb.ParsePairs(exp.Changes)
	if err != nil {
		return perturb.Request{}, fmt.Errorf("experiment %s: %w", exp.ID, err)
	}
	return perturb.Request{
		Text:         exp.Text,
		Changes:      changes,
		Method:       perturb.Method(exp.Method),
		Distance:     stats.Metric(exp.Distance),
		Permutations: exp.Permutations,
		Samples:      exp.Samples,
		Bins:         deps.Config.Bins,
		Workers:      deps.Config.StatWorkers,
	}, nil
}

func markFailed(ctx context.Context, deps app.WorkerDeps, id uuid.UUID, cause error) {
	if err := deps.Store.UpdateExperimentStatus(ctx, id, store.StatusFailed); err != nil {
		deps.Log.Error("failed to mark experiment failed", "experiment_id", id, "err", err, "cause", cause)
	}
}
