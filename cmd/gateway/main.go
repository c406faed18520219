// Command gateway exposes the perturbation quantifier over HTTP: a
// synchronous endpoint for one-off comparisons and stored experiments that
// are dispatched to run workers.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"promptshift/internal/app"
	"promptshift/internal/httputil"
	"promptshift/internal/perturb"
	"promptshift/internal/queue"
	"promptshift/internal/stats"
	"promptshift/internal/store"
)

type quantifyRequest struct {
	Text         string            `json:"text" validate:"required,min=1,max=10000"`
	Changes      map[string]string `json:"changes" validate:"required,min=1"`
	Method       string            `json:"method" validate:"omitempty,oneof=energy jsd"`
	Distance     string            `json:"distance" validate:"omitempty,oneof=cosine l1 l2"`
	Permutations int               `json:"permutations" validate:"omitempty,min=1,max=100000"`
	Samples      int               `json:"samples" validate:"omitempty,min=2,max=200"`
	Seed         int64             `json:"seed"`
}

type runTaskPayload struct {
	ExperimentID uuid.UUID `json:"experiment_id"`
	Seed         int64     `json:"seed"`
}

func main() {
	deps, err := app.BuildGateway()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/quantify", quantifyHandler(deps))
	r.Post("/api/experiments", createExperimentHandler(deps))
	r.Get("/api/experiments/{id}", getExperimentHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

// quantifyHandler runs a comparison synchronously and returns the outcome.
func quantifyHandler(deps app.GatewayDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuantifyRequest(deps, w, r)
		if !ok {
			return
		}

		outcome, err := deps.Quantifier.Quantify(r.Context(), newRng(req.Seed), toPerturbRequest(deps, req))
		if err != nil {
			httputil.Fail(deps.Log, w, "quantification failed", err, http.StatusBadGateway)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, outcome)
	}
}

// createExperimentHandler stores the request and enqueues a run task for the
// workers, returning 202 with the experiment ID.
func createExperimentHandler(deps app.GatewayDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuantifyRequest(deps, w, r)
		if !ok {
			return
		}
		ctx := r.Context()

		pr := toPerturbRequest(deps, req)
		exp, err := deps.Store.CreateExperiment(ctx, store.Experiment{
			Text:         pr.Text,
			Changes:      pr.Changes.Pairs(),
			Method:       string(pr.Method),
			Distance:     string(pr.Distance),
			Permutations: pr.Permutations,
			Samples:      pr.Samples,
		})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to store experiment", err, http.StatusInternalServerError)
			return
		}

		seed := req.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		payload, err := json.Marshal(runTaskPayload{ExperimentID: exp.ID, Seed: seed})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to encode task", err, http.StatusInternalServerError)
			return
		}
		task := queue.Task{Type: queue.TaskTypeRun, Payload: payload, MaxAttempts: 3}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			httputil.Fail(deps.Log, w, "failed to enqueue run", err, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"experiment_id": exp.ID,
			"status":        exp.Status,
		})
	}
}

func getExperimentHandler(deps app.GatewayDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid experiment id", err, http.StatusBadRequest)
			return
		}
		ctx := r.Context()

		exp, err := deps.Store.GetExperiment(ctx, id)
		if err == store.ErrExperimentNotFound {
			httputil.Fail(deps.Log, w, "experiment not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load experiment", err, http.StatusInternalServerError)
			return
		}
		results, err := deps.Store.ListResults(ctx, id)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load results", err, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"experiment": exp,
			"results":    results,
		})
	}
}

func decodeQuantifyRequest(deps app.GatewayDeps, w http.ResponseWriter, r *http.Request) (quantifyRequest, bool) {
	var req quantifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
		return quantifyRequest{}, false
	}
	if err := httputil.Validator.Struct(&req); err != nil {
		httputil.ValidationError(deps.Log, w, err)
		return quantifyRequest{}, false
	}
	if req.Method == "" {
		req.Method = string(perturb.MethodEnergy)
	}
	return req, true
}

func toPerturbRequest(deps app.GatewayDeps, req quantifyRequest) perturb.Request {
	permutations := req.Permutations
	if permutations <= 0 {
		permutations = deps.Config.Permutations
	}
	samples := req.Samples
	if samples <= 0 {
		samples = deps.Config.Samples
	}
	return perturb.Request{
		Text:         req.Text,
		Changes:      perturb.Changes(req.Changes),
		Method:       perturb.Method(req.Method),
		Distance:     stats.Metric(req.Distance),
		Permutations: permutations,
		Samples:      samples,
		Bins:         deps.Config.Bins,
		Workers:      deps.Config.StatWorkers,
	}
}

func newRng(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
