package perturb

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"promptshift/internal/cache"
	"promptshift/internal/embeddings"
	"promptshift/internal/llm"
	"promptshift/internal/stats"
)

// Quantifier wires the external sampling and embedding collaborators to the
// statistical engine.
type Quantifier struct {
	sampler  llm.Sampler
	embedder embeddings.Embedder
	cache    cache.Cache
	log      *slog.Logger

	// namespace scopes cache keys to the generation/embedding model pair.
	namespace string
	cacheTTL  time.Duration
}

// QuantifierOptions carries the cache scoping knobs.
type QuantifierOptions struct {
	CacheNamespace string
	CacheTTL       time.Duration
}

// NewQuantifier builds a quantifier. The cache may be a NoOpCache when no
// Redis is configured.
func NewQuantifier(log *slog.Logger, sampler llm.Sampler, embedder embeddings.Embedder, groupCache cache.Cache, opts QuantifierOptions) *Quantifier {
	if groupCache == nil {
		groupCache = cache.NewNoOpCache()
	}
	return &Quantifier{
		sampler:   sampler,
		embedder:  embedder,
		cache:     groupCache,
		log:       log,
		namespace: opts.CacheNamespace,
		cacheTTL:  opts.CacheTTL,
	}
}

// Quantify runs one original-vs-perturbed comparison and returns the observed
// statistic with its permutation p-value. The caller owns rng; pass a seeded
// source for reproducible permutation draws.
func (q *Quantifier) Quantify(ctx context.Context, rng *rand.Rand, req Request) (Outcome, error) {
	if req.Text == "" {
		return Outcome{}, fmt.Errorf("perturb: empty text")
	}
	if len(req.Changes) == 0 {
		return Outcome{}, ErrNoChanges
	}
	method, err := ParseMethod(string(req.Method))
	if err != nil {
		return Outcome{}, err
	}
	metric := req.Distance
	if method == MethodEnergy {
		if metric == "" {
			metric = stats.MetricCosine
		}
		if _, err := stats.ParseMetric(string(metric)); err != nil {
			return Outcome{}, err
		}
	}
	samples := req.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}
	perms := req.Permutations
	if perms <= 0 {
		perms = stats.DefaultPermutations
	}

	perturbed := req.Changes.Apply(req.Text)
	if perturbed == req.Text {
		// Matches the original behavior: a phrase that never occurs is not
		// fatal, the comparison just degenerates to text-vs-itself.
		q.log.Warn("no change phrase matched the text", "text", req.Text)
	}

	groupA, err := q.embedGroup(ctx, req.Text, samples)
	if err != nil {
		return Outcome{}, fmt.Errorf("original prompt: %w", err)
	}
	groupB, err := q.embedGroup(ctx, perturbed, samples)
	if err != nil {
		return Outcome{}, fmt.Errorf("perturbed prompt: %w", err)
	}

	testOpts := stats.Options{
		Permutations: perms,
		Bins:         req.Bins,
		Workers:      req.Workers,
	}

	var result stats.Result
	switch method {
	case MethodJSD:
		result, err = stats.PermutationTest(rng, groupA, groupB, testOpts)
	case MethodEnergy:
		result, err = stats.EnergyPermutationTest(rng, groupA, groupB, metric, testOpts)
	}
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Statistic:     result.Statistic,
		PValue:        result.PValue,
		Method:        method,
		PerturbedText: perturbed,
		Samples:       samples,
		Permutations:  perms,
	}
	if method == MethodEnergy {
		out.Distance = metric
	}
	return out, nil
}

// embedGroup returns the embedding group for one prompt variant, consulting
// the cache before sampling and embedding.
func (q *Quantifier) embedGroup(ctx context.Context, prompt string, samples int) ([]embeddings.Vector, error) {
	key := cache.GroupKey(q.namespace, prompt, samples)
	if group, err := q.cache.GetGroup(ctx, key); err != nil {
		q.log.Warn("cache read failed", "err", err)
	} else if group != nil {
		q.log.Debug("embedding group cache hit", "samples", len(group))
		return group, nil
	}

	responses, err := q.sampler.Sample(ctx, prompt, samples)
	if err != nil {
		return nil, fmt.Errorf("sampling responses: %w", err)
	}
	group, err := q.embedder.Embed(ctx, responses)
	if err != nil {
		return nil, fmt.Errorf("embedding responses: %w", err)
	}

	if err := q.cache.SetGroup(ctx, key, group, q.cacheTTL); err != nil {
		q.log.Warn("cache write failed", "err", err)
	}
	return group, nil
}
