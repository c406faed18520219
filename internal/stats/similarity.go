// Package stats implements the distributional divergence engine: pairwise
// similarity collections over embedding groups, binned Jensen-Shannon
// divergence between them, and label-permutation significance tests.
package stats

import (
	"errors"
	"fmt"
	"math"

	"promptshift/internal/embeddings"
)

var (
	// ErrGroupTooSmall is returned when an intra-group similarity is requested
	// for fewer than 2 vectors; pairwise similarity is undefined below that.
	ErrGroupTooSmall = errors.New("stats: group needs at least 2 vectors")

	// ErrDimensionMismatch is returned when compared vectors disagree on length.
	ErrDimensionMismatch = errors.New("stats: vector dimensions differ")

	// ErrEmptyGroup is returned when a cross-group computation receives an
	// empty group.
	ErrEmptyGroup = errors.New("stats: empty embedding group")

	// ErrUnknownMetric is returned for a distance metric outside cosine/l1/l2.
	ErrUnknownMetric = errors.New("stats: unknown distance metric")
)

// Metric selects the pairwise distance used by the energy method.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL1     Metric = "l1"
	MetricL2     Metric = "l2"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, MetricL1, MetricL2:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Similarities returns the strict upper triangle of the intra-group cosine
// similarity matrix as a flat slice in row-major order, so a group of k
// vectors yields k(k-1)/2 values. The diagonal (self-similarity) and the
// mirrored lower triangle are excluded.
func Similarities(group []embeddings.Vector) ([]float64, error) {
	if len(group) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrGroupTooSmall, len(group))
	}
	if err := checkDims(group, len(group[0])); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(group)*(len(group)-1)/2)
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			out = append(out, cosineSimilarity(group[i], group[j]))
		}
	}
	return out, nil
}

// CrossSimilarities returns the cosine similarity of every (a[i], b[j]) pair
// as a flat slice in row-major order, k1*k2 values in total.
func CrossSimilarities(a, b []embeddings.Vector) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyGroup
	}
	dim := len(a[0])
	if err := checkDims(a, dim); err != nil {
		return nil, err
	}
	if err := checkDims(b, dim); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(a)*len(b))
	for i := range a {
		for j := range b {
			out = append(out, cosineSimilarity(a[i], b[j]))
		}
	}
	return out, nil
}

// Distances is the intra-group analogue of Similarities for the selected
// metric. For MetricCosine the score is the cosine distance 1 - similarity.
func Distances(group []embeddings.Vector, metric Metric) ([]float64, error) {
	dist, err := metricFunc(metric)
	if err != nil {
		return nil, err
	}
	if len(group) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrGroupTooSmall, len(group))
	}
	if err := checkDims(group, len(group[0])); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(group)*(len(group)-1)/2)
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			out = append(out, dist(group[i], group[j]))
		}
	}
	return out, nil
}

// CrossDistances is the inter-group analogue of CrossSimilarities for the
// selected metric.
func CrossDistances(a, b []embeddings.Vector, metric Metric) ([]float64, error) {
	dist, err := metricFunc(metric)
	if err != nil {
		return nil, err
	}
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyGroup
	}
	dim := len(a[0])
	if err := checkDims(a, dim); err != nil {
		return nil, err
	}
	if err := checkDims(b, dim); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(a)*len(b))
	for i := range a {
		for j := range b {
			out = append(out, dist(a[i], b[j]))
		}
	}
	return out, nil
}

func metricFunc(metric Metric) (func(a, b embeddings.Vector) float64, error) {
	switch metric {
	case MetricCosine:
		return cosineDistance, nil
	case MetricL1:
		return l1Distance, nil
	case MetricL2:
		return l2Distance, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
}

func checkDims(group []embeddings.Vector, dim int) error {
	for i, v := range group {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dims, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}

// cosineSimilarity accumulates in float64 to limit rounding on long vectors.
func cosineSimilarity(a, b embeddings.Vector) float64 {
	var dot, normA, normB float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

func cosineDistance(a, b embeddings.Vector) float64 {
	return 1 - cosineSimilarity(a, b)
}

func l1Distance(a, b embeddings.Vector) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum
}

func l2Distance(a, b embeddings.Vector) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
