package stats

import (
	"math"
	"math/rand"

	"promptshift/internal/embeddings"
)

// EnergyDistance returns the Szekely-Rizzo two-sample energy distance between
// two 1-D samples:
//
//	E(x, y) = 2*mean|x_i - y_j| - mean|x_i - x_i'| - mean|y_j - y_j'|
//
// It is 0 when the samples share a distribution and grows with separation.
// Floating-point cancellation can push a near-zero result slightly negative,
// so the value is clamped at 0.
func EnergyDistance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	e := 2*meanCrossAbsDiff(x, y) - meanSelfAbsDiff(x) - meanSelfAbsDiff(y)
	if e < 0 {
		return 0
	}
	return e
}

func meanCrossAbsDiff(x, y []float64) float64 {
	var sum float64
	for _, xi := range x {
		for _, yj := range y {
			sum += math.Abs(xi - yj)
		}
	}
	return sum / float64(len(x)*len(y))
}

func meanSelfAbsDiff(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < len(x); i++ {
		for j := i + 1; j < len(x); j++ {
			sum += math.Abs(x[i] - x[j])
		}
	}
	// Off-diagonal pairs appear twice in the full mean and the diagonal is 0.
	return 2 * sum / float64(len(x)*len(x))
}

// EnergyPermutationTest mirrors PermutationTest with pairwise distances in
// place of similarities and the energy distance in place of the binned
// divergence. The sample construction stays asymmetric: intra-A distances
// against A-to-B distances.
func EnergyPermutationTest(rng *rand.Rand, a, b []embeddings.Vector, metric Metric, opts Options) (Result, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return Result{}, err
	}
	statistic := func(a, b []embeddings.Vector, _ int) (float64, error) {
		p0, err := Distances(a, metric)
		if err != nil {
			return 0, err
		}
		p1, err := CrossDistances(a, b, metric)
		if err != nil {
			return 0, err
		}
		return EnergyDistance(p0, p1), nil
	}
	return permutationTest(rng, a, b, opts, statistic)
}
