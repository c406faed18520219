package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the histogram resolution used when no bin count is given.
const DefaultBins = 30

// degenerateRangeEps widens a collapsed binning range (all scores identical)
// so the bin width stays positive. Both collections then fall into the same
// bin and the divergence is 0.
const degenerateRangeEps = 1e-9

// HistogramDivergence bins both score collections into equal-width histograms
// over their joint range and returns the square root of the Jensen-Shannon
// divergence (natural log) between the two bin-probability vectors. The
// result is 0 for identical inputs and at most sqrt(ln 2) for disjoint ones.
func HistogramDivergence(scoresA, scoresB []float64, bins int) float64 {
	if len(scoresA) == 0 || len(scoresB) == 0 {
		return 0
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	lo := math.Min(floats.Min(scoresA), floats.Min(scoresB))
	hi := math.Max(floats.Max(scoresA), floats.Max(scoresB))
	if hi-lo < degenerateRangeEps {
		lo -= degenerateRangeEps
		hi += degenerateRangeEps
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// Histogram bins are half-open; nudge the top divider so the maximum
	// score lands in the last bin instead of out of range.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	p := binProbabilities(scoresA, dividers)
	q := binProbabilities(scoresB, dividers)

	div := stat.JensenShannon(p, q)
	if div < 0 {
		// Rounding can push an exact-zero divergence a hair negative.
		div = 0
	}
	return math.Sqrt(div)
}

// binProbabilities counts scores per bin and normalizes the counts to sum to
// 1. With equal-width bins this equals the density normalization up to the
// constant bin width, which cancels inside the Jensen-Shannon divergence.
func binProbabilities(scores, dividers []float64) []float64 {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	counts := stat.Histogram(nil, dividers, sorted, nil)
	total := floats.Sum(counts)
	if total > 0 {
		floats.Scale(1/total, counts)
	}
	return counts
}
