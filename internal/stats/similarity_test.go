package stats

import (
	"errors"
	"math"
	"testing"

	"promptshift/internal/embeddings"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     embeddings.Vector
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        embeddings.Vector{1, 0, 0},
			b:        embeddings.Vector{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        embeddings.Vector{1, 0},
			b:        embeddings.Vector{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        embeddings.Vector{1, 0},
			b:        embeddings.Vector{-1, 0},
			expected: -1.0,
		},
		{
			name:     "zero vector",
			a:        embeddings.Vector{0, 0},
			b:        embeddings.Vector{1, 2},
			expected: 0.0,
		},
		{
			name:     "45 degrees",
			a:        embeddings.Vector{1, 0},
			b:        embeddings.Vector{1, 1},
			expected: math.Sqrt2 / 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestSimilaritiesCount(t *testing.T) {
	for _, k := range []int{2, 3, 5, 10} {
		group := randGroup(newTestRand(1), k, 8)
		scores, err := Similarities(group)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		want := k * (k - 1) / 2
		if len(scores) != want {
			t.Errorf("k=%d: got %d scores, want %d", k, len(scores), want)
		}
		for i, s := range scores {
			if s < -1-1e-9 || s > 1+1e-9 {
				t.Errorf("k=%d: score %d = %f outside [-1, 1]", k, i, s)
			}
		}
	}
}

func TestSimilaritiesPairOfTwo(t *testing.T) {
	group := []embeddings.Vector{{1, 0}, {0, 1}}
	scores, err := Similarities(group)
	if err != nil {
		t.Fatalf("unexpected error for group of 2: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	if math.Abs(scores[0]) > 1e-9 {
		t.Errorf("got %f, want 0", scores[0])
	}
}

func TestSimilaritiesRowMajorOrder(t *testing.T) {
	group := []embeddings.Vector{{1, 0}, {1, 1}, {0, 1}}
	scores, err := Similarities(group)
	if err != nil {
		t.Fatal(err)
	}
	// Upper triangle row-major: (0,1), (0,2), (1,2).
	want := []float64{math.Sqrt2 / 2, 0, math.Sqrt2 / 2}
	for i := range want {
		if math.Abs(scores[i]-want[i]) > 1e-9 {
			t.Errorf("scores[%d] = %f, want %f", i, scores[i], want[i])
		}
	}
}

func TestSimilaritiesErrors(t *testing.T) {
	if _, err := Similarities(nil); !errors.Is(err, ErrGroupTooSmall) {
		t.Errorf("nil group: got %v, want ErrGroupTooSmall", err)
	}
	if _, err := Similarities([]embeddings.Vector{{1, 2}}); !errors.Is(err, ErrGroupTooSmall) {
		t.Errorf("single vector: got %v, want ErrGroupTooSmall", err)
	}
	ragged := []embeddings.Vector{{1, 2}, {1, 2, 3}}
	if _, err := Similarities(ragged); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ragged group: got %v, want ErrDimensionMismatch", err)
	}
}

func TestCrossSimilarities(t *testing.T) {
	a := randGroup(newTestRand(2), 3, 6)
	b := randGroup(newTestRand(3), 4, 6)
	scores, err := CrossSimilarities(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 12 {
		t.Fatalf("got %d scores, want 12", len(scores))
	}
	// Row-major: first entry pairs a[0] with b[0].
	if got := cosineSimilarity(a[0], b[0]); math.Abs(scores[0]-got) > 1e-12 {
		t.Errorf("scores[0] = %f, want %f", scores[0], got)
	}
	for i, s := range scores {
		if s < -1-1e-9 || s > 1+1e-9 {
			t.Errorf("score %d = %f outside [-1, 1]", i, s)
		}
	}
}

func TestCrossSimilaritiesErrors(t *testing.T) {
	a := []embeddings.Vector{{1, 0}}
	if _, err := CrossSimilarities(a, nil); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("empty b: got %v, want ErrEmptyGroup", err)
	}
	if _, err := CrossSimilarities(nil, a); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("empty a: got %v, want ErrEmptyGroup", err)
	}
	b := []embeddings.Vector{{1, 0, 0}}
	if _, err := CrossSimilarities(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("mismatched dims: got %v, want ErrDimensionMismatch", err)
	}
}

func TestDistances(t *testing.T) {
	group := []embeddings.Vector{{0, 0}, {3, 4}}

	tests := []struct {
		metric   Metric
		expected float64
	}{
		{MetricL1, 7},
		{MetricL2, 5},
		{MetricCosine, 1}, // zero vector yields similarity 0
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			scores, err := Distances(group, tt.metric)
			if err != nil {
				t.Fatal(err)
			}
			if len(scores) != 1 {
				t.Fatalf("got %d scores, want 1", len(scores))
			}
			if math.Abs(scores[0]-tt.expected) > 1e-9 {
				t.Errorf("got %f, want %f", scores[0], tt.expected)
			}
		})
	}
}

func TestCrossDistancesCount(t *testing.T) {
	a := randGroup(newTestRand(4), 3, 5)
	b := randGroup(newTestRand(5), 5, 5)
	scores, err := CrossDistances(a, b, MetricL2)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 15 {
		t.Fatalf("got %d scores, want 15", len(scores))
	}
	for i, s := range scores {
		if s < 0 {
			t.Errorf("distance %d = %f is negative", i, s)
		}
	}
}

func TestUnknownMetric(t *testing.T) {
	group := randGroup(newTestRand(6), 3, 4)
	if _, err := Distances(group, Metric("chebyshev")); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("got %v, want ErrUnknownMetric", err)
	}
	if _, err := ParseMetric("manhattan"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("got %v, want ErrUnknownMetric", err)
	}
	if m, err := ParseMetric("l1"); err != nil || m != MetricL1 {
		t.Errorf("got (%v, %v), want (l1, nil)", m, err)
	}
}
