package stats

import (
	"math"
	"testing"
)

func TestHistogramDivergenceIdentical(t *testing.T) {
	rng := newTestRand(10)
	x := make([]float64, 200)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	if d := HistogramDivergence(x, x, 30); d > 1e-12 {
		t.Errorf("identical collections: got %g, want 0", d)
	}
}

func TestHistogramDivergenceSymmetric(t *testing.T) {
	rng := newTestRand(11)
	x := make([]float64, 150)
	y := make([]float64, 90)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	for i := range y {
		y[i] = rng.NormFloat64() + 0.5
	}
	dxy := HistogramDivergence(x, y, 30)
	dyx := HistogramDivergence(y, x, 30)
	if math.Abs(dxy-dyx) > 1e-12 {
		t.Errorf("asymmetric divergence: d(x,y)=%g d(y,x)=%g", dxy, dyx)
	}
	if dxy <= 0 {
		t.Errorf("shifted collections: got %g, want > 0", dxy)
	}
}

func TestHistogramDivergenceBounded(t *testing.T) {
	// Fully disjoint supports: divergence hits its sqrt(ln 2) ceiling.
	x := []float64{0, 0.1, 0.2, 0.3}
	y := []float64{10, 10.1, 10.2, 10.3}
	d := HistogramDivergence(x, y, 30)
	maxJSD := math.Sqrt(math.Ln2)
	if d < maxJSD-1e-9 || d > maxJSD+1e-9 {
		t.Errorf("disjoint collections: got %g, want %g", d, maxJSD)
	}
}

func TestHistogramDivergenceDegenerateRange(t *testing.T) {
	// Zero-variance collections collapse the bin range; the epsilon guard
	// must keep this finite rather than dividing by zero.
	x := []float64{0.7, 0.7, 0.7}
	y := []float64{0.7, 0.7}
	d := HistogramDivergence(x, y, 30)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("degenerate range: got %g", d)
	}
	if d > 1e-12 {
		t.Errorf("same point mass: got %g, want 0", d)
	}
}

func TestHistogramDivergenceDefaultBins(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0.5, 1.5, 2.5}
	d := HistogramDivergence(x, y, 0)
	if math.IsNaN(d) || d < 0 {
		t.Errorf("default bins: got %g", d)
	}
}

func TestHistogramDivergenceNonNegative(t *testing.T) {
	rng := newTestRand(12)
	for trial := 0; trial < 25; trial++ {
		x := make([]float64, 40)
		y := make([]float64, 60)
		for i := range x {
			x[i] = rng.Float64()
		}
		for i := range y {
			y[i] = rng.Float64() * rng.Float64()
		}
		if d := HistogramDivergence(x, y, 15); d < 0 {
			t.Fatalf("trial %d: negative divergence %g", trial, d)
		}
	}
}
