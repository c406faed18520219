package stats

import (
	"math"
	"math/rand"
	"testing"

	"promptshift/internal/embeddings"
)

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// randGroup draws k vectors with iid uniform [0,1) coordinates, matching the
// synthetic-embedding setup used to validate the method.
func randGroup(rng *rand.Rand, k, dim int) []embeddings.Vector {
	group := make([]embeddings.Vector, k)
	for i := range group {
		v := make(embeddings.Vector, dim)
		for j := range v {
			v[j] = float32(rng.Float64())
		}
		group[i] = v
	}
	return group
}

// shiftGroup returns a copy of the group with a constant offset added to
// every coordinate.
func shiftGroup(group []embeddings.Vector, offset float32) []embeddings.Vector {
	out := make([]embeddings.Vector, len(group))
	for i, v := range group {
		s := make(embeddings.Vector, len(v))
		for j, x := range v {
			s[j] = x + offset
		}
		out[i] = s
	}
	return out
}

func TestPermutationTestPValueRange(t *testing.T) {
	rng := newTestRand(20)
	a := randGroup(rng, 10, 8)
	b := randGroup(rng, 12, 8)

	res, err := PermutationTest(newTestRand(21), a, b, Options{Permutations: 99})
	if err != nil {
		t.Fatal(err)
	}
	if res.PValue <= 0 || res.PValue > 1 {
		t.Errorf("p-value %f outside (0, 1]", res.PValue)
	}
	if res.Statistic < 0 {
		t.Errorf("negative statistic %f", res.Statistic)
	}
	// Additive smoothing makes p a multiple of 1/(permutations+1).
	scaled := res.PValue * 100
	if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
		t.Errorf("p-value %f is not of the form m/100", res.PValue)
	}
}

func TestPermutationTestDeterministicSeed(t *testing.T) {
	rng := newTestRand(22)
	a := randGroup(rng, 8, 6)
	b := randGroup(rng, 8, 6)

	first, err := PermutationTest(newTestRand(7), a, b, Options{Permutations: 149})
	if err != nil {
		t.Fatal(err)
	}
	second, err := PermutationTest(newTestRand(7), a, b, Options{Permutations: 149})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("same seed diverged: %+v vs %+v", first, second)
	}
}

func TestPermutationTestDeterministicWorkers(t *testing.T) {
	rng := newTestRand(23)
	a := randGroup(rng, 10, 6)
	b := randGroup(rng, 10, 6)

	opts := Options{Permutations: 120, Workers: 3}
	first, err := PermutationTest(newTestRand(9), a, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := PermutationTest(newTestRand(9), a, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("same seed and worker count diverged: %+v vs %+v", first, second)
	}
	if first.PValue <= 0 || first.PValue > 1 {
		t.Errorf("p-value %f outside (0, 1]", first.PValue)
	}
}

func TestPermutationTestGroupTooSmall(t *testing.T) {
	a := randGroup(newTestRand(24), 1, 4)
	b := randGroup(newTestRand(25), 5, 4)
	if _, err := PermutationTest(newTestRand(26), a, b, Options{Permutations: 10}); err == nil {
		t.Fatal("expected error for group of 1")
	}
}

// Under the null (both groups from one distribution) permutation p-values are
// roughly uniform on (0,1]. Averaging over several draws keeps the assertion
// far from the noise floor of any single run.
func TestPermutationTestNullPValuesCenter(t *testing.T) {
	const runs = 20
	var sum float64
	for seed := int64(0); seed < runs; seed++ {
		rng := newTestRand(100 + seed)
		a := randGroup(rng, 12, 8)
		b := randGroup(rng, 12, 8)
		res, err := PermutationTest(rng, a, b, Options{Permutations: 99})
		if err != nil {
			t.Fatal(err)
		}
		if res.PValue <= 0 || res.PValue > 1 {
			t.Fatalf("seed %d: p-value %f outside (0, 1]", seed, res.PValue)
		}
		sum += res.PValue
	}
	if mean := sum / runs; mean < 0.2 {
		t.Errorf("mean null p-value %f, want around 0.5", mean)
	}
}

func TestPermutationTestDetectsShift(t *testing.T) {
	rng := newTestRand(30)
	a := randGroup(rng, 20, 16)
	b := shiftGroup(randGroup(rng, 20, 16), 0.5)

	res, err := PermutationTest(newTestRand(31), a, b, Options{Permutations: 199})
	if err != nil {
		t.Fatal(err)
	}
	if res.Statistic <= 0 {
		t.Errorf("shifted groups: statistic %f, want > 0", res.Statistic)
	}
	if res.PValue >= 0.05 {
		t.Errorf("shifted groups: p-value %f, want < 0.05", res.PValue)
	}
}

// Full-scale scenario from the method's reference setup: 50 vectors per
// group, dimension 128, 999 permutations.
func TestPermutationTestReferenceScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full-scale permutation scenario in short mode")
	}

	rng := newTestRand(42)
	a := randGroup(rng, 50, 128)
	same := randGroup(rng, 50, 128)
	shifted := shiftGroup(randGroup(rng, 50, 128), 0.3)

	opts := Options{Permutations: 999, Workers: 4}

	shiftedRes, err := PermutationTest(newTestRand(43), a, shifted, opts)
	if err != nil {
		t.Fatal(err)
	}
	if shiftedRes.PValue >= 0.05 {
		t.Errorf("shifted scenario: p-value %f, want < 0.05", shiftedRes.PValue)
	}
	if shiftedRes.Statistic <= 0 {
		t.Errorf("shifted scenario: statistic %f, want > 0", shiftedRes.Statistic)
	}

	sameRes, err := PermutationTest(newTestRand(44), a, same, opts)
	if err != nil {
		t.Fatal(err)
	}
	if sameRes.PValue <= shiftedRes.PValue {
		t.Errorf("same-distribution p-value %f not above shifted p-value %f",
			sameRes.PValue, shiftedRes.PValue)
	}
}
