package stats

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"promptshift/internal/embeddings"
)

// DefaultPermutations is the null-distribution size used when Options leaves
// Permutations unset.
const DefaultPermutations = 1000

// Options controls a permutation test.
type Options struct {
	// Permutations is the number of null draws; DefaultPermutations when <= 0.
	Permutations int
	// Bins is the histogram resolution; DefaultBins when <= 0.
	Bins int
	// Workers parallelizes the null loop. Values <= 1 run sequentially.
	// Results are reproducible for a fixed seed and a fixed worker count.
	Workers int
}

// Result pairs an observed test statistic with its permutation p-value.
type Result struct {
	Statistic float64
	PValue    float64
}

// statisticFunc computes one test statistic for a pair of embedding groups.
type statisticFunc func(a, b []embeddings.Vector, bins int) (float64, error)

// PermutationTest measures how far apart two embedding groups are and how
// likely that separation is under the null hypothesis of exchangeable groups.
//
// The observed statistic compares the intra-A similarity distribution (p0)
// against the A-to-B similarity distribution (p1) via HistogramDivergence.
// The comparison is deliberately asymmetric: p1 crosses from A to B rather
// than staying inside B, following the source methodology. The null
// distribution reshuffles the pooled vectors of A and B into synthetic groups
// of the original sizes and recomputes the same statistic.
//
// The p-value is (1 + #{T_perm >= T_obs}) / (1 + permutations), which is
// always in (0, 1]. The caller owns rng and is responsible for seeding it;
// the test itself never seeds.
func PermutationTest(rng *rand.Rand, a, b []embeddings.Vector, opts Options) (Result, error) {
	return permutationTest(rng, a, b, opts, jsdStatistic)
}

func jsdStatistic(a, b []embeddings.Vector, bins int) (float64, error) {
	p0, err := Similarities(a)
	if err != nil {
		return 0, err
	}
	p1, err := CrossSimilarities(a, b)
	if err != nil {
		return 0, err
	}
	return HistogramDivergence(p0, p1, bins), nil
}

func permutationTest(rng *rand.Rand, a, b []embeddings.Vector, opts Options, statistic statisticFunc) (Result, error) {
	perms := opts.Permutations
	if perms <= 0 {
		perms = DefaultPermutations
	}

	observed, err := statistic(a, b, opts.Bins)
	if err != nil {
		return Result{}, err
	}

	pool := make([]embeddings.Vector, 0, len(a)+len(b))
	pool = append(pool, a...)
	pool = append(pool, b...)
	sizeA := len(a)

	var count int
	if opts.Workers <= 1 {
		count, err = countAtLeast(rng, pool, sizeA, perms, opts.Bins, observed, statistic)
	} else {
		count, err = countAtLeastParallel(rng, pool, sizeA, perms, opts.Bins, observed, statistic, opts.Workers)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{
		Statistic: observed,
		PValue:    float64(count+1) / float64(perms+1),
	}, nil
}

// countAtLeast runs perms independent label permutations and counts how many
// produce a statistic at least as large as the observed one.
func countAtLeast(rng *rand.Rand, pool []embeddings.Vector, sizeA, perms, bins int, observed float64, statistic statisticFunc) (int, error) {
	groupA := make([]embeddings.Vector, sizeA)
	groupB := make([]embeddings.Vector, len(pool)-sizeA)

	count := 0
	for i := 0; i < perms; i++ {
		idx := rng.Perm(len(pool))
		for j, p := range idx[:sizeA] {
			groupA[j] = pool[p]
		}
		for j, p := range idx[sizeA:] {
			groupB[j] = pool[p]
		}
		t, err := statistic(groupA, groupB, bins)
		if err != nil {
			return 0, err
		}
		if t >= observed {
			count++
		}
	}
	return count, nil
}

// countAtLeastParallel splits the null loop across workers. Each worker owns
// a rand.Rand seeded from the caller's stream before fan-out, so streams are
// independent and the total count is a plain sum over workers.
func countAtLeastParallel(rng *rand.Rand, pool []embeddings.Vector, sizeA, perms, bins int, observed float64, statistic statisticFunc, workers int) (int, error) {
	if workers > perms {
		workers = perms
	}

	seeds := make([]int64, workers)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	share := perms / workers
	remainder := perms % workers
	counts := make([]int, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		n := share
		if w < remainder {
			n++
		}
		g.Go(func() error {
			workerRng := rand.New(rand.NewSource(seeds[w]))
			c, err := countAtLeast(workerRng, pool, sizeA, n, bins, observed, statistic)
			if err != nil {
				return err
			}
			counts[w] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	return total, nil
}
