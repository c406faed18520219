// Package perturb orchestrates a single prompt-perturbation comparison:
// apply phrase substitutions, sample responses for both prompt variants,
// embed them, and run the selected significance test.
package perturb

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"promptshift/internal/stats"
)

// ErrUnknownMethod is returned for a statistical method outside energy/jsd.
var ErrUnknownMethod = errors.New("perturb: unknown method")

// Method selects the test statistic.
type Method string

const (
	// MethodEnergy runs the energy-distance permutation test over pairwise
	// distance collections.
	MethodEnergy Method = "energy"
	// MethodJSD runs the binned Jensen-Shannon permutation test over cosine
	// similarity collections.
	MethodJSD Method = "jsd"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodEnergy, MethodJSD:
		return Method(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// DefaultSamples is the number of responses drawn per prompt variant when a
// request leaves Samples unset.
const DefaultSamples = 20

// Request describes one original-vs-perturbed comparison.
type Request struct {
	Text    string
	Changes Changes
	Method  Method
	// Distance applies to MethodEnergy only.
	Distance     stats.Metric
	Permutations int
	Samples      int
	Bins         int
	Workers      int
}

// Outcome is the method-agnostic result shape shared by both tests.
type Outcome struct {
	Statistic     float64      `json:"statistic"`
	PValue        float64      `json:"p_value"`
	Method        Method       `json:"method"`
	Distance      stats.Metric `json:"distance_metric,omitempty"`
	PerturbedText string       `json:"perturbed_text"`
	Samples       int          `json:"samples"`
	Permutations  int          `json:"permutations"`
}

// Runner is the quantification contract exposed to the HTTP and queue
// surfaces; Quantifier is the production implementation.
type Runner interface {
	Quantify(ctx context.Context, rng *rand.Rand, req Request) (Outcome, error)
}
