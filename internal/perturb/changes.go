package perturb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoChanges is returned when a request carries an empty substitution set.
	ErrNoChanges = errors.New("perturb: no changes specified")

	// ErrOddChangeTokens is returned when change tokens do not form
	// (original, replacement) pairs.
	ErrOddChangeTokens = errors.New("perturb: changes must be provided in pairs (original, replacement)")
)

// Changes maps original phrases to their replacements.
type Changes map[string]string

// ParsePairs builds a Changes mapping from a flat token list alternating
// original and replacement phrases, as given on the command line.
func ParsePairs(tokens []string) (Changes, error) {
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d tokens", ErrOddChangeTokens, len(tokens))
	}
	changes := make(Changes, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		changes[tokens[i]] = tokens[i+1]
	}
	return changes, nil
}

// Apply substitutes every occurrence of each original phrase in one pass.
// Phrases are ordered longest-first so an original that is a prefix of
// another cannot shadow it.
func (c Changes) Apply(text string) string {
	if len(c) == 0 {
		return text
	}
	originals := make([]string, 0, len(c))
	for original := range c {
		originals = append(originals, original)
	}
	sort.Slice(originals, func(i, j int) bool {
		if len(originals[i]) != len(originals[j]) {
			return len(originals[i]) > len(originals[j])
		}
		return originals[i] < originals[j]
	})

	pairs := make([]string, 0, 2*len(c))
	for _, original := range originals {
		pairs = append(pairs, original, c[original])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Pairs flattens the mapping into alternating original/replacement tokens in
// deterministic order, the inverse of ParsePairs.
func (c Changes) Pairs() []string {
	originals := make([]string, 0, len(c))
	for original := range c {
		originals = append(originals, original)
	}
	sort.Strings(originals)

	pairs := make([]string, 0, 2*len(c))
	for _, original := range originals {
		pairs = append(pairs, original, c[original])
	}
	return pairs
}
