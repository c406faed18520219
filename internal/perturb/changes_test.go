package perturb

import (
	"errors"
	"reflect"
	"testing"
)

func TestApplyChanges(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		changes  Changes
		expected string
	}{
		{
			name:     "single phrase",
			text:     "My age is 45 and I am male.",
			changes:  Changes{"age is 45": "age is 55"},
			expected: "My age is 55 and I am male.",
		},
		{
			name:     "multiple phrases",
			text:     "I am 30 years old and live in NYC",
			changes:  Changes{"30 years old": "40 years old", "NYC": "LA"},
			expected: "I am 40 years old and live in LA",
		},
		{
			name:     "every occurrence",
			text:     "red fish, red boat",
			changes:  Changes{"red": "blue"},
			expected: "blue fish, blue boat",
		},
		{
			name:     "longer phrase wins over its prefix",
			text:     "age is 45 today",
			changes:  Changes{"age": "height", "age is 45": "age is 55"},
			expected: "age is 55 today",
		},
		{
			name:     "no match leaves text unchanged",
			text:     "Hello world",
			changes:  Changes{"Goodbye": "Farewell"},
			expected: "Hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.changes.Apply(tt.text); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParsePairs(t *testing.T) {
	changes, err := ParsePairs([]string{"age is 45", "age is 55", "male", "female"})
	if err != nil {
		t.Fatal(err)
	}
	want := Changes{"age is 45": "age is 55", "male": "female"}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("got %v, want %v", changes, want)
	}
}

func TestParsePairsOddTokens(t *testing.T) {
	_, err := ParsePairs([]string{"age is 45", "age is 55", "male"})
	if !errors.Is(err, ErrOddChangeTokens) {
		t.Errorf("got %v, want ErrOddChangeTokens", err)
	}
}

func TestParsePairsEmpty(t *testing.T) {
	changes, err := ParsePairs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 {
		t.Errorf("got %d changes, want 0", len(changes))
	}
}

func TestPairsRoundTrip(t *testing.T) {
	changes := Changes{"male": "female", "age is 45": "age is 55"}
	pairs := changes.Pairs()
	if len(pairs) != 4 {
		t.Fatalf("got %d tokens, want 4", len(pairs))
	}
	back, err := ParsePairs(pairs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, changes) {
		t.Errorf("round trip changed mapping: got %v, want %v", back, changes)
	}
	// Deterministic order regardless of map iteration.
	if !reflect.DeepEqual(pairs, changes.Pairs()) {
		t.Error("expected Pairs to be deterministic")
	}
}
