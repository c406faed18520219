// Command quantify measures how much a model's response distribution moves
// when phrases in a prompt are replaced, and whether the movement is
// statistically significant.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"promptshift/internal/app"
	"promptshift/internal/perturb"
	"promptshift/internal/stats"
)

type options struct {
	text         string
	changeTokens []string
	changeFile   string
	method       string
	distance     string
	permutations int
	samples      int
	bins         int
	workers      int
	seed         int64
	outputFormat string
	verbose      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "quantify",
		Short: "Quantify text perturbations using statistical measures",
		Example: `  # Basic usage
  quantify --text "My age is 45 and I am male. What is my life expectancy?" --change "age is 45" --change "age is 55"

  # Multiple changes (flags alternate original and replacement phrases)
  quantify --text "I am 30 years old and live in NYC" --change "30 years old" --change "40 years old" --change "NYC" --change "LA"

  # Using a JSON file for complex changes
  quantify --text "Hello world" --change-file changes.json

  # Different statistical method and custom parameters
  quantify --text "Sample text" --change "Sample" --change "Example" --method jsd --permutations 1000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "original text to analyze (required)")
	cmd.Flags().StringArrayVar(&opts.changeTokens, "change", nil, "original and replacement phrases, given in pairs (repeat the flag)")
	cmd.Flags().StringVar(&opts.changeFile, "change-file", "", "JSON file containing changes as key-value pairs")
	cmd.Flags().StringVar(&opts.method, "method", string(perturb.MethodEnergy), "statistical method: energy or jsd")
	cmd.Flags().StringVar(&opts.distance, "distance", string(stats.MetricCosine), "distance metric for the energy method: cosine, l1 or l2")
	cmd.Flags().IntVar(&opts.permutations, "permutations", 500, "number of permutations for statistical testing")
	cmd.Flags().IntVar(&opts.samples, "samples", 0, "responses sampled per prompt variant (0 = configured default)")
	cmd.Flags().IntVar(&opts.bins, "bins", 0, "similarity histogram bins (0 = default)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel permutation workers (0 = configured default)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed for reproducible permutation draws (0 = time-based)")
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", "plain", "output format: plain or json")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "show detailed output")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func run(opts options) error {
	// All input validation happens before any backend is touched, so a
	// malformed invocation never triggers generation or embedding calls.
	changes, err := collectChanges(opts.changeTokens, opts.changeFile)
	if err != nil {
		return err
	}
	method, err := perturb.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	if method == perturb.MethodEnergy {
		if _, err := stats.ParseMetric(opts.distance); err != nil {
			return err
		}
	}
	if opts.outputFormat != "plain" && opts.outputFormat != "json" {
		return fmt.Errorf("invalid output format %q (valid options: plain, json)", opts.outputFormat)
	}

	deps, err := app.BuildCLI()
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	workers := opts.workers
	if workers <= 0 {
		workers = deps.Config.StatWorkers
	}
	samples := opts.samples
	if samples <= 0 {
		samples = deps.Config.Samples
	}
	bins := opts.bins
	if bins <= 0 {
		bins = deps.Config.Bins
	}

	if opts.verbose {
		fmt.Printf("Original text: %s\n", opts.text)
		fmt.Printf("Changes: %v\n", changes)
		fmt.Printf("Method: %s\n", method)
		if method == perturb.MethodEnergy {
			fmt.Printf("Distance metric: %s\n", opts.distance)
		}
		fmt.Printf("Permutations: %d\n", opts.permutations)
		fmt.Println("--------------------------------------------------")
	}

	outcome, err := deps.Quantifier.Quantify(context.Background(), rng, perturb.Request{
		Text:         opts.text,
		Changes:      changes,
		Method:       method,
		Distance:     stats.Metric(opts.distance),
		Permutations: opts.permutations,
		Samples:      samples,
		Bins:         bins,
		Workers:      workers,
	})
	if err != nil {
		return fmt.Errorf("error during computation: %w", err)
	}

	return printOutcome(opts, changes, outcome)
}

// collectChanges merges the change file (if any) with command-line pairs;
// command-line pairs win on conflict.
func collectChanges(tokens []string, changeFile string) (perturb.Changes, error) {
	changes := perturb.Changes{}

	if changeFile != "" {
		fromFile, err := loadChangeFile(changeFile)
		if err != nil {
			return nil, err
		}
		for original, replacement := range fromFile {
			changes[original] = replacement
		}
	}

	fromFlags, err := perturb.ParsePairs(tokens)
	if err != nil {
		return nil, err
	}
	for original, replacement := range fromFlags {
		changes[original] = replacement
	}

	if len(changes) == 0 {
		return nil, fmt.Errorf("no changes specified; use --change or --change-file")
	}
	return changes, nil
}

func loadChangeFile(path string) (perturb.Changes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("change file %q: %w", path, err)
	}
	var changes perturb.Changes
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("invalid JSON in change file %q: %w", path, err)
	}
	return changes, nil
}

func printOutcome(opts options, changes perturb.Changes, outcome perturb.Outcome) error {
	if opts.outputFormat == "json" {
		result := map[string]any{
			"original_text": opts.text,
			"changes":       changes,
			"method":        outcome.Method,
			"statistic":     outcome.Statistic,
			"p_value":       outcome.PValue,
		}
		if outcome.Method == perturb.MethodEnergy {
			result["distance_metric"] = outcome.Distance
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Statistic: %.6f\n", outcome.Statistic)
	fmt.Printf("P-value: %.6f\n", outcome.PValue)

	if opts.verbose {
		fmt.Println("\nInterpretation:")
		if outcome.PValue < 0.05 {
			fmt.Println("- The perturbation is statistically significant (p < 0.05)")
		} else {
			fmt.Println("- The perturbation is not statistically significant (p >= 0.05)")
		}
		fmt.Println("- Higher statistic values indicate larger perturbations")
	}
	return nil
}
