// Command tier-compare runs every SumThreshold tier the CPU supports on
// synthetic data sets for every window length and reports whether the tiers
// agree with the reference and how fast they are.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/rfi-flagger/internal/monitoring"
	"github.com/banshee-data/rfi-flagger/internal/rfi/compare"
	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/rfi/testset"
)

// Config holds configuration for the tier comparison.
type Config struct {
	Sets       string
	Noise      string
	Width      int
	Height     int
	Seed       uint64
	Threshold  float64
	Repeats    int
	Probe      string
	Naive      bool
	Verbose    bool
	OutputDir  string
	OutputJSON string
}

// SetResult holds the comparison of one data set.
type SetResult struct {
	Set       testset.Set       `json:"set"`
	Results   []compare.Result  `json:"results"`
	Summaries []compare.Summary `json:"summaries"`
}

// ComparisonResult holds the results of all sets.
type ComparisonResult struct {
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Noise        string        `json:"noise"`
	Seed         uint64        `json:"seed"`
	Probe        string        `json:"probe"`
	Duration     time.Duration `json:"duration_ns"`
	DurationSecs float64       `json:"duration_secs"`
	Sets         []SetResult   `json:"sets"`
	Disagreeing  int           `json:"disagreeing"`
}

func main() {
	cfg := parseFlags()
	monitoring.SetDebug(cfg.Verbose)

	probe, err := parseProbe(cfg.Probe)
	if err != nil {
		log.Fatalf("Invalid probe: %v", err)
	}
	sets, err := parseSets(cfg.Sets)
	if err != nil {
		log.Fatalf("Invalid sets: %v", err)
	}
	noise, err := testset.ParseNoise(cfg.Noise)
	if err != nil {
		log.Fatalf("Invalid noise: %v", err)
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	h := compare.NewHarness(
		compare.WithProbe(probe),
		compare.WithRepeats(cfg.Repeats),
		compare.WithNaive(cfg.Naive),
	)

	start := time.Now()
	result := &ComparisonResult{
		Width:  cfg.Width,
		Height: cfg.Height,
		Noise:  noise.String(),
		Seed:   cfg.Seed,
		Probe:  cfg.Probe,
	}
	for _, set := range sets {
		data, err := testset.Make(set, noise, cfg.Width, cfg.Height, cfg.Seed)
		if err != nil {
			log.Fatalf("Failed to generate %s: %v", set, err)
		}
		results, err := h.Run(data.Image, nil, cfg.Threshold)
		if err != nil {
			log.Fatalf("Comparison failed on %s: %v", set, err)
		}
		sr := SetResult{Set: set, Results: results, Summaries: compare.Summarize(results)}
		for _, r := range results {
			if !r.Agrees() && r.Tier != compare.NaiveTier {
				result.Disagreeing++
				log.Printf("%s: %s %s L=%d differs from reference in %d cells", set, r.Tier, r.Direction, r.Length, r.Mismatches)
			}
		}
		result.Sets = append(result.Sets, sr)
	}
	result.Duration = time.Since(start)
	result.DurationSecs = result.Duration.Seconds()

	printResults(result)

	if cfg.OutputJSON != "" {
		outputPath := cfg.OutputJSON
		if cfg.OutputDir != "" {
			outputPath = filepath.Join(cfg.OutputDir, cfg.OutputJSON)
		}
		if err := exportJSON(result, outputPath); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Results exported to: %s", outputPath)
		}
	}

	if result.Disagreeing > 0 {
		os.Exit(1)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Sets, "sets", "all", "Comma separated test sets, or all")
	flag.StringVar(&cfg.Noise, "noise", "gaussian", "Background noise: gaussian, rayleigh or none")
	flag.IntVar(&cfg.Width, "width", 512, "Time steps")
	flag.IntVar(&cfg.Height, "height", 128, "Frequency channels")
	flag.Uint64Var(&cfg.Seed, "seed", 1, "Random seed")
	flag.Float64Var(&cfg.Threshold, "threshold", 6.0, "Base threshold for the length ladder")
	flag.IntVar(&cfg.Repeats, "repeats", 3, "Timed repeats per run")
	flag.StringVar(&cfg.Probe, "probe", "cpu", "Capability probe: cpu, none, vector, wide")
	flag.BoolVar(&cfg.Naive, "naive", false, "Include the naive oracle")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	flag.StringVar(&cfg.OutputDir, "output", "", "Output directory for results")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Output JSON filename (e.g., tiers.json)")

	flag.Parse()
	return cfg
}

func parseProbe(name string) (sumthreshold.CapabilityProbe, error) {
	switch name {
	case "cpu":
		return sumthreshold.CPUProbe{}, nil
	case "none":
		return sumthreshold.StaticProbe{}, nil
	case "vector":
		return sumthreshold.StaticProbe{Vector: true}, nil
	case "wide":
		return sumthreshold.StaticProbe{Vector: true, WideVector: true}, nil
	default:
		return nil, fmt.Errorf("unknown probe %q", name)
	}
}

func parseSets(list string) ([]testset.Set, error) {
	if list == "" || list == "all" {
		return testset.Sets(), nil
	}
	var sets []testset.Set
	for _, name := range strings.Split(list, ",") {
		s, err := testset.ParseSet(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, nil
}

func printResults(result *ComparisonResult) {
	fmt.Println("\n=== Tier Comparison Results ===")
	fmt.Printf("Size: %dx%d (%s noise, seed %d)\n", result.Width, result.Height, result.Noise, result.Seed)
	fmt.Printf("Probe: %s\n", result.Probe)
	fmt.Printf("Processing Time: %.2fs\n", result.DurationSecs)

	for _, sr := range result.Sets {
		fmt.Printf("\n--- %s ---\n", sr.Set)
		for _, s := range sr.Summaries {
			fmt.Printf("  %-14s runs=%-3d disagree=%-3d mismatches=%-6d total=%-12s speedup=%.2fx\n",
				s.Tier, s.Runs, s.Disagreements, s.Mismatches, s.Total, s.Speedup)
		}
	}

	fmt.Println("\n--- Agreement ---")
	if result.Disagreeing == 0 {
		fmt.Println("All tiers agree with the reference")
	} else {
		fmt.Printf("%d runs disagree with the reference\n", result.Disagreeing)
	}
}

func exportJSON(result *ComparisonResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
