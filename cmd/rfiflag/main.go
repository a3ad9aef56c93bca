// Command rfiflag generates a synthetic time-frequency data set, flags it with
// the SumThreshold ladder and reports how the mask scores against the
// injected interference. Runs can be stored in a SQLite ledger and rendered
// as PNG heat maps and an HTML pass chart.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"gonum.org/v1/plot"

	"github.com/banshee-data/rfi-flagger/internal/config"
	"github.com/banshee-data/rfi-flagger/internal/grid"
	"github.com/banshee-data/rfi-flagger/internal/monitoring"
	"github.com/banshee-data/rfi-flagger/internal/rfi/compare"
	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
	"github.com/banshee-data/rfi-flagger/internal/rfi/render"
	"github.com/banshee-data/rfi-flagger/internal/rfi/testset"
	"github.com/banshee-data/rfi-flagger/internal/runstore"
)

// Config holds the command line options.
type Config struct {
	ConfigFile  string
	Set         string
	Noise       string
	Width       int
	Height      int
	Seed        uint64
	MissingProb float64
	GapEvery    int
	Tier        string
	DBPath      string
	Label       string
	ListRuns    int
	PlotDir     string
	ChartFile   string
	OutputJSON  string
	Metrics     bool
	Debug       bool
	ListSets    bool
}

// Result is the JSON export of one run.
type Result struct {
	RunID     string          `json:"run_id,omitempty"`
	Set       testset.Set     `json:"set"`
	Noise     string          `json:"noise"`
	Seed      uint64          `json:"seed"`
	Report    *flagger.Report `json:"report"`
	Score     compare.Score   `json:"score"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
}

func main() {
	cfg := parseFlags()

	if cfg.ListSets {
		for _, s := range testset.Sets() {
			fmt.Printf("%-24s %s\n", s, s.Description())
		}
		return
	}
	if cfg.ListRuns > 0 {
		if cfg.DBPath == "" {
			log.Fatal("-runs requires -db")
		}
		if err := listRuns(cfg.DBPath, cfg.ListRuns); err != nil {
			log.Fatalf("List runs failed: %v", err)
		}
		return
	}

	flagCfg := config.DefaultFlaggingConfig()
	if cfg.ConfigFile != "" {
		loaded, err := config.LoadFlaggingConfig(cfg.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		flagCfg = loaded
	}
	if cfg.Tier != "" {
		flagCfg.Tier = &cfg.Tier
		if err := flagCfg.Validate(); err != nil {
			log.Fatalf("Invalid tier: %v", err)
		}
	}
	monitoring.SetDebug(cfg.Debug || flagCfg.GetDebug())

	set, err := testset.ParseSet(cfg.Set)
	if err != nil {
		log.Fatalf("Invalid set: %v", err)
	}
	noise, err := testset.ParseNoise(cfg.Noise)
	if err != nil {
		log.Fatalf("Invalid noise: %v", err)
	}
	data, err := testset.Make(set, noise, cfg.Width, cfg.Height, cfg.Seed)
	if err != nil {
		log.Fatalf("Failed to generate data: %v", err)
	}

	var missing *grid.Mask
	if cfg.MissingProb > 0 || cfg.GapEvery > 0 {
		missing = testset.NewGenerator(cfg.Seed+1).MissingMask(cfg.Width, cfg.Height, cfg.MissingProb, cfg.GapEvery)
	}

	reg := prometheus.NewRegistry()
	metrics, err := monitoring.NewMetrics(reg)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	f := flagger.New(append(flagCfg.FlaggerOptions(), flagger.WithMetrics(metrics))...)

	mask := grid.NewMask(cfg.Width, cfg.Height)
	report, err := f.Execute(flagCfg.Ladder(), data.Image, mask, missing, flagCfg.Options())
	if err != nil {
		log.Fatalf("Flagging failed: %v", err)
	}
	score, err := compare.ScoreMask(mask, data.Truth, missing)
	if err != nil {
		log.Fatalf("Scoring failed: %v", err)
	}

	result := &Result{
		Set:       set,
		Noise:     noise.String(),
		Seed:      cfg.Seed,
		Report:    report,
		Score:     score,
		Precision: score.Precision(),
		Recall:    score.Recall(),
	}
	printResult(result)

	if cfg.DBPath != "" {
		runID, err := storeRun(cfg, flagCfg, report, mask)
		if err != nil {
			log.Printf("Warning: failed to store run: %v", err)
		} else {
			result.RunID = runID
			log.Printf("Stored run %s in %s", runID, cfg.DBPath)
		}
	}
	if cfg.PlotDir != "" {
		if err := savePlots(cfg.PlotDir, data, mask); err != nil {
			log.Printf("Warning: failed to save plots: %v", err)
		} else {
			log.Printf("Plots written to: %s", cfg.PlotDir)
		}
	}
	if cfg.ChartFile != "" {
		if err := saveChart(cfg.ChartFile, report, string(set)); err != nil {
			log.Printf("Warning: failed to write pass chart: %v", err)
		}
	}
	if cfg.OutputJSON != "" {
		if err := exportJSON(result, cfg.OutputJSON); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Results exported to: %s", cfg.OutputJSON)
		}
	}
	if cfg.Metrics {
		if err := dumpMetrics(reg); err != nil {
			log.Printf("Warning: failed to write metrics: %v", err)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.ConfigFile, "config", "", "Flagging config file (.json, .yaml or .yml)")
	flag.StringVar(&cfg.Set, "set", string(testset.FullBandBursts), "Synthetic test set (see -sets)")
	flag.StringVar(&cfg.Noise, "noise", "gaussian", "Background noise: gaussian, rayleigh or none")
	flag.IntVar(&cfg.Width, "width", 1024, "Time steps")
	flag.IntVar(&cfg.Height, "height", 256, "Frequency channels")
	flag.Uint64Var(&cfg.Seed, "seed", 1, "Random seed")
	flag.Float64Var(&cfg.MissingProb, "missing", 0, "Probability that a sample is missing")
	flag.IntVar(&cfg.GapEvery, "gap-every", 0, "Mark every Nth time step missing (0 disables)")
	flag.StringVar(&cfg.Tier, "tier", "", "Override the config tier: auto, reference, lanes4, lanes8")
	flag.StringVar(&cfg.DBPath, "db", "", "Store the run in this SQLite database")
	flag.StringVar(&cfg.Label, "label", "", "Label stored with the run (defaults to the set name)")
	flag.IntVar(&cfg.ListRuns, "runs", 0, "List the N most recent stored runs and exit")
	flag.StringVar(&cfg.PlotDir, "plots", "", "Write PNG heat maps to this directory")
	flag.StringVar(&cfg.ChartFile, "chart", "", "Write an HTML pass chart to this file")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Export the report as JSON to this file")
	flag.BoolVar(&cfg.Metrics, "metrics", false, "Print Prometheus metrics after the run")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&cfg.ListSets, "sets", false, "List synthetic test sets and exit")

	flag.Parse()
	return cfg
}

func printResult(r *Result) {
	rep := r.Report
	fmt.Println("\n=== RFI Flagging Results ===")
	fmt.Printf("Set: %s (%s noise, seed %d)\n", r.Set, r.Noise, r.Seed)
	fmt.Printf("Size: %dx%d\n", rep.Width, rep.Height)
	fmt.Printf("Noise scale: %.4f (%s)\n", rep.NoiseScale, rep.Distribution)
	if rep.NonFinite > 0 {
		fmt.Printf("Non-finite samples replaced: %d\n", rep.NonFinite)
	}
	if rep.TierFallback {
		fmt.Println("Requested tier unavailable, reference tier used")
	}
	total := rep.Width * rep.Height
	fmt.Printf("Flagged: %d -> %d (%.2f%%)\n", rep.InitialFlagged, rep.FinalFlagged, 100*float64(rep.FinalFlagged)/float64(total))
	fmt.Printf("Duration: %s\n", rep.Duration)

	fmt.Println("\n--- Passes ---")
	for _, p := range rep.Passes {
		fmt.Printf("  %-5s thr=%-10.4f tier=%-20s new=%-8d %s\n", p.Label(), p.Threshold, p.Tier, p.NewlyFlagged, p.Duration)
	}

	fmt.Println("\n--- Against Ground Truth ---")
	fmt.Printf("True positives:  %d\n", r.Score.TruePositives)
	fmt.Printf("False positives: %d\n", r.Score.FalsePositives)
	fmt.Printf("False negatives: %d\n", r.Score.FalseNegatives)
	fmt.Printf("Precision: %.2f%%  Recall: %.2f%%  F1: %.3f\n", 100*r.Precision, 100*r.Recall, r.Score.F1())
}

func storeRun(cfg Config, flagCfg *config.FlaggingConfig, report *flagger.Report, mask *grid.Mask) (string, error) {
	store, err := runstore.Open(cfg.DBPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	params, err := json.Marshal(flagCfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	label := cfg.Label
	if label == "" {
		label = cfg.Set
	}
	run := &runstore.Run{Label: label, Report: *report, ParamsJSON: params}
	if err := store.Insert(run, mask); err != nil {
		return "", err
	}
	return run.RunID, nil
}

func listRuns(path string, n int) error {
	store, err := runstore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %-24s %5dx%-5d flagged %d -> %d\n",
			r.RunID, r.Label, r.Report.Width, r.Report.Height, r.Report.InitialFlagged, r.Report.FinalFlagged)
	}
	return nil
}

func savePlots(dir string, data *testset.Data, mask *grid.Mask) error {
	input, err := render.ImagePlot(data.Image, nil, fmt.Sprintf("%s input", data.Set))
	if err != nil {
		return err
	}
	kept, err := render.ImagePlot(data.Image, mask, fmt.Sprintf("%s after flagging", data.Set))
	if err != nil {
		return err
	}
	flags, err := render.MaskPlot(mask, "Flag mask")
	if err != nil {
		return err
	}
	truth, err := render.MaskPlot(data.Truth, "Injected interference")
	if err != nil {
		return err
	}
	plots := []struct {
		file string
		plot *plot.Plot
	}{
		{"input.png", input},
		{"flagged.png", kept},
		{"mask.png", flags},
		{"truth.png", truth},
	}
	for _, p := range plots {
		if err := render.SavePNG(filepath.Join(dir, p.file), p.plot); err != nil {
			return err
		}
	}
	return nil
}

func saveChart(path string, report *flagger.Report, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render.WritePassChart(f, report, title)
}

func exportJSON(result *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func dumpMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	fmt.Println()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return err
		}
	}
	return nil
}
