package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/rfi-flagger/internal/config"
	"github.com/banshee-data/rfi-flagger/internal/grid"
	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
	"github.com/banshee-data/rfi-flagger/internal/rfi/testset"
	"github.com/banshee-data/rfi-flagger/internal/runstore"
)

func flagSet(t *testing.T) (*testset.Data, *flagger.Report, *grid.Mask) {
	t.Helper()
	data, err := testset.Make(testset.HalfBandBursts, testset.NoiseGaussian, 128, 32, 4)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	cfg := config.DefaultFlaggingConfig()
	mask := grid.NewMask(128, 32)
	report, err := flagger.New(cfg.FlaggerOptions()...).Execute(cfg.Ladder(), data.Image, mask, nil, cfg.Options())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return data, report, mask
}

func TestStoreRun(t *testing.T) {
	_, report, mask := flagSet(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	cfg := Config{DBPath: dbPath, Set: string(testset.HalfBandBursts)}

	runID, err := storeRun(cfg, config.DefaultFlaggingConfig(), report, mask)
	if err != nil {
		t.Fatalf("storeRun: %v", err)
	}
	if err := listRuns(dbPath, 5); err != nil {
		t.Errorf("listRuns: %v", err)
	}

	store, err := runstore.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	run, err := store.Get(runID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Label != string(testset.HalfBandBursts) {
		t.Errorf("Label = %q, want set name", run.Label)
	}
	if len(run.ParamsJSON) == 0 {
		t.Error("expected config stored with run")
	}
}

func TestSaveOutputs(t *testing.T) {
	data, report, mask := flagSet(t)
	dir := t.TempDir()

	if err := savePlots(filepath.Join(dir, "plots"), data, mask); err != nil {
		t.Fatalf("savePlots: %v", err)
	}
	for _, name := range []string{"input.png", "flagged.png", "mask.png", "truth.png"} {
		if _, err := os.Stat(filepath.Join(dir, "plots", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	chart := filepath.Join(dir, "passes.html")
	if err := saveChart(chart, report, "half-band"); err != nil {
		t.Fatalf("saveChart: %v", err)
	}
	if info, err := os.Stat(chart); err != nil || info.Size() == 0 {
		t.Errorf("chart not written: %v", err)
	}

	out := filepath.Join(dir, "result.json")
	if err := exportJSON(&Result{Set: data.Set, Report: report}, out); err != nil {
		t.Fatalf("exportJSON: %v", err)
	}
}
