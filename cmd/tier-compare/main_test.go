package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/rfi/testset"
)

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name string
		wide bool
		vec  bool
	}{
		{"none", false, false},
		{"vector", false, true},
		{"wide", true, true},
	}
	for _, tt := range tests {
		p, err := parseProbe(tt.name)
		if err != nil {
			t.Fatalf("parseProbe(%q): %v", tt.name, err)
		}
		if p.Supports(sumthreshold.FeatureWideVector) != tt.wide || p.Supports(sumthreshold.FeatureVector) != tt.vec {
			t.Errorf("parseProbe(%q) = %+v", tt.name, p)
		}
	}
	if _, err := parseProbe("cpu"); err != nil {
		t.Errorf("parseProbe(cpu): %v", err)
	}
	if _, err := parseProbe("quantum"); err == nil {
		t.Error("expected error for unknown probe")
	}
}

func TestParseSets(t *testing.T) {
	all, err := parseSets("all")
	if err != nil || len(all) != len(testset.Sets()) {
		t.Fatalf("parseSets(all) = %d sets, err %v", len(all), err)
	}
	got, err := parseSets("empty, spectral-lines")
	if err != nil {
		t.Fatalf("parseSets: %v", err)
	}
	if len(got) != 2 || got[0] != testset.Empty || got[1] != testset.SpectralLines {
		t.Errorf("parseSets = %v", got)
	}
	if _, err := parseSets("empty,bogus"); err == nil {
		t.Error("expected error for unknown set")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	in := &ComparisonResult{Width: 8, Height: 4, Noise: "none", Disagreeing: 0}
	if err := exportJSON(in, path); err != nil {
		t.Fatalf("exportJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out ComparisonResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Width != 8 || out.Height != 4 || out.Noise != "none" {
		t.Errorf("round trip = %+v", out)
	}
}
