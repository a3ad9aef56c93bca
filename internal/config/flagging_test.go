package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
	"github.com/banshee-data/rfi-flagger/internal/rfi/thresholds"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultFlaggingConfig(t *testing.T) {
	cfg := DefaultFlaggingConfig()

	if cfg.BaseThreshold == nil || *cfg.BaseThreshold != 6.0 {
		t.Errorf("Expected BaseThreshold 6.0, got %v", cfg.BaseThreshold)
	}
	if cfg.Tier == nil || *cfg.Tier != "auto" {
		t.Errorf("Expected Tier 'auto', got %v", cfg.Tier)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	empty := EmptyFlaggingConfig()
	if empty.GetBaseThreshold() != cfg.GetBaseThreshold() {
		t.Errorf("GetBaseThreshold() = %f, want %f", empty.GetBaseThreshold(), cfg.GetBaseThreshold())
	}
	if empty.GetScaleCount() != 9 {
		t.Errorf("GetScaleCount() = %d, want 9", empty.GetScaleCount())
	}
	if !empty.GetAdditive() {
		t.Error("GetAdditive() should default to true")
	}
	if empty.GetDistribution() != thresholds.Gaussian {
		t.Errorf("GetDistribution() = %v, want gaussian", empty.GetDistribution())
	}
	if empty.GetMissingStrategy() != flagger.MissingStacked {
		t.Errorf("GetMissingStrategy() = %v, want stacked", empty.GetMissingStrategy())
	}
	if empty.GetTier() != "auto" {
		t.Errorf("GetTier() = %q, want auto", empty.GetTier())
	}
}

func TestLoadFlaggingConfigJSON(t *testing.T) {
	path := writeConfig(t, "flagging.json", `{
  "base_threshold": 4.5,
  "distribution": "rayleigh",
  "scale_count": 5,
  "additive": false,
  "tier": "lanes4"
}`)
	cfg, err := LoadFlaggingConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetBaseThreshold() != 4.5 {
		t.Errorf("GetBaseThreshold() = %f, want 4.5", cfg.GetBaseThreshold())
	}
	if cfg.GetDistribution() != thresholds.Rayleigh {
		t.Errorf("GetDistribution() = %v, want rayleigh", cfg.GetDistribution())
	}
	if cfg.GetAdditive() {
		t.Error("GetAdditive() = true, want false")
	}
	// Unset fields keep their defaults.
	if cfg.GetTimeSensitivity() != 1.0 {
		t.Errorf("GetTimeSensitivity() = %f, want 1.0", cfg.GetTimeSensitivity())
	}

	ladder := cfg.Ladder()
	if ladder.HorizontalCount() != 5 {
		t.Errorf("ladder has %d scales, want 5", ladder.HorizontalCount())
	}
	if ladder.HorizontalThreshold(0) != 4.5 {
		t.Errorf("first threshold = %f, want 4.5", ladder.HorizontalThreshold(0))
	}
	if ladder.Distribution() != thresholds.Rayleigh {
		t.Errorf("ladder distribution = %v, want rayleigh", ladder.Distribution())
	}
	if opts := cfg.Options(); opts.Additive {
		t.Error("Options().Additive = true, want false")
	}
	if n := len(cfg.FlaggerOptions()); n != 2 {
		t.Errorf("FlaggerOptions() returned %d options, want 2", n)
	}
}

func TestLoadFlaggingConfigYAML(t *testing.T) {
	for _, name := range []string{"flagging.yaml", "flagging.yml"} {
		path := writeConfig(t, name, `
time_sensitivity: 1.2
frequency_sensitivity: 0.8
single_sample: true
missing_strategy: consecutive
debug: true
`)
		cfg, err := LoadFlaggingConfig(path)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", name, err)
		}
		if cfg.GetTimeSensitivity() != 1.2 || cfg.GetFrequencySensitivity() != 0.8 {
			t.Errorf("%s: sensitivities = %f/%f", name, cfg.GetTimeSensitivity(), cfg.GetFrequencySensitivity())
		}
		if cfg.GetMissingStrategy() != flagger.MissingConsecutive {
			t.Errorf("%s: GetMissingStrategy() = %v", name, cfg.GetMissingStrategy())
		}
		if !cfg.GetDebug() {
			t.Errorf("%s: GetDebug() = false", name)
		}
		if cfg.Ladder().HorizontalCount() != 1 {
			t.Errorf("%s: single_sample ladder has %d scales", name, cfg.Ladder().HorizontalCount())
		}
	}
}

func TestLoadFlaggingConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"extension", "flagging.txt", `{}`, "extension"},
		{"json syntax", "bad.json", `{"base_threshold": }`, "parse config JSON"},
		{"yaml syntax", "bad.yaml", "base_threshold: [", "parse config YAML"},
		{"threshold", "t.json", `{"base_threshold": -1}`, "base_threshold"},
		{"distribution", "d.json", `{"distribution": "poisson"}`, "distribution"},
		{"scale count", "s.json", `{"scale_count": 10}`, "scale_count"},
		{"sensitivity", "f.json", `{"frequency_sensitivity": 0}`, "frequency_sensitivity"},
		{"tier", "tier.json", `{"tier": "lanes16"}`, "unknown tier"},
		{"strategy", "m.json", `{"missing_strategy": "zigzag"}`, "missing-data strategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFlaggingConfig(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadFlaggingConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	big := writeConfig(t, "big.json", `{"debug": false`+strings.Repeat(" ", 1024*1024)+`}`)
	if _, err := LoadFlaggingConfig(big); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	want := DefaultFlaggingConfig()
	if cfg.GetBaseThreshold() != want.GetBaseThreshold() ||
		cfg.GetScaleCount() != want.GetScaleCount() ||
		cfg.GetTier() != want.GetTier() ||
		cfg.GetDistribution() != want.GetDistribution() {
		t.Errorf("defaults file disagrees with DefaultFlaggingConfig: %+v", cfg)
	}
}
