package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/rfi/thresholds"
)

// DefaultConfigPath is the path to the canonical flagging defaults file.
const DefaultConfigPath = "config/flagging.defaults.json"

// FlaggingConfig holds the SumThreshold flagging parameters. Fields left
// unset fall back to the defaults returned by the Get* methods, so partial
// files are safe.
type FlaggingConfig struct {
	// Thresholds
	BaseThreshold        *float64 `json:"base_threshold,omitempty" yaml:"base_threshold,omitempty"`
	Distribution         *string  `json:"distribution,omitempty" yaml:"distribution,omitempty"` // "gaussian" or "rayleigh"
	TimeSensitivity      *float64 `json:"time_sensitivity,omitempty" yaml:"time_sensitivity,omitempty"`
	FrequencySensitivity *float64 `json:"frequency_sensitivity,omitempty" yaml:"frequency_sensitivity,omitempty"`

	// Ladder
	ScaleCount   *int  `json:"scale_count,omitempty" yaml:"scale_count,omitempty"`
	SingleSample *bool `json:"single_sample,omitempty" yaml:"single_sample,omitempty"`
	Additive     *bool `json:"additive,omitempty" yaml:"additive,omitempty"`

	// Execution
	Tier            *string `json:"tier,omitempty" yaml:"tier,omitempty"`                         // auto, reference, lanes4, lanes8
	MissingStrategy *string `json:"missing_strategy,omitempty" yaml:"missing_strategy,omitempty"` // stacked, consecutive, reference
	Debug           *bool   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyFlaggingConfig returns a FlaggingConfig with all fields set to nil.
func EmptyFlaggingConfig() *FlaggingConfig {
	return &FlaggingConfig{}
}

// DefaultFlaggingConfig returns a config with every field set to its default.
func DefaultFlaggingConfig() *FlaggingConfig {
	return &FlaggingConfig{
		BaseThreshold:        ptrFloat64(6.0),
		Distribution:         ptrString("gaussian"),
		TimeSensitivity:      ptrFloat64(1.0),
		FrequencySensitivity: ptrFloat64(1.0),
		ScaleCount:           ptrInt(flagger.MaxScales),
		SingleSample:         ptrBool(false),
		Additive:             ptrBool(true),
		Tier:                 ptrString(sumthreshold.TierAuto),
		MissingStrategy:      ptrString("stacked"),
		Debug:                ptrBool(false),
	}
}

// LoadFlaggingConfig loads a FlaggingConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
func LoadFlaggingConfig(path string) (*FlaggingConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyFlaggingConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories and
// panics if the file cannot be loaded. Intended for test setup.
func MustLoadDefaultConfig() *FlaggingConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/rfi/flagger/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadFlaggingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *FlaggingConfig) Validate() error {
	if c.BaseThreshold != nil && *c.BaseThreshold <= 0 {
		return fmt.Errorf("base_threshold must be positive, got %f", *c.BaseThreshold)
	}
	if c.Distribution != nil {
		if _, err := thresholds.ParseDistribution(*c.Distribution); err != nil {
			return fmt.Errorf("invalid distribution: %w", err)
		}
	}
	if c.TimeSensitivity != nil && *c.TimeSensitivity <= 0 {
		return fmt.Errorf("time_sensitivity must be positive, got %f", *c.TimeSensitivity)
	}
	if c.FrequencySensitivity != nil && *c.FrequencySensitivity <= 0 {
		return fmt.Errorf("frequency_sensitivity must be positive, got %f", *c.FrequencySensitivity)
	}
	if c.ScaleCount != nil && (*c.ScaleCount < 1 || *c.ScaleCount > flagger.MaxScales) {
		return fmt.Errorf("scale_count must be between 1 and %d, got %d", flagger.MaxScales, *c.ScaleCount)
	}
	if c.Tier != nil && *c.Tier != sumthreshold.TierAuto {
		if _, ok := sumthreshold.TierByName(*c.Tier); !ok {
			return fmt.Errorf("unknown tier %q, want one of %v", *c.Tier, sumthreshold.TierNames())
		}
	}
	if c.MissingStrategy != nil {
		if _, err := flagger.ParseMissingStrategy(*c.MissingStrategy); err != nil {
			return err
		}
	}
	return nil
}

// GetBaseThreshold returns the base_threshold value or the default.
func (c *FlaggingConfig) GetBaseThreshold() float64 {
	if c.BaseThreshold == nil {
		return 6.0
	}
	return *c.BaseThreshold
}

// GetDistribution returns the noise model, Gaussian when unset or invalid.
func (c *FlaggingConfig) GetDistribution() thresholds.Distribution {
	if c.Distribution == nil {
		return thresholds.Gaussian
	}
	d, err := thresholds.ParseDistribution(*c.Distribution)
	if err != nil {
		return thresholds.Gaussian
	}
	return d
}

// GetTimeSensitivity returns the time_sensitivity value or the default.
func (c *FlaggingConfig) GetTimeSensitivity() float64 {
	if c.TimeSensitivity == nil {
		return 1.0
	}
	return *c.TimeSensitivity
}

// GetFrequencySensitivity returns the frequency_sensitivity value or the default.
func (c *FlaggingConfig) GetFrequencySensitivity() float64 {
	if c.FrequencySensitivity == nil {
		return 1.0
	}
	return *c.FrequencySensitivity
}

// GetScaleCount returns the scale_count value or the default.
func (c *FlaggingConfig) GetScaleCount() int {
	if c.ScaleCount == nil {
		return flagger.MaxScales
	}
	return *c.ScaleCount
}

// GetSingleSample returns the single_sample value or the default.
func (c *FlaggingConfig) GetSingleSample() bool {
	if c.SingleSample == nil {
		return false
	}
	return *c.SingleSample
}

// GetAdditive returns the additive value or the default.
func (c *FlaggingConfig) GetAdditive() bool {
	if c.Additive == nil {
		return true
	}
	return *c.Additive
}

// GetTier returns the tier value or the default.
func (c *FlaggingConfig) GetTier() string {
	if c.Tier == nil || *c.Tier == "" {
		return sumthreshold.TierAuto
	}
	return *c.Tier
}

// GetMissingStrategy returns the missing-data strategy, stacked when unset or invalid.
func (c *FlaggingConfig) GetMissingStrategy() flagger.MissingStrategy {
	if c.MissingStrategy == nil {
		return flagger.MissingStacked
	}
	s, err := flagger.ParseMissingStrategy(*c.MissingStrategy)
	if err != nil {
		return flagger.MissingStacked
	}
	return s
}

// GetDebug returns the debug value or the default.
func (c *FlaggingConfig) GetDebug() bool {
	if c.Debug == nil {
		return false
	}
	return *c.Debug
}

// Ladder builds the calibrated scale ladder.
func (c *FlaggingConfig) Ladder() flagger.ScaleLadder {
	ladder := flagger.DefaultLadder(c.GetScaleCount())
	if c.GetSingleSample() {
		ladder = flagger.SingleSampleLadder()
	}
	return ladder.WithThresholds(c.GetBaseThreshold(), c.GetDistribution())
}

// Options returns the per-run options.
func (c *FlaggingConfig) Options() flagger.Options {
	return flagger.Options{
		Additive:             c.GetAdditive(),
		TimeSensitivity:      c.GetTimeSensitivity(),
		FrequencySensitivity: c.GetFrequencySensitivity(),
	}
}

// FlaggerOptions returns the execution options for flagger.New.
func (c *FlaggingConfig) FlaggerOptions() []flagger.Option {
	return []flagger.Option{
		flagger.WithTier(c.GetTier()),
		flagger.WithMissingStrategy(c.GetMissingStrategy()),
	}
}
