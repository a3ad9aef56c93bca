// Package flagger runs the SumThreshold scale ladder over an image: it
// calibrates thresholds against a robust noise estimate, then applies a
// horizontal and a vertical pass per scale, smallest window first.
package flagger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/rfi-flagger/internal/grid"
	"github.com/banshee-data/rfi-flagger/internal/monitoring"
	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/rfi/thresholds"
	"github.com/banshee-data/rfi-flagger/internal/timeutil"
)

// MissingStrategy selects how vertical passes skip missing samples.
type MissingStrategy int

const (
	// MissingStacked packs the present samples of each column once per
	// execution and reuses the packing for every vertical pass.
	MissingStacked MissingStrategy = iota
	// MissingConsecutive keeps a running window per column.
	MissingConsecutive
	// MissingReference transposes and runs the horizontal reference.
	MissingReference
)

func (s MissingStrategy) String() string {
	switch s {
	case MissingStacked:
		return "stacked"
	case MissingConsecutive:
		return "consecutive"
	case MissingReference:
		return "reference"
	default:
		return fmt.Sprintf("MissingStrategy(%d)", int(s))
	}
}

// ParseMissingStrategy accepts "stacked", "consecutive" or "reference".
func ParseMissingStrategy(s string) (MissingStrategy, error) {
	for _, m := range []MissingStrategy{MissingStacked, MissingConsecutive, MissingReference} {
		if m.String() == strings.ToLower(s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown missing-data strategy %q", s)
}

// Calibrator estimates the noise scale of the samples not set in masks.
type Calibrator interface {
	NoiseScale(d thresholds.Distribution, img *grid.Image, masks ...*grid.Mask) float64
}

// CalibratorFunc adapts a function to Calibrator.
type CalibratorFunc func(d thresholds.Distribution, img *grid.Image, masks ...*grid.Mask) float64

func (f CalibratorFunc) NoiseScale(d thresholds.Distribution, img *grid.Image, masks ...*grid.Mask) float64 {
	return f(d, img, masks...)
}

// Options are the per-run knobs.
type Options struct {
	// Additive keeps flags already in the mask; otherwise it is cleared first.
	Additive bool
	// TimeSensitivity scales horizontal thresholds.
	TimeSensitivity float64
	// FrequencySensitivity scales vertical thresholds.
	FrequencySensitivity float64
}

// DefaultOptions is additive with unit sensitivities.
func DefaultOptions() Options {
	return Options{Additive: true, TimeSensitivity: 1, FrequencySensitivity: 1}
}

// Flagger holds the execution environment. It keeps no state between
// runs, so one Flagger may execute concurrently on different masks.
type Flagger struct {
	tier       string
	probe      sumthreshold.CapabilityProbe
	calibrator Calibrator
	metrics    *monitoring.Metrics
	clock      timeutil.Clock
	missing    MissingStrategy
}

// Option configures a Flagger.
type Option func(*Flagger)

// WithTier requests a tier by name; "auto" or "" picks the widest supported.
func WithTier(name string) Option { return func(f *Flagger) { f.tier = name } }

// WithProbe replaces the CPU capability probe.
func WithProbe(p sumthreshold.CapabilityProbe) Option { return func(f *Flagger) { f.probe = p } }

// WithCalibrator replaces the noise estimator.
func WithCalibrator(c Calibrator) Option { return func(f *Flagger) { f.calibrator = c } }

// WithMetrics records every pass on m.
func WithMetrics(m *monitoring.Metrics) Option { return func(f *Flagger) { f.metrics = m } }

// WithClock replaces the clock used to time passes.
func WithClock(c timeutil.Clock) Option { return func(f *Flagger) { f.clock = c } }

// WithMissingStrategy selects the vertical missing-data strategy.
func WithMissingStrategy(s MissingStrategy) Option { return func(f *Flagger) { f.missing = s } }

// New returns a Flagger with automatic tier selection on the host CPU.
func New(opts ...Option) *Flagger {
	f := &Flagger{
		tier:       sumthreshold.TierAuto,
		probe:      sumthreshold.CPUProbe{},
		calibrator: CalibratorFunc(thresholds.NoiseScale),
		clock:      timeutil.RealClock{},
		missing:    MissingStacked,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Pass describes one completed directional pass.
type Pass struct {
	Scale        int                    `json:"scale"`
	Direction    sumthreshold.Direction `json:"direction"`
	Length       int                    `json:"length"`
	Threshold    float64                `json:"threshold"`
	Tier         string                 `json:"tier"`
	NewlyFlagged int                    `json:"newly_flagged"`
	Duration     time.Duration          `json:"duration_ns"`
}

// Label names the pass by direction initial and window length, e.g. "V8".
func (p Pass) Label() string {
	dir := "H"
	if p.Direction == sumthreshold.Vertical {
		dir = "V"
	}
	return dir + strconv.Itoa(p.Length)
}

// Report summarises one execution.
type Report struct {
	Width           int                     `json:"width"`
	Height          int                     `json:"height"`
	Distribution    thresholds.Distribution `json:"distribution"`
	NoiseScale      float64                 `json:"noise_scale"`
	TimeFactor      float64                 `json:"time_factor"`
	FrequencyFactor float64                 `json:"frequency_factor"`
	// NonFinite counts samples replaced by zero before calibration.
	NonFinite int `json:"non_finite"`
	// TierFallback is set when the requested tier could not run here.
	TierFallback   bool          `json:"tier_fallback"`
	InitialFlagged int           `json:"initial_flagged"`
	FinalFlagged   int           `json:"final_flagged"`
	Passes         []Pass        `json:"passes"`
	Duration       time.Duration `json:"duration_ns"`
}

// NewlyFlagged is the number of flags added by the run.
func (r *Report) NewlyFlagged() int {
	return r.FinalFlagged - r.InitialFlagged
}

// Execute runs ladder over img, updating mask. missing may be nil; when set,
// missing samples are excluded from calibration and windows and are never
// flagged. Errors are returned only for invalid arguments; on error the mask
// may be partially updated.
func (f *Flagger) Execute(ladder ScaleLadder, img *grid.Image, mask, missing *grid.Mask, opts Options) (*Report, error) {
	if img == nil || mask == nil {
		return nil, fmt.Errorf("%w: nil image or mask", sumthreshold.ErrInvalidArgument)
	}
	if img.Width() == 0 || img.Height() == 0 {
		return nil, fmt.Errorf("%w: %dx%d", sumthreshold.ErrEmptyGrid, img.Width(), img.Height())
	}
	if err := grid.CheckSameSize(img, mask, missing); err != nil {
		return nil, fmt.Errorf("%w: %v", sumthreshold.ErrSizeMismatch, err)
	}
	for _, op := range append(ladder.Horizontal(), ladder.Vertical()...) {
		if !sumthreshold.ValidLength(op.Length) {
			return nil, fmt.Errorf("%w: %d", sumthreshold.ErrInvalidLength, op.Length)
		}
	}

	start := f.clock.Now()
	report := &Report{
		Width:        img.Width(),
		Height:       img.Height(),
		Distribution: ladder.Distribution(),
	}

	if !img.AllFinite() {
		report.NonFinite = countNonFinite(img)
		monitoring.Logf("flagger: replacing %d non-finite samples with zero", report.NonFinite)
		img = img.FiniteCopy()
	}

	report.NoiseScale = f.calibrator.NoiseScale(ladder.Distribution(), img, mask, missing)
	report.TimeFactor, report.FrequencyFactor = opts.TimeSensitivity, opts.FrequencySensitivity
	if report.NoiseScale != 0 {
		report.TimeFactor *= report.NoiseScale
		report.FrequencyFactor *= report.NoiseScale
	} else {
		monitoring.Logf("flagger: %s noise scale is zero, using unscaled sensitivities", ladder.Distribution())
	}

	if !opts.Additive {
		mask.SetAll(false)
	}
	report.InitialFlagged = mask.Count(true)

	run := &execution{
		flagger: f,
		img:     img,
		mask:    mask,
		missing: missing,
		scratch: sumthreshold.NewScratch(img.Width(), img.Height()),
		report:  report,
		flagged: report.InitialFlagged,
	}
	if missing != nil && f.missing != MissingConsecutive && f.missing != MissingReference && ladder.VerticalCount() > 0 {
		cache, err := sumthreshold.NewMissingCache(img, missing)
		if err != nil {
			return nil, err
		}
		run.cache = cache
	}

	for i := 0; i < ladder.scales(); i++ {
		if i < ladder.HorizontalCount() {
			if err := run.pass(i, sumthreshold.Horizontal, ladder.HorizontalLength(i), ladder.HorizontalThreshold(i)*report.TimeFactor); err != nil {
				return nil, err
			}
		}
		if i < ladder.VerticalCount() {
			if err := run.pass(i, sumthreshold.Vertical, ladder.VerticalLength(i), ladder.VerticalThreshold(i)*report.FrequencyFactor); err != nil {
				return nil, err
			}
		}
	}

	report.FinalFlagged = run.flagged
	report.Duration = f.clock.Since(start)
	monitoring.Debugf("flagger: %dx%d %d passes, %d new flags in %v",
		report.Width, report.Height, len(report.Passes), report.NewlyFlagged(), report.Duration)
	return report, nil
}

// execution is the state of one Execute call.
type execution struct {
	flagger *Flagger
	img     *grid.Image
	mask    *grid.Mask
	missing *grid.Mask
	scratch *sumthreshold.Scratch
	cache   *sumthreshold.MissingCache
	report  *Report
	flagged int
}

func (e *execution) pass(scale int, dir sumthreshold.Direction, length int, threshold float64) error {
	f := e.flagger
	start := f.clock.Now()
	tier, err := e.run(dir, length, float32(threshold))
	if err != nil {
		return err
	}
	elapsed := f.clock.Since(start)

	flagged := e.mask.Count(true)
	p := Pass{
		Scale:        scale,
		Direction:    dir,
		Length:       length,
		Threshold:    threshold,
		Tier:         tier,
		NewlyFlagged: flagged - e.flagged,
		Duration:     elapsed,
	}
	e.flagged = flagged
	e.report.Passes = append(e.report.Passes, p)
	f.metrics.ObservePass(tier, dir.String(), p.NewlyFlagged, elapsed)
	monitoring.Debugf("flagger: %s L=%d threshold=%.4g tier=%s new=%d", dir, length, threshold, tier, p.NewlyFlagged)
	return nil
}

// run selects the implementation for one pass and returns its name.
func (e *execution) run(dir sumthreshold.Direction, length int, threshold float32) (string, error) {
	if e.missing == nil {
		tier, fellBack := sumthreshold.ResolveTier(e.flagger.tier, e.flagger.probe)
		if fellBack && !e.report.TierFallback {
			e.report.TierFallback = true
			monitoring.Logf("flagger: tier %q not available, falling back to %s", e.flagger.tier, tier.Name())
		}
		return tier.Name(), tier.Run(dir, e.img, e.mask, e.scratch, length, threshold)
	}

	if dir == sumthreshold.Horizontal {
		return "missing", sumthreshold.HorizontalMissing(e.img, e.mask, e.missing, e.scratch, length, threshold)
	}
	name := "missing-" + e.flagger.missing.String()
	switch e.flagger.missing {
	case MissingConsecutive:
		return name, sumthreshold.VerticalMissingConsecutive(e.img, e.mask, e.missing, e.scratch, length, threshold)
	case MissingReference:
		return name, sumthreshold.VerticalMissingReference(e.img, e.mask, e.missing, length, threshold)
	default:
		return name, sumthreshold.VerticalMissingStacked(e.cache, e.mask, length, threshold)
	}
}

func countNonFinite(img *grid.Image) int {
	n := 0
	for y := 0; y < img.Height(); y++ {
		for _, v := range img.Row(y) {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				n++
			}
		}
	}
	return n
}
