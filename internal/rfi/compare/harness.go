package compare

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/rfi-flagger/internal/grid"
	"github.com/banshee-data/rfi-flagger/internal/monitoring"
	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/timeutil"
)

// NaiveTier names the direct-recomputation oracle in results.
const NaiveTier = "naive"

// Result is one tier run on one length and direction.
type Result struct {
	Tier      string                 `json:"tier"`
	Direction sumthreshold.Direction `json:"direction"`
	Length    int                    `json:"length"`
	Threshold float64                `json:"threshold"`
	Flagged   int                    `json:"flagged"`
	// Mismatches counts cells whose flag differs from the reference tier.
	Mismatches int           `json:"mismatches"`
	Duration   time.Duration `json:"duration_ns"`
}

// Agrees reports whether the run matched the reference tier exactly.
func (r Result) Agrees() bool { return r.Mismatches == 0 }

// Harness runs tiers side by side.
type Harness struct {
	probe   sumthreshold.CapabilityProbe
	clock   timeutil.Clock
	repeats int
	lengths []int
	naive   bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithProbe sets the capability probe that decides which tiers run.
func WithProbe(p sumthreshold.CapabilityProbe) Option { return func(h *Harness) { h.probe = p } }

// WithClock sets the clock used for timing.
func WithClock(c timeutil.Clock) Option { return func(h *Harness) { h.clock = c } }

// WithRepeats sets how many times each run is timed; the mean is reported.
func WithRepeats(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.repeats = n
		}
	}
}

// WithLengths restricts the window lengths compared.
func WithLengths(lengths ...int) Option {
	return func(h *Harness) { h.lengths = append([]int(nil), lengths...) }
}

// WithNaive includes the O(N*L) oracle. It accumulates in a different order,
// so on non-integer data it may disagree at threshold boundaries.
func WithNaive(enabled bool) Option { return func(h *Harness) { h.naive = enabled } }

// NewHarness returns a harness over every supported length.
func NewHarness(opts ...Option) *Harness {
	h := &Harness{
		probe:   sumthreshold.CPUProbe{},
		clock:   timeutil.RealClock{},
		repeats: 1,
		lengths: sumthreshold.SupportedLengths(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type runner struct {
	name string
	run  func(dir sumthreshold.Direction, img *grid.Image, mask *grid.Mask, s *sumthreshold.Scratch, length int, threshold float32) error
}

func (h *Harness) runners() []runner {
	var out []runner
	for _, t := range sumthreshold.Tiers() {
		if !h.probe.Supports(t.Requires()) {
			monitoring.Debugf("compare: skipping tier %s, requires %s", t.Name(), t.Requires())
			continue
		}
		out = append(out, runner{name: t.Name(), run: t.Run})
	}
	if h.naive {
		out = append(out, runner{name: NaiveTier, run: naiveRun})
	}
	return out
}

func naiveRun(dir sumthreshold.Direction, img *grid.Image, mask *grid.Mask, _ *sumthreshold.Scratch, length int, threshold float32) error {
	if dir == sumthreshold.Vertical {
		return sumthreshold.VerticalNaive(img, mask, length, threshold)
	}
	return sumthreshold.HorizontalNaive(img, mask, length, threshold)
}

// Run compares every runnable tier on img starting from prior (nil means an
// empty mask). Thresholds follow the ladder rule for baseThreshold.
// Non-finite samples are replaced by zero first, as the flagger does.
func (h *Harness) Run(img *grid.Image, prior *grid.Mask, baseThreshold float64) ([]Result, error) {
	if prior == nil {
		prior = grid.NewMask(img.Width(), img.Height())
	}
	if err := grid.CheckSameSize(img, prior); err != nil {
		return nil, fmt.Errorf("%w: %v", sumthreshold.ErrSizeMismatch, err)
	}
	if !img.AllFinite() {
		img = img.FiniteCopy()
	}

	scratch := sumthreshold.NewScratch(img.Width(), img.Height())
	runners := h.runners()
	var results []Result
	for _, length := range h.lengths {
		threshold := flagger.ThresholdFor(baseThreshold, length)
		for _, dir := range []sumthreshold.Direction{sumthreshold.Horizontal, sumthreshold.Vertical} {
			want := prior.Clone()
			if err := sumthreshold.Reference.Run(dir, img, want, scratch, length, float32(threshold)); err != nil {
				return nil, err
			}
			for _, r := range runners {
				got, elapsed, err := h.time(r, dir, img, prior, scratch, length, float32(threshold))
				if err != nil {
					return nil, fmt.Errorf("tier %s: %w", r.name, err)
				}
				results = append(results, Result{
					Tier:       r.name,
					Direction:  dir,
					Length:     length,
					Threshold:  threshold,
					Flagged:    got.Count(true),
					Mismatches: Mismatches(got, want),
					Duration:   elapsed,
				})
			}
		}
	}
	return results, nil
}

func (h *Harness) time(r runner, dir sumthreshold.Direction, img *grid.Image, prior *grid.Mask, s *sumthreshold.Scratch, length int, threshold float32) (*grid.Mask, time.Duration, error) {
	samples := make([]float64, h.repeats)
	var mask *grid.Mask
	for i := range samples {
		mask = prior.Clone()
		start := h.clock.Now()
		if err := r.run(dir, img, mask, s, length, threshold); err != nil {
			return nil, 0, err
		}
		samples[i] = float64(h.clock.Since(start))
	}
	return mask, time.Duration(stat.Mean(samples, nil)), nil
}

// Mismatches counts cells that differ between two equally sized masks.
func Mismatches(a, b *grid.Mask) int {
	n := 0
	for y := 0; y < a.Height(); y++ {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			if ra[x] != rb[x] {
				n++
			}
		}
	}
	return n
}

// Summary aggregates the results of one tier.
type Summary struct {
	Tier          string        `json:"tier"`
	Runs          int           `json:"runs"`
	Disagreements int           `json:"disagreements"`
	Mismatches    int           `json:"mismatches"`
	Total         time.Duration `json:"total_ns"`
	// Speedup is reference time over tier time; zero when either is unknown.
	Speedup float64 `json:"speedup"`
}

// Summarize groups results by tier, sorted by name.
func Summarize(results []Result) []Summary {
	byTier := make(map[string]*Summary)
	for _, r := range results {
		s, ok := byTier[r.Tier]
		if !ok {
			s = &Summary{Tier: r.Tier}
			byTier[r.Tier] = s
		}
		s.Runs++
		s.Mismatches += r.Mismatches
		if !r.Agrees() {
			s.Disagreements++
		}
		s.Total += r.Duration
	}

	var reference time.Duration
	if ref, ok := byTier[sumthreshold.Reference.Name()]; ok {
		reference = ref.Total
	}
	out := make([]Summary, 0, len(byTier))
	for _, s := range byTier {
		if reference > 0 && s.Total > 0 {
			s.Speedup = float64(reference) / float64(s.Total)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}
