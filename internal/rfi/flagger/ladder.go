package flagger

import (
	"math"

	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/rfi/thresholds"
)

// ExpFactor sets how fast the per-sample threshold falls with window length.
const ExpFactor = 1.5

// MaxScales is the length of the full ladder 1, 2, 4, ... 256.
const MaxScales = 9

// Operation is one scale: a window length and its threshold in units of
// the noise scale.
type Operation struct {
	Length    int
	Threshold float64
}

// ScaleLadder is an immutable list of horizontal and vertical operations
// plus the noise model used to calibrate them. The With* methods return
// modified copies.
type ScaleLadder struct {
	horizontal   []Operation
	vertical     []Operation
	distribution thresholds.Distribution
}

// ThresholdFor returns base * 1.5^log2(length) / length.
func ThresholdFor(base float64, length int) float64 {
	l := float64(length)
	return base * math.Pow(ExpFactor, math.Log2(l)) / l
}

// DefaultLadder returns the first count lengths of 1, 2, 4, ... 256 for both
// directions, with zero thresholds. A count outside 1..9 selects all nine.
func DefaultLadder(count int) ScaleLadder {
	if count <= 0 || count > MaxScales {
		count = MaxScales
	}
	lengths := sumthreshold.SupportedLengths()[:count]
	l := ScaleLadder{
		horizontal: make([]Operation, count),
		vertical:   make([]Operation, count),
	}
	for i, length := range lengths {
		l.horizontal[i] = Operation{Length: length}
		l.vertical[i] = Operation{Length: length}
	}
	return l
}

// SingleSampleLadder is the one-scale ladder that reduces to plain
// per-sample thresholding.
func SingleSampleLadder() ScaleLadder {
	return DefaultLadder(1)
}

func (l ScaleLadder) clone() ScaleLadder {
	return ScaleLadder{
		horizontal:   append([]Operation(nil), l.horizontal...),
		vertical:     append([]Operation(nil), l.vertical...),
		distribution: l.distribution,
	}
}

// WithThresholds derives every threshold from base and records the noise
// model.
func (l ScaleLadder) WithThresholds(base float64, d thresholds.Distribution) ScaleLadder {
	out := l.clone()
	for i := range out.horizontal {
		out.horizontal[i].Threshold = ThresholdFor(base, out.horizontal[i].Length)
	}
	for i := range out.vertical {
		out.vertical[i].Threshold = ThresholdFor(base, out.vertical[i].Length)
	}
	out.distribution = d
	return out
}

// WithHorizontalThreshold overrides the threshold of horizontal scale i.
func (l ScaleLadder) WithHorizontalThreshold(i int, threshold float64) ScaleLadder {
	out := l.clone()
	out.horizontal[i].Threshold = threshold
	return out
}

// WithVerticalThreshold overrides the threshold of vertical scale i.
func (l ScaleLadder) WithVerticalThreshold(i int, threshold float64) ScaleLadder {
	out := l.clone()
	out.vertical[i].Threshold = threshold
	return out
}

// WithoutHorizontal drops all horizontal operations.
func (l ScaleLadder) WithoutHorizontal() ScaleLadder {
	out := l.clone()
	out.horizontal = nil
	return out
}

// WithoutVertical drops all vertical operations.
func (l ScaleLadder) WithoutVertical() ScaleLadder {
	out := l.clone()
	out.vertical = nil
	return out
}

func (l ScaleLadder) Distribution() thresholds.Distribution { return l.distribution }

func (l ScaleLadder) HorizontalCount() int { return len(l.horizontal) }
func (l ScaleLadder) VerticalCount() int   { return len(l.vertical) }

func (l ScaleLadder) HorizontalLength(i int) int        { return l.horizontal[i].Length }
func (l ScaleLadder) HorizontalThreshold(i int) float64 { return l.horizontal[i].Threshold }
func (l ScaleLadder) VerticalLength(i int) int          { return l.vertical[i].Length }
func (l ScaleLadder) VerticalThreshold(i int) float64   { return l.vertical[i].Threshold }

// Horizontal returns a copy of the horizontal operations.
func (l ScaleLadder) Horizontal() []Operation { return append([]Operation(nil), l.horizontal...) }

// Vertical returns a copy of the vertical operations.
func (l ScaleLadder) Vertical() []Operation { return append([]Operation(nil), l.vertical...) }

// scales is the number of scale steps Execute runs.
func (l ScaleLadder) scales() int {
	return max(len(l.horizontal), len(l.vertical))
}
