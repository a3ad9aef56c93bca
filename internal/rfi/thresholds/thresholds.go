// Package thresholds estimates the noise level of a time-frequency image
// from its unflagged samples. The winsorized estimators clip the tails of
// the sample distribution so that strong interference does not inflate the
// estimate.
package thresholds

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// Correction factors that make the winsorized estimators unbiased for
// Gaussian and Rayleigh noise when 10% of each tail is clipped.
const (
	winsorizedVarianceCorrection = 1.54
	winsorizedModeCorrection     = 1.0541
)

// Distribution is the assumed noise distribution of the image.
type Distribution int

const (
	Gaussian Distribution = iota
	Rayleigh
)

func (d Distribution) String() string {
	switch d {
	case Gaussian:
		return "gaussian"
	case Rayleigh:
		return "rayleigh"
	default:
		return fmt.Sprintf("Distribution(%d)", int(d))
	}
}

// MarshalText encodes the distribution by name.
func (d Distribution) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (d *Distribution) UnmarshalText(text []byte) error {
	v, err := ParseDistribution(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDistribution accepts "gaussian" or "rayleigh", case-insensitively.
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gaussian":
		return Gaussian, nil
	case "rayleigh":
		return Rayleigh, nil
	default:
		return 0, fmt.Errorf("unknown noise distribution %q", s)
	}
}

// NoiseScale returns the winsorized standard deviation for Gaussian noise
// and the winsorized mode for Rayleigh noise. Samples set in any of masks
// are excluded; nil masks are ignored.
func NoiseScale(d Distribution, img *grid.Image, masks ...*grid.Mask) float64 {
	if d == Rayleigh {
		return WinsorizedMode(img, masks...)
	}
	_, stddev := WinsorizedMeanAndStdDev(img, masks...)
	return stddev
}

// Collect returns the finite samples of img that are not set in any mask.
func Collect(img *grid.Image, masks ...*grid.Mask) []float64 {
	out := make([]float64, 0, img.Width()*img.Height())
	for y := 0; y < img.Height(); y++ {
	samples:
		for x, v := range img.Row(y) {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				continue
			}
			for _, m := range masks {
				if m != nil && m.Value(x, y) {
					continue samples
				}
			}
			out = append(out, float64(v))
		}
	}
	return out
}

// WinsorizedMeanAndStdDev clips the lowest and highest 10% of the
// unflagged samples to the values at those ranks and returns the mean and
// the corrected standard deviation of the result. Both are zero when no
// sample remains.
func WinsorizedMeanAndStdDev(img *grid.Image, masks ...*grid.Mask) (mean, stddev float64) {
	return WinsorizedMeanAndStdDevSlice(Collect(img, masks...))
}

// WinsorizedMeanAndStdDevSlice is WinsorizedMeanAndStdDev over plain
// values. values is reordered.
func WinsorizedMeanAndStdDevSlice(values []float64) (mean, stddev float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	sort.Float64s(values)
	low := values[int(math.Floor(0.1*float64(n)))]
	highIndex := int(math.Ceil(0.9*float64(n))) - 1
	if highIndex < 0 {
		highIndex = 0
	}
	high := values[highIndex]
	for i, v := range values {
		values[i] = math.Min(math.Max(v, low), high)
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(winsorizedVarianceCorrection * variance)
}

// WinsorizedMode estimates the mode of Rayleigh distributed samples after
// clipping the highest 10% to the value at the 90% rank. It is zero when no
// sample remains.
func WinsorizedMode(img *grid.Image, masks ...*grid.Mask) float64 {
	values := Collect(img, masks...)
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	high := values[int(math.Floor(0.9*float64(n)))]
	for i, v := range values {
		if v > high {
			values[i] = high
		}
	}
	return math.Sqrt(floats.Dot(values, values)/(2*float64(n))) * winsorizedModeCorrection
}

// Mode is the Rayleigh mode estimate without clipping.
func Mode(img *grid.Image, masks ...*grid.Mask) float64 {
	values := Collect(img, masks...)
	if len(values) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(values, values) / (2 * float64(len(values))))
}

// RMS is the root mean square of the unflagged samples.
func RMS(img *grid.Image, masks ...*grid.Mask) float64 {
	values := Collect(img, masks...)
	if len(values) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(values, values) / float64(len(values)))
}

// MeanAndStdDev returns the population mean and standard deviation of the
// unflagged samples.
func MeanAndStdDev(img *grid.Image, masks ...*grid.Mask) (mean, stddev float64) {
	values := Collect(img, masks...)
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}
