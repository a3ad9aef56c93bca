package thresholds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

const tolerance = 1e-5

func TestWinsorizedMeanAndStdDev(t *testing.T) {
	t.Parallel()

	img := grid.NewImage(100, 1)
	mean, stddev := WinsorizedMeanAndStdDev(img, grid.NewSetMask(100, 1, true))
	assert.Zero(t, mean)
	assert.Zero(t, stddev)

	empty := grid.NewMask(100, 1)
	mean, stddev = WinsorizedMeanAndStdDev(img, empty)
	assert.InDelta(t, 0, mean, tolerance)
	assert.InDelta(t, 0, stddev, tolerance)

	img.SetValue(0, 0, 1)
	mean, stddev = WinsorizedMeanAndStdDev(img, empty)
	assert.InDelta(t, 0, mean, tolerance)
	assert.InDelta(t, 0, stddev, tolerance)

	img.SetValue(1, 0, -2)
	mean, stddev = WinsorizedMeanAndStdDev(img, empty)
	assert.InDelta(t, 0, mean, tolerance)
	assert.InDelta(t, 0, stddev, tolerance)

	half := grid.NewMask(100, 1)
	half.SetHorizontalValues(50, 0, true, 50)
	mean, stddev = WinsorizedMeanAndStdDev(img, half)
	assert.InDelta(t, 0, mean, tolerance)
	assert.InDelta(t, 0, stddev, tolerance)

	for x := 0; x < 50; x++ {
		img.SetValue(x, 0, 1)
	}
	mean, stddev = WinsorizedMeanAndStdDev(img, half)
	assert.InDelta(t, 1, mean, tolerance)
	assert.InDelta(t, 0, stddev, tolerance)

	for x := 0; x < 25; x++ {
		img.SetValue(x, 0, -1)
	}
	mean, stddev = WinsorizedMeanAndStdDev(img, half)
	assert.InDelta(t, 0, mean, tolerance)
	assert.InDelta(t, math.Sqrt(1.54), stddev, tolerance)

	for x := 0; x < 100; x++ {
		img.SetValue(x, 0, float32(x+1))
	}
	mean, _ = WinsorizedMeanAndStdDev(img, half)
	assert.InDelta(t, 25.5, mean, 0.2)
}

func TestWinsorizedMeanAndStdDevSkipsNonFinite(t *testing.T) {
	t.Parallel()

	img, err := grid.NewImageFromRows([][]float32{{1, 1, float32(math.NaN()), float32(math.Inf(1)), 1}})
	require.NoError(t, err)
	mean, stddev := WinsorizedMeanAndStdDev(img)
	assert.InDelta(t, 1, mean, tolerance)
	assert.InDelta(t, 0, stddev, tolerance)
}

func TestWinsorizedMeanAndStdDevSlice(t *testing.T) {
	t.Parallel()

	mean, stddev := WinsorizedMeanAndStdDevSlice(nil)
	assert.Zero(t, mean)
	assert.Zero(t, stddev)

	mean, stddev = WinsorizedMeanAndStdDevSlice([]float64{4})
	assert.Equal(t, 4.0, mean)
	assert.Zero(t, stddev)

	// One outlier in ten is clipped to its neighbour.
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1000}
	mean, stddev = WinsorizedMeanAndStdDevSlice(values)
	assert.InDelta(t, 1, mean, tolerance)
	assert.InDelta(t, 0, stddev, tolerance)
}

func TestWinsorizedMode(t *testing.T) {
	t.Parallel()

	img := grid.NewImage(100, 1)
	assert.Zero(t, WinsorizedMode(img, grid.NewSetMask(100, 1, true)))

	empty := grid.NewMask(100, 1)
	assert.InDelta(t, 0, WinsorizedMode(img, empty), tolerance)

	img.SetValue(0, 0, 1)
	assert.InDelta(t, 0, WinsorizedMode(img, empty), tolerance)

	half := grid.NewMask(100, 1)
	half.SetHorizontalValues(50, 0, true, 50)
	assert.InDelta(t, 0, WinsorizedMode(img, half), tolerance)

	for x := 0; x < 50; x++ {
		img.SetValue(x, 0, 1)
	}
	assert.InDelta(t, math.Sqrt(0.5)*1.0541, WinsorizedMode(img, half), tolerance)
}

func TestPlainEstimators(t *testing.T) {
	t.Parallel()

	img, err := grid.NewImageFromRows([][]float32{{3, -3, 3, -3}, {3, 3, 3, 100}})
	require.NoError(t, err)
	mask := grid.NewMask(4, 2)
	mask.SetValue(3, 1, true)

	assert.InDelta(t, 3, RMS(img, mask), tolerance)
	assert.InDelta(t, 3/math.Sqrt(2), Mode(img, mask), tolerance)

	mean, stddev := MeanAndStdDev(img, mask)
	assert.InDelta(t, 9.0/7, mean, tolerance)
	assert.Greater(t, stddev, 2.0)

	all := grid.NewSetMask(4, 2, true)
	assert.Zero(t, RMS(img, all))
	assert.Zero(t, Mode(img, all))
	mean, stddev = MeanAndStdDev(img, all)
	assert.Zero(t, mean)
	assert.Zero(t, stddev)
}

func TestCollectCombinesMasks(t *testing.T) {
	t.Parallel()

	img := grid.NewSetImage(3, 2, 1)
	a := grid.NewMask(3, 2)
	a.SetValue(0, 0, true)
	b := grid.NewMask(3, 2)
	b.SetValue(2, 1, true)
	assert.Len(t, Collect(img, a, nil, b), 4)
	assert.Len(t, Collect(img), 6)
}

func TestNoiseScale(t *testing.T) {
	t.Parallel()

	img := grid.NewImage(100, 1)
	for x := 0; x < 100; x++ {
		if x%2 == 0 {
			img.SetValue(x, 0, 1)
		} else {
			img.SetValue(x, 0, -1)
		}
	}
	assert.InDelta(t, math.Sqrt(1.54), NoiseScale(Gaussian, img), tolerance)
	assert.InDelta(t, math.Sqrt(0.5)*1.0541, NoiseScale(Rayleigh, img), tolerance)
}

func TestParseDistribution(t *testing.T) {
	t.Parallel()

	d, err := ParseDistribution("Rayleigh")
	require.NoError(t, err)
	assert.Equal(t, Rayleigh, d)
	assert.Equal(t, "rayleigh", d.String())

	d, err = ParseDistribution(" gaussian ")
	require.NoError(t, err)
	assert.Equal(t, Gaussian, d)

	_, err = ParseDistribution("poisson")
	assert.Error(t, err)
}
