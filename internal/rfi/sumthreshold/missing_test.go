package sumthreshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

func TestHorizontalMissingBand(t *testing.T) {
	t.Parallel()

	img := grid.NewImage(8, 8)
	for y := 0; y < 8; y++ {
		img.SetValue(3, y, 1)
		img.SetValue(4, y, 1)
	}
	mask := grid.NewMask(8, 8)
	missing := grid.NewMask(8, 8)
	require.NoError(t, HorizontalMissing(img, mask, missing, nil, 2, 0.8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, x == 3 || x == 4, mask.Value(x, y), "x=%d y=%d", x, y)
		}
	}
}

func TestMissingSamplesAreSkipped(t *testing.T) {
	t.Parallel()

	// A window of two present samples spans the gap at x=1.
	img, err := grid.NewImageFromRows([][]float32{{1, 50, 1, 0, 0}})
	require.NoError(t, err)
	missing := grid.NewMask(5, 1)
	missing.SetValue(1, 0, true)
	mask := grid.NewMask(5, 1)
	require.NoError(t, HorizontalMissing(img, mask, missing, nil, 2, 0.9))

	assert.True(t, mask.Value(0, 0))
	assert.False(t, mask.Value(1, 0), "missing sample must not be flagged")
	assert.True(t, mask.Value(2, 0))
	assert.False(t, mask.Value(3, 0))
	assert.False(t, mask.Value(4, 0))
}

func TestMissingLeadingGapAndShortRuns(t *testing.T) {
	t.Parallel()

	img := grid.NewSetImage(6, 1, 10)
	missing := grid.NewMask(6, 1)
	missing.SetHorizontalValues(0, 0, true, 2)
	missing.SetValue(4, 0, true)

	mask := grid.NewMask(6, 1)
	require.NoError(t, HorizontalMissing(img, mask, missing, nil, 4, 1))
	assert.Zero(t, mask.Count(true), "only three present samples")

	require.NoError(t, HorizontalMissing(img, mask, missing, nil, 2, 1))
	for x := 0; x < 6; x++ {
		assert.Equal(t, !missing.Value(x, 0), mask.Value(x, 0), "x=%d", x)
	}
}

type verticalMissingFunc func(img *grid.Image, mask, missing *grid.Mask, length int, threshold float32) error

func verticalStrategies(t *testing.T) map[string]verticalMissingFunc {
	return map[string]verticalMissingFunc{
		"reference": VerticalMissingReference,
		"consecutive": func(img *grid.Image, mask, missing *grid.Mask, length int, threshold float32) error {
			return VerticalMissingConsecutive(img, mask, missing, nil, length, threshold)
		},
		"stacked": func(img *grid.Image, mask, missing *grid.Mask, length int, threshold float32) error {
			cache, err := NewMissingCache(img, missing)
			require.NoError(t, err)
			return VerticalMissingStacked(cache, mask, length, threshold)
		},
	}
}

func TestVerticalMissingStrategiesAgree(t *testing.T) {
	t.Parallel()

	for i, size := range [][2]int{{23, 61}, {8, 8}, {1, 40}, {40, 1}, {17, 300}} {
		w, h := size[0], size[1]
		img := noiseImage(w, h, uint64(i+20))
		prior := randomMask(w, h, 0.05, uint64(i+30))
		missing := randomMask(w, h, 0.2, uint64(i+40))
		missing.SetVerticalValues(w/2, 0, true, h/2)

		for _, length := range SupportedLengths() {
			threshold := ladderThreshold(2, length)
			want := prior.Clone()
			require.NoError(t, VerticalMissingReference(img, want, missing, length, threshold))
			for name, run := range verticalStrategies(t) {
				got := prior.Clone()
				require.NoError(t, run(img, got, missing, length, threshold))
				assert.True(t, want.Equal(got), "%s L=%d %dx%d", name, length, w, h)
			}
		}
	}
}

func TestMissingNeverFlagged(t *testing.T) {
	t.Parallel()

	img := noiseImage(30, 30, 50)
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			img.AddValue(x, y, 5)
		}
	}
	missing := randomMask(30, 30, 0.3, 51)
	for name, run := range verticalStrategies(t) {
		for _, length := range SupportedLengths() {
			mask := grid.NewMask(30, 30)
			require.NoError(t, run(img, mask, missing, length, 1))
			require.NoError(t, HorizontalMissing(img, mask, missing, nil, length, 1))
			for y := 0; y < 30; y++ {
				for x := 0; x < 30; x++ {
					if missing.Value(x, y) {
						require.False(t, mask.Value(x, y), "%s L=%d flagged missing (%d,%d)", name, length, x, y)
					}
				}
			}
		}
	}
}

func TestMissingWithoutGapsMatchesTiers(t *testing.T) {
	t.Parallel()

	img := noiseImage(33, 27, 60)
	prior := randomMask(33, 27, 0.05, 61)
	none := grid.NewMask(33, 27)
	for _, length := range SupportedLengths() {
		threshold := ladderThreshold(2.5, length)

		want := prior.Clone()
		require.NoError(t, Reference.Horizontal(img, want, nil, length, threshold))
		got := prior.Clone()
		require.NoError(t, HorizontalMissing(img, got, none, nil, length, threshold))
		assert.True(t, want.Equal(got), "horizontal L=%d", length)

		want = prior.Clone()
		require.NoError(t, Reference.Vertical(img, want, nil, length, threshold))
		for name, run := range verticalStrategies(t) {
			got := prior.Clone()
			require.NoError(t, run(img, got, none, length, threshold))
			assert.True(t, want.Equal(got), "%s L=%d", name, length)
		}
	}
}

func TestMissingCache(t *testing.T) {
	t.Parallel()

	img, err := grid.NewImageFromRows([][]float32{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	require.NoError(t, err)
	missing := grid.NewMask(3, 3)
	missing.SetValue(0, 1, true)
	missing.SetVerticalValues(2, 0, true, 3)

	cache, err := NewMissingCache(img, missing)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Present(0))
	assert.Equal(t, 3, cache.Present(1))
	assert.Equal(t, 0, cache.Present(2))

	rows, values := cache.Column(0)
	assert.Equal(t, []int32{0, 2}, rows)
	assert.Equal(t, []float32{1, 7}, values)
	rows, values = cache.Column(1)
	assert.Equal(t, []int32{0, 1, 2}, rows)
	assert.Equal(t, []float32{2, 5, 8}, values)

	_, err = NewMissingCache(img, grid.NewMask(2, 3))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.ErrorIs(t, VerticalMissingStacked(cache, grid.NewMask(3, 4), 2, 1), ErrSizeMismatch)
	assert.ErrorIs(t, VerticalMissingStacked(cache, grid.NewMask(3, 3), 6, 1), ErrInvalidLength)
}
