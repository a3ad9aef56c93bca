package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImage_StrideAligned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		width      int
		wantStride int
	}{
		{0, 0},
		{1, 8},
		{8, 8},
		{9, 16},
		{2048, 2048},
	}
	for _, tt := range tests {
		img := NewImage(tt.width, 3)
		assert.Equal(t, tt.wantStride, img.Stride(), "width %d", tt.width)
		assert.Len(t, img.Row(2), tt.width)
		assert.Len(t, img.PaddedRow(2), tt.wantStride)
	}
}

func TestImage_ValueRoundTrip(t *testing.T) {
	t.Parallel()
	img := NewSetImage(5, 4, 1.5)
	img.SetValue(4, 3, -2)
	img.AddValue(4, 3, 0.5)

	assert.Equal(t, float32(1.5), img.Value(0, 0))
	assert.Equal(t, float32(-1.5), img.Value(4, 3))
	assert.Equal(t, float32(-1.5), img.Row(3)[4])
}

func TestNewImageFromRows(t *testing.T) {
	t.Parallel()

	img, err := NewImageFromRows([][]float32{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())
	assert.Equal(t, float32(6), img.Value(2, 1))

	_, err = NewImageFromRows([][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestImage_FiniteCopy(t *testing.T) {
	t.Parallel()
	img := NewSetImage(3, 3, 2)
	assert.True(t, img.AllFinite())

	img.SetValue(1, 1, float32(math.NaN()))
	img.SetValue(2, 0, float32(math.Inf(-1)))
	assert.False(t, img.AllFinite())

	finite := img.FiniteCopy()
	assert.True(t, finite.AllFinite())
	assert.Equal(t, float32(0), finite.Value(1, 1))
	assert.Equal(t, float32(0), finite.Value(2, 0))
	assert.Equal(t, float32(2), finite.Value(0, 0))
	// Source untouched.
	assert.True(t, math.IsNaN(float64(img.Value(1, 1))))
}

func TestImage_Transpose(t *testing.T) {
	t.Parallel()
	img := NewImage(3, 2)
	img.SetValue(2, 1, 7)
	tr := img.Transpose()
	assert.Equal(t, 2, tr.Width())
	assert.Equal(t, 3, tr.Height())
	assert.Equal(t, float32(7), tr.Value(1, 2))
}

func TestMask_SetRanges(t *testing.T) {
	t.Parallel()
	m := NewMask(6, 5)
	m.SetHorizontalValues(1, 2, true, 3)
	m.SetVerticalValues(5, 1, true, 4)

	assert.Equal(t, 7, m.Count(true))
	assert.True(t, m.Value(1, 2))
	assert.True(t, m.Value(3, 2))
	assert.False(t, m.Value(4, 2))
	assert.True(t, m.Value(5, 4))
	assert.False(t, m.Value(5, 0))
}

func TestMask_SetAllKeepsPaddingClear(t *testing.T) {
	t.Parallel()
	m := NewSetMask(3, 2, true)
	assert.Equal(t, 6, m.Count(true))
	assert.Equal(t, 0, m.Count(false))
	// Padding is never reported and never set.
	for y := 0; y < m.Height(); y++ {
		start := y * m.Stride()
		for i := start + m.Width(); i < start+m.Stride(); i++ {
			assert.False(t, m.data[i])
		}
	}
	m.SetAll(false)
	assert.Equal(t, 0, m.Count(true))
}

func TestMask_EqualCloneCopy(t *testing.T) {
	t.Parallel()
	a := NewMask(4, 4)
	a.SetValue(2, 3, true)
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.SetValue(0, 0, true)
	assert.False(t, a.Equal(b))

	require.NoError(t, a.CopyFrom(b))
	assert.True(t, a.Equal(b))

	assert.ErrorIs(t, a.CopyFrom(NewMask(3, 4)), ErrSizeMismatch)
	assert.False(t, a.Equal(NewMask(4, 3)))
}

func TestMask_SwapAndOr(t *testing.T) {
	t.Parallel()
	a := NewMask(2, 2)
	b := NewMask(2, 2)
	b.SetValue(1, 1, true)

	a.Swap(b)
	assert.True(t, a.Value(1, 1))
	assert.False(t, b.Value(1, 1))

	b.SetValue(0, 0, true)
	require.NoError(t, a.Or(b))
	assert.Equal(t, 2, a.Count(true))
	assert.ErrorIs(t, a.Or(NewMask(1, 2)), ErrSizeMismatch)
}

func TestMask_Transpose(t *testing.T) {
	t.Parallel()
	m := NewMask(5, 2)
	m.SetValue(4, 0, true)
	tr := m.Transpose()
	assert.Equal(t, 2, tr.Width())
	assert.Equal(t, 5, tr.Height())
	assert.True(t, tr.Value(0, 4))
	assert.True(t, tr.Transpose().Equal(m))
}

func TestCheckSameSize(t *testing.T) {
	t.Parallel()
	img := NewImage(4, 3)
	assert.NoError(t, CheckSameSize(img, NewMask(4, 3), nil))
	assert.ErrorIs(t, CheckSameSize(img, NewMask(4, 3), NewMask(3, 4)), ErrSizeMismatch)
}
