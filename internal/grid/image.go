package grid

import (
	"errors"
	"fmt"
	"math"
)

// LaneAlign is the number of samples every row stride is rounded up to.
const LaneAlign = 8

// ErrSizeMismatch is returned when two grids that must share dimensions do not.
var ErrSizeMismatch = errors.New("grid: size mismatch")

func alignedStride(width int) int {
	return (width + LaneAlign - 1) / LaneAlign * LaneAlign
}

// Image is a width x height grid of float32 samples.
type Image struct {
	width  int
	height int
	stride int
	data   []float32
}

// NewImage returns a zero-filled image.
func NewImage(width, height int) *Image {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("grid: negative image size %dx%d", width, height))
	}
	stride := alignedStride(width)
	return &Image{
		width:  width,
		height: height,
		stride: stride,
		data:   make([]float32, stride*height),
	}
}

// NewSetImage returns an image with every sample set to value.
func NewSetImage(width, height int, value float32) *Image {
	img := NewImage(width, height)
	for y := 0; y < height; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = value
		}
	}
	return img
}

// NewImageFromRows builds an image from row slices; every row must have the
// same length.
func NewImageFromRows(rows [][]float32) (*Image, error) {
	if len(rows) == 0 {
		return NewImage(0, 0), nil
	}
	width := len(rows[0])
	img := NewImage(width, len(rows))
	for y, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrSizeMismatch, y, len(r), width)
		}
		copy(img.Row(y), r)
	}
	return img, nil
}

func (img *Image) Width() int  { return img.width }
func (img *Image) Height() int { return img.height }

// Stride is the distance in samples between the starts of two rows.
func (img *Image) Stride() int { return img.stride }

// Value returns the sample at (x, y).
func (img *Image) Value(x, y int) float32 {
	return img.data[y*img.stride+x]
}

// SetValue stores v at (x, y).
func (img *Image) SetValue(x, y int, v float32) {
	img.data[y*img.stride+x] = v
}

// AddValue adds v to the sample at (x, y).
func (img *Image) AddValue(x, y int, v float32) {
	img.data[y*img.stride+x] += v
}

// Row returns row y without its padding. The slice aliases the image.
func (img *Image) Row(y int) []float32 {
	start := y * img.stride
	return img.data[start : start+img.width : start+img.width]
}

// PaddedRow returns row y including the stride padding.
func (img *Image) PaddedRow(y int) []float32 {
	start := y * img.stride
	return img.data[start : start+img.stride : start+img.stride]
}

// AllFinite reports whether the image contains no NaN or infinite samples.
func (img *Image) AllFinite() bool {
	for y := 0; y < img.height; y++ {
		for _, v := range img.Row(y) {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return false
			}
		}
	}
	return true
}

// FiniteCopy returns a copy of the image in which every non-finite sample
// has been replaced by zero.
func (img *Image) FiniteCopy() *Image {
	out := img.Clone()
	for y := 0; y < out.height; y++ {
		row := out.Row(y)
		for x, v := range row {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				row[x] = 0
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := &Image{
		width:  img.width,
		height: img.height,
		stride: img.stride,
		data:   make([]float32, len(img.data)),
	}
	copy(out.data, img.data)
	return out
}

// Transpose returns a new image with the x and y axes swapped.
func (img *Image) Transpose() *Image {
	out := NewImage(img.height, img.width)
	for y := 0; y < img.height; y++ {
		for x, v := range img.Row(y) {
			out.SetValue(y, x, v)
		}
	}
	return out
}

// SameSize reports whether both containers have identical dimensions.
func SameSize(aw, ah, bw, bh int) bool {
	return aw == bw && ah == bh
}

// CheckSameSize returns ErrSizeMismatch when the image and mask dimensions
// differ.
func CheckSameSize(img *Image, masks ...*Mask) error {
	for _, m := range masks {
		if m == nil {
			continue
		}
		if !SameSize(img.width, img.height, m.width, m.height) {
			return fmt.Errorf("%w: image is %dx%d, mask is %dx%d",
				ErrSizeMismatch, img.width, img.height, m.width, m.height)
		}
	}
	return nil
}
