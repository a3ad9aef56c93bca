package grid

import (
	"fmt"
)

// Mask is a width x height grid of flags sharing the Image layout.
type Mask struct {
	width  int
	height int
	stride int
	data   []bool
}

// NewMask returns a mask with every flag cleared.
func NewMask(width, height int) *Mask {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("grid: negative mask size %dx%d", width, height))
	}
	stride := alignedStride(width)
	return &Mask{
		width:  width,
		height: height,
		stride: stride,
		data:   make([]bool, stride*height),
	}
}

// NewSetMask returns a mask with every flag set to value.
func NewSetMask(width, height int, value bool) *Mask {
	m := NewMask(width, height)
	if value {
		m.SetAll(true)
	}
	return m
}

func (m *Mask) Width() int  { return m.width }
func (m *Mask) Height() int { return m.height }
func (m *Mask) Stride() int { return m.stride }

func (m *Mask) Value(x, y int) bool {
	return m.data[y*m.stride+x]
}

func (m *Mask) SetValue(x, y int, v bool) {
	m.data[y*m.stride+x] = v
}

// Row returns row y without its padding. The slice aliases the mask.
func (m *Mask) Row(y int) []bool {
	start := y * m.stride
	return m.data[start : start+m.width : start+m.width]
}

// SetHorizontalValues sets count flags starting at (x, y) along the row.
func (m *Mask) SetHorizontalValues(x, y int, v bool, count int) {
	start := y*m.stride + x
	row := m.data[start : start+count]
	for i := range row {
		row[i] = v
	}
}

// SetVerticalValues sets count flags starting at (x, y) down the column.
func (m *Mask) SetVerticalValues(x, y int, v bool, count int) {
	idx := y*m.stride + x
	for i := 0; i < count; i++ {
		m.data[idx] = v
		idx += m.stride
	}
}

// SetAll sets every flag (padding included) to v.
func (m *Mask) SetAll(v bool) {
	for i := range m.data {
		m.data[i] = v
	}
	if v {
		m.clearPadding()
	}
}

func (m *Mask) clearPadding() {
	for y := 0; y < m.height; y++ {
		start := y * m.stride
		for i := start + m.width; i < start+m.stride; i++ {
			m.data[i] = false
		}
	}
}

// Count returns the number of flags equal to v.
func (m *Mask) Count(v bool) int {
	n := 0
	for y := 0; y < m.height; y++ {
		for _, f := range m.Row(y) {
			if f == v {
				n++
			}
		}
	}
	return n
}

// Equal reports whether both masks have the same size and flags.
func (m *Mask) Equal(o *Mask) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for y := 0; y < m.height; y++ {
		a, b := m.Row(y), o.Row(y)
		for x := range a {
			if a[x] != b[x] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{
		width:  m.width,
		height: m.height,
		stride: m.stride,
		data:   make([]bool, len(m.data)),
	}
	copy(out.data, m.data)
	return out
}

// CopyFrom overwrites m with the flags of o.
func (m *Mask) CopyFrom(o *Mask) error {
	if m.width != o.width || m.height != o.height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, m.width, m.height, o.width, o.height)
	}
	copy(m.data, o.data)
	return nil
}

// Swap exchanges the contents of two equally sized masks without copying.
func (m *Mask) Swap(o *Mask) {
	m.width, o.width = o.width, m.width
	m.height, o.height = o.height, m.height
	m.stride, o.stride = o.stride, m.stride
	m.data, o.data = o.data, m.data
}

// Or sets every flag that is set in o.
func (m *Mask) Or(o *Mask) error {
	if m.width != o.width || m.height != o.height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, m.width, m.height, o.width, o.height)
	}
	for y := 0; y < m.height; y++ {
		dst, src := m.Row(y), o.Row(y)
		for x, f := range src {
			if f {
				dst[x] = true
			}
		}
	}
	return nil
}

// Transpose returns a new mask with the x and y axes swapped.
func (m *Mask) Transpose() *Mask {
	out := NewMask(m.height, m.width)
	for y := 0; y < m.height; y++ {
		for x, f := range m.Row(y) {
			out.SetValue(y, x, f)
		}
	}
	return out
}
