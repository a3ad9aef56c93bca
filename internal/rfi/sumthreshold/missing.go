package sumthreshold

import (
	"fmt"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// A window over data with gaps spans L consecutive present samples; the
// missing samples between them are skipped. Only present samples inside a
// window that exceeds the threshold are flagged.

// HorizontalMissing runs a horizontal pass that skips samples set in
// missing. It is the reference for the missing-data variants.
func HorizontalMissing(img *grid.Image, mask, missing *grid.Mask, s *Scratch, length int, threshold float32) error {
	if err := validate(img, mask, length, missing); err != nil {
		return err
	}
	horizontalMissing(img, mask, missing, scratchFor(s, img), length, threshold)
	return nil
}

func horizontalMissing(img *grid.Image, mask, missing *grid.Mask, s *Scratch, length int, threshold float32) {
	width := img.Width()
	if length > width {
		return
	}
	out := s.snapshot(mask)
	for y := 0; y < img.Height(); y++ {
		values, flags, absent, dst := img.Row(y), mask.Row(y), missing.Row(y), out.Row(y)

		left := 0
		for left < width && absent[left] {
			left++
		}
		var sum float32
		var count int32
		right, present := left, 0
		for present < length-1 && right < width {
			if !absent[right] {
				if !flags[right] {
					sum += values[right]
					count++
				}
				present++
			}
			right++
		}
		for right < width && absent[right] {
			right++
		}
		for right < width {
			if !flags[right] {
				sum += values[right]
				count++
			}
			if exceeds(sum, count, threshold) {
				for i := left; i <= right; i++ {
					if !absent[i] {
						dst[i] = true
					}
				}
			}
			if !flags[left] {
				sum -= values[left]
				count--
			}
			for left++; left < width && absent[left]; left++ {
			}
			for right++; right < width && absent[right]; right++ {
			}
		}
	}
	s.commit(mask)
}

// VerticalMissingReference runs the vertical pass by transposing the grids
// and applying HorizontalMissing. It allocates and is meant for checking
// the faster strategies.
func VerticalMissingReference(img *grid.Image, mask, missing *grid.Mask, length int, threshold float32) error {
	if err := validate(img, mask, length, missing); err != nil {
		return err
	}
	timg, tmask, tmissing := img.Transpose(), mask.Transpose(), missing.Transpose()
	horizontalMissing(timg, tmask, tmissing, NewScratch(timg.Width(), timg.Height()), length, threshold)
	return mask.CopyFrom(tmask.Transpose())
}

type columnState struct {
	sum     float32
	count   int32
	present int
	start   int
}

// VerticalMissingConsecutive walks rows top to bottom with one running
// window per column, tracking where each column's window starts.
func VerticalMissingConsecutive(img *grid.Image, mask, missing *grid.Mask, s *Scratch, length int, threshold float32) error {
	if err := validate(img, mask, length, missing); err != nil {
		return err
	}
	width, height := img.Width(), img.Height()
	if length > height {
		return nil
	}
	s = scratchFor(s, img)
	out := s.snapshot(mask)
	columns := make([]columnState, width)
	for y := 0; y < height; y++ {
		values, flags, absent := img.Row(y), mask.Row(y), missing.Row(y)
		for x := 0; x < width; x++ {
			if absent[x] {
				continue
			}
			c := &columns[x]
			if !flags[x] {
				c.sum += values[x]
				c.count++
			}
			c.present++
			if c.present < length {
				continue
			}
			if exceeds(c.sum, c.count, threshold) {
				for i := c.start; i <= y; i++ {
					if !missing.Value(x, i) {
						out.SetValue(x, i, true)
					}
				}
			}
			for ; missing.Value(x, c.start); c.start++ {
			}
			if !mask.Value(x, c.start) {
				c.sum -= img.Value(x, c.start)
				c.count--
			}
			c.present--
			c.start++
		}
	}
	s.commit(mask)
	return nil
}

// MissingCache holds the present samples of every column packed together:
// column x owns rows[offsets[x]:offsets[x+1]] and the matching values. It
// is built once and reused by every vertical pass over the same data.
type MissingCache struct {
	width, height int
	offsets       []int
	rows          []int32
	values        []float32
	flags         []bool
}

// NewMissingCache packs the present samples of img column by column.
func NewMissingCache(img *grid.Image, missing *grid.Mask) (*MissingCache, error) {
	if err := grid.CheckSameSize(img, missing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSizeMismatch, err)
	}
	width, height := img.Width(), img.Height()
	c := &MissingCache{width: width, height: height, offsets: make([]int, width+1)}
	for y := 0; y < height; y++ {
		for x, absent := range missing.Row(y) {
			if !absent {
				c.offsets[x+1]++
			}
		}
	}
	longest := 0
	for x := 0; x < width; x++ {
		longest = max(longest, c.offsets[x+1])
		c.offsets[x+1] += c.offsets[x]
	}
	total := c.offsets[width]
	c.rows = make([]int32, total)
	c.values = make([]float32, total)
	c.flags = make([]bool, longest)
	next := make([]int, width)
	copy(next, c.offsets[:width])
	for y := 0; y < height; y++ {
		values, absent := img.Row(y), missing.Row(y)
		for x := range absent {
			if absent[x] {
				continue
			}
			c.rows[next[x]] = int32(y)
			c.values[next[x]] = values[x]
			next[x]++
		}
	}
	return c, nil
}

// Present reports how many samples of column x are not missing.
func (c *MissingCache) Present(x int) int { return c.offsets[x+1] - c.offsets[x] }

// Column returns the rows and values of the present samples of column x.
func (c *MissingCache) Column(x int) (rows []int32, values []float32) {
	lo, hi := c.offsets[x], c.offsets[x+1]
	return c.rows[lo:hi], c.values[lo:hi]
}

// VerticalMissingStacked runs the vertical pass over the packed columns of
// cache, so every window is a contiguous run, and maps the flags back.
func VerticalMissingStacked(cache *MissingCache, mask *grid.Mask, length int, threshold float32) error {
	if !ValidLength(length) {
		return fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if cache == nil || mask == nil {
		return fmt.Errorf("%w: nil cache or mask", ErrInvalidArgument)
	}
	if cache.width == 0 || cache.height == 0 {
		return ErrEmptyGrid
	}
	if !grid.SameSize(cache.width, cache.height, mask.Width(), mask.Height()) {
		return fmt.Errorf("%w: cache %dx%d, mask %dx%d", ErrSizeMismatch,
			cache.width, cache.height, mask.Width(), mask.Height())
	}
	for x := 0; x < cache.width; x++ {
		rows, values := cache.Column(x)
		if len(rows) < length {
			continue
		}
		flags := cache.flags[:len(rows)]
		for i, y := range rows {
			flags[i] = mask.Value(x, int(y))
		}
		slide(values, flags, length, threshold)
		for i, y := range rows {
			if flags[i] {
				mask.SetValue(x, int(y), true)
			}
		}
	}
	return nil
}

// slide applies the last-flagged formulation to one contiguous run.
func slide(values []float32, flags []bool, length int, threshold float32) {
	n := len(values)
	var sum float32
	var count int32
	last := -1
	for i := 0; i < length-1; i++ {
		if !flags[i] {
			sum += values[i]
			count++
		}
	}
	for maxI := length - 1; maxI < n; maxI++ {
		minI := maxI - length + 1
		if !flags[maxI] {
			sum += values[maxI]
			count++
		}
		if exceeds(sum, count, threshold) {
			last = maxI
		}
		if !flags[minI] {
			sum -= values[minI]
			count--
		}
		if last >= minI {
			flags[minI] = true
		}
	}
	for minI := n - length + 1; minI < n; minI++ {
		if last >= minI {
			flags[minI] = true
		}
	}
}
