package sumthreshold

import (
	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// singleSample applies the length-1 test in place: an unflagged sample is
// flagged when its magnitude exceeds the threshold.
func singleSample(img *grid.Image, mask *grid.Mask, threshold float32) {
	for y := 0; y < img.Height(); y++ {
		values, flags := img.Row(y), mask.Row(y)
		for x, v := range values {
			if !flags[x] && exceeds(v, 1, threshold) {
				flags[x] = true
			}
		}
	}
}

// referenceHorizontal reads the pre-pass mask, writes new flags into the
// scratch copy and swaps the copy in when the pass completes.
func referenceHorizontal(img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) {
	if length == 1 {
		singleSample(img, mask, threshold)
		return
	}
	width := img.Width()
	if length > width {
		return
	}
	out := s.snapshot(mask)
	for y := 0; y < img.Height(); y++ {
		values, flags, dst := img.Row(y), mask.Row(y), out.Row(y)
		var sum float32
		var count int32
		right := 0
		for ; right < length-1; right++ {
			if !flags[right] {
				sum += values[right]
				count++
			}
		}
		for left := 0; right < width; left, right = left+1, right+1 {
			if !flags[right] {
				sum += values[right]
				count++
			}
			if exceeds(sum, count, threshold) {
				for i := left; i <= right; i++ {
					dst[i] = true
				}
			}
			if !flags[left] {
				sum -= values[left]
				count--
			}
		}
	}
	s.commit(mask)
}

func referenceVertical(img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) {
	if length == 1 {
		singleSample(img, mask, threshold)
		return
	}
	height := img.Height()
	if length > height {
		return
	}
	out := s.snapshot(mask)
	for x := 0; x < img.Width(); x++ {
		var sum float32
		var count int32
		bottom := 0
		for ; bottom < length-1; bottom++ {
			if !mask.Value(x, bottom) {
				sum += img.Value(x, bottom)
				count++
			}
		}
		for top := 0; bottom < height; top, bottom = top+1, bottom+1 {
			if !mask.Value(x, bottom) {
				sum += img.Value(x, bottom)
				count++
			}
			if exceeds(sum, count, threshold) {
				out.SetVerticalValues(x, top, true, length)
			}
			if !mask.Value(x, top) {
				sum -= img.Value(x, top)
				count--
			}
		}
	}
	s.commit(mask)
}
