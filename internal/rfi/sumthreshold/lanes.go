package sumthreshold

import (
	"github.com/banshee-data/rfi-flagger/internal/grid"
)

const maxLanes = 8

// laneWidth fixes how many neighbouring rows or columns a tier advances
// together. Each lane keeps its own running sum and count and follows the
// same add, test, subtract order as the reference, so the lane width never
// changes a decision.
type laneWidth interface{ lanes() int }

type (
	lanes1 struct{}
	lanes4 struct{}
	lanes8 struct{}
)

func (lanes1) lanes() int { return 1 }
func (lanes4) lanes() int { return 4 }
func (lanes8) lanes() int { return 8 }

func widthOf[W laneWidth]() int {
	var w W
	return w.lanes()
}

// snapshotHorizontal advances n rows per step. Decisions read the pre-pass
// mask; flags go to the scratch copy which is swapped in at the end.
func snapshotHorizontal[W laneWidth](img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) {
	if length == 1 {
		singleSample(img, mask, threshold)
		return
	}
	width, height := img.Width(), img.Height()
	if length > width {
		return
	}
	n := widthOf[W]()
	out := s.snapshot(mask)

	var (
		values [maxLanes][]float32
		flags  [maxLanes][]bool
		dst    [maxLanes][]bool
		sum    [maxLanes]float32
		count  [maxLanes]int32
	)
	for y0 := 0; y0 < height; y0 += n {
		active := min(n, height-y0)
		for l := 0; l < active; l++ {
			values[l], flags[l], dst[l] = img.Row(y0+l), mask.Row(y0+l), out.Row(y0+l)
			sum[l], count[l] = 0, 0
		}
		right := 0
		for ; right < length-1; right++ {
			for l := 0; l < active; l++ {
				if !flags[l][right] {
					sum[l] += values[l][right]
					count[l]++
				}
			}
		}
		for left := 0; right < width; left, right = left+1, right+1 {
			for l := 0; l < active; l++ {
				if !flags[l][right] {
					sum[l] += values[l][right]
					count[l]++
				}
				if exceeds(sum[l], count[l], threshold) {
					window := dst[l][left : right+1]
					for i := range window {
						window[i] = true
					}
				}
				if !flags[l][left] {
					sum[l] -= values[l][left]
					count[l]--
				}
			}
		}
	}
	s.commit(mask)
}

// snapshotVertical walks rows top to bottom keeping one running sum per
// column, advancing the columns n at a time.
func snapshotVertical[W laneWidth](img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) {
	if length == 1 {
		singleSample(img, mask, threshold)
		return
	}
	width, height := img.Width(), img.Height()
	if length > height {
		return
	}
	n := widthOf[W]()
	out := s.snapshot(mask)
	_, sum, count := s.lanes(width)

	for bottom := 0; bottom < length-1; bottom++ {
		values, flags := img.Row(bottom), mask.Row(bottom)
		for x0 := 0; x0 < width; x0 += n {
			for x := x0; x < min(x0+n, width); x++ {
				if !flags[x] {
					sum[x] += values[x]
					count[x]++
				}
			}
		}
	}
	for top, bottom := 0, length-1; bottom < height; top, bottom = top+1, bottom+1 {
		addValues, addFlags := img.Row(bottom), mask.Row(bottom)
		subValues, subFlags := img.Row(top), mask.Row(top)
		for x0 := 0; x0 < width; x0 += n {
			for x := x0; x < min(x0+n, width); x++ {
				if !addFlags[x] {
					sum[x] += addValues[x]
					count[x]++
				}
				if exceeds(sum[x], count[x], threshold) {
					out.SetVerticalValues(x, top, true, length)
				}
				if !subFlags[x] {
					sum[x] -= subValues[x]
					count[x]--
				}
			}
		}
	}
	s.commit(mask)
}

// incrementalHorizontal flags in place. Each lane remembers the end of the
// last window that exceeded the threshold; a sample leaving the window is
// flagged when that end lies at or after it. Samples are read before they
// can be written, so no mask copy is needed.
func incrementalHorizontal[W laneWidth](img *grid.Image, mask *grid.Mask, _ *Scratch, length int, threshold float32) {
	if length == 1 {
		singleSample(img, mask, threshold)
		return
	}
	width, height := img.Width(), img.Height()
	if length > width {
		return
	}
	n := widthOf[W]()

	var (
		values      [maxLanes][]float32
		flags       [maxLanes][]bool
		sum         [maxLanes]float32
		count       [maxLanes]int32
		lastFlagged [maxLanes]int64
	)
	for y0 := 0; y0 < height; y0 += n {
		active := min(n, height-y0)
		for l := 0; l < active; l++ {
			values[l], flags[l] = img.Row(y0+l), mask.Row(y0+l)
			sum[l], count[l], lastFlagged[l] = 0, 0, -1
		}
		for x := 0; x < length-1; x++ {
			for l := 0; l < active; l++ {
				if !flags[l][x] {
					sum[l] += values[l][x]
					count[l]++
				}
			}
		}
		for maxX := length - 1; maxX < width; maxX++ {
			minX := maxX - length + 1
			for l := 0; l < active; l++ {
				if !flags[l][maxX] {
					sum[l] += values[l][maxX]
					count[l]++
				}
				if exceeds(sum[l], count[l], threshold) {
					lastFlagged[l] = int64(maxX)
				}
				if !flags[l][minX] {
					sum[l] -= values[l][minX]
					count[l]--
				}
				if lastFlagged[l] >= int64(minX) {
					flags[l][minX] = true
				}
			}
		}
		for minX := width - length + 1; minX < width; minX++ {
			for l := 0; l < active; l++ {
				if lastFlagged[l] >= int64(minX) {
					flags[l][minX] = true
				}
			}
		}
	}
}

func incrementalVertical[W laneWidth](img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) {
	if length == 1 {
		singleSample(img, mask, threshold)
		return
	}
	width, height := img.Width(), img.Height()
	if length > height {
		return
	}
	n := widthOf[W]()
	lastFlagged, sum, count := s.lanes(width)

	for y := 0; y < length-1; y++ {
		values, flags := img.Row(y), mask.Row(y)
		for x0 := 0; x0 < width; x0 += n {
			for x := x0; x < min(x0+n, width); x++ {
				if !flags[x] {
					sum[x] += values[x]
					count[x]++
				}
			}
		}
	}
	for maxY := length - 1; maxY < height; maxY++ {
		minY := maxY - length + 1
		addValues, addFlags := img.Row(maxY), mask.Row(maxY)
		subValues, subFlags := img.Row(minY), mask.Row(minY)
		for x0 := 0; x0 < width; x0 += n {
			for x := x0; x < min(x0+n, width); x++ {
				if !addFlags[x] {
					sum[x] += addValues[x]
					count[x]++
				}
				if exceeds(sum[x], count[x], threshold) {
					lastFlagged[x] = int64(maxY)
				}
				if !subFlags[x] {
					sum[x] -= subValues[x]
					count[x]--
				}
				if lastFlagged[x] >= int64(minY) {
					subFlags[x] = true
				}
			}
		}
	}
	for minY := height - length + 1; minY < height; minY++ {
		flags := mask.Row(minY)
		for x := 0; x < width; x++ {
			if lastFlagged[x] >= int64(minY) {
				flags[x] = true
			}
		}
	}
}
