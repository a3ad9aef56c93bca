package sumthreshold

import (
	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// HorizontalNaive recomputes every horizontal window from scratch against a
// snapshot of the pre-pass mask. It is quadratic in the window length and
// exists as an oracle for the sliding tiers. Sums are formed from left to
// right per window, so on data that is not exactly representable the
// decisions may differ from the sliding tiers at the rounding boundary.
func HorizontalNaive(img *grid.Image, mask *grid.Mask, length int, threshold float32) error {
	if err := validate(img, mask, length); err != nil {
		return err
	}
	if length > img.Width() {
		return nil
	}
	before := mask.Clone()
	for y := 0; y < img.Height(); y++ {
		for x0 := 0; x0+length <= img.Width(); x0++ {
			var sum float32
			var count int32
			for x := x0; x < x0+length; x++ {
				if !before.Value(x, y) {
					sum += img.Value(x, y)
					count++
				}
			}
			if exceeds(sum, count, threshold) {
				mask.SetHorizontalValues(x0, y, true, length)
			}
		}
	}
	return nil
}

// VerticalNaive is the column-wise counterpart of HorizontalNaive.
func VerticalNaive(img *grid.Image, mask *grid.Mask, length int, threshold float32) error {
	if err := validate(img, mask, length); err != nil {
		return err
	}
	if length > img.Height() {
		return nil
	}
	before := mask.Clone()
	for x := 0; x < img.Width(); x++ {
		for y0 := 0; y0+length <= img.Height(); y0++ {
			var sum float32
			var count int32
			for y := y0; y < y0+length; y++ {
				if !before.Value(x, y) {
					sum += img.Value(x, y)
					count++
				}
			}
			if exceeds(sum, count, threshold) {
				mask.SetVerticalValues(x, y0, true, length)
			}
		}
	}
	return nil
}
