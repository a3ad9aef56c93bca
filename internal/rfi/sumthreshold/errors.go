package sumthreshold

import (
	"errors"
	"fmt"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// ErrInvalidArgument marks caller bugs: unsupported lengths, mismatched or
// empty grids.
var ErrInvalidArgument = errors.New("sumthreshold: invalid argument")

var (
	ErrInvalidLength = fmt.Errorf("%w: unsupported window length", ErrInvalidArgument)
	ErrEmptyGrid     = fmt.Errorf("%w: empty grid", ErrInvalidArgument)
	ErrSizeMismatch  = fmt.Errorf("%w: %w", ErrInvalidArgument, grid.ErrSizeMismatch)
)

// supportedLengths is the geometric window ladder.
var supportedLengths = [...]int{1, 2, 4, 8, 16, 32, 64, 128, 256}

// MaxLength is the longest supported window.
const MaxLength = 256

// SupportedLengths returns the window lengths accepted by every pass.
func SupportedLengths() []int {
	out := make([]int, len(supportedLengths))
	copy(out, supportedLengths[:])
	return out
}

// ValidLength reports whether length is on the supported ladder.
func ValidLength(length int) bool {
	for _, l := range supportedLengths {
		if l == length {
			return true
		}
	}
	return false
}

func validate(img *grid.Image, mask *grid.Mask, length int, extra ...*grid.Mask) error {
	if !ValidLength(length) {
		return fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if img == nil || mask == nil {
		return fmt.Errorf("%w: nil image or mask", ErrInvalidArgument)
	}
	if img.Width() == 0 || img.Height() == 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyGrid, img.Width(), img.Height())
	}
	if err := grid.CheckSameSize(img, append([]*grid.Mask{mask}, extra...)...); err != nil {
		return fmt.Errorf("%w: %v", ErrSizeMismatch, err)
	}
	return nil
}
