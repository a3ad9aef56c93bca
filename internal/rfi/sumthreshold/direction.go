package sumthreshold

import "fmt"

// Direction selects the axis a window slides along.
type Direction int

const (
	// Horizontal windows run along x (time) within one row.
	Horizontal Direction = iota
	// Vertical windows run along y (frequency) within one column.
	Vertical
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts "horizontal" or "vertical".
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "horizontal":
		*d = Horizontal
	case "vertical":
		*d = Vertical
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidArgument, text)
	}
	return nil
}

// exceeds is the single decision rule shared by every tier. The mean is
// formed in float32 so that tiers accumulating in the same order decide
// identically; the comparison is strict.
func exceeds(sum float32, count int32, threshold float32) bool {
	if count <= 0 {
		return false
	}
	mean := sum / float32(count)
	if mean < 0 {
		mean = -mean
	}
	return mean > threshold
}
