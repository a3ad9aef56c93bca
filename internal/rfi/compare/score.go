package compare

import (
	"fmt"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// Score is a confusion matrix of a mask against ground truth.
type Score struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	TrueNegatives  int `json:"true_negatives"`
}

// ScoreMask compares got against truth. Cells set in exclude (may be nil)
// are left out, which is how missing samples are treated.
func ScoreMask(got, truth, exclude *grid.Mask) (Score, error) {
	if !grid.SameSize(got.Width(), got.Height(), truth.Width(), truth.Height()) {
		return Score{}, fmt.Errorf("%w: mask %dx%d, truth %dx%d",
			grid.ErrSizeMismatch, got.Width(), got.Height(), truth.Width(), truth.Height())
	}
	if exclude != nil && !grid.SameSize(got.Width(), got.Height(), exclude.Width(), exclude.Height()) {
		return Score{}, fmt.Errorf("%w: exclude %dx%d", grid.ErrSizeMismatch, exclude.Width(), exclude.Height())
	}

	var s Score
	for y := 0; y < got.Height(); y++ {
		g, t := got.Row(y), truth.Row(y)
		var ex []bool
		if exclude != nil {
			ex = exclude.Row(y)
		}
		for x := range g {
			if ex != nil && ex[x] {
				continue
			}
			switch {
			case g[x] && t[x]:
				s.TruePositives++
			case g[x]:
				s.FalsePositives++
			case t[x]:
				s.FalseNegatives++
			default:
				s.TrueNegatives++
			}
		}
	}
	return s, nil
}

// Precision is the fraction of flagged cells that are true RFI, or zero
// when nothing was flagged.
func (s Score) Precision() float64 {
	if s.TruePositives+s.FalsePositives == 0 {
		return 0
	}
	return float64(s.TruePositives) / float64(s.TruePositives+s.FalsePositives)
}

// Recall is the fraction of true RFI that was flagged, or zero when the
// truth is empty.
func (s Score) Recall() float64 {
	if s.TruePositives+s.FalseNegatives == 0 {
		return 0
	}
	return float64(s.TruePositives) / float64(s.TruePositives+s.FalseNegatives)
}

// F1 is the harmonic mean of precision and recall.
func (s Score) F1() float64 {
	p, r := s.Precision(), s.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
