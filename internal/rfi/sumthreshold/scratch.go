package sumthreshold

import (
	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// Scratch holds the buffers a pass reuses across scales: a duplicate mask
// for the snapshot formulation and per-lane running state for the
// incremental formulation. A Scratch belongs to one execution at a time.
type Scratch struct {
	mask        *grid.Mask
	lastFlagged []int64
	sum         []float32
	count       []int32
}

// NewScratch returns scratch buffers sized for a width x height grid.
func NewScratch(width, height int) *Scratch {
	n := width
	if height > n {
		n = height
	}
	return &Scratch{
		mask:        grid.NewMask(width, height),
		lastFlagged: make([]int64, n),
		sum:         make([]float32, n),
		count:       make([]int32, n),
	}
}

// snapshot copies mask into the scratch mask and returns it.
func (s *Scratch) snapshot(mask *grid.Mask) *grid.Mask {
	if s.mask == nil || s.mask.Width() != mask.Width() || s.mask.Height() != mask.Height() {
		s.mask = mask.Clone()
		return s.mask
	}
	_ = s.mask.CopyFrom(mask)
	return s.mask
}

// commit swaps the scratch mask, which holds the post-pass flags, into mask.
func (s *Scratch) commit(mask *grid.Mask) {
	mask.Swap(s.mask)
}

// lanes resets n entries of the running state: no window flagged, empty sums.
func (s *Scratch) lanes(n int) (lastFlagged []int64, sum []float32, count []int32) {
	if len(s.sum) < n {
		s.lastFlagged = make([]int64, n)
		s.sum = make([]float32, n)
		s.count = make([]int32, n)
	}
	lastFlagged, sum, count = s.lastFlagged[:n], s.sum[:n], s.count[:n]
	for i := range lastFlagged {
		lastFlagged[i] = -1
		sum[i] = 0
		count[i] = 0
	}
	return lastFlagged, sum, count
}

func scratchFor(s *Scratch, img *grid.Image) *Scratch {
	if s != nil {
		return s
	}
	return NewScratch(img.Width(), img.Height())
}
