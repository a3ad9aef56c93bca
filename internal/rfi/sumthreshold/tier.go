package sumthreshold

import (
	"fmt"
	"sort"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// Tier names accepted by TierByName and ResolveTier.
const (
	TierAuto      = "auto"
	TierReference = "reference"
	TierLanes4    = "lanes4"
	TierLanes8    = "lanes8"
)

type kernel func(img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32)

// Tier is one implementation of the window test. All tiers flag exactly
// the same samples for the same input.
type Tier struct {
	name       string
	requires   Feature
	horizontal kernel
	vertical   kernel
}

// Name identifies the tier in logs and metrics.
func (t *Tier) Name() string { return t.name }

// Requires reports the CPU feature the tier is selected for.
func (t *Tier) Requires() Feature { return t.requires }

// Horizontal runs one horizontal pass of the given length. A nil scratch
// allocates temporary buffers. A length longer than the row is a no-op.
func (t *Tier) Horizontal(img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) error {
	if err := validate(img, mask, length); err != nil {
		return err
	}
	t.horizontal(img, mask, scratchFor(s, img), length, threshold)
	return nil
}

// Vertical runs one vertical pass of the given length.
func (t *Tier) Vertical(img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) error {
	if err := validate(img, mask, length); err != nil {
		return err
	}
	t.vertical(img, mask, scratchFor(s, img), length, threshold)
	return nil
}

// Run dispatches on direction.
func (t *Tier) Run(dir Direction, img *grid.Image, mask *grid.Mask, s *Scratch, length int, threshold float32) error {
	switch dir {
	case Horizontal:
		return t.Horizontal(img, mask, s, length, threshold)
	case Vertical:
		return t.Vertical(img, mask, s, length, threshold)
	default:
		return fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(dir))
	}
}

var (
	// Reference is the scalar tier every other tier is checked against.
	Reference = &Tier{
		name:       TierReference,
		requires:   FeatureNone,
		horizontal: referenceHorizontal,
		vertical:   referenceVertical,
	}
	// Lanes4 advances four rows or columns per step using the snapshot
	// formulation.
	Lanes4 = &Tier{
		name:       TierLanes4,
		requires:   FeatureVector,
		horizontal: snapshotHorizontal[lanes4],
		vertical:   snapshotVertical[lanes4],
	}
	// Lanes8 advances eight rows or columns per step and flags in place
	// using the last-flagged formulation.
	Lanes8 = &Tier{
		name:       TierLanes8,
		requires:   FeatureWideVector,
		horizontal: incrementalHorizontal[lanes8],
		vertical:   incrementalVertical[lanes8],
	}
)

// selectable is ordered widest first.
var selectable = []*Tier{Lanes8, Lanes4, Reference}

// variants are the remaining width and formulation combinations. They are
// not selectable but take part in equivalence checks.
var variants = []*Tier{
	{name: "snapshot1", horizontal: snapshotHorizontal[lanes1], vertical: snapshotVertical[lanes1]},
	{name: "snapshot8", horizontal: snapshotHorizontal[lanes8], vertical: snapshotVertical[lanes8]},
	{name: "incremental1", horizontal: incrementalHorizontal[lanes1], vertical: incrementalVertical[lanes1]},
	{name: "incremental4", horizontal: incrementalHorizontal[lanes4], vertical: incrementalVertical[lanes4]},
}

// Tiers returns every implementation, selectable tiers first.
func Tiers() []*Tier {
	out := make([]*Tier, 0, len(selectable)+len(variants))
	out = append(out, selectable...)
	return append(out, variants...)
}

// TierNames lists the names accepted by TierByName, sorted.
func TierNames() []string {
	names := make([]string, 0, len(selectable)+1)
	names = append(names, TierAuto)
	for _, t := range selectable {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}

// TierByName looks up a selectable tier. "auto" is not a tier; use
// ResolveTier for it.
func TierByName(name string) (*Tier, bool) {
	for _, t := range selectable {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

// SelectTier returns the widest tier the probe reports support for.
func SelectTier(p CapabilityProbe) *Tier {
	for _, t := range selectable {
		if p.Supports(t.requires) {
			return t
		}
	}
	return Reference
}

// ResolveTier maps a requested name to a tier the CPU can run. An empty
// name means auto. A named tier the CPU lacks support for resolves to
// Reference with fellBack set, as does an unknown name.
func ResolveTier(name string, p CapabilityProbe) (t *Tier, fellBack bool) {
	if name == "" || name == TierAuto {
		return SelectTier(p), false
	}
	t, ok := TierByName(name)
	if !ok || !p.Supports(t.requires) {
		return Reference, true
	}
	return t, false
}
