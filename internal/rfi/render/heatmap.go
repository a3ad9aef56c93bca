// Package render draws diagnostics for flagging runs: heat maps of images
// and masks, and a per-pass chart of newly flagged samples.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// ErrEmpty is returned when asked to draw a grid with no samples.
var ErrEmpty = errors.New("render: empty grid")

// Default output size for saved plots.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// imageGrid adapts an image to plotter.GridXYZ. Columns are time steps and
// rows are channels. Infinite and masked samples are reported as NaN so the
// heat map leaves them blank.
type imageGrid struct {
	img  *grid.Image
	mask *grid.Mask
}

func (g imageGrid) Dims() (c, r int) { return g.img.Width(), g.img.Height() }
func (g imageGrid) X(c int) float64  { return float64(c) }
func (g imageGrid) Y(r int) float64  { return float64(r) }

func (g imageGrid) Z(c, r int) float64 {
	if g.mask != nil && g.mask.Value(c, r) {
		return math.NaN()
	}
	v := float64(g.img.Value(c, r))
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

type maskGrid struct{ mask *grid.Mask }

func (g maskGrid) Dims() (c, r int) { return g.mask.Width(), g.mask.Height() }
func (g maskGrid) X(c int) float64  { return float64(c) }
func (g maskGrid) Y(r int) float64  { return float64(r) }

func (g maskGrid) Z(c, r int) float64 {
	if g.mask.Value(c, r) {
		return 1
	}
	return 0
}

// twoTone is a palette of clear and flagged colours.
type twoTone []color.Color

func (t twoTone) Colors() []color.Color { return t }

var maskColors = twoTone{
	color.RGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff},
	color.RGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// ImagePlot draws img as a heat map. When hide is non-nil, samples flagged
// in hide are left blank, which shows what the flagger kept.
func ImagePlot(img *grid.Image, hide *grid.Mask, title string) (*plot.Plot, error) {
	if img.Width() == 0 || img.Height() == 0 {
		return nil, ErrEmpty
	}
	if hide != nil {
		if err := grid.CheckSameSize(img, hide); err != nil {
			return nil, err
		}
	}
	g := imageGrid{img: img, mask: hide}
	if !hasFinite(g) {
		return nil, fmt.Errorf("%w: no finite unmasked samples", ErrEmpty)
	}

	p := newPlot(title)
	hm := plotter.NewHeatMap(g, palette.Heat(64, 1))
	hm.NaN = color.Transparent
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	return p, nil
}

// MaskPlot draws mask in two colours.
func MaskPlot(mask *grid.Mask, title string) (*plot.Plot, error) {
	if mask.Width() == 0 || mask.Height() == 0 {
		return nil, ErrEmpty
	}
	p := newPlot(title)
	hm := plotter.NewHeatMap(maskGrid{mask: mask}, maskColors)
	// A uniform mask has Min == Max; widen so both colours stay addressable.
	hm.Min, hm.Max = 0, 1
	p.Add(hm)
	return p, nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time step"
	p.Y.Label.Text = "Channel"
	return p
}

func hasFinite(g imageGrid) bool {
	c, r := g.Dims()
	for y := 0; y < r; y++ {
		for x := 0; x < c; x++ {
			if !math.IsNaN(g.Z(x, y)) {
				return true
			}
		}
	}
	return false
}

// WritePNG encodes p as a PNG of the given size.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// SavePNG writes p to path at the default size, creating parent directories.
func SavePNG(path string, p *plot.Plot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
