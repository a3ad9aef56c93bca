package render

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rfi-flagger/internal/grid"
	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/rfi/testset"
)

func TestImagePlotPNG(t *testing.T) {
	t.Parallel()

	d, err := testset.Make(testset.FullBandBursts, testset.NoiseGaussian, 64, 32, 3)
	require.NoError(t, err)
	d.Image.SetValue(0, 0, float32(math.Inf(1)))

	for name, hide := range map[string]*grid.Mask{"raw": nil, "kept": d.Truth} {
		p, err := ImagePlot(d.Image, hide, name)
		require.NoError(t, err, name)

		var buf bytes.Buffer
		require.NoError(t, WritePNG(&buf, p, 4*96, 3*96), name)
		cfg, err := png.DecodeConfig(&buf)
		require.NoError(t, err, name)
		assert.Positive(t, cfg.Width, name)
		assert.Positive(t, cfg.Height, name)
	}
}

func TestMaskPlotSave(t *testing.T) {
	t.Parallel()

	for name, m := range map[string]*grid.Mask{
		"clear":   grid.NewMask(16, 8),
		"full":    grid.NewSetMask(16, 8, true),
		"partial": func() *grid.Mask { m := grid.NewMask(16, 8); m.SetVerticalValues(3, 0, true, 8); return m }(),
	} {
		p, err := MaskPlot(m, name)
		require.NoError(t, err, name)
		path := filepath.Join(t.TempDir(), "plots", name+".png")
		require.NoError(t, SavePNG(path, p), name)
		assert.FileExists(t, path)
	}
}

func TestPlotErrors(t *testing.T) {
	t.Parallel()

	_, err := ImagePlot(grid.NewImage(0, 4), nil, "")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = MaskPlot(grid.NewMask(3, 0), "")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ImagePlot(grid.NewImage(4, 4), grid.NewSetMask(4, 4, true), "")
	assert.True(t, errors.Is(err, ErrEmpty), "fully hidden image has nothing to draw")

	_, err = ImagePlot(grid.NewImage(4, 4), grid.NewMask(5, 4), "")
	assert.ErrorIs(t, err, grid.ErrSizeMismatch)
}

func TestPassChart(t *testing.T) {
	t.Parallel()

	report := &flagger.Report{
		Width:        100,
		Height:       20,
		FinalFlagged: 30,
		Passes: []flagger.Pass{
			{Direction: sumthreshold.Horizontal, Length: 1, NewlyFlagged: 25, Duration: 120 * time.Microsecond},
			{Direction: sumthreshold.Vertical, Length: 1, NewlyFlagged: 5, Duration: 80 * time.Microsecond},
			{Direction: sumthreshold.Horizontal, Length: 2},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePassChart(&buf, report, "burst run"))
	html := buf.String()
	assert.Contains(t, html, "newly flagged")
	assert.Contains(t, html, "burst run")
	assert.Contains(t, html, "H2")
}
