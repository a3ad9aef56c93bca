package sumthreshold

import (
	"math"
	"math/rand/v2"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// noiseImage is unit Gaussian noise with one bright row and one bright
// column, so every window length finds something to flag.
func noiseImage(w, h int, seed uint64) *grid.Image {
	rng := newRand(seed)
	img := grid.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetValue(x, y, float32(rng.NormFloat64()))
		}
	}
	if h > 2 {
		for x := 0; x < w; x++ {
			img.AddValue(x, h/3, 3)
		}
	}
	if w > 2 {
		for y := 0; y < h; y++ {
			img.AddValue(w/2, y, 2.5)
		}
	}
	return img
}

// integerImage holds small integers so every window sum is exact.
func integerImage(w, h int, seed uint64) *grid.Image {
	rng := newRand(seed)
	img := grid.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetValue(x, y, float32(rng.IntN(9)-3))
		}
	}
	return img
}

func randomMask(w, h int, p float64, seed uint64) *grid.Mask {
	rng := newRand(seed)
	m := grid.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetValue(x, y, rng.Float64() < p)
		}
	}
	return m
}

func ladderThreshold(base float64, length int) float32 {
	return float32(base * math.Pow(1.5, math.Log2(float64(length))) / float64(length))
}
