// Package testset generates synthetic time-frequency data with known
// interference. Every generated image comes with a ground-truth mask of the
// samples that received injected RFI, so flagging results can be scored.
package testset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// Noise selects the background distribution.
type Noise int

const (
	NoiseGaussian Noise = iota
	NoiseRayleigh
	NoiseNone
)

func (n Noise) String() string {
	switch n {
	case NoiseGaussian:
		return "gaussian"
	case NoiseRayleigh:
		return "rayleigh"
	case NoiseNone:
		return "none"
	default:
		return fmt.Sprintf("Noise(%d)", int(n))
	}
}

// ParseNoise accepts "gaussian", "rayleigh" or "none".
func ParseNoise(s string) (Noise, error) {
	for _, n := range []Noise{NoiseGaussian, NoiseRayleigh, NoiseNone} {
		if n.String() == s {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown noise %q", s)
}

// Shape is the intensity profile of a line across its extent.
type Shape int

const (
	ShapeUniform Shape = iota
	ShapeGaussian
	ShapeSinusoidal
	ShapeBurst
)

// Generator draws noise and interference from a seeded source. It is not
// safe for concurrent use.
type Generator struct {
	normal   distuv.Normal
	rayleigh distuv.Weibull
	uniform  distuv.Uniform
}

// NewGenerator returns a generator whose output depends only on seed.
func NewGenerator(seed uint64) *Generator {
	src := rand.NewPCG(seed, seed^0x5deece66d)
	return &Generator{
		normal:   distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		rayleigh: distuv.Weibull{K: 2, Lambda: math.Sqrt2, Src: src},
		uniform:  distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

// level evaluates shape at x in [-1, 1].
func (g *Generator) level(shape Shape, x float64) float64 {
	switch shape {
	case ShapeGaussian:
		return math.Exp(-x * x * 3.0 * 3.0)
	case ShapeSinusoidal:
		return (1.0 + math.Cos(x*math.Pi*2.0*1.5)) * 0.5
	case ShapeBurst:
		return g.normal.Rand() * 0.6
	default:
		return 1.0
	}
}

// Noise returns a width x height image of unit-scale background noise.
func (g *Generator) Noise(kind Noise, width, height int) *grid.Image {
	img := grid.NewImage(width, height)
	if kind == NoiseNone {
		return img
	}
	for y := 0; y < height; y++ {
		row := img.Row(y)
		for x := range row {
			if kind == NoiseRayleigh {
				row[x] = float32(g.rayleigh.Rand())
			} else {
				row[x] = float32(g.normal.Rand())
			}
		}
	}
	return img
}

// MissingMask marks each sample missing with the given probability, and
// additionally every sample of one time step in every gapEvery steps when
// gapEvery is positive.
func (g *Generator) MissingMask(width, height int, probability float64, gapEvery int) *grid.Mask {
	m := grid.NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if g.uniform.Rand() < probability || (gapEvery > 0 && x%gapEvery == gapEvery-1) {
				m.SetValue(x, y, true)
			}
		}
	}
	return m
}

func inside(img *grid.Image, x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width() && y < img.Height()
}

func inject(img *grid.Image, truth *grid.Mask, x, y int, v float64) {
	if !inside(img, x, y) {
		return
	}
	img.AddValue(x, y, float32(v))
	if v != 0 {
		truth.SetValue(x, y, true)
	}
}

// AddSpectralLine adds a constant-frequency line over nChannels channels,
// covering timeRatio of the observation starting at timeOffsetRatio.
func (g *Generator) AddSpectralLine(img *grid.Image, truth *grid.Mask, strength float64, startChannel, nChannels int, timeRatio, timeOffsetRatio float64, shape Shape) {
	width := img.Width()
	tStart := int(timeOffsetRatio * float64(width))
	tEnd := int((timeOffsetRatio + timeRatio) * float64(width))
	duration := float64(tEnd - tStart)
	for t := tStart; t < tEnd; t++ {
		factor := g.level(shape, float64((t-tStart)*2)/duration-1.0)
		for ch := startChannel; ch < startChannel+nChannels; ch++ {
			inject(img, truth, t, ch, strength*factor)
		}
	}
}

// AddIntermittentSpectralLine adds strength to each time step of channel
// with the given probability.
func (g *Generator) AddIntermittentSpectralLine(img *grid.Image, truth *grid.Mask, strength float64, channel int, probability float64) {
	for t := 0; t < img.Width(); t++ {
		if g.uniform.Rand() < probability {
			inject(img, truth, t, channel, strength)
		}
	}
}

// AddBroadbandLine adds a burst of duration time steps covering
// frequencyRatio of the band starting at frequencyOffsetRatio.
func (g *Generator) AddBroadbandLine(img *grid.Image, truth *grid.Mask, strength float64, startTime, duration int, frequencyRatio, frequencyOffsetRatio float64) {
	height := float64(img.Height())
	fStart := int(frequencyOffsetRatio * height)
	fEnd := int((frequencyOffsetRatio + frequencyRatio) * height)
	g.AddBroadbandLinePos(img, truth, strength, startTime, duration, fStart, fEnd, ShapeUniform)
}

// AddBroadbandLinePos adds a burst over channels [fStart, fEnd).
func (g *Generator) AddBroadbandLinePos(img *grid.Image, truth *grid.Mask, strength float64, startTime, duration, fStart, fEnd int, shape Shape) {
	span := float64(fEnd - fStart)
	for f := fStart; f < fEnd; f++ {
		factor := g.level(shape, float64((f-fStart)*2)/span-1.0)
		for t := startTime; t < startTime+duration; t++ {
			inject(img, truth, t, f, strength*factor)
		}
	}
}

// AddSlewedBroadbandLinePos adds a burst that drifts by slewRate time steps
// per channel, splitting the fractional part over the leading and trailing
// samples.
func (g *Generator) AddSlewedBroadbandLinePos(img *grid.Image, truth *grid.Mask, strength, slewRate float64, startTime, duration, fStart, fEnd int, shape Shape) {
	span := float64(fEnd - fStart)
	for f := fStart; f < fEnd; f++ {
		factor := g.level(shape, float64((f-fStart)*2)/span-1.0)
		slew := slewRate * float64(f)
		whole := int(slew)
		rest := slew - float64(whole)

		inject(img, truth, startTime+whole, f, strength*factor*(1.0-rest))
		for t := startTime + 1; t < startTime+duration; t++ {
			inject(img, truth, t+whole, f, strength*factor)
		}
		inject(img, truth, startTime+duration+whole, f, strength*factor*rest)
	}
}

// AddPowerLaw adds heavy-tailed interference to every sample; the whole
// image counts as contaminated.
func (g *Generator) AddPowerLaw(img *grid.Image, truth *grid.Mask, scale float64) {
	for y := 0; y < img.Height(); y++ {
		row := img.Row(y)
		for x := range row {
			u := g.uniform.Rand()
			for u == 0 {
				u = g.uniform.Rand()
			}
			row[x] += float32(g.normal.Rand() + scale/u)
		}
	}
	truth.SetAll(true)
}

func (g *Generator) addSpectralLines(img *grid.Image, truth *grid.Mask, base float64, shape Shape) {
	for i := 0; i < 10; i++ {
		channel := ((i*2 + 1) * img.Height()) / 20
		strength := base * (1.0 + float64(i)*2.0/10.0)
		g.AddSpectralLine(img, truth, strength, channel, 1, 1.0, 0.0, shape)
	}
}

func (g *Generator) addIntermittentLines(img *grid.Image, truth *grid.Mask, strength float64) {
	for i := 0; i < 20; i++ {
		channel := ((i*2 + 1) * img.Height()) / 40
		probability := float64(i+5) / 28.0
		g.AddIntermittentSpectralLine(img, truth, strength, channel, probability)
	}
}

var burstStrengths = [...]float64{3.0, 2.5, 2.0, 1.8, 1.6}

func (g *Generator) addBursts(img *grid.Image, truth *grid.Mask, length, strength float64, shape Shape) {
	height := float64(img.Height())
	step := img.Width() / 11
	fStart := int((0.5 - length/2.0) * height)
	fEnd := int((0.5 + length/2.0) * height)
	for i, s := range burstStrengths {
		g.AddBroadbandLinePos(img, truth, s*strength, step*(i+1), 3, fStart, fEnd, shape)
	}
	for i, s := range burstStrengths {
		g.AddBroadbandLinePos(img, truth, s*strength, step*(i+6), 1, fStart, fEnd, shape)
	}
}

func (g *Generator) addSlewedBursts(img *grid.Image, truth *grid.Mask, slewRate float64) {
	height := float64(img.Height())
	step := img.Width() / 11
	fStart, fEnd := 0, int(height)
	for i, s := range burstStrengths {
		g.AddSlewedBroadbandLinePos(img, truth, s, slewRate, step*(i+1), 3, fStart, fEnd, ShapeGaussian)
	}
	for i, s := range burstStrengths {
		g.AddSlewedBroadbandLinePos(img, truth, s, slewRate, step*(i+6), 1, fStart, fEnd, ShapeGaussian)
	}
}

var varyingBursts = [...][2]float64{
	{0.937071, 0.0185952},
	{0.638442, 0.327689},
	{0.859308, 0.0211675},
	{0.418327, 0.324842},
	{0.842374, 0.105613},
	{0.704607, 0.163653},
	{0.777955, 0.0925143},
	{0.288418, 0.222322},
	{0.892462, 0.0381083},
	{0.444377, 0.240526},
}

func (g *Generator) addVaryingBursts(img *grid.Image, truth *grid.Mask) {
	step := img.Width() / 11
	for i, band := range varyingBursts {
		duration := 3
		if i >= 5 {
			duration = 1
		}
		g.AddBroadbandLine(img, truth, burstStrengths[i%5], step*(i+1), duration, band[0], band[1])
	}
}

// Set names a predefined interference scenario.
type Set string

const (
	Empty                 Set = "empty"
	SpectralLines         Set = "spectral-lines"
	GaussianSpectralLines Set = "gaussian-spectral-lines"
	IntermittentLines     Set = "intermittent-lines"
	FullBandBursts        Set = "full-band-bursts"
	HalfBandBursts        Set = "half-band-bursts"
	VaryingBursts         Set = "varying-bursts"
	GaussianBursts        Set = "gaussian-bursts"
	SinusoidalBursts      Set = "sinusoidal-bursts"
	SlewedGaussians       Set = "slewed-gaussians"
	FluctuatingBursts     Set = "fluctuating-bursts"
	StrongPowerLaw        Set = "strong-power-law"
	MediumPowerLaw        Set = "medium-power-law"
	WeakPowerLaw          Set = "weak-power-law"
)

var descriptions = map[Set]string{
	Empty:                 "Empty",
	SpectralLines:         "Spectral lines",
	GaussianSpectralLines: "Gaussian spectral lines",
	IntermittentLines:     "Intermittent spectral lines",
	FullBandBursts:        "Full-band bursts",
	HalfBandBursts:        "Half-band bursts",
	VaryingBursts:         "Varying bursts",
	GaussianBursts:        "Gaussian bursts",
	SinusoidalBursts:      "Sinusoidal bursts",
	SlewedGaussians:       "Slewed Gaussian bursts",
	FluctuatingBursts:     "Fluctuating bursts",
	StrongPowerLaw:        "Strong power law RFI",
	MediumPowerLaw:        "Medium power law RFI",
	WeakPowerLaw:          "Weak power law RFI",
}

// Sets lists every predefined scenario, sorted by name.
func Sets() []Set {
	out := make([]Set, 0, len(descriptions))
	for s := range descriptions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseSet validates a scenario name.
func ParseSet(name string) (Set, error) {
	s := Set(name)
	if _, ok := descriptions[s]; !ok {
		return "", fmt.Errorf("unknown test set %q", name)
	}
	return s, nil
}

// Description is a human-readable title for the scenario.
func (s Set) Description() string {
	return descriptions[s]
}

// Data is one generated test case.
type Data struct {
	Set   Set
	Noise Noise
	Seed  uint64
	Image *grid.Image
	// Truth marks every sample that received injected interference.
	Truth *grid.Mask
}

// Make generates scenario set on top of background noise.
func Make(set Set, noise Noise, width, height int, seed uint64) (*Data, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid test set size %dx%d", width, height)
	}
	if _, ok := descriptions[set]; !ok {
		return nil, fmt.Errorf("unknown test set %q", set)
	}
	g := NewGenerator(seed)
	img := g.Noise(noise, width, height)
	truth := grid.NewMask(width, height)

	switch set {
	case SpectralLines:
		g.addSpectralLines(img, truth, 1.0, ShapeUniform)
	case GaussianSpectralLines:
		g.addSpectralLines(img, truth, 1.0, ShapeGaussian)
	case IntermittentLines:
		g.addIntermittentLines(img, truth, 10.0)
	case FullBandBursts:
		g.addBursts(img, truth, 1.0, 1.0, ShapeUniform)
	case HalfBandBursts:
		g.addBursts(img, truth, 0.5, 1.0, ShapeUniform)
	case VaryingBursts:
		g.addVaryingBursts(img, truth)
	case GaussianBursts:
		g.addBursts(img, truth, 1.0, 1.0, ShapeGaussian)
	case SinusoidalBursts:
		g.addBursts(img, truth, 1.0, 1.0, ShapeSinusoidal)
	case SlewedGaussians:
		g.addSlewedBursts(img, truth, 0.02)
	case FluctuatingBursts:
		g.addBursts(img, truth, 1.0, 1.0, ShapeBurst)
	case StrongPowerLaw:
		g.AddPowerLaw(img, truth, 1.0)
	case MediumPowerLaw:
		g.AddPowerLaw(img, truth, 0.1)
	case WeakPowerLaw:
		g.AddPowerLaw(img, truth, 0.01)
	}
	return &Data{Set: set, Noise: noise, Seed: seed, Image: img, Truth: truth}, nil
}
