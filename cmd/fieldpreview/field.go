package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swirl/config"
	"github.com/pthm-cable/swirl/vortex"
)

// FieldParams holds the previewed vortex and turbulence settings.
type FieldParams struct {
	Extent  float32 // half width of the previewed square
	Height  float32 // Y of the slice
	Count   int     // vortices placed on a ring
	Ring    float32 // ring radius
	Seed    int64
	Elapsed float32

	CheckRange          float32
	TorqueMin           float32
	TorqueMax           float32
	ConfinementStrength float32

	Strength  float32 // turbulence
	Scale     float32
	TimeScale float32
}

func defaultParams() FieldParams {
	return FieldParams{
		Extent:              4,
		Count:               3,
		Ring:                1.5,
		Seed:                1,
		CheckRange:          1.5,
		TorqueMin:           -4,
		TorqueMax:           4,
		ConfinementStrength: 0,
		Strength:            0.5,
		Scale:               0.8,
		TimeScale:           0.3,
	}
}

// build creates the field and turbulence the parameters describe.
func (p FieldParams) build() (*vortex.Field, *vortex.Turbulence) {
	f := vortex.NewField(p.Seed)
	f.TorqueMin, f.TorqueMax = float64(p.TorqueMin), float64(p.TorqueMax)
	f.ConfinementStrength = float64(p.ConfinementStrength)
	for i := range p.Count {
		a := 2 * math.Pi * float64(i) / float64(p.Count)
		pos := r3.Vec{X: float64(p.Ring) * math.Cos(a), Z: float64(p.Ring) * math.Sin(a)}
		f.Spawn(pos, r3.Vec{Y: 1}, float64(p.CheckRange), p.ConfinementStrength != 0)
	}
	turb := vortex.NewTurbulence(p.Seed, float64(p.Strength), float64(p.Scale), float64(p.TimeScale))
	return f, turb
}

// cellCenter maps a grid index to world X or Z.
func (p FieldParams) cellCenter(i, size int) float64 {
	e := float64(p.Extent)
	return -e + (float64(i)+0.5)/float64(size)*2*e
}

// sample fills grid with the acceleration magnitude on the XZ slice,
// normalized to the peak, and returns the peak.
func sample(grid []float32, size int, p FieldParams) float64 {
	field, turb := p.build()
	mags := make([]float64, size*size)
	peak := 0.0
	for y := range size {
		z := p.cellCenter(y, size)
		for x := range size {
			pos := r3.Vec{X: p.cellCenter(x, size), Y: float64(p.Height), Z: z}
			acc := r3.Add(field.Evaluate(pos), turb.Evaluate(pos, float64(p.Elapsed)))
			m := r3.Norm(acc)
			mags[y*size+x] = m
			peak = max(peak, m)
		}
	}
	for i, m := range mags {
		if peak > 0 {
			grid[i] = float32(m / peak)
		} else {
			grid[i] = 0
		}
	}
	return peak
}

// snippet renders the parameters as the config keys they correspond to.
func (p FieldParams) snippet() (string, error) {
	out := struct {
		Vorticity  config.VorticityConfig  `yaml:"vorticity"`
		Turbulence config.TurbulenceConfig `yaml:"turbulence"`
	}{
		Vorticity: config.VorticityConfig{
			Confinement:         p.ConfinementStrength != 0,
			ConfinementStrength: round(p.ConfinementStrength),
			TorqueMin:           round(p.TorqueMin),
			TorqueMax:           round(p.TorqueMax),
			CheckRange:          round(p.CheckRange),
		},
		Turbulence: config.TurbulenceConfig{
			Strength:  round(p.Strength),
			Scale:     round(p.Scale),
			TimeScale: round(p.TimeScale),
		},
	}
	b, err := yaml.Marshal(out)
	return string(b), err
}

// round keeps two decimals so slider noise does not leak into configs.
func round(v float32) float64 {
	return math.Round(float64(v)*100) / 100
}
