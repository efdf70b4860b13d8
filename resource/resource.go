// Package resource implements the nutrient and light grids that gate
// photosynthesis and reproduction. Each field is a toroidal lattice with
// an FBM capacity layer; the live value is debited by creatures and
// regrows toward capacity.
package resource

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"murk/config"
)

// Field is one resource lattice in [0, capacity].
type Field struct {
	W, H int

	Val []float64
	Cap []float64

	worldW, worldH float64
	regen          float64
}

// fbm evaluates fractal brownian motion in [0,1].
func fbm(noise opensimplex.Noise, x, y float64, octaves int, lacunarity, gain float64) float64 {
	sum, amp, norm := 0.0, 1.0, 0.0
	for o := 0; o < octaves; o++ {
		sum += noise.Eval2(x, y) * amp
		norm += amp
		x *= lacunarity
		y *= lacunarity
		amp *= gain
	}
	if norm <= 0 {
		return 0
	}
	return sum / norm
}

func newField(w, h int, worldW, worldH, regen float64) *Field {
	return &Field{
		W: w, H: h,
		Val:    make([]float64, w*h),
		Cap:    make([]float64, w*h),
		worldW: worldW, worldH: worldH,
		regen: regen,
	}
}

func (f *Field) idx(cx, cy int) int {
	cx = ((cx % f.W) + f.W) % f.W
	cy = ((cy % f.H) + f.H) % f.H
	return cy*f.W + cx
}

// At samples the live value at world coordinates.
func (f *Field) At(x, y float64) float64 {
	cx := int(math.Floor(x / f.worldW * float64(f.W)))
	cy := int(math.Floor(y / f.worldH * float64(f.H)))
	return f.Val[f.idx(cx, cy)]
}

// Debit removes up to amount at world coordinates and returns the amount
// actually removed.
func (f *Field) Debit(x, y, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	cx := int(math.Floor(x / f.worldW * float64(f.W)))
	cy := int(math.Floor(y / f.worldH * float64(f.H)))
	i := f.idx(cx, cy)
	taken := amount
	if f.Val[i] < taken {
		taken = f.Val[i]
	}
	f.Val[i] -= taken
	return taken
}

// Regen moves every cell toward its capacity by the regrowth rate.
func (f *Field) Regen() {
	for i, v := range f.Val {
		c := f.Cap[i]
		if v < c {
			v += (c - v) * f.regen
			if v > c {
				v = c
			}
			f.Val[i] = v
		}
	}
}

// Fields bundles the nutrient and light lattices.
type Fields struct {
	Nutrient *Field
	Light    *Field
}

// New builds both fields from config, seeding capacities from FBM noise.
// Light capacity additionally falls off with depth.
func New(seed int64) *Fields {
	cfg := config.Cfg()
	rc := &cfg.Resource
	w, h := cfg.Fluid.Cols, cfg.Fluid.Rows

	noise := opensimplex.NewNormalized(seed + rc.Seed)
	nutrient := newField(w, h, cfg.World.Width, cfg.World.Height, rc.RegenRate)
	light := newField(w, h, cfg.World.Width, cfg.World.Height, rc.RegenRate)

	for cy := 0; cy < h; cy++ {
		depth := float64(cy) / float64(h)
		lightAtten := math.Exp(-depth * rc.LightDepthFalloff)
		for cx := 0; cx < w; cx++ {
			i := cy*w + cx
			nx := float64(cx) / float64(w) * rc.Scale
			ny := float64(cy) / float64(h) * rc.Scale

			nutrient.Cap[i] = fbm(noise, nx, ny, rc.Octaves, rc.Lacunarity, rc.Gain) * rc.NutrientMultiplier
			light.Cap[i] = fbm(noise, nx+19.3, ny+7.1, rc.Octaves, rc.Lacunarity, rc.Gain) * lightAtten * rc.LightMultiplier
		}
	}
	copy(nutrient.Val, nutrient.Cap)
	copy(light.Val, light.Cap)

	return &Fields{Nutrient: nutrient, Light: light}
}

// Step regrows both fields toward capacity.
func (fs *Fields) Step() {
	fs.Nutrient.Regen()
	fs.Light.Regen()
}

// NutrientAtWorld samples the nutrient field.
func (fs *Fields) NutrientAtWorld(x, y float64) float64 { return fs.Nutrient.At(x, y) }

// LightAtWorld samples the light field.
func (fs *Fields) LightAtWorld(x, y float64) float64 { return fs.Light.At(x, y) }

// DebitNutrient removes nutrient at a world position.
func (fs *Fields) DebitNutrient(x, y, amount float64) { fs.Nutrient.Debit(x, y, amount) }

// DebitLight removes light at a world position.
func (fs *Fields) DebitLight(x, y, amount float64) { fs.Light.Debit(x, y, amount) }
