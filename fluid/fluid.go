// Package fluid implements the coarse advection grid creatures couple
// to: a velocity field plus three dye density channels, faded each tick
// and stirred by slow simplex noise.
package fluid

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"murk/config"
)

// Grid is the world-sized fluid lattice. Cell (0,0) covers the world
// origin; coordinates wrap toroidally.
type Grid struct {
	Cols, Rows int

	Vx, Vy []float64

	DensityR []float64
	DensityG []float64
	DensityB []float64

	worldW, worldH float64
	cellW, cellH   float64

	noise opensimplex.Noise
	tick  int
}

// New builds a grid sized from config.
func New(seed int64) *Grid {
	cfg := config.Cfg()
	cols, rows := cfg.Fluid.Cols, cfg.Fluid.Rows
	n := cols * rows
	return &Grid{
		Cols: cols, Rows: rows,
		Vx:       make([]float64, n),
		Vy:       make([]float64, n),
		DensityR: make([]float64, n),
		DensityG: make([]float64, n),
		DensityB: make([]float64, n),
		worldW:   cfg.World.Width,
		worldH:   cfg.World.Height,
		cellW:    cfg.Derived.CellW,
		cellH:    cfg.Derived.CellH,
		noise:    opensimplex.NewNormalized(seed),
	}
}

// IX maps wrapped cell coordinates to a flat index.
func (g *Grid) IX(cx, cy int) int {
	cx = ((cx % g.Cols) + g.Cols) % g.Cols
	cy = ((cy % g.Rows) + g.Rows) % g.Rows
	return cy*g.Cols + cx
}

func (g *Grid) cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / g.cellW)), int(math.Floor(y / g.cellH))
}

// VelocityAtWorld samples the velocity field with bilinear interpolation
// at cell centers.
func (g *Grid) VelocityAtWorld(x, y float64) (float64, float64) {
	return g.bilinear(g.Vx, x, y), g.bilinear(g.Vy, x, y)
}

// DensityAtWorld samples the three dye channels.
func (g *Grid) DensityAtWorld(x, y float64) (r, gg, b float64) {
	return g.bilinear(g.DensityR, x, y), g.bilinear(g.DensityG, x, y), g.bilinear(g.DensityB, x, y)
}

func (g *Grid) bilinear(field []float64, x, y float64) float64 {
	fx := x/g.cellW - 0.5
	fy := y/g.cellH - 0.5
	cx := int(math.Floor(fx))
	cy := int(math.Floor(fy))
	tx := fx - float64(cx)
	ty := fy - float64(cy)

	v00 := field[g.IX(cx, cy)]
	v10 := field[g.IX(cx+1, cy)]
	v01 := field[g.IX(cx, cy+1)]
	v11 := field[g.IX(cx+1, cy+1)]

	top := v00 + (v10-v00)*tx
	bot := v01 + (v11-v01)*tx
	return top + (bot-top)*ty
}

// AddVelocity injects velocity into the cell containing the point.
func (g *Grid) AddVelocity(x, y, dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}
	cx, cy := g.cellOf(x, y)
	i := g.IX(cx, cy)
	g.Vx[i] += dx
	g.Vy[i] += dy
}

// AddDensity injects dye into the cell containing the point. The color
// components scale the injected amount per channel.
func (g *Grid) AddDensity(x, y, r, gg, b, amount float64) {
	if amount <= 0 || !finite(amount) {
		return
	}
	cx, cy := g.cellOf(x, y)
	i := g.IX(cx, cy)
	g.DensityR[i] += r * amount
	g.DensityG[i] += gg * amount
	g.DensityB[i] += b * amount
}

// Step fades velocity and dye toward rest and layers in the slow noise
// drift that keeps the water from going still.
func (g *Grid) Step() {
	cfg := config.Cfg()
	g.tick++

	fadeV := cfg.Fluid.FadeVelocity
	fadeD := cfg.Fluid.FadeDye
	scale := cfg.Fluid.NoiseScale
	strength := cfg.Fluid.NoiseStrength
	t := float64(g.tick) * cfg.Fluid.NoiseTimeSpeed

	for cy := 0; cy < g.Rows; cy++ {
		for cx := 0; cx < g.Cols; cx++ {
			i := cy*g.Cols + cx

			g.Vx[i] *= fadeV
			g.Vy[i] *= fadeV
			g.DensityR[i] *= fadeD
			g.DensityG[i] *= fadeD
			g.DensityB[i] *= fadeD

			if strength > 0 {
				nx := float64(cx) * scale
				ny := float64(cy) * scale
				angle := g.noise.Eval3(nx, ny, t) * 2 * math.Pi
				mag := g.noise.Eval3(nx+31.7, ny+57.3, t) * strength
				g.Vx[i] += math.Cos(angle) * mag
				g.Vy[i] += math.Sin(angle) * mag
			}
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
