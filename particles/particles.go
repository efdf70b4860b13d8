// Package particles maintains the free-floating food pool: passive
// motes that drift with the fluid and are consumed by eater nodes.
package particles

import (
	"math/rand/v2"

	"murk/config"
	"murk/fluid"
)

// Particle is one food mote. Dead slots are reused.
type Particle struct {
	X, Y   float64
	Energy float64
	Alive  bool
}

// Pool holds all particles in stable slots so spatial-grid indices stay
// valid within a tick.
type Pool struct {
	Particles []Particle
	alive     int

	worldW, worldH float64
}

// NewPool builds an empty pool sized from config.
func NewPool() *Pool {
	cfg := config.Cfg()
	return &Pool{
		Particles: make([]Particle, 0, cfg.Particles.TargetCount),
		worldW:    cfg.World.Width,
		worldH:    cfg.World.Height,
	}
}

// Alive returns the live particle count.
func (p *Pool) Alive() int { return p.alive }

// Step spawns toward the target count and drifts live particles with
// the fluid.
func (p *Pool) Step(fl *fluid.Grid, rng *rand.Rand) {
	cfg := config.Cfg()

	for i := 0; i < cfg.Particles.SpawnRate && p.alive < cfg.Particles.TargetCount; i++ {
		p.spawn(rng, cfg)
	}

	drift := cfg.Particles.Drift
	for i := range p.Particles {
		pt := &p.Particles[i]
		if !pt.Alive {
			continue
		}
		vx, vy := fl.VelocityAtWorld(pt.X, pt.Y)
		pt.X += vx * drift
		pt.Y += vy * drift

		for pt.X < 0 {
			pt.X += p.worldW
		}
		for pt.X >= p.worldW {
			pt.X -= p.worldW
		}
		for pt.Y < 0 {
			pt.Y += p.worldH
		}
		for pt.Y >= p.worldH {
			pt.Y -= p.worldH
		}
	}
}

func (p *Pool) spawn(rng *rand.Rand, cfg *config.Config) {
	np := Particle{
		X:      rng.Float64() * p.worldW,
		Y:      rng.Float64() * p.worldH,
		Energy: cfg.Particles.EnergyValue,
		Alive:  true,
	}
	for i := range p.Particles {
		if !p.Particles[i].Alive {
			p.Particles[i] = np
			p.alive++
			return
		}
	}
	p.Particles = append(p.Particles, np)
	p.alive++
}

// Consume kills the particle in the given slot and returns its energy
// value. Consuming a dead slot returns zero.
func (p *Pool) Consume(slot int) float64 {
	if slot < 0 || slot >= len(p.Particles) || !p.Particles[slot].Alive {
		return 0
	}
	p.Particles[slot].Alive = false
	p.alive--
	return p.Particles[slot].Energy
}
