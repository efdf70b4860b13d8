package systems

import (
	"murk/config"
)

// GrowthSystem runs the morphogenesis attempt on every live creature.
// The population gate damps growth as the world fills: full chance below
// the gate, fading to zero at the population ceiling.
type GrowthSystem struct {
	s *Shared
}

func NewGrowthSystem(s *Shared) *GrowthSystem {
	return &GrowthSystem{s: s}
}

func (gs *GrowthSystem) Update() {
	s := gs.s
	cfg := config.Cfg()

	popScale := 1.0
	gate := cfg.Growth.PopulationGate
	ceiling := cfg.Population.Max
	if s.Alive >= ceiling {
		popScale = 0
	} else if gate > 0 && s.Alive > gate && ceiling > gate {
		popScale = 1 - float64(s.Alive-gate)/float64(ceiling-gate)
	}

	query := s.Filter.Query()
	for query.Next() {
		_, cr, _ := query.Get()
		if cr.Body == nil {
			continue
		}
		cr.Body.GrowthTick(s.RNG, s.Tel, popScale)
	}
}
