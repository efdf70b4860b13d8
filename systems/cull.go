package systems

import (
	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"murk/body"
	"murk/components"
	"murk/config"
	"murk/genome"
	"murk/vec"
)

// CullSystem removes creatures that latched unstable this tick and
// refills the world with fresh founders when the population collapses
// below the respawn floor.
type CullSystem struct {
	s    *Shared
	dead []ecs.Entity
}

func NewCullSystem(s *Shared) *CullSystem {
	return &CullSystem{s: s, dead: make([]ecs.Entity, 0, 32)}
}

func (cs *CullSystem) Update() {
	s := cs.s
	cfg := config.Cfg()
	cs.dead = cs.dead[:0]

	alive := 0
	query := s.Filter.Query()
	for query.Next() {
		_, cr, _ := query.Get()
		sb := cr.Body
		if sb == nil || sb.Unstable || len(sb.Points) == 0 {
			if sb != nil {
				s.Tel.RecordDeath(string(sb.Reason))
				s.Controller.Forget(sb)
			}
			cs.dead = append(cs.dead, query.Entity())
			continue
		}
		alive++
	}

	for _, e := range cs.dead {
		s.World.RemoveEntity(e)
	}
	s.Alive = alive

	if s.Alive < cfg.Population.RespawnFloor {
		for i := 0; i < cfg.Population.RespawnCount; i++ {
			cs.spawnFounder()
		}
	}
}

// SpawnFounders seeds the initial population.
func (cs *CullSystem) SpawnFounders(count int) {
	for i := 0; i < count; i++ {
		cs.spawnFounder()
	}
}

func (cs *CullSystem) spawnFounder() {
	s := cs.s
	cfg := config.Cfg()

	bp := genome.RandomFounder(s.RNG)
	spawn := vec.New(s.RNG.Float64()*cfg.World.Width, s.RNG.Float64()*cfg.World.Height)
	sb := body.Instantiate(bp, spawn, s.Tel)
	s.Controller.Initialize(sb)
	c := sb.Centroid()

	s.Mapper.NewEntity(
		&components.Position{X: c.X, Y: c.Y},
		&components.Creature{Body: sb},
		&components.Lineage{ID: uuid.New(), BornTick: s.Tick},
	)
	s.Alive++
}
