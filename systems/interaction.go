package systems

import (
	"github.com/mlange-42/ark/ecs"

	"murk/body"
	"murk/config"
	"murk/genome"
	"murk/spatial"
	"murk/vec"
)

// sapKey dedupes predation so one predator node saps a given victim at
// most once per tick, however many victim points it overlaps.
type sapKey struct {
	attacker ecs.Entity
	node     int
	victim   ecs.Entity
}

// InteractionSystem rebuilds the spatial index and resolves contact
// effects: eaters consuming food particles and predator nodes sapping
// energy from other creatures.
type InteractionSystem struct {
	s         *Shared
	neighbors []spatial.Neighbor
	sapped    map[sapKey]struct{}
}

func NewInteractionSystem(s *Shared) *InteractionSystem {
	return &InteractionSystem{
		s:         s,
		neighbors: make([]spatial.Neighbor, 0, spatial.MaxQueryResults),
		sapped:    make(map[sapKey]struct{}, 64),
	}
}

func (is *InteractionSystem) Update() {
	is.rebuildGrid()
	is.resolveContacts()
}

func (is *InteractionSystem) rebuildGrid() {
	s := is.s
	s.Grid.Clear()

	for slot := range s.Pool.Particles {
		pt := &s.Pool.Particles[slot]
		if !pt.Alive {
			continue
		}
		s.Grid.Insert(spatial.Entry{Kind: spatial.EntryParticle, Index: slot, X: pt.X, Y: pt.Y})
	}

	query := s.Filter.Query()
	for query.Next() {
		_, cr, _ := query.Get()
		sb := cr.Body
		if sb == nil || sb.Unstable {
			continue
		}
		entity := query.Entity()
		for i, p := range sb.Points {
			s.Grid.Insert(spatial.Entry{
				Kind: spatial.EntryBodyPoint, Owner: entity, Index: i,
				X: p.Pos.X, Y: p.Pos.Y,
			})
		}
	}
}

func (is *InteractionSystem) resolveContacts() {
	s := is.s
	cfg := config.Cfg()
	clear(is.sapped)

	query := s.Filter.Query()
	for query.Next() {
		_, cr, _ := query.Get()
		sb := cr.Body
		if sb == nil || sb.Unstable {
			continue
		}
		entity := query.Entity()

		for i, p := range sb.Points {
			switch p.Type {
			case genome.NodeEater:
				is.eat(entity, sb, p, cfg)
			case genome.NodePredator:
				if p.Activated {
					is.prey(entity, i, sb, p, cfg)
				}
			}
		}
	}
}

// sameBodyOverlaps counts the body's other points inside the node's
// reach. Packed same-type clusters pay for the overlap.
func sameBodyOverlaps(sb *body.SoftBody, p *body.MassPoint, reach float64, cfg *config.Config) int {
	count := 0
	for _, q := range sb.Points {
		if q == p {
			continue
		}
		dx, dy := vec.ToroidalDelta(p.Pos.X, p.Pos.Y, q.Pos.X, q.Pos.Y, cfg.World.Width, cfg.World.Height)
		if dx*dx+dy*dy <= reach*reach {
			count++
		}
	}
	return count
}

// eat consumes food particles within an exertion-scaled reach. The
// energy value scales with local nutrient and the creature's dye
// affinity; an actively exerting eater pays the touch penalty per
// contact, own points included.
func (is *InteractionSystem) eat(entity ecs.Entity, sb *body.SoftBody, p *body.MassPoint, cfg *config.Config) {
	s := is.s
	reach := p.Radius * cfg.Nodes.EaterRadiusFactor * p.Exertion
	if reach <= 0 {
		return
	}
	is.neighbors = s.Grid.QueryRadiusInto(is.neighbors[:0], p.Pos.X, p.Pos.Y, reach, entity)

	genes := &sb.Blueprint.Genes
	nutrient := s.Res.NutrientAtWorld(p.Pos.X, p.Pos.Y)
	r, g, b := s.Fluid.DensityAtWorld(p.Pos.X, p.Pos.Y)
	affinity := 1 + genes.DyeAffinity.R*r + genes.DyeAffinity.G*g + genes.DyeAffinity.B*b

	touches := 0
	for _, n := range is.neighbors {
		switch n.Kind {
		case spatial.EntryParticle:
			if raw := s.Pool.Consume(n.Index); raw > 0 {
				gained := raw * nutrient * affinity
				sb.Ledger.EatGain += gained
				sb.GainEnergy(gained)
			}
		case spatial.EntryBodyPoint:
			touches++
		}
	}

	if p.Activated && cfg.Nodes.EaterTouchPenalty > 0 {
		if contacts := touches + sameBodyOverlaps(sb, p, reach, cfg); contacts > 0 {
			sb.SapEnergy(cfg.Nodes.EaterTouchPenalty * float64(contacts))
		}
	}
}

// prey saps energy from overlapped foreign creatures within an
// exertion-scaled reach, once per victim per node per tick, then pays
// self-damage proportional to the same-body overlap count.
func (is *InteractionSystem) prey(entity ecs.Entity, node int, sb *body.SoftBody, p *body.MassPoint, cfg *config.Config) {
	s := is.s
	reach := p.PredatorRadius * p.Exertion
	if reach <= 0 {
		return
	}
	is.neighbors = s.Grid.QueryRadiusInto(is.neighbors[:0], p.Pos.X, p.Pos.Y, reach, entity)

	for _, n := range is.neighbors {
		if n.Kind != spatial.EntryBodyPoint {
			continue
		}
		key := sapKey{attacker: entity, node: node, victim: n.Owner}
		if _, done := is.sapped[key]; done {
			continue
		}
		victim := s.CreatureMap.Get(n.Owner)
		if victim == nil || victim.Body == nil || victim.Body.Unstable {
			continue
		}
		is.sapped[key] = struct{}{}

		taken := victim.Body.SapEnergy(cfg.Nodes.PredatorSapAmount)
		if taken > 0 {
			sb.Ledger.PredationGain += taken
			sb.GainEnergy(taken)
		}
	}

	if overlaps := sameBodyOverlaps(sb, p, reach, cfg); overlaps > 0 {
		self := cfg.Nodes.PredatorSelfPenalty * float64(overlaps)
		sb.Ledger.PredationSelf += self
		sb.SapEnergy(self)
	}
}
