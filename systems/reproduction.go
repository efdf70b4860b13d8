package systems

import (
	"math"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"murk/body"
	"murk/components"
	"murk/config"
	"murk/genome"
	"murk/spatial"
	"murk/vec"
)

// birth is a staged offspring, applied after query iteration completes.
type birth struct {
	blueprint  *genome.Blueprint
	pos        vec.Vec2
	parentID   uuid.UUID
	generation int
}

// ReproductionSystem lets eligible creatures spawn mutated offspring.
// Attempts are gated by cooldown and energy threshold, then rolled
// against a fertility chance combining density, resource, and dye
// scales; placement is drawn on a ring around the parent and rejected
// when it would overlap existing bodies or staged siblings.
type ReproductionSystem struct {
	s         *Shared
	neighbors []spatial.Neighbor
	donors    []*genome.Blueprint
	births    []birth
}

func NewReproductionSystem(s *Shared) *ReproductionSystem {
	return &ReproductionSystem{
		s:         s,
		neighbors: make([]spatial.Neighbor, 0, spatial.MaxQueryResults),
		donors:    make([]*genome.Blueprint, 0, 8),
		births:    make([]birth, 0, 16),
	}
}

func (rs *ReproductionSystem) Update() {
	s := rs.s
	cfg := config.Cfg()
	if !cfg.Reproduction.Enabled || s.Alive >= cfg.Reproduction.PopCeiling {
		return
	}

	rs.collectDonors()
	rs.births = rs.births[:0]

	query := s.Filter.Query()
	for query.Next() {
		pos, cr, lin := query.Get()
		sb := cr.Body
		if sb == nil || sb.Unstable {
			continue
		}
		rs.attempt(query.Entity(), pos, sb, lin, cfg)
	}

	for i := range rs.births {
		rs.apply(&rs.births[i])
	}
}

// collectDonors samples live blueprints for graft mutation sources.
func (rs *ReproductionSystem) collectDonors() {
	s := rs.s
	rs.donors = rs.donors[:0]

	query := s.Filter.Query()
	for query.Next() {
		_, cr, _ := query.Get()
		if cr.Body == nil || cr.Body.Unstable {
			continue
		}
		if len(rs.donors) < cap(rs.donors) {
			rs.donors = append(rs.donors, cr.Body.Blueprint)
		} else if j := s.RNG.IntN(len(rs.donors) + 1); j < len(rs.donors) {
			rs.donors[j] = cr.Body.Blueprint
		}
	}
}

func (rs *ReproductionSystem) attempt(entity ecs.Entity, pos *components.Position, sb *body.SoftBody, lin *components.Lineage, cfg *config.Config) {
	s := rs.s
	rc := &cfg.Reproduction
	genes := &sb.Blueprint.Genes

	if sb.AgeTicks < sb.FailedReproUntil {
		return
	}
	if sb.EnergyRatio() < genes.ReproThreshold || !sb.CanReproduce() {
		return
	}

	// Density scales: global population vs floor/ceiling and local
	// crowding vs soft/hard thresholds, each clamped to the minimum.
	global := 1.0
	if s.Alive > rc.PopFloor && rc.PopCeiling > rc.PopFloor {
		t := float64(s.Alive-rc.PopFloor) / float64(rc.PopCeiling-rc.PopFloor)
		global = math.Max(1-t, rc.MinScale)
	}
	crowd := rs.localCrowd(entity, pos, rc.LocalRadius)
	local := 1.0
	if crowd >= rc.LocalHard {
		local = rc.MinScale
	} else if crowd > rc.LocalSoft {
		t := float64(crowd-rc.LocalSoft) / float64(rc.LocalHard-rc.LocalSoft)
		local = math.Max(1-t, rc.MinScale)
	}

	// Resource coupling: hard block below the floors, a clamped scale
	// above them.
	nutrient := s.Res.NutrientAtWorld(pos.X, pos.Y)
	light := s.Res.LightAtWorld(pos.X, pos.Y)
	if nutrient < rc.MinNutrient || light < rc.MinLight {
		return
	}
	res := resourceScale(nutrient, rc.MinNutrient, rc.MinScale) *
		resourceScale(light, rc.MinLight, rc.MinScale)

	// Green dye raises fertility per the creature's gene.
	_, dg, _ := s.Fluid.DensityAtWorld(pos.X, pos.Y)
	fertility := 1 + genes.DyeFertility*dg

	chance := global * local * res * fertility
	if s.RNG.Float64() >= chance {
		return
	}

	placed := 0
	for o := 0; o < genes.NumOffspring; o++ {
		child := genome.MutateChild(sb.Blueprint, rs.donors, s.RNG, s.Tel)
		spawn, ok := rs.place(entity, pos, sb, child, cfg)
		if !ok {
			s.Tel.OffspringRejected++
			continue
		}

		cost := rc.ChildEnergyCost + sb.MaxEnergy*rc.ParentCostFrac
		if sb.Energy <= cost {
			break
		}
		sb.SapEnergy(cost)
		s.Res.DebitNutrient(spawn.X, spawn.Y, rc.NutrientDebit)
		s.Res.DebitLight(spawn.X, spawn.Y, rc.LightDebit)

		rs.births = append(rs.births, birth{
			blueprint:  child,
			pos:        spawn,
			parentID:   lin.ID,
			generation: lin.Generation + 1,
		})
		placed++
	}

	if placed > 0 {
		sb.LastReproAge = sb.AgeTicks
		s.Tel.OffspringPlaced += int64(placed)
	} else {
		sb.FailedReproUntil = sb.AgeTicks + rc.FailedCooldownTicks
		s.Tel.FailedReproAttempts++
	}
}

// resourceScale maps a resource level above its floor onto
// [minScale, 1].
func resourceScale(v, floor, minScale float64) float64 {
	span := 1 - floor
	if span <= 0 {
		return 1
	}
	return vec.Clamp((v-floor)/span, minScale, 1)
}

// localCrowd counts distinct foreign creatures with points inside the
// radius.
func (rs *ReproductionSystem) localCrowd(entity ecs.Entity, pos *components.Position, radius float64) int {
	rs.neighbors = rs.s.Grid.QueryRadiusInto(rs.neighbors[:0], pos.X, pos.Y, radius, entity)
	seen := map[ecs.Entity]struct{}{}
	for _, n := range rs.neighbors {
		if n.Kind == spatial.EntryBodyPoint {
			seen[n.Owner] = struct{}{}
		}
	}
	return len(seen)
}

// place draws spawn candidates on a ring around the parent and returns
// the first position clear of other bodies and of siblings staged
// earlier this tick.
func (rs *ReproductionSystem) place(entity ecs.Entity, pos *components.Position, sb *body.SoftBody, child *genome.Blueprint, cfg *config.Config) (vec.Vec2, bool) {
	s := rs.s
	rc := &cfg.Reproduction
	genes := &sb.Blueprint.Genes

	childR := child.Radius()
	base := sb.BoundingRadius() + childR
	rMin := base * rc.RingMinFactor
	rMax := base*rc.RingMaxFactor + genes.OffspringRadius
	clearance := rc.PlacementClearance + childR

	for try := 0; try < rc.PlacementAttempts; try++ {
		angle := s.RNG.Float64() * 2 * math.Pi
		r := rMin + s.RNG.Float64()*(rMax-rMin)
		cand := vec.New(pos.X+math.Cos(angle)*r, pos.Y+math.Sin(angle)*r)
		cand = wrapPoint(cand, cfg)

		rs.neighbors = s.Grid.QueryRadiusInto(rs.neighbors[:0], cand.X, cand.Y, clearance, ecs.Entity{})
		blocked := false
		for _, n := range rs.neighbors {
			if n.Kind == spatial.EntryBodyPoint {
				blocked = true
				break
			}
		}
		if !blocked && !rs.blockedBySibling(cand, childR, rc.PlacementClearance, cfg) {
			return cand, true
		}
	}
	return vec.Vec2{}, false
}

// blockedBySibling checks the candidate against births staged earlier
// this tick; those are not in the spatial grid yet.
func (rs *ReproductionSystem) blockedBySibling(cand vec.Vec2, childR, clearance float64, cfg *config.Config) bool {
	for i := range rs.births {
		b := &rs.births[i]
		limit := childR + b.blueprint.Radius() + clearance
		dx, dy := vec.ToroidalDelta(cand.X, cand.Y, b.pos.X, b.pos.Y, cfg.World.Width, cfg.World.Height)
		if dx*dx+dy*dy < limit*limit {
			return true
		}
	}
	return false
}

func wrapPoint(p vec.Vec2, cfg *config.Config) vec.Vec2 {
	w, h := cfg.World.Width, cfg.World.Height
	if cfg.World.Wrap {
		p.X = math.Mod(math.Mod(p.X, w)+w, w)
		p.Y = math.Mod(math.Mod(p.Y, h)+h, h)
	} else {
		p.X = vec.Clamp(p.X, 0, w)
		p.Y = vec.Clamp(p.Y, 0, h)
	}
	return p
}

// apply spawns one staged offspring entity.
func (rs *ReproductionSystem) apply(b *birth) {
	s := rs.s
	sb := body.Instantiate(b.blueprint, b.pos, s.Tel)
	s.Controller.Initialize(sb)
	c := sb.Centroid()

	s.Mapper.NewEntity(
		&components.Position{X: c.X, Y: c.Y},
		&components.Creature{Body: sb},
		&components.Lineage{
			ID:         uuid.New(),
			ParentID:   b.parentID,
			Generation: b.generation,
			BornTick:   s.Tick,
		},
	)
	sb.Generation = b.generation
	s.Alive++
	s.Tel.Births++
}
