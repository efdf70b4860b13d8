package body

import (
	"math"
	"math/rand/v2"

	"murk/config"
	"murk/genome"
	"murk/telemetry"
	"murk/vec"
)

// Distance-band multipliers for near/mid/far placement.
var bandScales = [3]float64{0.75, 1.25, 2.0}

// grownNode is a staged growth placement, committed only if the whole
// event succeeds.
type grownNode struct {
	pos    vec.Vec2
	typ    genome.NodeType
	anchor *MassPoint
	pair   *MassPoint // Optional second attachment
	edge   genome.EdgeType
	depth  int
}

// GrowthTick runs one growth attempt: cooldown and energy gates, a
// program step, then an atomic placement event. popScale damps the
// growth chance as the population approaches its gate; the system
// passes 1 when uncrowded and 0 at the ceiling.
func (sb *SoftBody) GrowthTick(rng *rand.Rand, tel *telemetry.Counters, popScale float64) {
	if sb.Unstable {
		return
	}
	cfg := config.Cfg()

	if sb.GrowthCooldown > 0 {
		sb.GrowthCooldown--
		return
	}
	if len(sb.Points) >= cfg.Growth.MaxPoints {
		return
	}

	growth := &sb.Blueprint.Growth
	profile := growth.ActiveProfile(sb.AgeTicks)
	if sb.EnergyRatio() < profile.MinEnergyRatio {
		return
	}

	wasHalted := sb.VM.Halted
	grow, patch := sb.VM.Step(growth.Program, sb.EnergyRatio())
	if !wasHalted && sb.VM.Halted {
		tel.ProgramHalts++
	}

	cooldown := float64(profile.CooldownTicks)
	if patch.CooldownScale > 0 {
		cooldown *= patch.CooldownScale
	}
	sb.GrowthCooldown = int(cooldown)

	if !grow {
		return
	}

	chance := profile.Chance * popScale
	if patch.ChanceScale > 0 {
		chance *= patch.ChanceScale
	}
	if rng.Float64() >= chance {
		return
	}

	staged := sb.stageEvent(rng, profile, patch, cfg)
	if staged == nil {
		tel.GrowthRejected++
		return
	}
	sb.commitEvent(staged, profile, cfg)
	sb.GrowthEvents++
	tel.GrowthEvents++

	if rate := cfg.Energy.NoveltyBonusRate; rate > 0 {
		bonus := rate * sb.Blueprint.Genes.Reward.NoveltyWeight() * sb.VM.NoveltyScore()
		sb.Ledger.NoveltyGain += bonus
		sb.GainEnergy(bonus)
	}
}

// stageEvent builds the full set of placements for one growth event,
// including symmetry copies. It returns nil when any primary placement
// fails, leaving the body untouched.
func (sb *SoftBody) stageEvent(rng *rand.Rand, profile *genome.Profile, patch genome.GrowPatch, cfg *config.Config) []grownNode {
	plan := &sb.Blueprint.Growth.Plan
	n := profile.PickNodesPerEvent(rng)
	if room := cfg.Growth.MaxPoints - len(sb.Points); n > room {
		n = room
	}

	var staged []grownNode
	centroid := sb.Centroid()

	for i := 0; i < n; i++ {
		anchorType := profile.PickAnchorType(rng)
		if patch.HasAnchorBias {
			anchorType = patch.AnchorBias
		}
		anchor := sb.pickAnchor(rng, anchorType, plan.AppendageBias, centroid)
		if anchor == nil {
			return nil
		}
		if plan.BranchDepthCap > 0 && anchor.BranchDepth >= plan.BranchDepthCap {
			return nil
		}

		typ := profile.PickNodeType(rng)
		if patch.HasNodeBias {
			typ = patch.NodeBias
		}
		edge := profile.PickEdgeKind(rng)
		if patch.HasEdgeKind {
			edge = patch.EdgeKind
		}

		dist := cfg.Growth.DistanceBand * bandScales[profile.PickDistanceBand(rng)]
		if patch.BandScale > 0 {
			dist *= patch.BandScale
		}
		angle := rng.Float64() * 2 * math.Pi
		pos := anchor.Pos.Add(vec.New(math.Cos(angle), math.Sin(angle)).Scale(dist))

		if !sb.placementClear(pos, staged, cfg.Growth.MinClearance) {
			return nil
		}

		gn := grownNode{
			pos:    pos,
			typ:    typ,
			anchor: anchor,
			edge:   edge,
			depth:  anchor.BranchDepth + 1,
		}
		gn.pair = sb.pickPairAttachment(profile.PickAnchorPair(rng), anchor, typ, pos, dist)
		staged = append(staged, gn)
	}
	if len(staged) == 0 {
		return nil
	}

	// Symmetry copies are best effort: a blocked mirror skips that copy
	// without failing the event.
	if plan.Symmetry != genome.SymmetryNone && rng.Float64() < plan.Coupling {
		staged = append(staged, sb.stageSymmetryCopies(staged, plan.Symmetry, centroid, cfg)...)
	}
	return staged
}

// pickAnchor draws an existing point weighted by type preference and
// the plan's appendage bias: bias 0 favors points near the centroid,
// bias 1 favors extremities.
func (sb *SoftBody) pickAnchor(rng *rand.Rand, preferred genome.NodeType, bias float64, centroid vec.Vec2) *MassPoint {
	candidates := make([]*MassPoint, 0, len(sb.Points))
	for _, p := range sb.Points {
		if p.Type == preferred {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		candidates = sb.Points
	}
	if len(candidates) == 0 {
		return nil
	}

	maxDist := 1e-9
	for _, p := range candidates {
		if d := vec.Dist(p.Pos, centroid); d > maxDist {
			maxDist = d
		}
	}
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, p := range candidates {
		dn := vec.Dist(p.Pos, centroid) / maxDist
		w := (1-bias)*(1-dn) + bias*dn + 0.05
		weights[i] = w
		total += w
	}
	draw := rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw <= 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// pickPairAttachment finds an optional second attachment near the new
// position, honoring the same/mixed/any pair preference.
func (sb *SoftBody) pickPairAttachment(pair int, anchor *MassPoint, typ genome.NodeType, pos vec.Vec2, reach float64) *MassPoint {
	var best *MassPoint
	bestD := reach * 2
	for _, p := range sb.Points {
		if p == anchor {
			continue
		}
		switch pair {
		case genome.PairSame:
			if p.Type != typ {
				continue
			}
		case genome.PairMixed:
			if p.Type == typ {
				continue
			}
		}
		if d := vec.Dist(p.Pos, pos); d < bestD {
			best, bestD = p, d
		}
	}
	return best
}

// placementClear checks a candidate position against all live points and
// the already-staged placements.
func (sb *SoftBody) placementClear(pos vec.Vec2, staged []grownNode, clearance float64) bool {
	for _, p := range sb.Points {
		if vec.DistSq(pos, p.Pos) < clearance*clearance {
			return false
		}
	}
	for i := range staged {
		if vec.DistSq(pos, staged[i].pos) < clearance*clearance {
			return false
		}
	}
	return true
}

// stageSymmetryCopies mirrors the staged placements per the symmetry
// mode: bilateral reflects across the vertical axis through the
// centroid, radial adds two 120 degree rotations.
func (sb *SoftBody) stageSymmetryCopies(staged []grownNode, mode genome.SymmetryMode, centroid vec.Vec2, cfg *config.Config) []grownNode {
	var copies []grownNode
	room := cfg.Growth.MaxPoints - len(sb.Points) - len(staged)

	addCopy := func(src grownNode, pos vec.Vec2) {
		if room <= 0 {
			return
		}
		if !sb.placementClear(pos, append(staged, copies...), cfg.Growth.MinClearance) {
			return
		}
		c := src
		c.pos = pos
		c.pair = nil
		copies = append(copies, c)
		room--
	}

	for _, gn := range staged {
		switch mode {
		case genome.SymmetryBilateral:
			addCopy(gn, vec.New(2*centroid.X-gn.pos.X, gn.pos.Y))
		case genome.SymmetryRadial3:
			rel := gn.pos.Sub(centroid)
			addCopy(gn, centroid.Add(rel.Rotate(2*math.Pi/3)))
			addCopy(gn, centroid.Add(rel.Rotate(4*math.Pi/3)))
		}
	}
	return copies
}

// commitEvent materializes staged placements as live points and springs.
func (sb *SoftBody) commitEvent(staged []grownNode, profile *genome.Profile, cfg *config.Config) {
	genes := &sb.Blueprint.Genes
	stiff := genes.Stiffness * profile.EdgeStiffScale
	damp := genes.Damping * profile.EdgeDampScale

	for _, gn := range staged {
		interval := gn.anchor.ActivationInterval
		if profile.IntervalBias != 0 {
			interval += int(profile.IntervalBias)
		}
		interval = clampInterval(interval, cfg)

		p := &MassPoint{
			Pos:                gn.pos,
			PrevPos:            gn.pos,
			Mass:               gn.anchor.Mass,
			Radius:             gn.anchor.Radius,
			Type:               gn.typ,
			Movement:           genome.MoveNeutral,
			Dye:                gn.anchor.Dye,
			ActivationInterval: interval,
			PredatorRadius:     gn.anchor.PredatorRadius,
			BranchDepth:        gn.depth,
		}
		if gn.typ == genome.NodeNeuron {
			p.Neuron = &NeuronRecord{Hidden: cfg.Nodes.NeuronHiddenMax / 2}
		}
		sb.Points = append(sb.Points, p)

		attach := func(other *MassPoint) {
			rest := vec.Dist(p.Pos, other.Pos)
			sb.Springs = append(sb.Springs, &Spring{
				A: other, B: p,
				RestLength: rest,
				Stiffness:  stiff,
				Damping:    damp,
				Rigid:      gn.edge == genome.EdgeRigid,
			})
		}
		attach(gn.anchor)
		if gn.pair != nil {
			attach(gn.pair)
		}
	}

	sb.EnforcePhotoConstraint()
	sb.Recount()
}

func clampInterval(v int, cfg *config.Config) int {
	if v < cfg.Nodes.ActivationIntervalMin {
		return cfg.Nodes.ActivationIntervalMin
	}
	if v > cfg.Nodes.ActivationIntervalMax {
		return cfg.Nodes.ActivationIntervalMax
	}
	return v
}
