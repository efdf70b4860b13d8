package genome

import (
	"math"
	"math/rand/v2"

	"murk/config"
	"murk/telemetry"
)

// MutateChild derives a child blueprint from parent: deep copy, exactly
// one structural mutation path, independent scalar gene jitter, sanitize,
// then viability gating. A child that fails the gate is discarded and
// replaced by an unmutated copy of the parent blueprint.
//
// donors holds blueprints of other living creatures within the graft
// search radius; it may be empty.
func MutateChild(parent *Blueprint, donors []*Blueprint, rng *rand.Rand, tel *telemetry.Counters) *Blueprint {
	child := parent.Clone()

	switch pickStructuralPath(rng) {
	case pathExtrusion:
		if extrudeTriangleBoundary(child, rng) {
			tel.Extrusions++
		} else {
			tel.ExtrusionFailures++
		}
	case pathGraft:
		if len(donors) == 0 {
			tel.GraftNoDonor++
		} else {
			donor := donors[rng.IntN(len(donors))]
			if graftModule(child, donor, rng) {
				tel.Grafts++
			} else {
				tel.GraftRollbacks++
			}
		}
	}

	jitterGenes(child, rng)
	child.Sanitize()

	if ok, _ := child.Viable(); !ok {
		tel.ViabilityFailures++
		tel.ParentFallbacks++
		child = parent.Clone()
		child.Sanitize()
	}

	return child
}

type structuralPath uint8

const (
	pathNone structuralPath = iota
	pathExtrusion
	pathGraft
)

func pickStructuralPath(rng *rand.Rand) structuralPath {
	m := config.Cfg().Mutation
	total := m.ExtrusionWeight + m.GraftWeight + m.NoneWeight
	if total <= 0 {
		return pathExtrusion
	}
	r := rng.Float64() * total
	if r < m.ExtrusionWeight {
		return pathExtrusion
	}
	if r < m.ExtrusionWeight+m.GraftWeight {
		return pathGraft
	}
	return pathNone
}

// boundaryEdge is a spring whose endpoints share exactly one common
// triangle neighbor; interior is that neighbor's point index.
type boundaryEdge struct {
	spring   int
	interior int
}

// boundaryEdges enumerates the mesh boundary: edges belonging to exactly
// one triangle.
func boundaryEdges(b *Blueprint) []boundaryEdge {
	adj := make([]map[int]bool, len(b.Points))
	for i := range adj {
		adj[i] = make(map[int]bool)
	}
	for i := range b.Springs {
		s := &b.Springs[i]
		adj[s.A][s.B] = true
		adj[s.B][s.A] = true
	}

	var edges []boundaryEdge
	for i := range b.Springs {
		s := &b.Springs[i]
		common := -1
		count := 0
		for n := range adj[s.A] {
			if n != s.B && adj[s.B][n] {
				common = n
				count++
				if count > 1 {
					break
				}
			}
		}
		if count == 1 {
			edges = append(edges, boundaryEdge{spring: i, interior: common})
		}
	}
	return edges
}

// extrudeTriangleBoundary grows the mesh outward: a random boundary edge
// gains a new point forming an equilateral-ish triangle on the side away
// from the edge's interior vertex, connected back by two new springs.
// Returns false (blueprint unchanged) when no candidate placement clears
// the minimum distance to existing points.
func extrudeTriangleBoundary(b *Blueprint, rng *rand.Rand) bool {
	cfg := config.Cfg()
	edges := boundaryEdges(b)
	if len(edges) == 0 {
		return false
	}
	rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })

	cx, cy := b.Centroid()

	for _, e := range edges {
		s := &b.Springs[e.spring]
		pa, pb := &b.Points[s.A], &b.Points[s.B]
		mx, my := (pa.X+pb.X)/2, (pa.Y+pb.Y)/2

		// Outward direction: away from the interior triangle vertex,
		// falling back to away from the mesh centroid.
		dirX, dirY := mx-cx, my-cy
		if e.interior >= 0 && e.interior < len(b.Points) {
			dirX = mx - b.Points[e.interior].X
			dirY = my - b.Points[e.interior].Y
		}
		dirLen := math.Sqrt(dirX*dirX + dirY*dirY)
		if dirLen < 1e-9 {
			continue
		}
		dirX /= dirLen
		dirY /= dirLen

		edgeLen := math.Hypot(pa.X-pb.X, pa.Y-pb.Y)
		height := edgeLen * math.Sqrt2 * 0.6 // near-equilateral apex
		nx, ny := mx+dirX*height, my+dirY*height

		if !clearsAllPoints(b, nx, ny, cfg.Mutation.ExtrusionClearance) {
			continue
		}

		// The new point inherits from a random edge endpoint.
		src := pa
		if rng.IntN(2) == 1 {
			src = pb
		}
		np := *src
		np.X, np.Y = nx, ny
		np.Movement = MoveNeutral
		idx := len(b.Points)
		b.Points = append(b.Points, np)

		for _, end := range [2]int{s.A, s.B} {
			d := math.Hypot(b.Points[end].X-nx, b.Points[end].Y-ny)
			b.Springs = append(b.Springs, SpringGene{
				A: end, B: idx,
				RestLength:         d,
				Rigid:              s.Rigid,
				ActivationInterval: np.ActivationInterval,
			})
		}
		return true
	}
	return false
}

func clearsAllPoints(b *Blueprint, x, y, clearance float64) bool {
	for i := range b.Points {
		if math.Hypot(b.Points[i].X-x, b.Points[i].Y-y) < clearance {
			return false
		}
	}
	return true
}

// graftModule samples a connected module of donor points via randomized
// BFS, translates it adjacent to a random anchor on the recipient, and
// attaches it with a small number of springs. The whole graft rolls back
// if zero attachment springs can be placed.
func graftModule(b *Blueprint, donor *Blueprint, rng *rand.Rand) bool {
	cfg := config.Cfg()
	if len(donor.Points) == 0 || len(b.Points) == 0 {
		return false
	}

	module := sampleModule(donor, cfg.Mutation.GraftMaxPoints, rng)
	if len(module) == 0 {
		return false
	}

	// Module centroid in donor space.
	var mcx, mcy float64
	for _, pi := range module {
		mcx += donor.Points[pi].X
		mcy += donor.Points[pi].Y
	}
	mcx /= float64(len(module))
	mcy /= float64(len(module))

	// Place the module beside a random anchor point.
	anchor := rng.IntN(len(b.Points))
	ap := &b.Points[anchor]
	ang := rng.Float64() * 2 * math.Pi
	gap := ap.Radius + cfg.Mutation.ExtrusionClearance*2
	tx := ap.X + math.Cos(ang)*gap - mcx
	ty := ap.Y + math.Sin(ang)*gap - mcy

	prePoints := len(b.Points)
	preSprings := len(b.Springs)

	remap := make(map[int]int, len(module))
	for _, pi := range module {
		np := donor.Points[pi]
		np.X += tx
		np.Y += ty
		remap[pi] = len(b.Points)
		b.Points = append(b.Points, np)
	}

	// Preserve donor springs internal to the module.
	for i := range donor.Springs {
		s := donor.Springs[i]
		na, okA := remap[s.A]
		nb, okB := remap[s.B]
		if okA && okB {
			s.A, s.B = na, nb
			b.Springs = append(b.Springs, s)
		}
	}

	// Attachment springs: nearest recipient/module pairs within reach.
	attached := 0
	for _, pi := range module {
		if attached >= cfg.Mutation.GraftAttachSprings {
			break
		}
		mi := remap[pi]
		mp := &b.Points[mi]
		best, bestD := -1, cfg.Mutation.GraftAttachRadius
		for ri := 0; ri < prePoints; ri++ {
			d := math.Hypot(b.Points[ri].X-mp.X, b.Points[ri].Y-mp.Y)
			if d < bestD {
				best, bestD = ri, d
			}
		}
		if best >= 0 {
			b.Springs = append(b.Springs, SpringGene{
				A: best, B: mi,
				RestLength:         bestD,
				ActivationInterval: mp.ActivationInterval,
			})
			attached++
		}
	}

	if attached == 0 {
		// Rollback: restore pre-graft array lengths exactly.
		b.Points = b.Points[:prePoints]
		b.Springs = b.Springs[:preSprings]
		return false
	}
	return true
}

// sampleModule returns 1..maxPoints donor point indices forming a
// connected subgraph, grown by randomized BFS from a random start.
func sampleModule(donor *Blueprint, maxPoints int, rng *rand.Rand) []int {
	if maxPoints < 1 {
		maxPoints = 1
	}
	target := 1 + rng.IntN(maxPoints)
	adj := donor.Adjacency()

	start := rng.IntN(len(donor.Points))
	visited := map[int]bool{start: true}
	module := []int{start}
	frontier := append([]int(nil), adj[start]...)

	for len(module) < target && len(frontier) > 0 {
		i := rng.IntN(len(frontier))
		next := frontier[i]
		frontier[i] = frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if visited[next] {
			continue
		}
		visited[next] = true
		module = append(module, next)
		for _, n := range adj[next] {
			if !visited[n] {
				frontier = append(frontier, n)
			}
		}
	}
	return module
}

// jitter multiplies v by 1 + U(-1,1)*rate*globalModifier.
func jitter(v float64, rng *rand.Rand) float64 {
	m := config.Cfg().Mutation
	return v * (1 + (rng.Float64()*2-1)*m.Rate*m.GlobalModifier)
}

func jitterInt(v int, rng *rand.Rand) int {
	return int(math.Round(jitter(float64(v), rng)))
}

// jitterGenes applies independent scalar jitter and small-probability
// categorical resampling across the whole genotype. Out-of-bound results
// are handled by the subsequent Sanitize.
func jitterGenes(b *Blueprint, rng *rand.Rand) {
	m := config.Cfg().Mutation
	g := &b.Genes

	g.Stiffness = jitter(g.Stiffness, rng)
	g.Damping = jitter(g.Damping, rng)
	g.MotorImpulse = jitter(g.MotorImpulse, rng)
	g.EmitterRate = jitter(g.EmitterRate, rng)
	g.JetPower = jitter(g.JetPower, rng)
	g.NumOffspring = jitterInt(g.NumOffspring, rng)
	g.OffspringRadius = jitter(g.OffspringRadius, rng)
	g.ReproThreshold = jitter(g.ReproThreshold, rng)
	g.ReproCooldown = jitterInt(g.ReproCooldown, rng)
	g.PatternPeriod = jitterInt(g.PatternPeriod, rng)
	g.PatternPhase = jitter(g.PatternPhase, rng)
	g.DyeGain = jitter(g.DyeGain, rng)
	g.DyeFertility = jitter(g.DyeFertility, rng)
	g.DyeAffinity.R = jitter(g.DyeAffinity.R, rng)
	g.DyeAffinity.G = jitter(g.DyeAffinity.G, rng)
	g.DyeAffinity.B = jitter(g.DyeAffinity.B, rng)

	if rng.Float64() < m.FlipChance {
		g.Reward = RewardStrategy(rng.IntN(int(RewardStrategyCount)))
	}

	for i := range b.Points {
		p := &b.Points[i]
		p.Radius = jitter(p.Radius, rng)
		p.Mass = jitter(p.Mass, rng)
		p.PredatorRadius = jitter(p.PredatorRadius, rng)
		p.ActivationInterval = jitterInt(p.ActivationInterval, rng)
		if rng.Float64() < m.FlipChance {
			p.Grabber = !p.Grabber
		}
		if rng.Float64() < m.FlipChance {
			p.EyeTarget = EyeTarget(rng.IntN(int(EyeTargetCount)))
		}
	}

	jitterProfile(&b.Growth.Base, rng)
	for i := range b.Growth.Stages {
		jitterProfile(&b.Growth.Stages[i].Profile, rng)
	}

	plan := &b.Growth.Plan
	plan.Coupling = jitter(plan.Coupling, rng)
	plan.AppendageBias = jitter(plan.AppendageBias, rng)
	if rng.Float64() < m.FlipChance {
		plan.Symmetry = SymmetryMode(rng.IntN(int(SymmetryModeCount)))
	}

	jitterProgram(&b.Growth, rng)
}

func jitterProfile(p *Profile, rng *rand.Rand) {
	for i := range p.NodesPerEvent {
		p.NodesPerEvent[i] = jitter(p.NodesPerEvent[i], rng)
	}
	for i := range p.NodeType {
		p.NodeType[i] = jitter(p.NodeType[i], rng)
	}
	for i := range p.AnchorType {
		p.AnchorType[i] = jitter(p.AnchorType[i], rng)
	}
	for i := range p.AnchorPair {
		p.AnchorPair[i] = jitter(p.AnchorPair[i], rng)
	}
	for i := range p.DistanceBand {
		p.DistanceBand[i] = jitter(p.DistanceBand[i], rng)
	}
	for i := range p.EdgeKind {
		p.EdgeKind[i] = jitter(p.EdgeKind[i], rng)
	}
	p.Chance = jitter(p.Chance, rng)
	p.MinEnergyRatio = jitter(p.MinEnergyRatio, rng)
	p.CooldownTicks = jitterInt(p.CooldownTicks, rng)
	p.EdgeStiffScale = jitter(p.EdgeStiffScale, rng)
	p.EdgeDampScale = jitter(p.EdgeDampScale, rng)
	p.IntervalBias = jitter(p.IntervalBias, rng)
	p.IntervalJitter = jitter(p.IntervalJitter, rng)
}

// jitterProgram occasionally rewrites, appends, or removes a single
// instruction. Structural program edits use the same flip probability as
// other categorical genes.
func jitterProgram(g *Genome, rng *rand.Rand) {
	m := config.Cfg().Mutation

	if len(g.Program) > 0 && rng.Float64() < m.FlipChance {
		g.Program[rng.IntN(len(g.Program))] = randomInstruction(len(g.Program), rng)
	}
	if len(g.Program) < MaxInstructions && rng.Float64() < m.FlipChance/2 {
		g.Program = append(g.Program, randomInstruction(len(g.Program)+1, rng))
	}
	if len(g.Program) > 0 && rng.Float64() < m.FlipChance/2 {
		i := rng.IntN(len(g.Program))
		g.Program = append(g.Program[:i], g.Program[i+1:]...)
	}
}

func randomInstruction(programLen int, rng *rand.Rand) Instruction {
	in := Instruction{Op: Opcode(rng.IntN(int(OpcodeCount)))}
	if programLen > 0 {
		in.Line = rng.IntN(programLen)
	}
	in.Reg = rng.IntN(RegisterCount)
	in.Ratio = rng.Float64()
	in.Threshold = rng.IntN(20) - 10
	in.Ticks = rng.IntN(60)
	return in
}
