package genome

import (
	"math"

	"murk/config"
)

func clampF(x, lo, hi float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampI(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func finiteOr(x, fallback float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fallback
	}
	return x
}

// normalizeWeights scales w to sum to 1 in place. Malformed entries
// (negative, NaN) are zeroed first; an all-zero table falls back to
// uniform weights.
func normalizeWeights(w []float64) {
	sum := 0.0
	for i := range w {
		if math.IsNaN(w[i]) || math.IsInf(w[i], 0) || w[i] < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum <= 1e-12 {
		u := 1.0 / float64(len(w))
		for i := range w {
			w[i] = u
		}
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

// Sanitize clamps every field of the blueprint to its configured bounds,
// drops invalid or duplicate springs, recomputes missing rest lengths, and
// re-enforces the photosynthetic rigidity constraint. It is idempotent:
// sanitizing a sanitized blueprint changes nothing.
func (b *Blueprint) Sanitize() {
	cfg := config.Cfg()

	for i := range b.Points {
		p := &b.Points[i]
		p.X = finiteOr(p.X, 0)
		p.Y = finiteOr(p.Y, 0)
		p.Radius = clampF(p.Radius, cfg.Nodes.RadiusMin, cfg.Nodes.RadiusMax)
		p.Mass = clampF(p.Mass, cfg.Nodes.MassMin, cfg.Nodes.MassMax)
		if p.Type >= NodeTypeCount {
			p.Type = NodeDefault
		}
		if p.Movement >= MovementTypeCount {
			p.Movement = MoveNeutral
		}
		p.Dye.R = clampF(p.Dye.R, 0, 1)
		p.Dye.G = clampF(p.Dye.G, 0, 1)
		p.Dye.B = clampF(p.Dye.B, 0, 1)
		p.NeuronHidden = clampI(p.NeuronHidden, 0, cfg.Nodes.NeuronHiddenMax)
		if p.Type != NodeNeuron {
			p.NeuronHidden = 0
		}
		p.ActivationInterval = clampI(p.ActivationInterval,
			cfg.Nodes.ActivationIntervalMin, cfg.Nodes.ActivationIntervalMax)
		p.PredatorRadius = clampF(p.PredatorRadius,
			cfg.Nodes.PredatorRadiusMin, cfg.Nodes.PredatorRadiusMax)
		if p.EyeTarget >= EyeTargetCount {
			p.EyeTarget = EyeTargetAny
		}
	}

	b.sanitizeSprings()
	b.Genes.sanitize(cfg)
	b.Growth.Sanitize()
	b.EnforcePhotosyntheticConstraint()
}

// sanitizeSprings drops out-of-range, self-loop, and duplicate edges, and
// clamps spring fields. Rest lengths outside a sane band around the
// current point distance are recomputed from geometry.
func (b *Blueprint) sanitizeSprings() {
	cfg := config.Cfg()
	type pair struct{ a, b int }
	seen := make(map[pair]bool, len(b.Springs))

	kept := b.Springs[:0]
	for i := range b.Springs {
		s := b.Springs[i]
		if s.A < 0 || s.B < 0 || s.A >= len(b.Points) || s.B >= len(b.Points) || s.A == s.B {
			continue
		}
		key := pair{s.A, s.B}
		if s.B < s.A {
			key = pair{s.B, s.A}
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		dx := b.Points[s.A].X - b.Points[s.B].X
		dy := b.Points[s.A].Y - b.Points[s.B].Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist < 1e-6 {
			dist = 1e-6
		}
		if math.IsNaN(s.RestLength) || math.IsInf(s.RestLength, 0) ||
			s.RestLength < dist*0.25 || s.RestLength > dist*4 {
			s.RestLength = dist
		}

		if s.Stiffness != 0 {
			s.Stiffness = clampF(s.Stiffness, cfg.Genes.StiffnessMin, cfg.Genes.StiffnessMax)
		}
		if s.Damping != 0 {
			s.Damping = clampF(s.Damping, cfg.Genes.DampingMin, cfg.Genes.DampingMax)
		}
		s.ActivationInterval = clampI(s.ActivationInterval,
			cfg.Nodes.ActivationIntervalMin, cfg.Nodes.ActivationIntervalMax)

		kept = append(kept, s)
	}
	b.Springs = kept
}

func (g *Genes) sanitize(cfg *config.Config) {
	g.Stiffness = clampF(g.Stiffness, cfg.Genes.StiffnessMin, cfg.Genes.StiffnessMax)
	g.Damping = clampF(g.Damping, cfg.Genes.DampingMin, cfg.Genes.DampingMax)
	g.MotorImpulse = clampF(g.MotorImpulse, 0, cfg.Genes.MotorImpulseMax)
	g.EmitterRate = clampF(g.EmitterRate, 0, cfg.Genes.EmitterRateMax)
	g.JetPower = clampF(g.JetPower, 0, cfg.Genes.JetGeneMax)
	g.NumOffspring = clampI(g.NumOffspring, 1, cfg.Genes.OffspringMax)
	g.OffspringRadius = clampF(g.OffspringRadius, 1, cfg.Genes.OffspringRadiusMax)
	g.ReproThreshold = clampF(g.ReproThreshold, cfg.Genes.ReproThresholdMin, cfg.Genes.ReproThresholdMax)
	g.ReproCooldown = clampI(g.ReproCooldown, cfg.Genes.ReproCooldownMin, cfg.Genes.ReproCooldownMax)
	g.PatternPeriod = clampI(g.PatternPeriod, cfg.Genes.PatternPeriodMin, cfg.Genes.PatternPeriodMax)
	g.PatternPhase = clampF(g.PatternPhase, 0, 2*math.Pi)
	if g.Reward >= RewardStrategyCount {
		g.Reward = RewardBalanced
	}
	g.DyeAffinity.R = clampF(g.DyeAffinity.R, 0, 1)
	g.DyeAffinity.G = clampF(g.DyeAffinity.G, 0, 1)
	g.DyeAffinity.B = clampF(g.DyeAffinity.B, 0, 1)
	g.DyeGain = clampF(g.DyeGain, 0, cfg.Genes.DyeGainMax)
	g.DyeFertility = clampF(g.DyeFertility, 0.25, 2.0)
}

// Sanitize clamps the growth genome: all weight tables renormalized,
// scalar genes bounded, stage bands ordered and non-overlapping, the
// program truncated and validated.
func (g *Genome) Sanitize() {
	g.Base.sanitize()
	g.sanitizeStages()
	g.Plan.sanitize()
	g.sanitizeProgram()
}

func (p *Profile) sanitize() {
	cfg := config.Cfg()
	normalizeWeights(p.NodesPerEvent[:])
	normalizeWeights(p.NodeType[:])
	normalizeWeights(p.AnchorType[:])
	normalizeWeights(p.AnchorPair[:])
	normalizeWeights(p.DistanceBand[:])
	normalizeWeights(p.EdgeKind[:])

	p.Chance = clampF(p.Chance, 0, cfg.Growth.ChanceMax)
	p.MinEnergyRatio = clampF(p.MinEnergyRatio, 0, 1)
	p.CooldownTicks = clampI(p.CooldownTicks, cfg.Growth.CooldownMin, cfg.Growth.CooldownMax)
	p.EdgeStiffScale = clampF(p.EdgeStiffScale, cfg.Growth.StiffScaleMin, cfg.Growth.StiffScaleMax)
	p.EdgeDampScale = clampF(p.EdgeDampScale, cfg.Growth.StiffScaleMin, cfg.Growth.StiffScaleMax)
	p.IntervalBias = clampF(p.IntervalBias, -4, 4)
	p.IntervalJitter = clampF(p.IntervalJitter, 0, 4)
}

// sanitizeStages sorts stages by start tick, clamps their bands, drops
// empty or overlapping ones, and sanitizes each profile.
func (g *Genome) sanitizeStages() {
	kept := g.Stages[:0]
	prevEnd := math.MinInt
	// Insertion-sort by StartTick; stage lists are tiny.
	for i := 1; i < len(g.Stages); i++ {
		for j := i; j > 0 && g.Stages[j].StartTick < g.Stages[j-1].StartTick; j-- {
			g.Stages[j], g.Stages[j-1] = g.Stages[j-1], g.Stages[j]
		}
	}
	for i := range g.Stages {
		s := g.Stages[i]
		if s.StartTick < 0 {
			s.StartTick = 0
		}
		if s.EndTick <= s.StartTick {
			continue
		}
		if s.StartTick < prevEnd {
			continue // overlaps the previous band
		}
		s.Profile.sanitize()
		prevEnd = s.EndTick
		kept = append(kept, s)
	}
	g.Stages = kept
}

func (p *Plan) sanitize() {
	cfg := config.Cfg()
	if p.Symmetry >= SymmetryModeCount {
		p.Symmetry = SymmetryNone
	}
	p.Coupling = clampF(p.Coupling, 0, 1)
	p.AppendageBias = clampF(p.AppendageBias, 0, 1)
	p.BranchDepthCap = clampI(p.BranchDepthCap, 1, cfg.Growth.BranchDepthMax)
}

func (g *Genome) sanitizeProgram() {
	if len(g.Program) > MaxInstructions {
		g.Program = g.Program[:MaxInstructions]
	}
	n := len(g.Program)
	for i := range g.Program {
		in := &g.Program[i]
		if in.Op >= OpcodeCount {
			in.Op = OpHalt
		}
		in.Line = clampI(in.Line, 0, n-1)
		in.Reg = clampI(in.Reg, 0, RegisterCount-1)
		in.Ratio = clampF(in.Ratio, 0, 1)
		in.Threshold = clampI(in.Threshold, -RegisterClamp, RegisterClamp)
		in.Ticks = clampI(in.Ticks, 0, RegisterClamp)

		pt := &in.Patch
		if pt.NodeBias >= NodeTypeCount {
			pt.NodeBias = NodeDefault
			pt.HasNodeBias = false
		}
		if pt.AnchorBias >= NodeTypeCount {
			pt.AnchorBias = NodeDefault
			pt.HasAnchorBias = false
		}
		if pt.EdgeKind >= EdgeTypeCount {
			pt.EdgeKind = EdgeSoft
			pt.HasEdgeKind = false
		}
		if pt.BandScale != 0 {
			pt.BandScale = clampF(pt.BandScale, 0.25, 4)
		}
		if pt.ChanceScale != 0 {
			pt.ChanceScale = clampF(pt.ChanceScale, 0.25, 4)
		}
		if pt.CooldownScale != 0 {
			pt.CooldownScale = clampF(pt.CooldownScale, 0.25, 4)
		}
	}
}

// EnforcePhotosyntheticConstraint forces every spring touching a
// Photosynthetic point rigid, and every non-photosynthetic neighbor of a
// Photosynthetic point to Neutral movement. This keeps photosynthetic
// anchors geometrically stable.
func (b *Blueprint) EnforcePhotosyntheticConstraint() {
	for i := range b.Springs {
		s := &b.Springs[i]
		if s.A < 0 || s.B < 0 || s.A >= len(b.Points) || s.B >= len(b.Points) {
			continue
		}
		aPhoto := b.Points[s.A].Type == NodePhotosynthetic
		bPhoto := b.Points[s.B].Type == NodePhotosynthetic
		if !aPhoto && !bPhoto {
			continue
		}
		s.Rigid = true
		if aPhoto && !bPhoto {
			b.Points[s.B].Movement = MoveNeutral
		}
		if bPhoto && !aPhoto {
			b.Points[s.A].Movement = MoveNeutral
		}
	}
}
