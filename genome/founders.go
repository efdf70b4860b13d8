package genome

import (
	"math"
	"math/rand/v2"

	"murk/config"
)

// FounderKind selects a seed body plan for initial population spawns.
type FounderKind uint8

const (
	FounderSessile FounderKind = iota // Photosynthetic anchor with eater fringe
	FounderSwimmer                    // Mobile eater with swimmer tail
	FounderHunter                     // Predator wedge

	FounderKindCount
)

// NewFounder builds a viable starter blueprint of the given kind. Founder
// geometry is a small triangle mesh; everything else comes from sanitized
// default genes with mild random variation.
func NewFounder(kind FounderKind, rng *rand.Rand) *Blueprint {
	b := &Blueprint{Genes: defaultGenes(rng), Growth: defaultGrowth(rng)}

	switch kind {
	case FounderSessile:
		b.Points = []PointGene{
			founderPoint(0, -10, NodePhotosynthetic, MoveFixed, rng),
			founderPoint(-9, 6, NodePhotosynthetic, MoveNeutral, rng),
			founderPoint(9, 6, NodeEater, MoveNeutral, rng),
			founderPoint(0, 16, NodeEmitter, MoveNeutral, rng),
		}
		triangle(b, 0, 1, 2)
		edge(b, 1, 3)
		edge(b, 2, 3)

	case FounderHunter:
		b.Points = []PointGene{
			founderPoint(0, -12, NodePredator, MoveNeutral, rng),
			founderPoint(-8, 4, NodeEye, MoveNeutral, rng),
			founderPoint(8, 4, NodeSwimmer, MoveNeutral, rng),
			founderPoint(0, 14, NodeSwimmer, MoveNeutral, rng),
		}
		triangle(b, 0, 1, 2)
		edge(b, 1, 3)
		edge(b, 2, 3)

	default: // FounderSwimmer
		b.Points = []PointGene{
			founderPoint(0, -10, NodeEater, MoveNeutral, rng),
			founderPoint(-9, 4, NodeEye, MoveNeutral, rng),
			founderPoint(9, 4, NodeJet, MoveNeutral, rng),
			founderPoint(0, 15, NodeSwimmer, MoveNeutral, rng),
		}
		triangle(b, 0, 1, 2)
		edge(b, 1, 3)
		edge(b, 2, 3)
	}

	b.Sanitize()
	return b
}

// RandomFounder picks a founder kind at random.
func RandomFounder(rng *rand.Rand) *Blueprint {
	return NewFounder(FounderKind(rng.IntN(int(FounderKindCount))), rng)
}

func founderPoint(x, y float64, t NodeType, m MovementType, rng *rand.Rand) PointGene {
	cfg := config.Cfg()
	return PointGene{
		X: x, Y: y,
		Radius:             4 + rng.Float64()*2,
		Mass:               1,
		Type:               t,
		Movement:           m,
		Dye:                DyeColor{G: 0.4 + rng.Float64()*0.3, B: 0.3},
		ActivationInterval: cfg.Nodes.ActivationIntervalMin + rng.IntN(4),
		PredatorRadius:     cfg.Nodes.PredatorRadiusMin * 1.5,
	}
}

func triangle(b *Blueprint, i, j, k int) {
	edge(b, i, j)
	edge(b, j, k)
	edge(b, k, i)
}

func edge(b *Blueprint, i, j int) {
	d := math.Hypot(b.Points[i].X-b.Points[j].X, b.Points[i].Y-b.Points[j].Y)
	b.Springs = append(b.Springs, SpringGene{
		A: i, B: j,
		RestLength:         d,
		ActivationInterval: b.Points[i].ActivationInterval,
	})
}

func defaultGenes(rng *rand.Rand) Genes {
	return Genes{
		Stiffness:       0.15 + rng.Float64()*0.1,
		Damping:         0.08 + rng.Float64()*0.05,
		MotorImpulse:    0.5 + rng.Float64()*0.3,
		EmitterRate:     0.3,
		JetPower:        0.8,
		NumOffspring:    1 + rng.IntN(2),
		OffspringRadius: 60,
		ReproThreshold:  0.7,
		ReproCooldown:   900 + rng.IntN(600),
		PatternPeriod:   60 + rng.IntN(60),
		PatternPhase:    rng.Float64() * 2 * math.Pi,
		DyeAffinity:     DyeColor{R: 0.2, G: 0.8, B: 0.5},
		DyeGain:         0.5,
		DyeFertility:    1.0,
	}
}

// defaultGrowth returns a growth genome with uniform tables, a mild
// base profile, and a short program that paces growth by energy.
func defaultGrowth(rng *rand.Rand) Genome {
	p := Profile{
		Chance:         0.04,
		MinEnergyRatio: 0.5,
		CooldownTicks:  240,
		EdgeStiffScale: 1,
		EdgeDampScale:  1,
	}
	// Leave all tables zero; Sanitize turns them uniform.
	g := Genome{
		Base: p,
		Plan: Plan{
			Symmetry:       SymmetryNone,
			Coupling:       0.3,
			AppendageBias:  0.6,
			BranchDepthCap: 4,
		},
		Program: []Instruction{
			{Op: OpIfEnergyGoto, Ratio: 0.6, Line: 3},
			{Op: OpWait, Ticks: 8},
			{Op: OpGoto, Line: 0},
			{Op: OpGrow},
			{Op: OpGoto, Line: 0},
		},
	}
	if rng.IntN(2) == 1 {
		g.Plan.Symmetry = SymmetryBilateral
	}
	return g
}
