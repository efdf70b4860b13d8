package genome

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Profile parameterizes one growth event: normalized weighted-choice
// tables plus scalar growth genes. All tables sum to 1 after Sanitize.
type Profile struct {
	// NodesPerEvent weights counts 1..len.
	NodesPerEvent [3]float64 `json:"nodesPerEvent"`
	// NodeType weights the type of the newly grown node.
	NodeType [NodeTypeCount]float64 `json:"nodeType"`
	// AnchorType weights the type of the existing node grown from.
	AnchorType [NodeTypeCount]float64 `json:"anchorType"`
	// AnchorPair weights same-type / mixed-type / any anchor edge pairs.
	AnchorPair [3]float64 `json:"anchorPair"`
	// DistanceBand weights near/mid/far placement bands.
	DistanceBand [3]float64 `json:"distanceBand"`
	// EdgeKind weights soft vs rigid new edges.
	EdgeKind [2]float64 `json:"edgeKind"`

	Chance         float64 `json:"chance"`         // Growth probability per eligible attempt
	MinEnergyRatio float64 `json:"minEnergyRatio"` // Attempts below this ratio are skipped
	CooldownTicks  int     `json:"cooldownTicks"`  // Ticks between attempts
	EdgeStiffScale float64 `json:"edgeStiffScale"` // Scales creature stiffness for new edges
	EdgeDampScale  float64 `json:"edgeDampScale"`
	IntervalBias   float64 `json:"intervalBias"`   // Activation-interval bias for new nodes
	IntervalJitter float64 `json:"intervalJitter"`
}

// AnchorPair preference categories.
const (
	PairSame = iota
	PairMixed
	PairAny
)

// Stage is an age-banded profile override, active for ages in
// [StartTick, EndTick).
type Stage struct {
	StartTick int     `json:"startTick"`
	EndTick   int     `json:"endTick"`
	Profile   Profile `json:"profile"`
}

// Plan holds the whole-body growth plan.
type Plan struct {
	Symmetry       SymmetryMode `json:"symmetry"`
	Coupling       float64      `json:"coupling"`       // Chance a symmetric copy accompanies a grown node
	AppendageBias  float64      `json:"appendageBias"`  // 0 = grow near core, 1 = grow at extremities
	BranchDepthCap int          `json:"branchDepthCap"` // Max graph distance from the root point
}

// Genome is the heritable growth program: a base profile, optional
// age-banded stages, the growth plan, and the bytecode program gating
// growth events.
type Genome struct {
	Base    Profile       `json:"base"`
	Stages  []Stage       `json:"stages,omitempty"`
	Plan    Plan          `json:"plan"`
	Program []Instruction `json:"program,omitempty"`
}

// Clone returns a deep copy of the genome.
func (g *Genome) Clone() Genome {
	c := *g
	if len(g.Stages) > 0 {
		c.Stages = make([]Stage, len(g.Stages))
		copy(c.Stages, g.Stages)
	}
	if len(g.Program) > 0 {
		c.Program = make([]Instruction, len(g.Program))
		copy(c.Program, g.Program)
	}
	return c
}

// ActiveProfile returns the profile for the given absolute age, falling
// back to the base profile when no stage band matches.
func (g *Genome) ActiveProfile(ageTicks int) *Profile {
	for i := range g.Stages {
		s := &g.Stages[i]
		if ageTicks >= s.StartTick && ageTicks < s.EndTick {
			return &s.Profile
		}
	}
	return &g.Base
}

// pickWeighted draws an index from a normalized weight slice. The caller
// must have sanitized the weights; a degenerate draw falls back to a
// uniform pick.
func pickWeighted(w []float64, rng *rand.Rand) int {
	sampler := sampleuv.NewWeighted(w, rng)
	idx, ok := sampler.Take()
	if !ok {
		return rng.IntN(len(w))
	}
	return idx
}

// PickNodesPerEvent draws the number of nodes for one growth event.
func (p *Profile) PickNodesPerEvent(rng *rand.Rand) int {
	return pickWeighted(p.NodesPerEvent[:], rng) + 1
}

// PickNodeType draws the type for a newly grown node.
func (p *Profile) PickNodeType(rng *rand.Rand) NodeType {
	return NodeType(pickWeighted(p.NodeType[:], rng))
}

// PickAnchorType draws the preferred anchor node type.
func (p *Profile) PickAnchorType(rng *rand.Rand) NodeType {
	return NodeType(pickWeighted(p.AnchorType[:], rng))
}

// PickAnchorPair draws the anchor edge pair preference.
func (p *Profile) PickAnchorPair(rng *rand.Rand) int {
	return pickWeighted(p.AnchorPair[:], rng)
}

// PickDistanceBand draws the placement band index (0 = near).
func (p *Profile) PickDistanceBand(rng *rand.Rand) int {
	return pickWeighted(p.DistanceBand[:], rng)
}

// PickEdgeKind draws soft or rigid for a new edge.
func (p *Profile) PickEdgeKind(rng *rand.Rand) EdgeType {
	return EdgeType(pickWeighted(p.EdgeKind[:], rng))
}
