// Package genome defines the heritable blueprint of a creature: its
// point/spring genotype, creature-level scalar genes, and the growth
// genome that drives morphogenesis over its lifetime.
package genome

import "math"

// NodeType classifies what a mass point does.
type NodeType uint8

const (
	NodeDefault NodeType = iota
	NodePredator
	NodeEater
	NodePhotosynthetic
	NodeNeuron
	NodeEmitter
	NodeSwimmer
	NodeEye
	NodeJet
	NodeAttractor
	NodeRepulsor

	// NodeTypeCount is the number of node types; keep last.
	NodeTypeCount
)

var nodeTypeNames = [NodeTypeCount]string{
	"default", "predator", "eater", "photosynthetic", "neuron",
	"emitter", "swimmer", "eye", "jet", "attractor", "repulsor",
}

func (t NodeType) String() string {
	if t < NodeTypeCount {
		return nodeTypeNames[t]
	}
	return "unknown"
}

// IsHarvester reports whether the node type acquires energy.
func (t NodeType) IsHarvester() bool {
	return t == NodeEater || t == NodePhotosynthetic || t == NodePredator
}

// IsActuator reports whether the node type exerts force or emits.
func (t NodeType) IsActuator() bool {
	switch t {
	case NodeSwimmer, NodeEmitter, NodeJet, NodeAttractor, NodeRepulsor:
		return true
	}
	return false
}

// MovementType constrains how a point responds to forces.
type MovementType uint8

const (
	MoveNeutral MovementType = iota
	MoveFixed
	MoveFloating

	// MovementTypeCount is the number of movement types; keep last.
	MovementTypeCount
)

var movementNames = [MovementTypeCount]string{"neutral", "fixed", "floating"}

func (m MovementType) String() string {
	if m < MovementTypeCount {
		return movementNames[m]
	}
	return "unknown"
}

// EdgeType selects soft or rigid spring behavior.
type EdgeType uint8

const (
	EdgeSoft EdgeType = iota
	EdgeRigid

	EdgeTypeCount
)

// SymmetryMode selects the growth-plan symmetry coupling.
type SymmetryMode uint8

const (
	SymmetryNone SymmetryMode = iota
	SymmetryBilateral
	SymmetryRadial3

	SymmetryModeCount
)

// EyeTarget selects what an eye node tracks.
type EyeTarget uint8

const (
	EyeTargetAny EyeTarget = iota
	EyeTargetCreature
	EyeTargetParticle
	EyeTargetDye

	EyeTargetCount
)

// RewardStrategy selects how the creature weighs the growth-program
// novelty bonus against harvesting.
type RewardStrategy uint8

const (
	RewardBalanced RewardStrategy = iota
	RewardHarvest
	RewardExplore

	RewardStrategyCount
)

// NoveltyWeight scales the growth-program novelty credit: harvesters
// trade it away, explorers lean on it.
func (r RewardStrategy) NoveltyWeight() float64 {
	switch r {
	case RewardHarvest:
		return 0.5
	case RewardExplore:
		return 1.5
	default:
		return 1
	}
}

// DyeColor is an RGB dye triple in [0, 1].
type DyeColor struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// PointGene describes one mass point of the genotype. Coordinates are
// relative to the blueprint centroid.
type PointGene struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`

	Radius float64 `json:"radius"`
	Mass   float64 `json:"mass"`

	Type     NodeType     `json:"type"`
	Movement MovementType `json:"movement"`
	Dye      DyeColor     `json:"dye"`
	Grabber  bool         `json:"grabber"`

	// NeuronHidden is the hidden-layer size of the optional neuron
	// sub-record; 0 means the point carries no neuron.
	NeuronHidden int `json:"neuronHidden,omitempty"`

	ActivationInterval int     `json:"activationInterval"`
	PredatorRadius     float64 `json:"predatorRadius"`
	EyeTarget          EyeTarget `json:"eyeTarget"`
}

// SpringGene describes one spring of the genotype by point indices.
type SpringGene struct {
	A int `json:"a"`
	B int `json:"b"`

	RestLength float64 `json:"restLength"`
	Rigid      bool    `json:"rigid"`

	// Stiffness/Damping of 0 defer to the creature-level genes.
	Stiffness float64 `json:"stiffness,omitempty"`
	Damping   float64 `json:"damping,omitempty"`

	ActivationInterval int `json:"activationInterval"`
}

// Genes holds the creature-level heritable scalars.
type Genes struct {
	Stiffness float64 `json:"stiffness"`
	Damping   float64 `json:"damping"`

	MotorImpulse float64 `json:"motorImpulse"`
	EmitterRate  float64 `json:"emitterRate"`
	JetPower     float64 `json:"jetPower"`

	NumOffspring    int     `json:"numOffspring"`
	OffspringRadius float64 `json:"offspringRadius"`
	ReproThreshold  float64 `json:"reproThreshold"` // Fraction of max energy
	ReproCooldown   int     `json:"reproCooldown"`  // Base ticks between attempts

	PatternPeriod int     `json:"patternPeriod"` // Fallback actuation oscillator period
	PatternPhase  float64 `json:"patternPhase"`

	Reward RewardStrategy `json:"reward"`

	DyeAffinity  DyeColor `json:"dyeAffinity"`  // Scales photosynthesis/eating per dye channel
	DyeGain      float64  `json:"dyeGain"`      // Overexposure response gain
	DyeFertility float64  `json:"dyeFertility"` // Fertility scale vs local dye
}

// Blueprint is the full genotype: the point/spring lists, creature-level
// genes, and the growth genome.
type Blueprint struct {
	Points  []PointGene  `json:"points"`
	Springs []SpringGene `json:"springs"`
	Genes   Genes        `json:"genes"`
	Growth  Genome       `json:"growth"`
}

// Clone returns a deep copy sharing no mutable memory with b.
func (b *Blueprint) Clone() *Blueprint {
	c := &Blueprint{
		Points:  make([]PointGene, len(b.Points)),
		Springs: make([]SpringGene, len(b.Springs)),
		Genes:   b.Genes,
		Growth:  b.Growth.Clone(),
	}
	copy(c.Points, b.Points)
	copy(c.Springs, b.Springs)
	return c
}

// Centroid returns the mean of all point offsets.
func (b *Blueprint) Centroid() (cx, cy float64) {
	if len(b.Points) == 0 {
		return 0, 0
	}
	for i := range b.Points {
		cx += b.Points[i].X
		cy += b.Points[i].Y
	}
	n := float64(len(b.Points))
	return cx / n, cy / n
}

// Radius returns the largest point distance from the centroid.
func (b *Blueprint) Radius() float64 {
	cx, cy := b.Centroid()
	max := 0.0
	for i := range b.Points {
		dx := b.Points[i].X - cx
		dy := b.Points[i].Y - cy
		if d := dx*dx + dy*dy; d > max {
			max = d
		}
	}
	return math.Sqrt(max)
}

// Adjacency builds an index-based adjacency list over the spring edges.
func (b *Blueprint) Adjacency() [][]int {
	adj := make([][]int, len(b.Points))
	for i := range b.Springs {
		s := &b.Springs[i]
		if s.A < 0 || s.B < 0 || s.A >= len(b.Points) || s.B >= len(b.Points) || s.A == s.B {
			continue
		}
		adj[s.A] = append(adj[s.A], s.B)
		adj[s.B] = append(adj[s.B], s.A)
	}
	return adj
}

// HasEdge reports whether an undirected spring between a and b exists.
func (b *Blueprint) HasEdge(i, j int) bool {
	for k := range b.Springs {
		s := &b.Springs[k]
		if (s.A == i && s.B == j) || (s.A == j && s.B == i) {
			return true
		}
	}
	return false
}
