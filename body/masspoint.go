// Package body implements the live phenotype: Verlet mass points, damped
// springs, and the per-creature soft-body state machine covering physics,
// energy, aging, and morphogenesis.
package body

import (
	"murk/genome"
	"murk/vec"
)

// Channel indexes the per-point actuation cooldown slots.
type Channel uint8

const (
	ChannelNode Channel = iota // Node-type actuation
	ChannelGrabber
	ChannelPattern // Fallback pattern re-evaluation
	ChannelEdge    // Spring-linked actuation

	ChannelCount
)

// NeuronRecord is the optional neuron sub-record of a point.
type NeuronRecord struct {
	Hidden        int  // Hidden-layer size
	IsBrain       bool // Part of the central controller
	SensorLinks   []int
	EffectorLinks []int
}

// MassPoint is a Verlet-integrated particle owned by exactly one creature.
// Velocity is implicit in Pos - PrevPos.
type MassPoint struct {
	Pos     vec.Vec2
	PrevPos vec.Vec2
	Force   vec.Vec2 // Accumulated this tick, cleared after integration

	Mass   float64
	Radius float64

	Type     genome.NodeType
	Movement genome.MovementType
	Dye      genome.DyeColor
	Grabber  bool

	Cooldowns          [ChannelCount]int
	ActivationInterval int // Heritable re-evaluation interval, ticks
	PredatorRadius     float64
	EyeTarget          genome.EyeTarget

	AgeTicks int

	// BranchDepth is the graph distance from the founding structure; grown
	// points take their anchor's depth plus one.
	BranchDepth int

	Neuron *NeuronRecord

	// Per-tick actuation state, written by the brain or fallback pattern.
	Exertion      float64
	SwimMagnitude float64
	SwimAngle     float64
	JetMagnitude  float64
	JetAngle      float64

	// Activated is set on ticks where the node's cooldown elapsed and its
	// actuation was re-evaluated; the activation cost fraction is charged
	// only on these ticks.
	Activated bool
}

// Velocity returns the implicit per-step velocity.
func (p *MassPoint) Velocity() vec.Vec2 {
	return p.Pos.Sub(p.PrevPos)
}

// TickActivation advances the node-channel cooldown and reports whether
// the node re-evaluates its actuation this tick.
func (p *MassPoint) TickActivation(ch Channel) bool {
	if p.Cooldowns[ch] > 0 {
		p.Cooldowns[ch]--
		return false
	}
	interval := p.ActivationInterval
	if interval < 1 {
		interval = 1
	}
	p.Cooldowns[ch] = interval - 1
	return true
}

// SenescenceScale returns the actuation decay factor for the point's age:
// 1 until the senescence start ratio, then a linear ramp down to the
// configured floor at end of life.
func (p *MassPoint) SenescenceScale(maxAge int, start, floor float64) float64 {
	if maxAge <= 0 {
		return 1
	}
	ratio := float64(p.AgeTicks) / float64(maxAge)
	if ratio <= start {
		return 1
	}
	if ratio >= 1 {
		return floor
	}
	t := (ratio - start) / (1 - start)
	return 1 - t*(1-floor)
}
