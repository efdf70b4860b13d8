// Package brain defines the controller surface that drives a creature's
// actuation each tick, plus the gene-patterned oscillator used when no
// learned controller is attached.
package brain

import (
	"math"

	"murk/body"
	"murk/genome"
)

// Senses is the per-creature sensory snapshot sampled at the centroid
// before controllers run, so controllers never touch shared fields.
type Senses struct {
	FlowX, FlowY     float64
	DyeR, DyeG, DyeB float64
	Nutrient         float64
	Light            float64
	EnergyRatio      float64
}

// Controller drives per-point actuation state. Implementations write
// only to the body they are given. Initialize runs once per spawn;
// Forget releases any per-creature state when a creature is culled.
type Controller interface {
	Initialize(sb *body.SoftBody)
	Process(sb *body.SoftBody, senses Senses, tick int)
	Forget(sb *body.SoftBody)
}

// FallbackPattern is the default controller: a phase-shifted oscillator
// parameterized by the creature's pattern genes. Points actuate on their
// activation interval; swimmers steer with the flow, jets thrust
// outward from the centroid.
type FallbackPattern struct {
	amplitude float64
}

// NewFallbackPattern builds the oscillator controller.
func NewFallbackPattern(amplitude float64) *FallbackPattern {
	return &FallbackPattern{amplitude: amplitude}
}

// Initialize is a no-op; the pattern has no per-creature state.
func (f *FallbackPattern) Initialize(sb *body.SoftBody) {}

// Forget is a no-op; the pattern has no per-creature state.
func (f *FallbackPattern) Forget(sb *body.SoftBody) {}

// Process writes the oscillation into each point's actuation channels.
func (f *FallbackPattern) Process(sb *body.SoftBody, senses Senses, tick int) {
	genes := &sb.Blueprint.Genes
	period := genes.PatternPeriod
	if period < 1 {
		period = 1
	}
	phaseBase := genes.PatternPhase
	centroid := sb.Centroid()

	for i, p := range sb.Points {
		p.Activated = false
		if !p.TickActivation(body.ChannelNode) {
			continue
		}
		p.Activated = true

		// Stagger points along the body so the pattern travels.
		phase := phaseBase + float64(i)/float64(len(sb.Points))
		wave := math.Sin(2 * math.Pi * (float64(tick)/float64(period) + phase))
		p.Exertion = f.amplitude * (wave + 1) / 2

		switch p.Type {
		case genome.NodeSwimmer:
			flowAngle := math.Atan2(senses.FlowY, senses.FlowX)
			p.SwimAngle = flowAngle + wave*math.Pi/2
			p.SwimMagnitude = p.Exertion
		case genome.NodeJet:
			// Thrust pushes fluid away from the body.
			out := p.Pos.Sub(centroid)
			p.JetAngle = math.Atan2(out.Y, out.X)
			p.JetMagnitude = p.Exertion
		default:
			p.SwimMagnitude = 0
			p.JetMagnitude = 0
		}
	}
}
