package brain

import (
	"math"
	"math/rand/v2"
	"sync"

	"murk/body"
	"murk/genome"
)

// Network dimensions. Inputs are the sense snapshot plus an oscillator
// and a bias term.
const (
	NumInputs  = 10 // flow x/y, dye r/g/b, nutrient, light, energy, wave, bias
	NumHidden  = 8
	NumOutputs = 3 // exertion, steer offset, jet gain
)

// FFNN is a two-layer feedforward network, one per neuron-bearing
// creature.
type FFNN struct {
	W1 [NumHidden][NumInputs]float64
	B1 [NumHidden]float64
	W2 [NumOutputs][NumHidden]float64
	B2 [NumOutputs]float64
}

// NewFFNN creates a Xavier-initialized network.
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	scale1 := math.Sqrt(2.0 / float64(NumInputs))
	scale2 := math.Sqrt(2.0 / float64(NumHidden))
	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = rng.NormFloat64() * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = rng.NormFloat64() * scale2
		}
	}
	return nn
}

// Forward computes exertion [0,1], a steering offset [-1,1], and jet
// gain [0,1].
func (nn *FFNN) Forward(inputs *[NumInputs]float64) (exertion, steer, jet float64) {
	var hidden [NumHidden]float64
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = math.Tanh(sum)
	}

	var out [NumOutputs]float64
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		out[i] = sum
	}

	exertion = saturate01(out[0]*0.5 + 0.5)
	steer = math.Tanh(out[1])
	jet = saturate01(out[2]*0.5 + 0.5)
	return
}

func saturate01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NeuralController drives creatures that carry neuron nodes with a
// per-creature FFNN and hands everything else to the fallback pattern.
// Networks are assigned at spawn via Initialize, so Process only reads
// the map and stays safe under the parallel controller phase.
type NeuralController struct {
	fallback *FallbackPattern
	rng      *rand.Rand
	nets     sync.Map // *body.SoftBody -> *FFNN
}

// NewNeuralController wraps the fallback pattern with FFNN control for
// neuron-bearing creatures.
func NewNeuralController(fallback *FallbackPattern, rng *rand.Rand) *NeuralController {
	return &NeuralController{fallback: fallback, rng: rng}
}

// Initialize assigns a fresh network to neuron-bearing creatures. Call
// once per spawn, before the creature's first Process.
func (nc *NeuralController) Initialize(sb *body.SoftBody) {
	if sb.Counts.Neuron == 0 {
		return
	}
	nc.nets.Store(sb, NewFFNN(nc.rng))
}

// Forget drops the network of a culled creature.
func (nc *NeuralController) Forget(sb *body.SoftBody) {
	nc.nets.Delete(sb)
}

// Process runs the network when present, otherwise the pattern.
func (nc *NeuralController) Process(sb *body.SoftBody, senses Senses, tick int) {
	v, ok := nc.nets.Load(sb)
	if !ok {
		nc.fallback.Process(sb, senses, tick)
		return
	}
	net := v.(*FFNN)

	period := sb.Blueprint.Genes.PatternPeriod
	if period < 1 {
		period = 1
	}
	wave := math.Sin(2 * math.Pi * float64(tick) / float64(period))

	inputs := [NumInputs]float64{
		senses.FlowX, senses.FlowY,
		senses.DyeR, senses.DyeG, senses.DyeB,
		senses.Nutrient, senses.Light,
		senses.EnergyRatio,
		wave,
		1,
	}
	exertion, steer, jet := net.Forward(&inputs)

	flowAngle := math.Atan2(senses.FlowY, senses.FlowX)
	centroid := sb.Centroid()

	for _, p := range sb.Points {
		p.Activated = false
		if !p.TickActivation(body.ChannelNode) {
			continue
		}
		p.Activated = true
		p.Exertion = exertion

		switch p.Type {
		case genome.NodeSwimmer:
			p.SwimAngle = flowAngle + steer*math.Pi
			p.SwimMagnitude = exertion
		case genome.NodeJet:
			out := p.Pos.Sub(centroid)
			p.JetAngle = math.Atan2(out.Y, out.X) + steer*math.Pi/2
			p.JetMagnitude = exertion * jet
		default:
			p.SwimMagnitude = 0
			p.JetMagnitude = 0
		}
	}
}
