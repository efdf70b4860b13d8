package body

import (
	"murk/config"
	"murk/genome"
	"murk/telemetry"
	"murk/vec"
)

// UnstableReason names the first fatal condition a creature hit.
type UnstableReason string

const (
	ReasonEnergyDepleted UnstableReason = "energy_depleted"
	ReasonNonFinite      UnstableReason = "non_finite_position"
	ReasonDisplacement   UnstableReason = "displacement_exceeded"
	ReasonOverstretch    UnstableReason = "spring_overstretch"
	ReasonSpan           UnstableReason = "span_exceeded"
	ReasonOutOfBounds    UnstableReason = "out_of_bounds"
	ReasonNodeOldAge     UnstableReason = "node_old_age_exhaustion"
)

// UnstableDetail carries structured diagnostics for the latched reason.
type UnstableDetail struct {
	PointIndex int
	Value      float64
}

// Counts caches per-node-type totals, recomputed whenever the point set
// changes.
type Counts struct {
	Emitter        int
	Swimmer        int
	Eater          int
	Predator       int
	Eye            int
	Jet            int
	Attractor      int
	Repulsor       int
	Photosynthetic int
	Neuron         int
	Grabber        int
}

// EnergyLedger accumulates per-category energy flow for diagnostics.
type EnergyLedger struct {
	BaseCost         float64
	ActuationCost    float64
	PoisonCost       float64
	OverexposureCost float64
	PredationSelf    float64

	PhotoGain     float64
	EatGain       float64
	PredationGain float64
	NoveltyGain   float64
}

// SoftBody is a live creature: the phenotype instantiated from its
// blueprint, plus energy, lifecycle, and growth runtime state.
type SoftBody struct {
	Points  []*MassPoint
	Springs []*Spring

	Blueprint *genome.Blueprint

	Energy    float64
	MaxEnergy float64
	Ledger    EnergyLedger

	AgeTicks   int
	Generation int

	// Reproduction state. FailedReproUntil suppresses attempts after a
	// placement failure; LastReproAge anchors the cooldown gate.
	LastReproAge     int
	FailedReproUntil int

	Unstable bool
	Reason   UnstableReason
	Detail   UnstableDetail

	// Growth runtime.
	VM             genome.VMState
	GrowthCooldown int
	GrowthEvents   int

	Counts     Counts
	PrimaryEye int // Index into Points, -1 if no eye
}

// Instantiate compiles a sanitized blueprint into a live creature at the
// given world position (the centroid target). Out-of-range spring genes
// are dropped with a telemetry diagnostic, never fatally.
func Instantiate(bp *genome.Blueprint, spawn vec.Vec2, tel *telemetry.Counters) *SoftBody {
	cfg := config.Cfg()

	sb := &SoftBody{
		Blueprint:  bp,
		PrimaryEye: -1,
	}

	cx, cy := bp.Centroid()
	for i := range bp.Points {
		g := &bp.Points[i]
		pos := vec.New(spawn.X+g.X-cx, spawn.Y+g.Y-cy)
		mp := &MassPoint{
			Pos:                pos,
			PrevPos:            pos,
			Mass:               g.Mass,
			Radius:             g.Radius,
			Type:               g.Type,
			Movement:           g.Movement,
			Dye:                g.Dye,
			Grabber:            g.Grabber,
			ActivationInterval: g.ActivationInterval,
			PredatorRadius:     g.PredatorRadius,
			EyeTarget:          g.EyeTarget,
		}
		if g.Type == genome.NodeNeuron && g.NeuronHidden > 0 {
			mp.Neuron = &NeuronRecord{Hidden: g.NeuronHidden}
		}
		sb.Points = append(sb.Points, mp)
	}

	for i := range bp.Springs {
		g := &bp.Springs[i]
		if g.A < 0 || g.B < 0 || g.A >= len(sb.Points) || g.B >= len(sb.Points) || g.A == g.B {
			if tel != nil {
				tel.SpringsDropped++
			}
			continue
		}
		stiff := g.Stiffness
		if stiff == 0 {
			stiff = bp.Genes.Stiffness
		}
		damp := g.Damping
		if damp == 0 {
			damp = bp.Genes.Damping
		}
		sb.Springs = append(sb.Springs, &Spring{
			A:                  sb.Points[g.A],
			B:                  sb.Points[g.B],
			RestLength:         g.RestLength,
			Stiffness:          stiff,
			Damping:            damp,
			Rigid:              g.Rigid,
			ActivationInterval: g.ActivationInterval,
		})
	}

	sb.EnforcePhotoConstraint()
	sb.Recount()
	sb.Energy = sb.MaxEnergy * cfg.Energy.InitialRatio
	return sb
}

// Recount rebuilds the per-type caches, designates the primary eye, and
// recomputes the maximum energy from the live point count. Call after any
// change to the point set.
func (sb *SoftBody) Recount() {
	cfg := config.Cfg()
	sb.Counts = Counts{}
	sb.PrimaryEye = -1

	for i, p := range sb.Points {
		switch p.Type {
		case genome.NodeEmitter:
			sb.Counts.Emitter++
		case genome.NodeSwimmer:
			sb.Counts.Swimmer++
		case genome.NodeEater:
			sb.Counts.Eater++
		case genome.NodePredator:
			sb.Counts.Predator++
		case genome.NodeEye:
			sb.Counts.Eye++
			if sb.PrimaryEye < 0 {
				sb.PrimaryEye = i
			}
		case genome.NodeJet:
			sb.Counts.Jet++
		case genome.NodeAttractor:
			sb.Counts.Attractor++
		case genome.NodeRepulsor:
			sb.Counts.Repulsor++
		case genome.NodePhotosynthetic:
			sb.Counts.Photosynthetic++
		case genome.NodeNeuron:
			sb.Counts.Neuron++
		}
		if p.Grabber {
			sb.Counts.Grabber++
		}
	}

	sb.MaxEnergy = float64(len(sb.Points)) * cfg.Energy.MaxPerPoint
	if sb.Energy > sb.MaxEnergy {
		sb.Energy = sb.MaxEnergy
	}
}

// EnforcePhotoConstraint forces springs touching a Photosynthetic point
// rigid and their non-photosynthetic endpoints to Neutral movement, on
// the live phenotype.
func (sb *SoftBody) EnforcePhotoConstraint() {
	for _, s := range sb.Springs {
		aPhoto := s.A.Type == genome.NodePhotosynthetic
		bPhoto := s.B.Type == genome.NodePhotosynthetic
		if !aPhoto && !bPhoto {
			continue
		}
		s.Rigid = true
		if aPhoto && !bPhoto {
			s.B.Movement = genome.MoveNeutral
		}
		if bPhoto && !aPhoto {
			s.A.Movement = genome.MoveNeutral
		}
	}
}

// MarkUnstable latches the creature into the terminal state. Only the
// first cause is recorded; later calls are no-ops.
func (sb *SoftBody) MarkUnstable(reason UnstableReason, detail UnstableDetail) {
	if sb.Unstable {
		return
	}
	sb.Unstable = true
	sb.Reason = reason
	sb.Detail = detail
}

// Centroid returns the mean live point position.
func (sb *SoftBody) Centroid() vec.Vec2 {
	if len(sb.Points) == 0 {
		return vec.Vec2{}
	}
	var c vec.Vec2
	for _, p := range sb.Points {
		c = c.Add(p.Pos)
	}
	return c.Scale(1 / float64(len(sb.Points)))
}

// BoundingRadius returns the farthest point distance from the centroid
// plus that point's radius.
func (sb *SoftBody) BoundingRadius() float64 {
	c := sb.Centroid()
	max := 0.0
	for _, p := range sb.Points {
		if d := vec.Dist(c, p.Pos) + p.Radius; d > max {
			max = d
		}
	}
	return max
}

// EnergyRatio returns current energy as a fraction of maximum.
func (sb *SoftBody) EnergyRatio() float64 {
	if sb.MaxEnergy <= 0 {
		return 0
	}
	return sb.Energy / sb.MaxEnergy
}

// GainEnergy adds energy, clamped to the maximum.
func (sb *SoftBody) GainEnergy(amount float64) {
	sb.Energy += amount
	if sb.Energy > sb.MaxEnergy {
		sb.Energy = sb.MaxEnergy
	}
}

// SapEnergy removes up to amount of energy and returns the amount
// actually taken. Hitting zero latches energy depletion.
func (sb *SoftBody) SapEnergy(amount float64) float64 {
	if amount <= 0 || sb.Unstable {
		return 0
	}
	taken := amount
	if sb.Energy < taken {
		taken = sb.Energy
	}
	sb.Energy -= taken
	if sb.Energy <= 0 {
		sb.Energy = 0
		sb.MarkUnstable(ReasonEnergyDepleted, UnstableDetail{PointIndex: -1})
	}
	return taken
}

// CanReproduce reports whether the creature's age has passed the
// effective cooldown: the heritable cooldown gene scaled by point count.
func (sb *SoftBody) CanReproduce() bool {
	if sb.Unstable {
		return false
	}
	cool := float64(sb.Blueprint.Genes.ReproCooldown) * (1 + float64(len(sb.Points))*0.05)
	return float64(sb.AgeTicks-sb.LastReproAge) > cool
}

// RemovePointAt deletes the point at index i and every spring touching
// it, then recounts caches. Emptying the creature latches old-age
// exhaustion.
func (sb *SoftBody) RemovePointAt(i int) {
	if i < 0 || i >= len(sb.Points) {
		return
	}
	dead := sb.Points[i]
	sb.Points = append(sb.Points[:i], sb.Points[i+1:]...)

	kept := sb.Springs[:0]
	for _, s := range sb.Springs {
		if !s.Has(dead) {
			kept = append(kept, s)
		}
	}
	sb.Springs = kept
	sb.Recount()

	if len(sb.Points) == 0 {
		sb.MarkUnstable(ReasonNodeOldAge, UnstableDetail{PointIndex: -1})
	}
}

// SpringsOf returns indices of springs touching p. The slice is rebuilt
// per call; callers in hot paths should use RigidFractions instead.
func (sb *SoftBody) SpringsOf(p *MassPoint) []*Spring {
	var out []*Spring
	for _, s := range sb.Springs {
		if s.Has(p) {
			out = append(out, s)
		}
	}
	return out
}

// RigidFraction returns the fraction of p's springs that are rigid, or 0
// for an unconnected point.
func (sb *SoftBody) RigidFraction(p *MassPoint) float64 {
	total, rigid := 0, 0
	for _, s := range sb.Springs {
		if s.Has(p) {
			total++
			if s.Rigid {
				rigid++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(rigid) / float64(total)
}

// RigidSpringFraction returns the body-wide fraction of rigid springs.
func (sb *SoftBody) RigidSpringFraction() float64 {
	if len(sb.Springs) == 0 {
		return 0
	}
	rigid := 0
	for _, s := range sb.Springs {
		if s.Rigid {
			rigid++
		}
	}
	return float64(rigid) / float64(len(sb.Springs))
}

// Connected reports whether the two points share a spring.
func (sb *SoftBody) Connected(a, b *MassPoint) bool {
	for _, s := range sb.Springs {
		if (s.A == a && s.B == b) || (s.A == b && s.B == a) {
			return true
		}
	}
	return false
}
