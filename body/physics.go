package body

import (
	"math"

	"murk/config"
	"murk/genome"
	"murk/vec"
)

// Fluid is the surface of the fluid-field collaborator needed by the
// physics step and the energy economy.
type Fluid interface {
	VelocityAtWorld(x, y float64) (vx, vy float64)
	DensityAtWorld(x, y float64) (r, g, b float64)
	AddVelocity(x, y, dx, dy float64)
	AddDensity(x, y, r, g, b, amount float64)
}

// Resources is the surface of the nutrient/light collaborator.
type Resources interface {
	NutrientAtWorld(x, y float64) float64
	LightAtWorld(x, y float64) float64
	DebitNutrient(x, y, amount float64)
	DebitLight(x, y, amount float64)
}

// Step advances the creature one physics tick against the fluid field.
// Any fatal check latches the creature unstable and aborts the remainder
// of the step; effects already applied are not rolled back.
func (sb *SoftBody) Step(fl Fluid) {
	if sb.Unstable {
		return
	}
	cfg := config.Cfg()

	startPos := make([]vec.Vec2, len(sb.Points))
	for i, p := range sb.Points {
		startPos[i] = p.Pos
	}

	sb.applyFluidForces(fl, cfg)
	sb.applySpringForces(cfg)
	sb.applyRepulsion(cfg)

	if !sb.guardAndIntegrate(cfg) {
		return
	}

	sb.projectRigidConstraints(cfg)
	if !sb.capEdgeLengths(cfg) {
		return
	}
	sb.finalChecks(cfg, startPos)
}

// applyFluidForces runs the fluid coupling phase: emitter dye, jet
// injection, swimmer thrust with fluid pushback, rigid-blended drag, and
// floating-point entrainment.
func (sb *SoftBody) applyFluidForces(fl Fluid, cfg *config.Config) {
	genes := &sb.Blueprint.Genes

	for _, p := range sb.Points {
		sen := p.SenescenceScale(cfg.Nodes.MaxAgeTicks, cfg.Nodes.SenescenceStart, cfg.Nodes.SenescenceFloor)
		exert := p.Exertion * sen

		switch p.Type {
		case genome.NodeEmitter:
			if exert > 0 {
				amount := cfg.Physics.EmitterDyeAmount * genes.EmitterRate * exert
				fl.AddDensity(p.Pos.X, p.Pos.Y, p.Dye.R, p.Dye.G, p.Dye.B, amount)
			}

		case genome.NodeJet:
			if p.JetMagnitude > 0 {
				fvx, fvy := fl.VelocityAtWorld(p.Pos.X, p.Pos.Y)
				ceiling := cfg.Physics.JetSpeedCeiling * genes.JetPower
				if math.Hypot(fvx, fvy) < ceiling {
					mag := p.JetMagnitude * sen * cfg.Physics.JetInjection
					fl.AddVelocity(p.Pos.X, p.Pos.Y, math.Cos(p.JetAngle)*mag, math.Sin(p.JetAngle)*mag)
				}
			}

		case genome.NodeSwimmer:
			if p.SwimMagnitude > 0 {
				mag := p.SwimMagnitude * sen * genes.MotorImpulse * cfg.Physics.SwimmerForce
				fx := math.Cos(p.SwimAngle) * mag
				fy := math.Sin(p.SwimAngle) * mag
				p.Force.X += fx
				p.Force.Y += fy
				// Equal and opposite push on the fluid.
				fl.AddVelocity(p.Pos.X, p.Pos.Y, -fx, -fy)
			}
		}

		if p.Movement == genome.MoveFixed {
			continue
		}

		fvx, fvy := fl.VelocityAtWorld(p.Pos.X, p.Pos.Y)
		rigidFrac := sb.RigidFraction(p)
		drag := cfg.Physics.DragSoft + (cfg.Physics.DragRigid-cfg.Physics.DragSoft)*rigidFrac
		feedback := cfg.Physics.FeedbackSoft + (cfg.Physics.FeedbackRigid-cfg.Physics.FeedbackSoft)*rigidFrac

		v := p.Velocity()
		p.Force.X += (fvx - v.X) * drag * p.Mass
		p.Force.Y += (fvy - v.Y) * drag * p.Mass
		fl.AddVelocity(p.Pos.X, p.Pos.Y, v.X*feedback, v.Y*feedback)

		if p.Movement == genome.MoveFloating {
			// Entrainment moves the velocity proxy directly.
			p.PrevPos.X -= fvx * cfg.Physics.FloatingEntrainment
			p.PrevPos.Y -= fvy * cfg.Physics.FloatingEntrainment
		}
	}
}

// applySpringForces accumulates damped spring forces on both endpoints.
func (sb *SoftBody) applySpringForces(cfg *config.Config) {
	for _, s := range sb.Springs {
		rigid := s.Rigid || cfg.Physics.ForceAllSpringsRigid
		stiff, damp := s.Stiffness, s.Damping
		if rigid {
			stiff, damp = cfg.Physics.RigidStiffness, cfg.Physics.RigidDamping
		}

		delta := s.B.Pos.Sub(s.A.Pos)
		length := delta.Len()
		if length < 1e-9 {
			continue
		}
		axis := delta.Scale(1 / length)

		stretch := length - s.RestLength
		relVel := s.B.Velocity().Sub(s.A.Velocity()).Dot(axis)
		f := stiff*stretch + damp*relVel

		s.A.Force = s.A.Force.Add(axis.Scale(f))
		s.B.Force = s.B.Force.Sub(axis.Scale(f))
	}
}

// applyRepulsion pushes apart unconnected point pairs that overlap, to
// prevent self-interpenetration.
func (sb *SoftBody) applyRepulsion(cfg *config.Config) {
	factor := cfg.Physics.RepulsionRadiusFactor
	strength := cfg.Physics.RepulsionStrength
	if strength <= 0 {
		return
	}
	for i := 0; i < len(sb.Points); i++ {
		for j := i + 1; j < len(sb.Points); j++ {
			a, b := sb.Points[i], sb.Points[j]
			reach := (a.Radius + b.Radius) * factor
			delta := b.Pos.Sub(a.Pos)
			distSq := delta.LenSq()
			if distSq >= reach*reach || distSq < 1e-12 {
				continue
			}
			if sb.Connected(a, b) {
				continue
			}
			dist := math.Sqrt(distSq)
			overlap := (reach - dist) / reach
			push := delta.Scale(strength * overlap / dist)
			a.Force = a.Force.Sub(push)
			b.Force = b.Force.Add(push)
		}
	}
}

// guardAndIntegrate applies the pre-integration motion guards and the
// Verlet update. Returns false if the creature latched unstable.
func (sb *SoftBody) guardAndIntegrate(cfg *config.Config) bool {
	maxAccel := cfg.Physics.MaxAccel
	maxVel := cfg.Physics.MaxVelocity

	for i, p := range sb.Points {
		posOK := p.Pos.IsFinite()
		prevOK := p.PrevPos.IsFinite()
		switch {
		case posOK && prevOK:
		case posOK && !prevOK:
			p.PrevPos = p.Pos
		case !posOK && prevOK:
			p.Pos = p.PrevPos
		default:
			sb.MarkUnstable(ReasonNonFinite, UnstableDetail{PointIndex: i})
			return false
		}

		if !p.Force.IsFinite() {
			p.Force = vec.Vec2{}
		}

		if p.Movement == genome.MoveFixed {
			p.Force = vec.Vec2{}
			p.PrevPos = p.Pos
			continue
		}

		mass := p.Mass
		if mass < 1e-6 {
			mass = 1e-6
		}
		accel := p.Force.Scale(1 / mass)
		if a := accel.Len(); a > maxAccel {
			accel = accel.Scale(maxAccel / a)
		}

		vel := p.Pos.Sub(p.PrevPos)
		next := p.Pos.Add(vel).Add(accel)
		p.PrevPos = p.Pos
		p.Pos = next
		p.Force = vec.Vec2{}

		// Implicit velocity ceiling.
		v := p.Pos.Sub(p.PrevPos)
		if l := v.Len(); l > maxVel {
			p.Pos = p.PrevPos.Add(v.Scale(maxVel / l))
		}
	}
	return true
}

// projectRigidConstraints iteratively corrects rigid spring lengths,
// redistributing error inversely by mass; fixed points absorb none. The
// pass exits early on a sweep that applies zero corrections.
func (sb *SoftBody) projectRigidConstraints(cfg *config.Config) {
	tol := cfg.Physics.RigidTolerance
	for iter := 0; iter < cfg.Physics.RigidIterations; iter++ {
		corrected := 0
		for _, s := range sb.Springs {
			if !s.Rigid && !cfg.Physics.ForceAllSpringsRigid {
				continue
			}
			if correctSpring(s, s.RestLength, tol) {
				corrected++
			}
		}
		if corrected == 0 {
			break
		}
	}
}

// correctSpring projects the endpoints toward the target length when the
// relative error exceeds tol. Returns whether a correction was applied.
func correctSpring(s *Spring, target, tol float64) bool {
	delta := s.B.Pos.Sub(s.A.Pos)
	length := delta.Len()
	if length < 1e-9 || target <= 0 {
		return false
	}
	err := length - target
	if math.Abs(err)/target <= tol {
		return false
	}

	wA, wB := 1/s.A.Mass, 1/s.B.Mass
	if s.A.Movement == genome.MoveFixed {
		wA = 0
	}
	if s.B.Movement == genome.MoveFixed {
		wB = 0
	}
	total := wA + wB
	if total <= 0 {
		return false
	}

	corr := delta.Scale(err / length)
	s.A.Pos = s.A.Pos.Add(corr.Scale(wA / total))
	s.B.Pos = s.B.Pos.Sub(corr.Scale(wB / total))
	return true
}

// capEdgeLengths enforces the hard stretch cap on every spring, rigid or
// soft, and applies the optional overstretch death check. Returns false
// if the creature latched unstable.
func (sb *SoftBody) capEdgeLengths(cfg *config.Config) bool {
	cap := cfg.Physics.EdgeStretchCap
	killAt := cfg.Physics.OverstretchKillAt

	for i, s := range sb.Springs {
		length := s.Length()
		if s.RestLength <= 0 {
			continue
		}
		stretch := length / s.RestLength
		if killAt > 0 && stretch > killAt {
			sb.MarkUnstable(ReasonOverstretch, UnstableDetail{PointIndex: i, Value: stretch})
			return false
		}
		if stretch > cap {
			correctSpring(s, s.RestLength*cap, 0)
		}
	}
	return true
}

// finalChecks applies the per-point displacement, finiteness, span, and
// world-boundary checks.
func (sb *SoftBody) finalChecks(cfg *config.Config, startPos []vec.Vec2) {
	maxDisp := cfg.Physics.MaxDisplacementPerFrame
	w, h := cfg.World.Width, cfg.World.Height

	var minX, minY, maxX, maxY float64
	first := true

	for i, p := range sb.Points {
		if !p.Pos.IsFinite() {
			sb.MarkUnstable(ReasonNonFinite, UnstableDetail{PointIndex: i})
			return
		}
		if i < len(startPos) {
			if d := vec.Dist(p.Pos, startPos[i]); d > maxDisp {
				sb.MarkUnstable(ReasonDisplacement, UnstableDetail{PointIndex: i, Value: d})
				return
			}
		}

		if cfg.World.Wrap {
			dx := math.Floor(p.Pos.X/w) * w
			dy := math.Floor(p.Pos.Y/h) * h
			p.Pos.X -= dx
			p.PrevPos.X -= dx
			p.Pos.Y -= dy
			p.PrevPos.Y -= dy
		} else {
			out := p.Pos.X < 0 || p.Pos.X > w || p.Pos.Y < 0 || p.Pos.Y > h
			if out && cfg.World.KillOnOutOfBounds {
				sb.MarkUnstable(ReasonOutOfBounds, UnstableDetail{PointIndex: i})
				return
			}
			reflect(p, w, h, cfg.World.Restitution)
		}

		if first {
			minX, maxX = p.Pos.X, p.Pos.X
			minY, maxY = p.Pos.Y, p.Pos.Y
			first = false
		} else {
			minX = math.Min(minX, p.Pos.X)
			maxX = math.Max(maxX, p.Pos.X)
			minY = math.Min(minY, p.Pos.Y)
			maxY = math.Max(maxY, p.Pos.Y)
		}
	}

	if n := len(sb.Points); n > 0 {
		span := math.Max(maxX-minX, maxY-minY)
		if span > cfg.Physics.MaxSpanPerPoint*float64(n) {
			sb.MarkUnstable(ReasonSpan, UnstableDetail{PointIndex: -1, Value: span})
		}
	}
}

// reflect bounces a point off the world walls with restitution, by
// mirroring the position and scaling the implicit velocity.
func reflect(p *MassPoint, w, h, restitution float64) {
	v := p.Pos.Sub(p.PrevPos)
	if p.Pos.X < 0 {
		p.Pos.X = -p.Pos.X
		p.PrevPos.X = p.Pos.X + v.X*restitution
	} else if p.Pos.X > w {
		p.Pos.X = 2*w - p.Pos.X
		p.PrevPos.X = p.Pos.X + v.X*restitution
	}
	if p.Pos.Y < 0 {
		p.Pos.Y = -p.Pos.Y
		p.PrevPos.Y = p.Pos.Y + v.Y*restitution
	} else if p.Pos.Y > h {
		p.Pos.Y = 2*h - p.Pos.Y
		p.PrevPos.Y = p.Pos.Y + v.Y*restitution
	}
}
