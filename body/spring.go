package body

import "murk/vec"

// Spring is a damped constraint between two mass points of the same
// creature. The endpoint pointers are non-owning; a spring dies with
// either endpoint. Rigid springs ignore their own stiffness/damping in
// favor of the global rigid overrides.
type Spring struct {
	A, B *MassPoint

	RestLength float64
	Stiffness  float64
	Damping    float64
	Rigid      bool

	ActivationInterval int
}

// Length returns the current endpoint distance.
func (s *Spring) Length() float64 {
	return vec.Dist(s.A.Pos, s.B.Pos)
}

// Axis returns the unit vector from A to B, or zero if degenerate.
func (s *Spring) Axis() vec.Vec2 {
	return s.B.Pos.Sub(s.A.Pos).Normalize()
}

// Has reports whether p is one of the spring's endpoints.
func (s *Spring) Has(p *MassPoint) bool {
	return s.A == p || s.B == p
}

// Other returns the endpoint opposite p, or nil if p is not an endpoint.
func (s *Spring) Other(p *MassPoint) *MassPoint {
	switch p {
	case s.A:
		return s.B
	case s.B:
		return s.A
	}
	return nil
}
