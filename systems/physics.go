package systems

// PhysicsSystem advances the fluid grid, steps every soft body against
// it, and refreshes the cached centroid positions. Bodies write into the
// shared fluid field, so this phase is sequential.
type PhysicsSystem struct {
	s *Shared
}

func NewPhysicsSystem(s *Shared) *PhysicsSystem {
	return &PhysicsSystem{s: s}
}

func (ps *PhysicsSystem) Update() {
	s := ps.s
	s.Fluid.Step()

	query := s.Filter.Query()
	for query.Next() {
		pos, cr, _ := query.Get()
		sb := cr.Body
		if sb == nil || sb.Unstable {
			continue
		}
		sb.Step(s.Fluid)
		c := sb.Centroid()
		pos.X, pos.Y = c.X, c.Y
	}
}
