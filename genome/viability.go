package genome

import (
	"murk/config"
)

// Viable checks the structural acceptance gates for a (mutated) child
// blueprint: point count, spring/point ratio, single connected component,
// bounded radius, node-type diversity, and mandatory harvester/actuator
// presence. Returns false with the first failing gate's name.
func (b *Blueprint) Viable() (bool, string) {
	cfg := config.Cfg()
	v := cfg.Mutation.Viability

	if len(b.Points) < v.MinPoints {
		return false, "min_points"
	}
	if float64(len(b.Springs)) < v.MinSpringPointRatio*float64(len(b.Points)) {
		return false, "spring_point_ratio"
	}
	if !b.connected() {
		return false, "disconnected"
	}

	worldMin := cfg.World.Width
	if cfg.World.Height < worldMin {
		worldMin = cfg.World.Height
	}
	if b.Radius() > v.MaxRadiusFrac*worldMin {
		return false, "radius"
	}

	var seen [NodeTypeCount]bool
	diversity := 0
	harvester, actuator := false, false
	for i := range b.Points {
		t := b.Points[i].Type
		if !seen[t] {
			seen[t] = true
			diversity++
		}
		if t.IsHarvester() {
			harvester = true
		}
		if t.IsActuator() {
			actuator = true
		}
	}
	if diversity < v.MinTypeDiversity {
		return false, "type_diversity"
	}
	if v.RequireHarvester && !harvester {
		return false, "no_harvester"
	}
	if v.RequireActuator && !actuator {
		return false, "no_actuator"
	}
	return true, ""
}

// connected reports whether the blueprint's spring graph forms a single
// connected component over all points.
func (b *Blueprint) connected() bool {
	if len(b.Points) == 0 {
		return false
	}
	adj := b.Adjacency()
	visited := make([]bool, len(b.Points))
	stack := []int{0}
	visited[0] = true
	count := 1
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range adj[n] {
			if !visited[m] {
				visited[m] = true
				count++
				stack = append(stack, m)
			}
		}
	}
	return count == len(b.Points)
}
