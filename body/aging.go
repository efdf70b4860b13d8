package body

import (
	"murk/config"
	"murk/telemetry"
)

// AgeTick advances point and creature age and removes points that have
// exhausted their lifespan. Removing the last point latches the
// creature unstable.
func (sb *SoftBody) AgeTick(tel *telemetry.Counters) {
	if sb.Unstable {
		return
	}
	cfg := config.Cfg()
	sb.AgeTicks++

	maxAge := cfg.Nodes.MaxAgeTicks
	for i := 0; i < len(sb.Points); {
		p := sb.Points[i]
		p.AgeTicks++
		if maxAge > 0 && p.AgeTicks > maxAge {
			sb.RemovePointAt(i)
			tel.NodesAgedOut++
			if sb.Unstable {
				return
			}
			continue
		}
		i++
	}
}
