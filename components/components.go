// Package components defines ECS components for the simulation.
package components

import (
	"github.com/google/uuid"

	"murk/body"
)

// Position is the creature's centroid, cached once per tick for spatial
// queries and sensing.
type Position struct {
	X, Y float64
}

// Creature attaches the live soft body to an entity.
type Creature struct {
	Body *body.SoftBody
}

// Lineage tracks heredity for telemetry and best-genome export.
type Lineage struct {
	ID         uuid.UUID
	ParentID   uuid.UUID
	Generation int
	BornTick   int
}
