// Package spatial provides a cell-bucket grid for neighbor lookups over
// food particles and creature mass points. The grid is rebuilt each tick
// from a positional snapshot, so entries carry their own coordinates.
package spatial

import (
	"github.com/mlange-42/ark/ecs"

	"murk/vec"
)

// EntryKind tags what an entry refers to.
type EntryKind uint8

const (
	EntryParticle EntryKind = iota // Index is a particle pool slot
	EntryBodyPoint                 // Owner entity plus point index
)

// Entry is one grid occupant with its snapshot position.
type Entry struct {
	Kind  EntryKind
	Owner ecs.Entity // Zero entity for particles
	Index int        // Particle slot or point index within the owner
	X, Y  float64
}

// Neighbor is a query hit with the precomputed toroidal delta and
// squared distance from the query origin.
type Neighbor struct {
	Entry
	DX, DY float64
	DistSq float64
}

// MaxQueryResults caps the hits a single query returns so density
// spikes cannot cause unbounded work.
const MaxQueryResults = 128

// Grid is a toroidal cell-bucket index over entries.
type Grid struct {
	cellSize float64
	cols     int
	rows     int
	width    float64
	height   float64
	cells    [][]Entry
}

// NewGrid creates a grid covering the given world size.
func NewGrid(width, height, cellSize float64) *Grid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	cells := make([][]Entry, cols*rows)
	for i := range cells {
		cells[i] = make([]Entry, 0, 8)
	}
	return &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		cells:    cells,
	}
}

// Clear empties every bucket, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entry at its snapshot position.
func (g *Grid) Insert(e Entry) {
	idx := g.cellIndex(e.X, e.Y)
	g.cells[idx] = append(g.cells[idx], e)
}

// QueryRadiusInto appends entries within radius of (x, y) to dst, up to
// MaxQueryResults, and returns the updated slice. Reuse dst across calls
// to avoid allocations. The exclude entity skips a creature's own points.
func (g *Grid) QueryRadiusInto(dst []Neighbor, x, y, radius float64, exclude ecs.Entity) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)
	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			col := ((centerCol+dc)%g.cols + g.cols) % g.cols
			row := ((centerRow+dr)%g.rows + g.rows) % g.rows

			for _, e := range g.cells[row*g.cols+col] {
				if e.Kind == EntryBodyPoint && e.Owner == exclude {
					continue
				}
				dx, dy := vec.ToroidalDelta(x, y, e.X, e.Y, g.width, g.height)
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Entry: e, DX: dx, DY: dy, DistSq: distSq})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}
	return dst
}

func (g *Grid) cellIndex(x, y float64) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return row*g.cols + col
}
