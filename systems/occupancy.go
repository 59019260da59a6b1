// Package systems holds per-agent simulation logic shared by the game loop.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
)

// Occupant is what a lattice cell holds when it is not grass.
type Occupant struct {
	Entity  ecs.Entity
	Species components.Species
}

// Occupancy maps lattice coordinates to the agent standing there.
// It is rebuilt wholesale each tick and is read-only while agents decide.
type Occupancy struct {
	cells map[components.Coord]Occupant
}

// NewOccupancy creates an empty index sized for about capacity agents.
func NewOccupancy(capacity int) *Occupancy {
	return &Occupancy{cells: make(map[components.Coord]Occupant, capacity)}
}

// Get returns the occupant at c. ok is false for grass.
func (o *Occupancy) Get(c components.Coord) (Occupant, bool) {
	occ, ok := o.cells[c]
	return occ, ok
}

// Occupied reports whether any agent stands at c.
func (o *Occupancy) Occupied(c components.Coord) bool {
	_, ok := o.cells[c]
	return ok
}

// Claims reports whether e is the agent recorded at c.
func (o *Occupancy) Claims(c components.Coord, e ecs.Entity) bool {
	occ, ok := o.cells[c]
	return ok && occ.Entity == e
}

// Set records e at c, replacing any previous occupant. Last writer wins.
func (o *Occupancy) Set(c components.Coord, e ecs.Entity, s components.Species) {
	o.cells[c] = Occupant{Entity: e, Species: s}
}

// Clear empties the index.
func (o *Occupancy) Clear() {
	clear(o.cells)
}

// Len returns the number of occupied cells.
func (o *Occupancy) Len() int {
	return len(o.cells)
}
