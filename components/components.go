// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/warren/neural"

// Species is the closed set of agent kinds.
type Species uint8

const (
	SpeciesForager Species = iota
	SpeciesPredator
	SpeciesFood
)

// NumSpecies is the number of species tags.
const NumSpecies = 3

// AllSpecies lists species in reporting order.
var AllSpecies = [NumSpecies]Species{SpeciesForager, SpeciesPredator, SpeciesFood}

// String returns the species name used in logs and CSV output.
func (s Species) String() string {
	switch s {
	case SpeciesForager:
		return "forager"
	case SpeciesPredator:
		return "predator"
	case SpeciesFood:
		return "food"
	default:
		return "unknown"
	}
}

// HasPolicy reports whether agents of this species carry a decision module.
func (s Species) HasPolicy() bool {
	return s == SpeciesForager || s == SpeciesPredator
}

// Coord is an integer lattice coordinate.
type Coord struct {
	X, Y int
}

// Add returns c translated by (dx, dy).
func (c Coord) Add(dx, dy int) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// InBounds reports whether c lies in [0,w) x [0,h).
func (c Coord) InBounds(w, h int) bool {
	return c.X >= 0 && c.X < w && c.Y >= 0 && c.Y < h
}

// Position is an agent's lattice cell.
type Position struct {
	Coord
}

// Identity holds immutable per-agent identity.
type Identity struct {
	ID      uint32
	Species Species
	Speed   int
}

// Lifecycle holds the counters driving starvation, reproduction and death.
type Lifecycle struct {
	Clock          int // ticks stepped; gates movement cadence and food ripening
	Starvation     int
	DeathThreshold int // sampled once at creation, never changed
	FoodCounter    int
	FoodThreshold  int
	FoodEaten      int // lifetime total, used to pick the fittest seed
	Alive          bool
	WantsReproduce bool
}

// Dead reports whether the agent is no longer alive.
func (l *Lifecycle) Dead() bool {
	return !l.Alive
}

// Kill marks the agent dead. Dead is terminal.
func (l *Lifecycle) Kill() {
	l.Alive = false
	l.WantsReproduce = false
}

// Eat records a meal: the food counter and lifetime total grow, starvation resets.
func (l *Lifecycle) Eat() {
	l.FoodCounter++
	l.FoodEaten++
	l.Starvation = 0
}

// ReproduceDone clears the pending flag once an offspring has been placed.
func (l *Lifecycle) ReproduceDone() {
	l.WantsReproduce = false
	l.FoodCounter = 0
}

// Perception holds the current and previous observation windows.
type Perception struct {
	Observation []float32
	Previous    []float32
	Scanned     bool // false until the first scan populated Previous
}

// NewPerception allocates buffers for a window of the given cell count.
func NewPerception(cells int) Perception {
	return Perception{
		Observation: make([]float32, cells),
		Previous:    make([]float32, cells),
	}
}

// Mind attaches an optional decision module.
type Mind struct {
	Policy neural.Policy
}
