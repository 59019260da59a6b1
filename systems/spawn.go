package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/warren/components"
)

// Spawner samples spawn coordinates biased towards the centre of the lattice.
type Spawner struct {
	Width, Height int
	CenterOffset  float64 // mean shift in standard deviations
	Spread        float64
	MaxRerolls    int
}

// Gaussian draws one coordinate per axis as (N(0,1)+offset)/spread*(size-1).
// The result may fall outside the lattice.
func (s Spawner) Gaussian(rng *rand.Rand) components.Coord {
	return components.Coord{
		X: s.axis(rng, s.Width),
		Y: s.axis(rng, s.Height),
	}
}

func (s Spawner) axis(rng *rand.Rand, size int) int {
	v := (rng.NormFloat64() + s.CenterOffset) / s.Spread * float64(size-1)
	return int(math.Floor(v))
}

// Free draws Gaussian coordinates until one is in bounds and unoccupied.
// ok is false if MaxRerolls draws all failed.
func (s Spawner) Free(rng *rand.Rand, occ *Occupancy) (components.Coord, bool) {
	for i := 0; i <= s.MaxRerolls; i++ {
		c := s.Gaussian(rng)
		if c.InBounds(s.Width, s.Height) && !occ.Occupied(c) {
			return c, true
		}
	}
	return components.Coord{}, false
}

// Jitter draws a coordinate within [-radius, radius] of parent on each axis,
// rerolling up to retries times while the cell is out of bounds, occupied, or
// the parent cell itself. A radius below 1 has no cell to offer.
func Jitter(rng *rand.Rand, parent components.Coord, radius, retries, w, h int, occ *Occupancy) (components.Coord, bool) {
	if radius < 1 {
		return components.Coord{}, false
	}
	span := 2*radius + 1
	for i := 0; i <= retries; i++ {
		c := parent.Add(rng.Intn(span)-radius, rng.Intn(span)-radius)
		if c == parent || !c.InBounds(w, h) || occ.Occupied(c) {
			continue
		}
		return c, true
	}
	return components.Coord{}, false
}
