package systems

import (
	"math"

	"github.com/pthm-cable/warren/components"
)

// Cell codes written into observation windows.
const (
	CodeDanger   float32 = -1
	CodeNeutral  float32 = 0
	CodeFavoured float32 = 1
)

// cellCodes[viewer][occupant] encodes an occupied in-bounds cell.
var cellCodes = [components.NumSpecies][components.NumSpecies]float32{
	components.SpeciesForager: {
		components.SpeciesForager:  CodeNeutral,
		components.SpeciesPredator: CodeDanger,
		components.SpeciesFood:     CodeFavoured,
	},
	components.SpeciesPredator: {
		components.SpeciesForager:  CodeFavoured,
		components.SpeciesPredator: CodeNeutral,
		components.SpeciesFood:     CodeNeutral,
	},
}

// EncodeCell returns the code a viewer sees for one cell.
func EncodeCell(viewer components.Species, occ Occupant, occupied, inBounds bool) float32 {
	if !inBounds {
		return CodeDanger
	}
	if !occupied {
		return CodeNeutral
	}
	return cellCodes[viewer][occ.Species]
}

// Encoder scans square windows around agents and computes ring rewards.
//
// The window is flattened as index = (dx+R)*side + (dy+R), so the x offset
// is the major axis. Rings are ordered innermost first: ring k holds the
// cells at Chebyshev distance k+1 and is weighted exp(-k).
type Encoder struct {
	radius  int
	side    int
	rings   [][]int
	weights []float32
}

// NewEncoder precomputes ring masks for a window of the given radius.
func NewEncoder(radius int) *Encoder {
	side := 2*radius + 1
	e := &Encoder{
		radius:  radius,
		side:    side,
		rings:   make([][]int, radius),
		weights: make([]float32, radius),
	}
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			d := max(absInt(i-radius), absInt(j-radius))
			if d == 0 {
				continue
			}
			e.rings[d-1] = append(e.rings[d-1], i*side+j)
		}
	}
	for k := range e.weights {
		e.weights[k] = float32(math.Exp(-float64(k)))
	}
	return e
}

// Side returns the window side length.
func (e *Encoder) Side() int { return e.side }

// Cells returns the flattened window length.
func (e *Encoder) Cells() int { return e.side * e.side }

// RingCount returns the number of reward rings.
func (e *Encoder) RingCount() int { return len(e.rings) }

// RingMask returns ring k as a boolean mask over the flattened window.
func (e *Encoder) RingMask(k int) []bool {
	mask := make([]bool, e.Cells())
	for _, idx := range e.rings[k] {
		mask[idx] = true
	}
	return mask
}

// RingWeight returns the priority of ring k.
func (e *Encoder) RingWeight(k int) float32 {
	return e.weights[k]
}

// Scan fills dst with the window centred on at as seen by viewer.
// Cells outside [0,w)x[0,h) encode as danger.
func (e *Encoder) Scan(dst []float32, at components.Coord, viewer components.Species, occ *Occupancy, w, h int) {
	for i := 0; i < e.side; i++ {
		x := at.X - e.radius + i
		row := dst[i*e.side : (i+1)*e.side]
		for j := range row {
			c := components.Coord{X: x, Y: at.Y - e.radius + j}
			if !c.InBounds(w, h) {
				row[j] = CodeDanger
				continue
			}
			o, ok := occ.Get(c)
			row[j] = EncodeCell(viewer, o, ok, true)
		}
	}
}

// RingDeltas writes the weighted per-ring sum of (cur - prev) into dst and returns it.
func (e *Encoder) RingDeltas(dst, cur, prev []float32) []float32 {
	dst = dst[:0]
	for k, ring := range e.rings {
		var sum float32
		for _, idx := range ring {
			sum += cur[idx] - prev[idx]
		}
		dst = append(dst, sum*e.weights[k])
	}
	return dst
}

// Perceive scans into p.Observation and returns the ring deltas against the
// previous scan. On the first scan there is nothing to diff and ok is false.
// Previous is always refreshed from the new observation.
func (e *Encoder) Perceive(p *components.Perception, scratch []float32, at components.Coord, viewer components.Species, occ *Occupancy, w, h int) (deltas []float32, ok bool) {
	e.Scan(p.Observation, at, viewer, occ, w, h)
	if p.Scanned {
		deltas = e.RingDeltas(scratch, p.Observation, p.Previous)
		ok = true
	}
	copy(p.Previous, p.Observation)
	p.Scanned = true
	return deltas, ok
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
