package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/warren/components"
)

// ---------- ring masks ----------

func TestRingMasks_PartitionWindow(t *testing.T) {
	for _, radius := range []int{1, 2, 5} {
		e := NewEncoder(radius)
		if e.RingCount() != radius {
			t.Fatalf("radius %d: RingCount = %d", radius, e.RingCount())
		}

		covered := make([]int, e.Cells())
		for k := 0; k < e.RingCount(); k++ {
			mask := e.RingMask(k)
			n := 0
			for i, on := range mask {
				if on {
					covered[i]++
					n++
				}
			}
			// frame at Chebyshev distance d has 8d cells
			if want := 8 * (k + 1); n != want {
				t.Errorf("radius %d ring %d has %d cells, want %d", radius, k, n, want)
			}
		}

		center := radius*e.Side() + radius
		for i, c := range covered {
			switch {
			case i == center && c != 0:
				t.Errorf("radius %d: centre belongs to a ring", radius)
			case i != center && c != 1:
				t.Errorf("radius %d: cell %d covered %d times", radius, i, c)
			}
		}
	}
}

func TestRingWeights_InnermostHeaviest(t *testing.T) {
	e := NewEncoder(5)
	if e.RingWeight(0) != 1 {
		t.Errorf("innermost weight = %v, want 1", e.RingWeight(0))
	}
	for k := 1; k < e.RingCount(); k++ {
		want := float32(math.Exp(-float64(k)))
		if math.Abs(float64(e.RingWeight(k)-want)) > 1e-6 {
			t.Errorf("ring %d weight = %v, want %v", k, e.RingWeight(k), want)
		}
		if e.RingWeight(k) >= e.RingWeight(k-1) {
			t.Errorf("ring %d not lighter than ring %d", k, k-1)
		}
	}
}

// ---------- scanning ----------

func TestEncodeCell(t *testing.T) {
	tests := []struct {
		name     string
		viewer   components.Species
		occupant components.Species
		occupied bool
		inBounds bool
		want     float32
	}{
		{"out of bounds", components.SpeciesForager, 0, false, false, CodeDanger},
		{"grass", components.SpeciesForager, 0, false, true, CodeNeutral},
		{"forager sees food", components.SpeciesForager, components.SpeciesFood, true, true, CodeFavoured},
		{"forager sees predator", components.SpeciesForager, components.SpeciesPredator, true, true, CodeDanger},
		{"forager sees forager", components.SpeciesForager, components.SpeciesForager, true, true, CodeNeutral},
		{"predator sees forager", components.SpeciesPredator, components.SpeciesForager, true, true, CodeFavoured},
		{"predator sees food", components.SpeciesPredator, components.SpeciesFood, true, true, CodeNeutral},
		{"predator sees predator", components.SpeciesPredator, components.SpeciesPredator, true, true, CodeNeutral},
		{"predator edge", components.SpeciesPredator, 0, false, false, CodeDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeCell(tt.viewer, Occupant{Species: tt.occupant}, tt.occupied, tt.inBounds)
			if got != tt.want {
				t.Errorf("EncodeCell = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScan_LayoutAndEdges(t *testing.T) {
	es := newEntities(2)
	occ := NewOccupancy(4)
	e := NewEncoder(1)

	// forager at the top-left corner, food to the east, predator to the south
	at := components.Coord{X: 0, Y: 0}
	occ.Set(components.Coord{X: 1, Y: 0}, es[0], components.SpeciesFood)
	occ.Set(components.Coord{X: 0, Y: 1}, es[1], components.SpeciesPredator)

	obs := make([]float32, e.Cells())
	e.Scan(obs, at, components.SpeciesForager, occ, 10, 10)

	idx := func(dx, dy int) int { return (dx+1)*e.Side() + (dy + 1) }
	checks := []struct {
		dx, dy int
		want   float32
	}{
		{-1, -1, CodeDanger},
		{-1, 0, CodeDanger},
		{0, -1, CodeDanger},
		{0, 0, CodeNeutral},
		{1, 0, CodeFavoured},
		{0, 1, CodeDanger},
		{1, 1, CodeNeutral},
	}
	for _, c := range checks {
		if got := obs[idx(c.dx, c.dy)]; got != c.want {
			t.Errorf("offset (%d,%d) = %v, want %v", c.dx, c.dy, got, c.want)
		}
	}
}

// ---------- reward shaping ----------

func TestPerceive_FirstScanSkipsReward(t *testing.T) {
	es := newEntities(1)
	occ := NewOccupancy(4)
	e := NewEncoder(2)
	occ.Set(components.Coord{X: 6, Y: 5}, es[0], components.SpeciesFood)

	p := components.NewPerception(e.Cells())
	deltas, ok := e.Perceive(&p, nil, components.Coord{X: 5, Y: 5}, components.SpeciesForager, occ, 20, 20)
	if ok || deltas != nil {
		t.Errorf("first scan produced deltas %v", deltas)
	}
	if !p.Scanned {
		t.Error("Scanned not set after first scan")
	}
	for i := range p.Observation {
		if p.Previous[i] != p.Observation[i] {
			t.Fatalf("Previous[%d] = %v, want %v", i, p.Previous[i], p.Observation[i])
		}
	}
}

func TestPerceive_ApproachingFoodRewardsInnerRing(t *testing.T) {
	es := newEntities(1)
	occ := NewOccupancy(4)
	e := NewEncoder(2)
	occ.Set(components.Coord{X: 12, Y: 10}, es[0], components.SpeciesFood)

	p := components.NewPerception(e.Cells())
	scratch := make([]float32, 0, e.RingCount())

	// food two cells east: outer ring
	e.Perceive(&p, scratch, components.Coord{X: 10, Y: 10}, components.SpeciesForager, occ, 30, 30)
	// step east: food now adjacent
	deltas, ok := e.Perceive(&p, scratch, components.Coord{X: 11, Y: 10}, components.SpeciesForager, occ, 30, 30)
	if !ok {
		t.Fatal("second scan should produce deltas")
	}
	if len(deltas) != 2 {
		t.Fatalf("len(deltas) = %d, want 2", len(deltas))
	}
	if deltas[0] != 1 {
		t.Errorf("inner ring delta = %v, want 1", deltas[0])
	}
	want := float32(-math.Exp(-1))
	if math.Abs(float64(deltas[1]-want)) > 1e-6 {
		t.Errorf("outer ring delta = %v, want %v", deltas[1], want)
	}
}

func TestRingDeltas_NoChangeIsZero(t *testing.T) {
	e := NewEncoder(3)
	obs := make([]float32, e.Cells())
	for i := range obs {
		obs[i] = float32(i%3) - 1
	}
	for k, d := range e.RingDeltas(nil, obs, obs) {
		if d != 0 {
			t.Errorf("ring %d delta = %v, want 0", k, d)
		}
	}
}

func BenchmarkScan(b *testing.B) {
	es := newEntities(64)
	occ := NewOccupancy(64)
	for i, en := range es {
		occ.Set(components.Coord{X: i % 16, Y: i / 16}, en, components.AllSpecies[i%3])
	}
	e := NewEncoder(5)
	obs := make([]float32, e.Cells())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Scan(obs, components.Coord{X: 8, Y: 2}, components.SpeciesForager, occ, 200, 150)
	}
}
