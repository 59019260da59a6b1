package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
)

func TestTables_FromDefaults(t *testing.T) {
	tables := Tables(config.Default())

	tests := []struct {
		species components.Species
		cadence int
		min     int
		max     int
	}{
		{components.SpeciesForager, 2, 250, 300},
		{components.SpeciesPredator, 1, 400, 600},
		{components.SpeciesFood, 10, 45, 155},
	}
	for _, tt := range tests {
		t.Run(tt.species.String(), func(t *testing.T) {
			tb := tables[tt.species]
			if tb.Species != tt.species {
				t.Errorf("Species = %v", tb.Species)
			}
			if tb.Cadence != tt.cadence {
				t.Errorf("Cadence = %d, want %d", tb.Cadence, tt.cadence)
			}
			if tb.DeathMin != tt.min || tb.DeathMax != tt.max {
				t.Errorf("death range = [%d,%d), want [%d,%d)", tb.DeathMin, tb.DeathMax, tt.min, tt.max)
			}
		})
	}
}

func TestNewLifecycle_DeathThresholdInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tb := SpeciesTable{Species: components.SpeciesForager, DeathMin: 250, DeathMax: 300, FoodThreshold: 3}

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		lc := tb.NewLifecycle(rng)
		if lc.DeathThreshold < 250 || lc.DeathThreshold >= 300 {
			t.Fatalf("threshold %d outside [250,300)", lc.DeathThreshold)
		}
		if !lc.Alive || lc.FoodThreshold != 3 {
			t.Fatalf("bad fresh lifecycle %+v", lc)
		}
		seen[lc.DeathThreshold] = true
	}
	if len(seen) < 10 {
		t.Errorf("only %d distinct thresholds, expected spread", len(seen))
	}
}

func TestStep_CadenceGatesActing(t *testing.T) {
	tb := SpeciesTable{Species: components.SpeciesForager, Cadence: 2, DeathMin: 100, DeathMax: 101, FoodThreshold: 3}
	lc := tb.NewLifecycle(rand.New(rand.NewSource(1)))

	var acted []bool
	for i := 0; i < 4; i++ {
		acted = append(acted, Step(&lc, tb))
	}
	want := []bool{true, false, true, false}
	for i := range want {
		if acted[i] != want[i] {
			t.Errorf("tick %d acted = %v, want %v", i, acted[i], want[i])
		}
	}
	if lc.Starvation != 0 {
		t.Errorf("forager starved %d without moving", lc.Starvation)
	}
}

func TestStep_ArmsReproduction(t *testing.T) {
	tb := SpeciesTable{Species: components.SpeciesPredator, Cadence: 1, DeathMin: 10, DeathMax: 11, FoodThreshold: 1}
	lc := tb.NewLifecycle(rand.New(rand.NewSource(1)))
	lc.Eat()

	Step(&lc, tb)
	if !lc.WantsReproduce {
		t.Error("reproduction not armed after reaching food threshold")
	}

	lc.ReproduceDone()
	if lc.WantsReproduce || lc.FoodCounter != 0 {
		t.Errorf("ReproduceDone left %+v", lc)
	}
	if lc.FoodEaten != 1 {
		t.Errorf("FoodEaten = %d, want 1", lc.FoodEaten)
	}
}

func TestStep_StarvationKills(t *testing.T) {
	tb := SpeciesTable{Species: components.SpeciesForager, Cadence: 1, DeathMin: 3, DeathMax: 4, FoodThreshold: 1}
	lc := tb.NewLifecycle(rand.New(rand.NewSource(1)))
	lc.Starvation = 3

	if Step(&lc, tb) {
		t.Error("starved agent should not act")
	}
	if lc.Alive {
		t.Error("agent should be dead")
	}
	if Step(&lc, tb) || lc.Clock != 1 {
		t.Error("dead agent should not advance")
	}
}

func TestStep_FoodRipensAndDecays(t *testing.T) {
	tb := SpeciesTable{Species: components.SpeciesFood, Cadence: 10, DeathMin: 120, DeathMax: 121, FoodThreshold: 1, RipenInterval: 50}
	lc := tb.NewLifecycle(rand.New(rand.NewSource(1)))

	for i := 0; i < 49; i++ {
		if Step(&lc, tb) {
			t.Fatal("food should never act")
		}
	}
	if lc.WantsReproduce {
		t.Fatal("food ripened early")
	}
	Step(&lc, tb)
	if !lc.WantsReproduce || lc.FoodCounter != 1 {
		t.Errorf("food not ripe at tick 50: %+v", lc)
	}
	if lc.Starvation != 50 {
		t.Errorf("food starvation = %d, want 50", lc.Starvation)
	}

	for lc.Alive {
		Step(&lc, tb)
	}
	if lc.Clock != 120 {
		t.Errorf("food decayed at tick %d, want 120", lc.Clock)
	}
}

func TestCheckStarvation(t *testing.T) {
	lc := components.Lifecycle{DeathThreshold: 2, Alive: true}
	Starve(&lc)
	if CheckStarvation(&lc) {
		t.Fatal("died below threshold")
	}
	Starve(&lc)
	if !CheckStarvation(&lc) || lc.Alive {
		t.Error("should die at threshold")
	}
}
