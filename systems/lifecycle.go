package systems

import (
	"math/rand"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
)

// SpeciesTable is the behaviour table resolved once per species.
type SpeciesTable struct {
	Species       components.Species
	Speed         int
	Cadence       int // agent acts when its clock is a multiple of this
	DeathMin      int
	DeathMax      int
	FoodThreshold int
	RipenInterval int
}

// Tables builds the behaviour tables for every species from cfg.
func Tables(cfg *config.Config) [components.NumSpecies]SpeciesTable {
	var t [components.NumSpecies]SpeciesTable
	for _, s := range components.AllSpecies {
		var sc config.SpeciesConfig
		switch s {
		case components.SpeciesForager:
			sc = cfg.Forager
		case components.SpeciesPredator:
			sc = cfg.Predator
		case components.SpeciesFood:
			sc = cfg.Food
		}
		t[s] = SpeciesTable{
			Species:       s,
			Speed:         sc.Speed,
			Cadence:       max(1, cfg.Movement.BaseCadence/max(1, sc.Speed)),
			DeathMin:      sc.DeathMin,
			DeathMax:      sc.DeathMax,
			FoodThreshold: sc.FoodThreshold,
			RipenInterval: sc.RipenInterval,
		}
	}
	return t
}

// NewLifecycle creates a fresh alive lifecycle with a death threshold drawn from [DeathMin, DeathMax).
func (t SpeciesTable) NewLifecycle(rng *rand.Rand) components.Lifecycle {
	threshold := t.DeathMin
	if span := t.DeathMax - t.DeathMin; span > 0 {
		threshold += rng.Intn(span)
	}
	return components.Lifecycle{
		DeathThreshold: threshold,
		FoodThreshold:  t.FoodThreshold,
		Alive:          true,
	}
}

// Step advances an agent's clock by one tick and returns whether it acts this tick.
//
// Food ages every tick and ripens (food counter +1) every RipenInterval ticks.
// Other species only starve on movement attempts, see Starve.
// An agent that reaches its death threshold is killed; otherwise one that has
// eaten enough is flagged for reproduction.
func Step(lc *components.Lifecycle, t SpeciesTable) bool {
	if lc.Dead() {
		return false
	}
	acts := t.Species.HasPolicy() && lc.Clock%t.Cadence == 0
	lc.Clock++

	if t.Species == components.SpeciesFood {
		lc.Starvation++
		if t.RipenInterval > 0 && lc.Clock%t.RipenInterval == 0 {
			lc.FoodCounter++
		}
	}

	if CheckStarvation(lc) {
		return false
	}
	if lc.FoodCounter >= lc.FoodThreshold {
		lc.WantsReproduce = true
	}
	return acts
}

// Starve counts one movement attempt against the agent.
func Starve(lc *components.Lifecycle) {
	lc.Starvation++
}

// CheckStarvation kills the agent if starvation reached its threshold and reports whether it died.
func CheckStarvation(lc *components.Lifecycle) bool {
	if lc.Starvation >= lc.DeathThreshold {
		lc.Kill()
		return true
	}
	return false
}
