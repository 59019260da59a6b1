// Package telemetry provides population history, windowed statistics, bookmarks and run output.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/warren/components"
)

// ResetReason identifies which population-health rule forced a world reset.
type ResetReason string

const (
	ReasonForagerLowWater   ResetReason = "forager_low_water"
	ReasonPredatorLowWater  ResetReason = "predator_low_water"
	ReasonForagerHighWater  ResetReason = "forager_high_water"
	ReasonPredatorHighWater ResetReason = "predator_high_water"
)

// Species returns the species whose count triggered the reset.
func (r ResetReason) Species() components.Species {
	switch r {
	case ReasonPredatorLowWater, ReasonPredatorHighWater:
		return components.SpeciesPredator
	default:
		return components.SpeciesForager
	}
}

// ResetEvent records one world reset and the controller state after it.
type ResetEvent struct {
	Tick   int32       `csv:"tick"`
	Reason ResetReason `csv:"reason"`

	// Counts that triggered the reset
	Foragers  int `csv:"foragers"`
	Predators int `csv:"predators"`
	Food      int `csv:"food"`

	// Controller state after the reset
	Epoch            int     `csv:"epoch"`
	PredatorTarget   int     `csv:"predator_target"`
	ForagerRefills   int     `csv:"forager_refills"`
	PredatorRefills  int     `csv:"predator_refills"`
	ForagerFraction  float64 `csv:"forager_fraction"`
	PredatorFraction float64 `csv:"predator_fraction"`
	ForagerCooldown  float64 `csv:"forager_cooldown"`
	PredatorCooldown float64 `csv:"predator_cooldown"`

	// Lifetime meals of the seeds carried into the new generation
	ForagerSeedEaten  int `csv:"forager_seed_eaten"`
	PredatorSeedEaten int `csv:"predator_seed_eaten"`
}

// LogValue implements slog.LogValuer for structured logging.
func (e ResetEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(e.Tick)),
		slog.String("reason", string(e.Reason)),
		slog.Int("foragers", e.Foragers),
		slog.Int("predators", e.Predators),
		slog.Int("food", e.Food),
		slog.Int("epoch", e.Epoch),
		slog.Int("predator_target", e.PredatorTarget),
		slog.Int("forager_refills", e.ForagerRefills),
		slog.Int("predator_refills", e.PredatorRefills),
		slog.Float64("forager_fraction", e.ForagerFraction),
		slog.Float64("predator_fraction", e.PredatorFraction),
	)
}
