package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/warren/components"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"window_end"`
	Epoch           int   `csv:"epoch"`

	// Population counts at window end
	Foragers  int `csv:"foragers"`
	Predators int `csv:"predators"`
	Food      int `csv:"food"`

	// Count distribution over the window's ticks
	ForagerMean  float64 `csv:"forager_mean"`
	ForagerStd   float64 `csv:"forager_std"`
	ForagerP10   float64 `csv:"forager_p10"`
	ForagerP90   float64 `csv:"forager_p90"`
	PredatorMean float64 `csv:"predator_mean"`
	PredatorStd  float64 `csv:"predator_std"`
	PredatorP10  float64 `csv:"predator_p10"`
	PredatorP90  float64 `csv:"predator_p90"`
	FoodMean     float64 `csv:"food_mean"`
	FoodStd      float64 `csv:"food_std"`

	// Events during window
	ForagerBirths  int `csv:"forager_births"`
	PredatorBirths int `csv:"predator_births"`
	FoodBirths     int `csv:"food_births"`
	ForagerDeaths  int `csv:"forager_deaths"`
	PredatorDeaths int `csv:"predator_deaths"`
	FoodDeaths     int `csv:"food_deaths"`
	ForagerMeals   int `csv:"forager_meals"`
	PredatorMeals  int `csv:"predator_meals"`
	Resets         int `csv:"resets"`
}

// Summary describes one species' count distribution.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Summarize computes mean, standard deviation and percentiles of values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	var s Summary
	if len(values) == 1 {
		s.Mean = values[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return s
}

func (s *WindowStats) setSummary(sp components.Species, sum Summary) {
	switch sp {
	case components.SpeciesForager:
		s.ForagerMean, s.ForagerStd, s.ForagerP10, s.ForagerP90 = sum.Mean, sum.Std, sum.P10, sum.P90
	case components.SpeciesPredator:
		s.PredatorMean, s.PredatorStd, s.PredatorP10, s.PredatorP90 = sum.Mean, sum.Std, sum.P10, sum.P90
	case components.SpeciesFood:
		s.FoodMean, s.FoodStd = sum.Mean, sum.Std
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("epoch", s.Epoch),
		slog.Int("foragers", s.Foragers),
		slog.Int("predators", s.Predators),
		slog.Int("food", s.Food),
		slog.Float64("forager_mean", s.ForagerMean),
		slog.Float64("forager_std", s.ForagerStd),
		slog.Float64("predator_mean", s.PredatorMean),
		slog.Float64("predator_std", s.PredatorStd),
		slog.Float64("food_mean", s.FoodMean),
		slog.Int("forager_births", s.ForagerBirths),
		slog.Int("predator_births", s.PredatorBirths),
		slog.Int("forager_deaths", s.ForagerDeaths),
		slog.Int("predator_deaths", s.PredatorDeaths),
		slog.Int("forager_meals", s.ForagerMeals),
		slog.Int("predator_meals", s.PredatorMeals),
		slog.Int("resets", s.Resets),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
