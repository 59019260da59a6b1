// Package main provides CMA-ES tuning of the warren refill controller.
package main

import (
	"math"

	"github.com/pthm-cable/warren/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before it is applied
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Refill controller
			{Name: "high_water_fraction", Path: "refill.high_water_fraction", Min: 1.0, Max: 4.0, Default: 2.0},
			{Name: "epoch_threshold", Path: "refill.epoch_threshold", Min: 200, Max: 5000, Default: 1000},
			{Name: "fraction_growth", Path: "refill.fraction_growth", Min: 1.0, Max: 1.5, Default: 1.1},
			{Name: "epoch_growth", Path: "refill.epoch_growth", Min: 1.0, Max: 3.0, Default: 1.5},
			// Population
			{Name: "predator_step", Path: "population.predator_step", Min: 1, Max: 60, Default: 25, Integer: true},
			{Name: "low_water_divisor", Path: "population.low_water_divisor", Min: 2, Max: 30, Default: 10, Integer: true},
			// Reproduction
			{Name: "jitter", Path: "reproduction.jitter", Min: 1, Max: 20, Default: 7, Integer: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds. Integer parameters are rounded.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Refill.HighWaterFraction = c[0]
	cfg.Refill.EpochThreshold = c[1]
	cfg.Refill.FractionGrowth = c[2]
	cfg.Refill.EpochGrowth = c[3]

	cfg.Population.PredatorStep = int(c[4])
	cfg.Population.LowWaterDivisor = int(c[5])

	cfg.Reproduction.Jitter = int(c[6])
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Refill.HighWaterFraction,
		cfg.Refill.EpochThreshold,
		cfg.Refill.FractionGrowth,
		cfg.Refill.EpochGrowth,
		float64(cfg.Population.PredatorStep),
		float64(cfg.Population.LowWaterDivisor),
		float64(cfg.Reproduction.Jitter),
	}
}
