package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/game"
	"github.com/pthm-cable/warren/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
	lastResets  float64 // mean resets per seed from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastResets returns the mean reset count from the most recent evaluation.
func (fe *FitnessEvaluator) LastResets() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResets
}

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks       int32
	resets      int
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	resets  int
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Long stretches between population resets score best.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runSimulation(x, s)
			if err != nil {
				slog.Error("evaluation failed", "seed", s, "error", err)
				results[idx] = seedResult{fitness: 0}
				return
			}
			quality := computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness: computeFitness(result, quality),
				quality: quality,
				resets:  result.resets,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality, totalResets float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalResets += float64(r.resets)
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.lastResets = totalResets / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run for maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}
	g, err := game.NewGameWithOptions(game.Options{
		Config: cfg,
		Seed:   seed,
		OnReset: func(telemetry.ResetEvent, []game.Seed) {
			result.resets++
		},
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Close()

	g.Run(int(fe.maxTicks))
	result.ticks = g.Tick()
	return result, nil
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(ticksPerReset × (1.0 + 0.2 × quality))
func computeFitness(r *runResult, quality float64) float64 {
	perReset := float64(r.ticks) / float64(r.resets+1)
	return -(perReset * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.5
	qualityWeightStability = 0.5

	qualityWarmupWindows = 1 // skip first N windows (warmup)
	qualityMinPop        = 3 // exclude windows where either species < this
	qualityTargetRatio   = 3 // foragers per predator
)

// computeQuality computes ecosystem quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var ratioSum float64
	foragers := make([]float64, 0, len(windows))
	predators := make([]float64, 0, len(windows))

	for _, w := range windows[qualityWarmupWindows:] {
		if w.ForagerMean < qualityMinPop || w.PredatorMean < qualityMinPop {
			continue
		}
		foragers = append(foragers, w.ForagerMean)
		predators = append(predators, w.PredatorMean)

		logErr := math.Log(w.ForagerMean / w.PredatorMean / qualityTargetRatio)
		ratioSum += math.Exp(-logErr * logErr)
	}
	if len(foragers) == 0 {
		return 0
	}
	ratioScore := ratioSum / float64(len(foragers))

	stabilityScore := 0.0
	if len(foragers) >= 2 {
		cvF, cvP := cv(foragers), cv(predators)
		stabilityScore = math.Exp(-(cvF*cvF + cvP*cvP))
	}

	return clamp01(qualityWeightRatio*ratioScore + qualityWeightStability*stabilityScore)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
