// Package game implements the population controller: the ordered tick loop,
// collision handling, death and reproduction sweeps, and population resets.
package game

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/neural"
	"github.com/pthm-cable/warren/systems"
	"github.com/pthm-cable/warren/telemetry"
)

// Seed is the fittest individual of a species carried into a new generation.
type Seed struct {
	Species   components.Species
	FoodEaten int
	Policy    neural.Policy
}

// Options configures a Game.
type Options struct {
	Config *config.Config // nil = embedded defaults
	Seed   int64          // RNG seed

	// PolicyFactory builds decision modules; nil = FFNN from config.
	PolicyFactory neural.Factory

	// Seeds pre-load the fittest policies, e.g. when resuming a run.
	Seeds map[components.Species]neural.Policy

	// SkipInitialFill starts with an empty world.
	SkipInitialFill bool

	LogStats  bool   // log stats windows via slog
	OutputDir string // CSV output directory ("" = disabled)
	DumpDir   string // counts dump directory when OutputDir is empty ("" = working dir)

	// OnReset is called after every population reset with the seeds used to refill.
	OnReset func(telemetry.ResetEvent, []Seed)

	// StatsCallback is called every stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	world  *ecs.World
	mapper *ecs.Map5[
		components.Position,
		components.Identity,
		components.Lifecycle,
		components.Perception,
		components.Mind,
	]
	posMap  *ecs.Map1[components.Position]
	idMap   *ecs.Map1[components.Identity]
	lcMap   *ecs.Map1[components.Lifecycle]
	percMap *ecs.Map1[components.Perception]
	mindMap *ecs.Map1[components.Mind]

	// live holds agents in insertion order; it fixes the processing order
	// and therefore who wins a contested cell.
	live []ecs.Entity

	occ     *systems.Occupancy
	encoder *systems.Encoder
	tables  [components.NumSpecies]systems.SpeciesTable
	spawner systems.Spawner
	factory neural.Factory

	// State
	tick   int32
	epoch  int
	nextID uint32
	counts [components.NumSpecies]int

	// Adaptive population control
	predatorTarget int
	refills        [components.NumSpecies]int
	fraction       [components.NumSpecies]float64
	cooldown       [components.NumSpecies]float64
	seeds          [components.NumSpecies]Seed

	// Operator commands queued from other goroutines
	cmdMu    sync.Mutex
	commands []Command

	parallel *parallelState

	// Telemetry
	history       telemetry.History
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	logStats      bool
	dumpDir       string
	onReset       func(telemetry.ResetEvent, []Seed)
	statsCallback func(telemetry.WindowStats)
}

// NewGame creates a game with default options.
func NewGame() *Game {
	g, err := NewGameWithOptions(Options{Seed: 42})
	if err != nil {
		panic(err)
	}
	return g
}

// NewGameWithOptions creates a game with the given options and performs the initial fill.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))
	encoder := systems.NewEncoder(cfg.Scan.Radius)

	g := &Game{
		cfg:   cfg,
		rng:   rng,
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Identity,
			components.Lifecycle,
			components.Perception,
			components.Mind,
		](world),
		posMap:  ecs.NewMap1[components.Position](world),
		idMap:   ecs.NewMap1[components.Identity](world),
		lcMap:   ecs.NewMap1[components.Lifecycle](world),
		percMap: ecs.NewMap1[components.Perception](world),
		mindMap: ecs.NewMap1[components.Mind](world),

		occ:     systems.NewOccupancy(cfg.Population.Foragers + cfg.Population.Predators + cfg.Population.Food),
		encoder: encoder,
		tables:  systems.Tables(cfg),
		spawner: systems.Spawner{
			Width:        cfg.World.Width,
			Height:       cfg.World.Height,
			CenterOffset: cfg.Spawn.CenterOffset,
			Spread:       cfg.Spawn.Spread,
			MaxRerolls:   cfg.Spawn.MaxRerolls,
		},
		factory: opts.PolicyFactory,

		predatorTarget: cfg.Population.Predators,

		parallel: newParallelState(cfg.Parallel.Workers, cfg.Parallel.Threshold, encoder.RingCount()),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.StatsWindow),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		logStats:      opts.LogStats,
		dumpDir:       opts.DumpDir,
		onReset:       opts.OnReset,
		statsCallback: opts.StatsCallback,
	}

	if g.factory == nil {
		g.factory = neural.NewFactory(rng, PolicyConfig(cfg))
	}

	for _, s := range []components.Species{components.SpeciesForager, components.SpeciesPredator} {
		g.fraction[s] = cfg.Refill.HighWaterFraction
		g.cooldown[s] = cfg.Refill.EpochThreshold
		if p, ok := opts.Seeds[s]; ok && p != nil {
			g.seeds[s] = Seed{Species: s, Policy: p}
		}
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return nil, err
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, err
		}
		g.outputManager = om
	}

	if !opts.SkipInitialFill {
		g.fillWorld()
		g.counts = g.census()
	}

	slog.Info("world created",
		"width", cfg.World.Width,
		"height", cfg.World.Height,
		"seed", opts.Seed,
		"foragers", g.counts[components.SpeciesForager],
		"predators", g.counts[components.SpeciesPredator],
		"food", g.counts[components.SpeciesFood],
	)

	return g, nil
}

// PolicyConfig returns the FFNN settings for cfg, sized for its observation window.
func PolicyConfig(cfg *config.Config) neural.FFNNConfig {
	side := 2*cfg.Scan.Radius + 1
	return neural.FFNNConfig{
		Inputs:       side * side,
		Hidden:       cfg.Policy.HiddenLayers,
		RewardOnce:   cfg.Policy.RewardOnce,
		LearningRate: cfg.Policy.LearningRate,
		InitSigma:    cfg.Policy.InitSigma,
		Schedule: neural.Schedule{
			Decay:           cfg.Mutation.Decay,
			CutoffMultiple:  cfg.Mutation.CutoffMultiple,
			BaseProbability: cfg.Mutation.BaseProbability,
		},
	}
}

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// Epoch returns the mutation-schedule epoch.
func (g *Game) Epoch() int {
	return g.epoch
}

// Counts returns the live counts recorded at the end of the last tick.
func (g *Game) Counts() [components.NumSpecies]int {
	return g.counts
}

// LiveCount returns the number of agents in the live collection.
func (g *Game) LiveCount() int {
	return len(g.live)
}

// History returns the per-tick counts series.
func (g *Game) History() *telemetry.History {
	return &g.history
}

// PredatorTarget returns the adaptive predator population target.
func (g *Game) PredatorTarget() int {
	return g.predatorTarget
}

// Refills returns the number of high-water resets triggered by s.
func (g *Game) Refills(s components.Species) int {
	return g.refills[s]
}

// Seeds returns the current fittest seeds that have a policy.
func (g *Game) Seeds() []Seed {
	var out []Seed
	for _, s := range g.seeds {
		if s.Policy != nil {
			out = append(out, s)
		}
	}
	return out
}

// Close stops workers and flushes output.
func (g *Game) Close() {
	g.stopParallelWorkers()
	if g.outputManager != nil {
		if _, err := g.outputManager.DumpCounts(g.history.Records()); err != nil {
			slog.Error("failed to dump counts", "error", err)
		}
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
}
