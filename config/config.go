// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen       ScreenConfig       `yaml:"screen"`
	World        WorldConfig        `yaml:"world"`
	Scan         ScanConfig         `yaml:"scan"`
	Movement     MovementConfig     `yaml:"movement"`
	Forager      SpeciesConfig      `yaml:"forager"`
	Predator     SpeciesConfig      `yaml:"predator"`
	Food         SpeciesConfig      `yaml:"food"`
	Population   PopulationConfig   `yaml:"population"`
	Refill       RefillConfig       `yaml:"refill"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Policy       PolicyConfig       `yaml:"policy"`
	Spawn        SpawnConfig        `yaml:"spawn"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Parallel     ParallelConfig     `yaml:"parallel"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the interactive viewer.
type ScreenConfig struct {
	CellSize  int `yaml:"cell_size"` // Pixels per lattice cell
	HUDHeight int `yaml:"hud_height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds lattice dimensions.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ScanConfig holds observation window parameters.
type ScanConfig struct {
	Radius int `yaml:"radius"` // Window side = 2*radius + 1
}

// MovementConfig holds movement cadence parameters.
type MovementConfig struct {
	BaseCadence int `yaml:"base_cadence"` // Agent acts when clock % (base_cadence / speed) == 0
	// StayCostsStarvation makes the stay action count as a movement attempt.
	StayCostsStarvation bool `yaml:"stay_costs_starvation"`
}

// SpeciesConfig holds the per-species behaviour table.
type SpeciesConfig struct {
	Speed         int `yaml:"speed"`
	DeathMin      int `yaml:"death_min"` // Death threshold sampled from [death_min, death_max)
	DeathMax      int `yaml:"death_max"`
	FoodThreshold int `yaml:"food_threshold"`
	RipenInterval int `yaml:"ripen_interval"` // Food only: ticks per growth step
}

// PopulationConfig holds initial fill sizes and low-water control.
type PopulationConfig struct {
	Foragers          int `yaml:"foragers"`
	Predators         int `yaml:"predators"`
	Food              int `yaml:"food"`
	PredatorStep      int `yaml:"predator_step"`       // Predator target change on low-water resets
	MinPredatorTarget int `yaml:"min_predator_target"` // Floor for the adaptive predator target
	LowWaterDivisor   int `yaml:"low_water_divisor"`   // Low water = target / divisor
}

// RefillConfig holds the adaptive high-water reset parameters.
type RefillConfig struct {
	HighWaterFraction float64 `yaml:"high_water_fraction"` // Reset when count > target * fraction
	EpochThreshold    float64 `yaml:"epoch_threshold"`     // ... and epoch > threshold
	FractionGrowth    float64 `yaml:"fraction_growth"`     // Fraction *= growth after each reset
	EpochGrowth       float64 `yaml:"epoch_growth"`        // Threshold *= growth after each reset
}

// ReproductionConfig holds offspring placement parameters.
type ReproductionConfig struct {
	Jitter  int `yaml:"jitter"`  // Offspring lands within [-jitter, jitter] of the parent on each axis
	Retries int `yaml:"retries"` // Placement attempts before giving up for this tick
}

// MutationConfig holds the decaying mutation schedule.
type MutationConfig struct {
	Decay           float64 `yaml:"decay"`
	CutoffMultiple  float64 `yaml:"cutoff_multiple"`  // No mutation past decay * cutoff_multiple
	BaseProbability float64 `yaml:"base_probability"` // Per-tensor probability at epoch 0
}

// PolicyConfig holds parameters of the default neural policy.
type PolicyConfig struct {
	HiddenLayers []int   `yaml:"hidden_layers"`
	RewardOnce   float64 `yaml:"reward_once"`
	LearningRate float64 `yaml:"learning_rate"`
	InitSigma    float64 `yaml:"init_sigma"`
}

// SpawnConfig holds the biased spawn distribution: (N(0,1) + offset) / spread * (W-1).
type SpawnConfig struct {
	CenterOffset float64 `yaml:"center_offset"`
	Spread       float64 `yaml:"spread"`
	MaxRerolls   int     `yaml:"max_rerolls"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Ticks per stats window
	LogEvery    int `yaml:"log_every"`    // Ticks between headless progress lines
}

// ParallelConfig holds decision-phase parallelism parameters.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Minimum active agents before fanning out to workers
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WindowSide  int // 2*Scan.Radius + 1
	WindowCells int // WindowSide^2
	RingCount   int // Number of reward rings (= Scan.Radius)
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Default returns the embedded defaults. Panics if they do not parse,
// which can only happen if defaults.yaml is broken at build time.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height))
	}
	if c.Scan.Radius < 1 {
		errs = append(errs, fmt.Errorf("scan.radius must be >= 1, got %d", c.Scan.Radius))
	}
	if c.Movement.BaseCadence < 1 {
		errs = append(errs, fmt.Errorf("movement.base_cadence must be >= 1, got %d", c.Movement.BaseCadence))
	}
	for _, s := range []struct {
		name string
		sc   SpeciesConfig
	}{{"forager", c.Forager}, {"predator", c.Predator}, {"food", c.Food}} {
		if s.sc.Speed < 1 {
			errs = append(errs, fmt.Errorf("%s.speed must be >= 1, got %d", s.name, s.sc.Speed))
		}
		if s.sc.DeathMin >= s.sc.DeathMax {
			errs = append(errs, fmt.Errorf("%s death range [%d, %d) is empty", s.name, s.sc.DeathMin, s.sc.DeathMax))
		}
	}
	if c.Food.RipenInterval < 1 {
		errs = append(errs, fmt.Errorf("food.ripen_interval must be >= 1, got %d", c.Food.RipenInterval))
	}
	if c.Population.LowWaterDivisor < 1 {
		errs = append(errs, fmt.Errorf("population.low_water_divisor must be >= 1, got %d", c.Population.LowWaterDivisor))
	}
	if c.Mutation.Decay <= 0 {
		errs = append(errs, fmt.Errorf("mutation.decay must be positive, got %v", c.Mutation.Decay))
	}
	if c.Reproduction.Jitter < 0 {
		errs = append(errs, fmt.Errorf("reproduction.jitter must be >= 0, got %d", c.Reproduction.Jitter))
	}
	if c.Reproduction.Retries < 0 {
		errs = append(errs, fmt.Errorf("reproduction.retries must be >= 0, got %d", c.Reproduction.Retries))
	}
	if c.Spawn.MaxRerolls < 0 {
		errs = append(errs, fmt.Errorf("spawn.max_rerolls must be >= 0, got %d", c.Spawn.MaxRerolls))
	}
	for i, n := range c.Policy.HiddenLayers {
		if n < 1 {
			errs = append(errs, fmt.Errorf("policy.hidden_layers[%d] must be >= 1, got %d", i, n))
		}
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WindowSide = 2*c.Scan.Radius + 1
	c.Derived.WindowCells = c.Derived.WindowSide * c.Derived.WindowSide
	c.Derived.RingCount = c.Scan.Radius

	if c.Spawn.Spread == 0 {
		c.Spawn.Spread = 4
	}
	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 1
	}
	if len(c.Policy.HiddenLayers) == 0 {
		c.Policy.HiddenLayers = []int{8, 8}
	}
}

// Clone returns a deep copy, used when tuning runs mutate parameters.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Policy.HiddenLayers = append([]int(nil), c.Policy.HiddenLayers...)
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
