package telemetry

import "github.com/pthm-cable/warren/components"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks     int32
	windowStartTick int32

	// Per-tick counts sampled within the current window
	samples [components.NumSpecies][]float64

	// Event counters for current window
	births [components.NumSpecies]int
	deaths [components.NumSpecies]int
	meals  [components.NumSpecies]int
	resets int
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int32(windowTicks)}
}

// RecordBirth records an offspring or refill spawn.
func (c *Collector) RecordBirth(s components.Species) {
	c.births[s]++
}

// RecordDeath records an agent purged from the world.
func (c *Collector) RecordDeath(s components.Species) {
	c.deaths[s]++
}

// RecordMeal records a successful feeding by s.
func (c *Collector) RecordMeal(s components.Species) {
	c.meals[s]++
}

// RecordReset records a world reset.
func (c *Collector) RecordReset() {
	c.resets++
}

// Sample records the end-of-tick population counts.
func (c *Collector) Sample(counts [components.NumSpecies]int) {
	for s, n := range counts {
		c.samples[s] = append(c.samples[s], float64(n))
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, epoch int, counts [components.NumSpecies]int) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Epoch:           epoch,

		Foragers:  counts[components.SpeciesForager],
		Predators: counts[components.SpeciesPredator],
		Food:      counts[components.SpeciesFood],

		ForagerBirths:  c.births[components.SpeciesForager],
		PredatorBirths: c.births[components.SpeciesPredator],
		FoodBirths:     c.births[components.SpeciesFood],
		ForagerDeaths:  c.deaths[components.SpeciesForager],
		PredatorDeaths: c.deaths[components.SpeciesPredator],
		FoodDeaths:     c.deaths[components.SpeciesFood],
		ForagerMeals:   c.meals[components.SpeciesForager],
		PredatorMeals:  c.meals[components.SpeciesPredator],
		Resets:         c.resets,
	}
	stats.setSummary(components.SpeciesForager, Summarize(c.samples[components.SpeciesForager]))
	stats.setSummary(components.SpeciesPredator, Summarize(c.samples[components.SpeciesPredator]))
	stats.setSummary(components.SpeciesFood, Summarize(c.samples[components.SpeciesFood]))

	// Reset for next window
	c.windowStartTick = currentTick
	for s := range c.samples {
		c.samples[s] = c.samples[s][:0]
	}
	c.births = [components.NumSpecies]int{}
	c.deaths = [components.NumSpecies]int{}
	c.meals = [components.NumSpecies]int{}
	c.resets = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int32 {
	return c.windowTicks
}
