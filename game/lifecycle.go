package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/neural"
	"github.com/pthm-cable/warren/telemetry"
)

// Place adds one agent of species s at c with the given policy, bypassing
// spawn sampling. A nil policy gets a fresh one from the factory for species
// that decide. It reports false if c is out of bounds or occupied.
func (g *Game) Place(s components.Species, c components.Coord, policy neural.Policy) (ecs.Entity, bool) {
	if !c.InBounds(g.cfg.World.Width, g.cfg.World.Height) || g.occ.Occupied(c) {
		return ecs.Entity{}, false
	}
	e := g.newAgent(s, c, policy)
	return e, true
}

// spawn creates an offspring at c whose policy copies parent and mutates at epoch.
func (g *Game) spawn(s components.Species, c components.Coord, parent neural.Policy, epoch int) ecs.Entity {
	var policy neural.Policy
	if s.HasPolicy() {
		policy = g.factory(g.encoder.Cells())
		if parent != nil {
			policy.CloneParametersFrom(parent)
			policy.Mutate(epoch)
		}
	}
	return g.newAgent(s, c, policy)
}

// newAgent creates the entity and registers it in live order and occupancy.
func (g *Game) newAgent(s components.Species, c components.Coord, policy neural.Policy) ecs.Entity {
	table := g.tables[s]
	if policy == nil && s.HasPolicy() {
		policy = g.factory(g.encoder.Cells())
	}
	if !s.HasPolicy() {
		policy = nil
	}

	g.nextID++
	pos := components.Position{Coord: c}
	id := components.Identity{ID: g.nextID, Species: s, Speed: table.Speed}
	lc := table.NewLifecycle(g.rng)
	var perc components.Perception
	if s.HasPolicy() {
		perc = components.NewPerception(g.encoder.Cells())
	}
	mind := components.Mind{Policy: policy}

	e := g.mapper.NewEntity(&pos, &id, &lc, &perc, &mind)
	g.live = append(g.live, e)
	g.occ.Set(c, e, s)
	return e
}

// fillSpecies adds n agents of species s at centre-biased free cells.
// Agents whose cell could not be found within the reroll budget are skipped.
// A non-nil seed is cloned into every new policy and mutated at epoch.
func (g *Game) fillSpecies(s components.Species, n int, seed neural.Policy, epoch int) int {
	placed := 0
	for i := 0; i < n; i++ {
		c, ok := g.spawner.Free(g.rng, g.occ)
		if !ok {
			continue
		}
		g.spawn(s, c, seed, epoch)
		placed++
	}
	return placed
}

// fillWorld adds a full generation on top of whatever is alive:
// foragers, then food, then predators.
func (g *Game) fillWorld() {
	pop := g.cfg.Population
	g.fillSpecies(components.SpeciesForager, pop.Foragers,
		g.seeds[components.SpeciesForager].Policy, g.seedEpoch(components.SpeciesForager))
	g.fillSpecies(components.SpeciesFood, pop.Food, nil, 0)
	g.fillSpecies(components.SpeciesPredator, g.predatorTarget,
		g.seeds[components.SpeciesPredator].Policy, g.seedEpoch(components.SpeciesPredator))
}

// seedEpoch is the mutation epoch used when cloning the seed of s into a new generation.
func (g *Game) seedEpoch(s components.Species) int {
	return int(float64(g.refills[s]) * g.cfg.Mutation.Decay / 2)
}

// clearWorld removes every agent.
func (g *Game) clearWorld() {
	for _, e := range g.live {
		g.world.RemoveEntity(e)
	}
	clear(g.live)
	g.live = g.live[:0]
	g.occ.Clear()
}

// captureSeeds records the fittest live forager and predator as seeds.
// A species with no survivors keeps its previous seed.
func (g *Game) captureSeeds() {
	for _, s := range []components.Species{components.SpeciesForager, components.SpeciesPredator} {
		e, eaten, ok := g.fittest(s)
		if !ok {
			continue
		}
		p := g.mindMap.Get(e).Policy
		if p == nil {
			continue
		}
		// Keep a private copy; the original agent is about to be removed.
		seed := g.factory(g.encoder.Cells())
		seed.CloneParametersFrom(p)
		g.seeds[s] = Seed{Species: s, FoodEaten: eaten, Policy: seed}
	}
}

// checkHealth applies at most one population-health rule, resetting the world
// if one fires, then records this tick's counts.
func (g *Game) checkHealth() {
	const (
		F = components.SpeciesForager
		P = components.SpeciesPredator
	)
	pop := g.cfg.Population
	counts := g.census()

	var (
		reason telemetry.ResetReason
		fire   bool
	)
	switch {
	case counts[F] < pop.Foragers/pop.LowWaterDivisor:
		g.predatorTarget = max(pop.MinPredatorTarget, g.predatorTarget-pop.PredatorStep)
		reason, fire = telemetry.ReasonForagerLowWater, true
	case counts[P] < g.predatorTarget/pop.LowWaterDivisor:
		g.predatorTarget += pop.PredatorStep
		reason, fire = telemetry.ReasonPredatorLowWater, true
	case float64(counts[F]) > float64(pop.Foragers)*g.fraction[F] && float64(g.epoch) > g.cooldown[F]:
		g.bumpRefill(F)
		reason, fire = telemetry.ReasonForagerHighWater, true
	case float64(counts[P]) > float64(g.predatorTarget)*g.fraction[P] && float64(g.epoch) > g.cooldown[P]:
		g.bumpRefill(P)
		reason, fire = telemetry.ReasonPredatorHighWater, true
	}

	if fire {
		g.reset(reason, counts)
		counts = g.census()
	}

	g.counts = counts
	g.history.Append(telemetry.NewCountsRecord(g.tick, g.epoch, counts))
	g.collector.Sample(counts)
}

// bumpRefill counts a high-water reset for s and raises its thresholds.
func (g *Game) bumpRefill(s components.Species) {
	g.refills[s]++
	g.fraction[s] *= g.cfg.Refill.FractionGrowth
	g.cooldown[s] *= g.cfg.Refill.EpochGrowth
}

// reset clears the world and refills it from the fittest seeds.
// The epoch is recomputed from the cumulative refill counts, not zeroed.
func (g *Game) reset(reason telemetry.ResetReason, counts [components.NumSpecies]int) {
	g.captureSeeds()
	g.clearWorld()

	const (
		F = components.SpeciesForager
		P = components.SpeciesPredator
	)
	g.epoch = int(float64(g.refills[F]+g.refills[P]) * g.cfg.Mutation.Decay / 2)
	g.fillWorld()

	ev := telemetry.ResetEvent{
		Tick:              g.tick,
		Reason:            reason,
		Foragers:          counts[F],
		Predators:         counts[P],
		Food:              counts[components.SpeciesFood],
		Epoch:             g.epoch,
		PredatorTarget:    g.predatorTarget,
		ForagerRefills:    g.refills[F],
		PredatorRefills:   g.refills[P],
		ForagerFraction:   g.fraction[F],
		PredatorFraction:  g.fraction[P],
		ForagerCooldown:   g.cooldown[F],
		PredatorCooldown:  g.cooldown[P],
		ForagerSeedEaten:  g.seeds[F].FoodEaten,
		PredatorSeedEaten: g.seeds[P].FoodEaten,
	}

	g.collector.RecordReset()
	slog.Info("world_reset", "event", ev)
	if err := g.outputManager.WriteReset(ev); err != nil {
		slog.Error("failed to write reset", "error", err)
	}
	if g.onReset != nil {
		g.onReset(ev, g.Seeds())
	}
}
