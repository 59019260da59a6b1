package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/systems"
	"github.com/pthm-cable/warren/telemetry"
)

// Step advances the simulation by one tick.
//
// Phases run strictly one after another: decide (parallel, reads the
// previous tick's occupancy), apply moves and collisions in live order,
// rebuild occupancy, sweep the dead, reproduce, check population health,
// then apply learning feedback.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseStep)
	g.applyCommands()
	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseDecide)
	g.decideAll()

	g.perfCollector.StartPhase(telemetry.PhaseApply)
	g.applyMoves()

	g.perfCollector.StartPhase(telemetry.PhaseRebuild)
	g.rebuildOccupancy()

	g.perfCollector.StartPhase(telemetry.PhaseSweep)
	g.sweepDead()

	g.perfCollector.StartPhase(telemetry.PhaseReproduce)
	g.reproduce()

	g.perfCollector.StartPhase(telemetry.PhaseHealth)
	g.checkHealth()

	g.perfCollector.StartPhase(telemetry.PhaseFeedback)
	g.updatePolicies()

	g.epoch++
	g.perfCollector.EndTick()

	g.flushTelemetry()
}

// Run advances the simulation by n ticks.
func (g *Game) Run(n int) {
	for i := 0; i < n; i++ {
		g.Step()
	}
}

// applyMoves steps every live agent and applies the decided actions.
// The occupancy still describes the previous tick, so a collision target is
// whoever was in the cell at the start of the tick and is still alive.
func (g *Game) applyMoves() {
	w, h := g.cfg.World.Width, g.cfg.World.Height
	stayCosts := g.cfg.Movement.StayCostsStarvation

	for i, e := range g.live {
		lc := g.lcMap.Get(e)
		if lc.Dead() {
			continue
		}
		id := g.idMap.Get(e)

		if !systems.Step(lc, g.tables[id.Species]) {
			continue
		}
		d := g.parallel.decisions[i]
		if !d.Valid {
			continue
		}

		if d.Action.IsStay() {
			if stayCosts {
				systems.Starve(lc)
				systems.CheckStarvation(lc)
			}
			continue
		}

		systems.Starve(lc)
		pos := g.posMap.Get(e)
		dx, dy := d.Action.Offset()
		dest := pos.Add(dx, dy)

		if occ, ok := g.occ.Get(dest); ok && occ.Entity != e && g.world.Alive(occ.Entity) {
			if targetLC := g.lcMap.Get(occ.Entity); targetLC.Alive {
				outcome := systems.Resolve(id.Species, lc, g.mindMap.Get(e).Policy, occ.Species, targetLC)
				if outcome.ActorEats {
					g.collector.RecordMeal(id.Species)
				}
			}
		}

		pos.Coord = dest
		if !dest.InBounds(w, h) {
			lc.Kill()
			continue
		}
		systems.CheckStarvation(lc)
	}
}

// rebuildOccupancy clears the index and re-inserts every alive agent in live order.
// When two agents share a cell the later one keeps it.
func (g *Game) rebuildOccupancy() {
	g.occ.Clear()
	for _, e := range g.live {
		if !g.lcMap.Get(e).Alive {
			continue
		}
		id := g.idMap.Get(e)
		g.occ.Set(g.posMap.Get(e).Coord, e, id.Species)
	}
}

// sweepDead removes dead agents and agents that lost their cell in the rebuild.
func (g *Game) sweepDead() {
	kept := g.live[:0]
	for _, e := range g.live {
		lc := g.lcMap.Get(e)
		if lc.Alive && g.occ.Claims(g.posMap.Get(e).Coord, e) {
			kept = append(kept, e)
			continue
		}
		g.collector.RecordDeath(g.idMap.Get(e).Species)
		g.world.RemoveEntity(e)
	}
	clear(g.live[len(kept):])
	g.live = kept
}

// reproduce places one offspring near every agent with a pending reproduction.
// Offspring appended during the pass are not considered until the next tick.
func (g *Game) reproduce() {
	w, h := g.cfg.World.Width, g.cfg.World.Height
	radius := g.cfg.Reproduction.Jitter
	retries := g.cfg.Reproduction.Retries

	n := len(g.live)
	for i := 0; i < n; i++ {
		parent := g.live[i]
		if !g.lcMap.Get(parent).WantsReproduce {
			continue
		}

		at := g.posMap.Get(parent).Coord
		dest, ok := systems.Jitter(g.rng, at, radius, retries, w, h, g.occ)
		if !ok {
			// Stay pending and try again next tick.
			continue
		}

		species := g.idMap.Get(parent).Species
		policy := g.mindMap.Get(parent).Policy
		g.spawn(species, dest, policy, g.epoch)
		g.collector.RecordBirth(species)

		// Spawning may move component storage; fetch again.
		g.lcMap.Get(parent).ReproduceDone()
	}
}

// updatePolicies applies one learning step to every agent with a policy.
func (g *Game) updatePolicies() {
	for _, e := range g.live {
		if p := g.mindMap.Get(e).Policy; p != nil {
			p.UpdateParameters()
		}
	}
}

// census counts live agents per species.
func (g *Game) census() [components.NumSpecies]int {
	var counts [components.NumSpecies]int
	for _, e := range g.live {
		if g.lcMap.Get(e).Alive {
			counts[g.idMap.Get(e).Species]++
		}
	}
	return counts
}

// fittest returns the live agent of species s with the highest lifetime food total.
// Ties go to the earliest agent in live order.
func (g *Game) fittest(s components.Species) (ecs.Entity, int, bool) {
	var (
		best  ecs.Entity
		eaten = -1
		found bool
	)
	for _, e := range g.live {
		if g.idMap.Get(e).Species != s {
			continue
		}
		lc := g.lcMap.Get(e)
		if !lc.Alive || lc.FoodEaten <= eaten {
			continue
		}
		best, eaten, found = e, lc.FoodEaten, true
	}
	return best, eaten, found
}
