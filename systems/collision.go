package systems

import (
	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/neural"
)

// Outcome describes what happens when an actor moves into an occupied cell.
type Outcome struct {
	ActorEats      bool // food counters grow, starvation resets, one-shot reward
	ActorDies      bool
	TargetDies     bool
	TargetCredited bool // target's lifetime food total grows without a meal
}

// collisions[actor][target] is the species collision table.
var collisions = [components.NumSpecies][components.NumSpecies]Outcome{
	components.SpeciesForager: {
		components.SpeciesFood:     {ActorEats: true, TargetDies: true},
		components.SpeciesPredator: {ActorDies: true, TargetCredited: true},
	},
	components.SpeciesPredator: {
		components.SpeciesForager: {ActorEats: true, TargetDies: true},
	},
}

// Collision returns the table entry for actor moving into target.
func Collision(actor, target components.Species) Outcome {
	return collisions[actor][target]
}

// Resolve applies the collision outcome to both lifecycles.
// policy may be nil for species without a decision module.
func Resolve(actor components.Species, actorLC *components.Lifecycle, policy neural.Policy, target components.Species, targetLC *components.Lifecycle) Outcome {
	o := Collision(actor, target)
	if o.ActorEats {
		actorLC.Eat()
		if policy != nil {
			policy.RewardOnce()
		}
	}
	if o.ActorDies {
		actorLC.Kill()
	}
	if o.TargetDies {
		targetLC.Kill()
	}
	if o.TargetCredited {
		targetLC.FoodEaten++
	}
	return o
}
