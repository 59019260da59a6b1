package game

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/warren/components"
)

// logWorldState logs a one-line summary of the world.
func (g *Game) logWorldState() {
	var pending, starving int
	for _, e := range g.live {
		lc := g.lcMap.Get(e)
		if lc.WantsReproduce {
			pending++
		}
		if lc.DeathThreshold > 0 && lc.Starvation*2 >= lc.DeathThreshold {
			starving++
		}
	}

	slog.Info("world",
		"tick", humanize.Comma(int64(g.tick)),
		"epoch", humanize.Comma(int64(g.epoch)),
		"foragers", g.counts[components.SpeciesForager],
		"predators", g.counts[components.SpeciesPredator],
		"food", g.counts[components.SpeciesFood],
		"predator_target", g.predatorTarget,
		"reproduce_pending", pending,
		"half_starved", starving,
	)
}
