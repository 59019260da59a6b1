package game

import (
	"log/slog"

	"github.com/pthm-cable/warren/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if every := g.cfg.Telemetry.LogEvery; g.logStats && every > 0 && int(g.tick)%every == 0 {
		g.logWorldState()
	}

	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.epoch, g.counts)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Console output
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// Frame builds the renderer view of the current world.
// Call it from the goroutine that steps the game.
func (g *Game) Frame() *telemetry.Frame {
	f := &telemetry.Frame{
		Tick:   g.tick,
		Epoch:  g.epoch,
		Width:  g.cfg.World.Width,
		Height: g.cfg.World.Height,
		Counts: telemetry.NewCountsRecord(g.tick, g.epoch, g.counts),
		Agents: make([]telemetry.AgentState, 0, len(g.live)),
	}
	for _, e := range g.live {
		lc := g.lcMap.Get(e)
		if !lc.Alive {
			continue
		}
		pos := g.posMap.Get(e)
		id := g.idMap.Get(e)
		f.Agents = append(f.Agents, telemetry.AgentState{
			ID:      id.ID,
			X:       pos.X,
			Y:       pos.Y,
			Species: id.Species,
			Alive:   true,
		})
	}
	return f
}
