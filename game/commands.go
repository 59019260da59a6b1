package game

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/warren/telemetry"
)

// Command is an operator request applied at the start of the next tick.
type Command string

const (
	// CommandRefill adds a full generation on top of the living agents.
	CommandRefill Command = "refill"
	// CommandClear removes every agent.
	CommandClear Command = "clear"
	// CommandDump writes the counts history and a frame of the current world.
	CommandDump Command = "dump"
)

// ParseCommand validates an operator command name.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandRefill, CommandClear, CommandDump:
		return c, nil
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Enqueue schedules a command. Safe to call from any goroutine.
func (g *Game) Enqueue(c Command) {
	g.cmdMu.Lock()
	g.commands = append(g.commands, c)
	g.cmdMu.Unlock()
}

// applyCommands drains the queue on the simulation goroutine.
// None of these count as a population reset.
func (g *Game) applyCommands() {
	g.cmdMu.Lock()
	cmds := g.commands
	g.commands = nil
	g.cmdMu.Unlock()

	for _, c := range cmds {
		switch c {
		case CommandRefill:
			g.fillWorld()
			slog.Info("operator refill", "tick", g.tick, "agents", len(g.live))
		case CommandClear:
			g.clearWorld()
			slog.Info("operator clear", "tick", g.tick)
		case CommandDump:
			if path, err := g.Dump(); err != nil {
				slog.Error("failed to dump counts", "error", err)
			} else {
				slog.Info("counts dumped", "path", path, "ticks", g.history.Len())
			}
		}
	}
}

// Dump writes the counts history as CSV and the current frame as JSON.
// It uses the run output directory when one is configured.
func (g *Game) Dump() (string, error) {
	if g.outputManager != nil {
		path, err := g.outputManager.DumpCounts(g.history.Records())
		if err != nil {
			return "", err
		}
		if _, err := g.outputManager.SaveFrame(g.Frame()); err != nil {
			return "", err
		}
		return path, nil
	}

	dir := g.dumpDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, "counts.csv")
	if err := telemetry.WriteCountsCSV(path, g.history.Records()); err != nil {
		return "", err
	}
	if _, err := telemetry.SaveFrame(dir, g.Frame()); err != nil {
		return "", err
	}
	return path, nil
}
