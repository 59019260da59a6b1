package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/warren/components"
)

func TestSaveLoadFrame(t *testing.T) {
	dir := t.TempDir()
	frame := &Frame{
		Tick:   1000,
		Epoch:  1750,
		Width:  200,
		Height: 150,
		Counts: CountsRecord{Tick: 1000, Epoch: 1750, Foragers: 1, Predators: 1},
		Agents: []AgentState{
			{ID: 1, X: 10, Y: 20, Species: components.SpeciesForager, Alive: true},
			{ID: 2, X: 11, Y: 20, Species: components.SpeciesPredator, Alive: true},
		},
	}

	path, err := SaveFrame(dir, frame)
	if err != nil {
		t.Fatalf("SaveFrame: %v", err)
	}
	if filepath.Base(path) != "frame_1000.json" {
		t.Errorf("unexpected file name %s", path)
	}

	loaded, err := LoadFrame(path)
	if err != nil {
		t.Fatalf("LoadFrame: %v", err)
	}
	if loaded.Epoch != 1750 || len(loaded.Agents) != 2 {
		t.Fatalf("loaded frame = %+v", loaded)
	}
	if loaded.Agents[1].Species != components.SpeciesPredator || loaded.Agents[1].X != 11 {
		t.Errorf("agent mismatch: %+v", loaded.Agents[1])
	}
}

func TestOutputManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 2; i++ {
		if err := om.WriteStats(WindowStats{WindowEndTick: int32(i * 500), Foragers: 100}); err != nil {
			t.Fatalf("WriteStats: %v", err)
		}
	}
	if err := om.WriteReset(ResetEvent{Tick: 700, Reason: ReasonForagerLowWater}); err != nil {
		t.Fatalf("WriteReset: %v", err)
	}

	records := []CountsRecord{{Tick: 1, Foragers: 150, Predators: 50, Food: 300}, {Tick: 2, Foragers: 149, Predators: 50, Food: 301}}
	path, err := om.DumpCounts(records)
	if err != nil {
		t.Fatalf("DumpCounts: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("stats.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("stats header = %q", lines[0])
	}

	resets, err := os.ReadFile(filepath.Join(dir, "resets.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(resets), "forager_low_water") {
		t.Errorf("resets.csv missing reason: %s", resets)
	}

	got, err := ReadCountsCSV(path)
	if err != nil {
		t.Fatalf("ReadCountsCSV: %v", err)
	}
	if len(got) != 2 || got[1].Food != 301 {
		t.Errorf("counts = %+v", got)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v %v", om, err)
	}
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Errorf("nil WriteStats: %v", err)
	}
	if path, err := om.DumpCounts(nil); err != nil || path != "" {
		t.Errorf("nil DumpCounts = %q, %v", path, err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
