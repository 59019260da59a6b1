package storage

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/neural"
	"github.com/pthm-cable/warren/telemetry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "warren.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesPragmas(t *testing.T) {
	db := openTestDB(t)

	var mode string
	if err := db.conn.Get(&mode, "PRAGMA journal_mode"); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int
	if err := db.conn.Get(&timeout, "PRAGMA busy_timeout"); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestRunsAndCounts(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.NewRun(42, config.Default())
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if len(runID) != 36 {
		t.Errorf("run id %q is not a uuid", runID)
	}

	records := []telemetry.CountsRecord{
		{Tick: 1, Epoch: 0, Foragers: 150, Predators: 50, Food: 300},
		{Tick: 2, Epoch: 1, Foragers: 148, Predators: 50, Food: 305},
	}
	if err := db.SaveCounts(runID, records); err != nil {
		t.Fatalf("SaveCounts: %v", err)
	}
	// re-saving a tick replaces it
	records[1].Food = 306
	if err := db.SaveCounts(runID, records[1:]); err != nil {
		t.Fatalf("SaveCounts: %v", err)
	}

	got, err := db.Counts(runID)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0] != records[0] || got[1].Food != 306 {
		t.Errorf("counts = %+v", got)
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID || runs[0].Seed != 42 || runs[0].Config == "" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestResets(t *testing.T) {
	db := openTestDB(t)
	runID, err := db.NewRun(1, config.Default())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		ev := telemetry.ResetEvent{Tick: int32(100 * i), Reason: telemetry.ReasonForagerLowWater, PredatorTarget: 25}
		if err := db.SaveReset(runID, ev); err != nil {
			t.Fatalf("SaveReset: %v", err)
		}
	}
	n, err := db.ResetCount(runID)
	if err != nil {
		t.Fatalf("ResetCount: %v", err)
	}
	if n != 3 {
		t.Errorf("ResetCount = %d, want 3", n)
	}
}

func TestSeedRoundTrip(t *testing.T) {
	db := openTestDB(t)
	rng := rand.New(rand.NewSource(42))
	cfg := neural.FFNNConfig{Inputs: 121, Hidden: []int{8, 8}, InitSigma: 0.5, LearningRate: 0.001, RewardOnce: 5}

	if _, err := db.LatestSeed(components.SpeciesForager); !errors.Is(err, ErrNoSeed) {
		t.Fatalf("empty db: err = %v, want ErrNoSeed", err)
	}

	older := neural.NewFFNN(rng, cfg)
	newer := neural.NewFFNN(rng, cfg)
	if err := db.SaveSeed("run-a", 10, components.SpeciesForager, 3, older); err != nil {
		t.Fatalf("SaveSeed: %v", err)
	}
	if err := db.SaveSeed("run-a", 20, components.SpeciesForager, 7, newer); err != nil {
		t.Fatalf("SaveSeed: %v", err)
	}

	loaded := neural.NewFFNN(rng, cfg)
	rec, err := db.LoadSeedInto(components.SpeciesForager, loaded)
	if err != nil {
		t.Fatalf("LoadSeedInto: %v", err)
	}
	if rec.Tick != 20 || rec.FoodEaten != 7 || rec.Species != components.SpeciesForager {
		t.Errorf("record = %+v", rec)
	}

	obs := make([]float32, cfg.Inputs)
	for i := range obs {
		obs[i] = float32(i%3) - 1
	}
	want := newer.Forward(obs)
	got := loaded.Forward(obs)
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("output %d: loaded %v, saved %v", i, got[i], want[i])
		}
	}

	if _, err := db.LatestSeed(components.SpeciesPredator); !errors.Is(err, ErrNoSeed) {
		t.Errorf("predator seed: err = %v, want ErrNoSeed", err)
	}
}

func TestSaveSeedRejectsOpaquePolicy(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveSeed("run", 1, components.SpeciesPredator, 0, struct{}{}); err == nil {
		t.Error("expected error for a policy without JSON encoding")
	}
}
