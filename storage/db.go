// Package storage persists runs, count history and fittest-policy seeds in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/telemetry"
)

// ErrNoSeed is returned when no seed has been stored for a species.
var ErrNoSeed = errors.New("no seed stored")

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Run is one stored simulation run.
type Run struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	StartedAt string `db:"started_at"`
	Config    string `db:"config_yaml"`
}

// SeedRecord is one stored fittest policy.
type SeedRecord struct {
	RunID     string             `db:"run_id"`
	Tick      int32              `db:"tick"`
	Species   components.Species `db:"species"`
	FoodEaten int                `db:"food_eaten"`
	Weights   string             `db:"weights_json"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS counts (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		epoch INTEGER NOT NULL,
		foragers INTEGER NOT NULL,
		predators INTEGER NOT NULL,
		food INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS resets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		reason TEXT NOT NULL,
		epoch INTEGER NOT NULL,
		predator_target INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS seeds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		species INTEGER NOT NULL,
		food_eaten INTEGER NOT NULL,
		weights_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_seeds_species ON seeds(species);
	CREATE INDEX IF NOT EXISTS idx_resets_run ON resets(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// NewRun registers a run and returns its id.
func (db *DB) NewRun(seed int64, cfg *config.Config) (string, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, seed, started_at, config_yaml) VALUES (?, ?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339), string(cfgYAML),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Runs returns all runs, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, started_at, config_yaml FROM runs ORDER BY started_at, rowid")
	return runs, err
}

// SaveCounts upserts count records for a run.
func (db *DB) SaveCounts(runID string, records []telemetry.CountsRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO counts
		(run_id, tick, epoch, foragers, predators, food)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(runID, r.Tick, r.Epoch, r.Foragers, r.Predators, r.Food); err != nil {
			return fmt.Errorf("insert counts tick %d: %w", r.Tick, err)
		}
	}

	return tx.Commit()
}

// Counts returns a run's count history ordered by tick.
func (db *DB) Counts(runID string) ([]telemetry.CountsRecord, error) {
	var records []telemetry.CountsRecord
	err := db.conn.Select(&records,
		"SELECT tick, epoch, foragers, predators, food FROM counts WHERE run_id = ? ORDER BY tick",
		runID,
	)
	return records, err
}

// SaveReset appends a reset event.
func (db *DB) SaveReset(runID string, ev telemetry.ResetEvent) error {
	_, err := db.conn.Exec(
		"INSERT INTO resets (run_id, tick, reason, epoch, predator_target) VALUES (?, ?, ?, ?, ?)",
		runID, ev.Tick, string(ev.Reason), ev.Epoch, ev.PredatorTarget,
	)
	return err
}

// ResetCount returns how many resets a run recorded.
func (db *DB) ResetCount(runID string) (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM resets WHERE run_id = ?", runID)
	return n, err
}

// SaveSeed stores policy weights as JSON. The policy must implement json.Marshaler.
func (db *DB) SaveSeed(runID string, tick int32, species components.Species, foodEaten int, policy any) error {
	m, ok := policy.(json.Marshaler)
	if !ok {
		return fmt.Errorf("policy %T cannot be serialized", policy)
	}
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal seed: %w", err)
	}

	_, err = db.conn.Exec(
		"INSERT INTO seeds (run_id, tick, species, food_eaten, weights_json) VALUES (?, ?, ?, ?, ?)",
		runID, tick, int(species), foodEaten, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert seed: %w", err)
	}
	slog.Info("seed_saved", "run", runID, "tick", tick, "species", species.String(), "food_eaten", foodEaten)
	return nil
}

// LatestSeed returns the most recently stored seed for a species across all runs.
func (db *DB) LatestSeed(species components.Species) (SeedRecord, error) {
	var rec SeedRecord
	err := db.conn.Get(&rec,
		"SELECT run_id, tick, species, food_eaten, weights_json FROM seeds WHERE species = ? ORDER BY id DESC LIMIT 1",
		int(species),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%s: %w", species, ErrNoSeed)
	}
	return rec, err
}

// LoadSeedInto decodes the latest seed of species into policy, which must implement json.Unmarshaler.
func (db *DB) LoadSeedInto(species components.Species, policy any) (SeedRecord, error) {
	rec, err := db.LatestSeed(species)
	if err != nil {
		return rec, err
	}
	u, ok := policy.(json.Unmarshaler)
	if !ok {
		return rec, fmt.Errorf("policy %T cannot be deserialized", policy)
	}
	if err := u.UnmarshalJSON([]byte(rec.Weights)); err != nil {
		return rec, fmt.Errorf("decode %s seed: %w", species, err)
	}
	return rec, nil
}
