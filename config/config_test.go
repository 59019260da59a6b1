package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.World.Width != 200 || cfg.World.Height != 150 {
		t.Errorf("world = %dx%d, want 200x150", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Derived.WindowSide != 2*cfg.Scan.Radius+1 {
		t.Errorf("WindowSide = %d, want %d", cfg.Derived.WindowSide, 2*cfg.Scan.Radius+1)
	}
	if cfg.Derived.WindowCells != cfg.Derived.WindowSide*cfg.Derived.WindowSide {
		t.Errorf("WindowCells = %d", cfg.Derived.WindowCells)
	}
	if cfg.Derived.RingCount != cfg.Scan.Radius {
		t.Errorf("RingCount = %d, want %d", cfg.Derived.RingCount, cfg.Scan.Radius)
	}
	if cfg.Forager.DeathMin != 250 || cfg.Forager.DeathMax != 300 {
		t.Errorf("forager death range = [%d,%d)", cfg.Forager.DeathMin, cfg.Forager.DeathMax)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	overlay := []byte("world:\n  width: 64\nscan:\n  radius: 3\n")
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.World.Width != 64 {
		t.Errorf("width = %d, want 64", cfg.World.Width)
	}
	// Fields absent from the overlay keep their defaults
	if cfg.World.Height != 150 {
		t.Errorf("height = %d, want default 150", cfg.World.Height)
	}
	if cfg.Derived.WindowSide != 7 {
		t.Errorf("WindowSide = %d, want 7", cfg.Derived.WindowSide)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.World.Width = 0 }},
		{"empty death range", func(c *Config) { c.Predator.DeathMax = c.Predator.DeathMin }},
		{"zero speed", func(c *Config) { c.Forager.Speed = 0 }},
		{"zero radius", func(c *Config) { c.Scan.Radius = 0 }},
		{"zero decay", func(c *Config) { c.Mutation.Decay = 0 }},
		{"negative jitter", func(c *Config) { c.Reproduction.Jitter = -1 }},
		{"negative retries", func(c *Config) { c.Reproduction.Retries = -1 }},
		{"negative rerolls", func(c *Config) { c.Spawn.MaxRerolls = -1 }},
		{"zero hidden layer", func(c *Config) { c.Policy.HiddenLayers = []int{8, 0} }},
		{"negative hidden layer", func(c *Config) { c.Policy.HiddenLayers = []int{-3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsNegativeJitter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("reproduction:\n  jitter: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected Load to reject a negative jitter radius")
	}
}

func TestValidateDefaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults fail validation: %v", err)
	}
}

func TestCloneIndependent(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cp.Policy.HiddenLayers[0] = 99
	cp.World.Width = 1

	if cfg.Policy.HiddenLayers[0] == 99 {
		t.Error("Clone shares HiddenLayers slice")
	}
	if cfg.World.Width == 1 {
		t.Error("Clone shares struct")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.World.Width = 77
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	if loaded.World.Width != 77 {
		t.Errorf("width = %d, want 77", loaded.World.Width)
	}
}
