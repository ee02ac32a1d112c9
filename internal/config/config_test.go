package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Map.TileWidth != 32 || cfg.Map.TileHeight != 32 {
		t.Errorf("expected 32x32 tiles, got %dx%d", cfg.Map.TileWidth, cfg.Map.TileHeight)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if len(cfg.Collision) != 1 {
		t.Fatalf("expected 1 default collision rule, got %d", len(cfg.Collision))
	}
	if cfg.Store.Path != "tiles.db" {
		t.Errorf("expected store path tiles.db, got %s", cfg.Store.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
map:
  tile_width: 16
  tile_height: 24

collision:
  - indexes: [3, 4]
    sides: [up, left]
  - indexes: [9]
    sides: [all]

roles:
  - name: water
    properties:
      swim: true

logging:
  level: "debug"
  format: "json"
  log_file: "tiles.log"

store:
  path: "/var/lib/tiles.db"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Map.TileWidth != 16 || cfg.Map.TileHeight != 24 {
		t.Errorf("expected 16x24 tiles, got %dx%d", cfg.Map.TileWidth, cfg.Map.TileHeight)
	}
	if len(cfg.Collision) != 2 {
		t.Fatalf("expected file rules to replace defaults, got %d rules", len(cfg.Collision))
	}
	if cfg.Collision[0].Indexes[1] != 4 || cfg.Collision[0].Sides[1] != "left" {
		t.Errorf("unexpected first rule: %+v", cfg.Collision[0])
	}
	if len(cfg.Roles) != 1 || cfg.Roles[0].Properties["swim"] != true {
		t.Errorf("unexpected roles: %+v", cfg.Roles)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging: %+v", cfg.Logging)
	}
	if !cfg.Logging.Console {
		t.Error("unset console flag should keep its default")
	}
	if cfg.Store.Path != "/var/lib/tiles.db" {
		t.Errorf("unexpected store path %s", cfg.Store.Path)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
map:
  tile_width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown side", func(c *Config) {
			c.Collision = []CollisionRule{{Indexes: []int{1}, Sides: []string{"diagonal"}}}
		}},
		{"empty role name", func(c *Config) {
			c.Roles = []RoleConfig{{Name: ""}}
		}},
		{"duplicate role", func(c *Config) {
			c.Roles = []RoleConfig{{Name: "lava"}, {Name: "lava"}}
		}},
		{"negative tile size", func(c *Config) {
			c.Map.TileWidth = -1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestApplyTo(t *testing.T) {
	l, err := tilemap.NewLayer(tilemap.Seed{
		Name:   "ground",
		Width:  3,
		Height: 1,
		Cells:  [][]int{{1, 2, 1}},
	})
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}

	cfg := Default()
	cfg.Collision = append(cfg.Collision, CollisionRule{Indexes: []int{2}, Sides: []string{"down"}})
	cfg.Roles = []RoleConfig{{Name: "spawn", Properties: map[string]any{"team": 1}}}

	if err := cfg.ApplyTo(l); err != nil {
		t.Fatalf("ApplyTo failed: %v", err)
	}

	if l.RoleByName("spawn") == nil {
		t.Error("expected role to be registered")
	}
	if got := l.TileRef(0, 0).Flags() & tilemap.CollideAll; got != tilemap.CollideAll {
		t.Errorf("expected index 1 to collide on all sides, got %v", got)
	}
	if !l.TileRef(1, 0).Has(tilemap.CollideDown) || l.TileRef(1, 0).Has(tilemap.CollideUp) {
		t.Errorf("expected index 2 to collide down only, got %v", l.TileRef(1, 0).Flags())
	}
	if l.Stats().RulePasses != 1 {
		t.Errorf("expected a single rule pass, got %+v", l.Stats())
	}
}

func TestSeedDefaults(t *testing.T) {
	cfg := Default()
	seed := tilemap.Seed{TileHeight: 8}

	cfg.SeedDefaults(&seed)

	if seed.TileWidth != 32 || seed.TileHeight != 8 {
		t.Errorf("expected 32x8, got %dx%d", seed.TileWidth, seed.TileHeight)
	}
}

func TestOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o := RegisterFlags(fs)
	if err := fs.Parse([]string{"-debug", "-log-file", "out.log", "-db", "x.db"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := Default()
	o.Apply(cfg)

	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "out.log" || cfg.Store.Path != "x.db" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Logging, cfg.Store)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Map.TileWidth = 48

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Map.TileWidth != 48 {
		t.Errorf("expected tile width 48, got %d", loaded.Map.TileWidth)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}
