// Package config handles tool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Map       MapConfig       `yaml:"map"`
	Collision []CollisionRule `yaml:"collision"`
	Roles     []RoleConfig    `yaml:"roles"`
	Store     StoreConfig     `yaml:"store"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	Console bool   `yaml:"console"`
	LogFile string `yaml:"log_file"`
}

// MapConfig holds layer defaults used when a seed does not carry them.
type MapConfig struct {
	TileWidth  int `yaml:"tile_width"`
	TileHeight int `yaml:"tile_height"`
}

// CollisionRule makes every tile with one of Indexes collide on Sides.
type CollisionRule struct {
	Indexes []int    `yaml:"indexes"`
	Sides   []string `yaml:"sides"` // up, down, left, right, all
}

// RoleConfig registers a named role on every layer.
type RoleConfig struct {
	Name       string         `yaml:"name"`
	Properties map[string]any `yaml:"properties"`
}

// StoreConfig holds the seed database settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns a Config with sensible default values. The default
// collision rule blocks the GAT "blocked" cell types on all sides.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			Console: true,
		},
		Map: MapConfig{
			TileWidth:  32,
			TileHeight: 32,
		},
		Collision: []CollisionRule{
			{Indexes: []int{1, 5}, Sides: []string{"all"}},
		},
		Store: StoreConfig{
			Path: "tiles.db",
		},
	}
}

// Validate checks collision sides, role names and tile sizes.
func (c *Config) Validate() error {
	if c.Map.TileWidth < 0 || c.Map.TileHeight < 0 {
		return fmt.Errorf("%w: negative tile size %dx%d", ErrInvalidConfig, c.Map.TileWidth, c.Map.TileHeight)
	}
	for i, rule := range c.Collision {
		if _, err := tilemap.ParseSides(rule.Sides); err != nil {
			return fmt.Errorf("%w: collision rule %d: %v", ErrInvalidConfig, i, err)
		}
	}
	seen := make(map[string]bool)
	for _, r := range c.Roles {
		if r.Name == "" {
			return fmt.Errorf("%w: role without name", ErrInvalidConfig)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate role %q", ErrInvalidConfig, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// ApplyTo installs the configured roles and collision rules on a layer and
// refreshes it once.
func (c *Config) ApplyTo(l *tilemap.Layer) error {
	for _, r := range c.Roles {
		if _, err := l.AddRole(r.Name, r.Properties); err != nil {
			return fmt.Errorf("adding role: %w", err)
		}
	}
	for i, rule := range c.Collision {
		sides, err := tilemap.ParseSides(rule.Sides)
		if err != nil {
			return fmt.Errorf("collision rule %d: %w", i, err)
		}
		l.SetDefaultCollisionFlags(rule.Indexes, sides, false)
	}
	l.Refresh(false)
	return nil
}

// SeedDefaults fills in the tile size of a seed when it has none.
func (c *Config) SeedDefaults(seed *tilemap.Seed) {
	if seed.TileWidth == 0 {
		seed.TileWidth = c.Map.TileWidth
	}
	if seed.TileHeight == 0 {
		seed.TileHeight = c.Map.TileHeight
	}
}
