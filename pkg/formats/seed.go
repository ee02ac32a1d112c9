package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

// ErrUnknownSeedFormat is returned for file extensions without a loader.
var ErrUnknownSeedFormat = errors.New("unknown seed format")

// ParseSeedYAML decodes and validates a YAML seed:
//
//	name: ground
//	width: 3
//	height: 2
//	tile_width: 32
//	tile_height: 32
//	cells:
//	  - [0, 1, -1]
//	  - [1, 1, 0]
func ParseSeedYAML(data []byte) (tilemap.Seed, error) {
	var seed tilemap.Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return tilemap.Seed{}, fmt.Errorf("decoding seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return tilemap.Seed{}, err
	}
	return seed, nil
}

// MarshalSeedYAML encodes a seed with one flow-style row per line.
func MarshalSeedYAML(seed tilemap.Seed) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(seed); err != nil {
		return nil, fmt.Errorf("encoding seed: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "cells" {
			continue
		}
		for _, row := range root.Content[i+1].Content {
			row.Style = yaml.FlowStyle
		}
	}
	return yaml.Marshal(&doc)
}

// LoadSeedFile loads a seed by extension: .gat, .yaml or .yml. GAT seeds are
// named after the file.
func LoadSeedFile(path string) (tilemap.Seed, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gat":
		g, err := ParseGATFile(path)
		if err != nil {
			return tilemap.Seed{}, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return g.Seed(name, 0, 0), nil
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return tilemap.Seed{}, fmt.Errorf("reading seed file: %w", err)
		}
		seed, err := ParseSeedYAML(data)
		if err != nil {
			return tilemap.Seed{}, fmt.Errorf("%s: %w", path, err)
		}
		return seed, nil
	default:
		return tilemap.Seed{}, fmt.Errorf("%w: %s", ErrUnknownSeedFormat, path)
	}
}

// SaveSeedFile writes a seed by extension: .gat, .yaml or .yml.
func SaveSeedFile(path string, seed tilemap.Seed) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gat":
		data, err = EncodeGAT(seed)
	case ".yaml", ".yml":
		data, err = MarshalSeedYAML(seed)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSeedFormat, path)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
