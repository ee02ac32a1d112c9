package formats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

const testSeedYAML = `
name: ground
width: 3
height: 2
tile_width: 16
tile_height: 16
cells:
  - [0, 1, -1]
  - [1, 1, 0]
`

func TestParseSeedYAML(t *testing.T) {
	seed, err := ParseSeedYAML([]byte(testSeedYAML))
	if err != nil {
		t.Fatalf("ParseSeedYAML failed: %v", err)
	}

	if seed.Name != "ground" || seed.Width != 3 || seed.Height != 2 || seed.TileWidth != 16 {
		t.Errorf("unexpected header: %+v", seed)
	}
	if seed.Cells[0][2] != -1 || seed.Cells[1][0] != 1 {
		t.Errorf("unexpected cells: %v", seed.Cells)
	}
}

func TestParseSeedYAML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"bad dimensions", "width: 0\nheight: 2\n", tilemap.ErrInvalidDimensions},
		{"short row", "width: 2\nheight: 1\ncells:\n  - [1]\n", tilemap.ErrSeedMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSeedYAML([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := ParseSeedYAML([]byte("cells: {")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestMarshalSeedYAML(t *testing.T) {
	seed, _ := ParseSeedYAML([]byte(testSeedYAML))

	data, err := MarshalSeedYAML(seed)
	if err != nil {
		t.Fatalf("MarshalSeedYAML failed: %v", err)
	}
	if !strings.Contains(string(data), "- [0, 1, -1]") {
		t.Errorf("expected flow-style rows, got:\n%s", data)
	}

	back, err := ParseSeedYAML(data)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if back.Cells[1][2] != 0 || back.TileHeight != 16 {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestSeedFiles(t *testing.T) {
	dir := t.TempDir()
	seed, _ := ParseSeedYAML([]byte(testSeedYAML))

	for _, name := range []string{"ground.yaml", "ground.yml", "ground.gat"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := SaveSeedFile(path, seed); err != nil {
				t.Fatalf("SaveSeedFile failed: %v", err)
			}
			loaded, err := LoadSeedFile(path)
			if err != nil {
				t.Fatalf("LoadSeedFile failed: %v", err)
			}
			if loaded.Name != "ground" || loaded.Width != 3 || loaded.Cells[1][1] != 1 {
				t.Errorf("unexpected seed: %+v", loaded)
			}
		})
	}
}

func TestSeedFiles_UnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ground.csv")
	if err := os.WriteFile(path, []byte("0,1"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSeedFile(path); !errors.Is(err, ErrUnknownSeedFormat) {
		t.Errorf("expected ErrUnknownSeedFormat, got %v", err)
	}
	if err := SaveSeedFile(path, tilemap.Seed{Width: 1, Height: 1}); !errors.Is(err, ErrUnknownSeedFormat) {
		t.Errorf("expected ErrUnknownSeedFormat, got %v", err)
	}
}
