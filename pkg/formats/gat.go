// Package formats loads and writes layer seeds: the initial index grids
// handed to tilemap.NewLayer.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

// GAT format errors.
var (
	ErrInvalidGATMagic       = errors.New("invalid GAT magic: expected 'GRAT'")
	ErrUnsupportedGATVersion = errors.New("unsupported GAT version")
	ErrTruncatedGATData      = errors.New("truncated GAT data")
	ErrGATIndexRange         = errors.New("tile index does not fit a GAT cell type")
)

const (
	gatMagic      = "GRAT"
	gatHeaderSize = 14
	gatCellSize   = 20
	gatMaxSide    = 4096
)

// GATCellType is the walkability type of a ground altitude cell. It is used
// directly as the tile index of a seeded layer.
type GATCellType uint32

// Cell types.
const (
	GATWalkable      GATCellType = 0
	GATBlocked       GATCellType = 1
	GATWater         GATCellType = 2
	GATWalkableWater GATCellType = 3
	GATSnipeable     GATCellType = 4
	GATBlockedSnipe  GATCellType = 5
)

// String returns a human-readable cell type name.
func (t GATCellType) String() string {
	switch t {
	case GATWalkable:
		return "Walkable"
	case GATBlocked:
		return "Blocked"
	case GATWater:
		return "Water"
	case GATWalkableWater:
		return "Walkable+Water"
	case GATSnipeable:
		return "Snipeable"
	case GATBlockedSnipe:
		return "Blocked+Snipe"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsBlocked returns true if the cell blocks movement.
func (t GATCellType) IsBlocked() bool {
	return t == GATBlocked || t == GATBlockedSnipe
}

// GATBlockingIndexes returns the tile indexes of cell types that block
// movement, for use with (*tilemap.Layer).SetDefaultCollisionFlags.
func GATBlockingIndexes() []int {
	return []int{int(GATBlocked), int(GATBlockedSnipe)}
}

// GATCell is one cell of the table: four corner heights and a type.
type GATCell struct {
	Heights [4]float32
	Type    GATCellType
}

// GAT is a parsed ground altitude table. Cells are row-major.
type GAT struct {
	Major, Minor uint8
	Width        int
	Height       int
	Cells        []GATCell
}

// Seed converts the table into a layer seed, one tile index per cell.
func (g *GAT) Seed(name string, tileWidth, tileHeight int) tilemap.Seed {
	cells := make([][]int, g.Height)
	for y := range cells {
		row := make([]int, g.Width)
		for x := range row {
			row[x] = int(g.Cells[y*g.Width+x].Type)
		}
		cells[y] = row
	}
	return tilemap.Seed{
		Name:       name,
		Width:      g.Width,
		Height:     g.Height,
		TileWidth:  tileWidth,
		TileHeight: tileHeight,
		Cells:      cells,
	}
}

// ParseGAT parses a GAT file from raw bytes.
func ParseGAT(data []byte) (*GAT, error) {
	if len(data) < gatHeaderSize {
		return nil, ErrTruncatedGATData
	}
	if string(data[:4]) != gatMagic {
		return nil, ErrInvalidGATMagic
	}

	// Version bytes are stored minor first.
	g := &GAT{Minor: data[4], Major: data[5]}
	if g.Major < 1 || g.Major > 3 {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedGATVersion, g.Major, g.Minor)
	}

	w := binary.LittleEndian.Uint32(data[6:10])
	h := binary.LittleEndian.Uint32(data[10:14])
	if w == 0 || h == 0 || w > gatMaxSide || h > gatMaxSide {
		return nil, fmt.Errorf("%w: %dx%d", tilemap.ErrInvalidDimensions, w, h)
	}
	g.Width, g.Height = int(w), int(h)

	g.Cells = make([]GATCell, g.Width*g.Height)
	if err := binary.Read(bytes.NewReader(data[gatHeaderSize:]), binary.LittleEndian, g.Cells); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d cells", ErrTruncatedGATData, len(g.Cells))
		}
		return nil, fmt.Errorf("reading GAT cells: %w", err)
	}

	return g, nil
}

// ParseGATFile parses a GAT file from disk.
func ParseGATFile(path string) (*GAT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GAT file: %w", err)
	}
	return ParseGAT(data)
}

// EncodeGAT writes a seed as a version 1.2 GAT with flat heights. Empty
// cells are written as blocked.
func EncodeGAT(seed tilemap.Seed) ([]byte, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, gatHeaderSize+seed.Width*seed.Height*gatCellSize)
	buf = append(buf, gatMagic...)
	buf = append(buf, 2, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(seed.Width))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(seed.Height))

	for y := 0; y < seed.Height; y++ {
		for x := 0; x < seed.Width; x++ {
			t := GATBlocked
			if seed.Cells != nil && seed.Cells[y][x] >= 0 {
				v := uint64(seed.Cells[y][x])
				if v > math.MaxUint32 {
					return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrGATIndexRange, v, x, y)
				}
				t = GATCellType(v)
			}
			for range 4 {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(0))
			}
			buf = binary.LittleEndian.AppendUint32(buf, uint32(t))
		}
	}

	return buf, nil
}
