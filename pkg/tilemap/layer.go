package tilemap

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Layer errors.
var (
	ErrInvalidDimensions = errors.New("invalid layer dimensions")
	ErrSeedMismatch      = errors.New("seed cells do not match layer dimensions")
)

// Seed is the initial content of a layer as produced by a loader. Cells is
// row-major: Height rows of Width indexes, -1 for an empty cell. A nil Cells
// slice seeds an empty layer.
type Seed struct {
	Name       string  `yaml:"name"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	TileWidth  int     `yaml:"tile_width"`
	TileHeight int     `yaml:"tile_height"`
	Cells      [][]int `yaml:"cells"`
}

// Validate checks dimensions and the shape of Cells.
func (s Seed) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, s.Width, s.Height)
	}
	if s.Cells == nil {
		return nil
	}
	if len(s.Cells) != s.Height {
		return fmt.Errorf("%w: %d rows, want %d", ErrSeedMismatch, len(s.Cells), s.Height)
	}
	for y, row := range s.Cells {
		if len(row) != s.Width {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrSeedMismatch, y, len(row), s.Width)
		}
	}
	return nil
}

// RefreshStats counts how many refresh passes actually did work.
type RefreshStats struct {
	RulePasses int
	FacePasses int
}

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithLogger sets the logger used for refresh diagnostics.
func WithLogger(log *zap.Logger) LayerOption {
	return func(l *Layer) {
		if log != nil {
			l.log = log
		}
	}
}

// Layer is a fixed-size grid of tiles with index rules, roles and the
// rule/face refresh engine.
//
// Layer is not safe for concurrent use. Tiles returned by TileRef and the
// slices handed to region callbacks alias grid storage and are valid only
// until the next mutating call.
type Layer struct {
	name       string
	width      int
	height     int
	tileWidth  int
	tileHeight int

	grid [][]*Tile

	rules     map[int]*IndexRule
	roles     []*Role // roles[0] is reserved
	roleNames map[string]*Role

	// changeCount and ruleChangeCount only ever increase.
	changeCount     int
	ruleChangeCount int
	lastRuleApplyAt int
	lastFaceCalcAt  int
	suppressRefresh bool

	// propsGeneration is bumped by SetIndexProperties; cached index
	// properties from an older generation are stale.
	propsGeneration int

	stats RefreshStats
	owner *Tilemap
	log   *zap.Logger
}

// NewLayer builds a layer from a seed.
func NewLayer(seed Seed, opts ...LayerOption) (*Layer, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	l := &Layer{
		name:            seed.Name,
		width:           seed.Width,
		height:          seed.Height,
		tileWidth:       seed.TileWidth,
		tileHeight:      seed.TileHeight,
		grid:            make([][]*Tile, seed.Height),
		rules:           make(map[int]*IndexRule),
		roles:           []*Role{nil},
		roleNames:       make(map[string]*Role),
		lastRuleApplyAt: -1,
		lastFaceCalcAt:  -1,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	for y := range l.grid {
		l.grid[y] = make([]*Tile, seed.Width)
		if seed.Cells == nil {
			continue
		}
		for x, index := range seed.Cells[y] {
			if index < 0 {
				continue
			}
			t := newTile(l, x, y)
			t.index = index
			l.grid[y][x] = t
		}
	}

	return l, nil
}

// Name returns the layer name.
func (l *Layer) Name() string { return l.name }

// Width returns the width in cells.
func (l *Layer) Width() int { return l.width }

// Height returns the height in cells.
func (l *Layer) Height() int { return l.height }

// TileWidth returns the tile width in pixels.
func (l *Layer) TileWidth() int { return l.tileWidth }

// TileHeight returns the tile height in pixels.
func (l *Layer) TileHeight() int { return l.tileHeight }

// Tilemap returns the owning tilemap, or nil if the layer is unbound.
func (l *Layer) Tilemap() *Tilemap { return l.owner }

// ChangeCount returns the generation counter bumped by every cell mutation.
func (l *Layer) ChangeCount() int { return l.changeCount }

// RuleChangeCount returns the generation counter bumped by rule changes.
func (l *Layer) RuleChangeCount() int { return l.ruleChangeCount }

// Stats returns the refresh pass counters.
func (l *Layer) Stats() RefreshStats { return l.stats }

func (l *Layer) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.width && y < l.height
}

// EnsureTile returns the stored tile at (x, y), allocating a non-existent
// one if the slot is empty. Returns nil out of bounds.
func (l *Layer) EnsureTile(x, y int) *Tile {
	if !l.inBounds(x, y) {
		return nil
	}
	t := l.grid[y][x]
	if t == nil {
		t = newTile(l, x, y)
		l.grid[y][x] = t
	}
	return t
}

// CellOption sets optional fields in SetCell.
type CellOption func(*Tile)

// WithRole sets the role id of the cell.
func WithRole(role int) CellOption {
	return func(t *Tile) { t.SetRole(role) }
}

// WithAlpha sets the alpha of the cell.
func WithAlpha(alpha float64) CellOption {
	return func(t *Tile) { t.Alpha = alpha }
}

// SetCell writes an index into (x, y). A negative index clears the cell.
// Default rules are applied for the new index when it differs from the
// stored one.
func (l *Layer) SetCell(x, y, index int, opts ...CellOption) {
	if index < 0 {
		l.ClearCell(x, y)
		return
	}
	t := l.EnsureTile(x, y)
	if t == nil {
		return
	}
	if t.index != index {
		t.index = index
		if t.ext != nil {
			t.ext.indexProps, t.ext.indexCached = nil, false
		}
		l.applyDefaultTileRules(t)
	}
	for _, opt := range opts {
		opt(t)
	}
	l.changeCount++
}

// SetCellFromTile copies src into the stored tile at (x, y). A nil or
// non-existent src clears the cell.
func (l *Layer) SetCellFromTile(x, y int, src *Tile) {
	if src == nil || src.index < 0 {
		l.ClearCell(x, y)
		return
	}
	t := l.EnsureTile(x, y)
	if t == nil {
		return
	}
	t.CopyFrom(src, false)
	l.changeCount++
}

// ClearCell removes the tile at (x, y).
func (l *Layer) ClearCell(x, y int) {
	if !l.inBounds(x, y) {
		return
	}
	l.grid[y][x] = nil
	l.changeCount++
}

// HasCell reports whether (x, y) holds a tile with a non-negative index.
func (l *Layer) HasCell(x, y int) bool {
	if !l.inBounds(x, y) {
		return false
	}
	t := l.grid[y][x]
	return t != nil && t.index >= 0
}

// TileRef returns the live stored tile at (x, y), or nil. The returned tile
// may be recycled by later calls and must not be retained.
func (l *Layer) TileRef(x, y int) *Tile {
	if !l.inBounds(x, y) {
		return nil
	}
	return l.grid[y][x]
}

// TileCopy returns a fresh tile holding the data of (x, y). An empty cell
// yields a fresh non-existent tile when forceMaterialize is set and nil
// otherwise.
func (l *Layer) TileCopy(x, y int, forceMaterialize bool) *Tile {
	if !l.inBounds(x, y) {
		return nil
	}
	stored := l.grid[y][x]
	if stored == nil {
		if forceMaterialize {
			return newTile(l, x, y)
		}
		return nil
	}
	t := newTile(l, x, y)
	t.CopyFrom(stored, false)
	return t
}

// CopyToTile writes the data of (x, y) into target without allocating.
// Returns nil only when (x, y) is out of range.
func (l *Layer) CopyToTile(x, y int, target *Tile) *Tile {
	if !l.inBounds(x, y) || target == nil {
		return nil
	}
	target.X, target.Y = x, y
	if target.layer == nil {
		target.layer = l
	}
	stored := l.grid[y][x]
	if stored == nil {
		target.Reset()
		return target
	}
	target.CopyFrom(stored, false)
	return target
}

// Seed exports the current index grid.
func (l *Layer) Seed() Seed {
	cells := make([][]int, l.height)
	for y, row := range l.grid {
		cells[y] = make([]int, l.width)
		for x, t := range row {
			if t == nil || t.index < 0 {
				cells[y][x] = -1
				continue
			}
			cells[y][x] = t.index
		}
	}
	return Seed{
		Name:       l.name,
		Width:      l.width,
		Height:     l.height,
		TileWidth:  l.tileWidth,
		TileHeight: l.tileHeight,
		Cells:      cells,
	}
}

// Count returns the number of existing cells.
func (l *Layer) Count() int {
	n := 0
	for _, row := range l.grid {
		for _, t := range row {
			if t != nil && t.index >= 0 {
				n++
			}
		}
	}
	return n
}
