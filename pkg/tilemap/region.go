package tilemap

import (
	"fmt"
	"math"
)

// Rect is a rectangle in tile coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Area returns Width*Height, or 0 for an empty rectangle. It saturates at
// math.MaxInt.
func (r Rect) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	if r.Width > math.MaxInt/r.Height {
		return math.MaxInt
	}
	return r.Width * r.Height
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool { return r.Area() == 0 }

// String returns "x,y wxh".
func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// RegionFunc edits the tiles of a region in place. Entries are nil for empty
// cells unless the region was materialized.
type RegionFunc func(tiles []*Tile) error

// Snapshot is an independent copy of a region.
type Snapshot struct {
	Layer *Layer
	Rect  Rect
	Tiles []*Tile
}

// FitRect clips r to the layer bounds. A negative origin shrinks the size by
// the amount clipped. Comparisons avoid X+Width so huge sizes clip too.
func (l *Layer) FitRect(r Rect) Rect {
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.Width > l.width-r.X {
		r.Width = l.width - r.X
	}
	if r.Height > l.height-r.Y {
		r.Height = l.height - r.Y
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// Tiles fills buf with one entry per cell of the clipped region in row-major
// order and returns it. Empty cells are nil unless forceMaterialize is set,
// in which case they are fresh non-existent tiles. Stored tiles are returned
// live unless forceCopy is set.
func (l *Layer) Tiles(r Rect, buf []*Tile, forceMaterialize, forceCopy bool) []*Tile {
	r = l.FitRect(r)
	buf = buf[:0]
	for y := r.Y; y < r.Y+r.Height; y++ {
		row := l.grid[y]
		for x := r.X; x < r.X+r.Width; x++ {
			t := row[x]
			switch {
			case t == nil && forceMaterialize:
				t = newTile(l, x, y)
			case t != nil && forceCopy:
				t = t.Clone()
			}
			buf = append(buf, t)
		}
	}
	return buf
}

// ExistingTiles fills buf with the live existing tiles of the clipped region
// that have any of the bits in anyFlagMask set.
func (l *Layer) ExistingTiles(r Rect, buf []*Tile, anyFlagMask Flags) []*Tile {
	r = l.FitRect(r)
	buf = buf[:0]
	for y := r.Y; y < r.Y+r.Height; y++ {
		row := l.grid[y]
		for x := r.X; x < r.X+r.Width; x++ {
			t := row[x]
			if t == nil || t.index < 0 || t.flags&anyFlagMask == 0 {
				continue
			}
			buf = append(buf, t)
		}
	}
	return buf
}

// TransformRegion runs fn once over the live tiles of the clipped region,
// writes every non-nil tile back to its coordinates and refreshes the layer.
//
// Setting a tile's index to -1 deletes the cell on write-back. When fn
// returns an error the write-back and refresh are skipped and the error is
// returned; edits already made to live tiles stay in place.
func (l *Layer) TransformRegion(r Rect, fn RegionFunc, forceMaterialize bool) error {
	tiles := l.Tiles(r, nil, forceMaterialize, false)
	if err := fn(tiles); err != nil {
		return fmt.Errorf("transforming region %s of layer %q: %w", l.FitRect(r), l.name, err)
	}
	for _, t := range tiles {
		if t == nil {
			continue
		}
		l.SetCellFromTile(t.X, t.Y, t)
	}
	l.Refresh(false)
	return nil
}

// CopyTiles snapshots the clipped region. The copies do not change when the
// layer is edited later.
func (l *Layer) CopyTiles(r Rect, buf []*Tile, forceMaterialize bool) *Snapshot {
	r = l.FitRect(r)
	return &Snapshot{
		Layer: l,
		Rect:  r,
		Tiles: l.Tiles(r, buf, forceMaterialize, true),
	}
}

// PasteTiles writes a snapshot back where it was taken.
func (l *Layer) PasteTiles(s *Snapshot) bool {
	if s == nil {
		return false
	}
	return l.PasteTilesAt(s, s.Rect.X, s.Rect.Y, 0)
}

// PasteTilesAt writes a snapshot with its top-left corner at (x, y),
// reading snapshot tiles from position offset on. Destination cells outside
// the layer are skipped. The layer is refreshed once at the end. Returns
// true only when every cell of the block landed inside the layer.
func (l *Layer) PasteTilesAt(s *Snapshot, x, y, offset int) bool {
	if s == nil || offset < 0 {
		return false
	}
	w, h := s.Rect.Width, s.Rect.Height
	pasted := 0
rows:
	for row := 0; row < h && w > 0; row++ {
		for col := 0; col < w; col++ {
			i := offset + row*w + col
			if i >= len(s.Tiles) {
				break rows
			}
			dx, dy := x+col, y+row
			if !l.inBounds(dx, dy) {
				continue
			}
			l.SetCellFromTile(dx, dy, s.Tiles[i])
			pasted++
		}
	}
	l.Refresh(false)
	return pasted == s.Rect.Area()
}
