package tilemap

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
)

// Tilemap errors.
var (
	ErrLayerBound     = errors.New("layer already bound to a tilemap")
	ErrDuplicateLayer = errors.New("duplicate layer name")
	ErrNilLayer       = errors.New("nil layer")
)

// Option configures a Tilemap.
type Option func(*Tilemap)

// WithRand sets the random source used by Random and Shuffle.
func WithRand(rng *rand.Rand) Option {
	return func(m *Tilemap) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithMapLogger sets the tilemap logger.
func WithMapLogger(log *zap.Logger) Option {
	return func(m *Tilemap) {
		if log != nil {
			m.log = log
		}
	}
}

// Tilemap owns a set of layers and provides region algorithms on top of
// (*Layer).TransformRegion.
type Tilemap struct {
	layers []*Layer
	byName map[string]*Layer
	rng    *rand.Rand
	log    *zap.Logger
}

// New creates an empty tilemap.
func New(opts ...Option) *Tilemap {
	m := &Tilemap{
		byName: make(map[string]*Layer),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddLayer binds a layer to the tilemap. A layer can be bound only once.
func (m *Tilemap) AddLayer(l *Layer) error {
	if l == nil {
		return ErrNilLayer
	}
	if l.owner != nil {
		return fmt.Errorf("%w: %q", ErrLayerBound, l.name)
	}
	if _, ok := m.byName[l.name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, l.name)
	}
	l.owner = m
	m.layers = append(m.layers, l)
	m.byName[l.name] = l
	m.log.Info("layer added",
		zap.String("layer", l.name),
		zap.Int("width", l.width),
		zap.Int("height", l.height))
	return nil
}

// Layer returns the layer with the given name, or nil.
func (m *Tilemap) Layer(name string) *Layer {
	return m.byName[name]
}

// Layers returns the layers in the order they were added.
func (m *Tilemap) Layers() []*Layer {
	return slices.Clone(m.layers)
}

// Refresh refreshes every layer.
func (m *Tilemap) Refresh(force bool) {
	for _, l := range m.layers {
		l.Refresh(force)
	}
}

// Fill sets the index of every cell in r, creating missing tiles.
func (m *Tilemap) Fill(l *Layer, index int, r Rect) error {
	return l.TransformRegion(r, func(tiles []*Tile) error {
		for _, t := range tiles {
			t.SetIndex(index)
		}
		return nil
	}, true)
}

// Swap exchanges indexes a and b in r.
func (m *Tilemap) Swap(l *Layer, a, b int, r Rect) error {
	return l.TransformRegion(r, func(tiles []*Tile) error {
		for _, t := range tiles {
			if t == nil {
				continue
			}
			switch t.index {
			case a:
				t.SetIndex(b)
			case b:
				t.SetIndex(a)
			}
		}
		return nil
	}, false)
}

// Replace changes index src to dst in r.
func (m *Tilemap) Replace(l *Layer, src, dst int, r Rect) error {
	return l.TransformRegion(r, func(tiles []*Tile) error {
		for _, t := range tiles {
			if t != nil && t.index == src {
				t.SetIndex(dst)
			}
		}
		return nil
	}, false)
}

// Random gives every existing tile in r an index drawn uniformly from the
// distinct positive indexes found in r.
func (m *Tilemap) Random(l *Layer, r Rect) error {
	return l.TransformRegion(r, func(tiles []*Tile) error {
		seen := make(map[int]bool)
		var palette []int
		for _, t := range tiles {
			if t == nil || t.index <= 0 || seen[t.index] {
				continue
			}
			seen[t.index] = true
			palette = append(palette, t.index)
		}
		if len(palette) == 0 {
			return nil
		}
		for _, t := range tiles {
			if t != nil && t.index >= 0 {
				t.SetIndex(palette[m.rng.IntN(len(palette))])
			}
		}
		return nil
	}, false)
}

// Shuffle permutes the indexes of the existing tiles in r. The multiset of
// indexes is unchanged.
func (m *Tilemap) Shuffle(l *Layer, r Rect) error {
	return l.TransformRegion(r, func(tiles []*Tile) error {
		var existing []*Tile
		var indexes []int
		for _, t := range tiles {
			if t == nil || t.index < 0 {
				continue
			}
			existing = append(existing, t)
			indexes = append(indexes, t.index)
		}
		m.rng.Shuffle(len(indexes), func(i, j int) {
			indexes[i], indexes[j] = indexes[j], indexes[i]
		})
		for i, t := range existing {
			t.SetIndex(indexes[i])
		}
		return nil
	}, false)
}
