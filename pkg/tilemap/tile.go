package tilemap

// Verdict is the result of a collision test.
type Verdict uint8

// Collision test verdicts. Only Block stops a collider.
const (
	Pass Verdict = iota // no test installed
	Allow
	Block
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Allow:
		return "allow"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Blocks reports whether the verdict stops the collider.
func (v Verdict) Blocks() bool {
	return v == Block
}

// CollisionFunc is a custom collision test. ctx is the value supplied when
// the test was installed.
type CollisionFunc func(collider any, tile *Tile, ctx any) Verdict

type collisionTest struct {
	fn  CollisionFunc
	ctx any
}

// tileExt holds rarely used fields. A nil *tileExt behaves exactly like an
// empty one.
type tileExt struct {
	test       *collisionTest
	properties map[string]any

	indexProps  map[string]any
	indexCached bool
	indexGen    int
	roleProps   map[string]any
	roleCached  bool
}

func (e *tileExt) empty() bool {
	return e.test == nil && e.properties == nil && !e.indexCached && !e.roleCached
}

// Tile is one cell's data. A Tile is either the live object stored in a
// layer's grid or an independent copy extracted from it.
//
// X and Y are the grid coordinates the tile was extracted from. Alpha is in
// [0,1].
type Tile struct {
	X, Y  int
	Alpha float64

	layer *Layer
	index int
	role  int
	flags Flags
	ext   *tileExt
}

// NewTile returns a detached, non-existent tile. It is useful as a reusable
// target for (*Layer).CopyToTile.
func NewTile() *Tile {
	return &Tile{index: -1, Alpha: 1}
}

func newTile(layer *Layer, x, y int) *Tile {
	return &Tile{X: x, Y: y, Alpha: 1, layer: layer, index: -1}
}

// Layer returns the layer the tile belongs to, or nil for a detached tile.
func (t *Tile) Layer() *Layer { return t.layer }

// Index returns the tile index; negative means the cell is empty.
func (t *Tile) Index() int { return t.index }

// Exists reports whether the tile holds a non-negative index.
func (t *Tile) Exists() bool { return t.index >= 0 }

// Role returns the role id (0 means no role).
func (t *Tile) Role() int { return t.role }

// Flags returns the raw flag bits.
func (t *Tile) Flags() Flags { return t.flags }

// SetFlags replaces the raw flag bits.
func (t *Tile) SetFlags(f Flags) { t.flags = f }

// SetFlag sets or clears the given bits.
func (t *Tile) SetFlag(f Flags, on bool) {
	if on {
		t.flags |= f
	} else {
		t.flags &^= f
	}
}

// Has reports whether any of the given bits are set.
func (t *Tile) Has(f Flags) bool { return t.flags&f != 0 }

// Collides reports whether any collide bit is set.
func (t *Tile) Collides() bool { return t.flags&CollideAll != 0 }

// HasFace reports whether any face bit is set.
func (t *Tile) HasFace() bool { return t.flags&FaceAll != 0 }

// SetCollision replaces the collide bits and resets the faces to match.
// Neighbor culling is redone by the next face calculation.
func (t *Tile) SetCollision(sides Flags) {
	t.flags = t.flags&^collideFaceMask | WithFaces(sides)
}

// IsInteresting reports whether the tile has collide bits (when
// wantCollides) or face bits (when wantFaces).
func (t *Tile) IsInteresting(wantCollides, wantFaces bool) bool {
	return (wantCollides && t.Collides()) || (wantFaces && t.HasFace())
}

// SetIndex assigns a new index. A negative index resets the tile. On a real
// change the index property cache is dropped and the owning layer's default
// rules for the new index are applied.
func (t *Tile) SetIndex(index int) {
	if index < 0 {
		t.Reset()
		return
	}
	if index == t.index {
		return
	}
	t.index = index
	if t.ext != nil {
		t.ext.indexProps = nil
		t.ext.indexCached = false
	}
	if t.layer != nil {
		t.layer.applyDefaultTileRules(t)
	}
}

// SetRole assigns a role id. Role 0 clears the role.
func (t *Tile) SetRole(role int) {
	if role < 0 {
		role = 0
	}
	if role == t.role {
		return
	}
	t.role = role
	t.SetFlag(HasRole, role != 0)
	if t.ext != nil {
		t.ext.roleProps = nil
		t.ext.roleCached = false
	}
}

// Reset marks the tile non-existent in place and drops its extension data.
// The object itself stays usable.
func (t *Tile) Reset() {
	t.index = -1
	t.role = 0
	t.flags = 0
	t.Alpha = 1
	t.ext = nil
}

// CopyFrom copies index, role, alpha, flags and extension data from src.
// Per-location properties are shared with src unless disconnect is set or
// the two tiles sit at different coordinates, in which case they are deep
// cloned. Index and role property caches are always shared.
func (t *Tile) CopyFrom(src *Tile, disconnect bool) {
	if src == nil {
		t.Reset()
		return
	}
	if src == t {
		return
	}
	t.index = src.index
	t.role = src.role
	t.Alpha = src.Alpha
	t.flags = src.flags
	if t.layer == nil {
		t.layer = src.layer
	}
	if src.ext == nil {
		t.ext = nil
		return
	}

	ext := *src.ext
	if disconnect || t.X != src.X || t.Y != src.Y {
		ext.properties = cloneProperties(src.ext.properties)
	}
	if t.layer != src.layer {
		ext.indexProps, ext.indexCached = nil, false
		ext.roleProps, ext.roleCached = nil, false
	}
	if ext.empty() {
		t.ext = nil
		return
	}
	t.ext = &ext
}

// Clone returns an independent copy with its own per-location properties.
func (t *Tile) Clone() *Tile {
	c := &Tile{X: t.X, Y: t.Y, layer: t.layer}
	c.CopyFrom(t, true)
	return c
}

func (t *Tile) extension() *tileExt {
	if t.ext == nil {
		t.ext = &tileExt{}
	}
	return t.ext
}

// SetCollisionTest installs a custom collision test on this tile. A nil fn
// removes it.
func (t *Tile) SetCollisionTest(fn CollisionFunc, ctx any) {
	if fn == nil {
		if t.ext != nil {
			t.ext.test = nil
			if t.ext.empty() {
				t.ext = nil
			}
		}
		t.flags &^= HasCollisionTest
		return
	}
	t.extension().test = &collisionTest{fn: fn, ctx: ctx}
	t.flags |= HasCollisionTest
}

// DoCollisionTest runs the tile's custom test, or returns Pass when none is
// installed.
func (t *Tile) DoCollisionTest(collider any) Verdict {
	if t.ext == nil || t.ext.test == nil {
		return Pass
	}
	return t.ext.test.fn(collider, t, t.ext.test.ctx)
}

// Properties returns the per-location properties. The map may be nil and
// must not be modified directly; use SetProperty.
func (t *Tile) Properties() map[string]any {
	if t.ext == nil {
		return nil
	}
	return t.ext.properties
}

// Property returns a per-location property.
func (t *Tile) Property(key string) (any, bool) {
	if t.ext == nil || t.ext.properties == nil {
		return nil, false
	}
	v, ok := t.ext.properties[key]
	return v, ok
}

// SetProperty stores a per-location property.
func (t *Tile) SetProperty(key string, value any) {
	ext := t.extension()
	if ext.properties == nil {
		ext.properties = make(map[string]any)
	}
	ext.properties[key] = value
}

// IndexProperties returns the shared properties of the tile's index rule.
// The cached reference is checked against the layer's property generation,
// so copies see SetIndexProperties changes as well as stored tiles.
func (t *Tile) IndexProperties() map[string]any {
	if t.layer == nil {
		return nil
	}
	if t.ext != nil && t.ext.indexCached && t.ext.indexGen == t.layer.propsGeneration {
		return t.ext.indexProps
	}
	rule := t.layer.IndexRule(t.index)
	if rule == nil || rule.Properties == nil {
		if t.ext != nil {
			t.ext.indexProps, t.ext.indexCached = nil, false
		}
		return nil
	}
	ext := t.extension()
	ext.indexProps, ext.indexCached, ext.indexGen = rule.Properties, true, t.layer.propsGeneration
	return rule.Properties
}

// RoleProperties returns the shared properties of the tile's role.
func (t *Tile) RoleProperties() map[string]any {
	if t.ext != nil && t.ext.roleCached {
		return t.ext.roleProps
	}
	if t.layer == nil || t.role == 0 {
		return nil
	}
	role := t.layer.Role(t.role)
	if role == nil || role.Properties == nil {
		return nil
	}
	ext := t.extension()
	ext.roleProps, ext.roleCached = role.Properties, true
	return role.Properties
}

func cloneProperties(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneProperties(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
