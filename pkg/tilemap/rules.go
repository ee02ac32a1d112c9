package tilemap

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Role errors.
var (
	ErrDuplicateRole = errors.New("duplicate role name")
	ErrEmptyRoleName = errors.New("empty role name")
)

// IndexRule holds the behaviour shared by every tile with a given index.
type IndexRule struct {
	Index int

	// DefaultCollide already carries the face bits derived from the
	// collide bits. It only applies when HasDefaultCollide is set.
	DefaultCollide    Flags
	HasDefaultCollide bool

	CollisionTest    CollisionFunc
	CollisionContext any

	Properties map[string]any
}

// Role is a named per-layer classification shared by tiles.
type Role struct {
	ID         int
	Name       string
	Properties map[string]any
}

func (l *Layer) rule(index int) *IndexRule {
	r := l.rules[index]
	if r == nil {
		r = &IndexRule{Index: index}
		l.rules[index] = r
	}
	return r
}

// IndexRule returns the rule for index, or nil if none was configured.
func (l *Layer) IndexRule(index int) *IndexRule {
	return l.rules[index]
}

// SetDefaultCollisionFlags makes every tile with one of the given indexes
// collide on the given sides. Face bits are derived automatically. With
// applyImmediately the layer is refreshed once after all indexes are set.
func (l *Layer) SetDefaultCollisionFlags(indexes []int, sides Flags, applyImmediately bool) {
	mask := WithFaces(sides)
	for _, index := range indexes {
		if index < 0 {
			continue
		}
		r := l.rule(index)
		r.DefaultCollide = mask
		r.HasDefaultCollide = true
		l.ruleChangeCount++
	}
	l.log.Debug("default collision set",
		zap.String("layer", l.name),
		zap.Ints("indexes", indexes),
		zap.Stringer("flags", mask))
	if applyImmediately {
		l.Refresh(false)
	}
}

// SetIndexCollisionTest installs a collision test for every tile with one
// of the given indexes. A nil fn removes it.
func (l *Layer) SetIndexCollisionTest(indexes []int, fn CollisionFunc, ctx any) {
	for _, index := range indexes {
		if index < 0 {
			continue
		}
		r := l.rule(index)
		r.CollisionTest = fn
		r.CollisionContext = ctx
	}
}

// SetIndexProperties replaces the shared properties of an index.
func (l *Layer) SetIndexProperties(index int, props map[string]any) {
	if index < 0 {
		return
	}
	l.rule(index).Properties = props
	l.propsGeneration++
}

// DoTileIndexCollisionTest runs the index rule's collision test for tile.
// Returns Pass when no test is configured.
func (l *Layer) DoTileIndexCollisionTest(tile *Tile, collider any) Verdict {
	if tile == nil {
		return Pass
	}
	r := l.rules[tile.index]
	if r == nil || r.CollisionTest == nil {
		return Pass
	}
	return r.CollisionTest(collider, tile, r.CollisionContext)
}

// applyDefaultTileRules forces the default collide bits of the tile's
// current index. Tiles whose index has no default keep their flags.
func (l *Layer) applyDefaultTileRules(t *Tile) {
	r := l.rules[t.index]
	if r == nil || !r.HasDefaultCollide {
		return
	}
	t.flags = t.flags&^collideFaceMask | r.DefaultCollide
}

// AddRole registers a new role and returns it. Role ids start at 1.
func (l *Layer) AddRole(name string, props map[string]any) (*Role, error) {
	if name == "" {
		return nil, ErrEmptyRoleName
	}
	if _, ok := l.roleNames[name]; ok {
		return nil, fmt.Errorf("%w: %q in layer %q", ErrDuplicateRole, name, l.name)
	}
	r := &Role{ID: len(l.roles), Name: name, Properties: props}
	l.roles = append(l.roles, r)
	l.roleNames[name] = r
	return r, nil
}

// Role returns the role with the given id, or nil.
func (l *Layer) Role(id int) *Role {
	if id <= 0 || id >= len(l.roles) {
		return nil
	}
	return l.roles[id]
}

// RoleByName returns the role with the given name, or nil.
func (l *Layer) RoleByName(name string) *Role {
	return l.roleNames[name]
}

// Roles returns all registered roles ordered by id.
func (l *Layer) Roles() []*Role {
	out := make([]*Role, 0, len(l.roles)-1)
	return append(out, l.roles[1:]...)
}
