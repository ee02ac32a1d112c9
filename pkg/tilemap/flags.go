// Package tilemap provides the tile-layer data model: a grid of tiles with
// per-index rules, per-layer roles, and collision face derivation.
package tilemap

import (
	"errors"
	"fmt"
	"strings"
)

// Flags is the packed per-tile bitmask.
type Flags uint16

// Tile flag bits. Face bits sit exactly four bits above the matching
// collide bits so that a collide mask converts with mask<<faceShift.
const (
	CollideUp Flags = 1 << iota
	CollideDown
	CollideLeft
	CollideRight
	FaceTop
	FaceBottom
	FaceLeft
	FaceRight
	HasCollisionTest
	HasRole
	Debug
)

const faceShift = 4

// Flag groups.
const (
	CollideNone Flags = 0
	CollideAll        = CollideUp | CollideDown | CollideLeft | CollideRight
	FaceAll           = FaceTop | FaceBottom | FaceLeft | FaceRight

	collideFaceMask = CollideAll | FaceAll
)

// ErrUnknownSide is returned by ParseSides for an unrecognized side name.
var ErrUnknownSide = errors.New("unknown collision side")

// WithFaces returns the collide bits of f together with their face bits.
func WithFaces(f Flags) Flags {
	f &= CollideAll
	return f | f<<faceShift
}

// String lists the set bits, e.g. "collide:up|left face:top".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	names := []struct {
		bit  Flags
		name string
	}{
		{CollideUp, "collide:up"},
		{CollideDown, "collide:down"},
		{CollideLeft, "collide:left"},
		{CollideRight, "collide:right"},
		{FaceTop, "face:top"},
		{FaceBottom, "face:bottom"},
		{FaceLeft, "face:left"},
		{FaceRight, "face:right"},
		{HasCollisionTest, "test"},
		{HasRole, "role"},
		{Debug, "debug"},
	}
	for _, n := range names {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseSides converts side names (up, down, left, right, all, none) into
// collide bits. Names are case-insensitive.
func ParseSides(sides []string) (Flags, error) {
	var f Flags
	for _, s := range sides {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "up", "top":
			f |= CollideUp
		case "down", "bottom":
			f |= CollideDown
		case "left":
			f |= CollideLeft
		case "right":
			f |= CollideRight
		case "all":
			f |= CollideAll
		case "none", "":
		default:
			return 0, fmt.Errorf("%w: %q", ErrUnknownSide, s)
		}
	}
	return f, nil
}
