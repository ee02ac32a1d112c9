// Package navigation finds paths across a tile layer's collision flags.
package navigation

import (
	"container/heap"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

// PathNode represents a node in the A* search.
type PathNode struct {
	X, Y   int
	G      float32 // Cost from start
	H      float32 // Estimated cost to goal
	F      float32 // G + H
	Parent *PathNode
	Index  int // Index in heap
}

// PathHeap implements a priority queue for A*.
type PathHeap []*PathNode

func (h PathHeap) Len() int           { return len(h) }
func (h PathHeap) Less(i, j int) bool { return h[i].F < h[j].F }
func (h PathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *PathHeap) Push(x any) {
	node := x.(*PathNode)
	node.Index = len(*h)
	*h = append(*h, node)
}

func (h *PathHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*h = old[:n-1]
	return node
}

const (
	straightCost = float32(1.0)
	diagonalCost = float32(1.414)
)

// Directions in clockwise order starting south; odd entries are diagonal.
var directions = [8][2]int{
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
}

// Option configures a PathFinder.
type Option func(*PathFinder)

// WithLogger sets the path finder logger.
func WithLogger(log *zap.Logger) Option {
	return func(pf *PathFinder) {
		if log != nil {
			pf.log = log
		}
	}
}

// WithCollider runs the tile and index collision tests against collider.
// A Block verdict makes the tile impassable.
func WithCollider(collider any) Option {
	return func(pf *PathFinder) {
		pf.collider = collider
		pf.runTests = true
	}
}

// PathFinder searches a layer. It reads the layer live, so flags must be
// refreshed before searching.
type PathFinder struct {
	layer    *tilemap.Layer
	collider any
	runTests bool
	log      *zap.Logger
}

// NewPathFinder creates a path finder over layer. Returns nil for a nil layer.
func NewPathFinder(layer *tilemap.Layer, opts ...Option) *PathFinder {
	if layer == nil {
		return nil
	}
	pf := &PathFinder{layer: layer, log: zap.NewNop()}
	for _, opt := range opts {
		opt(pf)
	}
	return pf
}

// IsWalkable reports whether (x, y) can be entered from at least one side.
// Empty cells are walkable.
func (pf *PathFinder) IsWalkable(x, y int) bool {
	if pf == nil || !pf.inBounds(x, y) {
		return false
	}
	t := pf.layer.TileRef(x, y)
	if !pf.present(t) {
		return true
	}
	if t.Flags()&tilemap.CollideAll == tilemap.CollideAll {
		return false
	}
	return !pf.blockedByTest(t)
}

// CanEnter reports whether a single step from (fx, fy) to (tx, ty) is
// allowed. Steps must be to one of the eight neighbours. An orthogonal step
// is blocked by the collide bit on the side of the target being entered; a
// diagonal step also needs both orthogonal routes around the corner.
func (pf *PathFinder) CanEnter(fx, fy, tx, ty int) bool {
	if pf == nil || !pf.inBounds(fx, fy) || !pf.inBounds(tx, ty) {
		return false
	}
	dx, dy := tx-fx, ty-fy
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		return false
	}
	if dx != 0 && dy != 0 {
		viaX := pf.canStep(fx, fy, fx+dx, fy) && pf.canStep(fx+dx, fy, tx, ty)
		viaY := pf.canStep(fx, fy, fx, fy+dy) && pf.canStep(fx, fy+dy, tx, ty)
		return viaX && viaY
	}
	return pf.canStep(fx, fy, tx, ty)
}

// canStep checks an orthogonal step.
func (pf *PathFinder) canStep(fx, fy, tx, ty int) bool {
	if !pf.inBounds(tx, ty) {
		return false
	}
	t := pf.layer.TileRef(tx, ty)
	if !pf.present(t) {
		return true
	}
	if t.Has(entrySide(tx-fx, ty-fy)) {
		return false
	}
	return !pf.blockedByTest(t)
}

// entrySide maps a step direction to the collide bit of the side it enters.
func entrySide(dx, dy int) tilemap.Flags {
	switch {
	case dx > 0:
		return tilemap.CollideLeft
	case dx < 0:
		return tilemap.CollideRight
	case dy > 0:
		return tilemap.CollideUp
	default:
		return tilemap.CollideDown
	}
}

func (pf *PathFinder) present(t *tilemap.Tile) bool {
	return t != nil && t.Exists()
}

func (pf *PathFinder) blockedByTest(t *tilemap.Tile) bool {
	if !pf.runTests {
		return false
	}
	if t.DoCollisionTest(pf.collider).Blocks() {
		return true
	}
	return pf.layer.DoTileIndexCollisionTest(t, pf.collider).Blocks()
}

// FindPath finds a path from start to goal using A*. The result includes
// both endpoints. Returns nil if no path exists.
func (pf *PathFinder) FindPath(startX, startY, goalX, goalY int) [][2]int {
	if pf == nil {
		return nil
	}
	if !pf.inBounds(startX, startY) || !pf.inBounds(goalX, goalY) {
		return nil
	}
	if !pf.IsWalkable(goalX, goalY) {
		return nil
	}

	width, height := pf.layer.Width(), pf.layer.Height()
	closed := make([]bool, width*height)
	nodes := make(map[int]*PathNode)

	open := &PathHeap{}
	heap.Init(open)

	start := &PathNode{X: startX, Y: startY, H: heuristic(startX, startY, goalX, goalY)}
	start.F = start.H
	heap.Push(open, start)
	nodes[pf.key(startX, startY)] = start

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*PathNode)
		expanded++

		if current.X == goalX && current.Y == goalY {
			path := reconstructPath(current)
			pf.log.Debug("path found",
				zap.String("layer", pf.layer.Name()),
				zap.Int("length", len(path)),
				zap.Int("expanded", expanded))
			return path
		}

		closed[pf.key(current.X, current.Y)] = true

		for i, dir := range directions {
			nx, ny := current.X+dir[0], current.Y+dir[1]
			if !pf.inBounds(nx, ny) || closed[pf.key(nx, ny)] {
				continue
			}
			if !pf.CanEnter(current.X, current.Y, nx, ny) {
				continue
			}

			cost := straightCost
			if i%2 == 1 {
				cost = diagonalCost
			}
			g := current.G + cost

			neighbor, ok := nodes[pf.key(nx, ny)]
			if !ok {
				neighbor = &PathNode{
					X:      nx,
					Y:      ny,
					G:      g,
					H:      heuristic(nx, ny, goalX, goalY),
					Parent: current,
				}
				neighbor.F = neighbor.G + neighbor.H
				nodes[pf.key(nx, ny)] = neighbor
				heap.Push(open, neighbor)
			} else if g < neighbor.G {
				neighbor.G = g
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				heap.Fix(open, neighbor.Index)
			}
		}
	}

	pf.log.Debug("no path",
		zap.String("layer", pf.layer.Name()),
		zap.Int("expanded", expanded))
	return nil
}

func (pf *PathFinder) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < pf.layer.Width() && y < pf.layer.Height()
}

func (pf *PathFinder) key(x, y int) int {
	return y*pf.layer.Width() + x
}

// heuristic is the octile distance.
func heuristic(x1, y1, x2, y2 int) float32 {
	dx, dy := abs(x2-x1), abs(y2-y1)
	if dx < dy {
		return float32(dx)*diagonalCost + float32(dy-dx)
	}
	return float32(dy)*diagonalCost + float32(dx-dy)
}

func reconstructPath(node *PathNode) [][2]int {
	var path [][2]int
	for node != nil {
		path = append(path, [2]int{node.X, node.Y})
		node = node.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
