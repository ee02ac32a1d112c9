package tilemap

import "go.uber.org/zap"

// SuppressRefresh reports whether non-forced refreshes are skipped.
func (l *Layer) SuppressRefresh() bool { return l.suppressRefresh }

// SetSuppressRefresh toggles refresh suppression. Turning suppression off
// runs a non-forced refresh.
func (l *Layer) SetSuppressRefresh(suppress bool) {
	if suppress == l.suppressRefresh {
		return
	}
	l.suppressRefresh = suppress
	if !suppress {
		l.Refresh(false)
	}
}

// Refresh re-applies index rules and recomputes faces. Without force each
// pass only runs when something it depends on changed since its last run.
func (l *Layer) Refresh(force bool) {
	l.ApplyRules(force)
	l.CalculateFaces(force)
}

// ApplyRules re-applies the default rules of every existing tile's index.
func (l *Layer) ApplyRules(force bool) {
	if !force && (l.suppressRefresh || l.lastRuleApplyAt >= l.ruleChangeCount) {
		return
	}

	n := 0
	for _, row := range l.grid {
		for _, t := range row {
			if t == nil || t.index < 0 {
				continue
			}
			l.applyDefaultTileRules(t)
			n++
		}
	}

	l.lastRuleApplyAt = l.ruleChangeCount
	l.changeCount++
	l.stats.RulePasses++
	l.log.Debug("rules applied",
		zap.String("layer", l.name),
		zap.Int("tiles", n),
		zap.Int("rule_generation", l.ruleChangeCount))
}

// CalculateFaces recomputes the face bits of every existing tile. Faces
// start as a copy of the collide bits; a face is then culled when the
// neighbour on that side exists and has the collide bit of the same name
// (faceTop by collideUp above, faceLeft by collideLeft to the left, and so
// on). The sweep keeps a three-row window over the grid.
func (l *Layer) CalculateFaces(force bool) {
	if !force && (l.suppressRefresh || l.lastFaceCalcAt >= l.changeCount) {
		return
	}

	var prev, next []*Tile
	n := 0
	for y, cur := range l.grid {
		next = nil
		if y+1 < l.height {
			next = l.grid[y+1]
		}

		for x, t := range cur {
			if t == nil || t.index < 0 {
				continue
			}
			f := t.flags&^FaceAll | (t.flags&CollideAll)<<faceShift

			if f&FaceTop != 0 && prev != nil && collides(prev[x], CollideUp) {
				f &^= FaceTop
			}
			if f&FaceBottom != 0 && next != nil && collides(next[x], CollideDown) {
				f &^= FaceBottom
			}
			if f&FaceLeft != 0 && x > 0 && collides(cur[x-1], CollideLeft) {
				f &^= FaceLeft
			}
			if f&FaceRight != 0 && x+1 < l.width && collides(cur[x+1], CollideRight) {
				f &^= FaceRight
			}

			t.flags = f
			n++
		}
		prev = cur
	}

	// Faces are derived state; changeCount stays put.
	l.lastFaceCalcAt = l.changeCount
	l.stats.FacePasses++
	l.log.Debug("faces calculated",
		zap.String("layer", l.name),
		zap.Int("tiles", n),
		zap.Int("generation", l.changeCount))
}

func collides(t *Tile, bit Flags) bool {
	return t != nil && t.index >= 0 && t.flags&bit != 0
}
