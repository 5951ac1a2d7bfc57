package desktop

import (
	"math"
	"strings"

	"github.com/kilodown/deskwm/internal/geometry"
)

// Action is a pointer gesture: "move", "alt-move", or a resize direction
// made of the edge letters n, s, e, w (plus "c" for centre resize).
type Action string

const (
	ActionNone    Action = ""
	ActionMove    Action = "move"
	ActionAltMove Action = "alt-move"
	ActionCenter  Action = "c"
)

// IsMove reports whether the gesture translates the window.
func (a Action) IsMove() bool { return a == ActionMove || a == ActionAltMove }

// IsResize reports whether the gesture resizes the window.
func (a Action) IsResize() bool { return a != ActionNone && !a.IsMove() }

// Has reports whether the resize gesture moves the given edge.
func (a Action) Has(edge byte) bool {
	return a.IsResize() && strings.IndexByte(string(a), edge) >= 0
}

// SnapDelta returns the adjustment that would align candidate with the
// nearest edge of another visible window, per axis, within the snap
// threshold. Moves consider every edge; resizes only the edges they drag.
func (m *Manager) SnapDelta(id string, candidate geometry.PixelRect, action Action) geometry.Delta {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.metrics()
	var targets []geometry.PixelRect
	for _, oid := range m.order {
		r := m.records[oid]
		if oid == id || r.minimized || r.closing {
			continue
		}
		targets = append(targets, geometry.ToPixels(r.live, size))
	}

	move := action.IsMove()
	activeLeft := move || action.Has('w')
	activeRight := move || action.Has('e')
	activeTop := move || action.Has('n')
	activeBottom := move || action.Has('s')

	threshold := m.snapDist
	bestX, bestY := threshold+1, threshold+1
	var snap geometry.Delta

	consider := func(best *float64, out *float64, diff float64) {
		if math.Abs(diff) < math.Abs(*best) {
			*best = diff
			*out = diff
		}
	}

	for _, t := range targets {
		if activeLeft {
			consider(&bestX, &snap.X, t.Right()-candidate.Left)
			consider(&bestX, &snap.X, t.Left-candidate.Left)
		}
		if activeRight {
			consider(&bestX, &snap.X, t.Left-candidate.Right())
			consider(&bestX, &snap.X, t.Right()-candidate.Right())
		}
		if activeTop {
			consider(&bestY, &snap.Y, t.Bottom()-candidate.Top)
			consider(&bestY, &snap.Y, t.Top-candidate.Top)
		}
		if activeBottom {
			consider(&bestY, &snap.Y, t.Top-candidate.Bottom())
			consider(&bestY, &snap.Y, t.Bottom()-candidate.Bottom())
		}
	}

	if math.Abs(bestX) > threshold {
		snap.X = 0
	}
	if math.Abs(bestY) > threshold {
		snap.Y = 0
	}
	return snap
}
