package desktop

import (
	"math"

	"github.com/kilodown/deskwm/internal/geometry"
)

// smartPositionLocked centres a w x h window and cascades it away from
// visible windows whose top-left corner is within the conflict radius.
func (m *Manager) smartPositionLocked(w, h float64) (left, top float64) {
	size := m.metrics()
	left = math.Max(0, (size.Width-w)/2)
	top = math.Max(0, (size.Height-h)/2)

	var corners []geometry.Point
	for _, id := range m.order {
		r := m.records[id]
		if r.minimized || r.closing {
			continue
		}
		px := geometry.ToPixels(r.live, size)
		corners = append(corners, geometry.Point{X: px.Left, Y: px.Top})
	}

	p := m.placement
	for i := 0; i < p.MaxIterations; i++ {
		if !conflicts(corners, left, top, p.ConflictRadius) {
			break
		}
		left += p.Offset
		top += p.Offset
		if top+h > size.Height || left+w > size.Width {
			left = p.ResetPosition
			top = p.ResetPosition
		}
	}
	return left, top
}

func conflicts(corners []geometry.Point, left, top, radius float64) bool {
	for _, c := range corners {
		if math.Abs(c.X-left) < radius && math.Abs(c.Y-top) < radius {
			return true
		}
	}
	return false
}
