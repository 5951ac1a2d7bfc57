package desktop

import (
	"testing"

	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/stretchr/testify/assert"
)

func TestActionKinds(t *testing.T) {
	tests := []struct {
		action   Action
		move     bool
		resize   bool
		hasEdges string
	}{
		{ActionNone, false, false, ""},
		{ActionMove, true, false, ""},
		{ActionAltMove, true, false, ""},
		{ActionCenter, false, true, ""},
		{"se", false, true, "se"},
		{"nw", false, true, "nw"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.move, tt.action.IsMove())
			assert.Equal(t, tt.resize, tt.action.IsResize())
			for _, edge := range []byte("nsew") {
				want := false
				for i := 0; i < len(tt.hasEdges); i++ {
					if tt.hasEdges[i] == edge {
						want = true
					}
				}
				assert.Equal(t, want, tt.action.Has(edge), "edge %c", edge)
			}
		})
	}
}

func TestSnapDelta(t *testing.T) {
	m, _ := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Left: 0, Top: 0, Width: 10, Height: 10}})
	// b occupies x 500..800, y 100..300
	m.CreateWindow(CreateOptions{ID: "b", Rect: &geometry.Rect{Left: 50, Top: 10, Width: 30, Height: 20}})

	tests := []struct {
		name      string
		candidate geometry.PixelRect
		action    Action
		want      geometry.Delta
	}{
		{
			name:      "move snaps left edge to right neighbour edge",
			candidate: geometry.PixelRect{Left: 812, Top: 400, Width: 100, Height: 100},
			action:    ActionMove,
			want:      geometry.Delta{X: -12},
		},
		{
			name:      "move beyond threshold",
			candidate: geometry.PixelRect{Left: 820, Top: 400, Width: 100, Height: 100},
			action:    ActionMove,
			want:      geometry.Delta{},
		},
		{
			name:      "move snaps both axes",
			candidate: geometry.PixelRect{Left: 390, Top: 305, Width: 100, Height: 100},
			action:    ActionAltMove,
			want:      geometry.Delta{X: 10, Y: -5},
		},
		{
			name:      "east resize snaps the dragged edge",
			candidate: geometry.PixelRect{Left: 100, Top: 100, Width: 395, Height: 200},
			action:    "e",
			want:      geometry.Delta{X: 5},
		},
		{
			name:      "west resize ignores the right edge",
			candidate: geometry.PixelRect{Left: 100, Top: 100, Width: 395, Height: 200},
			action:    "w",
			want:      geometry.Delta{},
		},
		{
			name:      "south resize aligns bottoms",
			candidate: geometry.PixelRect{Left: 100, Top: 150, Width: 100, Height: 140},
			action:    "s",
			want:      geometry.Delta{Y: 10},
		},
		{
			name:      "centre resize never snaps",
			candidate: geometry.PixelRect{Left: 812, Top: 95, Width: 100, Height: 100},
			action:    ActionCenter,
			want:      geometry.Delta{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.SnapDelta("a", tt.candidate, tt.action)
			assert.InDelta(t, tt.want.X, got.X, 1e-6, "x")
			assert.InDelta(t, tt.want.Y, got.Y, 1e-6, "y")
		})
	}
}

func TestSnapDeltaSkipsHiddenWindows(t *testing.T) {
	m, sched := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Width: 10, Height: 10}})
	m.CreateWindow(CreateOptions{ID: "min", Rect: &geometry.Rect{Left: 50, Top: 10, Width: 30, Height: 20}})
	m.CreateWindow(CreateOptions{ID: "gone", Rect: &geometry.Rect{Left: 50, Top: 10, Width: 30, Height: 20}})
	m.MinimizeWindow("min")
	m.CloseWindow("gone")
	sched.Advance(0)

	candidate := geometry.PixelRect{Left: 812, Top: 400, Width: 100, Height: 100}
	assert.True(t, m.SnapDelta("a", candidate, ActionMove).IsZero())
}

func TestSnapDeltaUsesRenderedRect(t *testing.T) {
	m, _ := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Width: 10, Height: 10}})
	m.CreateWindow(CreateOptions{ID: "b", Rect: &geometry.Rect{Left: 50, Top: 10, Width: 30, Height: 20}})
	m.BeginInteraction("b")
	m.SetLiveRect("b", geometry.PixelRect{Left: 200, Top: 600, Width: 100, Height: 100})

	got := m.SnapDelta("a", geometry.PixelRect{Left: 305, Top: 0, Width: 50, Height: 50}, ActionMove)
	assert.InDelta(t, -5, got.X, 1e-6)
}
