package desktop

import (
	"testing"
	"time"

	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anim = 200 * time.Millisecond

func newTestManager(t *testing.T, w, h float64) (*Manager, *ManualScheduler) {
	t.Helper()
	sched := NewManualScheduler()
	m, err := New(NewStaticSurface(w, h), WithScheduler(sched))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, sched
}

func assertRect(t *testing.T, want, got geometry.Rect) {
	t.Helper()
	assert.InDelta(t, want.Left, got.Left, 1e-6, "left")
	assert.InDelta(t, want.Top, got.Top, 1e-6, "top")
	assert.InDelta(t, want.Width, got.Width, 1e-6, "width")
	assert.InDelta(t, want.Height, got.Height, 1e-6, "height")
}

func mustWindow(t *testing.T, m *Manager, id string) Window {
	t.Helper()
	w, ok := m.Window(id)
	require.True(t, ok, "window %q missing", id)
	return w
}

func focusedIDs(m *Manager) []string {
	var ids []string
	for _, w := range m.Windows() {
		if w.Focused {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

func recordEvents(m *Manager, types ...EventType) *[]Event {
	var got []Event
	for _, t := range types {
		m.AddEventListener(t, func(ev Event) { got = append(got, ev) })
	}
	return &got
}

func TestNewRequiresSurface(t *testing.T) {
	m, err := New(nil)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrNoContainer)
}

// =============================================================================
// Creation and placement
// =============================================================================

func TestCreateWindowDefaults(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	events := recordEvents(m, EventCreate, EventFocus)

	id := m.CreateWindow(CreateOptions{ID: "a", CustomData: "payload"})
	require.Equal(t, "a", id)

	w := mustWindow(t, m, "a")
	assert.Equal(t, "Window", w.Title)
	assertRect(t, geometry.Rect{Left: 25, Top: 20, Width: 50, Height: 60}, w.Rect)
	assert.Equal(t, w.Rect, w.Live)
	assert.Equal(t, 11, w.ZIndex)
	assert.True(t, w.Focused)
	assert.Equal(t, AllActions, w.Actions)

	require.Len(t, *events, 2)
	assert.Equal(t, EventFocus, (*events)[0].Type)
	assert.Equal(t, Event{Type: EventCreate, ID: "a", CustomData: "payload"}, (*events)[1])
}

func TestCreateWindowGeneratesID(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	id := m.CreateWindow(CreateOptions{})
	assert.Len(t, id, 36)
	assert.True(t, m.HasWindowID(id))
}

func TestCreateWindowClampsRect(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Left: 90, Top: 95, Width: 30, Height: 30}})
	assertRect(t, geometry.Rect{Left: 70, Top: 70, Width: 30, Height: 30}, mustWindow(t, m, "a").Rect)
}

func TestCreateWindowExplicitPixels(t *testing.T) {
	m, _ := newTestManager(t, 1000, 500)
	m.CreateWindow(CreateOptions{
		ID:     "a",
		Width:  geometry.Float(2000),
		Height: geometry.Float(100),
		Left:   geometry.Float(50),
		Top:    geometry.Float(450),
	})
	// width is capped to the container and the window pushed back inside
	assertRect(t, geometry.Rect{Left: 0, Top: 80, Width: 100, Height: 20}, mustWindow(t, m, "a").Rect)
}

func TestCreateExistingIDRestoresAndFocuses(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})
	m.MinimizeWindow("a")

	id := m.CreateWindow(CreateOptions{ID: "a", Title: "ignored"})
	assert.Equal(t, "a", id)
	w := mustWindow(t, m, "a")
	assert.False(t, w.Minimized)
	assert.True(t, w.Focused)
	assert.Equal(t, "Window", w.Title)
	assert.Len(t, m.Windows(), 2)
}

func TestSmartPlacementCascade(t *testing.T) {
	m, _ := newTestManager(t, 1000, 800)

	want := []geometry.Point{{X: 100, Y: 100}, {X: 140, Y: 140}, {X: 180, Y: 180}, {X: 60, Y: 60}}
	for i, p := range want {
		id := string(rune('a' + i))
		m.CreateWindow(CreateOptions{ID: id})
		px, ok := m.LiveRect(id)
		require.True(t, ok)
		assert.InDelta(t, p.X, px.Left, 1e-6, "window %s left", id)
		assert.InDelta(t, p.Y, px.Top, 1e-6, "window %s top", id)
	}
}

func TestSmartPlacementCycleExhausted(t *testing.T) {
	m, _ := newTestManager(t, 1000, 800)
	for _, id := range []string{"a", "b", "c", "d"} {
		m.CreateWindow(CreateOptions{ID: id})
	}

	// every cascade slot is taken, so the search runs out of iterations and
	// the window lands on the last candidate, on top of "c"
	m.CreateWindow(CreateOptions{ID: "e"})
	e, _ := m.LiveRect("e")
	c, _ := m.LiveRect("c")
	assert.InDelta(t, 180, e.Left, 1e-6)
	assert.InDelta(t, 180, e.Top, 1e-6)
	assert.InDelta(t, c.Left, e.Left, 1e-6)
	assert.InDelta(t, c.Top, e.Top, 1e-6)
}

func TestSmartPlacementIgnoresMinimized(t *testing.T) {
	m, _ := newTestManager(t, 1000, 800)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.MinimizeWindow("a")
	m.CreateWindow(CreateOptions{ID: "b"})

	px, _ := m.LiveRect("b")
	assert.InDelta(t, 100, px.Left, 1e-6)
}

// =============================================================================
// Focus and stacking
// =============================================================================

func TestBringToFront(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})

	assert.Equal(t, []string{"b"}, focusedIDs(m))

	m.BringToFront("a")
	assert.Equal(t, []string{"a"}, focusedIDs(m))
	assert.Equal(t, 13, mustWindow(t, m, "a").ZIndex)
	assert.Equal(t, []string{"b", "a"}, m.FocusHistory())

	// already on top: z unchanged, focus event still fires
	events := recordEvents(m, EventFocus)
	m.BringToFront("a")
	assert.Equal(t, 13, mustWindow(t, m, "a").ZIndex)
	assert.Len(t, *events, 1)

	m.BringToFront("missing")
	assert.Equal(t, 13, m.HighestZ())
}

func TestZIndexNeverReusedWhileOpen(t *testing.T) {
	m, sched := newTestManager(t, 1600, 1000)
	seen := map[int]bool{}
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		m.CreateWindow(CreateOptions{ID: id})
	}
	m.CloseWindow("e")
	sched.Advance(anim)
	m.BringToFront("a")
	m.BringToFront("b")

	for _, w := range m.Windows() {
		assert.False(t, seen[w.ZIndex], "z %d reused", w.ZIndex)
		seen[w.ZIndex] = true
	}
}

// =============================================================================
// Minimize, maximize, restore
// =============================================================================

func TestMinimizeDefersFocusTransfer(t *testing.T) {
	m, sched := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})

	m.MinimizeWindow("b")
	b := mustWindow(t, m, "b")
	assert.True(t, b.Minimized)
	assert.False(t, b.Focused)
	assert.Empty(t, focusedIDs(m))

	sched.Advance(anim - time.Millisecond)
	assert.Empty(t, focusedIDs(m))

	sched.Advance(time.Millisecond)
	assert.Equal(t, []string{"a"}, focusedIDs(m))
}

func TestMinimizeUnfocusedSchedulesNothing(t *testing.T) {
	m, sched := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})

	m.MinimizeWindow("a")
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, []string{"b"}, focusedIDs(m))
}

func TestMinimizePersistsLiveRect(t *testing.T) {
	m, _ := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40}})
	m.SetLiveRect("a", geometry.PixelRect{Left: 300, Top: 200, Width: 400, Height: 400})

	m.MinimizeWindow("a")
	assertRect(t, geometry.Rect{Left: 30, Top: 20, Width: 40, Height: 40}, mustWindow(t, m, "a").Rect)
}

func TestMaximizeAndRestore(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	orig := geometry.Rect{Left: 5, Top: 5, Width: 40, Height: 40}
	m.CreateWindow(CreateOptions{ID: "a", Rect: &orig})

	m.ToggleMaximize("a")
	w := mustWindow(t, m, "a")
	assert.True(t, w.Maximized)
	assertRect(t, geometry.Full, w.Rect)
	assertRect(t, geometry.Full, w.Live)

	m.ToggleMaximize("a")
	w = mustWindow(t, m, "a")
	assert.False(t, w.Maximized)
	assertRect(t, orig, w.Rect)
	assertRect(t, orig, w.Live)
}

func TestRestoreTargetAndFallback(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})

	m.MaximizeWindow("a")
	target := geometry.Rect{Left: 1, Top: 2, Width: 30, Height: 40}
	m.RestoreWindow("a", &target)
	assertRect(t, target, mustWindow(t, m, "a").Rect)

	// no saved rect: fall back to the configured default
	m.RestoreWindow("a", nil)
	assertRect(t, geometry.Rect{Left: 10, Top: 10, Width: 50, Height: 50}, mustWindow(t, m, "a").Rect)
}

func TestToggleMaximizeIgnoresMinimized(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.MinimizeWindow("a")
	m.ToggleMaximize("a")
	assert.False(t, mustWindow(t, m, "a").Maximized)
}

func TestMaximizeAndRestoreIgnoreMinimized(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})
	m.MaximizeWindow("b")

	m.MinimizeWindow("a")
	before := mustWindow(t, m, "a").Rect
	m.MaximizeWindow("a")
	w := mustWindow(t, m, "a")
	assert.False(t, w.Maximized)
	assertRect(t, before, w.Rect)

	m.MinimizeWindow("b")
	target := geometry.Rect{Left: 1, Top: 1, Width: 10, Height: 10}
	m.RestoreWindow("b", &target)
	w = mustWindow(t, m, "b")
	assert.True(t, w.Maximized)
	assertRect(t, geometry.Full, w.Rect)
}

// =============================================================================
// Close
// =============================================================================

func TestCloseIsTwoPhase(t *testing.T) {
	m, sched := newTestManager(t, 1600, 1000)
	closed := 0
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b", OnClose: func() { closed++ }})

	var order []string
	m.Subscribe(func(ws []Window) { order = append(order, "notify") })
	m.AddEventListener(EventClose, func(Event) { order = append(order, "close") })
	order = nil

	m.CloseWindow("b")
	m.CloseWindow("b")
	b := mustWindow(t, m, "b")
	assert.True(t, b.Closing)
	assert.False(t, b.Focused)
	assert.Equal(t, 1, sched.Pending())

	// closing windows cannot be focused
	m.BringToFront("b")
	assert.False(t, mustWindow(t, m, "b").Focused)

	sched.Advance(anim)
	assert.False(t, m.HasWindowID("b"))
	assert.Equal(t, 1, closed)
	assert.Equal(t, []string{"a"}, focusedIDs(m))
	assert.Equal(t, "close", order[len(order)-1])
	assert.Equal(t, "notify", order[len(order)-2])
}

func TestCloseLastWindowResetsZ(t *testing.T) {
	m, sched := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})
	m.CloseWindow("a")
	m.CloseWindow("b")
	sched.Advance(anim)

	assert.Empty(t, m.Windows())
	assert.Equal(t, 10, m.HighestZ())
	m.CreateWindow(CreateOptions{ID: "c"})
	assert.Equal(t, 11, mustWindow(t, m, "c").ZIndex)
}

func TestClosingWindowIgnoresMutations(t *testing.T) {
	m, sched := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Title: "A"})
	before := mustWindow(t, m, "a")
	m.CloseWindow("a")

	title := "changed"
	m.UpdateWindow("a", Update{Title: &title, Rect: &geometry.PartialRect{Left: ptr(1.0)}})
	assert.False(t, m.UpdateWindowID("a", "z"))
	assert.False(t, m.HasWindowID("z"))
	m.MaximizeWindow("a")
	target := geometry.Rect{Left: 1, Top: 1, Width: 10, Height: 10}
	m.RestoreWindow("a", &target)

	w := mustWindow(t, m, "a")
	assert.Equal(t, "A", w.Title)
	assert.False(t, w.Maximized)
	assertRect(t, before.Rect, w.Rect)

	sched.Advance(anim)
	assert.Empty(t, m.Windows())
}

func TestManagerCloseStopsTimers(t *testing.T) {
	m, sched := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CloseWindow("a")
	m.Close()
	sched.Advance(anim)
	assert.True(t, m.HasWindowID("a"))
}

// =============================================================================
// Updates and renames
// =============================================================================

func TestUpdateWindowPixels(t *testing.T) {
	m, _ := newTestManager(t, 1000, 500)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Left: 10, Top: 10, Width: 50, Height: 50}})

	m.UpdateWindow("a", Update{
		Rect: &geometry.PartialRect{Left: geometry.Float(100), Height: geometry.Float(100)},
		Unit: Pixels,
	})
	assertRect(t, geometry.Rect{Left: 10, Top: 10, Width: 50, Height: 20}, mustWindow(t, m, "a").Rect)

	title := "renamed"
	m.UpdateWindow("a", Update{Title: &title, CustomData: 42})
	w := mustWindow(t, m, "a")
	assert.Equal(t, "renamed", w.Title)
	assert.Equal(t, 42, w.CustomData)
}

func TestUpdateDuringInteractionKeepsLive(t *testing.T) {
	m, _ := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40}})

	m.BeginInteraction("a")
	m.UpdateWindow("a", Update{Rect: ptr(geometry.Partial(geometry.Rect{Left: 50, Top: 50, Width: 40, Height: 40}))})
	w := mustWindow(t, m, "a")
	assertRect(t, geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40}, w.Live)

	m.EndInteraction("a")
	assertRect(t, geometry.Rect{Left: 50, Top: 50, Width: 40, Height: 40}, mustWindow(t, m, "a").Live)
}

func TestUpdateWindowID(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})
	events := recordEvents(m, EventIDUpdate)

	tests := []struct {
		name      string
		from, to  string
		want      bool
		wantEvent bool
	}{
		{"same id", "a", "a", true, false},
		{"target taken", "a", "b", false, false},
		{"missing", "nope", "c", false, false},
		{"rename", "a", "c", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(*events)
			assert.Equal(t, tt.want, m.UpdateWindowID(tt.from, tt.to))
			if tt.wantEvent {
				require.Len(t, *events, before+1)
				assert.Equal(t, Event{Type: EventIDUpdate, OriginalID: tt.from, NewID: tt.to}, (*events)[before])
			} else {
				assert.Len(t, *events, before)
			}
		})
	}

	assert.False(t, m.HasWindowID("a"))
	assert.True(t, m.HasWindowID("c"))
	assert.Equal(t, []string{"c", "b"}, m.FocusHistory())
	assert.Equal(t, "c", m.Windows()[0].ID)
}

// =============================================================================
// Live geometry and gesture notifications
// =============================================================================

func TestNotifyMoveEndSyncsRect(t *testing.T) {
	m, _ := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a", Rect: &geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40}})
	events := recordEvents(m, EventMoveStart, EventMove, EventMoveEnd)

	m.NotifyMoveStart("a")
	m.SetLiveRect("a", geometry.PixelRect{Left: 200, Top: 300, Width: 400, Height: 400})
	m.NotifyMove("a")

	// snapshot reads the rendered rect before the stored one catches up
	assertRect(t, geometry.Rect{Left: 20, Top: 30, Width: 40, Height: 40}, m.CaptureSnapshot()[0].Rect)
	assertRect(t, geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40}, mustWindow(t, m, "a").Rect)

	m.NotifyMoveEnd("a")
	assertRect(t, geometry.Rect{Left: 20, Top: 30, Width: 40, Height: 40}, mustWindow(t, m, "a").Rect)

	types := []EventType{}
	for _, e := range *events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventMoveStart, EventMove, EventMoveEnd}, types)
}

func TestNotifyResizeEndSkipsMaximized(t *testing.T) {
	m, _ := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.MaximizeWindow("a")
	m.NotifyResizeEnd("a")
	assertRect(t, geometry.Full, mustWindow(t, m, "a").Rect)
}

// =============================================================================
// Subscriptions
// =============================================================================

func TestSubscribeCallsImmediately(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})

	var calls [][]Window
	unsubscribe := m.Subscribe(func(ws []Window) { calls = append(calls, ws) })
	require.Len(t, calls, 1)
	assert.Len(t, calls[0], 1)

	m.CreateWindow(CreateOptions{ID: "b"})
	n := len(calls)
	assert.Greater(t, n, 1)
	assert.Len(t, calls[n-1], 2)

	unsubscribe()
	m.CreateWindow(CreateOptions{ID: "c"})
	assert.Len(t, calls, n)
}

func TestListenersMayReenter(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)

	// a listener that opens a companion window for every "main" window
	m.AddEventListener(EventCreate, func(ev Event) {
		if ev.ID == "main" {
			m.CreateWindow(CreateOptions{ID: "companion"})
		}
	})
	var last []Window
	m.Subscribe(func(ws []Window) { last = ws })

	m.CreateWindow(CreateOptions{ID: "main"})
	assert.True(t, m.HasWindowID("companion"))
	assert.Len(t, last, 2)
	assert.Equal(t, []string{"companion"}, focusedIDs(m))
}

func TestRemoveEventListener(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	n := 0
	remove := m.AddEventListener(EventFocus, func(Event) { n++ })
	m.CreateWindow(CreateOptions{ID: "a"})
	remove()
	m.BringToFront("a")
	assert.Equal(t, 1, n)
}

func TestPanickingListenerIsContained(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.AddEventListener(EventCreate, func(Event) { panic("boom") })
	var created int
	m.AddEventListener(EventCreate, func(Event) { created++ })

	assert.NotPanics(t, func() { m.CreateWindow(CreateOptions{ID: "a"}) })
	m.CreateWindow(CreateOptions{ID: "b"})
	assert.Equal(t, 2, created)
}

// =============================================================================
// Handles
// =============================================================================

func TestHandleFiltersEvents(t *testing.T) {
	m, _ := newTestManager(t, 1600, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	m.CreateWindow(CreateOptions{ID: "b"})

	h, ok := m.Handle("a")
	require.True(t, ok)

	var got []Event
	h.On(EventFocus, func(ev Event) { got = append(got, ev) })
	h.On(EventIDUpdate, func(ev Event) { got = append(got, ev) })

	m.BringToFront("b")
	h.Focus()
	m.UpdateWindowID("a", "a2")

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "a2", got[1].NewID)

	_, ok = m.Handle("missing")
	assert.False(t, ok)
}

func TestHandleMethods(t *testing.T) {
	m, sched := newTestManager(t, 1000, 1000)
	m.CreateWindow(CreateOptions{ID: "a"})
	h, _ := m.Handle("a")

	h.SetTitle("Editor")
	h.SetData(map[string]any{"file": "main.go"})
	h.SetRect(geometry.PartialRect{Width: geometry.Float(300)}, Pixels)

	st, ok := h.State()
	require.True(t, ok)
	assert.Equal(t, "Editor", st.Title)
	assert.InDelta(t, 30, st.Rect.Width, 1e-6)
	assert.Equal(t, map[string]any{"file": "main.go"}, st.CustomData)

	h.ToggleMaximize()
	st, _ = h.State()
	assert.True(t, st.IsMaximized)

	h.Minimize()
	st, _ = h.State()
	assert.True(t, st.IsMinimized)

	h.Close()
	sched.Advance(anim)
	_, ok = h.State()
	assert.False(t, ok)
	assert.Equal(t, geometry.Point{X: 5, Y: 6}, h.GlobalToLocal(5, 6))
	assert.Equal(t, geometry.Size{Width: 1000, Height: 1000}, h.ContainerMetrics())
}

// =============================================================================
// Renderer
// =============================================================================

type recordingRenderer struct {
	rendered []string
	unmount  []string
}

func (r *recordingRenderer) Render(id string, _ Props) { r.rendered = append(r.rendered, id) }
func (r *recordingRenderer) Unmount(id string)         { r.unmount = append(r.unmount, id) }

func TestRendererLifecycle(t *testing.T) {
	sched := NewManualScheduler()
	rr := &recordingRenderer{}
	m, err := New(NewStaticSurface(1000, 1000), WithScheduler(sched), WithRenderer(rr))
	require.NoError(t, err)

	m.CreateWindow(CreateOptions{ID: "a"})
	m.UpdateWindowID("a", "b")
	m.CloseWindow("b")
	sched.Advance(anim)

	assert.Equal(t, []string{"a", "b"}, rr.rendered)
	assert.Equal(t, []string{"a", "b"}, rr.unmount)
}

func TestContainerHelpers(t *testing.T) {
	surface := NewStaticSurface(1000, 500)
	m, err := New(surface, WithScheduler(NewManualScheduler()))
	require.NoError(t, err)
	t.Cleanup(m.Close)

	surface.SetBounds(geometry.Bounds{Left: 40, Top: 20, Width: 800, Height: 400})
	assert.Equal(t, geometry.Bounds{Left: 40, Top: 20, Width: 800, Height: 400}, m.ContainerBounds())
	assert.Equal(t, geometry.Point{X: 60, Y: 80}, m.GlobalToLocal(100, 100))

	got := m.PixelsToPercent(geometry.PixelRect{Left: 80, Top: 40, Width: 400, Height: 200})
	assertRect(t, geometry.Rect{Left: 10, Top: 10, Width: 50, Height: 50}, got)

	p := m.ClampRect(geometry.PartialRect{
		Left:  ptr(90.0),
		Width: ptr(30.0),
		Top:   ptr(-5.0),
	})
	assert.InDelta(t, 70, *p.Left, 1e-9)
	assert.InDelta(t, 0, *p.Top, 1e-9)
	assert.Nil(t, p.Height)
}
