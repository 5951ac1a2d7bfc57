package desktop

import (
	"github.com/kilodown/deskwm/internal/geometry"
)

// Handle is a per-window view of the manager bound to one id. Its
// listeners only see events concerning that id.
type Handle struct {
	m  *Manager
	id string
}

// Handle returns a handle for id, or false if no such window exists.
func (m *Manager) Handle(id string) (*Handle, bool) {
	if !m.HasWindowID(id) {
		return nil, false
	}
	return &Handle{m: m, id: id}, true
}

// ID returns the id the handle was created for.
func (h *Handle) ID() string { return h.id }

// State returns the window's current snapshot entry.
func (h *Handle) State() (SnapshotEntry, bool) {
	for _, e := range h.m.CaptureSnapshot() {
		if e.ID == h.id {
			return e, true
		}
	}
	return SnapshotEntry{}, false
}

// On listens for events of type t about this window, including an
// idupdate that renames it away.
func (h *Handle) On(t EventType, fn func(Event)) (remove func()) {
	id := h.id
	return h.m.AddEventListener(t, func(ev Event) {
		if ev.Concerns(id) {
			fn(ev)
		}
	})
}

// Update applies a partial update.
func (h *Handle) Update(u Update) { h.m.UpdateWindow(h.id, u) }

// SetTitle changes the title.
func (h *Handle) SetTitle(title string) { h.m.UpdateWindow(h.id, Update{Title: &title}) }

// SetData replaces the custom data.
func (h *Handle) SetData(data any) { h.m.UpdateWindow(h.id, Update{CustomData: data}) }

// SetRect updates the rect in the given unit.
func (h *Handle) SetRect(r geometry.PartialRect, unit Unit) {
	h.m.UpdateWindow(h.id, Update{Rect: &r, Unit: unit})
}

// Focus brings the window to front.
func (h *Handle) Focus() { h.m.BringToFront(h.id) }

// Minimize minimizes the window.
func (h *Handle) Minimize() { h.m.MinimizeWindow(h.id) }

// ToggleMaximize maximizes or restores the window.
func (h *Handle) ToggleMaximize() { h.m.ToggleMaximize(h.id) }

// Close starts closing the window.
func (h *Handle) Close() { h.m.CloseWindow(h.id) }

// GlobalToLocal converts client coordinates to container pixels.
func (h *Handle) GlobalToLocal(x, y float64) geometry.Point { return h.m.GlobalToLocal(x, y) }

// ContainerMetrics returns the container size.
func (h *Handle) ContainerMetrics() geometry.Size { return h.m.ContainerMetrics() }
