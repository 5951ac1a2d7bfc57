package desktop

import (
	"github.com/kilodown/deskwm/internal/geometry"
)

// BeginInteraction hands the live rect of id to a pointer gesture. Until
// EndInteraction, rect updates change only the stored rect.
func (m *Manager) BeginInteraction(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		r.interacting = true
	}
}

// EndInteraction returns control of the live rect to the stored rect.
func (m *Manager) EndInteraction(id string) {
	m.mu.Lock()
	if r, ok := m.records[id]; ok && r.interacting {
		r.interacting = false
		r.syncLive()
		m.notifyLocked()
	}
	m.mu.Unlock()
	m.flush()
}

// LiveRect returns the rendered rect of id in container pixels.
func (m *Manager) LiveRect(id string) (geometry.PixelRect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return geometry.PixelRect{}, false
	}
	return geometry.ToPixels(r.live, m.metrics()), true
}

// SetLiveRect renders id at the given pixel rect without touching the
// stored rect. Gestures drive the window through it.
func (m *Manager) SetLiveRect(id string, px geometry.PixelRect) {
	m.mu.Lock()
	if r, ok := m.records[id]; ok && !r.closing {
		r.live = geometry.ToPercent(px, m.metrics())
		m.notifyLocked()
	}
	m.mu.Unlock()
	m.flush()
}

// NotifyMoveStart emits moveStart.
func (m *Manager) NotifyMoveStart(id string) { m.emit(Event{Type: EventMoveStart, ID: id}) }

// NotifyMove emits move.
func (m *Manager) NotifyMove(id string) { m.emit(Event{Type: EventMove, ID: id}) }

// NotifyMoveEnd stores the rendered rect and emits moveEnd.
func (m *Manager) NotifyMoveEnd(id string) {
	m.mu.Lock()
	m.syncRectLocked(id)
	m.emitLocked(Event{Type: EventMoveEnd, ID: id})
	m.mu.Unlock()
	m.flush()
}

// NotifyResizeStart emits resizeStart.
func (m *Manager) NotifyResizeStart(id string) { m.emit(Event{Type: EventResizeStart, ID: id}) }

// NotifyResize emits resize.
func (m *Manager) NotifyResize(id string) { m.emit(Event{Type: EventResize, ID: id}) }

// NotifyResizeEnd stores the rendered rect and emits resizeEnd.
func (m *Manager) NotifyResizeEnd(id string) {
	m.mu.Lock()
	m.syncRectLocked(id)
	m.emitLocked(Event{Type: EventResizeEnd, ID: id})
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	m.emitLocked(ev)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) syncRectLocked(id string) {
	r, ok := m.records[id]
	if !ok || r.minimized || r.closing {
		return
	}
	r.rect = r.currentRect()
}
