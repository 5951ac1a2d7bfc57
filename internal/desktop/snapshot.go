package desktop

import (
	"sort"

	"github.com/kilodown/deskwm/internal/geometry"
)

// SnapshotEntry is the serialisable state of one window.
type SnapshotEntry struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Rect        geometry.Rect  `json:"rect" yaml:"rect"`
	ZIndex      int            `json:"zIndex" yaml:"zIndex"`
	IsMinimized bool           `json:"isMinimized" yaml:"isMinimized"`
	IsMaximized bool           `json:"isMaximized" yaml:"isMaximized"`
	IsTop       bool           `json:"isTop" yaml:"isTop"`
	IsFocused   bool           `json:"isFocused" yaml:"isFocused"`
	CustomData  any            `json:"customData,omitempty" yaml:"customData,omitempty"`
	RestoreRect *geometry.Rect `json:"restoreRect,omitempty" yaml:"restoreRect,omitempty"`
}

// Snapshot is the state of every window, in creation order.
type Snapshot []SnapshotEntry

// CaptureSnapshot records every window. Rects are read from what is
// rendered, except for minimized and maximized windows which keep their
// stored rect.
func (m *Manager) CaptureSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := make(Snapshot, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		e := SnapshotEntry{
			ID:          r.id,
			Title:       r.title,
			Rect:        r.currentRect(),
			ZIndex:      r.zIndex,
			IsMinimized: r.minimized,
			IsMaximized: r.maximized,
			IsTop:       r.focused,
			IsFocused:   r.focused,
			CustomData:  r.customData,
		}
		if r.preMax != nil {
			saved := *r.preMax
			e.RestoreRect = &saved
		}
		snap = append(snap, e)
	}
	return snap
}

// ApplySnapshot reconciles the desktop with snap. Windows missing from it
// are closed, existing ones are updated, and the rest are created with
// content from factory. Stacking, minimize, maximize and focus are then
// taken from the snapshot, and focus history is rebuilt by z-order.
func (m *Manager) ApplySnapshot(snap Snapshot, factory ContentFactory) {
	m.mu.Lock()
	m.applyLocked(snap, factory)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) applyLocked(snap Snapshot, factory ContentFactory) {
	wanted := make(map[string]bool, len(snap))
	for _, e := range snap {
		if e.ID != "" {
			wanted[e.ID] = true
		}
	}
	for _, id := range append([]string(nil), m.order...) {
		if !wanted[id] {
			m.closeLocked(id)
		}
	}

	m.focusHistory = m.focusHistory[:0]
	maxZ := m.window.ZIndexFloor
	var focused *record

	for _, e := range snap {
		if e.ID == "" {
			m.logger.Warn("skipping snapshot entry without id", "title", e.Title)
			continue
		}

		r, ok := m.records[e.ID]
		if ok {
			if r.closing {
				m.reviveLocked(r)
			}
			title := e.Title
			m.updateLocked(e.ID, Update{
				Title:      &title,
				Rect:       ptr(geometry.Partial(e.Rect)),
				CustomData: e.CustomData,
			})
		} else {
			var content any
			if factory != nil {
				content = factory(e.ID, e.CustomData)
			}
			rect := e.Rect
			m.createLocked(CreateOptions{
				ID:         e.ID,
				Title:      e.Title,
				Rect:       &rect,
				CustomData: e.CustomData,
				Content:    content,
			}, true)
			r = m.records[e.ID]
		}

		r.zIndex = e.ZIndex
		r.minimized = e.IsMinimized
		r.maximized = e.IsMaximized
		r.preMax = nil
		if e.RestoreRect != nil {
			saved := *e.RestoreRect
			r.preMax = &saved
		}
		r.focused = false
		if e.IsFocused && !e.IsMinimized && (focused == nil || r.zIndex > focused.zIndex) {
			focused = r
		}
		r.syncLive()

		if r.zIndex > maxZ {
			maxZ = r.zIndex
		}
		if !contains(m.focusHistory, r.id) {
			m.focusHistory = append(m.focusHistory, r.id)
		}
	}

	if focused != nil {
		focused.focused = true
	}

	// Windows still closing keep their z until destroyed; never hand it out again.
	for _, r := range m.records {
		if r.zIndex > maxZ {
			maxZ = r.zIndex
		}
	}
	m.highestZ = maxZ

	sort.SliceStable(m.focusHistory, func(i, j int) bool {
		return m.records[m.focusHistory[i]].zIndex < m.records[m.focusHistory[j]].zIndex
	})

	m.notifyLocked()
}

// reviveLocked cancels a pending close for a window the snapshot keeps.
func (m *Manager) reviveLocked(r *record) {
	if r.closeTimer != nil {
		r.closeTimer.Stop()
		r.closeTimer = nil
	}
	r.closing = false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
