package desktop

import (
	"math"

	"github.com/google/uuid"
	"github.com/kilodown/deskwm/internal/geometry"
)

// CreateWindow adds a window and focuses it. If opts.ID already exists the
// existing window is un-minimized and brought to front instead.
func (m *Manager) CreateWindow(opts CreateOptions) string {
	m.mu.Lock()
	id := m.createLocked(opts, false)
	m.mu.Unlock()
	m.flush()
	return id
}

func (m *Manager) createLocked(opts CreateOptions, suppressFocus bool) string {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	if existing, ok := m.records[id]; ok {
		existing.minimized = false
		m.bringToFrontLocked(id)
		return id
	}

	title := opts.Title
	if title == "" {
		title = "Window"
	}
	actions := AllActions
	if opts.Actions != nil {
		actions = *opts.Actions
	}

	var rect geometry.Rect
	if opts.Rect != nil {
		rect = *opts.Rect
	} else {
		rect = m.initialRectLocked(opts)
	}
	rect = geometry.ClampRect(rect)

	r := &record{
		id:         id,
		title:      title,
		rect:       rect,
		live:       rect,
		customData: opts.CustomData,
		content:    opts.Content,
		actions:    actions,
		onClose:    opts.OnClose,
	}
	m.records[id] = r
	m.order = append(m.order, id)

	props := r.props()
	m.queue = append(m.queue, func() { m.renderer.Render(id, props) })

	if suppressFocus {
		m.highestZ++
		r.zIndex = m.highestZ
		m.focusHistory = append(m.focusHistory, id)
		m.notifyLocked()
	} else {
		m.bringToFrontLocked(id)
	}

	m.logger.Debug("window created", "id", id, "title", title)
	m.emitLocked(Event{Type: EventCreate, ID: id, CustomData: opts.CustomData})
	return id
}

// initialRectLocked sizes a window in pixels, places it, and converts the
// result to percent.
func (m *Manager) initialRectLocked(opts CreateOptions) geometry.Rect {
	size := m.metrics()

	w := m.window.DefaultWidth
	if opts.Width != nil {
		w = *opts.Width
	}
	h := m.window.DefaultHeight
	if opts.Height != nil {
		h = *opts.Height
	}
	w = math.Min(w, size.Width)
	h = math.Min(h, size.Height)

	var left, top float64
	if opts.Left != nil && opts.Top != nil {
		left, top = *opts.Left, *opts.Top
	} else {
		left, top = m.smartPositionLocked(w, h)
	}

	if left+w > size.Width {
		left = math.Max(0, size.Width-w)
	}
	if top+h > size.Height {
		top = math.Max(0, size.Height-h)
	}

	return geometry.ToPercent(geometry.PixelRect{Left: left, Top: top, Width: w, Height: h}, size)
}

// UpdateWindow applies a partial update. Pixel rects are converted against
// the current container size. Unknown and closing ids are ignored.
func (m *Manager) UpdateWindow(id string, u Update) {
	m.mu.Lock()
	if r, ok := m.records[id]; ok && !r.closing {
		m.updateLocked(id, u)
	}
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) updateLocked(id string, u Update) {
	r, ok := m.records[id]
	if !ok {
		return
	}

	if u.Title != nil {
		r.title = *u.Title
	}
	if u.CustomData != nil {
		r.customData = u.CustomData
	}
	if u.Content != nil {
		r.content = u.Content
	}
	if u.Rect != nil {
		p := *u.Rect
		if u.Unit == Pixels {
			p = geometry.PartialToPercent(p, m.metrics())
		}
		r.rect = p.Merge(r.rect)
		r.syncLive()
	}

	props := r.props()
	m.queue = append(m.queue, func() { m.renderer.Render(id, props) })
	m.notifyLocked()
}

// UpdateWindowID renames a window. It fails if newID is taken or currentID
// does not exist or is closing; renaming to the same id succeeds without
// change.
func (m *Manager) UpdateWindowID(currentID, newID string) bool {
	m.mu.Lock()
	ok := m.renameLocked(currentID, newID)
	m.mu.Unlock()
	m.flush()
	return ok
}

func (m *Manager) renameLocked(currentID, newID string) bool {
	if currentID == newID {
		return true
	}
	if _, taken := m.records[newID]; taken {
		m.logger.Warn("cannot update window id, target exists", "id", currentID, "target", newID)
		return false
	}
	r, ok := m.records[currentID]
	if !ok {
		m.logger.Warn("cannot update window id, window not found", "id", currentID)
		return false
	}
	if r.closing {
		m.logger.Debug("cannot update window id, window is closing", "id", currentID)
		return false
	}

	r.id = newID
	delete(m.records, currentID)
	m.records[newID] = r
	for i, v := range m.order {
		if v == currentID {
			m.order[i] = newID
		}
	}

	for i, h := range m.focusHistory {
		if h == currentID {
			m.focusHistory[i] = newID
		}
	}

	props := r.props()
	m.queue = append(m.queue, func() {
		m.renderer.Unmount(currentID)
		m.renderer.Render(newID, props)
	})
	m.emitLocked(Event{Type: EventIDUpdate, OriginalID: currentID, NewID: newID})
	m.notifyLocked()
	return true
}

// MinimizeWindow hides a window, persisting its rendered rect. If it was
// focused, focus moves to the previous window after the animation.
func (m *Manager) MinimizeWindow(id string) {
	m.mu.Lock()
	m.minimizeLocked(id)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) minimizeLocked(id string) {
	r, ok := m.records[id]
	if !ok || r.closing {
		return
	}
	if !r.minimized {
		r.rect = r.currentRect()
	}
	wasFocused := r.focused
	r.minimized = true
	r.focused = false
	m.notifyLocked()

	if wasFocused {
		m.scheduleLocked(m.window.AnimationDuration.Duration, func() {
			m.focusNextActiveLocked(id)
		})
	}
}

// ToggleMaximize maximizes or restores. Closing and minimized windows are ignored.
func (m *Manager) ToggleMaximize(id string) {
	m.mu.Lock()
	if r, ok := m.records[id]; ok && !r.closing && !r.minimized {
		if r.maximized {
			m.restoreLocked(id, nil)
		} else {
			m.maximizeLocked(id)
		}
	}
	m.mu.Unlock()
	m.flush()
}

// MaximizeWindow fills the container, remembering the current rect.
// Closing and minimized windows are ignored.
func (m *Manager) MaximizeWindow(id string) {
	m.mu.Lock()
	m.maximizeLocked(id)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) maximizeLocked(id string) {
	r, ok := m.records[id]
	if !ok || r.closing || r.minimized {
		return
	}
	saved := r.rect
	r.preMax = &saved
	r.maximized = true
	m.updateLocked(id, Update{Rect: ptr(geometry.Partial(geometry.Full))})
}

// RestoreWindow leaves maximize. The window returns to target, or the rect
// saved at maximize, or the configured fallback. Closing and minimized
// windows are ignored.
func (m *Manager) RestoreWindow(id string, target *geometry.Rect) {
	m.mu.Lock()
	m.restoreLocked(id, target)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) restoreLocked(id string, target *geometry.Rect) {
	r, ok := m.records[id]
	if !ok || r.closing || r.minimized {
		return
	}
	to := m.window.RestoreFallback
	switch {
	case target != nil:
		to = *target
	case r.preMax != nil:
		to = *r.preMax
	}
	r.maximized = false
	r.preMax = nil
	m.updateLocked(id, Update{Rect: ptr(geometry.Partial(to))})
}

// CloseWindow starts the two-phase close: the window is flagged closing
// now and destroyed after the animation. Repeated calls are ignored.
func (m *Manager) CloseWindow(id string) {
	m.mu.Lock()
	m.closeLocked(id)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) closeLocked(id string) {
	r, ok := m.records[id]
	if !ok || r.closing {
		return
	}
	r.closing = true
	r.focused = false
	m.notifyLocked()

	// The timer follows the record so a rename before it fires is honoured.
	r.closeTimer = m.scheduleLocked(m.window.AnimationDuration.Duration, func() {
		m.finalizeLocked(r)
	})
}

func (m *Manager) finalizeLocked(r *record) {
	id := r.id
	if m.records[id] != r {
		return
	}
	r.closeTimer = nil

	delete(m.records, id)
	m.order = remove(m.order, id)
	m.focusHistory = remove(m.focusHistory, id)
	m.queue = append(m.queue, func() { m.renderer.Unmount(id) })

	if len(m.records) > 0 {
		m.focusNextActiveLocked(id)
	} else {
		m.highestZ = m.window.ZIndexFloor
	}
	m.notifyLocked()
	m.emitLocked(Event{Type: EventClose, ID: id})

	if r.onClose != nil {
		m.queue = append(m.queue, r.onClose)
	}
	m.logger.Debug("window destroyed", "id", id)
}

// BringToFront focuses a window, un-minimizing it and raising it above
// every other window. Closing windows are ignored.
func (m *Manager) BringToFront(id string) {
	m.mu.Lock()
	m.bringToFrontLocked(id)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) bringToFrontLocked(id string) {
	w, ok := m.records[id]
	if !ok || w.closing {
		return
	}
	w.minimized = false

	m.focusHistory = append(remove(m.focusHistory, id), id)

	if w.zIndex != m.highestZ {
		m.highestZ++
		w.zIndex = m.highestZ
	}
	for _, r := range m.records {
		r.focused = r == w && !r.closing
	}

	m.notifyLocked()
	m.emitLocked(Event{Type: EventFocus, ID: id})
}

// focusNextActiveLocked focuses the most recently focused window that is
// neither excludeID, minimized nor closing.
func (m *Manager) focusNextActiveLocked(excludeID string) {
	for i := len(m.focusHistory) - 1; i >= 0; i-- {
		candidate := m.focusHistory[i]
		if candidate == excludeID {
			continue
		}
		if r, ok := m.records[candidate]; ok && !r.minimized && !r.closing {
			m.bringToFrontLocked(candidate)
			return
		}
	}
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
