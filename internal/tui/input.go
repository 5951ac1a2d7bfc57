package tui

import (
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/kilodown/deskwm/internal/config"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/interact"
	"github.com/kilodown/deskwm/internal/store"
)

// mousePointer is the pointer id of the terminal mouse.
const mousePointer = 1

// pointerAt converts a cell to container pixels at the cell centre.
func pointerAt(x, y int) (float64, float64) {
	return float64(x*CellWidth + CellWidth/2), float64(y*CellHeight + CellHeight/2)
}

func mouseButton(b tea.MouseButton) interact.Button {
	switch b {
	case tea.MouseRight:
		return interact.ButtonSecondary
	case tea.MouseMiddle:
		return interact.ButtonMiddle
	default:
		return interact.ButtonPrimary
	}
}

// controllerFor returns the controller of window id, attaching one on first
// use. Controllers of destroyed windows are dropped.
func (m *Model) controllerFor(id string) *interact.Controller {
	live := m.controllers[:0]
	var found *interact.Controller
	for _, c := range m.controllers {
		cid := c.ID()
		if !m.mgr.HasWindowID(cid) {
			c.Teardown()
			continue
		}
		live = append(live, c)
		if cid == id {
			found = c
		}
	}
	m.controllers = live
	if found != nil {
		return found
	}

	c := interact.Attach(m.mgr, id, interact.WithConfig(m.cfg.ForTerminal()))
	m.controllers = append(m.controllers, c)
	return c
}

func (m *Model) handleMouseDown(mouse tea.Mouse) {
	if m.showHelp {
		return
	}
	if mouse.Y == m.height-1 {
		m.clickTaskbar(mouse.X)
		return
	}

	h := m.hitTest(mouse.X, mouse.Y)
	if h.id == "" {
		return
	}
	left := mouse.Button == tea.MouseLeft
	alt := mouse.Mod.Contains(tea.ModAlt)

	if left && !alt {
		switch h.part {
		case partMinimize:
			m.mgr.BringToFront(h.id)
			m.mgr.MinimizeWindow(h.id)
			return
		case partMaximize:
			m.mgr.BringToFront(h.id)
			m.mgr.ToggleMaximize(h.id)
			return
		case partClose:
			m.mgr.CloseWindow(h.id)
			return
		case partTitle:
			if m.doubleClick(h.id) {
				m.mgr.BringToFront(h.id)
				m.mgr.ToggleMaximize(h.id)
				return
			}
		}
	}

	target := interact.Content()
	switch {
	case alt:
		// maximized windows have no Alt grid; the press alt-moves from content
		if w, _ := m.mgr.Window(h.id); !w.Maximized {
			target = interact.AltCell(altCell(m.frameOf(w), mouse.X, mouse.Y))
		}
	case h.part == partEdge:
		target = interact.Edge(h.dir)
	case h.part == partTitle || h.part == partMinimize || h.part == partMaximize || h.part == partClose:
		target = interact.Title()
	}

	x, y := pointerAt(mouse.X, mouse.Y)
	c := m.controllerFor(h.id)
	if c.PointerDown(interact.PointerEvent{
		PointerID: mousePointer,
		X:         x,
		Y:         y,
		Button:    mouseButton(mouse.Button),
		Alt:       alt,
		Target:    target,
	}) {
		m.active = c
	}
}

// doubleClick records a title-bar press and reports whether it completes a
// double click on the same window.
func (m *Model) doubleClick(id string) bool {
	now := m.now()
	prev := m.lastClick
	if prev.id == id && now.Sub(prev.at) <= m.cfg.Interaction.DoubleClick.Duration {
		m.lastClick = click{}
		return true
	}
	m.lastClick = click{id: id, at: now}
	return false
}

func (m *Model) handleMouseMove(mouse tea.Mouse) {
	if m.active == nil {
		return
	}
	x, y := pointerAt(mouse.X, mouse.Y)
	m.active.PointerMove(interact.PointerEvent{PointerID: mousePointer, X: x, Y: y, Button: mouseButton(mouse.Button)})
}

func (m *Model) handleMouseUp(mouse tea.Mouse) {
	if m.active == nil {
		return
	}
	// a press that became a drag does not count toward a double click
	if m.active.State() != interact.Armed {
		m.lastClick = click{}
	}
	x, y := pointerAt(mouse.X, mouse.Y)
	m.active.PointerUp(interact.PointerEvent{PointerID: mousePointer, X: x, Y: y, Button: mouseButton(mouse.Button)})
	m.active = nil
}

func (m *Model) clickTaskbar(x int) {
	for _, t := range tasks(m.snapshot()) {
		if x >= t.x0 && x < t.x1 {
			m.mgr.BringToFront(t.id)
			return
		}
	}
}

// focusEntry focuses the n-th taskbar entry, counting from 1.
func (m *Model) focusEntry(n int) {
	entries := tasks(m.snapshot())
	if n >= 1 && n <= len(entries) {
		m.mgr.BringToFront(entries[n-1].id)
	}
}

func (m *Model) focused() (desktop.Window, bool) {
	for _, w := range m.snapshot() {
		if w.Focused {
			return w, true
		}
	}
	return desktop.Window{}, false
}

// cycle focuses the taskbar entry step places away from the focused one.
func (m *Model) cycle(step int) {
	entries := tasks(m.snapshot())
	if len(entries) == 0 {
		return
	}
	cur := -1
	if w, ok := m.focused(); ok {
		for i, t := range entries {
			if t.id == w.ID {
				cur = i
			}
		}
	}
	if cur < 0 && step < 0 {
		cur = 0
	}
	next := ((cur+step)%len(entries) + len(entries)) % len(entries)
	m.mgr.BringToFront(entries[next].id)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	if m.showHelp {
		if key == "esc" || m.keys.GetAction(key) == config.ActionToggleHelp {
			m.showHelp = false
		}
		return nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		m.focusEntry(int(key[0] - '0'))
		return nil
	}

	action := m.keys.GetAction(key)
	if action == "" {
		return nil
	}
	m.logger.Debug("key action", "key", key, "action", action)

	switch action {
	case config.ActionQuit:
		return tea.Quit
	case config.ActionToggleHelp:
		m.showHelp = true
	case config.ActionNewWindow:
		m.created++
		id := fmt.Sprintf("window-%d", m.created)
		for m.mgr.HasWindowID(id) {
			m.created++
			id = fmt.Sprintf("window-%d", m.created)
		}
		m.mgr.CreateWindow(desktop.CreateOptions{
			ID:      id,
			Title:   fmt.Sprintf("Window %d", m.created),
			Content: placeholder(id, nil),
		})
	case config.ActionCloseWindow:
		if w, ok := m.focused(); ok {
			m.mgr.CloseWindow(w.ID)
		}
	case config.ActionMinimizeWindow:
		if w, ok := m.focused(); ok && w.Actions.CanMinimize {
			m.mgr.MinimizeWindow(w.ID)
		}
	case config.ActionToggleMaximize:
		if w, ok := m.focused(); ok && w.Actions.CanMaximize {
			m.mgr.ToggleMaximize(w.ID)
		}
	case config.ActionRestoreAll:
		for _, w := range m.snapshot() {
			if w.Minimized {
				m.mgr.BringToFront(w.ID)
			}
		}
	case config.ActionNextWindow:
		m.cycle(1)
	case config.ActionPrevWindow:
		m.cycle(-1)
	case config.ActionSaveSnapshot:
		return m.saveSnapshot()
	case config.ActionLoadSnapshot:
		return m.loadSnapshot()
	}
	return nil
}

func (m *Model) saveSnapshot() tea.Cmd {
	if m.store == nil {
		return m.flash("no snapshot store")
	}
	key := m.cfg.Storage.DefaultKey
	if err := m.store.Save(key, m.mgr.CaptureSnapshot()); err != nil {
		m.logger.Warn("save snapshot failed", "key", key, "err", err)
		return m.flash("save failed")
	}
	return m.flash("saved " + key)
}

func (m *Model) loadSnapshot() tea.Cmd {
	if m.store == nil {
		return m.flash("no snapshot store")
	}
	key := m.cfg.Storage.DefaultKey
	snap, err := m.store.Load(key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return m.flash("no snapshot " + key)
	case err != nil:
		m.logger.Warn("load snapshot failed", "key", key, "err", err)
		return m.flash("load failed")
	}
	m.mgr.ApplySnapshot(snap, placeholder)
	return m.flash("loaded " + key)
}
