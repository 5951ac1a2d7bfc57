package desktop

import (
	"github.com/kilodown/deskwm/internal/geometry"
)

// Actions lists which title-bar actions a window offers.
type Actions struct {
	CanMinimize bool `json:"canMinimize"`
	CanMaximize bool `json:"canMaximize"`
	CanResize   bool `json:"canResize"`
}

// AllActions enables every action.
var AllActions = Actions{CanMinimize: true, CanMaximize: true, CanResize: true}

// Window is a read-only view of a window record handed to subscribers.
type Window struct {
	ID    string
	Title string
	// Rect is the authoritative stored rectangle.
	Rect geometry.Rect
	// Live is what is currently rendered; it leads Rect during a gesture.
	Live       geometry.Rect
	ZIndex     int
	Focused    bool
	Minimized  bool
	Maximized  bool
	Closing    bool
	CustomData any
	Content    any
	Actions    Actions
}

// Visible reports whether the window is drawn on the surface.
func (w Window) Visible() bool { return !w.Minimized }

// Unit selects how an update rect is interpreted.
type Unit int

const (
	Percent Unit = iota
	Pixels
)

// CreateOptions describes a new window. Without Rect, the window is sized
// from Width/Height (pixels, default 800x600) and placed at Left/Top when
// both are set, or by smart placement otherwise.
type CreateOptions struct {
	ID         string
	Title      string
	Content    any
	Rect       *geometry.Rect
	Width      *float64
	Height     *float64
	Left       *float64
	Top        *float64
	CustomData any
	Actions    *Actions
	// OnClose runs once after the window is destroyed.
	OnClose func()
}

// Update is a partial change to a window. Nil fields are left alone.
type Update struct {
	Title      *string
	Rect       *geometry.PartialRect
	Unit       Unit
	CustomData any
	Content    any
}

// Props is what a Renderer receives for a window.
type Props struct {
	WindowID   string
	Title      string
	Rect       geometry.Rect
	Content    any
	CustomData any
	Actions    Actions
}

// Renderer mounts window content. The manager never inspects Content.
type Renderer interface {
	Render(id string, props Props)
	Unmount(id string)
}

// ContentFactory rebuilds content for a window restored from a snapshot.
type ContentFactory func(id string, customData any) any

type nopRenderer struct{}

func (nopRenderer) Render(string, Props) {}
func (nopRenderer) Unmount(string)       {}

// record is the manager's mutable window state.
type record struct {
	id         string
	title      string
	rect       geometry.Rect
	live       geometry.Rect
	zIndex     int
	focused    bool
	minimized  bool
	maximized  bool
	preMax     *geometry.Rect
	closing    bool
	customData any
	content    any
	actions    Actions
	onClose    func()

	// interacting is set while a pointer gesture owns the live rect.
	interacting bool
	closeTimer  Timer
}

func (r *record) view() Window {
	return Window{
		ID:         r.id,
		Title:      r.title,
		Rect:       r.rect,
		Live:       r.live,
		ZIndex:     r.zIndex,
		Focused:    r.focused,
		Minimized:  r.minimized,
		Maximized:  r.maximized,
		Closing:    r.closing,
		CustomData: r.customData,
		Content:    r.content,
		Actions:    r.actions,
	}
}

func (r *record) props() Props {
	return Props{
		WindowID:   r.id,
		Title:      r.title,
		Rect:       r.rect,
		Content:    r.content,
		CustomData: r.customData,
		Actions:    r.actions,
	}
}

// syncLive makes the rendered rect follow the stored one, unless a gesture
// currently owns it.
func (r *record) syncLive() {
	if r.interacting {
		return
	}
	if r.maximized {
		r.live = geometry.Full
		return
	}
	r.live = r.rect
}

// currentRect is the rect a snapshot or minimize should persist.
func (r *record) currentRect() geometry.Rect {
	if r.minimized || r.maximized {
		return r.rect
	}
	return r.live
}
