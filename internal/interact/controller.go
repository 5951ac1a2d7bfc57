// Package interact implements the per-window pointer state machine. A
// Controller turns pointer down/move/up events into move and resize
// gestures and drives the window through its Host, which is normally a
// *desktop.Manager.
//
// States run Idle -> Armed -> Dragging|Resizing -> Idle. While Armed, no
// geometry changes until the pointer travels past the jitter threshold, so a
// click on the title bar never nudges the window.
package interact

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/kilodown/deskwm/internal/config"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/kilodown/deskwm/internal/logging"
)

// Host is the part of the window manager a Controller talks to. The
// controller never holds window state of its own between events; every
// event re-reads the latest record through Host.
type Host interface {
	BringToFront(id string)
	Window(id string) (desktop.Window, bool)
	ContainerMetrics() geometry.Size
	GlobalToLocal(clientX, clientY float64) geometry.Point
	SnapDelta(id string, candidate geometry.PixelRect, action desktop.Action) geometry.Delta
	SnapThreshold() float64
	LiveRect(id string) (geometry.PixelRect, bool)
	SetLiveRect(id string, px geometry.PixelRect)
	RestoreWindow(id string, target *geometry.Rect)
	BeginInteraction(id string)
	EndInteraction(id string)
	NotifyMoveStart(id string)
	NotifyMove(id string)
	NotifyMoveEnd(id string)
	NotifyResizeStart(id string)
	NotifyResize(id string)
	NotifyResizeEnd(id string)
	AddEventListener(t desktop.EventType, fn func(desktop.Event)) (remove func())
}

var _ Host = (*desktop.Manager)(nil)

// State is the gesture phase.
type State int

const (
	Idle State = iota
	Armed
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Capture routes every event of one pointer to the controller until the
// gesture ends.
type Capture struct {
	PointerID int
}

// Controller drives one window.
type Controller struct {
	host   Host
	cfg    config.InteractionConfig
	minW   float64
	minH   float64
	logger *log.Logger

	// idMu guards id and removers. Manager listeners only take idMu, so
	// they never wait on a gesture in progress.
	idMu     sync.RWMutex
	id       string
	removers []func()

	mu      sync.Mutex
	state   State
	action  desktop.Action
	capture *Capture
	began   bool
	startX  float64
	startY  float64
	start   geometry.PixelRect
	offsetX float64
	offsetY float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig takes interaction tunables and minimum window size from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(c *Controller) {
		if cfg == nil {
			return
		}
		c.cfg = cfg.Interaction
		c.minW = cfg.Window.MinWidth
		c.minH = cfg.Window.MinHeight
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New returns a controller for window id. It does not follow renames; use
// Attach for that.
func New(host Host, id string, opts ...Option) *Controller {
	defaults := config.DefaultConfig()
	c := &Controller{
		host:   host,
		id:     id,
		cfg:    defaults.Interaction,
		minW:   defaults.Window.MinWidth,
		minH:   defaults.Window.MinHeight,
		logger: logging.New("interact"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach returns a controller that re-keys itself when the window is
// renamed and stops listening once the window is destroyed. A gesture still
// armed on a destroyed window is dropped on its next pointer event.
func Attach(host Host, id string, opts ...Option) *Controller {
	c := New(host, id, opts...)
	rename := host.AddEventListener(desktop.EventIDUpdate, func(ev desktop.Event) {
		c.idMu.Lock()
		if ev.OriginalID == c.id {
			c.id = ev.NewID
		}
		c.idMu.Unlock()
	})
	closed := host.AddEventListener(desktop.EventClose, func(ev desktop.Event) {
		if ev.ID == c.ID() {
			c.detach()
		}
	})

	c.idMu.Lock()
	c.removers = []func(){rename, closed}
	c.idMu.Unlock()
	return c
}

// ID returns the window id the controller currently drives.
func (c *Controller) ID() string {
	c.idMu.RLock()
	defer c.idMu.RUnlock()
	return c.id
}

// State returns the gesture phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Action returns the gesture kind, or ActionNone while idle.
func (c *Controller) Action() desktop.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.action
}

// Captured returns the active capture token.
func (c *Controller) Captured() (Capture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return Capture{}, false
	}
	return *c.capture, true
}

// Reconfigure swaps the tunables used from the next event on.
func (c *Controller) Reconfigure(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	WithConfig(cfg)(c)
}

// PointerDown focuses the window and arms a gesture if the press lands on
// the title bar, a resize handle, or anywhere with Alt held. It returns
// false when the press should pass through to the window content.
func (c *Controller) PointerDown(ev PointerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.ID()
	before, ok := c.host.Window(id)
	c.host.BringToFront(id)
	// A minimized window only gets re-activated by the press.
	if !ok || before.Minimized || before.Closing {
		return false
	}
	w, ok := c.host.Window(id)
	if !ok {
		return false
	}
	// Another pointer already owns this window.
	if c.capture != nil {
		return false
	}

	t := ev.Target
	isHandle := t.Kind == TargetHandle
	isTitle := t.Kind == TargetTitleBar
	if !isHandle && !isTitle && !ev.Alt {
		return false
	}
	if w.Maximized && isHandle {
		return false
	}
	if ev.Button != ButtonPrimary && ev.Button != ButtonSecondary {
		return false
	}

	live, ok := c.host.LiveRect(id)
	if !ok {
		return false
	}
	local := c.host.GlobalToLocal(ev.X, ev.Y)
	c.start = live
	c.startX, c.startY = local.X, local.Y

	primary := ev.Button == ButtonPrimary || ev.Kind == PointerTouch
	grab := func() {
		if !w.Maximized {
			c.offsetX = c.startX - live.Left
			c.offsetY = c.startY - live.Top
		}
	}

	action := desktop.ActionNone
	switch {
	case isHandle && t.Handle == HandleAlt && t.Dir != "" && ev.Alt:
		switch ev.Button {
		case ButtonSecondary:
			action = t.Dir
		case ButtonPrimary:
			action = desktop.ActionMove
			grab()
		}
	case isHandle && t.Handle == HandleStandard && t.Dir != "":
		if primary && w.Actions.CanResize && !w.Maximized {
			action = t.Dir
		}
	case ev.Alt && ev.Button == ButtonPrimary:
		action = desktop.ActionAltMove
		grab()
	case isTitle:
		if primary {
			action = desktop.ActionMove
			grab()
		}
	}
	if action == desktop.ActionNone {
		return false
	}

	c.action = action
	c.state = Armed
	c.capture = &Capture{PointerID: ev.PointerID}
	c.logger.Debug("gesture armed", "id", id, "action", action, "pointer", ev.PointerID)
	return true
}

// PointerMove advances the gesture. Events from pointers other than the
// captured one are ignored.
func (c *Controller) PointerMove(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.owns(ev) {
		return
	}
	id := c.ID()
	w, ok := c.host.Window(id)
	if !ok {
		c.releaseLocked(id)
		return
	}
	if !c.began {
		c.host.BeginInteraction(id)
		c.began = true
	}

	size := c.host.ContainerMetrics()
	local := c.host.GlobalToLocal(ev.X, ev.Y)
	dx := local.X - c.startX
	dy := local.Y - c.startY

	if c.state == Armed {
		jitter := c.cfg.JitterThreshold
		if math.Abs(dx) <= jitter && math.Abs(dy) <= jitter {
			return
		}
		if w.Maximized && c.action.IsMove() {
			c.pullOffMaximize(id, local, size)
		}
		if c.action.IsMove() {
			c.state = Dragging
			c.host.NotifyMoveStart(id)
		} else {
			c.state = Resizing
			c.host.NotifyResizeStart(id)
		}
		c.logger.Debug("gesture started", "id", id, "state", c.state)
	}

	if c.action.IsMove() {
		c.move(id, local, size)
		return
	}
	// Resizing a maximized window is never allowed.
	if w.Maximized {
		return
	}
	c.resize(id, dx, dy, size)
}

// PointerUp ends the gesture. If the window actually moved or resized, the
// manager stores the rendered rect and emits the matching end event.
func (c *Controller) PointerUp(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.owns(ev) {
		return
	}
	id := c.ID()
	switch c.state {
	case Dragging:
		c.host.NotifyMoveEnd(id)
	case Resizing:
		c.host.NotifyResizeEnd(id)
	}
	c.releaseLocked(id)
}

// Teardown abandons any gesture without end events and stops following
// the window. The controller can still be driven afterwards but no longer
// tracks renames.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.releaseLocked(c.ID())
	c.mu.Unlock()
	c.detach()
}

func (c *Controller) detach() {
	c.idMu.Lock()
	removers := c.removers
	c.removers = nil
	c.idMu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

func (c *Controller) owns(ev PointerEvent) bool {
	return c.state != Idle && c.capture != nil && c.capture.PointerID == ev.PointerID
}

func (c *Controller) releaseLocked(id string) {
	if c.began {
		c.host.EndInteraction(id)
	}
	if c.state != Idle {
		c.logger.Debug("gesture released", "id", id, "state", c.state)
	}
	c.state = Idle
	c.action = desktop.ActionNone
	c.capture = nil
	c.began = false
}

// pullOffMaximize restores a maximized window at a reduced size under the
// pointer so the drag continues as an ordinary move.
func (c *Controller) pullOffMaximize(id string, local geometry.Point, size geometry.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	rw := math.Min(c.cfg.RestoreMaxWidth, size.Width*c.cfg.RestoreFraction)
	rh := math.Min(c.cfg.RestoreMaxHeight, size.Height*c.cfg.RestoreFraction)

	c.offsetX = local.X / size.Width * rw
	c.offsetY = local.Y

	left := clamp(local.X-c.offsetX, 0, size.Width-rw)
	top := clamp(local.Y-c.cfg.RestoreGrabOffset, 0, size.Height-rh)

	c.startX, c.startY = local.X, local.Y
	c.start = geometry.PixelRect{Left: left, Top: top, Width: rw, Height: rh}

	target := geometry.ToPercent(c.start, size)
	c.host.RestoreWindow(id, &target)
	c.host.SetLiveRect(id, c.start)
}

func (c *Controller) move(id string, local geometry.Point, size geometry.Size) {
	cur, ok := c.host.LiveRect(id)
	if !ok {
		return
	}
	left := local.X - c.offsetX
	top := local.Y - c.offsetY

	d := c.host.SnapDelta(id, geometry.PixelRect{Left: left, Top: top, Width: cur.Width, Height: cur.Height}, c.action)
	left += d.X
	top += d.Y

	snap := c.host.SnapThreshold()
	if d.X == 0 {
		left = edgeSnap(left, size.Width-cur.Width, snap)
	}
	if d.Y == 0 {
		top = edgeSnap(top, size.Height-cur.Height, snap)
	}
	// Keep the title bar reachable.
	if top < 0 {
		top = 0
	}

	c.host.SetLiveRect(id, geometry.PixelRect{Left: left, Top: top, Width: cur.Width, Height: cur.Height})
	c.host.NotifyMove(id)
}

func (c *Controller) resize(id string, dx, dy float64, size geometry.Size) {
	s := c.start
	a := c.action

	if a == desktop.ActionCenter {
		w := math.Max(c.minW, math.Abs(s.Width+dx*2))
		h := math.Max(c.minH, math.Abs(s.Height+dy*2))
		cx := s.Left + s.Width/2
		cy := s.Top + s.Height/2
		c.host.SetLiveRect(id, geometry.PixelRect{Left: cx - w/2, Top: cy - h/2, Width: w, Height: h})
		c.host.NotifyResize(id)
		return
	}

	east, south, west, north := a.Has('e'), a.Has('s'), a.Has('w'), a.Has('n')
	left, top, width, height := s.Left, s.Top, s.Width, s.Height
	if east {
		width = s.Width + dx
	}
	if south {
		height = s.Height + dy
	}
	if west {
		width = s.Width - dx
		left = s.Left + dx
	}
	if north {
		height = s.Height - dy
		top = s.Top + dy
	}

	d := c.host.SnapDelta(id, geometry.PixelRect{Left: left, Top: top, Width: width, Height: height}, a)
	if east {
		width += d.X
	}
	if south {
		height += d.Y
	}
	if west {
		left += d.X
		width -= d.X
	}
	if north {
		top += d.Y
		height -= d.Y
	}

	// Container edges, absorbing the offset so the far edge stays put.
	snap := c.host.SnapThreshold()
	if west && math.Abs(left) < snap {
		width += left
		left = 0
	}
	if north && math.Abs(top) < snap {
		height += top
		top = 0
	}
	if east && math.Abs(left+width-size.Width) < snap {
		width = size.Width - left
	}
	if south && math.Abs(top+height-size.Height) < snap {
		height = size.Height - top
	}

	width = math.Max(width, c.minW)
	height = math.Max(height, c.minH)
	if west {
		left = s.Left + s.Width - width
	}
	if north {
		top = s.Top + s.Height - height
	}

	c.host.SetLiveRect(id, geometry.PixelRect{Left: left, Top: top, Width: width, Height: height})
	c.host.NotifyResize(id)
}

// edgeSnap pulls v to 0 or limit when it is within threshold of either.
func edgeSnap(v, limit, threshold float64) float64 {
	if limit <= 0 {
		return v
	}
	if math.Abs(v) < threshold {
		return 0
	}
	if math.Abs(v-limit) < threshold {
		return limit
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
