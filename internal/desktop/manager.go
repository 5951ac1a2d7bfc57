// Package desktop owns the state of a set of floating windows inside a
// container surface: their rectangles, stacking order, focus, minimize and
// maximize flags, and the two-phase close. Rectangles are stored in percent
// of the container so they survive resizes; pixel values are always derived
// from the surface at the time of use.
//
// All methods are safe for concurrent use. Subscribers and event listeners
// run outside the manager's lock and may call back into it.
package desktop

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kilodown/deskwm/internal/config"
	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/kilodown/deskwm/internal/logging"
)

// ErrNoContainer is returned by New without a surface.
var ErrNoContainer = errors.New("desktop: container surface is required")

// Manager is the single owner of all window records.
type Manager struct {
	mu sync.Mutex

	surface   Surface
	window    config.WindowConfig
	placement config.PlacementConfig
	snapDist  float64
	sched     Scheduler
	renderer  Renderer
	logger    *log.Logger

	records map[string]*record
	// order is creation order; a rename keeps the position.
	order        []string
	focusHistory []string
	highestZ     int

	subscribers     map[int]func([]Window)
	subscriberOrder []int
	listeners       map[EventType]map[int]func(Event)
	listenerOrder   map[EventType][]int
	nextToken       int

	queue    []func()
	flushing bool

	timers   map[int]Timer
	timerSeq int
	closed   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig applies window, placement and snapping settings.
func WithConfig(cfg *config.Config) Option {
	return func(m *Manager) {
		if cfg == nil {
			return
		}
		m.window = cfg.Window
		m.placement = cfg.Placement
		m.snapDist = cfg.Interaction.SnapThreshold
	}
}

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithRenderer sets the content renderer.
func WithRenderer(r Renderer) Option {
	return func(m *Manager) { m.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a manager for surface.
func New(surface Surface, opts ...Option) (*Manager, error) {
	if surface == nil {
		return nil, ErrNoContainer
	}

	defaults := config.DefaultConfig()
	m := &Manager{
		surface:       surface,
		window:        defaults.Window,
		placement:     defaults.Placement,
		snapDist:      defaults.Interaction.SnapThreshold,
		sched:         ClockScheduler{},
		renderer:      nopRenderer{},
		logger:        logging.New("desktop"),
		records:       map[string]*record{},
		subscribers:   map[int]func([]Window){},
		listeners:     map[EventType]map[int]func(Event){},
		listenerOrder: map[EventType][]int{},
		timers:        map[int]Timer{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.window.ZIndexFloor <= 0 {
		m.window.ZIndexFloor = config.DefaultZIndexFloor
	}
	m.highestZ = m.window.ZIndexFloor
	return m, nil
}

// Reconfigure swaps the tunables used by future operations.
func (m *Manager) Reconfigure(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	floor := m.window.ZIndexFloor
	WithConfig(cfg)(m)
	if m.window.ZIndexFloor <= 0 {
		m.window.ZIndexFloor = floor
	}
	// A new floor takes effect once the desktop is empty.
	if len(m.records) == 0 {
		m.highestZ = m.window.ZIndexFloor
	}
}

// Close cancels pending timers. Windows that were closing are left as they are.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}

// ContainerBounds measures the surface now.
func (m *Manager) ContainerBounds() geometry.Bounds {
	return m.surface.Bounds()
}

// ContainerMetrics returns the surface size in pixels.
func (m *Manager) ContainerMetrics() geometry.Size {
	return m.surface.Bounds().Size()
}

// GlobalToLocal converts client coordinates to container-local pixels.
func (m *Manager) GlobalToLocal(clientX, clientY float64) geometry.Point {
	return m.surface.Bounds().ToLocal(clientX, clientY)
}

// PixelsToPercent converts a container-local pixel rect to percent.
func (m *Manager) PixelsToPercent(r geometry.PixelRect) geometry.Rect {
	return geometry.ToPercent(r, m.ContainerMetrics())
}

// ClampRect keeps a positioned partial rect inside the container.
func (m *Manager) ClampRect(p geometry.PartialRect) geometry.PartialRect {
	return geometry.ClampPartial(p)
}

// SnapThreshold is the neighbour snapping distance in pixels.
func (m *Manager) SnapThreshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapDist
}

// HasWindowID reports whether a window with id exists, closing or not.
func (m *Manager) HasWindowID(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok
}

// Window returns the current view of window id.
func (m *Manager) Window(id string) (Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return Window{}, false
	}
	return r.view(), true
}

// Windows returns every window in creation order.
func (m *Manager) Windows() []Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewsLocked()
}

// FocusHistory returns window ids from least to most recently focused.
func (m *Manager) FocusHistory() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.focusHistory...)
}

// HighestZ returns the current top of the stacking counter.
func (m *Manager) HighestZ() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highestZ
}

func (m *Manager) viewsLocked() []Window {
	views := make([]Window, 0, len(m.order))
	for _, id := range m.order {
		views = append(views, m.records[id].view())
	}
	return views
}

func (m *Manager) metrics() geometry.Size {
	return m.surface.Bounds().Size()
}

// scheduleLocked runs f under the manager lock after d, then flushes.
func (m *Manager) scheduleLocked(d time.Duration, f func()) Timer {
	if m.closed {
		return nil
	}
	m.timerSeq++
	seq := m.timerSeq
	t := m.sched.AfterFunc(d, func() {
		m.mu.Lock()
		if _, ok := m.timers[seq]; !ok {
			m.mu.Unlock()
			return
		}
		delete(m.timers, seq)
		f()
		m.mu.Unlock()
		m.flush()
	})
	m.timers[seq] = t
	return stoppable{m: m, seq: seq, t: t}
}

// stoppable forgets the timer when stopped so a late fire is ignored.
type stoppable struct {
	m   *Manager
	seq int
	t   Timer
}

// Stop must be called with the manager lock held.
func (s stoppable) Stop() bool {
	delete(s.m.timers, s.seq)
	return s.t.Stop()
}
