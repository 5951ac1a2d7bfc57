// Package tui is the terminal front-end of the desktop. Each terminal cell
// stands for a CellWidth x CellHeight block of container pixels; windows
// are drawn from their live rects in z order and mouse input is fed to a
// per-window interact.Controller.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"github.com/kilodown/deskwm/internal/config"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/interact"
	"github.com/kilodown/deskwm/internal/logging"
	"github.com/kilodown/deskwm/internal/store"
)

// Model is the bubbletea model of one desktop.
type Model struct {
	mgr     *desktop.Manager
	surface *desktop.StaticSurface
	content *contentRenderer
	sched   desktop.Scheduler
	cfg     *config.Config
	keys    *config.KeybindRegistry
	store   store.Store
	logger  *log.Logger
	styles  *styleSet
	now     func() time.Time

	width, height int

	mu          sync.Mutex
	windows     []desktop.Window
	changed     chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()

	controllers []*interact.Controller
	active      *interact.Controller
	lastClick   click
	created     int
	showHelp    bool
	status      string
}

// click remembers the last title-bar press for double-click detection.
type click struct {
	id string
	at time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithConfig sets the desktop configuration and keybindings.
func WithConfig(cfg *config.Config) Option {
	return func(m *Model) {
		if cfg != nil {
			m.cfg = cfg
		}
	}
}

// WithStore enables the save and load snapshot actions.
func WithStore(s store.Store) Option {
	return func(m *Model) { m.store = s }
}

// WithScheduler replaces the wall-clock timers of the desktop.
func WithScheduler(s desktop.Scheduler) Option {
	return func(m *Model) { m.sched = s }
}

// WithSize sets the terminal size used until the first resize message.
func WithSize(width, height int) Option {
	return func(m *Model) { m.width, m.height = width, height }
}

// ConfigReloadedMsg carries a configuration loaded after startup.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type windowsChangedMsg struct{}

type statusClearMsg struct{ text string }

// New creates a model with an empty desktop.
func New(opts ...Option) (*Model, error) {
	m := &Model{
		content: newContentRenderer(),
		sched:   desktop.ClockScheduler{},
		cfg:     config.DefaultConfig(),
		logger:  logging.New("tui"),
		now:     time.Now,
		width:   80,
		height:  24,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.styles = m.stylesFor(m.cfg.Theme)
	m.surface = desktop.NewStaticSurface(0, 0)
	m.resize(m.width, m.height)

	mgr, err := desktop.New(m.surface,
		desktop.WithConfig(m.cfg.ForTerminal()),
		desktop.WithScheduler(m.sched),
		desktop.WithRenderer(m.content),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create desktop: %w", err)
	}
	m.mgr = mgr
	m.keys = config.NewKeybindRegistry(m.cfg)
	m.unsubscribe = mgr.Subscribe(m.onWindows)
	return m, nil
}

// Manager returns the desktop driven by the model.
func (m *Model) Manager() *desktop.Manager { return m.mgr }

// Interacting reports whether a pointer gesture is in progress. Only then
// do motion events matter.
func (m *Model) Interacting() bool { return m.active != nil }

// Close stops listening to the desktop and cancels its timers.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.unsubscribe()
		for _, c := range m.controllers {
			c.Teardown()
		}
		m.controllers = nil
		m.mgr.Close()
	})
}

// Reconfigure applies a reloaded configuration to future operations. Window
// sizes reach the desktop scaled for the terminal.
func (m *Model) Reconfigure(cfg *config.Config) {
	if cfg.Theme != m.cfg.Theme {
		m.styles = m.stylesFor(cfg.Theme)
	}
	m.cfg = cfg
	m.keys = config.NewKeybindRegistry(cfg)
	scaled := cfg.ForTerminal()
	m.mgr.Reconfigure(scaled)
	for _, c := range m.controllers {
		c.Reconfigure(scaled)
	}
	m.logger.Debug("configuration applied")
}

func (m *Model) onWindows(ws []desktop.Window) {
	m.mu.Lock()
	m.windows = ws
	m.mu.Unlock()

	select {
	case m.changed <- struct{}{}:
	default:
	}
}

func (m *Model) snapshot() []desktop.Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows
}

// waitForChange wakes the program when timers change the desktop.
func (m *Model) waitForChange() tea.Msg {
	select {
	case <-m.changed:
		return windowsChangedMsg{}
	case <-m.done:
		return nil
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	rows := max(height-1, 1)
	m.surface.Resize(float64(width*CellWidth), float64(rows*CellHeight))
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForChange
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)

	case tea.MouseClickMsg:
		m.handleMouseDown(msg.Mouse())

	case tea.MouseMotionMsg:
		m.handleMouseMove(msg.Mouse())

	case tea.MouseReleaseMsg:
		m.handleMouseUp(msg.Mouse())

	case windowsChangedMsg:
		return m, m.waitForChange

	case ConfigReloadedMsg:
		m.Reconfigure(msg.Config)
		return m, m.flash("config reloaded")

	case statusClearMsg:
		if m.status == msg.text {
			m.status = ""
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	var view tea.View
	view.SetContent(m.render())
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion
	return view
}

// flash shows text in the taskbar for a few seconds.
func (m *Model) flash(text string) tea.Cmd {
	m.status = text
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{text: text}
	})
}

func (m *Model) helpView() string {
	var sb strings.Builder
	for i, section := range config.GetKeybindings(m.keys) {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.styles.helpTitle.Render(section.Title))
		sb.WriteString("\n")
		for _, b := range section.Bindings {
			sb.WriteString(m.styles.helpKey.Render(b.Key))
			sb.WriteString(b.Description)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.helpHint.Render("esc or ? to close"))
	return m.styles.helpBox.Render(sb.String())
}
