package tape

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kilodown/deskwm/internal/config"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/kilodown/deskwm/internal/interact"
	"github.com/kilodown/deskwm/internal/logging"
	"github.com/kilodown/deskwm/internal/store"
)

// rectTolerance is how far an Expect rect may be off, in percent.
const rectTolerance = 0.01

// ErrExpectation is wrapped by failed Expect commands.
var ErrExpectation = errors.New("expectation failed")

// HeadlessRunner plays a script against a desktop with no screen. Pointer
// commands go through interact controllers exactly as mouse input would.
type HeadlessRunner struct {
	mgr      *desktop.Manager
	surface  *desktop.StaticSurface
	sched    *desktop.ManualScheduler
	cfg      *config.Config
	store    store.Store
	factory  desktop.ContentFactory
	realtime bool
	verbose  bool
	logger   *log.Logger

	controllers []*interact.Controller
	pressed     *interact.Controller
	pressedAlt  bool
	pressedKind interact.PointerKind
	pressedBtn  interact.Button
}

// RunnerOption configures a HeadlessRunner.
type RunnerOption func(*HeadlessRunner)

// WithRunnerConfig sets the desktop configuration.
func WithRunnerConfig(cfg *config.Config) RunnerOption {
	return func(r *HeadlessRunner) { r.cfg = cfg }
}

// WithStore enables Save and Load.
func WithStore(s store.Store) RunnerOption {
	return func(r *HeadlessRunner) { r.store = s }
}

// WithContentFactory builds content for created and loaded windows.
func WithContentFactory(f desktop.ContentFactory) RunnerOption {
	return func(r *HeadlessRunner) { r.factory = f }
}

// WithRealtime makes Sleep and @delays also wait on the wall clock.
func WithRealtime(on bool) RunnerOption {
	return func(r *HeadlessRunner) { r.realtime = on }
}

// WithVerbose logs every command at info level.
func WithVerbose(on bool) RunnerOption {
	return func(r *HeadlessRunner) { r.verbose = on }
}

// NewHeadlessRunner creates a runner with a 1600x1000 container. Timers run
// on a virtual clock advanced by Sleep and command delays.
func NewHeadlessRunner(opts ...RunnerOption) (*HeadlessRunner, error) {
	r := &HeadlessRunner{
		surface: desktop.NewStaticSurface(1600, 1000),
		sched:   desktop.NewManualScheduler(),
		cfg:     config.DefaultConfig(),
		logger:  logging.New("tape"),
	}
	for _, opt := range opts {
		opt(r)
	}

	mgr, err := desktop.New(r.surface,
		desktop.WithConfig(r.cfg),
		desktop.WithScheduler(r.sched),
	)
	if err != nil {
		return nil, fmt.Errorf("create desktop: %w", err)
	}
	r.mgr = mgr
	return r, nil
}

// Manager returns the desktop the runner drives.
func (r *HeadlessRunner) Manager() *desktop.Manager { return r.mgr }

// Close tears down controllers and the desktop.
func (r *HeadlessRunner) Close() {
	for _, c := range r.controllers {
		c.Teardown()
	}
	r.controllers = nil
	r.mgr.Close()
}

// Run executes all commands in order, stopping at the first error.
func (r *HeadlessRunner) Run(ctx context.Context, commands []Command) error {
	player := NewPlayer(commands)
	startTime := time.Now()

	if r.verbose {
		r.logger.Info("starting script", "commands", player.Total())
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd, ok := player.Next()
		if !ok {
			break
		}
		if r.verbose {
			r.logger.Info("executing", "step", player.Step(), "command", cmd.String())
		}
		if err := r.Exec(ctx, cmd); err != nil {
			return err
		}
	}

	if r.verbose {
		r.logger.Info("script finished",
			"commands", player.Total(),
			"duration", time.Since(startTime).Round(time.Millisecond),
		)
	}
	return nil
}

// Exec runs one command and then waits out its delay.
func (r *HeadlessRunner) Exec(ctx context.Context, cmd *Command) error {
	if err := r.exec(cmd); err != nil {
		return err
	}
	if cmd.Delay > 0 {
		return r.wait(ctx, cmd.Delay)
	}
	return nil
}

func (r *HeadlessRunner) exec(cmd *Command) error {
	switch cmd.Type {
	case CommandType_Sleep:
		// the delay is the sleep
		return nil

	case CommandType_Container:
		size, _ := cmd.Floats(0, 2)
		r.surface.Resize(size[0], size[1])
		return nil

	case CommandType_Create:
		return r.create(cmd)

	case CommandType_Save:
		if r.store == nil {
			return cmd.errorf("no snapshot store")
		}
		if err := r.store.Save(cmd.Args[0], r.mgr.CaptureSnapshot()); err != nil {
			return cmd.errorf("%v", err)
		}
		return nil

	case CommandType_Load:
		if r.store == nil {
			return cmd.errorf("no snapshot store")
		}
		snap, err := r.store.Load(cmd.Args[0])
		if err != nil {
			return cmd.errorf("%v", err)
		}
		r.mgr.ApplySnapshot(snap, r.factory)
		return nil

	case CommandType_Move:
		return r.pointerMove(cmd)

	case CommandType_Release:
		return r.pointerUp(cmd)

	case CommandType_Expect:
		return r.expect(cmd)
	}

	id := cmd.Args[0]
	if !r.mgr.HasWindowID(id) {
		return cmd.errorf("no window %q", id)
	}

	switch cmd.Type {
	case CommandType_Close:
		r.mgr.CloseWindow(id)
	case CommandType_Focus:
		r.mgr.BringToFront(id)
	case CommandType_Minimize:
		r.mgr.MinimizeWindow(id)
	case CommandType_Maximize:
		r.mgr.MaximizeWindow(id)
	case CommandType_ToggleMaximize:
		r.mgr.ToggleMaximize(id)
	case CommandType_Restore:
		var target *geometry.Rect
		if len(cmd.Args) == 5 {
			v, _ := cmd.Floats(1, 4)
			target = &geometry.Rect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}
		}
		r.mgr.RestoreWindow(id, target)
	case CommandType_Rename:
		if !r.mgr.UpdateWindowID(id, cmd.Args[1]) {
			return cmd.errorf("cannot rename %q to %q", id, cmd.Args[1])
		}
	case CommandType_Title:
		title := cmd.Args[1]
		r.mgr.UpdateWindow(id, desktop.Update{Title: &title})
	case CommandType_Place:
		v, _ := cmd.Floats(1, 4)
		rect := geometry.Partial(geometry.Rect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]})
		r.mgr.UpdateWindow(id, desktop.Update{Rect: &rect})
	case CommandType_Press:
		return r.pointerDown(cmd)
	default:
		return cmd.errorf("unsupported command")
	}
	return nil
}

func (r *HeadlessRunner) create(cmd *Command) error {
	opts := desktop.CreateOptions{ID: cmd.Args[0]}
	rest := cmd.Args[1:]
	if len(rest) == 1 || len(rest) == 5 {
		opts.Title = rest[0]
		rest = rest[1:]
	}
	if len(rest) == 4 {
		v, _ := cmd.Floats(len(cmd.Args)-4, 4)
		opts.Rect = &geometry.Rect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}
	}
	if r.factory != nil {
		opts.Content = r.factory(opts.ID, nil)
	}
	r.mgr.CreateWindow(opts)
	return nil
}

// controller returns the controller driving id, creating it on first use.
func (r *HeadlessRunner) controller(id string) *interact.Controller {
	live := r.controllers[:0]
	var found *interact.Controller
	for _, c := range r.controllers {
		if !r.mgr.HasWindowID(c.ID()) {
			c.Teardown()
			continue
		}
		live = append(live, c)
		if c.ID() == id {
			found = c
		}
	}
	r.controllers = live
	if found == nil {
		found = interact.Attach(r.mgr, id, interact.WithConfig(r.cfg), interact.WithLogger(r.logger))
		r.controllers = append(r.controllers, found)
	}
	return found
}

func (r *HeadlessRunner) pointerDown(cmd *Command) error {
	var target interact.Target
	coords := 2
	switch cmd.Args[1] {
	case TargetTitle:
		target = interact.Title()
	case TargetContent:
		target = interact.Content()
	case TargetEdge:
		target = interact.Edge(desktop.Action(cmd.Args[2]))
		coords = 3
	case TargetCell:
		target = interact.AltCell(desktop.Action(cmd.Args[2]))
		coords = 3
	}
	xy, _ := cmd.Floats(coords, 2)

	ev := interact.PointerEvent{PointerID: 1, X: xy[0], Y: xy[1], Target: target}
	for _, mod := range cmd.Args[coords+2:] {
		switch mod {
		case ModAlt:
			ev.Alt = true
		case ModSecondary:
			ev.Button = interact.ButtonSecondary
		case ModTouch:
			ev.Kind = interact.PointerTouch
		}
	}

	c := r.controller(cmd.Args[0])
	if !c.PointerDown(ev) {
		r.logger.Debug("press started no gesture", "window", cmd.Args[0], "line", cmd.Line)
		r.pressed = nil
		return nil
	}
	r.pressed = c
	r.pressedAlt = ev.Alt
	r.pressedKind = ev.Kind
	r.pressedBtn = ev.Button
	return nil
}

func (r *HeadlessRunner) pointerEvent(cmd *Command) interact.PointerEvent {
	xy, _ := cmd.Floats(0, 2)
	return interact.PointerEvent{
		PointerID: 1,
		X:         xy[0],
		Y:         xy[1],
		Alt:       r.pressedAlt,
		Kind:      r.pressedKind,
		Button:    r.pressedBtn,
	}
}

func (r *HeadlessRunner) pointerMove(cmd *Command) error {
	if r.pressed == nil {
		return nil
	}
	r.pressed.PointerMove(r.pointerEvent(cmd))
	return nil
}

func (r *HeadlessRunner) pointerUp(cmd *Command) error {
	if r.pressed == nil {
		return nil
	}
	r.pressed.PointerUp(r.pointerEvent(cmd))
	r.pressed = nil
	return nil
}

func (r *HeadlessRunner) expect(cmd *Command) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %w", ErrExpectation, cmd.errorf(format, args...))
	}

	switch cmd.Args[0] {
	case ExpectCount:
		want, _ := strconv.Atoi(cmd.Args[1])
		got := 0
		for _, w := range r.mgr.Windows() {
			if !w.Closing {
				got++
			}
		}
		if got != want {
			return fail("%d open windows, want %d", got, want)
		}

	case ExpectFocus:
		var focused []string
		for _, w := range r.mgr.Windows() {
			if w.Focused {
				focused = append(focused, w.ID)
			}
		}
		want := cmd.Args[1:]
		if len(focused) != len(want) || (len(want) == 1 && focused[0] != want[0]) {
			return fail("focused %v, want %v", focused, want)
		}

	case ExpectGone:
		if w, ok := r.mgr.Window(cmd.Args[1]); ok && !w.Closing {
			return fail("window %q is still open", cmd.Args[1])
		}

	default:
		w, ok := r.mgr.Window(cmd.Args[1])
		if !ok {
			return fail("no window %q", cmd.Args[1])
		}
		switch cmd.Args[0] {
		case ExpectMinimized:
			if !w.Minimized {
				return fail("window %q is not minimized", w.ID)
			}
		case ExpectMaximized:
			if !w.Maximized {
				return fail("window %q is not maximized", w.ID)
			}
		case ExpectRect:
			v, _ := cmd.Floats(2, 4)
			want := geometry.Rect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}
			if !rectNear(w.Rect, want) {
				return fail("window %q rect %+v, want %+v", w.ID, w.Rect, want)
			}
		}
	}
	return nil
}

func rectNear(a, b geometry.Rect) bool {
	return math.Abs(a.Left-b.Left) <= rectTolerance &&
		math.Abs(a.Top-b.Top) <= rectTolerance &&
		math.Abs(a.Width-b.Width) <= rectTolerance &&
		math.Abs(a.Height-b.Height) <= rectTolerance
}

// wait advances the virtual clock and, in realtime mode, the wall clock.
func (r *HeadlessRunner) wait(ctx context.Context, d time.Duration) error {
	if r.realtime {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	r.sched.Advance(d)
	return nil
}
