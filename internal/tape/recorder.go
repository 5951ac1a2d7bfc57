package tape

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/geometry"
)

// minSleep is the shortest pause written as a Sleep command.
const minSleep = 100 * time.Millisecond

type recordedWindow struct {
	title     string
	rect      geometry.Rect
	minimized bool
	maximized bool
}

// Recorder turns what happens on a desktop into tape commands that replay
// it. Creates, closes, state changes and rect changes come from the window
// collection; focus changes and renames come from events.
type Recorder struct {
	mu            sync.Mutex
	commands      []Command
	known         map[string]recordedWindow
	fresh         map[string]bool // created in the latest update
	now           func() time.Time
	startTime     time.Time
	lastEventTime time.Time
	enabled       bool
	detach        []func()
}

// NewRecorder creates a new tape recorder
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// SetClock replaces the time source used for Sleep commands.
func (r *Recorder) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Start begins recording mgr. Windows that already exist are written as
// Create commands first.
func (r *Recorder) Start(mgr *desktop.Manager) {
	r.mu.Lock()
	r.enabled = true
	r.startTime = r.now()
	r.lastEventTime = r.startTime
	r.commands = nil
	r.known = map[string]recordedWindow{}
	r.mu.Unlock()

	detach := []func(){
		mgr.AddEventListener(desktop.EventFocus, r.onFocus),
		mgr.AddEventListener(desktop.EventIDUpdate, r.onRename),
		mgr.Subscribe(r.onWindows),
	}

	r.mu.Lock()
	r.detach = detach
	r.mu.Unlock()
}

// Stop ends recording
func (r *Recorder) Stop() {
	r.mu.Lock()
	r.enabled = false
	detach := r.detach
	r.detach = nil
	r.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
}

// IsRecording returns whether recording is active
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Commands returns a copy of the recorded commands
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// String returns the tape content as a formatted string
func (r *Recorder) String(header string) string {
	r.mu.Lock()
	start := r.startTime
	r.mu.Unlock()

	var sb strings.Builder
	if header != "" {
		header = fmt.Sprintf("%s\nRecorded: %s", header, start.Format(time.RFC3339))
	}
	_ = WriteScript(&sb, header, r.Commands())
	return sb.String()
}

// WriteToFile saves the recorded tape to a file
func (r *Recorder) WriteToFile(filename string, header string) error {
	if err := os.WriteFile(filename, []byte(r.String(header)), 0o644); err != nil {
		return fmt.Errorf("write tape %q: %w", filename, err)
	}
	return nil
}

// RecordingStats contains statistics about the recording
type RecordingStats struct {
	CommandCount int
	Duration     time.Duration
	IsRecording  bool
}

// Stats returns recording statistics
func (r *Recorder) Stats() RecordingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RecordingStats{
		CommandCount: len(r.commands),
		Duration:     r.now().Sub(r.startTime),
		IsRecording:  r.enabled,
	}
}

// addLocked appends a command, preceded by a Sleep for any pause since
// the previous one.
func (r *Recorder) addLocked(t CommandType, args ...string) {
	now := r.now()
	if delay := now.Sub(r.lastEventTime).Round(time.Millisecond); delay >= minSleep {
		r.commands = append(r.commands, Command{
			Type:   CommandType_Sleep,
			Args:   []string{delay.String()},
			Delay:  delay,
			Line:   len(r.commands) + 1,
			Column: 1,
		})
	}
	r.lastEventTime = now
	r.commands = append(r.commands, Command{
		Type:   t,
		Args:   args,
		Line:   len(r.commands) + 1,
		Column: 1,
	})
}

func (r *Recorder) onFocus(ev desktop.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.known[ev.ID]; !r.enabled || !ok {
		return
	}
	// a new window's first focus is implied by its Create
	if r.fresh[ev.ID] {
		delete(r.fresh, ev.ID)
		return
	}
	r.addLocked(CommandType_Focus, ev.ID)
}

func (r *Recorder) onRename(ev desktop.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.known[ev.OriginalID]
	if !r.enabled || !ok {
		return
	}
	delete(r.known, ev.OriginalID)
	r.known[ev.NewID] = w
	r.addLocked(CommandType_Rename, ev.OriginalID, ev.NewID)
}

func (r *Recorder) onWindows(ws []desktop.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}

	r.fresh = map[string]bool{}
	for _, w := range ws {
		prev, ok := r.known[w.ID]
		switch {
		case w.Closing:
			if ok {
				delete(r.known, w.ID)
				r.addLocked(CommandType_Close, w.ID)
			}
			continue
		case !ok:
			r.addLocked(CommandType_Create, append([]string{w.ID, w.Title}, rectArgs(w.Rect)...)...)
			prev = recordedWindow{title: w.Title, rect: w.Rect}
			r.fresh[w.ID] = true
		}

		if w.Title != prev.title {
			r.addLocked(CommandType_Title, w.ID, w.Title)
		}
		switch {
		case w.Maximized && !prev.maximized:
			r.addLocked(CommandType_Maximize, w.ID)
		case !w.Maximized && prev.maximized:
			r.addLocked(CommandType_Restore, append([]string{w.ID}, rectArgs(w.Rect)...)...)
		case !w.Maximized && w.Rect != prev.rect:
			r.addLocked(CommandType_Place, append([]string{w.ID}, rectArgs(w.Rect)...)...)
		}
		if w.Minimized && !prev.minimized {
			r.addLocked(CommandType_Minimize, w.ID)
		}

		r.known[w.ID] = recordedWindow{
			title:     w.Title,
			rect:      w.Rect,
			minimized: w.Minimized,
			maximized: w.Maximized,
		}
	}
}
