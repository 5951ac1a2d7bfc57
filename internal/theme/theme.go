// Package theme maps bubbletint colour schemes onto the desktop chrome.
package theme

import (
	"fmt"
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
	tint "github.com/lrstanley/bubbletint/v2"
)

// The tint registry is process wide, so lookups are serialised.
var (
	mu       sync.Mutex
	initOnce sync.Once
)

// Palette holds the colours the TUI draws with.
type Palette struct {
	Desktop        color.Color
	Frame          color.Color
	FrameFocused   color.Color
	Title          color.Color
	TitleBg        color.Color
	TitleFocused   color.Color
	TitleFocusedBg color.Color
	Button         color.Color
	Body           color.Color
	Closing        color.Color
	TaskbarBg      color.Color
	Task           color.Color
	TaskFocused    color.Color
	TaskMinimized  color.Color
	Status         color.Color
	Accent         color.Color
}

// Default is the built-in palette used when no theme is configured.
func Default() Palette {
	return Palette{
		Desktop:        lipgloss.Color("#3A3A4A"),
		Frame:          lipgloss.Color("#6C6C80"),
		FrameFocused:   lipgloss.Color("#7AA2F7"),
		Title:          lipgloss.Color("#C0C0D0"),
		TitleBg:        lipgloss.Color("#2A2A3A"),
		TitleFocused:   lipgloss.Color("#FFFFFF"),
		TitleFocusedBg: lipgloss.Color("#3D59A1"),
		Button:         lipgloss.Color("#E0AF68"),
		Body:           lipgloss.Color("#A9B1D6"),
		Closing:        lipgloss.Color("#44445A"),
		TaskbarBg:      lipgloss.Color("#1A1B26"),
		Task:           lipgloss.Color("#A9B1D6"),
		TaskFocused:    lipgloss.Color("#7AA2F7"),
		TaskMinimized:  lipgloss.Color("#565F89"),
		Status:         lipgloss.Color("#9ECE6A"),
		Accent:         lipgloss.Color("#7AA2F7"),
	}
}

// Load returns the palette of the named bubbletint theme. An empty name
// selects Default. Unknown names return Default with an error.
func Load(name string) (Palette, error) {
	if name == "" {
		return Default(), nil
	}

	mu.Lock()
	defer mu.Unlock()
	initOnce.Do(func() { tint.NewDefaultRegistry() })

	if !tint.SetTintID(name) {
		return Default(), fmt.Errorf("unknown theme %q", name)
	}
	t := tint.Current()
	if t == nil {
		return Default(), fmt.Errorf("theme %q has no colours", name)
	}
	return fromTint(t), nil
}

func fromTint(t *tint.Tint) Palette {
	return Palette{
		Desktop:        t.BrightBlack,
		Frame:          t.White,
		FrameFocused:   t.BrightCyan,
		Title:          t.Fg,
		TitleBg:        t.Black,
		TitleFocused:   t.BrightWhite,
		TitleFocusedBg: t.Blue,
		Button:         t.Yellow,
		Body:           t.Fg,
		Closing:        t.BrightBlack,
		TaskbarBg:      t.Bg,
		Task:           t.Fg,
		TaskFocused:    t.BrightCyan,
		TaskMinimized:  t.BrightBlack,
		Status:         t.Green,
		Accent:         t.BrightBlue,
	}
}
