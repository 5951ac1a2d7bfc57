package tui

import (
	"charm.land/lipgloss/v2"
	"github.com/kilodown/deskwm/internal/theme"
)

type styleID uint8

const (
	styleDesktop styleID = iota
	styleFrame
	styleFrameFocused
	styleTitle
	styleTitleFocused
	styleButton
	styleBody
	styleClosing
	styleTaskbar
	styleTask
	styleTaskFocused
	styleTaskMinimized
	styleStatus
	styleCount
)

type styleSet struct {
	cells     [styleCount]lipgloss.Style
	helpBox   lipgloss.Style
	helpTitle lipgloss.Style
	helpKey   lipgloss.Style
	helpHint  lipgloss.Style
}

func newStyles(p theme.Palette) *styleSet {
	return &styleSet{
		cells: [styleCount]lipgloss.Style{
			styleDesktop:       lipgloss.NewStyle().Foreground(p.Desktop),
			styleFrame:         lipgloss.NewStyle().Foreground(p.Frame),
			styleFrameFocused:  lipgloss.NewStyle().Foreground(p.FrameFocused),
			styleTitle:         lipgloss.NewStyle().Foreground(p.Title).Background(p.TitleBg),
			styleTitleFocused:  lipgloss.NewStyle().Foreground(p.TitleFocused).Background(p.TitleFocusedBg).Bold(true),
			styleButton:        lipgloss.NewStyle().Foreground(p.Button).Background(p.TitleBg),
			styleBody:          lipgloss.NewStyle().Foreground(p.Body),
			styleClosing:       lipgloss.NewStyle().Foreground(p.Closing).Faint(true),
			styleTaskbar:       lipgloss.NewStyle().Background(p.TaskbarBg),
			styleTask:          lipgloss.NewStyle().Foreground(p.Task).Background(p.TaskbarBg),
			styleTaskFocused:   lipgloss.NewStyle().Foreground(p.TaskbarBg).Background(p.TaskFocused).Bold(true),
			styleTaskMinimized: lipgloss.NewStyle().Foreground(p.TaskMinimized).Background(p.TaskbarBg).Italic(true),
			styleStatus:        lipgloss.NewStyle().Foreground(p.Status).Background(p.TaskbarBg),
		},
		helpBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(1, 3),
		helpTitle: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		helpKey:   lipgloss.NewStyle().Foreground(p.Button).Width(22),
		helpHint:  lipgloss.NewStyle().Faint(true),
	}
}

// stylesFor builds the styles of the configured theme, falling back to the
// built-in colours.
func (m *Model) stylesFor(name string) *styleSet {
	p, err := theme.Load(name)
	if err != nil {
		m.logger.Warn("using default colours", "err", err)
	}
	return newStyles(p)
}
