package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/kilodown/deskwm/internal/pool"
)

// Container pixels per terminal cell. Rects stay in percent of a container
// measured in these units, so snap and jitter thresholds keep their pixel
// meaning.
const (
	CellWidth  = 10
	CellHeight = 20
)

const (
	minFrameCols = 12
	minFrameRows = 3
	buttonWidth  = 3
	taskLabelMax = 18
)

type part int

const (
	partNone part = iota
	partTitle
	partContent
	partEdge
	partMinimize
	partMaximize
	partClose
)

// hit is what a cell of the desktop belongs to.
type hit struct {
	id   string
	part part
	dir  desktop.Action
}

// frame is a window's outline in cells, x1 and y1 exclusive.
type frame struct {
	x0, y0, x1, y1 int
}

func (f frame) contains(x, y int) bool {
	return x >= f.x0 && x < f.x1 && y >= f.y0 && y < f.y1
}

type button struct {
	part  part
	label string
	x     int
}

// frameOf maps the rendered rect of w onto the cell grid.
func (m *Model) frameOf(w desktop.Window) frame {
	px := geometry.ToPixels(w.Live, m.mgr.ContainerMetrics())
	f := frame{
		x0: int(math.Round(px.Left / CellWidth)),
		y0: int(math.Round(px.Top / CellHeight)),
		x1: int(math.Round(px.Right() / CellWidth)),
		y1: int(math.Round(px.Bottom() / CellHeight)),
	}
	f.x1 = max(f.x1, f.x0+minFrameCols)
	f.y1 = max(f.y1, f.y0+minFrameRows)
	return f
}

// buttons lays out the title-bar buttons of w right to left, leaving the
// corner cell free for the resize handle.
func buttons(w desktop.Window, f frame) []button {
	var out []button
	x := f.x1 - 1 - buttonWidth
	add := func(p part, label string) {
		if x <= f.x0 {
			return
		}
		out = append(out, button{part: p, label: label, x: x})
		x -= buttonWidth
	}
	add(partClose, "[x]")
	if w.Actions.CanMaximize {
		add(partMaximize, "[□]")
	}
	if w.Actions.CanMinimize {
		add(partMinimize, "[_]")
	}
	return out
}

// stacked returns the windows that are drawn, lowest z first.
func stacked(ws []desktop.Window) []desktop.Window {
	out := make([]desktop.Window, 0, len(ws))
	for _, w := range ws {
		if !w.Minimized {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// hitTest finds the topmost window part under cell (x, y). Closing windows
// are drawn but let presses through.
func (m *Model) hitTest(x, y int) hit {
	ws := m.snapshot()
	lh := m.compose(ws).Hit(x, y)
	if lh.Empty() {
		return hit{}
	}
	for _, w := range ws {
		if w.ID == lh.ID() {
			b := lh.Bounds()
			return partAt(w, frame{x0: b.Min.X, y0: b.Min.Y, x1: b.Max.X, y1: b.Max.Y}, x, y)
		}
	}
	return hit{}
}

func partAt(w desktop.Window, f frame, x, y int) hit {
	h := hit{id: w.ID, part: partContent}
	left, right := x == f.x0, x == f.x1-1

	switch {
	case y == f.y0:
		switch {
		case left:
			h.part, h.dir = partEdge, "nw"
		case right:
			h.part, h.dir = partEdge, "ne"
		default:
			h.part = partTitle
			for _, b := range buttons(w, f) {
				if x >= b.x && x < b.x+buttonWidth {
					h.part = b.part
				}
			}
		}
	case y == f.y1-1:
		switch {
		case left:
			h.part, h.dir = partEdge, "sw"
		case right:
			h.part, h.dir = partEdge, "se"
		default:
			h.part, h.dir = partEdge, "s"
		}
	case left:
		h.part, h.dir = partEdge, "w"
	case right:
		h.part, h.dir = partEdge, "e"
	}
	return h
}

// altCell returns the cell of the 3x3 Alt grid under (x, y).
func altCell(f frame, x, y int) desktop.Action {
	col := min(2, max(0, (x-f.x0)*3/(f.x1-f.x0)))
	row := min(2, max(0, (y-f.y0)*3/(f.y1-f.y0)))
	cells := [3][3]desktop.Action{
		{"nw", "n", "ne"},
		{"w", desktop.ActionCenter, "e"},
		{"sw", "s", "se"},
	}
	return cells[row][col]
}

// fit truncates s to n columns and pads it with spaces to exactly n.
func fit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	s = ansi.Truncate(s, n, "")
	if w := lipgloss.Width(s); w < n {
		s += strings.Repeat(" ", n-w)
	}
	return s
}

// windowView draws w with its chrome and body at exactly the size of its
// frame.
func (m *Model) windowView(w desktop.Window, f frame) string {
	st := m.styles.cells
	border, title, btn, body := st[styleFrame], st[styleTitle], st[styleButton], st[styleBody]
	if w.Focused {
		border, title = st[styleFrameFocused], st[styleTitleFocused]
	}
	if w.Closing {
		border, title, btn, body = st[styleClosing], st[styleClosing], st[styleClosing], st[styleClosing]
	}
	width, height := f.x1-f.x0, f.y1-f.y0

	sb := pool.GetStringBuilder()
	defer pool.PutStringBuilder(sb)

	// title row: title, buttons left to right, free corner cell
	btns := buttons(w, f)
	used := width - 1
	if len(btns) > 0 {
		used = btns[len(btns)-1].x - f.x0
	}
	sb.WriteString(title.Render(fit("  "+ansi.Truncate(w.Title, max(0, used-3), ""), used)))
	for i := len(btns) - 1; i >= 0; i-- {
		sb.WriteString(btn.Render(fit(btns[i].label, buttonWidth)))
		used += buttonWidth
	}
	sb.WriteString(title.Render(fit("", width-used)))

	lines := m.content.body(w.ID)
	for row := 0; row < height-2; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		sb.WriteByte('\n')
		sb.WriteString(border.Render("│"))
		sb.WriteString(body.Render(" " + fit(line, width-4) + " "))
		sb.WriteString(border.Render("│"))
	}

	sb.WriteByte('\n')
	sb.WriteString(border.Render("└" + strings.Repeat("─", width-2) + "┘"))
	return sb.String()
}

// taskEntry is one taskbar slot.
type taskEntry struct {
	id     string
	label  string
	x0, x1 int
	style  styleID
}

// tasks lays out the taskbar: one entry per window that is not closing,
// in creation order.
func tasks(ws []desktop.Window) []taskEntry {
	var out []taskEntry
	x := 0
	for _, w := range ws {
		if w.Closing {
			continue
		}
		title := w.Title
		if lipgloss.Width(title) > taskLabelMax {
			title = ansi.Truncate(title, taskLabelMax, "…")
		}
		label := fmt.Sprintf(" %d:%s ", len(out)+1, title)
		st := styleTask
		switch {
		case w.Focused:
			st = styleTaskFocused
		case w.Minimized:
			st = styleTaskMinimized
		}
		n := lipgloss.Width(label)
		out = append(out, taskEntry{id: w.ID, label: label, x0: x, x1: x + n, style: st})
		x += n + 1
	}
	return out
}

// taskbarView draws the taskbar row: entries separated by one blank cell.
func (m *Model) taskbarView(entries []taskEntry) string {
	st := m.styles.cells
	sb := pool.GetStringBuilder()
	defer pool.PutStringBuilder(sb)
	x := 0
	for _, t := range entries {
		if x < t.x0 {
			sb.WriteString(st[styleTaskbar].Render(strings.Repeat(" ", t.x0-x)))
		}
		sb.WriteString(st[t.style].Render(t.label))
		x = t.x1
	}
	if x < m.width {
		sb.WriteString(st[styleTaskbar].Render(strings.Repeat(" ", m.width-x)))
	}
	return ansi.Truncate(sb.String(), m.width, "")
}

// compose lays out the desktop as lipgloss layers: the background, one
// layer per visible window in z order, and the taskbar with its status.
// Only windows that accept presses carry an ID, so the compositor's hit
// test skips everything else.
func (m *Model) compose(ws []desktop.Window) *lipgloss.Compositor {
	layersPtr := pool.GetLayerSlice()
	defer pool.PutLayerSlice(layersPtr)
	layers := *layersPtr

	rows := max(m.height-1, 0)
	bg := fit("", m.width)
	desk := m.styles.cells[styleDesktop].Render(bg)
	layers = append(layers, lipgloss.NewLayer(strings.TrimSuffix(strings.Repeat(desk+"\n", rows), "\n")).Z(0))

	// z is the stacking rank, so equal zIndex values keep creation order
	stack := stacked(ws)
	for i, w := range stack {
		f := m.frameOf(w)
		layer := lipgloss.NewLayer(m.windowView(w, f)).X(f.x0).Y(f.y0).Z(i + 1)
		if !w.Closing {
			layer.ID(w.ID)
		}
		layers = append(layers, layer)
	}

	entries := tasks(ws)
	top := len(stack) + 1
	layers = append(layers, lipgloss.NewLayer(m.taskbarView(entries)).Y(rows).Z(top))

	status := m.status
	if status == "" {
		status = fmt.Sprintf("%d windows  ? help", len(entries))
	}
	status = ansi.Truncate(status, m.width, "")
	layers = append(layers, lipgloss.NewLayer(m.styles.cells[styleStatus].Render(status)).
		X(max(0, m.width-lipgloss.Width(status)-1)).Y(rows).Z(top+1))

	*layersPtr = layers
	return lipgloss.NewCompositor(layers...)
}

// render draws the desktop and taskbar, or the help overlay.
func (m *Model) render() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.helpView())
	}

	canvas := lipgloss.NewCanvas(m.width, m.height)
	canvas.Compose(m.compose(m.snapshot()))
	return canvas.Render()
}
