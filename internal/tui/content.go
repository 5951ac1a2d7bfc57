package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kilodown/deskwm/internal/desktop"
)

// contentRenderer is the desktop.Renderer of the terminal front-end. It
// keeps the latest props per window so window layers can draw their bodies.
type contentRenderer struct {
	mu    sync.RWMutex
	props map[string]desktop.Props
}

func newContentRenderer() *contentRenderer {
	return &contentRenderer{props: map[string]desktop.Props{}}
}

func (r *contentRenderer) Render(id string, props desktop.Props) {
	r.mu.Lock()
	r.props[id] = props
	r.mu.Unlock()
}

func (r *contentRenderer) Unmount(id string) {
	r.mu.Lock()
	delete(r.props, id)
	r.mu.Unlock()
}

// body returns the text lines drawn inside window id.
func (r *contentRenderer) body(id string) []string {
	r.mu.RLock()
	p, ok := r.props[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var text string
	switch c := p.Content.(type) {
	case nil:
		return nil
	case string:
		text = c
	case fmt.Stringer:
		text = c.String()
	default:
		text = fmt.Sprint(c)
	}
	return strings.Split(text, "\n")
}

// placeholder is the body of windows opened from the keyboard or rebuilt
// from a snapshot.
func placeholder(id string, _ any) any {
	return fmt.Sprintf("%s\n\nDrag the title bar to move.\nDrag an edge or corner to resize.\nAlt+drag moves from anywhere,\nAlt+right drag resizes.", id)
}
