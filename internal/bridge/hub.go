package bridge

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/kilodown/deskwm/internal/desktop"
)

// client is one connected consumer of frames.
type client struct {
	id   string
	send chan Frame
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed when the hub drops the client.
func (c *client) Done() <-chan struct{} { return c.done }

// hub subscribes once to a manager and fans its updates out to clients.
// A client whose buffer is full is dropped rather than blocking the manager.
type hub struct {
	log     *log.Logger
	mu      sync.Mutex
	clients map[string]*client
	last    Frame
	detach  []func()
}

func newHub(mgr *desktop.Manager, l *log.Logger) *hub {
	h := &hub{log: l, clients: map[string]*client{}}
	for _, t := range desktop.EventTypes {
		h.detach = append(h.detach, mgr.AddEventListener(t, func(ev desktop.Event) {
			h.broadcast(Frame{Type: FrameEvent, Event: &ev})
		}))
	}
	// Subscribe delivers the current collection immediately, which seeds last.
	h.detach = append(h.detach, mgr.Subscribe(func(ws []desktop.Window) {
		h.broadcast(Frame{Type: FrameWindows, Windows: windowStates(ws)})
	}))
	return h
}

// add registers a client with the given buffer. The latest windows frame is
// queued first so the client starts from a complete view.
func (h *hub) add(buffer int) *client {
	if buffer < 1 {
		buffer = 1
	}
	c := &client{
		id:   uuid.NewString(),
		send: make(chan Frame, buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last.Type != "" {
		c.send <- h.last
	}
	h.clients[c.id] = c
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.stop()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if f.Type == FrameWindows {
		h.last = f
	}
	for id, c := range h.clients {
		select {
		case c.send <- f:
		default:
			h.log.Warn("dropping slow client", "client", id, "buffered", len(c.send))
			delete(h.clients, id)
			c.stop()
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		c.stop()
	}
}

func (h *hub) close() {
	h.mu.Lock()
	detach := h.detach
	h.detach = nil
	h.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
	h.closeAll()
}
