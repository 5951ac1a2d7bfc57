package desktop

// EventType names a manager event.
type EventType string

const (
	EventCreate      EventType = "create"
	EventClose       EventType = "close"
	EventFocus       EventType = "focus"
	EventMoveStart   EventType = "moveStart"
	EventMove        EventType = "move"
	EventMoveEnd     EventType = "moveEnd"
	EventResizeStart EventType = "resizeStart"
	EventResize      EventType = "resize"
	EventResizeEnd   EventType = "resizeEnd"
	EventIDUpdate    EventType = "idupdate"
)

// EventTypes lists every event in a stable order.
var EventTypes = []EventType{
	EventCreate, EventClose, EventFocus,
	EventMoveStart, EventMove, EventMoveEnd,
	EventResizeStart, EventResize, EventResizeEnd,
	EventIDUpdate,
}

// Event is the payload of every manager event. ID is empty for idupdate,
// which carries OriginalID and NewID instead.
type Event struct {
	Type       EventType `json:"type"`
	ID         string    `json:"id,omitempty"`
	OriginalID string    `json:"originalID,omitempty"`
	NewID      string    `json:"newID,omitempty"`
	CustomData any       `json:"customData,omitempty"`
}

// Concerns reports whether the event is about window id.
func (e Event) Concerns(id string) bool {
	return e.ID == id || e.OriginalID == id
}

// AddEventListener registers fn for events of type t and returns a function
// that removes it.
func (m *Manager) AddEventListener(t EventType, fn func(Event)) (remove func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextToken++
	token := m.nextToken
	if m.listeners[t] == nil {
		m.listeners[t] = map[int]func(Event){}
	}
	m.listeners[t][token] = fn
	m.listenerOrder[t] = append(m.listenerOrder[t], token)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners[t], token)
	}
}

// Subscribe registers fn for collection changes. fn is called right away
// with the current windows and again after every visible mutation.
func (m *Manager) Subscribe(fn func([]Window)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextToken++
	token := m.nextToken
	m.subscribers[token] = fn
	m.subscriberOrder = append(m.subscriberOrder, token)
	views := m.viewsLocked()
	m.queue = append(m.queue, func() { fn(views) })
	m.mu.Unlock()
	m.flush()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, token)
	}
}

// emitLocked queues ev for the listeners registered right now. Each
// listener is delivered separately so one panic does not starve the rest.
func (m *Manager) emitLocked(ev Event) {
	set := m.listeners[ev.Type]
	if len(set) == 0 {
		return
	}
	order := m.listenerOrder[ev.Type][:0]
	fns := make([]func(Event), 0, len(set))
	for _, token := range m.listenerOrder[ev.Type] {
		if fn, ok := set[token]; ok {
			order = append(order, token)
			fns = append(fns, fn)
		}
	}
	m.listenerOrder[ev.Type] = order

	for _, fn := range fns {
		m.queue = append(m.queue, func() { fn(ev) })
	}
}

// notifyLocked queues a broadcast of the current collection.
func (m *Manager) notifyLocked() {
	if len(m.subscribers) == 0 {
		return
	}
	order := m.subscriberOrder[:0]
	fns := make([]func([]Window), 0, len(m.subscribers))
	for _, token := range m.subscriberOrder {
		if fn, ok := m.subscribers[token]; ok {
			order = append(order, token)
			fns = append(fns, fn)
		}
	}
	m.subscriberOrder = order

	views := m.viewsLocked()
	for _, fn := range fns {
		m.queue = append(m.queue, func() { fn(views) })
	}
}

// flush delivers queued callbacks outside the lock, in mutation order. A
// callback that mutates the manager only queues more work, which the
// goroutine already flushing delivers after it returns.
func (m *Manager) flush() {
	m.mu.Lock()
	if m.flushing {
		m.mu.Unlock()
		return
	}
	m.flushing = true
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()
		m.invoke(fn)
		m.mu.Lock()
	}
	m.flushing = false
	m.mu.Unlock()
}

func (m *Manager) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("window callback panicked", "panic", r)
		}
	}()
	fn()
}
