// Package telemetry exports Prometheus metrics about a desktop: events by
// type, window counts by state, gesture durations, snapshot operations and
// bridge clients.
package telemetry

import (
	"sync"
	"time"

	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Window states reported by the windows gauge.
const (
	StateVisible   = "visible"
	StateMinimized = "minimized"
	StateMaximized = "maximized"
	StateClosing   = "closing"
)

// Metrics holds all collectors.
type Metrics struct {
	WindowEvents    *prometheus.CounterVec
	Windows         *prometheus.GaugeVec
	GestureDuration *prometheus.HistogramVec
	SnapshotOps     *prometheus.CounterVec
	BridgeClients   prometheus.Gauge

	now func() time.Time

	mu       sync.Mutex
	gestures map[string]time.Time
}

// New registers the collectors on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		WindowEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskwm_window_events_total",
				Help: "Window manager events by type",
			},
			[]string{"type"},
		),
		Windows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deskwm_windows",
				Help: "Open windows by state",
			},
			[]string{"state"},
		),
		GestureDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskwm_gesture_duration_seconds",
				Help:    "Duration of move and resize gestures",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		SnapshotOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskwm_snapshot_operations_total",
				Help: "Snapshot saves and loads by result",
			},
			[]string{"op", "result"},
		),
		BridgeClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskwm_bridge_clients",
				Help: "Connected event bridge clients",
			},
		),
		now:      time.Now,
		gestures: map[string]time.Time{},
	}
}

// SetClock replaces the time source for gesture durations.
func (m *Metrics) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Attach starts counting events of mgr and tracking its window states.
// The returned function stops it.
func (m *Metrics) Attach(mgr *desktop.Manager) (detach func()) {
	var removers []func()
	for _, t := range desktop.EventTypes {
		removers = append(removers, mgr.AddEventListener(t, m.observe))
	}
	removers = append(removers, mgr.Subscribe(m.observeWindows))

	return func() {
		for _, remove := range removers {
			remove()
		}
	}
}

// ObserveSnapshot counts a snapshot operation ("save", "load", "apply").
func (m *Metrics) ObserveSnapshot(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SnapshotOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) observe(ev desktop.Event) {
	m.WindowEvents.WithLabelValues(string(ev.Type)).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Type {
	case desktop.EventMoveStart, desktop.EventResizeStart:
		m.gestures[ev.ID] = m.now()
	case desktop.EventMoveEnd:
		m.endGestureLocked(ev.ID, "move")
	case desktop.EventResizeEnd:
		m.endGestureLocked(ev.ID, "resize")
	case desktop.EventIDUpdate:
		if start, ok := m.gestures[ev.OriginalID]; ok {
			delete(m.gestures, ev.OriginalID)
			m.gestures[ev.NewID] = start
		}
	case desktop.EventClose:
		delete(m.gestures, ev.ID)
	}
}

func (m *Metrics) endGestureLocked(id, kind string) {
	start, ok := m.gestures[id]
	if !ok {
		return
	}
	delete(m.gestures, id)
	m.GestureDuration.WithLabelValues(kind).Observe(m.now().Sub(start).Seconds())
}

func (m *Metrics) observeWindows(ws []desktop.Window) {
	counts := map[string]float64{
		StateVisible:   0,
		StateMinimized: 0,
		StateMaximized: 0,
		StateClosing:   0,
	}
	for _, w := range ws {
		switch {
		case w.Closing:
			counts[StateClosing]++
		case w.Minimized:
			counts[StateMinimized]++
		case w.Maximized:
			counts[StateMaximized]++
		default:
			counts[StateVisible]++
		}
	}
	for state, n := range counts {
		m.Windows.WithLabelValues(state).Set(n)
	}
}
