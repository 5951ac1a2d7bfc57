package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/kilodown/deskwm/internal/store"
	"github.com/kilodown/deskwm/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *desktop.Manager {
	t.Helper()
	m, err := desktop.New(desktop.NewStaticSurface(1600, 1000), desktop.WithScheduler(desktop.NewManualScheduler()))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func newServer(t *testing.T, cfg Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(newManager(t), cfg, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var f Frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func title(s string) *string { return &s }

func TestHealth(t *testing.T) {
	_, ts := newServer(t, Config{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestWebSocketStreamsFrames(t *testing.T) {
	s, ts := newServer(t, Config{})
	conn := dial(t, ts)

	opts := readFrame(t, conn)
	assert.Equal(t, FrameOptions, opts.Type)
	assert.False(t, opts.ReadOnly)

	initial := readFrame(t, conn)
	assert.Equal(t, FrameWindows, initial.Type)
	assert.Empty(t, initial.Windows)
	assert.Equal(t, 1, s.Clients())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, Command{Op: OpCreate, Seq: 7, ID: "notes", Title: title("Notes")}))

	var (
		result  *Result
		created bool
		windows []WindowState
	)
	// the result and the broadcast frames travel on different paths
	for result == nil || !created || windows == nil {
		f := readFrame(t, conn)
		switch f.Type {
		case FrameResult:
			result = f.Result
		case FrameEvent:
			if f.Event.Type == desktop.EventCreate {
				created = true
				assert.Equal(t, "notes", f.Event.ID)
			}
		case FrameWindows:
			windows = f.Windows
		}
	}

	assert.True(t, result.OK)
	assert.Equal(t, 7, result.Seq)
	assert.Equal(t, "notes", result.ID)
	require.Len(t, windows, 1)
	assert.Equal(t, "Notes", windows[0].Title)
	assert.True(t, windows[0].Focused)
	assert.Equal(t, 11, windows[0].ZIndex)
}

func TestWebSocketInvalidCommand(t *testing.T) {
	_, ts := newServer(t, Config{})
	conn := dial(t, ts)
	readFrame(t, conn)
	readFrame(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{nope")))

	f := readFrame(t, conn)
	require.Equal(t, FrameResult, f.Type)
	assert.False(t, f.Result.OK)
	assert.Contains(t, f.Result.Error, "invalid command")
}

func TestExec(t *testing.T) {
	s := NewServer(newManager(t), Config{})
	defer s.Close()

	rect := geometry.Rect{Left: 10, Top: 10, Width: 30, Height: 30}
	r := s.Exec(Command{Op: OpCreate, ID: "a", Rect: &rect}).Result
	require.True(t, r.OK)

	tests := []struct {
		name    string
		cmd     Command
		wantErr string
	}{
		{"ping", Command{Op: OpPing}, ""},
		{"update", Command{Op: OpUpdate, ID: "a", Patch: &geometry.PartialRect{Left: geometry.Float(20)}}, ""},
		{"minimize", Command{Op: OpMinimize, ID: "a"}, ""},
		{"focus", Command{Op: OpFocus, ID: "a"}, ""},
		{"maximize", Command{Op: OpMaximize, ID: "a"}, ""},
		{"toggle", Command{Op: OpToggleMaximize, ID: "a"}, ""},
		{"rename", Command{Op: OpRename, ID: "a", NewID: "b"}, ""},
		{"missing window", Command{Op: OpFocus, ID: "a"}, `no window "a"`},
		{"unknown op", Command{Op: "explode", ID: "b"}, `unknown op "explode"`},
		{"unknown op without window", Command{Op: "explode"}, `unknown op "explode"`},
		{"no store", Command{Op: OpSave, Key: "x"}, errNoStore.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Exec(tt.cmd).Result
			if tt.wantErr == "" {
				assert.True(t, res.OK, res.Error)
				return
			}
			assert.False(t, res.OK)
			assert.Equal(t, tt.wantErr, res.Error)
		})
	}

	w, ok := s.mgr.Window("b")
	require.True(t, ok)
	assert.Equal(t, 20.0, w.Rect.Left)
	assert.False(t, w.Maximized)
	assert.False(t, w.Minimized)
}

func TestExecReadOnly(t *testing.T) {
	s := NewServer(newManager(t), Config{ReadOnly: true})
	defer s.Close()

	assert.Equal(t, errReadOnly.Error(), s.Exec(Command{Op: OpCreate}).Result.Error)
	assert.Empty(t, s.mgr.Windows())

	assert.True(t, s.Exec(Command{Op: OpPing}).Result.OK)
	snap := s.Exec(Command{Op: OpSnapshot})
	assert.True(t, snap.Result.OK)
}

func TestExecSaveAndLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)
	st := store.NewMemoryStore()
	s := NewServer(newManager(t), Config{}, WithStore(st), WithMetrics(metrics, reg),
		WithContentFactory(func(id string, _ any) any { return "content:" + id }))
	defer s.Close()

	s.Exec(Command{Op: OpCreate, ID: "a"})
	s.Exec(Command{Op: OpCreate, ID: "b"})
	require.True(t, s.Exec(Command{Op: OpSave, Key: "work"}).Result.OK)

	s.mgr.CloseWindow("a")
	s.mgr.CloseWindow("b")

	require.True(t, s.Exec(Command{Op: OpLoad, Key: "work"}).Result.OK)
	w, ok := s.mgr.Window("a")
	require.True(t, ok)
	assert.Equal(t, "content:a", w.Content)
	assert.False(t, w.Closing)

	res := s.Exec(Command{Op: OpLoad, Key: "missing"}).Result
	assert.False(t, res.OK)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotOps.WithLabelValues("save", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotOps.WithLabelValues("load", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotOps.WithLabelValues("load", "error")))
}

func TestSnapshotEndpoints(t *testing.T) {
	st := store.NewMemoryStore()
	s, ts := newServer(t, Config{}, WithStore(st))

	snap := desktop.Snapshot{
		{ID: "a", Title: "A", Rect: geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40}, ZIndex: 12, IsFocused: true},
	}
	body, err := json.Marshal(snap)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/snapshot", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, s.mgr.HasWindowID("a"))

	resp, err = http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	var got desktop.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)

	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/snapshots/work", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/snapshots")
	require.NoError(t, err)
	var infos []store.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	resp.Body.Close()
	require.Len(t, infos, 1)
	assert.Equal(t, "work", infos[0].Key)

	resp, err = http.Get(ts.URL + "/snapshots/nothing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/snapshots/work", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestApplySnapshotReadOnly(t *testing.T) {
	_, ts := newServer(t, Config{ReadOnly: true})

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/snapshot", strings.NewReader("[]"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestConnectionLimit(t *testing.T) {
	_, ts := newServer(t, Config{MaxConnections: 1})
	conn := dial(t, ts)
	readFrame(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)
	_, ts := newServer(t, Config{}, WithMetrics(metrics, reg))

	conn := dial(t, ts)
	readFrame(t, conn)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BridgeClients))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "deskwm_bridge_clients 1")
}

func TestHubDropsSlowClient(t *testing.T) {
	m := newManager(t)
	h := newHub(m, logger)
	defer h.close()

	slow := h.add(1) // already holds the initial windows frame
	fast := h.add(8)
	require.Equal(t, 2, h.len())

	m.CreateWindow(desktop.CreateOptions{ID: "a"})

	select {
	case <-slow.Done():
	default:
		t.Fatal("slow client was not dropped")
	}
	assert.Equal(t, 1, h.len())
	assert.Greater(t, len(fast.send), 1)

	h.remove(fast)
	assert.Equal(t, 0, h.len())
}

func TestHubCloseDetaches(t *testing.T) {
	m := newManager(t)
	h := newHub(m, logger)
	c := h.add(8)
	h.close()

	select {
	case <-c.Done():
	default:
		t.Fatal("client still running after close")
	}
	queued := len(c.send)
	m.CreateWindow(desktop.CreateOptions{ID: "a"})
	assert.Equal(t, queued, len(c.send))
}
