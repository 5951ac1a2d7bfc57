package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/store"
)

const maxBodySize = 4 << 20

var (
	errReadOnly = errors.New("bridge is read-only")
	errNoStore  = errors.New("no snapshot store configured")
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkConnectionLimit() {
		http.Error(w, "Maximum connections reached", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseConnection()

	opts := &websocket.AcceptOptions{
		OriginPatterns: s.config.AllowOrigins,
	}
	if len(s.config.AllowOrigins) == 0 {
		opts.OriginPatterns = []string{"*"}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.log.Error("WebSocket accept failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(maxBodySize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	startTime := time.Now()
	c := s.hub.add(s.config.SendBuffer)
	s.setClientGauge()
	defer func() {
		s.hub.remove(c)
		s.setClientGauge()
		s.log.Info("client disconnected",
			"client", c.id,
			"remote", r.RemoteAddr,
			"duration", time.Since(startTime).Round(time.Second),
		)
	}()

	s.log.Info("client connected", "client", c.id, "remote", r.RemoteAddr)

	if err := wsjson.Write(ctx, conn, Frame{Type: FrameOptions, ReadOnly: s.config.ReadOnly}); err != nil {
		return
	}

	done := make(chan struct{}, 2)

	// hub -> websocket
	go func() {
		defer func() { done <- struct{}{} }()
		defer cancel()
		s.streamFrames(ctx, conn, c)
	}()

	// websocket -> manager
	go func() {
		defer func() { done <- struct{}{} }()
		defer cancel()
		s.handleCommands(ctx, conn, c)
	}()

	<-done
	<-done
}

func (s *Server) streamFrames(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			s.log.Debug("client dropped by hub", "client", c.id)
			_ = conn.Close(websocket.StatusPolicyViolation, "client too slow")
			return
		case f := <-c.send:
			if err := wsjson.Write(ctx, conn, f); err != nil {
				s.log.Debug("write failed", "client", c.id, "err", err)
				return
			}
		}
	}
}

func (s *Server) handleCommands(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				s.log.Debug("read failed", "client", c.id, "err", err)
			}
			return
		}

		var cmd Command
		var reply Frame
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply = Frame{Type: FrameResult, Result: &Result{Error: fmt.Sprintf("invalid command: %v", err)}}
		} else {
			reply = s.Exec(cmd)
		}
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			return
		}
	}
}

// Exec runs one command against the manager and returns the reply frame.
func (s *Server) Exec(cmd Command) Frame {
	res := &Result{Op: cmd.Op, Seq: cmd.Seq, ID: cmd.ID}
	reply := Frame{Type: FrameResult, Result: res}

	snap, err := s.exec(cmd, res)
	if err != nil {
		res.Error = err.Error()
		s.log.Debug("command failed", "op", cmd.Op, "id", cmd.ID, "err", err)
		return reply
	}
	res.OK = true
	reply.Snapshot = snap
	return reply
}

func (s *Server) exec(cmd Command, res *Result) (desktop.Snapshot, error) {
	if s.config.ReadOnly && mutates(cmd.Op) {
		return nil, errReadOnly
	}

	switch cmd.Op {
	case OpPing:
		return nil, nil
	case OpSnapshot:
		return s.mgr.CaptureSnapshot(), nil
	case OpCreate:
		opts := desktop.CreateOptions{ID: cmd.ID, Rect: cmd.Rect, CustomData: cmd.CustomData}
		if cmd.Title != nil {
			opts.Title = *cmd.Title
		}
		if s.factory != nil {
			opts.Content = s.factory(cmd.ID, cmd.CustomData)
		}
		res.ID = s.mgr.CreateWindow(opts)
		return nil, nil
	case OpApply:
		s.mgr.ApplySnapshot(cmd.Snapshot, s.factory)
		s.observeSnapshot("apply", nil)
		return nil, nil
	case OpSave:
		if s.store == nil {
			return nil, errNoStore
		}
		err := s.store.Save(cmd.Key, s.mgr.CaptureSnapshot())
		s.observeSnapshot("save", err)
		return nil, err
	case OpLoad:
		if s.store == nil {
			return nil, errNoStore
		}
		snap, err := s.store.Load(cmd.Key)
		s.observeSnapshot("load", err)
		if err != nil {
			return nil, err
		}
		s.mgr.ApplySnapshot(snap, s.factory)
		return nil, nil
	}

	if !s.mgr.HasWindowID(cmd.ID) {
		if cmd.Op == "" || !known(cmd.Op) {
			return nil, fmt.Errorf("unknown op %q", cmd.Op)
		}
		return nil, fmt.Errorf("no window %q", cmd.ID)
	}

	switch cmd.Op {
	case OpUpdate:
		u := desktop.Update{Title: cmd.Title, Rect: cmd.Patch, CustomData: cmd.CustomData}
		if cmd.Pixels {
			u.Unit = desktop.Pixels
		}
		s.mgr.UpdateWindow(cmd.ID, u)
	case OpRename:
		if !s.mgr.UpdateWindowID(cmd.ID, cmd.NewID) {
			return nil, fmt.Errorf("cannot rename %q to %q", cmd.ID, cmd.NewID)
		}
		res.ID = cmd.NewID
	case OpFocus:
		s.mgr.BringToFront(cmd.ID)
	case OpMinimize:
		s.mgr.MinimizeWindow(cmd.ID)
	case OpMaximize:
		s.mgr.MaximizeWindow(cmd.ID)
	case OpRestore:
		s.mgr.RestoreWindow(cmd.ID, cmd.Rect)
	case OpToggleMaximize:
		s.mgr.ToggleMaximize(cmd.ID)
	case OpClose:
		s.mgr.CloseWindow(cmd.ID)
	default:
		return nil, fmt.Errorf("unknown op %q", cmd.Op)
	}
	return nil, nil
}

func known(op string) bool {
	switch op {
	case OpUpdate, OpRename, OpFocus, OpMinimize, OpMaximize, OpRestore, OpToggleMaximize, OpClose:
		return true
	}
	return false
}

func mutates(op string) bool {
	return op != OpPing && op != OpSnapshot
}

func (s *Server) handleWindows(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, windowStates(s.mgr.Windows()))
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mgr.CaptureSnapshot())
}

func (s *Server) handleApplySnapshot(w http.ResponseWriter, r *http.Request) {
	if s.config.ReadOnly {
		http.Error(w, errReadOnly.Error(), http.StatusForbidden)
		return
	}
	var snap desktop.Snapshot
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&snap); err != nil {
		http.Error(w, fmt.Sprintf("invalid snapshot: %v", err), http.StatusBadRequest)
		return
	}
	s.mgr.ApplySnapshot(snap, s.factory)
	s.observeSnapshot("apply", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, _ *http.Request) {
	if s.store == nil {
		http.Error(w, errNoStore.Error(), http.StatusNotFound)
		return
	}
	infos, err := s.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleStoredSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, errNoStore.Error(), http.StatusNotFound)
		return
	}
	key := r.PathValue("key")

	switch r.Method {
	case http.MethodGet:
		snap, err := s.store.Load(key)
		s.observeSnapshot("load", err)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case http.MethodPut:
		if s.config.ReadOnly {
			http.Error(w, errReadOnly.Error(), http.StatusForbidden)
			return
		}
		err := s.store.Save(key, s.mgr.CaptureSnapshot())
		s.observeSnapshot("save", err)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if s.config.ReadOnly {
			http.Error(w, errReadOnly.Error(), http.StatusForbidden)
			return
		}
		if err := s.store.Delete(key); err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
