// Package bridge exposes a desktop over HTTP. Clients connect to /ws, get
// the window collection and every manager event as JSON frames, and may send
// commands back. Snapshots are also served over plain HTTP.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kilodown/deskwm/internal/config"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/logging"
	"github.com/kilodown/deskwm/internal/store"
	"github.com/kilodown/deskwm/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

var logger = logging.New("bridge")

// Config holds the bridge server configuration.
type Config struct {
	Host           string        // Host to bind to (default: "localhost")
	Port           string        // Port to listen on (default: "7681")
	ReadOnly       bool          // If true, commands other than ping and snapshot are refused
	MaxConnections int           // Maximum concurrent websocket clients (0 = unlimited)
	SendBuffer     int           // Frames queued per client before it is dropped
	AllowOrigins   []string      // Allowed origin patterns (empty = all)
	ShutdownGrace  time.Duration // Time given to in-flight requests on shutdown
}

// ConfigFrom builds a Config from the bridge section of the config file.
func ConfigFrom(c config.BridgeConfig) Config {
	return Config{
		Host:         c.Host,
		Port:         c.Port,
		SendBuffer:   c.SendBuffer,
		AllowOrigins: c.AllowOrigin,
	}
}

// Server bridges one desktop.Manager to any number of websocket clients.
type Server struct {
	config   Config
	mgr      *desktop.Manager
	store    store.Store
	factory  desktop.ContentFactory
	metrics  *telemetry.Metrics
	gatherer prometheus.Gatherer
	hub      *hub
	log      *log.Logger

	connCount  int32 // atomic
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the save and load commands and the /snapshots endpoint.
func WithStore(s store.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithContentFactory rebuilds content for windows created by apply and load.
func WithContentFactory(f desktop.ContentFactory) Option {
	return func(srv *Server) { srv.factory = f }
}

// WithMetrics counts clients and snapshot operations on m and serves g on
// /metrics.
func WithMetrics(m *telemetry.Metrics, g prometheus.Gatherer) Option {
	return func(srv *Server) {
		srv.metrics = m
		srv.gatherer = g
	}
}

// NewServer creates a bridge for mgr. The hub subscribes to mgr right away;
// call Close to detach it.
func NewServer(mgr *desktop.Manager, cfg Config, opts ...Option) *Server {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "7681"
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}

	s := &Server{config: cfg, mgr: mgr, log: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(mgr, s.log)

	s.log.Info("creating bridge server",
		"host", cfg.Host,
		"port", cfg.Port,
		"read_only", cfg.ReadOnly,
		"max_connections", cfg.MaxConnections,
	)
	return s
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, s.config.Port)
}

// Handler returns the HTTP routes of the bridge.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /windows", s.handleWindows)
	mux.HandleFunc("GET /snapshot", s.handleGetSnapshot)
	mux.HandleFunc("PUT /snapshot", s.handleApplySnapshot)
	mux.HandleFunc("GET /snapshots", s.handleListSnapshots)
	mux.HandleFunc("/snapshots/{key}", s.handleStoredSnapshot)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server starting",
			"addr", s.Addr(),
			"url", fmt.Sprintf("http://%s", s.Addr()),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down bridge server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGrace)
		defer cancel()
		// Shutdown does not wait for hijacked websocket connections.
		s.hub.closeAll()
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close detaches the hub from the manager and disconnects every client.
func (s *Server) Close() {
	s.hub.close()
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.len()
}

func (s *Server) checkConnectionLimit() bool {
	if s.config.MaxConnections <= 0 {
		atomic.AddInt32(&s.connCount, 1)
		return true
	}
	for {
		n := atomic.LoadInt32(&s.connCount)
		if int(n) >= s.config.MaxConnections {
			return false
		}
		if atomic.CompareAndSwapInt32(&s.connCount, n, n+1) {
			return true
		}
	}
}

func (s *Server) releaseConnection() {
	atomic.AddInt32(&s.connCount, -1)
}

func (s *Server) observeSnapshot(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveSnapshot(op, err)
	}
}

func (s *Server) setClientGauge() {
	if s.metrics != nil {
		s.metrics.BridgeClients.Set(float64(s.hub.len()))
	}
}
