// Package server serves the desktop over SSH. Every session gets its own
// ephemeral desktop sized to the client's terminal.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/wish/v2"
	"charm.land/wish/v2/bubbletea"
	"charm.land/wish/v2/logging"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/ssh"
	deskconfig "github.com/kilodown/deskwm/internal/config"
	desklog "github.com/kilodown/deskwm/internal/logging"
	"github.com/kilodown/deskwm/internal/store"
	"github.com/kilodown/deskwm/internal/tui"
)

var logger = desklog.New("ssh")

// shutdownGrace bounds how long open sessions may delay a shutdown.
const shutdownGrace = 5 * time.Second

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	Host    string
	Port    string
	KeyPath string
	// Desktop configures every session's desktop. Nil uses the defaults.
	Desktop *deskconfig.Config
	// Snapshots is shared by all sessions. Nil gives each session a
	// private in-memory store.
	Snapshots store.Store
}

// DefaultHostKeyPath is where the host key is kept when none is configured.
func DefaultHostKeyPath() (string, error) {
	path, err := xdg.DataFile(filepath.Join("deskwm", "ssh_host_ed25519"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve host key path: %w", err)
	}
	return path, nil
}

// NewSSHServer builds the wish server. The host key is generated on first use.
func NewSSHServer(cfg *SSHServerConfig) (*ssh.Server, error) {
	keyPath := cfg.KeyPath
	if keyPath == "" {
		p, err := DefaultHostKeyPath()
		if err != nil {
			return nil, err
		}
		keyPath = p
	}

	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithHostKeyPath(keyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(teaHandler(cfg)),
			logging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}
	return srv, nil
}

// StartSSHServer runs the server until ctx is cancelled.
func StartSSHServer(ctx context.Context, cfg *SSHServerConfig) error {
	srv, err := NewSSHServer(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting SSH server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("SSH server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("SSH shutdown: %w", err)
	}
	return nil
}

// teaHandler creates a desktop for each SSH session.
func teaHandler(cfg *SSHServerConfig) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, active := s.Pty()
		if !active {
			wish.Fatalln(s, "deskwm needs an interactive terminal: connect with ssh -t")
			return nil, nil
		}

		snapshots := cfg.Snapshots
		if snapshots == nil {
			snapshots = store.NewMemoryStore()
		}
		model, err := tui.New(
			tui.WithConfig(cfg.Desktop),
			tui.WithStore(snapshots),
			tui.WithSize(pty.Window.Width, pty.Window.Height),
		)
		if err != nil {
			logger.Error("failed to create desktop", "user", s.User(), "err", err)
			wish.Fatalln(s, "could not start desktop")
			return nil, nil
		}

		logger.Info("session started", "user", s.User(), "remote", s.RemoteAddr(), "size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))
		go func() {
			<-s.Context().Done()
			model.Close()
			logger.Info("session ended", "user", s.User())
		}()
		return model, nil
	}
}
