// Package logging hands out prefixed charmbracelet loggers that share one
// output and level, so the TUI can move every package's logs off the screen
// with a single call.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	level             = log.InfoLevel
	loggers           = map[string]*log.Logger{}
)

// New returns the logger for prefix, creating it on first use.
func New(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[prefix]; ok {
		return l
	}
	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
	loggers[prefix] = l
	return l
}

// SetOutput redirects every logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	out = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

// SetLevel changes the level of every logger.
func SetLevel(lvl log.Level) {
	mu.Lock()
	defer mu.Unlock()

	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
}

// SetLevelString parses names like "debug" or "warn".
func SetLevelString(name string) error {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	SetLevel(lvl)
	return nil
}

// ToFile sends all logs to a file under the XDG state directory and returns
// a closer that restores stderr.
func ToFile(name string) (string, func() error, error) {
	path, err := xdg.StateFile(filepath.Join("deskwm", name))
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve log path: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open log file: %w", err)
	}
	SetOutput(f)
	return path, func() error {
		SetOutput(os.Stderr)
		return f.Close()
	}, nil
}
