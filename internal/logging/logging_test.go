package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewReusesPrefix(t *testing.T) {
	a := New("test-reuse")
	b := New("test-reuse")
	if a != b {
		t.Error("New returned different loggers for the same prefix")
	}
}

func TestSetOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("test-output")
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel(log.WarnLevel)
	defer SetLevel(log.InfoLevel)

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("info line logged at warn level: %q", got)
	}
	if !strings.Contains(got, "shown") || !strings.Contains(got, "key=value") {
		t.Errorf("warn line missing: %q", got)
	}
}

func TestSetLevelString(t *testing.T) {
	defer SetLevel(log.InfoLevel)

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("SetLevelString(DEBUG) error: %v", err)
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("SetLevelString(loud) should fail")
	}
}
