package tape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kilodown/deskwm/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, script string, opts ...RunnerOption) (*HeadlessRunner, error) {
	t.Helper()
	commands, err := ParseFile(script)
	require.NoError(t, err)

	r, err := NewHeadlessRunner(opts...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, r.Run(context.Background(), commands)
}

func TestRunnerLifecycle(t *testing.T) {
	_, err := run(t, `
Container 1000 800
Create a "A" 10 10 40 40
Create b "B" 50 10 40 40
Expect focus b
Focus a
Expect focus a
Minimize a
Expect focus
Sleep 200ms
Expect focus b
Expect minimized a
Maximize b
Expect maximized b
Expect rect b 0 0 100 100
Restore b
Expect rect b 50 10 40 40
Rename b c
Title c "C"
Place c 20 20 30 30
Expect rect c 20 20 30 30
Close c
Expect gone c
Expect count 1
Sleep 200ms
Expect count 1
`)
	require.NoError(t, err)
}

func TestRunnerDragAndResize(t *testing.T) {
	// 1600x1000 container: a sits at px (160,100) sized 640x400
	r, err := run(t, `
Create a 10 10 40 40
Press a title 200 110
Move 280 210
Move 360 310
Release 360 310
Expect rect a 20 30 40 40
Press a edge e 960 400
Move 1060 400
Release 1060 400
Expect rect a 20 30 46.25 40
`)
	require.NoError(t, err)

	w, ok := r.Manager().Window("a")
	require.True(t, ok)
	assert.Equal(t, w.Rect, w.Live)
}

func TestRunnerPressOnContentStartsNothing(t *testing.T) {
	_, err := run(t, `
Create a 10 10 40 40
Press a content 200 200
Move 600 600
Release 600 600
Expect rect a 10 10 40 40
`)
	require.NoError(t, err)
}

func TestRunnerSnapshots(t *testing.T) {
	factoryCalls := 0
	_, err := run(t, `
Create a "A" 5 5 30 30
Create b "B" 40 5 30 30
Save layout
Close a
Close b
Sleep 200ms
Expect count 0
Load layout
Expect count 2
Expect rect a 5 5 30 30
Expect focus b
`, WithStore(store.NewMemoryStore()), WithContentFactory(func(id string, _ any) any {
		factoryCalls++
		return id
	}))
	require.NoError(t, err)
	// two creates plus two windows rebuilt by Load
	assert.Equal(t, 4, factoryCalls)
}

func TestRunnerErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		line   int
		expect bool
	}{
		{"missing window", "Create a\nFocus ghost", 2, false},
		{"no store", "Save x", 1, false},
		{"wrong count", "Create a\nExpect count 2", 2, true},
		{"wrong rect", "Create a 10 10 40 40\nExpect rect a 10 10 40 41", 2, true},
		{"wrong focus", "Create a\nCreate b\nExpect focus a", 3, true},
		{"not minimized", "Create a\nExpect minimized a", 2, true},
		{"rename taken", "Create a\nCreate b\nRename a b", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.script)
			require.Error(t, err)
			assert.Equal(t, tt.expect, errors.Is(err, ErrExpectation))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestRunnerVirtualTime(t *testing.T) {
	start := time.Now()
	_, err := run(t, "Create a\nSleep 1h\nClose a @10m\nExpect count 0")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestRunnerCancelled(t *testing.T) {
	commands, err := ParseFile("Create a\nSleep 1s")
	require.NoError(t, err)
	r, err := NewHeadlessRunner(WithRealtime(true))
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx, commands), context.Canceled)
}

func TestPlayerProgress(t *testing.T) {
	commands, err := ParseFile("Create a\nFocus a\n\nClose a\nSleep 1s")
	require.NoError(t, err)

	p := NewPlayer(commands)
	assert.Equal(t, 0, p.Progress())
	assert.Equal(t, "0/4", p.Step())

	cmd, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "Create a", cmd.String())
	p.Next()
	assert.Equal(t, 50, p.Progress())

	cmd, _ = p.Next()
	assert.Equal(t, CommandType_Close, cmd.Type)
	assert.Equal(t, "3/4 (line 4)", p.Step())

	p.Next()
	assert.True(t, p.Done())
	_, ok = p.Next()
	assert.False(t, ok)
	assert.Equal(t, 100, p.Progress())

	p.Rewind()
	assert.False(t, p.Done())
	assert.Equal(t, 4, p.Total())

	assert.True(t, NewPlayer(nil).Done())
}
