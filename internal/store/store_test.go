package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func sampleSnapshot() desktop.Snapshot {
	restore := geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40}
	return desktop.Snapshot{
		{
			ID:         "notes",
			Title:      "Notes",
			Rect:       geometry.Rect{Left: 5, Top: 5, Width: 30, Height: 50},
			ZIndex:     11,
			CustomData: map[string]any{"path": "todo.txt"},
		},
		{
			ID:          "editor",
			Title:       "Editor",
			Rect:        geometry.Full,
			ZIndex:      14,
			IsMaximized: true,
			IsTop:       true,
			IsFocused:   true,
			RestoreRect: &restore,
		},
	}
}

func newFileStore(t *testing.T, compress bool) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), WithCompression(compress))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory":          func(t *testing.T) Store { return NewMemoryStore() },
		"file":            func(t *testing.T) Store { return newFileStore(t, false) },
		"file compressed": func(t *testing.T) Store { return newFileStore(t, true) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			_, err := s.Load("desktop")
			assert.ErrorIs(t, err, ErrNotFound)

			want := sampleSnapshot()
			require.NoError(t, s.Save("desktop", want))
			require.NoError(t, s.Save("work", want[:1]))

			got, err := s.Load("desktop")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			infos, err := s.List()
			require.NoError(t, err)
			require.Len(t, infos, 2)
			assert.Equal(t, "desktop", infos[0].Key)
			assert.Equal(t, "work", infos[1].Key)
			assert.Positive(t, infos[0].Size)

			require.NoError(t, s.Delete("work"))
			assert.ErrorIs(t, s.Delete("work"), ErrNotFound)
			infos, _ = s.List()
			assert.Len(t, infos, 1)
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"desktop", true},
		{"work-2", true},
		{"", false},
		{".", false},
		{"..", false},
		{".hidden", false},
		{"a/b", false},
		{`a\b`, false},
	}

	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if (err == nil) != tt.want {
			t.Errorf("ValidateKey(%q) = %v, want ok=%v", tt.key, err, tt.want)
		}
	}

	s := NewMemoryStore()
	assert.ErrorIs(t, s.Save("../escape", nil), ErrInvalidKey)
}

func TestFileStoreFormats(t *testing.T) {
	dir := t.TempDir()
	plain, err := NewFileStore(dir)
	require.NoError(t, err)
	defer plain.Close()

	require.NoError(t, plain.Save("desktop", sampleSnapshot()))
	data, err := os.ReadFile(filepath.Join(dir, "desktop.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"zIndex": 11`)

	// switching to compression replaces the plain copy
	packed, err := NewFileStore(dir, WithCompression(true))
	require.NoError(t, err)
	defer packed.Close()
	require.NoError(t, packed.Save("desktop", sampleSnapshot()))

	_, err = os.Stat(filepath.Join(dir, "desktop.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "desktop.json.zst"))
	assert.NoError(t, err)

	// a plain store still reads compressed files
	got, err := plain.Load("desktop")
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	infos, err := plain.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.True(t, infos[0].Compressed)
}

func TestFileStoreIgnoresStrayFiles(t *testing.T) {
	s := newFileStore(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "half.json.tmp"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "sub.json"), 0o700))

	infos, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestFileStoreCorruptFile(t *testing.T) {
	s := newFileStore(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bad.json"), []byte("{not json"), 0o600))

	_, err := s.Load("bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStoreConcurrentSaves(t *testing.T) {
	for _, compress := range []bool{false, true} {
		s := newFileStore(t, compress)

		var g errgroup.Group
		for i := 0; i < 64; i++ {
			g.Go(func() error { return s.Save("shared", sampleSnapshot()) })
		}
		require.NoError(t, g.Wait())

		got, err := s.Load("shared")
		require.NoError(t, err)
		assert.Equal(t, sampleSnapshot(), got)

		entries, err := os.ReadDir(s.Dir())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.False(t, strings.HasSuffix(entries[0].Name(), ".tmp"), entries[0].Name())
	}
}
