package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/logging"
)

const (
	plainExt      = ".json"
	compressedExt = ".json.zst"
)

// DefaultDir is where snapshots live when the config names no directory.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "deskwm", "snapshots")
}

// FileStore keeps one file per key. Plain snapshots are indented JSON;
// compressed ones are zstd frames of compact JSON. Writes go to a temporary
// file first and are renamed into place.
type FileStore struct {
	dir      string
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	logger   *log.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithCompression stores new snapshots zstd-compressed.
func WithCompression(on bool) FileOption {
	return func(s *FileStore) { s.compress = on }
}

// NewFileStore opens (and creates) a store in dir. An empty dir selects
// DefaultDir.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot directory %q: %w", dir, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	s := &FileStore{dir: dir, enc: enc, dec: dec, logger: logging.New("store")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Close releases the zstd codecs.
func (s *FileStore) Close() error {
	s.dec.Close()
	return s.enc.Close()
}

// Save implements Store. A snapshot saved in one format replaces any copy in
// the other.
func (s *FileStore) Save(key string, snap desktop.Snapshot) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	ext, stale := plainExt, compressedExt
	if s.compress {
		ext, stale = compressedExt, plainExt
		data, err = json.Marshal(snap)
		if err == nil {
			data = s.enc.EncodeAll(data, nil)
		}
	} else {
		data, err = json.MarshalIndent(snap, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}

	path := filepath.Join(s.dir, key+ext)
	if err := s.writeAtomic(path, key+ext+".*.tmp", data); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key+stale)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("could not remove stale snapshot", "key", key, "err", err)
	}

	s.logger.Debug("snapshot saved", "key", key, "windows", len(snap), "bytes", len(data))
	return nil
}

// writeAtomic writes data to a fresh temporary file in the store directory
// and renames it over path. Concurrent writers never share a temporary file.
func (s *FileStore) writeAtomic(path, pattern string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return fmt.Errorf("create temporary snapshot in %q: %w", s.dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write snapshot %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write snapshot %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize snapshot %q: %w", path, err)
	}
	return nil
}

// Load implements Store. The compressed copy wins if both exist.
func (s *FileStore) Load(key string) (desktop.Snapshot, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, key+compressedExt))
	compressed := err == nil
	if errors.Is(err, fs.ErrNotExist) {
		data, err = os.ReadFile(filepath.Join(s.dir, key+plainExt))
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", key, err)
	}

	if compressed {
		data, err = s.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot %q: %w", key, err)
		}
	}

	var snap desktop.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return snap, nil
}

// Delete implements Store. Both formats are removed.
func (s *FileStore) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	removed := false
	for _, ext := range []string{plainExt, compressedExt} {
		err := os.Remove(filepath.Join(s.dir, key+ext))
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("delete snapshot %q: %w", key, err)
		}
	}
	if !removed {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return nil
}

// List implements Store. Entries are sorted by key; temporary files are skipped.
func (s *FileStore) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	byKey := map[string]Info{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var key string
		compressed := false
		switch {
		case strings.HasSuffix(name, compressedExt):
			key = strings.TrimSuffix(name, compressedExt)
			compressed = true
		case strings.HasSuffix(name, plainExt):
			key = strings.TrimSuffix(name, plainExt)
		default:
			continue
		}
		if ValidateKey(key) != nil {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			continue
		}
		if prev, ok := byKey[key]; ok && prev.Compressed {
			continue
		}
		byKey[key] = Info{Key: key, Size: fi.Size(), Modified: fi.ModTime(), Compressed: compressed}
	}

	infos := make([]Info, 0, len(byKey))
	for _, info := range byKey {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
