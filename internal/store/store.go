// Package store persists desktop snapshots under string keys.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilodown/deskwm/internal/desktop"
)

var (
	// ErrNotFound is returned when no snapshot exists under a key.
	ErrNotFound = errors.New("store: snapshot not found")
	// ErrInvalidKey is returned for keys that are empty or contain path elements.
	ErrInvalidKey = errors.New("store: invalid snapshot key")
)

// Info describes a stored snapshot.
type Info struct {
	Key        string    `json:"key" yaml:"key"`
	Size       int64     `json:"size" yaml:"size"`
	Modified   time.Time `json:"modified" yaml:"modified"`
	Compressed bool      `json:"compressed" yaml:"compressed"`
}

// Store saves and loads snapshots.
type Store interface {
	Save(key string, snap desktop.Snapshot) error
	Load(key string) (desktop.Snapshot, error)
	Delete(key string) error
	List() ([]Info, error)
}

// ValidateKey rejects keys that could escape the store directory.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// MemoryStore keeps encoded snapshots in memory. Values are stored as JSON
// so a load returns the same shapes a file round trip would.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	data     []byte
	modified time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memItem{}, now: time.Now}
}

// Save implements Store.
func (s *MemoryStore) Save(key string, snap desktop.Snapshot) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memItem{data: data, modified: s.now()}
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(key string) (desktop.Snapshot, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	var snap desktop.Snapshot
	if err := json.Unmarshal(item.data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return snap, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	delete(s.items, key)
	return nil
}

// List implements Store. Entries are sorted by key.
func (s *MemoryStore) List() ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, 0, len(s.items))
	for key, item := range s.items {
		infos = append(infos, Info{Key: key, Size: int64(len(item.data)), Modified: item.modified})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
