package desktop

import (
	"sync"

	"github.com/kilodown/deskwm/internal/geometry"
)

// Surface is the container windows live in. Bounds is called on every
// measurement, so implementations must report the current size.
type Surface interface {
	Bounds() geometry.Bounds
}

// StaticSurface is a Surface whose bounds are set by the host, for example
// from terminal resize messages.
type StaticSurface struct {
	mu     sync.RWMutex
	bounds geometry.Bounds
}

// NewStaticSurface returns a surface of width x height at the client origin.
func NewStaticSurface(width, height float64) *StaticSurface {
	return &StaticSurface{bounds: geometry.Bounds{Width: width, Height: height}}
}

// Bounds implements Surface.
func (s *StaticSurface) Bounds() geometry.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Resize changes the surface size, keeping its offset.
func (s *StaticSurface) Resize(width, height float64) {
	s.mu.Lock()
	s.bounds.Width = width
	s.bounds.Height = height
	s.mu.Unlock()
}

// SetBounds replaces the bounds including the client offset.
func (s *StaticSurface) SetBounds(b geometry.Bounds) {
	s.mu.Lock()
	s.bounds = b
	s.mu.Unlock()
}
