// Package pool recycles the scratch buffers used to build every TUI frame.
package pool

import (
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
)

// Builders larger than this are dropped instead of pooled so one huge
// frame does not pin its memory.
const (
	maxBuilderCap = 1 << 20
	maxLayerCap   = 1 << 10
)

var builderPool = sync.Pool{
	New: func() any { return new(strings.Builder) },
}

var layerPool = sync.Pool{
	New: func() any {
		s := make([]*lipgloss.Layer, 0, 16)
		return &s
	},
}

// GetStringBuilder returns an empty builder.
func GetStringBuilder() *strings.Builder {
	sb := builderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// PutStringBuilder returns sb to the pool. sb must not be used afterwards.
func PutStringBuilder(sb *strings.Builder) {
	if sb == nil || sb.Cap() > maxBuilderCap {
		return
	}
	builderPool.Put(sb)
}

// GetLayerSlice returns an empty layer slice with spare capacity.
func GetLayerSlice() *[]*lipgloss.Layer {
	s := layerPool.Get().(*[]*lipgloss.Layer)
	*s = (*s)[:0]
	return s
}

// PutLayerSlice returns s to the pool. Layer pointers are cleared so pooled
// slices do not keep old frames alive.
func PutLayerSlice(s *[]*lipgloss.Layer) {
	if s == nil || cap(*s) > maxLayerCap {
		return
	}
	clear((*s)[:cap(*s)])
	layerPool.Put(s)
}
