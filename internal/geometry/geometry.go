// Package geometry converts window rectangles between the percentage units
// stored for every window and the pixel units measured against a live
// container.
package geometry

import "math"

// Rect is a window rectangle in percent of the container (0-100).
type Rect struct {
	Left   float64 `json:"left" yaml:"left" toml:"left"`
	Top    float64 `json:"top" yaml:"top" toml:"top"`
	Width  float64 `json:"width" yaml:"width" toml:"width"`
	Height float64 `json:"height" yaml:"height" toml:"height"`
}

// Full covers the whole container.
var Full = Rect{Left: 0, Top: 0, Width: 100, Height: 100}

// PixelRect is a rectangle in container-local pixels.
type PixelRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r PixelRect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r PixelRect) Bottom() float64 { return r.Top + r.Height }

// Contains reports whether the local point lies inside the rectangle.
func (r PixelRect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right() && p.Y >= r.Top && p.Y < r.Bottom()
}

// Size holds the container's pixel dimensions.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds is the container's box in client (global) coordinates.
type Bounds struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Size drops the client offset.
func (b Bounds) Size() Size { return Size{Width: b.Width, Height: b.Height} }

// ToLocal converts a client coordinate into container-local pixels.
func (b Bounds) ToLocal(clientX, clientY float64) Point {
	return Point{X: clientX - b.Left, Y: clientY - b.Top}
}

// Point is a container-local pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Delta is a pixel adjustment along each axis.
type Delta struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsZero reports whether neither axis moves.
func (d Delta) IsZero() bool { return d.X == 0 && d.Y == 0 }

// PartialRect carries an optional value per field for partial updates.
type PartialRect struct {
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Partial wraps a complete rect.
func Partial(r Rect) PartialRect {
	return PartialRect{Left: &r.Left, Top: &r.Top, Width: &r.Width, Height: &r.Height}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Merge overlays the set fields of p onto base.
func (p PartialRect) Merge(base Rect) Rect {
	if p.Left != nil {
		base.Left = *p.Left
	}
	if p.Top != nil {
		base.Top = *p.Top
	}
	if p.Width != nil {
		base.Width = *p.Width
	}
	if p.Height != nil {
		base.Height = *p.Height
	}
	return base
}

// PxToPct converts a pixel length into percent of size. A zero size yields 0.
func PxToPct(v, size float64) float64 {
	if size == 0 {
		return 0
	}
	return v / size * 100
}

// PctToPx converts a percentage of size into pixels.
func PctToPx(v, size float64) float64 {
	return v / 100 * size
}

// ToPercent converts a pixel rect to percent of the container.
func ToPercent(r PixelRect, s Size) Rect {
	return Rect{
		Left:   PxToPct(r.Left, s.Width),
		Top:    PxToPct(r.Top, s.Height),
		Width:  PxToPct(r.Width, s.Width),
		Height: PxToPct(r.Height, s.Height),
	}
}

// ToPixels converts a percent rect to pixels of the container.
func ToPixels(r Rect, s Size) PixelRect {
	return PixelRect{
		Left:   PctToPx(r.Left, s.Width),
		Top:    PctToPx(r.Top, s.Height),
		Width:  PctToPx(r.Width, s.Width),
		Height: PctToPx(r.Height, s.Height),
	}
}

// PartialToPercent converts only the set fields of a pixel partial.
func PartialToPercent(p PartialRect, s Size) PartialRect {
	var out PartialRect
	if p.Left != nil {
		out.Left = Float(PxToPct(*p.Left, s.Width))
	}
	if p.Top != nil {
		out.Top = Float(PxToPct(*p.Top, s.Height))
	}
	if p.Width != nil {
		out.Width = Float(PxToPct(*p.Width, s.Width))
	}
	if p.Height != nil {
		out.Height = Float(PxToPct(*p.Height, s.Height))
	}
	return out
}

// ClampPartial keeps a positioned partial inside [0,100]. A missing width or
// height counts as zero when clamping left or top.
func ClampPartial(p PartialRect) PartialRect {
	if p.Left != nil {
		p.Left = Float(clamp(*p.Left, 0, 100-deref(p.Width)))
	}
	if p.Top != nil {
		p.Top = Float(clamp(*p.Top, 0, 100-deref(p.Height)))
	}
	return p
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ClampRect keeps r fully inside [0,100] on both axes.
func ClampRect(r Rect) Rect {
	r.Width = clamp(r.Width, 0, 100)
	r.Height = clamp(r.Height, 0, 100)
	r.Left = clamp(r.Left, 0, 100-r.Width)
	r.Top = clamp(r.Top, 0, 100-r.Height)
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
