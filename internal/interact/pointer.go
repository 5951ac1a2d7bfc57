package interact

import "github.com/kilodown/deskwm/internal/desktop"

// Button is the pressed pointer button.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// PointerKind is the input device.
type PointerKind int

const (
	PointerMouse PointerKind = iota
	PointerTouch
	PointerPen
)

// TargetKind is the part of the window that was hit.
type TargetKind int

const (
	TargetContent TargetKind = iota
	TargetTitleBar
	TargetHandle
)

// HandleKind distinguishes the edge handles from the 3x3 grid shown while
// Alt is held.
type HandleKind int

const (
	HandleStandard HandleKind = iota
	HandleAlt
)

// Target describes what a pointer-down landed on.
type Target struct {
	Kind   TargetKind
	Handle HandleKind
	// Dir is the resize direction of a handle: n, s, e, w, the corners,
	// or c for the centre of the alt grid.
	Dir desktop.Action
}

// Title is a press on the title bar.
func Title() Target { return Target{Kind: TargetTitleBar} }

// Content is a press on the window body.
func Content() Target { return Target{Kind: TargetContent} }

// Edge is a press on a standard resize handle.
func Edge(dir desktop.Action) Target {
	return Target{Kind: TargetHandle, Handle: HandleStandard, Dir: dir}
}

// AltCell is a press on a cell of the Alt grid.
func AltCell(dir desktop.Action) Target {
	return Target{Kind: TargetHandle, Handle: HandleAlt, Dir: dir}
}

// PointerEvent is one pointer sample in client coordinates.
type PointerEvent struct {
	PointerID int
	X, Y      float64
	Button    Button
	Kind      PointerKind
	Alt       bool
	Target    Target
}
