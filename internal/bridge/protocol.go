package bridge

import (
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/geometry"
)

// Frame types sent to clients.
const (
	FrameOptions = "options" // sent once after connect
	FrameWindows = "windows" // full collection after every change
	FrameEvent   = "event"   // one manager event
	FrameResult  = "result"  // reply to a command
)

// Command operations accepted from clients.
const (
	OpPing           = "ping"
	OpCreate         = "create"
	OpUpdate         = "update"
	OpRename         = "rename"
	OpFocus          = "focus"
	OpMinimize       = "minimize"
	OpMaximize       = "maximize"
	OpRestore        = "restore"
	OpToggleMaximize = "toggleMaximize"
	OpClose          = "close"
	OpSnapshot       = "snapshot"
	OpApply          = "apply"
	OpSave           = "save"
	OpLoad           = "load"
)

// WindowState is the wire form of a desktop.Window. Content is never sent.
type WindowState struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Rect       geometry.Rect   `json:"rect"`
	Live       geometry.Rect   `json:"live"`
	ZIndex     int             `json:"zIndex"`
	Focused    bool            `json:"focused"`
	Minimized  bool            `json:"isMinimized"`
	Maximized  bool            `json:"isMaximized"`
	Closing    bool            `json:"isClosing"`
	CustomData any             `json:"customData,omitempty"`
	Actions    desktop.Actions `json:"actions"`
}

// Frame is a server to client message.
type Frame struct {
	Type     string           `json:"type"`
	ReadOnly bool             `json:"readOnly,omitempty"`
	Windows  []WindowState    `json:"windows,omitempty"`
	Event    *desktop.Event   `json:"event,omitempty"`
	Result   *Result          `json:"result,omitempty"`
	Snapshot desktop.Snapshot `json:"snapshot,omitempty"`
}

// Command is a client to server message. Fields are used per Op.
type Command struct {
	Op         string                `json:"op"`
	Seq        int                   `json:"seq,omitempty"`
	ID         string                `json:"id,omitempty"`
	NewID      string                `json:"newID,omitempty"`
	Title      *string               `json:"title,omitempty"`
	Rect       *geometry.Rect        `json:"rect,omitempty"`
	Patch      *geometry.PartialRect `json:"patch,omitempty"`
	Pixels     bool                  `json:"pixels,omitempty"`
	CustomData any                   `json:"customData,omitempty"`
	Key        string                `json:"key,omitempty"`
	Snapshot   desktop.Snapshot      `json:"snapshot,omitempty"`
}

// Result answers a Command with the same Seq.
type Result struct {
	Op    string `json:"op"`
	Seq   int    `json:"seq,omitempty"`
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

func windowStates(ws []desktop.Window) []WindowState {
	out := make([]WindowState, len(ws))
	for i, w := range ws {
		out[i] = WindowState{
			ID:         w.ID,
			Title:      w.Title,
			Rect:       w.Rect,
			Live:       w.Live,
			ZIndex:     w.ZIndex,
			Focused:    w.Focused,
			Minimized:  w.Minimized,
			Maximized:  w.Maximized,
			Closing:    w.Closing,
			CustomData: w.CustomData,
			Actions:    w.Actions,
		}
	}
	return out
}
