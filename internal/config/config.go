// Package config holds the tunables of the desktop: window sizing, smart
// placement, pointer interaction, snapshot storage and the network bridge.
// Values come from defaults, then the TOML file, then DESKWM_* variables.
package config

import (
	"fmt"
	"time"

	"github.com/kilodown/deskwm/internal/geometry"
)

// Duration is a time.Duration written as a string ("200ms") in TOML and env.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

// Config is the full configuration file.
type Config struct {
	// Theme names a bubbletint colour scheme for the TUI. Empty keeps the
	// built-in colours.
	Theme string `toml:"theme"`

	Window      WindowConfig      `toml:"window"`
	Placement   PlacementConfig   `toml:"placement"`
	Interaction InteractionConfig `toml:"interaction"`
	Storage     StorageConfig     `toml:"storage"`
	Bridge      BridgeConfig      `toml:"bridge"`
	TUI         TUIConfig         `toml:"tui"`
	Log         LogConfig         `toml:"log"`

	// Keybindings maps an action name to its keys.
	Keybindings map[string][]string `toml:"keybindings" ignored:"true"`
}

// WindowConfig controls window lifecycle defaults.
type WindowConfig struct {
	DefaultWidth      float64       `toml:"default_width" split_words:"true"`
	DefaultHeight     float64       `toml:"default_height" split_words:"true"`
	MinWidth          float64       `toml:"min_width" split_words:"true"`
	MinHeight         float64       `toml:"min_height" split_words:"true"`
	AnimationDuration Duration      `toml:"animation_duration" split_words:"true"`
	ZIndexFloor       int           `toml:"z_index_floor" split_words:"true"`
	RestoreFallback   geometry.Rect `toml:"restore_fallback" split_words:"true"`
}

// PlacementConfig drives the cascade used for windows created without a position.
type PlacementConfig struct {
	Offset         float64 `toml:"offset"`
	ResetPosition  float64 `toml:"reset_position" split_words:"true"`
	ConflictRadius float64 `toml:"conflict_radius" split_words:"true"`
	MaxIterations  int     `toml:"max_iterations" split_words:"true"`
}

// InteractionConfig tunes the pointer state machine.
type InteractionConfig struct {
	SnapThreshold     float64  `toml:"snap_threshold" split_words:"true"`
	JitterThreshold   float64  `toml:"jitter_threshold" split_words:"true"`
	RestoreMaxWidth   float64  `toml:"restore_max_width" split_words:"true"`
	RestoreMaxHeight  float64  `toml:"restore_max_height" split_words:"true"`
	RestoreFraction   float64  `toml:"restore_fraction" split_words:"true"`
	RestoreGrabOffset float64  `toml:"restore_grab_offset" split_words:"true"`
	DoubleClick       Duration `toml:"double_click" split_words:"true"`
}

// StorageConfig locates persisted snapshots.
type StorageConfig struct {
	Dir        string `toml:"dir"`
	Compress   bool   `toml:"compress"`
	DefaultKey string `toml:"default_key" split_words:"true"`
}

// BridgeConfig configures the websocket event bridge.
type BridgeConfig struct {
	Host        string   `toml:"host"`
	Port        string   `toml:"port"`
	Metrics     bool     `toml:"metrics"`
	SendBuffer  int      `toml:"send_buffer" split_words:"true"`
	AllowOrigin []string `toml:"allow_origin" split_words:"true"`
}

// TUIConfig adapts pixel sizes to the terminal front-end, where every cell
// is a block of container pixels.
type TUIConfig struct {
	// WindowScale multiplies the default, minimum and restore window sizes.
	WindowScale float64 `toml:"window_scale" split_words:"true"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default values.
const (
	DefaultAnimationDuration = 200 * time.Millisecond
	DefaultZIndexFloor       = 10
	DefaultSnapThreshold     = 15
	DefaultJitterThreshold   = 2
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			DefaultWidth:      800,
			DefaultHeight:     600,
			MinWidth:          600,
			MinHeight:         400,
			AnimationDuration: Duration{DefaultAnimationDuration},
			ZIndexFloor:       DefaultZIndexFloor,
			RestoreFallback:   geometry.Rect{Left: 10, Top: 10, Width: 50, Height: 50},
		},
		Placement: PlacementConfig{
			Offset:         40,
			ResetPosition:  60,
			ConflictRadius: 20,
			MaxIterations:  50,
		},
		Interaction: InteractionConfig{
			SnapThreshold:     DefaultSnapThreshold,
			JitterThreshold:   DefaultJitterThreshold,
			RestoreMaxWidth:   800,
			RestoreMaxHeight:  600,
			RestoreFraction:   0.8,
			RestoreGrabOffset: 20,
			DoubleClick:       Duration{400 * time.Millisecond},
		},
		Storage: StorageConfig{
			DefaultKey: "desktop",
		},
		Bridge: BridgeConfig{
			Host:       "localhost",
			Port:       "7681",
			Metrics:    true,
			SendBuffer: 64,
		},
		TUI: TUIConfig{
			WindowScale: 0.5,
		},
		Log: LogConfig{
			Level: "info",
		},
		Keybindings: DefaultKeybindings(),
	}
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Window.MinWidth <= 0 || c.Window.MinHeight <= 0 {
		return fmt.Errorf("window minimum size must be positive, got %vx%v", c.Window.MinWidth, c.Window.MinHeight)
	}
	if c.Window.DefaultWidth <= 0 || c.Window.DefaultHeight <= 0 {
		return fmt.Errorf("window default size must be positive, got %vx%v", c.Window.DefaultWidth, c.Window.DefaultHeight)
	}
	if c.Window.AnimationDuration.Duration < 0 {
		return fmt.Errorf("animation duration must not be negative")
	}
	if c.Interaction.SnapThreshold < 0 || c.Interaction.JitterThreshold < 0 {
		return fmt.Errorf("interaction thresholds must not be negative")
	}
	if c.Interaction.RestoreFraction <= 0 || c.Interaction.RestoreFraction > 1 {
		return fmt.Errorf("restore fraction must be in (0, 1], got %v", c.Interaction.RestoreFraction)
	}
	if c.Placement.MaxIterations < 0 {
		return fmt.Errorf("placement max iterations must not be negative")
	}
	if c.TUI.WindowScale <= 0 || c.TUI.WindowScale > 1 {
		return fmt.Errorf("tui window scale must be in (0, 1], got %v", c.TUI.WindowScale)
	}
	return nil
}

// ForTerminal returns a copy of c with window sizes multiplied by
// TUI.WindowScale. A scale outside (0, 1] leaves the sizes unchanged.
func (c *Config) ForTerminal() *Config {
	out := *c
	k := c.TUI.WindowScale
	if k <= 0 || k > 1 {
		return &out
	}
	out.Window.DefaultWidth *= k
	out.Window.DefaultHeight *= k
	out.Window.MinWidth *= k
	out.Window.MinHeight *= k
	out.Interaction.RestoreMaxWidth *= k
	out.Interaction.RestoreMaxHeight *= k
	return &out
}
