package config

import (
	"sort"
	"strings"
)

// Desktop actions that can be bound to keys.
const (
	ActionNewWindow      = "new_window"
	ActionCloseWindow    = "close_window"
	ActionMinimizeWindow = "minimize_window"
	ActionToggleMaximize = "toggle_maximize"
	ActionRestoreAll     = "restore_all"
	ActionNextWindow     = "next_window"
	ActionPrevWindow     = "prev_window"
	ActionSaveSnapshot   = "save_snapshot"
	ActionLoadSnapshot   = "load_snapshot"
	ActionToggleHelp     = "toggle_help"
	ActionQuit           = "quit"
)

// ActionDescriptions is the help text for every action.
var ActionDescriptions = map[string]string{
	ActionNewWindow:      "New window",
	ActionCloseWindow:    "Close window",
	ActionMinimizeWindow: "Minimize window",
	ActionToggleMaximize: "Maximize / restore",
	ActionRestoreAll:     "Restore all",
	ActionNextWindow:     "Next window",
	ActionPrevWindow:     "Previous window",
	ActionSaveSnapshot:   "Save snapshot",
	ActionLoadSnapshot:   "Load snapshot",
	ActionToggleHelp:     "Toggle help",
	ActionQuit:           "Quit",
}

// DefaultKeybindings maps actions to the keys that trigger them.
func DefaultKeybindings() map[string][]string {
	return map[string][]string{
		ActionNewWindow:      {"n"},
		ActionCloseWindow:    {"x"},
		ActionMinimizeWindow: {"m"},
		ActionToggleMaximize: {"z", "f"},
		ActionRestoreAll:     {"M"},
		ActionNextWindow:     {"tab"},
		ActionPrevWindow:     {"shift+tab"},
		ActionSaveSnapshot:   {"s"},
		ActionLoadSnapshot:   {"l"},
		ActionToggleHelp:     {"?"},
		ActionQuit:           {"q", "ctrl+c"},
	}
}

// KeybindRegistry resolves keys to actions and back.
type KeybindRegistry struct {
	byAction map[string][]string
	byKey    map[string]string
}

// NewKeybindRegistry builds a registry from cfg, falling back to defaults
// for actions the user left unbound.
func NewKeybindRegistry(cfg *Config) *KeybindRegistry {
	r := &KeybindRegistry{
		byAction: DefaultKeybindings(),
		byKey:    map[string]string{},
	}
	if cfg != nil {
		for action, keys := range cfg.Keybindings {
			if len(keys) > 0 {
				r.byAction[action] = keys
			}
		}
	}
	for action, keys := range r.byAction {
		for _, k := range keys {
			r.byKey[normalizeKey(k)] = action
		}
	}
	return r
}

// GetKeys returns the keys bound to action.
func (r *KeybindRegistry) GetKeys(action string) []string {
	return r.byAction[action]
}

// GetAction returns the action bound to key, or "".
func (r *KeybindRegistry) GetAction(key string) string {
	return r.byKey[normalizeKey(key)]
}

// GetKeysForDisplay joins the keys of action for help output.
func (r *KeybindRegistry) GetKeysForDisplay(action string) string {
	return strings.Join(r.byAction[action], ", ")
}

// Keybinding represents a single keybinding entry
type Keybinding struct {
	Key         string
	Description string
}

// KeybindingSection represents a section of related keybindings
type KeybindingSection struct {
	Title    string
	Bindings []Keybinding
}

// GetKeybindings returns the help sections for registry.
func GetKeybindings(registry *KeybindRegistry) []KeybindingSection {
	if registry == nil {
		registry = NewKeybindRegistry(nil)
	}

	actions := make([]string, 0, len(registry.byAction))
	for action := range registry.byAction {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	keys := KeybindingSection{Title: "KEYBOARD"}
	for _, action := range actions {
		keys.Bindings = append(keys.Bindings, Keybinding{
			Key:         registry.GetKeysForDisplay(action),
			Description: ActionDescriptions[action],
		})
	}

	return []KeybindingSection{keys, {
		Title: "MOUSE",
		Bindings: []Keybinding{
			{"Drag title", "Move window"},
			{"Drag edge/corner", "Resize window"},
			{"Double-click title", "Maximize / restore"},
			{"Alt+Left drag", "Move from anywhere"},
			{"Alt+Right drag", "Resize from nearest region"},
			{"1-9, taskbar click", "Focus / unminimize"},
		},
	}}
}

// Shifted letters are case sensitive so "M" and "m" can differ.
func normalizeKey(k string) string {
	k = strings.TrimSpace(k)
	if len(k) == 1 {
		return k
	}
	return strings.ToLower(k)
}
