// Package ui is the focusboard terminal dashboard. This file defines key
// bindings using the Bubble Tea key package; every binding can be overridden
// from the keys section of the config.
package ui

import (
	"strings"

	"focusboard/internal/config"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// Helpers
// =============================================================================

// parseKeys splits a comma-separated string into individual keys.
// If the input is empty, returns the default keys. The word "space" stands
// for the space bar since a literal space is awkward in YAML.
func parseKeys(customKeys string, defaultKeys ...string) []string {
	if customKeys == "" {
		return defaultKeys
	}
	keys := strings.Split(customKeys, ",")
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		trimmed := strings.TrimSpace(k)
		switch {
		case trimmed == "space":
			result = append(result, " ")
		case trimmed != "":
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultKeys
	}
	return result
}

// helpLabel is the first key of a binding as shown in the help bar.
func helpLabel(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	if keys[0] == " " {
		return "space"
	}
	return keys[0]
}

func binding(custom, desc string, defaults ...string) key.Binding {
	keys := parseKeys(custom, defaults...)
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpLabel(keys), desc))
}

// =============================================================================
// Global Keys (available in all contexts)
// =============================================================================

// GlobalKeyMap defines keys available throughout the application.
type GlobalKeyMap struct {
	Quit     key.Binding
	Help     key.Binding
	NextPane key.Binding
	Undo     key.Binding
	Redo     key.Binding
	Sync     key.Binding
}

// NewGlobalKeyMap creates global key bindings from config.
func NewGlobalKeyMap(cfg *config.KeysConfig) GlobalKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return GlobalKeyMap{
		Quit:     binding(cfg.Quit, "quit", "q", "ctrl+c"),
		Help:     binding(cfg.Help, "help", "?"),
		NextPane: binding(cfg.NextPane, "next pane", "tab"),
		Undo:     binding(cfg.Undo, "undo", "u", "ctrl+z"),
		Redo:     binding(cfg.Redo, "redo", "ctrl+y"),
		Sync:     binding(cfg.Sync, "sync", "s"),
	}
}

// =============================================================================
// Navigation Keys (shared by list-based panes)
// =============================================================================

// NavigationKeyMap defines keys for list navigation.
type NavigationKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

// NewNavigationKeyMap creates navigation key bindings from config.
func NewNavigationKeyMap(cfg *config.KeysConfig) NavigationKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return NavigationKeyMap{
		Up:     binding(cfg.Up, "up", "k", "up"),
		Down:   binding(cfg.Down, "down", "j", "down"),
		Top:    binding(cfg.Top, "top", "g", "home"),
		Bottom: binding(cfg.Bottom, "bottom", "G", "end"),
	}
}

// navigate applies msg to a cursor over n rows. ok is false when msg is not
// a navigation key.
func (k NavigationKeyMap) navigate(msg tea.KeyMsg, cursor, n int) (next int, ok bool) {
	if n == 0 {
		return 0, key.Matches(msg, k.Up, k.Down, k.Top, k.Bottom)
	}
	switch {
	case key.Matches(msg, k.Up):
		return max(cursor-1, 0), true
	case key.Matches(msg, k.Down):
		return min(cursor+1, n-1), true
	case key.Matches(msg, k.Top):
		return 0, true
	case key.Matches(msg, k.Bottom):
		return n - 1, true
	}
	return cursor, false
}

// =============================================================================
// Input Keys (shared by text input fields)
// =============================================================================

// InputKeyMap defines keys for text input mode.
type InputKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// NewInputKeyMap creates input key bindings from config.
func NewInputKeyMap(cfg *config.KeysConfig) InputKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return InputKeyMap{
		Confirm: binding(cfg.Confirm, "confirm", "enter"),
		Cancel:  binding(cfg.Cancel, "cancel", "esc"),
	}
}

// =============================================================================
// Todo Pane Keys
// =============================================================================

// TodoKeyMap defines keys for the todo pane.
type TodoKeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Today  key.Binding
	Delete key.Binding
	NavigationKeyMap
}

// NewTodoKeyMap creates todo key bindings from config.
func NewTodoKeyMap(cfg *config.KeysConfig) TodoKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return TodoKeyMap{
		Add:              binding(cfg.AddTodo, "add", "a"),
		Toggle:           binding(cfg.ToggleTodo, "done", "d", "enter", " "),
		Today:            binding(cfg.TodayTag, "today", "t"),
		Delete:           binding(cfg.DeleteTodo, "delete", "x"),
		NavigationKeyMap: NewNavigationKeyMap(cfg),
	}
}

// ShortHelp lists the bindings shown in the help bar.
func (k TodoKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Today, k.Delete}
}

// =============================================================================
// Focus Pane Keys
// =============================================================================

// FocusKeyMap defines keys for the focus session pane.
type FocusKeyMap struct {
	Toggle key.Binding
}

// NewFocusKeyMap creates focus pane key bindings from config.
func NewFocusKeyMap(cfg *config.KeysConfig) FocusKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return FocusKeyMap{
		Toggle: binding(cfg.Focus, "start/stop", "f", "enter", " "),
	}
}

// =============================================================================
// Help Overlay Keys
// =============================================================================

// HelpKeyMap defines keys for the help overlay.
type HelpKeyMap struct {
	Close key.Binding
}

// DefaultHelpKeyMap returns the default help overlay key bindings.
func DefaultHelpKeyMap() HelpKeyMap {
	return HelpKeyMap{
		Close: key.NewBinding(
			key.WithKeys("?", "esc", "q", "enter", " "),
			key.WithHelp("any key", "close"),
		),
	}
}
