package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlay renders the keyboard shortcut screen from the active bindings,
// so remapped keys are listed as configured.
type HelpOverlay struct {
	width  int
	height int
	styles *Styles

	global GlobalKeyMap
	todos  TodoKeyMap
	focus  FocusKeyMap
	input  InputKeyMap
}

// NewHelpOverlay creates a help overlay for the given bindings.
func NewHelpOverlay(styles *Styles, global GlobalKeyMap, todos TodoKeyMap, focus FocusKeyMap, input InputKeyMap) *HelpOverlay {
	return &HelpOverlay{styles: styles, global: global, todos: todos, focus: focus, input: input}
}

// SetSize sets the overlay dimensions
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help overlay
func (h *HelpOverlay) View() string {
	overlayWidth := 60
	if h.width > 0 {
		overlayWidth = min(60, max(20, h.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorPrimary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorAccent).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorWarning).
		Width(14)

	descStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorText)

	mutedStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorTextMuted).
		Italic(true)

	var b strings.Builder
	section := func(name string, bindings ...key.Binding) {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, kb := range bindings {
			b.WriteString(keyStyle.Render(strings.Join(displayKeys(kb), " / ")) + descStyle.Render(kb.Help().Desc) + "\n")
		}
	}

	b.WriteString(titleStyle.Render("focusboard - Keyboard Shortcuts"))
	b.WriteString("\n")

	section("Global", h.global.NextPane, h.global.Sync, h.global.Undo, h.global.Redo, h.global.Help, h.global.Quit)
	section("Todos", h.todos.Add, h.todos.Toggle, h.todos.Today, h.todos.Delete, h.todos.Up, h.todos.Down)
	section("Focus", h.focus.Toggle)
	section("Input Mode", h.input.Confirm, h.input.Cancel)

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press ? or Esc to close"))

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, overlayStyle.Render(b.String()))
}

// displayKeys lists a binding's keys with the space bar spelled out.
func displayKeys(kb key.Binding) []string {
	keys := kb.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == " " {
			k = "space"
		}
		out = append(out, k)
	}
	return out
}
