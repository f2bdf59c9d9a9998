package ui

import (
	"focusboard/internal/config"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all application styles, initialized with theme configuration.
type Styles struct {
	// Colors
	ColorPrimary   lipgloss.Color
	ColorAccent    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorDanger    lipgloss.Color
	ColorWarning   lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorBgLight   lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color

	// Component styles
	TitleStyle       lipgloss.Style
	DateStyle        lipgloss.Style
	PaneStyle        lipgloss.Style
	PaneFocusedStyle lipgloss.Style
	PaneTitleStyle   lipgloss.Style

	TodoDoneStyle       lipgloss.Style
	TodoPendingStyle    lipgloss.Style
	TodoSelectedStyle   lipgloss.Style
	TodoCheckboxDone    string
	TodoCheckboxPending string
	TodayMark           string

	PriorityHighStyle   lipgloss.Style
	PriorityMediumStyle lipgloss.Style
	PriorityLowStyle    lipgloss.Style

	DueDateOverdueStyle lipgloss.Style
	DueDateTodayStyle   lipgloss.Style
	DueDateFutureStyle  lipgloss.Style

	FocusRunningStyle lipgloss.Style
	FocusStoppedStyle lipgloss.Style
	FocusTodoStyle    lipgloss.Style

	ProgressFullStyle  lipgloss.Style
	ProgressEmptyStyle lipgloss.Style

	HelpStyle    lipgloss.Style
	HelpKeyStyle lipgloss.Style

	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style

	InputPromptStyle lipgloss.Style

	StatLabelStyle lipgloss.Style
	StatValueStyle lipgloss.Style

	// Sync indicator
	SyncOnlineStyle   lipgloss.Style
	SyncOfflineStyle  lipgloss.Style
	SyncBusyStyle     lipgloss.Style
	SyncDisabledStyle lipgloss.Style
}

// NewStyles creates a new Styles instance from the given config.
func NewStyles(cfg *config.Config) *Styles {
	return NewStylesFromTheme(&cfg.Theme)
}

// NewStylesFromTheme creates a new Styles instance from a ThemeConfig.
// If a theme color is empty, it uses the appropriate default.
func NewStylesFromTheme(theme *config.ThemeConfig) *Styles {
	s := &Styles{}

	s.ColorPrimary = colorOrDefault(theme.Primary, "#7C3AED")
	s.ColorAccent = colorOrDefault(theme.Accent, "#10B981")
	s.ColorMuted = colorOrDefault(theme.Muted, "#6B7280")
	s.ColorWarning = colorOrDefault(theme.Warning, "#F59E0B")
	s.ColorText = colorOrDefault(theme.Text, "#F9FAFB")

	// Fixed semantic colors
	s.ColorDanger = lipgloss.Color("#EF4444")
	s.ColorSuccess = lipgloss.Color("#10B981")
	s.ColorBgLight = lipgloss.Color("#374151")
	s.ColorTextMuted = lipgloss.Color("#9CA3AF")

	s.initComponentStyles()
	return s
}

// colorOrDefault returns the lipgloss.Color from hex string, or default if empty.
func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

func (s *Styles) initComponentStyles() {
	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorText).
		Background(s.ColorPrimary).
		Padding(0, 1)

	s.DateStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.PaneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorMuted).
		Padding(0, 1)

	s.PaneFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorPrimary).
		Padding(0, 1)

	s.PaneTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorPrimary)

	s.TodoDoneStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted).
		Strikethrough(true)

	s.TodoPendingStyle = lipgloss.NewStyle().
		Foreground(s.ColorText)

	s.TodoSelectedStyle = lipgloss.NewStyle().
		Background(s.ColorBgLight).
		Foreground(s.ColorText).
		Bold(true)

	s.TodoCheckboxDone = lipgloss.NewStyle().Foreground(s.ColorSuccess).Render("[✓]")
	s.TodoCheckboxPending = lipgloss.NewStyle().Foreground(s.ColorMuted).Render("[ ]")
	s.TodayMark = lipgloss.NewStyle().Foreground(s.ColorWarning).Render("★")

	s.PriorityHighStyle = lipgloss.NewStyle().
		Foreground(s.ColorDanger).
		Bold(true)

	s.PriorityMediumStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning)

	s.PriorityLowStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.DueDateOverdueStyle = lipgloss.NewStyle().
		Foreground(s.ColorDanger).
		Bold(true)

	s.DueDateTodayStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning)

	s.DueDateFutureStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.FocusRunningStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Bold(true)

	s.FocusStoppedStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.FocusTodoStyle = lipgloss.NewStyle().
		Foreground(s.ColorAccent).
		Bold(true)

	s.ProgressFullStyle = lipgloss.NewStyle().Foreground(s.ColorAccent)
	s.ProgressEmptyStyle = lipgloss.NewStyle().Foreground(s.ColorMuted)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.HelpKeyStyle = lipgloss.NewStyle().
		Foreground(s.ColorAccent).
		Bold(true)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Italic(true)

	s.ErrorStyle = lipgloss.NewStyle().
		Foreground(s.ColorDanger).
		Bold(true)

	s.InputPromptStyle = lipgloss.NewStyle().
		Foreground(s.ColorPrimary).
		Bold(true)

	s.StatLabelStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.StatValueStyle = lipgloss.NewStyle().
		Foreground(s.ColorText).
		Bold(true)

	s.SyncOnlineStyle = lipgloss.NewStyle().Foreground(s.ColorSuccess)
	s.SyncOfflineStyle = lipgloss.NewStyle().Foreground(s.ColorWarning).Bold(true)
	s.SyncBusyStyle = lipgloss.NewStyle().Foreground(s.ColorAccent)
	s.SyncDisabledStyle = lipgloss.NewStyle().Foreground(s.ColorMuted)
}

// RenderHelp renders key/description pairs for the help bar.
func (s *Styles) RenderHelp(keys ...string) string {
	var result string
	for i := 0; i+1 < len(keys); i += 2 {
		if i > 0 {
			result += "  "
		}
		result += s.HelpKeyStyle.Render("["+keys[i]+"]") + " " + s.HelpStyle.Render(keys[i+1])
	}
	return result
}

// RenderBindings renders the help text of key bindings, so remapped keys
// show up as configured.
func (s *Styles) RenderBindings(bindings ...key.Binding) string {
	pairs := make([]string, 0, 2*len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		pairs = append(pairs, h.Key, h.Desc)
	}
	return s.RenderHelp(pairs...)
}
