package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"focusboard/internal/config"
	"focusboard/internal/model"
	"focusboard/internal/store"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// FocusPane starts and stops focus sessions on the selected todo and shows
// today's focus totals.
type FocusPane struct {
	mut     store.Mutator
	styles  *Styles
	keys    FocusKeyMap
	now     func() time.Time
	focused bool
	width   int
	height  int

	// running session, empty when idle
	sessionID string
	startedAt time.Time
	todoText  string
	starting  bool

	recent       []model.Session
	todayMinutes float64
	weekMinutes  float64
	todoTitles   map[string]string
}

// NewFocusPane creates a focus pane.
func NewFocusPane(mut store.Mutator, styles *Styles, keyCfg *config.KeysConfig) *FocusPane {
	return &FocusPane{
		mut:        mut,
		styles:     styles,
		keys:       NewFocusKeyMap(keyCfg),
		now:        time.Now,
		todoTitles: map[string]string{},
	}
}

// setState recomputes totals and the recent list from a snapshot.
func (p *FocusPane) setState(state model.AppState) {
	now := p.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))

	p.todayMinutes, p.weekMinutes = 0, 0
	finished := make([]model.Session, 0, len(state.Sessions))
	for _, s := range state.Sessions {
		if s.ID == p.sessionID {
			continue
		}
		start := s.StartTime.In(now.Location())
		if !start.Before(dayStart) {
			p.todayMinutes += s.ActualMinutes
		}
		if !start.Before(weekStart) {
			p.weekMinutes += s.ActualMinutes
		}
		finished = append(finished, s)
	}
	slices.SortFunc(finished, func(a, b model.Session) int {
		return b.StartTime.Compare(a.StartTime)
	})
	p.recent = finished[:min(3, len(finished))]

	p.todoTitles = make(map[string]string, len(state.Todos))
	for id, t := range state.Todos {
		p.todoTitles[id] = t.Text
	}
}

// SetSize sets the pane dimensions.
func (p *FocusPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetFocused sets whether this pane is focused.
func (p *FocusPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsRunning reports whether a session is in progress.
func (p *FocusPane) IsRunning() bool {
	return p.sessionID != ""
}

// Elapsed is the running session's age.
func (p *FocusPane) Elapsed() time.Duration {
	if !p.IsRunning() {
		return 0
	}
	return p.now().Sub(p.startedAt)
}

// Toggle starts a session on todo, or stops the running one.
func (p *FocusPane) Toggle(todo model.Todo) tea.Cmd {
	if p.starting {
		return nil
	}
	if p.IsRunning() {
		return stopFocusCmd(p.mut, p.sessionID, p.startedAt, p.now())
	}
	p.starting = true
	p.startedAt = p.now()
	return startFocusCmd(p.mut, todo, p.startedAt)
}

// started records the outcome of startFocusCmd.
func (p *FocusPane) started(msg focusStartedMsg) {
	p.starting = false
	if msg.err != nil {
		return
	}
	p.sessionID = msg.sessionID
	p.todoText = msg.todoText
}

// stopped records the outcome of stopFocusCmd.
func (p *FocusPane) stopped(msg focusStoppedMsg) {
	if msg.err != nil {
		return
	}
	p.sessionID = ""
	p.todoText = ""
}

// Update handles keys when the pane is focused. todo is the todo currently
// selected in the todo pane.
func (p *FocusPane) Update(msg tea.Msg, todo model.Todo) tea.Cmd {
	if !p.focused {
		return nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, p.keys.Toggle) {
			return p.Toggle(todo)
		}
	case tea.MouseMsg:
		// title + separator + blank
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y >= 3 && msg.Y < 6 {
			return p.Toggle(todo)
		}
	}
	return nil
}

// View renders the focus pane.
func (p *FocusPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("FOCUS"))
	b.WriteString("\n")
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(p.styles.StatLabelStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n\n")

	if p.IsRunning() {
		label := p.todoText
		if label == "" {
			label = "Free focus"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n",
			p.styles.FocusRunningStyle.Render("▶"),
			p.styles.FocusTodoStyle.Render(truncateText(label, max(p.width-10, 8)))))
		b.WriteString("    " + p.styles.FocusRunningStyle.Render(formatDuration(p.Elapsed())))
		b.WriteString("\n")
	} else {
		b.WriteString("  " + p.styles.FocusStoppedStyle.Render("■ Idle"))
		b.WriteString("\n\n")
		hint := fmt.Sprintf("Press %s to focus on the selected todo", p.keys.Toggle.Help().Key)
		b.WriteString("  " + p.styles.StatLabelStyle.Render(hint))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Today: ") + p.styles.StatValueStyle.Render(formatMinutes(p.todayMinutes)))
	b.WriteString("\n")
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Week:  ") + p.styles.StatValueStyle.Render(formatMinutes(p.weekMinutes)))
	b.WriteString("\n\n")

	b.WriteString("  " + p.styles.StatLabelStyle.Render("Recent:"))
	b.WriteString("\n")
	if len(p.recent) == 0 {
		b.WriteString("  " + p.styles.StatLabelStyle.Render("  No sessions yet"))
		b.WriteString("\n")
	}
	for _, s := range p.recent {
		title := "Free focus"
		if len(s.Tasks) > 0 {
			if t, ok := p.todoTitles[s.Tasks[0]]; ok {
				title = t
			}
		}
		b.WriteString(fmt.Sprintf("    %s %s (%s)\n",
			p.styles.StatLabelStyle.Render(s.StartTime.In(p.now().Location()).Format("15:04")),
			truncateText(title, max(p.width-20, 8)),
			formatMinutes(s.ActualMinutes)))
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatMinutes formats minutes as "1h 5m" or "25m".
func formatMinutes(minutes float64) string {
	total := int(minutes + 0.5)
	if h := total / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, total%60)
	}
	return fmt.Sprintf("%dm", total)
}
