package ui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"focusboard/internal/config"
	"focusboard/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type filterKind int

const (
	filterAll filterKind = iota
	filterToday
	filterProject
)

// todoFilter selects which todos the todo pane lists.
type todoFilter struct {
	kind      filterKind
	projectID string
	label     string
}

var (
	allFilter   = todoFilter{kind: filterAll, label: "All"}
	todayFilter = todoFilter{kind: filterToday, label: "Today"}
)

func (f todoFilter) matches(t model.Todo) bool {
	switch f.kind {
	case filterToday:
		return t.TodayTag
	case filterProject:
		return t.ProjectID == f.projectID
	}
	return true
}

// projectRow is one line of the project pane.
type projectRow struct {
	filter   todoFilter
	open     int
	progress int
	project  bool
}

// ProjectPane lists the todo filters: all, today, every active project and
// the unassigned bucket.
type ProjectPane struct {
	rows    []projectRow
	cursor  int
	focused bool
	width   int
	height  int
	styles  *Styles
	keys    NavigationKeyMap
}

// NewProjectPane creates a project pane.
func NewProjectPane(styles *Styles, keyCfg *config.KeysConfig) *ProjectPane {
	p := &ProjectPane{styles: styles, keys: NewNavigationKeyMap(keyCfg)}
	p.setState(model.NewAppState())
	return p
}

// setState rebuilds the rows from a snapshot. The cursor stays on the same
// filter when it still exists.
func (p *ProjectPane) setState(state model.AppState) {
	current := p.Selected()

	open := map[string]int{}
	today := 0
	total := 0
	for _, t := range state.Todos {
		if t.Completed {
			continue
		}
		total++
		open[t.ProjectID]++
		if t.TodayTag {
			today++
		}
	}

	projects := make([]model.Project, 0, len(state.Projects))
	for _, pr := range state.Projects {
		if !pr.Archived {
			projects = append(projects, pr)
		}
	}
	slices.SortFunc(projects, func(a, b model.Project) int {
		if c := cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority)); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})

	rows := []projectRow{
		{filter: allFilter, open: total},
		{filter: todayFilter, open: today},
	}
	for _, pr := range projects {
		rows = append(rows, projectRow{
			filter:   todoFilter{kind: filterProject, projectID: pr.ID, label: pr.Title},
			open:     open[pr.ID],
			progress: pr.Progress,
			project:  true,
		})
	}
	if open[model.UnassignedProjectID] > 0 {
		rows = append(rows, projectRow{
			filter: todoFilter{kind: filterProject, projectID: model.UnassignedProjectID, label: "Unassigned"},
			open:   open[model.UnassignedProjectID],
		})
	}
	p.rows = rows

	p.cursor = 0
	for i, r := range rows {
		if r.filter.kind == current.kind && r.filter.projectID == current.projectID {
			p.cursor = i
			break
		}
	}
}

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 0
	case model.PriorityMedium:
		return 1
	}
	return 2
}

// Selected returns the filter under the cursor.
func (p *ProjectPane) Selected() todoFilter {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return allFilter
	}
	return p.rows[p.cursor].filter
}

// SetSize sets the pane dimensions.
func (p *ProjectPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetFocused sets whether this pane is focused.
func (p *ProjectPane) SetFocused(focused bool) {
	p.focused = focused
}

// Update moves the cursor. It reports whether the selected filter changed.
func (p *ProjectPane) Update(msg tea.Msg) bool {
	if !p.focused {
		return false
	}
	before := p.cursor
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if next, ok := p.keys.navigate(msg, p.cursor, len(p.rows)); ok {
			p.cursor = next
		}
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			p.cursor = max(p.cursor-1, 0)
		case tea.MouseButtonWheelDown:
			p.cursor = min(p.cursor+1, len(p.rows)-1)
		case tea.MouseButtonLeft:
			// title + separator
			if row := msg.Y - 2; msg.Action == tea.MouseActionPress && row >= 0 && row < len(p.rows) {
				p.cursor = row
			}
		}
	}
	return p.cursor != before
}

// View renders the project pane.
func (p *ProjectPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("PROJECTS"))
	b.WriteString("\n")
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 20
	}
	b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorMuted).Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	for i, r := range p.rows {
		count := fmt.Sprintf("%d", r.open)
		bar := ""
		if r.project {
			bar = " " + p.progressBar(r.progress, 5)
		}
		avail := max(p.width-6-len(count)-lipgloss.Width(bar), 4)
		label := runewidth.Truncate(r.filter.label, avail, "..")
		pad := strings.Repeat(" ", max(avail-runewidth.StringWidth(label), 1))

		line := " " + label + pad + count + bar
		if i == p.cursor {
			if p.focused {
				line = p.styles.TodoSelectedStyle.Render(line)
			} else {
				line = p.styles.FocusTodoStyle.Render(line)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

// progressBar renders progress (0-100) in width cells.
func (p *ProjectPane) progressBar(progress, width int) string {
	filled := model.ClampProgress(progress) * width / 100
	return p.styles.ProgressFullStyle.Render(strings.Repeat("█", filled)) +
		p.styles.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}
