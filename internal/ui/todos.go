package ui

import (
	"fmt"
	"strings"
	"time"

	"focusboard/internal/config"
	"focusboard/internal/model"
	"focusboard/internal/store"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TodoPane lists the todos matching the filter picked in the project pane.
type TodoPane struct {
	todos   []model.Todo
	blocked map[string]bool
	filter  todoFilter
	cursor  int
	focused bool
	width   int
	height  int
	adding  bool
	input   textinput.Model
	mut     store.Mutator
	styles  *Styles
	now     func() time.Time

	showCompleted bool

	keys      TodoKeyMap
	inputKeys InputKeyMap
}

// NewTodoPane creates a todo pane with key bindings from keyCfg.
func NewTodoPane(mut store.Mutator, styles *Styles, keyCfg *config.KeysConfig) *TodoPane {
	if keyCfg == nil {
		keyCfg = &config.KeysConfig{}
	}
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 500
	ti.Width = 40

	return &TodoPane{
		todos:         []model.Todo{},
		blocked:       map[string]bool{},
		filter:        allFilter,
		focused:       true,
		input:         ti,
		mut:           mut,
		styles:        styles,
		now:           time.Now,
		showCompleted: true,
		keys:          NewTodoKeyMap(keyCfg),
		inputKeys:     NewInputKeyMap(keyCfg),
	}
}

// setTodos replaces the list from a state snapshot and keeps the cursor in
// bounds.
func (p *TodoPane) setTodos(state model.AppState) {
	var list []model.Todo
	for _, t := range state.Todos {
		if !p.filter.matches(t) {
			continue
		}
		if t.Completed && !p.showCompleted {
			continue
		}
		list = append(list, t)
	}
	p.todos = store.SortTodos(list)

	lookup := func(id string) (model.Todo, bool) {
		t, ok := state.Todos[id]
		return t, ok
	}
	p.blocked = make(map[string]bool, len(p.todos))
	for _, t := range p.todos {
		if !t.Completed && store.CheckDependencies(t, lookup).Blocked {
			p.blocked[t.ID] = true
		}
	}

	if p.cursor >= len(p.todos) {
		p.cursor = max(0, len(p.todos)-1)
	}
}

// SetSize sets the pane dimensions.
func (p *TodoPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-6)
}

// SetFocused sets whether this pane is focused.
func (p *TodoPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsAdding returns whether we're in add mode.
func (p *TodoPane) IsAdding() bool {
	return p.adding
}

// Selected returns the todo under the cursor.
func (p *TodoPane) Selected() (model.Todo, bool) {
	if p.cursor < 0 || p.cursor >= len(p.todos) {
		return model.Todo{}, false
	}
	return p.todos[p.cursor], true
}

// Update handles key and mouse input for the todo pane.
func (p *TodoPane) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	if p.adding {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(msg, p.inputKeys.Confirm):
				text := strings.TrimSpace(p.input.Value())
				p.adding = false
				p.input.Reset()
				if text == "" {
					return nil
				}
				in := store.NewTodo{Text: text}
				if p.filter.kind == filterProject {
					in.ProjectID = p.filter.projectID
				}
				return addTodoCmd(p.mut, in, p.filter.kind == filterToday)

			case key.Matches(msg, p.inputKeys.Cancel):
				p.adding = false
				p.input.Reset()
				return nil
			}
		}
		p.input, cmd = p.input.Update(msg)
		return cmd
	}

	if !p.focused {
		return nil
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		return p.handleMouse(msg)

	case tea.KeyMsg:
		if next, ok := p.keys.navigate(msg, p.cursor, len(p.todos)); ok {
			p.cursor = next
			return nil
		}
		switch {
		case key.Matches(msg, p.keys.Add):
			p.adding = true
			p.input.Focus()
			return textinput.Blink

		case key.Matches(msg, p.keys.Toggle):
			if t, ok := p.Selected(); ok {
				return toggleTodoCmd(p.mut, t)
			}

		case key.Matches(msg, p.keys.Today):
			if t, ok := p.Selected(); ok {
				return toggleTodayCmd(p.mut, t)
			}

		case key.Matches(msg, p.keys.Delete):
			if t, ok := p.Selected(); ok {
				return deleteTodoCmd(p.mut, t)
			}
		}
	}
	return nil
}

// visibleRows is how many todos fit below the title and above the stats.
func (p *TodoPane) visibleRows() int {
	rows := p.height - 6
	if rows < 3 {
		rows = 5
	}
	return rows
}

func (p *TodoPane) firstVisible() int {
	if rows := p.visibleRows(); p.cursor >= rows {
		return p.cursor - rows + 1
	}
	return 0
}

// handleMouse processes mouse events for the todo pane.
func (p *TodoPane) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if len(p.todos) == 0 {
		return nil
	}
	// title + separator
	const headerRows = 2

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		p.cursor = max(p.cursor-1, 0)
	case tea.MouseButtonWheelDown:
		p.cursor = min(p.cursor+1, len(p.todos)-1)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return nil
		}
		row := msg.Y - headerRows
		if row < 0 || row >= p.visibleRows() {
			return nil
		}
		idx := p.firstVisible() + row
		if idx >= len(p.todos) {
			return nil
		}
		p.cursor = idx
		// Checkbox column: "![ ] "
		if msg.X < 5 {
			return toggleTodoCmd(p.mut, p.todos[idx])
		}
	}
	return nil
}

// View renders the todo pane.
func (p *TodoPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("TODOS · " + p.filter.label))
	b.WriteString("\n")

	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorMuted).Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	if len(p.todos) == 0 && !p.adding {
		hint := fmt.Sprintf("  Nothing here. Press '%s' to add a todo.", p.keys.Add.Help().Key)
		b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorTextMuted).Italic(true).Render(hint))
		b.WriteString("\n")
	} else {
		start := p.firstVisible()
		end := min(start+p.visibleRows(), len(p.todos))
		for i := start; i < end; i++ {
			b.WriteString(p.renderTodo(i))
			b.WriteString("\n")
		}

		done, total := p.Stats()
		b.WriteString("\n")
		b.WriteString("  " + p.styles.StatLabelStyle.Render(fmt.Sprintf("%d/%d complete", done, total)))
		b.WriteString("\n")
	}

	if p.adding {
		b.WriteString("\n")
		b.WriteString(p.styles.InputPromptStyle.Render("+ ") + p.input.View())
		b.WriteString("\n")
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

// renderTodo lays out one row: [priority][checkbox] text [marks][due].
func (p *TodoPane) renderTodo(i int) string {
	t := p.todos[i]

	checkbox := p.styles.TodoCheckboxPending
	if t.Completed {
		checkbox = p.styles.TodoCheckboxDone
	}

	var marks []string
	if p.blocked[t.ID] {
		marks = append(marks, "⛓")
	}
	if t.TodayTag {
		marks = append(marks, p.styles.TodayMark)
	}
	if due := p.formatDueDate(t.DueDate); due != "" {
		marks = append(marks, due)
	}
	suffix := strings.Join(marks, " ")
	suffixWidth := lipgloss.Width(suffix)

	// leading space + badge + checkbox + space
	fixed := 6
	if suffixWidth > 0 {
		fixed += suffixWidth + 1
	}
	avail := max(p.width-4-fixed, 5)
	text := runewidth.Truncate(t.Text, avail, "..")
	pad := max(avail-runewidth.StringWidth(text), 1)

	if i == p.cursor && p.focused && !p.adding {
		line := fmt.Sprintf("%s%s %s", p.formatPriorityBadge(t.Priority), checkbox, text)
		if suffix != "" {
			line += strings.Repeat(" ", pad) + suffix
		}
		return p.styles.TodoSelectedStyle.Render(" " + line + " ")
	}

	styled := p.styles.TodoPendingStyle.Render(text)
	if t.Completed {
		styled = p.styles.TodoDoneStyle.Render(text)
	}
	line := fmt.Sprintf(" %s%s %s", p.formatPriorityBadge(t.Priority), checkbox, styled)
	if suffix != "" {
		line += strings.Repeat(" ", pad) + suffix
	}
	return line
}

// Stats returns how many listed todos are done.
func (p *TodoPane) Stats() (done, total int) {
	for _, t := range p.todos {
		if t.Completed {
			done++
		}
	}
	return done, len(p.todos)
}

// formatPriorityBadge returns "!" for priority 1, "~" for 2 and a space
// otherwise.
func (p *TodoPane) formatPriorityBadge(priority int) string {
	switch priority {
	case 1:
		return p.styles.PriorityHighStyle.Render("!")
	case 2:
		return p.styles.PriorityMediumStyle.Render("~")
	default:
		return " "
	}
}

// formatDueDate returns a compact due indicator: "!" (overdue), "T" (today),
// "+1" (tomorrow), "3d", "2w" or ">1m".
func (p *TodoPane) formatDueDate(dueDate *time.Time) string {
	if dueDate == nil {
		return ""
	}

	now := p.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	local := dueDate.In(now.Location())
	due := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, now.Location())
	days := int(due.Sub(today).Hours() / 24)

	switch {
	case days < 0:
		return p.styles.DueDateOverdueStyle.Render("!")
	case days == 0:
		return p.styles.DueDateTodayStyle.Render("T")
	case days == 1:
		return p.styles.DueDateFutureStyle.Render("+1")
	case days <= 7:
		return p.styles.DueDateFutureStyle.Render(fmt.Sprintf("%dd", days))
	case days <= 30:
		return p.styles.DueDateFutureStyle.Render(fmt.Sprintf("%dw", days/7))
	default:
		return p.styles.DueDateFutureStyle.Render(">1m")
	}
}
