package ui

import (
	"strings"
	"testing"
	"time"

	"focusboard/internal/model"
	"focusboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestTodoPane(t *testing.T, s *store.Store) *TodoPane {
	t.Helper()
	p := NewTodoPane(store.Lenient{Store: s}, createTestStyles(), nil)
	p.now = func() time.Time { return testNow }
	p.SetSize(60, 20)
	p.setTodos(s.State())
	return p
}

func TestTodoPane_AddTodo(t *testing.T) {
	s := createTestStore(t)
	p := newTestTodoPane(t, s)

	if cmd := p.Update(keyMsg("a")); cmd == nil {
		t.Fatal("expected blink command when entering add mode")
	}
	if !p.IsAdding() {
		t.Fatal("expected add mode after pressing a")
	}

	typeText(p, "Write report")
	cmd := p.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected add command on enter")
	}
	msg, ok := cmd().(todoAddedMsg)
	if !ok {
		t.Fatalf("expected todoAddedMsg, got %T", cmd())
	}
	if msg.err != nil {
		t.Fatalf("add failed: %v", msg.err)
	}
	if p.IsAdding() {
		t.Error("add mode should end after enter")
	}

	got, ok := s.Todo(msg.id)
	if !ok {
		t.Fatalf("todo %s not in store", msg.id)
	}
	if got.Text != "Write report" {
		t.Errorf("Text = %q, want %q", got.Text, "Write report")
	}
	if got.ProjectID != model.UnassignedProjectID {
		t.Errorf("ProjectID = %q, want unassigned", got.ProjectID)
	}
}

func TestTodoPane_AddUsesFilter(t *testing.T) {
	s := createTestStore(t)
	projectID, err := s.AddProject(store.NewProject{Title: "Launch"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		filter   todoFilter
		project  string
		todayTag bool
	}{
		{"today filter tags for today", todayFilter, model.UnassignedProjectID, true},
		{"project filter assigns project", todoFilter{kind: filterProject, projectID: projectID, label: "Launch"}, projectID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestTodoPane(t, s)
			p.filter = tt.filter
			p.Update(keyMsg("a"))
			typeText(p, "Item")
			msg := p.Update(keyMsg("enter"))().(todoAddedMsg)
			if msg.err != nil {
				t.Fatal(msg.err)
			}
			got, _ := s.Todo(msg.id)
			if got.ProjectID != tt.project {
				t.Errorf("ProjectID = %q, want %q", got.ProjectID, tt.project)
			}
			if got.TodayTag != tt.todayTag {
				t.Errorf("TodayTag = %v, want %v", got.TodayTag, tt.todayTag)
			}
		})
	}
}

func TestTodoPane_AddEmptyOrCanceled(t *testing.T) {
	s := createTestStore(t)
	p := newTestTodoPane(t, s)

	p.Update(keyMsg("a"))
	typeText(p, "   ")
	if cmd := p.Update(keyMsg("enter")); cmd != nil {
		t.Error("blank text should not produce a command")
	}

	p.Update(keyMsg("a"))
	typeText(p, "Nope")
	if cmd := p.Update(keyMsg("esc")); cmd != nil {
		t.Error("esc should not produce a command")
	}
	if p.IsAdding() {
		t.Error("esc should leave add mode")
	}
	if n := len(s.Todos()); n != 0 {
		t.Errorf("store has %d todos, want 0", n)
	}
}

func TestTodoPane_SetTodosFiltersAndSorts(t *testing.T) {
	s := createTestStore(t)
	projectID, _ := s.AddProject(store.NewProject{Title: "Launch"})
	low := addTodo(t, s, store.NewTodo{Text: "low", Priority: 5, ProjectID: projectID})
	high := addTodo(t, s, store.NewTodo{Text: "high", Priority: 1, ProjectID: projectID})
	done := addTodo(t, s, store.NewTodo{Text: "done", Priority: 1, ProjectID: projectID})
	addTodo(t, s, store.NewTodo{Text: "elsewhere"})
	if err := s.ToggleTodo(done); err != nil {
		t.Fatal(err)
	}

	p := newTestTodoPane(t, s)
	p.filter = todoFilter{kind: filterProject, projectID: projectID}
	p.setTodos(s.State())

	var ids []string
	for _, td := range p.todos {
		ids = append(ids, td.ID)
	}
	want := []string{high, low, done}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", ids, want)
	}

	p.showCompleted = false
	p.setTodos(s.State())
	if len(p.todos) != 2 {
		t.Errorf("got %d todos with completed hidden, want 2", len(p.todos))
	}
}

func TestTodoPane_BlockedTodos(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	first := addTodo(t, s, store.NewTodo{Text: "first", Priority: 1})
	second := addTodo(t, s, store.NewTodo{Text: "second", Priority: 2, Dependencies: []string{first}})
	ghost := addTodo(t, s, store.NewTodo{Text: "ghost dep", Priority: 3, Dependencies: []string{"t-missing"}})

	p := newTestTodoPane(t, s)
	if p.blocked[first] {
		t.Error("todo without dependencies should not be blocked")
	}
	if !p.blocked[second] {
		t.Error("todo with an open dependency should be blocked")
	}
	if !p.blocked[ghost] {
		t.Error("todo with an unknown dependency should be blocked")
	}
	if !strings.Contains(p.View(), "⛓") {
		t.Error("view should mark blocked todos")
	}

	if err := s.ToggleTodo(first); err != nil {
		t.Fatal(err)
	}
	p.setTodos(s.State())
	if p.blocked[second] {
		t.Error("todo should unblock once its dependency is done")
	}
}

func TestTodoPane_ToggleTodayDelete(t *testing.T) {
	s := createTestStore(t)
	id := addTodo(t, s, store.NewTodo{Text: "only"})
	p := newTestTodoPane(t, s)

	msg := p.Update(keyMsg("d"))().(todoToggledMsg)
	if msg.err != nil || !msg.done {
		t.Fatalf("toggle = %+v", msg)
	}
	if got, _ := s.Todo(id); !got.Completed {
		t.Error("todo should be completed")
	}

	today := p.Update(keyMsg("t"))().(todayToggledMsg)
	if today.err != nil || !today.tagged {
		t.Fatalf("today = %+v", today)
	}
	if got, _ := s.Todo(id); !got.TodayTag {
		t.Error("todo should be tagged for today")
	}

	del := p.Update(keyMsg("x"))().(todoDeletedMsg)
	if del.err != nil || del.todo == nil || del.todo.ID != id {
		t.Fatalf("delete = %+v", del)
	}
	if _, ok := s.Todo(id); ok {
		t.Error("todo should be gone")
	}
}

func TestTodoPane_IgnoresKeysWhenUnfocused(t *testing.T) {
	s := createTestStore(t)
	addTodo(t, s, store.NewTodo{Text: "only"})
	p := newTestTodoPane(t, s)
	p.SetFocused(false)

	if cmd := p.Update(keyMsg("d")); cmd != nil {
		t.Error("unfocused pane should ignore keys")
	}
}

func TestTodoPane_Navigation(t *testing.T) {
	s := createTestStore(t)
	for i := 1; i <= 3; i++ {
		addTodo(t, s, store.NewTodo{Text: "todo", Priority: i})
	}
	p := newTestTodoPane(t, s)

	p.Update(keyMsg("j"))
	p.Update(keyMsg("j"))
	p.Update(keyMsg("j"))
	if p.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", p.cursor)
	}
	p.Update(keyMsg("g"))
	if p.cursor != 0 {
		t.Errorf("cursor = %d after g, want 0", p.cursor)
	}
	p.Update(keyMsg("G"))
	if p.cursor != 2 {
		t.Errorf("cursor = %d after G, want 2", p.cursor)
	}
}

func TestTodoPane_MouseClickCheckbox(t *testing.T) {
	s := createTestStore(t)
	addTodo(t, s, store.NewTodo{Text: "first", Priority: 1})
	second := addTodo(t, s, store.NewTodo{Text: "second", Priority: 2})
	p := newTestTodoPane(t, s)

	// second row, inside the checkbox column
	cmd := p.Update(tea.MouseMsg{X: 2, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if p.cursor != 1 {
		t.Errorf("cursor = %d, want 1", p.cursor)
	}
	if cmd == nil {
		t.Fatal("click on checkbox should toggle")
	}
	if msg := cmd().(todoToggledMsg); msg.id != second {
		t.Errorf("toggled %s, want %s", msg.id, second)
	}
}

func TestTodoPane_View(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	due := testNow.AddDate(0, 0, -1)
	id := addTodo(t, s, store.NewTodo{Text: "Ship it", Priority: 1, DueDate: &due})
	if err := s.ToggleTodayTag(id); err != nil {
		t.Fatal(err)
	}
	p := newTestTodoPane(t, s)

	view := p.View()
	for _, want := range []string{"TODOS · All", "Ship it", "[ ]", "★", "!", "0/1 complete"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTodoPane_EmptyView(t *testing.T) {
	setupTest(t)
	p := newTestTodoPane(t, createTestStore(t))
	if view := p.View(); !strings.Contains(view, "Press 'a' to add a todo") {
		t.Errorf("empty view should hint at the add key:\n%s", view)
	}
}

func TestFormatDueDate(t *testing.T) {
	setupTest(t)
	p := newTestTodoPane(t, createTestStore(t))

	at := func(days int) *time.Time {
		d := testNow.AddDate(0, 0, days)
		return &d
	}
	tests := []struct {
		name string
		due  *time.Time
		want string
	}{
		{"none", nil, ""},
		{"overdue", at(-2), "!"},
		{"today", at(0), "T"},
		{"tomorrow", at(1), "+1"},
		{"this week", at(5), "5d"},
		{"weeks", at(15), "2w"},
		{"far", at(45), ">1m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.formatDueDate(tt.due); got != tt.want {
				t.Errorf("formatDueDate = %q, want %q", got, tt.want)
			}
		})
	}
}
