package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"focusboard/internal/model"
)

// fixedClock returns a clock that advances one second per call, starting at a
// fixed UTC instant.
func fixedClock() func() time.Time {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

// createTestStore creates a Store with a deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return New(WithClock(fixedClock()))
}

func mustAddTodo(t *testing.T, s *Store, in NewTodo) string {
	t.Helper()
	id, err := s.AddTodo(in)
	if err != nil {
		t.Fatalf("AddTodo() error = %v", err)
	}
	return id
}

func mustAddProject(t *testing.T, s *Store, title string) string {
	t.Helper()
	id, err := s.AddProject(NewProject{Title: title})
	if err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	return id
}

// =============================================================================
// Project Tests
// =============================================================================

func TestAddProject_Defaults(t *testing.T) {
	s := createTestStore(t)

	id := mustAddProject(t, s, "Portfolio site")
	p, ok := s.Project(id)
	if !ok {
		t.Fatalf("Project(%q) not found", id)
	}
	if p.Progress != 0 {
		t.Errorf("Progress = %d, want 0", p.Progress)
	}
	if p.Archived {
		t.Error("Archived = true, want false")
	}
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil slice", p.Tags)
	}
	if p.Priority != model.PriorityMedium || p.Category != model.CategoryWork || p.Status != model.StatusPlanning {
		t.Errorf("defaults = %s/%s/%s", p.Priority, p.Category, p.Status)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v", p.CreatedAt, p.UpdatedAt)
	}
	if !strings.HasPrefix(id, "p_") {
		t.Errorf("id = %q, want p_ prefix", id)
	}
}

func TestAddProject_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   NewProject
	}{
		{name: "empty title", in: NewProject{Title: "   "}},
		{name: "long title", in: NewProject{Title: strings.Repeat("x", maxTitleLen+1)}},
		{name: "bad priority", in: NewProject{Title: "a", Priority: "urgent"}},
		{name: "bad category", in: NewProject{Title: "a", Category: "hobby"}},
		{name: "bad status", in: NewProject{Title: "a", Status: "done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			if _, err := s.AddProject(tt.in); !errors.Is(err, ErrInvalid) {
				t.Fatalf("AddProject() error = %v, want ErrInvalid", err)
			}
			if n := len(s.Projects()); n != 0 {
				t.Errorf("len(Projects()) = %d, want 0", n)
			}
		})
	}
}

func TestProgressClamped(t *testing.T) {
	s := createTestStore(t)

	id, err := s.AddProject(NewProject{Title: "x", Progress: 140})
	if err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	if p, _ := s.Project(id); p.Progress != 100 {
		t.Errorf("Progress = %d, want 100", p.Progress)
	}

	neg := -5
	if err := s.UpdateProject(id, ProjectPatch{Progress: &neg}); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if p, _ := s.Project(id); p.Progress != 0 {
		t.Errorf("Progress = %d, want 0", p.Progress)
	}
}

func TestUpdateProject_Patch(t *testing.T) {
	s := createTestStore(t)
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	link := "https://example.com"
	id, err := s.AddProject(NewProject{Title: "x", DueDate: &due, DeployLink: &link, Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	before, _ := s.Project(id)

	status := model.StatusInProgress
	empty := ""
	err = s.UpdateProject(id, ProjectPatch{Status: &status, ClearDueDate: true, DeployLink: &empty, Tags: []string{}})
	if err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}

	p, _ := s.Project(id)
	if p.Status != model.StatusInProgress {
		t.Errorf("Status = %q", p.Status)
	}
	if p.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", p.DueDate)
	}
	if p.DeployLink != nil {
		t.Errorf("DeployLink = %v, want nil", *p.DeployLink)
	}
	if len(p.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", p.Tags)
	}
	if p.Title != "x" {
		t.Errorf("Title = %q, want unchanged", p.Title)
	}
	if !p.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v <= %v", p.UpdatedAt, before.UpdatedAt)
	}

	bad := model.Status("nope")
	if err := s.UpdateProject(id, ProjectPatch{Status: &bad}); !errors.Is(err, ErrInvalid) {
		t.Errorf("UpdateProject(bad status) error = %v, want ErrInvalid", err)
	}
	if got, _ := s.Project(id); got.Status != model.StatusInProgress {
		t.Errorf("invalid patch changed status to %q", got.Status)
	}
}

func TestDeleteProject_Cascades(t *testing.T) {
	s := createTestStore(t)
	keep := mustAddProject(t, s, "keep")
	drop := mustAddProject(t, s, "drop")

	mustAddTodo(t, s, NewTodo{ProjectID: drop, Text: "a"})
	mustAddTodo(t, s, NewTodo{ProjectID: drop, Text: "b"})
	kept := mustAddTodo(t, s, NewTodo{ProjectID: keep, Text: "c"})
	if _, err := s.AddResource(NewResource{ProjectID: drop, Title: "doc", Link: "https://x"}); err != nil {
		t.Fatalf("AddResource() error = %v", err)
	}

	if err := s.DeleteProject(drop); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	for _, todo := range s.Todos() {
		if todo.ProjectID == drop {
			t.Errorf("todo %q still references deleted project", todo.ID)
		}
	}
	if n := len(s.ResourcesForProject(drop)); n != 0 {
		t.Errorf("len(ResourcesForProject) = %d, want 0", n)
	}
	if _, ok := s.Todo(kept); !ok {
		t.Error("todo of another project was removed")
	}
	if _, ok := s.Project(drop); ok {
		t.Error("project still present")
	}
}

func TestProjectsByCategory(t *testing.T) {
	s := createTestStore(t)
	work := mustAddProject(t, s, "work")
	archived, _ := s.AddProject(NewProject{Title: "old", Archived: true})
	if _, err := s.AddProject(NewProject{Title: "me", Category: model.CategoryPersonal}); err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}

	got := s.ProjectsByCategory(model.CategoryWork, false)
	if len(got) != 1 || got[0].ID != work {
		t.Errorf("ProjectsByCategory(work, false) = %v", got)
	}
	got = s.ProjectsByCategory(model.CategoryWork, true)
	if len(got) != 2 || got[1].ID != archived {
		t.Errorf("ProjectsByCategory(work, true) = %v", got)
	}
}

// =============================================================================
// Todo Tests
// =============================================================================

func TestIDsAreUnique(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		var id string
		var err error
		switch i % 4 {
		case 0:
			id, err = s.AddProject(NewProject{Title: fmt.Sprintf("p%d", i)})
		case 1:
			id, err = s.AddTodo(NewTodo{Text: fmt.Sprintf("t%d", i)})
		case 2:
			id, err = s.AddSession(NewSession{})
		case 3:
			id, err = s.AddResource(NewResource{ProjectID: "x", Title: "r", Link: "https://x"})
		}
		if err != nil {
			t.Fatalf("add #%d error = %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestAddTodo_Defaults(t *testing.T) {
	s := createTestStore(t)
	id := mustAddTodo(t, s, NewTodo{Text: "  write tests  "})

	todo, _ := s.Todo(id)
	if todo.Text != "write tests" {
		t.Errorf("Text = %q", todo.Text)
	}
	if todo.ProjectID != model.UnassignedProjectID {
		t.Errorf("ProjectID = %q, want %q", todo.ProjectID, model.UnassignedProjectID)
	}
	if todo.Priority != 3 {
		t.Errorf("Priority = %d, want 3", todo.Priority)
	}
	if todo.Completed || todo.TodayTag {
		t.Error("new todo should be open and untagged")
	}
	if todo.Dependencies == nil {
		t.Error("Dependencies is nil")
	}
}

func TestAddTodo_Validation(t *testing.T) {
	s := createTestStore(t)
	six := 6
	cases := []NewTodo{
		{Text: ""},
		{Text: "x", Priority: 9},
		{Text: "x", EnergyLevel: &six},
		{Text: strings.Repeat("y", maxTodoTextLen+1)},
	}
	for i, in := range cases {
		if _, err := s.AddTodo(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("case %d: AddTodo() error = %v, want ErrInvalid", i, err)
		}
	}
}

func TestUpdateTodo_DependenciesNeverNil(t *testing.T) {
	s := createTestStore(t)
	id := mustAddTodo(t, s, NewTodo{Text: "x"})

	// Simulate a record persisted before dependencies existed.
	s.mu.Lock()
	todo := s.state.Todos[id]
	todo.Dependencies = nil
	s.state.Todos[id] = todo
	s.mu.Unlock()

	text := "renamed"
	if err := s.UpdateTodo(id, TodoPatch{Text: &text}); err != nil {
		t.Fatalf("UpdateTodo() error = %v", err)
	}

	s.mu.RLock()
	deps := s.state.Todos[id].Dependencies
	s.mu.RUnlock()
	if deps == nil {
		t.Fatal("Dependencies is nil after update")
	}
	if len(deps) != 0 {
		t.Errorf("Dependencies = %v, want empty", deps)
	}
}

func TestUpdateTodo_Missing(t *testing.T) {
	s := createTestStore(t)
	mustAddTodo(t, s, NewTodo{Text: "x"})
	before := s.State()
	beforeMod := s.ModifiedAt()

	done := true
	err := s.UpdateTodo("nonexistent", TodoPatch{Completed: &done})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateTodo() error = %v, want ErrNotFound", err)
	}
	if !reflect.DeepEqual(before, s.State()) {
		t.Error("state changed after update of missing id")
	}
	if !s.ModifiedAt().Equal(beforeMod) {
		t.Error("ModifiedAt changed after failed update")
	}

	if err := (Lenient{s}).UpdateTodo("nonexistent", TodoPatch{Completed: &done}); err != nil {
		t.Errorf("Lenient.UpdateTodo() error = %v, want nil", err)
	}
	if !reflect.DeepEqual(before, s.State()) {
		t.Error("state changed after lenient update of missing id")
	}
}

func TestLenient_KeepsValidationErrors(t *testing.T) {
	s := createTestStore(t)
	id := mustAddTodo(t, s, NewTodo{Text: "x"})
	bad := 0
	if err := (Lenient{s}).UpdateTodo(id, TodoPatch{Priority: &bad}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Lenient.UpdateTodo() error = %v, want ErrInvalid", err)
	}
}

func TestToggleTodo_Twice(t *testing.T) {
	s := createTestStore(t)
	id := mustAddTodo(t, s, NewTodo{Text: "x"})

	for i, want := range []bool{true, false} {
		if err := s.ToggleTodo(id); err != nil {
			t.Fatalf("ToggleTodo() error = %v", err)
		}
		if todo, _ := s.Todo(id); todo.Completed != want {
			t.Errorf("toggle %d: Completed = %v, want %v", i+1, todo.Completed, want)
		}
	}

	if err := s.ToggleTodayTag(id); err != nil {
		t.Fatalf("ToggleTodayTag() error = %v", err)
	}
	if today := s.TodayTodos(); len(today) != 1 || today[0].ID != id {
		t.Errorf("TodayTodos() = %v", today)
	}
	if err := s.ToggleTodo("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleTodo(missing) error = %v", err)
	}
}

func TestBulkUpdateTodos(t *testing.T) {
	s := createTestStore(t)
	a := mustAddTodo(t, s, NewTodo{Text: "a"})
	b := mustAddTodo(t, s, NewTodo{Text: "b"})
	c := mustAddTodo(t, s, NewTodo{Text: "c"})

	done := true
	n, err := s.BulkUpdateTodos([]string{a, "ghost", c}, TodoPatch{Completed: &done})
	if err != nil {
		t.Fatalf("BulkUpdateTodos() error = %v", err)
	}
	if n != 2 {
		t.Errorf("updated = %d, want 2", n)
	}
	for id, want := range map[string]bool{a: true, b: false, c: true} {
		if todo, _ := s.Todo(id); todo.Completed != want {
			t.Errorf("todo %s Completed = %v, want %v", id, todo.Completed, want)
		}
	}
}

func TestDependencyStatus(t *testing.T) {
	s := createTestStore(t)
	dep := mustAddTodo(t, s, NewTodo{Text: "first"})
	id := mustAddTodo(t, s, NewTodo{Text: "second", Dependencies: []string{dep, "nonexistent-id"}})

	report, err := s.DependencyStatus(id)
	if err != nil {
		t.Fatalf("DependencyStatus() error = %v", err)
	}
	if !report.Blocked {
		t.Error("Blocked = false, want true")
	}
	if !reflect.DeepEqual(report.Missing, []string{"nonexistent-id"}) {
		t.Errorf("Missing = %v", report.Missing)
	}
	if !reflect.DeepEqual(report.Pending, []string{dep}) {
		t.Errorf("Pending = %v", report.Pending)
	}

	if err := s.UpdateTodo(id, TodoPatch{Dependencies: []string{dep}}); err != nil {
		t.Fatalf("UpdateTodo() error = %v", err)
	}
	if err := s.ToggleTodo(dep); err != nil {
		t.Fatalf("ToggleTodo() error = %v", err)
	}
	report, _ = s.DependencyStatus(id)
	if report.Blocked {
		t.Errorf("Blocked = true with all dependencies complete: %+v", report)
	}
}

func TestDeleteTodo_LeavesDanglingDependency(t *testing.T) {
	s := createTestStore(t)
	dep := mustAddTodo(t, s, NewTodo{Text: "first"})
	id := mustAddTodo(t, s, NewTodo{Text: "second", Dependencies: []string{dep}})

	if err := s.DeleteTodo(dep); err != nil {
		t.Fatalf("DeleteTodo() error = %v", err)
	}
	todo, _ := s.Todo(id)
	if !reflect.DeepEqual(todo.Dependencies, []string{dep}) {
		t.Errorf("Dependencies = %v", todo.Dependencies)
	}
	if report, _ := s.DependencyStatus(id); !report.Blocked {
		t.Error("dangling dependency should block")
	}
}

func TestSortTodos(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := base.Add(48 * time.Hour)
	todos := []model.Todo{
		{ID: "done", Priority: 1, Completed: true, CreatedAt: base},
		{ID: "low", Priority: 5, CreatedAt: base},
		{ID: "urgent-nodue", Priority: 1, CreatedAt: base},
		{ID: "urgent-due", Priority: 1, DueDate: &due, CreatedAt: base.Add(time.Hour)},
	}

	var got []string
	for _, todo := range SortTodos(todos) {
		got = append(got, todo.ID)
	}
	want := []string{"urgent-due", "urgent-nodue", "low", "done"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortTodos() = %v, want %v", got, want)
	}
}

func TestReadsAreCopies(t *testing.T) {
	s := createTestStore(t)
	id := mustAddTodo(t, s, NewTodo{Text: "x", Dependencies: []string{"a"}})

	todo, _ := s.Todo(id)
	todo.Dependencies[0] = "mutated"
	state := s.State()
	state.Todos[id] = model.Todo{}

	again, _ := s.Todo(id)
	if again.Dependencies[0] != "a" || again.Text != "x" {
		t.Errorf("store memory aliased by reads: %+v", again)
	}
}

// =============================================================================
// Session, Resource, Review and Settings Tests
// =============================================================================

func TestSessionLifecycle(t *testing.T) {
	s := createTestStore(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id, err := s.AddSession(NewSession{Tasks: []string{"t1"}, StartTime: start})
	if err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}

	sess, _ := s.Session(id)
	if !sess.EndTime.Equal(start) {
		t.Errorf("placeholder EndTime = %v, want %v", sess.EndTime, start)
	}

	if err := s.FinishSession(id, start.Add(25*time.Minute), 25); err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}
	if err := s.FinishSession(id, start.Add(-time.Minute), 1); !errors.Is(err, ErrInvalid) {
		t.Errorf("FinishSession(before start) error = %v, want ErrInvalid", err)
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if got := s.FocusMinutes(day, day.AddDate(0, 0, 1)); got != 25 {
		t.Errorf("FocusMinutes() = %v, want 25", got)
	}
	if got := s.SessionsInRange(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)); len(got) != 0 {
		t.Errorf("SessionsInRange(next day) = %v", got)
	}
	// The range is half-open.
	if got := s.SessionsInRange(day, start); len(got) != 0 {
		t.Errorf("SessionsInRange(to == start) = %v", got)
	}

	if err := s.DeleteSession(id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if n := len(s.Sessions()); n != 0 {
		t.Errorf("len(Sessions()) = %d, want 0", n)
	}
}

func TestResourceCRUD(t *testing.T) {
	s := createTestStore(t)
	p := mustAddProject(t, s, "x")

	if _, err := s.AddResource(NewResource{ProjectID: p, Title: "design doc"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("AddResource(no link) error = %v, want ErrInvalid", err)
	}

	id, err := s.AddResource(NewResource{ProjectID: p, Title: "design doc", Link: "https://docs"})
	if err != nil {
		t.Fatalf("AddResource() error = %v", err)
	}
	typ := "doc"
	if err := s.UpdateResource(id, ResourcePatch{Type: &typ}); err != nil {
		t.Fatalf("UpdateResource() error = %v", err)
	}
	res := s.ResourcesForProject(p)
	if len(res) != 1 || res[0].Type != "doc" {
		t.Errorf("ResourcesForProject() = %v", res)
	}
	if err := s.DeleteResource(id); err != nil {
		t.Fatalf("DeleteResource() error = %v", err)
	}
	if err := s.DeleteResource(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteResource() error = %v, want ErrNotFound", err)
	}
}

func TestSetDailyReview_Overwrites(t *testing.T) {
	s := createTestStore(t)
	if err := s.SetDailyReview("2024-05-01", []string{"a", "b"}); err != nil {
		t.Fatalf("SetDailyReview() error = %v", err)
	}
	if err := s.SetDailyReview("2024-05-01", []string{"c"}); err != nil {
		t.Fatalf("SetDailyReview() error = %v", err)
	}

	r, ok := s.DailyReview("2024-05-01")
	if !ok {
		t.Fatal("DailyReview() not found")
	}
	if !reflect.DeepEqual(r.SelectedTodoIDs, []string{"c"}) {
		t.Errorf("SelectedTodoIDs = %v, want [c]", r.SelectedTodoIDs)
	}

	if err := s.SetDailyReview("05/01/2024", nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("SetDailyReview(bad date) error = %v, want ErrInvalid", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	s := createTestStore(t)
	if got := s.Settings(); got != model.DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults", got)
	}

	dark := model.ThemeDark
	off := false
	var interval int64 = 60000
	if err := s.UpdateSettings(SettingsPatch{Theme: &dark, RemindersEnabled: &off, SyncInterval: &interval}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	got := s.Settings()
	if got.Theme != model.ThemeDark || got.RemindersEnabled || got.SyncInterval != 60000 {
		t.Errorf("Settings() = %+v", got)
	}

	bad := model.Theme("sepia")
	if err := s.UpdateSettings(SettingsPatch{Theme: &bad}); !errors.Is(err, ErrInvalid) {
		t.Errorf("UpdateSettings(bad theme) error = %v", err)
	}
}

// =============================================================================
// Change Hook and Replace Tests
// =============================================================================

func TestOnChange(t *testing.T) {
	s := createTestStore(t)
	calls := 0
	unsubscribe := s.OnChange(func() { calls++ })

	mustAddTodo(t, s, NewTodo{Text: "x"})
	_ = s.ToggleTodo("missing")
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (failed mutations do not notify)", calls)
	}

	unsubscribe()
	unsubscribe()
	mustAddTodo(t, s, NewTodo{Text: "y"})
	if calls != 1 {
		t.Errorf("calls = %d after unsubscribe, want 1", calls)
	}
}

func TestOnChange_ListenerCanRead(t *testing.T) {
	s := createTestStore(t)
	var seen int
	s.OnChange(func() { seen = len(s.Todos()) })

	mustAddTodo(t, s, NewTodo{Text: "x"})
	if seen != 1 {
		t.Errorf("listener saw %d todos, want 1", seen)
	}
}

func TestReplace(t *testing.T) {
	s := createTestStore(t)
	mustAddTodo(t, s, NewTodo{Text: "old"})

	at := time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC)
	next := model.AppState{
		Todos: map[string]model.Todo{
			"t1": {ID: "t1", Text: "new", Priority: 2, UpdatedAt: at},
		},
	}
	s.Replace(next, time.Time{})

	todos := s.Todos()
	if len(todos) != 1 || todos[0].Text != "new" {
		t.Fatalf("Todos() = %v", todos)
	}
	if todos[0].ProjectID != model.UnassignedProjectID || todos[0].Dependencies == nil {
		t.Errorf("replaced todo not normalized: %+v", todos[0])
	}
	if !s.ModifiedAt().Equal(at) {
		t.Errorf("ModifiedAt() = %v, want %v", s.ModifiedAt(), at)
	}
	if s.Settings().SyncInterval != model.DefaultSyncIntervalMS {
		t.Errorf("SyncInterval = %d, want default", s.Settings().SyncInterval)
	}

	s.Reset()
	if n := len(s.Todos()); n != 0 {
		t.Errorf("len(Todos()) after Reset = %d", n)
	}
}
