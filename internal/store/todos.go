package store

import (
	"slices"
	"strings"
	"time"

	"focusboard/internal/model"
)

const maxTodoTextLen = 500

// NewTodo holds the caller-supplied fields of a todo. An empty ProjectID
// means unassigned; a zero Priority defaults to 3. Completed and TodayTag
// always start false.
type NewTodo struct {
	ProjectID    string
	Text         string
	Priority     int
	EnergyLevel  *int
	DueDate      *time.Time
	Dependencies []string
}

// TodoPatch is a partial update. Nil fields are left unchanged; a nil
// Dependencies slice means "omitted".
type TodoPatch struct {
	ProjectID        *string
	Text             *string
	Priority         *int
	EnergyLevel      *int
	ClearEnergyLevel bool
	DueDate          *time.Time
	ClearDueDate     bool
	Completed        *bool
	TodayTag         *bool
	Dependencies     []string
}

// AddTodo validates in and inserts a new todo, returning its id.
func (s *Store) AddTodo(in NewTodo) (string, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.Text == "" {
		return "", invalid("todo text is required")
	}
	if len(in.Text) > maxTodoTextLen {
		return "", invalid("todo text too long (max %d)", maxTodoTextLen)
	}
	if in.ProjectID == "" {
		in.ProjectID = model.UnassignedProjectID
	}
	if in.Priority == 0 {
		in.Priority = 3
	}
	if !model.ValidLevel(in.Priority) {
		return "", invalid("todo priority must be 1-5, got %d", in.Priority)
	}
	if in.EnergyLevel != nil && !model.ValidLevel(*in.EnergyLevel) {
		return "", invalid("energy level must be 1-5, got %d", *in.EnergyLevel)
	}

	var id string
	err := s.mutate(func(now time.Time) error {
		id = s.newID("t")
		t := model.Todo{
			ID:           id,
			ProjectID:    in.ProjectID,
			Text:         in.Text,
			Priority:     in.Priority,
			EnergyLevel:  in.EnergyLevel,
			DueDate:      in.DueDate,
			Dependencies: in.Dependencies,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.state.Todos[id] = t.Clone()
		return nil
	})
	return id, err
}

// UpdateTodo merges patch into the todo and refreshes updatedAt. When the
// patch omits Dependencies and the stored list is nil, it is reset to an
// empty list.
func (s *Store) UpdateTodo(id string, patch TodoPatch) error {
	if err := validateTodoPatch(patch); err != nil {
		return err
	}
	return s.mutate(func(now time.Time) error {
		t, ok := s.state.Todos[id]
		if !ok {
			return notFound("todo", id)
		}
		applyTodoPatch(&t, patch)
		t.UpdatedAt = now
		s.state.Todos[id] = t
		return nil
	})
}

func validateTodoPatch(patch TodoPatch) error {
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return invalid("todo text is required")
	}
	if patch.Priority != nil && !model.ValidLevel(*patch.Priority) {
		return invalid("todo priority must be 1-5, got %d", *patch.Priority)
	}
	if patch.EnergyLevel != nil && !model.ValidLevel(*patch.EnergyLevel) {
		return invalid("energy level must be 1-5, got %d", *patch.EnergyLevel)
	}
	return nil
}

func applyTodoPatch(t *model.Todo, patch TodoPatch) {
	if patch.ProjectID != nil {
		t.ProjectID = strings.TrimSpace(*patch.ProjectID)
		if t.ProjectID == "" {
			t.ProjectID = model.UnassignedProjectID
		}
	}
	if patch.Text != nil {
		t.Text = strings.TrimSpace(*patch.Text)
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.ClearEnergyLevel {
		t.EnergyLevel = nil
	} else if patch.EnergyLevel != nil {
		e := *patch.EnergyLevel
		t.EnergyLevel = &e
	}
	if patch.ClearDueDate {
		t.DueDate = nil
	} else if patch.DueDate != nil {
		d := *patch.DueDate
		t.DueDate = &d
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.TodayTag != nil {
		t.TodayTag = *patch.TodayTag
	}
	if patch.Dependencies != nil {
		t.Dependencies = slices.Clone(patch.Dependencies)
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
}

// DeleteTodo removes a todo. Other todos that list it as a dependency keep
// the dangling id.
func (s *Store) DeleteTodo(id string) error {
	return s.mutate(func(time.Time) error {
		if _, ok := s.state.Todos[id]; !ok {
			return notFound("todo", id)
		}
		delete(s.state.Todos, id)
		return nil
	})
}

// ToggleTodo flips the completed flag.
func (s *Store) ToggleTodo(id string) error {
	return s.mutate(func(now time.Time) error {
		t, ok := s.state.Todos[id]
		if !ok {
			return notFound("todo", id)
		}
		t.Completed = !t.Completed
		t.UpdatedAt = now
		s.state.Todos[id] = t
		return nil
	})
}

// ToggleTodayTag flips the daily-focus flag.
func (s *Store) ToggleTodayTag(id string) error {
	return s.mutate(func(now time.Time) error {
		t, ok := s.state.Todos[id]
		if !ok {
			return notFound("todo", id)
		}
		t.TodayTag = !t.TodayTag
		t.UpdatedAt = now
		s.state.Todos[id] = t
		return nil
	})
}

// BulkUpdateTodos applies the same patch to every listed id that exists and
// returns how many todos were updated. Unknown ids are skipped.
func (s *Store) BulkUpdateTodos(ids []string, patch TodoPatch) (int, error) {
	if err := validateTodoPatch(patch); err != nil {
		return 0, err
	}
	updated := 0
	err := s.mutate(func(now time.Time) error {
		for _, id := range ids {
			t, ok := s.state.Todos[id]
			if !ok {
				continue
			}
			applyTodoPatch(&t, patch)
			t.UpdatedAt = now
			s.state.Todos[id] = t
			updated++
		}
		return nil
	})
	return updated, err
}

// Todo returns a copy of the todo with the given id.
func (s *Store) Todo(id string) (model.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.Todos[id]
	if !ok {
		return model.Todo{}, false
	}
	return t.Clone(), true
}

// Todos returns every todo, oldest first.
func (s *Store) Todos() []model.Todo {
	return s.filterTodos(func(model.Todo) bool { return true })
}

// TodosForProject lists the todos attached to projectID. Pass
// model.UnassignedProjectID for todos without a project.
func (s *Store) TodosForProject(projectID string) []model.Todo {
	return s.filterTodos(func(t model.Todo) bool { return t.ProjectID == projectID })
}

// TodayTodos lists the todos carrying the today tag, sorted for display.
func (s *Store) TodayTodos() []model.Todo {
	return SortTodos(s.filterTodos(func(t model.Todo) bool { return t.TodayTag }))
}

func (s *Store) filterTodos(keep func(model.Todo) bool) []model.Todo {
	s.mu.RLock()
	out := make([]model.Todo, 0, len(s.state.Todos))
	for _, t := range s.state.Todos {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Todo) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}

// SortTodos orders todos for display: open before completed, then priority
// (1 is most urgent), then earliest due date, then oldest first.
func SortTodos(todos []model.Todo) []model.Todo {
	sorted := slices.Clone(todos)
	slices.SortStableFunc(sorted, func(a, b model.Todo) int {
		if a.Completed != b.Completed {
			if !a.Completed {
				return -1
			}
			return 1
		}
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return -1
		case a.DueDate == nil && b.DueDate != nil:
			return 1
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Compare(*b.DueDate)
		}
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return sorted
}

// DependencyReport describes whether a todo can be started.
type DependencyReport struct {
	// Blocked is true when any dependency is missing or still open.
	Blocked bool
	// Missing lists dependency ids that no longer resolve to a todo.
	Missing []string
	// Pending lists dependency ids that resolve to an open todo.
	Pending []string
}

// DependencyStatus resolves the dependencies of a todo. Ids that do not
// resolve are reported as missing and count as blocking.
func (s *Store) DependencyStatus(id string) (DependencyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.Todos[id]
	if !ok {
		return DependencyReport{}, notFound("todo", id)
	}
	return CheckDependencies(t, func(depID string) (model.Todo, bool) {
		dep, ok := s.state.Todos[depID]
		return dep, ok
	}), nil
}

// CheckDependencies evaluates t's dependencies against lookup.
func CheckDependencies(t model.Todo, lookup func(id string) (model.Todo, bool)) DependencyReport {
	report := DependencyReport{Missing: []string{}, Pending: []string{}}
	for _, depID := range t.Dependencies {
		dep, ok := lookup(depID)
		switch {
		case !ok:
			report.Missing = append(report.Missing, depID)
		case !dep.Completed:
			report.Pending = append(report.Pending, depID)
		}
	}
	report.Blocked = len(report.Missing) > 0 || len(report.Pending) > 0
	return report
}
