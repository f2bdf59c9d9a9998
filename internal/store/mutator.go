package store

import (
	"errors"
	"time"
)

// Mutator is the CRUD surface of the store. The importer and the UI depend
// on it rather than on *Store so another backing can be swapped in.
type Mutator interface {
	AddProject(NewProject) (string, error)
	UpdateProject(id string, patch ProjectPatch) error
	DeleteProject(id string) error

	AddTodo(NewTodo) (string, error)
	UpdateTodo(id string, patch TodoPatch) error
	DeleteTodo(id string) error
	ToggleTodo(id string) error
	ToggleTodayTag(id string) error
	BulkUpdateTodos(ids []string, patch TodoPatch) (int, error)

	AddSession(NewSession) (string, error)
	UpdateSession(id string, patch SessionPatch) error
	FinishSession(id string, end time.Time, minutes float64) error
	DeleteSession(id string) error

	AddResource(NewResource) (string, error)
	UpdateResource(id string, patch ResourcePatch) error
	DeleteResource(id string) error

	SetDailyReview(date string, selected []string) error
	UpdateSettings(patch SettingsPatch) error
}

var (
	_ Mutator = (*Store)(nil)
	_ Mutator = Lenient{}
)

// Lenient wraps a Store so that mutations on unknown ids are silent no-ops.
// Validation errors are still returned.
type Lenient struct {
	*Store
}

func ignoreMissing(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (l Lenient) UpdateProject(id string, patch ProjectPatch) error {
	return ignoreMissing(l.Store.UpdateProject(id, patch))
}

func (l Lenient) DeleteProject(id string) error {
	return ignoreMissing(l.Store.DeleteProject(id))
}

func (l Lenient) UpdateTodo(id string, patch TodoPatch) error {
	return ignoreMissing(l.Store.UpdateTodo(id, patch))
}

func (l Lenient) DeleteTodo(id string) error {
	return ignoreMissing(l.Store.DeleteTodo(id))
}

func (l Lenient) ToggleTodo(id string) error {
	return ignoreMissing(l.Store.ToggleTodo(id))
}

func (l Lenient) ToggleTodayTag(id string) error {
	return ignoreMissing(l.Store.ToggleTodayTag(id))
}

func (l Lenient) UpdateSession(id string, patch SessionPatch) error {
	return ignoreMissing(l.Store.UpdateSession(id, patch))
}

func (l Lenient) FinishSession(id string, end time.Time, minutes float64) error {
	return ignoreMissing(l.Store.FinishSession(id, end, minutes))
}

func (l Lenient) DeleteSession(id string) error {
	return ignoreMissing(l.Store.DeleteSession(id))
}

func (l Lenient) UpdateResource(id string, patch ResourcePatch) error {
	return ignoreMissing(l.Store.UpdateResource(id, patch))
}

func (l Lenient) DeleteResource(id string) error {
	return ignoreMissing(l.Store.DeleteResource(id))
}
