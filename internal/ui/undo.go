// Package ui is the focusboard terminal dashboard. This file implements
// undo/redo with a command pattern: each action captures what it needs to
// reverse itself against the store.
package ui

import (
	"sync"

	"focusboard/internal/model"
	"focusboard/internal/store"

	"github.com/mattn/go-runewidth"
)

// maxHistorySize limits the undo stack.
const maxHistorySize = 50

// UndoableAction represents an action that can be undone.
type UndoableAction struct {
	Description string
	Undo        func() error
	Redo        func() error // optional
}

// UndoManager maintains the undo/redo history stacks.
type UndoManager struct {
	mu        sync.Mutex
	undoStack []*UndoableAction
	redoStack []*UndoableAction
}

// NewUndoManager creates a new UndoManager instance.
func NewUndoManager() *UndoManager {
	return &UndoManager{
		undoStack: make([]*UndoableAction, 0, maxHistorySize),
		redoStack: make([]*UndoableAction, 0, maxHistorySize),
	}
}

// Push adds an undoable action to the history and clears the redo stack.
func (m *UndoManager) Push(action *UndoableAction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redoStack = m.redoStack[:0]
	if len(m.undoStack) >= maxHistorySize {
		m.undoStack = m.undoStack[1:]
	}
	m.undoStack = append(m.undoStack, action)
}

// CanUndo returns true if there are actions to undo.
func (m *UndoManager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

// CanRedo returns true if there are actions to redo.
func (m *UndoManager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// Undo reverses the most recent action and returns its description.
// Returns empty string and nil error if nothing to undo.
func (m *UndoManager) Undo() (string, error) {
	m.mu.Lock()
	if len(m.undoStack) == 0 {
		m.mu.Unlock()
		return "", nil
	}
	action := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.mu.Unlock()

	if err := action.Undo(); err != nil {
		m.mu.Lock()
		m.undoStack = append(m.undoStack, action)
		m.mu.Unlock()
		return "", err
	}

	if action.Redo != nil {
		m.mu.Lock()
		m.redoStack = append(m.redoStack, action)
		m.mu.Unlock()
	}
	return action.Description, nil
}

// Redo reapplies the most recently undone action and returns its description.
// Returns empty string and nil error if nothing to redo.
func (m *UndoManager) Redo() (string, error) {
	m.mu.Lock()
	if len(m.redoStack) == 0 {
		m.mu.Unlock()
		return "", nil
	}
	action := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.mu.Unlock()

	if err := action.Redo(); err != nil {
		m.mu.Lock()
		m.redoStack = append(m.redoStack, action)
		m.mu.Unlock()
		return "", err
	}

	m.mu.Lock()
	m.undoStack = append(m.undoStack, action)
	m.mu.Unlock()
	return action.Description, nil
}

// Clear removes all undo/redo history.
func (m *UndoManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undoStack = m.undoStack[:0]
	m.redoStack = m.redoStack[:0]
}

// =============================================================================
// Undoable Action Factories
// =============================================================================

// NewToggleTodoAction undoes a done/undone flip.
func NewToggleTodoAction(m store.Mutator, id, text string, done bool) *UndoableAction {
	desc := "Completed: " + truncateText(text, 20)
	if !done {
		desc = "Reopened: " + truncateText(text, 20)
	}
	toggle := func() error { return m.ToggleTodo(id) }
	return &UndoableAction{Description: desc, Undo: toggle, Redo: toggle}
}

// NewToggleTodayAction undoes a today tag flip.
func NewToggleTodayAction(m store.Mutator, id, text string, tagged bool) *UndoableAction {
	desc := "Tagged for today: " + truncateText(text, 20)
	if !tagged {
		desc = "Untagged: " + truncateText(text, 20)
	}
	toggle := func() error { return m.ToggleTodayTag(id) }
	return &UndoableAction{Description: desc, Undo: toggle, Redo: toggle}
}

// NewDeleteTodoAction undoes a deletion by re-creating the todo. The store
// assigns a new id, which the redo then deletes.
func NewDeleteTodoAction(m store.Mutator, todo model.Todo) *UndoableAction {
	id := todo.ID
	return &UndoableAction{
		Description: "Deleted: " + truncateText(todo.Text, 20),
		Undo: func() error {
			newID, err := restoreTodo(m, todo)
			if err != nil {
				return err
			}
			id = newID
			return nil
		},
		Redo: func() error {
			return m.DeleteTodo(id)
		},
	}
}

// NewAddTodoAction undoes a creation.
func NewAddTodoAction(m store.Mutator, s *store.Store, id, text string) *UndoableAction {
	var removed model.Todo
	return &UndoableAction{
		Description: "Added: " + truncateText(text, 20),
		Undo: func() error {
			t, ok := s.Todo(id)
			if !ok {
				return nil
			}
			removed = t
			return m.DeleteTodo(id)
		},
		Redo: func() error {
			newID, err := restoreTodo(m, removed)
			if err != nil {
				return err
			}
			id = newID
			return nil
		},
	}
}

func restoreTodo(m store.Mutator, t model.Todo) (string, error) {
	projectID := t.ProjectID
	if projectID == model.UnassignedProjectID {
		projectID = ""
	}
	id, err := m.AddTodo(store.NewTodo{
		ProjectID:    projectID,
		Text:         t.Text,
		Priority:     t.Priority,
		EnergyLevel:  t.EnergyLevel,
		DueDate:      t.DueDate,
		Dependencies: t.Dependencies,
	})
	if err != nil {
		return "", err
	}
	if t.Completed || t.TodayTag {
		completed, today := t.Completed, t.TodayTag
		if err := m.UpdateTodo(id, store.TodoPatch{Completed: &completed, TodayTag: &today}); err != nil {
			return id, err
		}
	}
	return id, nil
}

// truncateText shortens text to maxLen cells with an ellipsis if needed.
func truncateText(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	return runewidth.Truncate(text, maxLen, "..")
}
