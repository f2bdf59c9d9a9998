// Package ui is the focusboard terminal dashboard. This file contains tea.Cmd
// factories that wrap store mutations and sync calls. Each command returns a
// message type defined in messages.go.
package ui

import (
	"context"
	"time"

	"focusboard/internal/model"
	"focusboard/internal/store"
	fbsync "focusboard/internal/sync"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// Todo Commands
// =============================================================================

// addTodoCmd creates a todo, tagging it for today when today is set.
func addTodoCmd(m store.Mutator, in store.NewTodo, today bool) tea.Cmd {
	return func() tea.Msg {
		id, err := m.AddTodo(in)
		if err == nil && today {
			err = m.ToggleTodayTag(id)
		}
		return todoAddedMsg{id: id, text: in.Text, err: err}
	}
}

func toggleTodoCmd(m store.Mutator, t model.Todo) tea.Cmd {
	return func() tea.Msg {
		err := m.ToggleTodo(t.ID)
		return todoToggledMsg{id: t.ID, text: t.Text, done: !t.Completed, err: err}
	}
}

func toggleTodayCmd(m store.Mutator, t model.Todo) tea.Cmd {
	return func() tea.Msg {
		err := m.ToggleTodayTag(t.ID)
		return todayToggledMsg{id: t.ID, text: t.Text, tagged: !t.TodayTag, err: err}
	}
}

// deleteTodoCmd removes a todo. The todo passed in is kept for undo.
func deleteTodoCmd(m store.Mutator, t model.Todo) tea.Cmd {
	return func() tea.Msg {
		err := m.DeleteTodo(t.ID)
		deleted := t.Clone()
		return todoDeletedMsg{todo: &deleted, err: err}
	}
}

// =============================================================================
// Focus Commands
// =============================================================================

func startFocusCmd(m store.Mutator, t model.Todo, start time.Time) tea.Cmd {
	return func() tea.Msg {
		tasks := []string{}
		if t.ID != "" {
			tasks = append(tasks, t.ID)
		}
		id, err := m.AddSession(store.NewSession{Tasks: tasks, StartTime: start})
		return focusStartedMsg{sessionID: id, todoText: t.Text, err: err}
	}
}

func stopFocusCmd(m store.Mutator, sessionID string, start, end time.Time) tea.Cmd {
	return func() tea.Msg {
		minutes := end.Sub(start).Minutes()
		if minutes < 0 {
			minutes = 0
		}
		err := m.FinishSession(sessionID, end, minutes)
		return focusStoppedMsg{minutes: minutes, err: err}
	}
}

// =============================================================================
// Undo/Redo Commands
// =============================================================================

func undoCmd(manager *UndoManager) tea.Cmd {
	return func() tea.Msg {
		desc, err := manager.Undo()
		return undoResultMsg{desc: desc, err: err}
	}
}

func redoCmd(manager *UndoManager) tea.Cmd {
	return func() tea.Msg {
		desc, err := manager.Redo()
		return redoResultMsg{desc: desc, err: err}
	}
}

// =============================================================================
// Sync Commands
// =============================================================================

// syncCmd runs one sync round with the given timeout.
func syncCmd(c *fbsync.Client, userID string, strategy fbsync.Strategy, timeout time.Duration) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := c.Sync(ctx, userID, strategy)
		return syncDoneMsg{result: res, err: err, manual: true}
	}
}

// =============================================================================
// Listeners
// =============================================================================

// waitForChange resolves once the store has changed since the last call.
func waitForChange(changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changed
		return storeChangedMsg{}
	}
}

// waitForEvent forwards the next background event into the update loop.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}
