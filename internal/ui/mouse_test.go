// Package ui is the focusboard terminal dashboard.
// This file contains tests for mouse interaction support.
package ui

import (
	"testing"

	"focusboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// TestApp_MousePaneSwitching verifies clicking on panes switches focus.
func TestApp_MousePaneSwitching(t *testing.T) {
	app := createTestApp(t, createTestStore(t))

	if app.activePane != PaneTodos {
		t.Errorf("Expected initial pane to be Todos, got %v", app.activePane)
	}

	mouseMsg := tea.MouseMsg{
		X:      90,
		Y:      15,
		Button: tea.MouseButtonLeft,
		Action: tea.MouseActionPress,
	}
	app.Update(mouseMsg)
	if app.activePane != PaneFocus {
		t.Errorf("Expected pane to be Focus after click, got %v", app.activePane)
	}

	mouseMsg.X = 10
	app.Update(mouseMsg)
	if app.activePane != PaneProjects {
		t.Errorf("Expected pane to be Projects after click, got %v", app.activePane)
	}

	mouseMsg.X = 50
	app.Update(mouseMsg)
	if app.activePane != PaneTodos {
		t.Errorf("Expected pane to be Todos after click, got %v", app.activePane)
	}
}

// TestApp_MouseTabBar verifies clicking the narrow tab bar switches panes.
func TestApp_MouseTabBar(t *testing.T) {
	app := createTestApp(t, createTestStore(t))
	app.Update(tea.WindowSizeMsg{Width: 60, Height: 30})

	app.Update(tea.MouseMsg{X: 5, Y: 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if app.activePane != PaneProjects {
		t.Errorf("Expected Projects after clicking the first tab, got %v", app.activePane)
	}

	app.Update(tea.MouseMsg{X: 55, Y: 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if app.activePane != PaneFocus {
		t.Errorf("Expected Focus after clicking the last tab, got %v", app.activePane)
	}
}

// TestApp_MouseClosesHelp verifies clicking closes the help overlay.
func TestApp_MouseClosesHelp(t *testing.T) {
	app := createTestApp(t, createTestStore(t))
	app.showHelp = true

	app.Update(tea.MouseMsg{
		X:      50,
		Y:      15,
		Button: tea.MouseButtonLeft,
		Action: tea.MouseActionPress,
	})
	if app.showHelp {
		t.Error("Expected help to close after click")
	}
}

// TestApp_MouseScrollTodos verifies the wheel moves the todo cursor.
func TestApp_MouseScrollTodos(t *testing.T) {
	s := createTestStore(t)
	for i := 1; i <= 3; i++ {
		addTodo(t, s, store.NewTodo{Text: "todo", Priority: i})
	}
	app := createTestApp(t, s)

	mouseMsg := tea.MouseMsg{X: 50, Y: 10, Button: tea.MouseButtonWheelDown}
	app.Update(mouseMsg)
	if app.todoPane.cursor != 1 {
		t.Errorf("Expected cursor 1 after scroll down, got %d", app.todoPane.cursor)
	}

	app.Update(mouseMsg)
	app.Update(mouseMsg)
	if app.todoPane.cursor != 2 {
		t.Errorf("Expected cursor clamped at 2, got %d", app.todoPane.cursor)
	}

	mouseMsg.Button = tea.MouseButtonWheelUp
	app.Update(mouseMsg)
	if app.todoPane.cursor != 1 {
		t.Errorf("Expected cursor 1 after scroll up, got %d", app.todoPane.cursor)
	}
}

// TestApp_PaneAtPosition verifies pane position calculation.
func TestApp_PaneAtPosition(t *testing.T) {
	app := createTestApp(t, createTestStore(t))

	tests := []struct {
		x        int
		expected PaneID
	}{
		{0, PaneProjects},
		{20, PaneProjects},
		{29, -1},
		{50, PaneTodos},
		{90, PaneFocus},
		{115, PaneFocus},
	}

	for _, tc := range tests {
		got := app.paneAtPosition(tc.x)
		if got != tc.expected {
			t.Errorf("paneAtPosition(%d) = %v, want %v", tc.x, got, tc.expected)
		}
	}
}
