package ui

import (
	"strings"
	"testing"

	"focusboard/internal/config"
)

func newTestHelpOverlay(cfg *config.KeysConfig) *HelpOverlay {
	styles := createTestStyles()
	return NewHelpOverlay(styles, NewGlobalKeyMap(cfg), NewTodoKeyMap(cfg), NewFocusKeyMap(cfg), NewInputKeyMap(cfg))
}

func TestHelpOverlay_ContentStructure(t *testing.T) {
	setupTest(t)

	help := newTestHelpOverlay(nil)
	help.SetSize(100, 50)
	output := help.View()

	for _, section := range []string{"Global", "Todos", "Focus", "Input Mode"} {
		if !strings.Contains(output, section) {
			t.Errorf("help overlay should contain section: %s", section)
		}
	}

	for _, key := range []string{"tab", "?", "q", "space", "enter", "esc", "ctrl+z"} {
		if !strings.Contains(output, key) {
			t.Errorf("help overlay should mention key: %s", key)
		}
	}
}

func TestHelpOverlay_ShowsRemappedKeys(t *testing.T) {
	setupTest(t)

	help := newTestHelpOverlay(&config.KeysConfig{Sync: "ctrl+r", AddTodo: "n"})
	help.SetSize(100, 50)
	output := help.View()

	if !strings.Contains(output, "ctrl+r") {
		t.Error("help overlay should list the remapped sync key")
	}
	if !strings.Contains(output, "n") {
		t.Error("help overlay should list the remapped add key")
	}
}

func TestHelpOverlay_NarrowTerminal(t *testing.T) {
	setupTest(t)

	help := newTestHelpOverlay(nil)
	help.SetSize(30, 60)
	if output := help.View(); !strings.Contains(output, "Global") {
		t.Error("narrow help overlay should still render sections")
	}
}

func TestApp_HelpToggle(t *testing.T) {
	setupTest(t)
	app := createTestApp(t, createTestStore(t))
	app.height = 50
	app.updateLayout()

	if app.showHelp {
		t.Error("showHelp should be false initially")
	}

	app.Update(keyMsg("?"))
	if !app.showHelp {
		t.Fatal("? should open help")
	}
	if view := app.View(); !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("view should show help overlay content")
	}

	app.Update(keyMsg("esc"))
	if app.showHelp {
		t.Error("esc should close help")
	}
	if view := app.View(); strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("view should not show help after closing")
	}
}

func TestApp_HelpOverlayBlocksInput(t *testing.T) {
	setupTest(t)
	app := createTestApp(t, createTestStore(t))

	app.showHelp = true
	initialPane := app.activePane

	app.Update(keyMsg("a"))
	if app.activePane != initialPane {
		t.Error("active pane should not change while help is shown")
	}
	if app.todoPane.IsAdding() {
		t.Error("keys should not reach the panes while help is shown")
	}
}

func TestApp_ContextualHelp(t *testing.T) {
	setupTest(t)
	app := createTestApp(t, createTestStore(t))

	tests := []struct {
		name      string
		pane      PaneID
		expectKey string
	}{
		{name: "projects pane help", pane: PaneProjects, expectKey: "filter"},
		{name: "todos pane help", pane: PaneTodos, expectKey: "add"},
		{name: "focus pane help", pane: PaneFocus, expectKey: "start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.setActivePane(tt.pane)
			if helpBar := app.renderHelpBar(); !strings.Contains(helpBar, tt.expectKey) {
				t.Errorf("help bar for %v should contain %q, got %q", tt.pane, tt.expectKey, helpBar)
			}
		})
	}
}

func TestApp_InputModeHelp(t *testing.T) {
	setupTest(t)
	app := createTestApp(t, createTestStore(t))

	app.setActivePane(PaneTodos)
	app.todoPane.adding = true

	helpBar := app.renderHelpBar()
	if !strings.Contains(helpBar, "confirm") || !strings.Contains(helpBar, "cancel") {
		t.Errorf("help bar should show input mode help when adding a todo, got %q", helpBar)
	}
}
