package ui

import (
	"testing"
	"time"

	"focusboard/internal/config"
	"focusboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// setupTest prepares the test environment for deterministic rendering.
// It disables colors so rendered output can be matched as plain text.
func setupTest(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

// testNow is a Wednesday.
var testNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)

// createTestStore creates an empty store on a fixed clock.
func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.WithClock(func() time.Time { return testNow }))
}

// createTestStyles creates a default Styles instance for testing.
func createTestStyles() *Styles {
	return NewStylesFromTheme(&config.ThemeConfig{})
}

// createTestApp builds a sized, hydrated app over s without confirmations.
func createTestApp(t *testing.T, s *store.Store) *App {
	t.Helper()
	app := NewApp(s, createTestStyles(), &AppConfig{
		Keys:                  &config.KeysConfig{},
		NarrowLayoutThreshold: 80,
		ShowCompleted:         true,
	}, Deps{})
	t.Cleanup(app.Close)
	app.now = func() time.Time { return testNow }
	app.focusPane.now = app.now
	app.todoPane.now = app.now
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return app
}

// addTodo adds a todo or fails the test.
func addTodo(t *testing.T, s *store.Store, in store.NewTodo) string {
	t.Helper()
	id, err := s.AddTodo(in)
	if err != nil {
		t.Fatalf("AddTodo(%q): %v", in.Text, err)
	}
	return id
}

// keyMsg builds a key press for a single key name such as "a", "enter" or
// "tab".
func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// typeText sends text one rune at a time.
func typeText(p *TodoPane, text string) {
	for _, r := range text {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// run executes cmd and feeds the message it produces back into the app.
// Batches and nil commands are ignored.
func run(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if _, ok := msg.(tea.BatchMsg); ok {
		t.Fatal("run does not handle batches")
	}
	app.Update(msg)
}
