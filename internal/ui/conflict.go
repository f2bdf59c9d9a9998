package ui

import (
	"context"
	"fmt"
	"strings"

	fbsync "focusboard/internal/sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// conflictRequest is one pending ask-user decision.
type conflictRequest struct {
	conflict fbsync.Conflict
	reply    chan fbsync.Winner
}

// Prompter routes ask-user sync conflicts to the dashboard. Its Ask method
// is an fbsync.Asker; the App picks up the requests and shows a prompt.
type Prompter struct {
	requests chan *conflictRequest
}

// NewPrompter creates a Prompter.
func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan *conflictRequest)}
}

// Ask blocks until the user picks a side or ctx is done.
func (p *Prompter) Ask(ctx context.Context, c fbsync.Conflict) (fbsync.Winner, error) {
	req := &conflictRequest{conflict: c, reply: make(chan fbsync.Winner, 1)}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return fbsync.Undecided, ctx.Err()
	}
	select {
	case w := <-req.reply:
		return w, nil
	case <-ctx.Done():
		return fbsync.Undecided, ctx.Err()
	}
}

// waitForConflict forwards the next conflict request into the update loop.
func waitForConflict(p *Prompter) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return conflictMsg{req: <-p.requests}
	}
}

// renderConflict draws the ask-user prompt.
func (a *App) renderConflict() string {
	c := a.conflict.conflict
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.styles.ColorWarning).
		Padding(1, 2).
		Width(overlayWidth)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(a.styles.ColorWarning)
	hintStyle := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted)

	side := func(name string, counts map[string]int, at string) string {
		return fmt.Sprintf("%-7s %d projects, %d todos, %d sessions  (changed %s)",
			name, counts["projects"], counts["todos"], counts["sessions"], at)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sync conflict"))
	b.WriteString("\n\n")
	b.WriteString("This device and the remote both changed.\n\n")
	b.WriteString(side("Local:", c.Local.Counts(), c.LocalAt.Local().Format("Jan 2 15:04")))
	b.WriteString("\n")
	b.WriteString(side("Remote:", c.Remote.State.Counts(), c.Remote.LastSync.Local().Format("Jan 2 15:04")))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("[l] keep local    [r] take remote    [esc] decide later"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, overlayStyle.Render(b.String()))
}

// answerConflict replies to the pending request and clears it.
func (a *App) answerConflict(w fbsync.Winner) {
	if a.conflict == nil {
		return
	}
	a.conflict.reply <- w
	a.conflict = nil
}
