package reports

import (
	"fmt"
	"strings"
)

// FormatDailyMarkdown renders a daily report as Markdown.
func FormatDailyMarkdown(r *DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Focus report: %s\n\n", r.Date.Format("Monday, January 2, 2006"))

	b.WriteString("## Todos\n\n")
	fmt.Fprintf(&b, "- Completed: %d\n- Added: %d\n- Still open for today: %d\n\n",
		r.Todos.CompletedCount, r.Todos.AddedCount, r.Todos.PendingCount)
	writeLines(&b, "### Completed", r.Todos.Completed, true)
	writeLines(&b, "### Open for today", r.Todos.Pending, false)
	writeProjectCounts(&b, r.Todos.ByProject)

	b.WriteString("## Focus\n\n")
	fmt.Fprintf(&b, "- Sessions: %d\n- Focus time: %s\n\n", r.Focus.Sessions, formatMinutes(r.Focus.Minutes))
	writeProjectMinutes(&b, r.Focus.ByProject)

	b.WriteString("## Daily review\n\n")
	if !r.Review.Done {
		b.WriteString("No review recorded.\n\n")
	} else {
		fmt.Fprintf(&b, "%d of %d selected todos done.\n\n", r.Review.SelectedCompleted, len(r.Review.Selected))
		writeLines(&b, "", r.Review.Selected, false)
	}

	fmt.Fprintf(&b, "---\n_Generated %s_\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// FormatWeeklyMarkdown renders a weekly report as Markdown.
func FormatWeeklyMarkdown(r *WeeklyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly focus report: %s to %s\n\n",
		r.StartDate.Format("Jan 2"), r.EndDate.Format("Jan 2, 2006"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Todos completed: %d\n", r.Todos.TotalCompleted)
	fmt.Fprintf(&b, "- Todos added: %d\n", r.Todos.TotalAdded)
	fmt.Fprintf(&b, "- Focus sessions: %d\n", r.Focus.Sessions)
	fmt.Fprintf(&b, "- Focus time: %s (avg %s/day)\n", formatMinutes(r.Focus.TotalMinutes), formatMinutes(r.Focus.DailyAverage))
	fmt.Fprintf(&b, "- Days reviewed: %d/7\n\n", r.ReviewDays)

	b.WriteString("## By day\n\n")
	b.WriteString("| Day | Date | Done | Added | Sessions | Focus | Review |\n")
	b.WriteString("|-----|------|-----:|------:|---------:|------:|:------:|\n")
	for _, d := range r.Days {
		review := ""
		if d.Reviewed {
			review = "✓"
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s | %s |\n",
			d.DayOfWeek, d.Date, d.TodosCompleted, d.TodosAdded, d.Sessions, formatMinutes(d.FocusMinutes), review)
	}
	b.WriteString("\n")

	writeProjectCounts(&b, r.Todos.ByProject)
	writeProjectMinutes(&b, r.Focus.ByProject)

	fmt.Fprintf(&b, "---\n_Generated %s_\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	return b.String()
}

func writeLines(b *strings.Builder, heading string, lines []TodoLine, done bool) {
	if len(lines) == 0 {
		return
	}
	if heading != "" {
		b.WriteString(heading + "\n\n")
	}
	box := "[ ]"
	if done {
		box = "[x]"
	}
	for _, l := range lines {
		fmt.Fprintf(b, "- %s %s (%s, P%d)\n", box, l.Text, l.Project, l.Priority)
	}
	b.WriteString("\n")
}

func writeProjectCounts(b *strings.Builder, counts []ProjectCount) {
	if len(counts) == 0 {
		return
	}
	b.WriteString("### Completed by project\n\n")
	for _, c := range counts {
		fmt.Fprintf(b, "- %s: %d\n", c.Project, c.Count)
	}
	b.WriteString("\n")
}

func writeProjectMinutes(b *strings.Builder, rows []ProjectMinutes) {
	if len(rows) == 0 {
		return
	}
	b.WriteString("### Focus by project\n\n")
	for _, r := range rows {
		fmt.Fprintf(b, "- %s: %s (%.0f%%)\n", r.Project, formatMinutes(r.Minutes), r.Percentage)
	}
	b.WriteString("\n")
}

// formatMinutes renders 95.5 as "1h 36m".
func formatMinutes(m float64) string {
	total := int(m + 0.5)
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	if total%60 == 0 {
		return fmt.Sprintf("%dh", total/60)
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
