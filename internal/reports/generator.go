package reports

import (
	"cmp"
	"slices"
	"time"

	"focusboard/internal/model"
)

// unassignedLabel names todos and sessions that belong to no known project.
const unassignedLabel = "Unassigned"

// Source provides the state a report is built from; *store.Store satisfies it.
type Source interface {
	State() model.AppState
}

// Generator creates reports from a store snapshot.
type Generator struct {
	src Source
	now func() time.Time
}

// NewGenerator creates a new report generator.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src, now: time.Now}
}

// snapshot is one read of the state plus the lookups every report needs.
type snapshot struct {
	state    model.AppState
	projects map[string]string // project id -> title
}

func (g *Generator) snapshot() snapshot {
	st := g.src.State()
	titles := make(map[string]string, len(st.Projects))
	for id, p := range st.Projects {
		titles[id] = p.Title
	}
	return snapshot{state: st, projects: titles}
}

func (s snapshot) projectTitle(id string) string {
	if title, ok := s.projects[id]; ok {
		return title
	}
	return unassignedLabel
}

func (s snapshot) line(t model.Todo) TodoLine {
	return TodoLine{ID: t.ID, Text: t.Text, Project: s.projectTitle(t.ProjectID), Priority: t.Priority}
}

// GenerateDaily builds the report for the calendar day containing date.
func (g *Generator) GenerateDaily(date time.Time) *DailyReport {
	snap := g.snapshot()
	start := startOfDay(date)
	end := start.AddDate(0, 0, 1)

	return &DailyReport{
		Date:        start,
		Todos:       snap.todoSummary(start, end),
		Focus:       snap.focusSummary(start, end),
		Review:      snap.reviewSummary(start),
		GeneratedAt: g.now(),
	}
}

// GenerateWeekly builds the report for the Sunday-based week containing date.
func (g *Generator) GenerateWeekly(date time.Time) *WeeklyReport {
	snap := g.snapshot()
	start := startOfWeekSunday(date)
	end := start.AddDate(0, 0, 7)

	todos := snap.todoSummary(start, end)
	focus := snap.focusSummary(start, end)

	days := make([]DailySummary, 0, 7)
	reviewDays := 0
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		next := day.AddDate(0, 0, 1)
		t := snap.todoSummary(day, next)
		f := snap.focusSummary(day, next)
		_, reviewed := snap.state.DailyReview[day.Format(model.DateLayout)]
		if reviewed {
			reviewDays++
		}
		days = append(days, DailySummary{
			Date:           day.Format(model.DateLayout),
			DayOfWeek:      day.Format("Mon"),
			TodosCompleted: t.CompletedCount,
			TodosAdded:     t.AddedCount,
			Sessions:       f.Sessions,
			FocusMinutes:   f.Minutes,
			Reviewed:       reviewed,
		})
	}

	return &WeeklyReport{
		StartDate: start,
		EndDate:   end.Add(-time.Nanosecond),
		Todos: WeeklyTodos{
			TotalCompleted: todos.CompletedCount,
			TotalAdded:     todos.AddedCount,
			ByProject:      todos.ByProject,
		},
		Focus: WeeklyFocus{
			Sessions:     focus.Sessions,
			TotalMinutes: focus.Minutes,
			DailyAverage: focus.Minutes / 7,
			ByProject:    focus.ByProject,
		},
		ReviewDays:  reviewDays,
		Days:        days,
		GeneratedAt: g.now(),
	}
}

// todoSummary counts todos added and completed in [start, end). Todos carry
// no completion timestamp, so a completed todo counts on the day it was last
// updated.
func (s snapshot) todoSummary(start, end time.Time) TodoSummary {
	sum := TodoSummary{Completed: []TodoLine{}, Pending: []TodoLine{}}
	perProject := make(map[string]int)

	for _, t := range s.state.Todos {
		if inRange(t.CreatedAt, start, end) {
			sum.AddedCount++
		}
		switch {
		case t.Completed && inRange(t.UpdatedAt, start, end):
			line := s.line(t)
			sum.Completed = append(sum.Completed, line)
			perProject[line.Project]++
		case !t.Completed && t.TodayTag:
			sum.Pending = append(sum.Pending, s.line(t))
		}
	}

	sortLines(sum.Completed)
	sortLines(sum.Pending)
	sum.CompletedCount = len(sum.Completed)
	sum.PendingCount = len(sum.Pending)

	sum.ByProject = make([]ProjectCount, 0, len(perProject))
	for project, n := range perProject {
		sum.ByProject = append(sum.ByProject, ProjectCount{Project: project, Count: n})
	}
	slices.SortFunc(sum.ByProject, func(a, b ProjectCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Project, b.Project)
	})
	return sum
}

// focusSummary totals sessions started in [start, end). A session's minutes
// are split evenly across the distinct projects of its todos.
func (s snapshot) focusSummary(start, end time.Time) FocusSummary {
	var sum FocusSummary
	perProject := make(map[string]float64)

	for _, sess := range s.state.Sessions {
		if !inRange(sess.StartTime, start, end) {
			continue
		}
		sum.Sessions++
		sum.Minutes += sess.ActualMinutes

		projects := s.sessionProjects(sess)
		share := sess.ActualMinutes / float64(len(projects))
		for _, p := range projects {
			perProject[p] += share
		}
	}

	sum.ByProject = make([]ProjectMinutes, 0, len(perProject))
	for project, minutes := range perProject {
		pct := 0.0
		if sum.Minutes > 0 {
			pct = minutes / sum.Minutes * 100
		}
		sum.ByProject = append(sum.ByProject, ProjectMinutes{Project: project, Minutes: minutes, Percentage: pct})
	}
	slices.SortFunc(sum.ByProject, func(a, b ProjectMinutes) int {
		if c := cmp.Compare(b.Minutes, a.Minutes); c != 0 {
			return c
		}
		return cmp.Compare(a.Project, b.Project)
	})
	return sum
}

func (s snapshot) sessionProjects(sess model.Session) []string {
	seen := make(map[string]bool)
	var out []string
	for _, todoID := range sess.Tasks {
		t, ok := s.state.Todos[todoID]
		if !ok {
			continue
		}
		title := s.projectTitle(t.ProjectID)
		if !seen[title] {
			seen[title] = true
			out = append(out, title)
		}
	}
	if len(out) == 0 {
		out = []string{unassignedLabel}
	}
	return out
}

func (s snapshot) reviewSummary(day time.Time) ReviewSummary {
	review, ok := s.state.DailyReview[day.Format(model.DateLayout)]
	if !ok {
		return ReviewSummary{Selected: []TodoLine{}}
	}
	sum := ReviewSummary{Done: true, Selected: []TodoLine{}}
	for _, id := range review.SelectedTodoIDs {
		t, ok := s.state.Todos[id]
		if !ok {
			continue // deleted since the review
		}
		sum.Selected = append(sum.Selected, s.line(t))
		if t.Completed {
			sum.SelectedCompleted++
		}
	}
	return sum
}

func sortLines(lines []TodoLine) {
	slices.SortFunc(lines, func(a, b TodoLine) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Text, b.Text)
	})
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeekSunday(t time.Time) time.Time {
	t = startOfDay(t)
	return t.AddDate(0, 0, -int(t.Weekday()))
}
