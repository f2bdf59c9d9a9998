// Package reports builds daily and weekly focus reports from the store:
// completed todos, focus minutes from sessions and daily-review follow-through.
package reports

import "time"

// DailyReport covers one calendar day.
type DailyReport struct {
	Date        time.Time     `json:"date"`
	Todos       TodoSummary   `json:"todos"`
	Focus       FocusSummary  `json:"focus"`
	Review      ReviewSummary `json:"review"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// WeeklyReport covers seven days starting on a Sunday.
type WeeklyReport struct {
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Todos       WeeklyTodos    `json:"todos"`
	Focus       WeeklyFocus    `json:"focus"`
	ReviewDays  int            `json:"review_days"`
	Days        []DailySummary `json:"days"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// TodoLine is a todo as it appears in a report.
type TodoLine struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Project  string `json:"project"`
	Priority int    `json:"priority"`
}

// TodoSummary counts todo activity for a day. Pending lists the open todos
// tagged for today.
type TodoSummary struct {
	Completed      []TodoLine     `json:"completed"`
	Pending        []TodoLine     `json:"pending"`
	CompletedCount int            `json:"completed_count"`
	PendingCount   int            `json:"pending_count"`
	AddedCount     int            `json:"added_count"`
	ByProject      []ProjectCount `json:"by_project"`
}

// ProjectCount is a count grouped by project title.
type ProjectCount struct {
	Project string `json:"project"`
	Count   int    `json:"count"`
}

// FocusSummary totals the focus sessions started in a period.
type FocusSummary struct {
	Sessions  int              `json:"sessions"`
	Minutes   float64          `json:"minutes"`
	ByProject []ProjectMinutes `json:"by_project"`
}

// ProjectMinutes is focus time attributed to one project.
type ProjectMinutes struct {
	Project    string  `json:"project"`
	Minutes    float64 `json:"minutes"`
	Percentage float64 `json:"percentage"`
}

// ReviewSummary reports on the daily review for a date.
type ReviewSummary struct {
	Done              bool       `json:"done"`
	Selected          []TodoLine `json:"selected"`
	SelectedCompleted int        `json:"selected_completed"`
}

// WeeklyTodos aggregates todo activity over a week.
type WeeklyTodos struct {
	TotalCompleted int            `json:"total_completed"`
	TotalAdded     int            `json:"total_added"`
	ByProject      []ProjectCount `json:"by_project"`
}

// WeeklyFocus aggregates focus sessions over a week.
type WeeklyFocus struct {
	Sessions     int              `json:"sessions"`
	TotalMinutes float64          `json:"total_minutes"`
	DailyAverage float64          `json:"daily_average"`
	ByProject    []ProjectMinutes `json:"by_project"`
}

// DailySummary is one row of the weekly breakdown.
type DailySummary struct {
	Date           string  `json:"date"`
	DayOfWeek      string  `json:"day_of_week"`
	TodosCompleted int     `json:"todos_completed"`
	TodosAdded     int     `json:"todos_added"`
	Sessions       int     `json:"sessions"`
	FocusMinutes   float64 `json:"focus_minutes"`
	Reviewed       bool    `json:"reviewed"`
}
