// Package model defines the focusboard domain entities and the AppState
// aggregate that is persisted locally and synced as a whole snapshot.
package model

import "time"

// Priority represents project priority levels
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Category groups projects on the dashboard
type Category string

const (
	CategoryWork     Category = "work"
	CategoryClient   Category = "client"
	CategoryPersonal Category = "personal"
)

// Status is the lifecycle stage of a project
type Status string

const (
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on-hold"
)

// Theme is the preferred color scheme
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// UnassignedProjectID marks a todo that belongs to no project.
const UnassignedProjectID = "unassigned"

// DateLayout is the key format for daily reviews.
const DateLayout = "2006-01-02"

// DefaultSyncIntervalMS is the auto-sync cadence in milliseconds (5 minutes).
const DefaultSyncIntervalMS = 300000

// Project is a unit of work with its own todos and resources.
type Project struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Desc          string     `json:"desc,omitempty"`
	Description   string     `json:"description,omitempty"`
	Estimate      string     `json:"estimate,omitempty"`
	Priority      Priority   `json:"priority"`
	Progress      int        `json:"progress"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Tags          []string   `json:"tags"`
	Budget        *float64   `json:"budget,omitempty"`
	TimeSpent     float64    `json:"timeSpent"`
	EstimatedTime float64    `json:"estimatedTime"`
	Category      Category   `json:"category"`
	Status        Status     `json:"status"`
	DeployLink    *string    `json:"deployLink"`
	Archived      bool       `json:"archived"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Todo is a single actionable item, optionally attached to a project.
type Todo struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"projectId"`
	Text         string     `json:"text"`
	Priority     int        `json:"priority"`
	EnergyLevel  *int       `json:"energyLevel,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Completed    bool       `json:"completed"`
	TodayTag     bool       `json:"todayTag"`
	Dependencies []string   `json:"dependencies"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Session is a recorded focus (Pomodoro) block.
type Session struct {
	ID            string    `json:"id"`
	Tasks         []string  `json:"tasks"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	ActualMinutes float64   `json:"actualMinutes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Resource is a reference link attached to a project.
type Resource struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DailyReview is the set of todos picked for focus on one date.
type DailyReview struct {
	SelectedTodoIDs []string `json:"selectedTodoIds"`
}

// AccessibilityOpts holds the accessibility toggles.
type AccessibilityOpts struct {
	HighContrast  bool `json:"highContrast"`
	ReducedMotion bool `json:"reducedMotion"`
}

// Settings are the user preferences carried inside the synced state.
type Settings struct {
	Theme             Theme             `json:"theme"`
	DarkMode          bool              `json:"darkMode"`
	SyncInterval      int64             `json:"syncInterval"`
	RemindersEnabled  bool              `json:"remindersEnabled"`
	AccessibilityOpts AccessibilityOpts `json:"accessibilityOpts"`
}

// SyncEvery returns the configured sync interval as a duration.
func (s Settings) SyncEvery() time.Duration {
	if s.SyncInterval <= 0 {
		return DefaultSyncIntervalMS * time.Millisecond
	}
	return time.Duration(s.SyncInterval) * time.Millisecond
}

// AppState is the aggregate of every entity map plus settings. It is the unit
// of local persistence and of remote sync.
type AppState struct {
	Projects    map[string]Project     `json:"projects"`
	Todos       map[string]Todo        `json:"todos"`
	Sessions    map[string]Session     `json:"sessions"`
	Resources   map[string]Resource    `json:"resources"`
	DailyReview map[string]DailyReview `json:"dailyReview"`
	Settings    Settings               `json:"settings"`
}
