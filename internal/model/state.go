package model

import (
	"slices"
	"time"
)

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		Theme:            ThemeSystem,
		DarkMode:         false,
		SyncInterval:     DefaultSyncIntervalMS,
		RemindersEnabled: true,
	}
}

// NewAppState returns an empty state with default settings.
func NewAppState() AppState {
	return AppState{
		Projects:    map[string]Project{},
		Todos:       map[string]Todo{},
		Sessions:    map[string]Session{},
		Resources:   map[string]Resource{},
		DailyReview: map[string]DailyReview{},
		Settings:    DefaultSettings(),
	}
}

// Normalize fills in per-field defaults for state read from an older or
// partial record: nil maps and lists become empty, progress is clamped and
// unknown settings fall back to defaults.
func (s *AppState) Normalize() {
	if s.Projects == nil {
		s.Projects = map[string]Project{}
	}
	if s.Todos == nil {
		s.Todos = map[string]Todo{}
	}
	if s.Sessions == nil {
		s.Sessions = map[string]Session{}
	}
	if s.Resources == nil {
		s.Resources = map[string]Resource{}
	}
	if s.DailyReview == nil {
		s.DailyReview = map[string]DailyReview{}
	}

	for id, p := range s.Projects {
		if p.Tags == nil {
			p.Tags = []string{}
		}
		p.Progress = ClampProgress(p.Progress)
		if p.ID == "" {
			p.ID = id
		}
		s.Projects[id] = p
	}
	for id, t := range s.Todos {
		if t.Dependencies == nil {
			t.Dependencies = []string{}
		}
		if t.ProjectID == "" {
			t.ProjectID = UnassignedProjectID
		}
		if t.ID == "" {
			t.ID = id
		}
		s.Todos[id] = t
	}
	for id, sess := range s.Sessions {
		if sess.Tasks == nil {
			sess.Tasks = []string{}
		}
		if sess.ID == "" {
			sess.ID = id
		}
		s.Sessions[id] = sess
	}
	for date, r := range s.DailyReview {
		if r.SelectedTodoIDs == nil {
			r.SelectedTodoIDs = []string{}
		}
		s.DailyReview[date] = r
	}

	if !s.Settings.Theme.Valid() {
		s.Settings.Theme = ThemeSystem
	}
	if s.Settings.SyncInterval <= 0 {
		s.Settings.SyncInterval = DefaultSyncIntervalMS
	}
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := AppState{
		Projects:    make(map[string]Project, len(s.Projects)),
		Todos:       make(map[string]Todo, len(s.Todos)),
		Sessions:    make(map[string]Session, len(s.Sessions)),
		Resources:   make(map[string]Resource, len(s.Resources)),
		DailyReview: make(map[string]DailyReview, len(s.DailyReview)),
		Settings:    s.Settings,
	}
	for id, p := range s.Projects {
		out.Projects[id] = p.Clone()
	}
	for id, t := range s.Todos {
		out.Todos[id] = t.Clone()
	}
	for id, sess := range s.Sessions {
		out.Sessions[id] = sess.Clone()
	}
	for id, r := range s.Resources {
		out.Resources[id] = r
	}
	for date, r := range s.DailyReview {
		out.DailyReview[date] = DailyReview{SelectedTodoIDs: slices.Clone(r.SelectedTodoIDs)}
	}
	return out
}

// LatestChange returns the newest createdAt/updatedAt found in the state, or
// the zero time for an empty state.
func (s AppState) LatestChange() time.Time {
	var latest time.Time
	bump := func(t time.Time) {
		if t.After(latest) {
			latest = t
		}
	}
	for _, p := range s.Projects {
		bump(p.UpdatedAt)
	}
	for _, t := range s.Todos {
		bump(t.UpdatedAt)
	}
	for _, sess := range s.Sessions {
		bump(sess.CreatedAt)
		bump(sess.EndTime)
	}
	for _, r := range s.Resources {
		bump(r.UpdatedAt)
	}
	return latest
}

// Counts reports how many entities of each kind the state holds.
func (s AppState) Counts() map[string]int {
	return map[string]int{
		"projects":      len(s.Projects),
		"todos":         len(s.Todos),
		"sessions":      len(s.Sessions),
		"resources":     len(s.Resources),
		"daily_reviews": len(s.DailyReview),
	}
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Project) Clone() Project {
	p.Tags = slices.Clone(p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.DueDate = cloneTime(p.DueDate)
	if p.Budget != nil {
		b := *p.Budget
		p.Budget = &b
	}
	if p.DeployLink != nil {
		l := *p.DeployLink
		p.DeployLink = &l
	}
	return p
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Todo) Clone() Todo {
	t.Dependencies = slices.Clone(t.Dependencies)
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	t.DueDate = cloneTime(t.DueDate)
	if t.EnergyLevel != nil {
		e := *t.EnergyLevel
		t.EnergyLevel = &e
	}
	return t
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	s.Tasks = slices.Clone(s.Tasks)
	if s.Tasks == nil {
		s.Tasks = []string{}
	}
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
