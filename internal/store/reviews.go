package store

import (
	"slices"
	"time"

	"focusboard/internal/model"
)

// SetDailyReview stores the todos selected for date, replacing any previous
// selection for that date.
func (s *Store) SetDailyReview(date string, selected []string) error {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return invalid("review date %q is not YYYY-MM-DD", date)
	}
	ids := slices.Clone(selected)
	if ids == nil {
		ids = []string{}
	}
	return s.mutate(func(time.Time) error {
		s.state.DailyReview[date] = model.DailyReview{SelectedTodoIDs: ids}
		return nil
	})
}

// DailyReview returns the selection recorded for date.
func (s *Store) DailyReview(date string) (model.DailyReview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.DailyReview[date]
	if !ok {
		return model.DailyReview{SelectedTodoIDs: []string{}}, false
	}
	return model.DailyReview{SelectedTodoIDs: slices.Clone(r.SelectedTodoIDs)}, true
}

// Settings returns the current preferences.
func (s *Store) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Settings
}

// SettingsPatch is a partial update of Settings.
type SettingsPatch struct {
	Theme            *model.Theme
	DarkMode         *bool
	SyncInterval     *int64
	RemindersEnabled *bool
	HighContrast     *bool
	ReducedMotion    *bool
}

// UpdateSettings merges patch into the settings.
func (s *Store) UpdateSettings(patch SettingsPatch) error {
	if patch.Theme != nil && !patch.Theme.Valid() {
		return invalid("unknown theme %q", *patch.Theme)
	}
	if patch.SyncInterval != nil && *patch.SyncInterval <= 0 {
		return invalid("sync interval must be positive, got %d", *patch.SyncInterval)
	}
	return s.mutate(func(time.Time) error {
		st := &s.state.Settings
		if patch.Theme != nil {
			st.Theme = *patch.Theme
		}
		if patch.DarkMode != nil {
			st.DarkMode = *patch.DarkMode
		}
		if patch.SyncInterval != nil {
			st.SyncInterval = *patch.SyncInterval
		}
		if patch.RemindersEnabled != nil {
			st.RemindersEnabled = *patch.RemindersEnabled
		}
		if patch.HighContrast != nil {
			st.AccessibilityOpts.HighContrast = *patch.HighContrast
		}
		if patch.ReducedMotion != nil {
			st.AccessibilityOpts.ReducedMotion = *patch.ReducedMotion
		}
		return nil
	})
}
