package store

import (
	"slices"
	"time"

	"focusboard/internal/model"
)

// NewSession starts a focus session. EndTime is set to StartTime until the
// session is finished; a zero StartTime means "now".
type NewSession struct {
	Tasks     []string
	StartTime time.Time
}

// SessionPatch is a partial update of a session.
type SessionPatch struct {
	Tasks         []string
	StartTime     *time.Time
	EndTime       *time.Time
	ActualMinutes *float64
}

// AddSession records the start of a focus session and returns its id.
func (s *Store) AddSession(in NewSession) (string, error) {
	var id string
	err := s.mutate(func(now time.Time) error {
		id = s.newID("s")
		start := in.StartTime
		if start.IsZero() {
			start = now
		}
		tasks := slices.Clone(in.Tasks)
		if tasks == nil {
			tasks = []string{}
		}
		s.state.Sessions[id] = model.Session{
			ID:        id,
			Tasks:     tasks,
			StartTime: start,
			EndTime:   start,
			CreatedAt: now,
		}
		return nil
	})
	return id, err
}

// UpdateSession merges patch into the session.
func (s *Store) UpdateSession(id string, patch SessionPatch) error {
	if patch.ActualMinutes != nil && *patch.ActualMinutes < 0 {
		return invalid("session minutes must not be negative")
	}
	return s.mutate(func(time.Time) error {
		sess, ok := s.state.Sessions[id]
		if !ok {
			return notFound("session", id)
		}
		if patch.Tasks != nil {
			sess.Tasks = slices.Clone(patch.Tasks)
		}
		if patch.StartTime != nil {
			sess.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			sess.EndTime = *patch.EndTime
		}
		if patch.ActualMinutes != nil {
			sess.ActualMinutes = *patch.ActualMinutes
		}
		if sess.EndTime.Before(sess.StartTime) {
			return invalid("session ends before it starts")
		}
		s.state.Sessions[id] = sess
		return nil
	})
}

// FinishSession closes a session at end with the minutes actually focused.
func (s *Store) FinishSession(id string, end time.Time, minutes float64) error {
	return s.UpdateSession(id, SessionPatch{EndTime: &end, ActualMinutes: &minutes})
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(id string) error {
	return s.mutate(func(time.Time) error {
		if _, ok := s.state.Sessions[id]; !ok {
			return notFound("session", id)
		}
		delete(s.state.Sessions, id)
		return nil
	})
}

// Session returns a copy of the session with the given id.
func (s *Store) Session(id string) (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.state.Sessions[id]
	if !ok {
		return model.Session{}, false
	}
	return sess.Clone(), true
}

// Sessions returns every session ordered by start time.
func (s *Store) Sessions() []model.Session {
	return s.filterSessions(func(model.Session) bool { return true })
}

// SessionsInRange lists sessions whose start time falls in [from, to).
func (s *Store) SessionsInRange(from, to time.Time) []model.Session {
	return s.filterSessions(func(sess model.Session) bool {
		return !sess.StartTime.Before(from) && sess.StartTime.Before(to)
	})
}

// FocusMinutes sums ActualMinutes over the sessions started in [from, to).
func (s *Store) FocusMinutes(from, to time.Time) float64 {
	var total float64
	for _, sess := range s.SessionsInRange(from, to) {
		total += sess.ActualMinutes
	}
	return total
}

func (s *Store) filterSessions(keep func(model.Session) bool) []model.Session {
	s.mu.RLock()
	out := make([]model.Session, 0, len(s.state.Sessions))
	for _, sess := range s.state.Sessions {
		if keep(sess) {
			out = append(out, sess.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Session) int {
		return byCreated(a.StartTime, b.StartTime, a.ID, b.ID)
	})
	return out
}
