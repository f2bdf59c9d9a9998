package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"focusboard/internal/model"
)

// Source is the part of the store the reminder reads.
type Source interface {
	Settings() model.Settings
	TodayTodos() []model.Todo
}

// Reminder fires once a day at a wall-clock time and nudges the user about
// the todos tagged for today. It stays quiet while the synced setting
// RemindersEnabled is off.
type Reminder struct {
	notifier Notifier
	src      Source
	hour     int
	minute   int
	sound    bool
	now      func() time.Time
	logger   *log.Logger
}

// ReminderOption configures a Reminder.
type ReminderOption func(*Reminder)

// WithSound plays the default notification sound.
func WithSound(on bool) ReminderOption {
	return func(r *Reminder) { r.sound = on }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ReminderOption {
	return func(r *Reminder) { r.now = now }
}

// WithLogger sets the logger for delivery failures.
func WithLogger(l *log.Logger) ReminderOption {
	return func(r *Reminder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReminder parses at ("HH:MM", local time) and returns a reminder that
// reads from src.
func NewReminder(n Notifier, src Source, at string, opts ...ReminderOption) (*Reminder, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("reminder time %q: want HH:MM", at)
	}
	if n == nil {
		n = noopNotifier{}
	}
	r := &Reminder{
		notifier: n,
		src:      src,
		hour:     t.Hour(),
		minute:   t.Minute(),
		now:      time.Now,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Next returns the first reminder time strictly after from.
func (r *Reminder) Next(from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), r.hour, r.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Message builds the reminder text from the current today list.
func (r *Reminder) Message() (title, body string) {
	open := 0
	var first string
	for _, t := range r.src.TodayTodos() {
		if t.Completed {
			continue
		}
		if open == 0 {
			first = t.Text
		}
		open++
	}

	title = "focusboard: daily focus"
	switch open {
	case 0:
		body = "Nothing tagged for today yet. Pick a few todos to focus on."
	case 1:
		body = fmt.Sprintf("1 todo left for today: %s", first)
	default:
		body = fmt.Sprintf("%d todos left for today, starting with: %s", open, first)
	}
	return title, body
}

// Fire sends the reminder now. It reports false without sending when
// reminders are turned off in settings.
func (r *Reminder) Fire() (bool, error) {
	if !r.src.Settings().RemindersEnabled {
		return false, nil
	}
	title, body := r.Message()
	send := r.notifier.Send
	if r.sound {
		send = r.notifier.SendWithSound
	}
	if err := send(title, body); err != nil {
		return false, err
	}
	return true, nil
}

// Run fires the reminder every day until ctx is cancelled.
func (r *Reminder) Run(ctx context.Context) {
	for {
		wait := r.Next(r.now()).Sub(r.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := r.Fire(); err != nil {
				r.logger.Printf("warning: focus reminder: %v", err)
			}
		}
	}
}
