// Package notify sends desktop notifications through the native mechanism of
// each platform (osascript on macOS, notify-send on Linux) and schedules the
// daily focus reminder.
package notify

// Notifier sends desktop notifications.
type Notifier interface {
	Send(title, message string) error
	SendWithSound(title, message string) error

	// IsSupported reports whether this platform can show notifications.
	IsSupported() bool
}

type noopNotifier struct{}

func (noopNotifier) Send(title, message string) error          { return nil }
func (noopNotifier) SendWithSound(title, message string) error { return nil }
func (noopNotifier) IsSupported() bool                         { return false }

// New returns the platform notifier, or a no-op one when the platform has
// no notification tool installed.
func New() Notifier {
	n := newPlatformNotifier()
	if n == nil || !n.IsSupported() {
		return noopNotifier{}
	}
	return n
}

const appName = "focusboard"
