//go:build linux

package notify

import (
	"fmt"
	"os/exec"
)

// notifySend shells out to notify-send.
type notifySend struct{}

func newPlatformNotifier() Notifier {
	return notifySend{}
}

func (n notifySend) Send(title, message string) error {
	return n.send(title, message, false)
}

// SendWithSound raises the urgency; whether a sound plays is up to the
// notification daemon.
func (n notifySend) SendWithSound(title, message string) error {
	return n.send(title, message, true)
}

func (notifySend) IsSupported() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

func (notifySend) send(title, message string, sound bool) error {
	args := []string{"--app-name=" + appName}
	if sound {
		args = append(args, "--urgency=normal")
	}
	args = append(args, title, message)

	if out, err := exec.Command("notify-send", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send failed: %w: %s", err, out)
	}
	return nil
}
