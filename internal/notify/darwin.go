//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// osascript displays notifications through AppleScript.
type osascript struct{}

func newPlatformNotifier() Notifier {
	return osascript{}
}

func (n osascript) Send(title, message string) error {
	return n.send(title, message, false)
}

func (n osascript) SendWithSound(title, message string) error {
	return n.send(title, message, true)
}

func (osascript) IsSupported() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

func (osascript) send(title, message string, sound bool) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(message), escapeAppleScript(title))
	if sound {
		script += ` sound name "default"`
	}
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript failed: %w: %s", err, out)
	}
	return nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
