//go:build linux

package power

import (
	"os/exec"
	"strings"
)

// knownLockers is checked via pgrep when loginctl's IdleHint is unavailable
// (e.g. no systemd-logind session, common on minimal setups).
var knownLockers = []string{"swaylock", "hyprlock", "waylock", "gtklock"}

// checkSessionIdle reports whether the current session is locked. Used
// only for observability; it never drives control flow.
func checkSessionIdle() bool {
	out, err := exec.Command("loginctl", "show-session", "self", "--property=IdleHint").Output()
	if err == nil {
		return strings.TrimSpace(string(out)) == "IdleHint=yes"
	}

	for _, locker := range knownLockers {
		if err := exec.Command("pgrep", "-x", locker).Run(); err == nil {
			return true
		}
	}
	return false
}
