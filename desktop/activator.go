package desktop

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Activator brings an application's window to the foreground. Activating a
// window on another virtual desktop switches the desktop as a side effect.
type Activator interface {
	Activate(appName string) error
}

// ExecActivator activates windows through wmctrl
type ExecActivator struct {
	binary string
}

// NewActivator creates the default wmctrl-backed activator
func NewActivator() *ExecActivator {
	return &ExecActivator{binary: "wmctrl"}
}

// Activate raises the first window whose title or class matches appName
func (a *ExecActivator) Activate(appName string) error {
	name, err := SanitizeAppName(appName)
	if err != nil {
		return err
	}
	if out, err := exec.Command(a.binary, "-xa", name).CombinedOutput(); err != nil {
		return fmt.Errorf("activation of %q failed: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SanitizeAppName rejects names that could escape quoting in shell or
// script interpolation contexts downstream.
func SanitizeAppName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty application name")
	}
	if strings.ContainsAny(name, "\x00\n\r") {
		return "", fmt.Errorf("application name contains control characters")
	}
	// Round-trip through shell quoting; anything that does not survive
	// is unsafe to hand to script-based activators.
	split, err := shellquote.Split(shellquote.Join(name))
	if err != nil || len(split) != 1 || split[0] != name {
		return "", fmt.Errorf("application name %q is not safe for interpolation", name)
	}
	return name, nil
}
