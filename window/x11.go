//go:build linux
// +build linux

package window

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// X11Enumerator lists windows through wmctrl and xdotool. Both tools speak
// EWMH, which is what exposes the per-window desktop index.
type X11Enumerator struct {
	wmctrl  string
	xdotool string
}

// NewEnumerator returns the platform window enumerator
func NewEnumerator() Enumerator {
	return &X11Enumerator{wmctrl: "wmctrl", xdotool: "xdotool"}
}

// List enumerates all managed windows with bounds and desktop index
func (e *X11Enumerator) List() ([]Info, error) {
	out, err := exec.Command(e.wmctrl, "-lpGx").Output()
	if err != nil {
		return nil, fmt.Errorf("wmctrl failed: %w", err)
	}
	windows := parseWindowList(string(out))
	for i := range windows {
		fillProcessInfo(&windows[i])
	}
	return windows, nil
}

// ActiveDesktop returns the index of the currently active virtual desktop
func (e *X11Enumerator) ActiveDesktop() (int, error) {
	out, err := exec.Command(e.wmctrl, "-d").Output()
	if err != nil {
		return 0, fmt.Errorf("wmctrl failed: %w", err)
	}
	idx, ok := parseActiveDesktop(string(out))
	if !ok {
		return 0, fmt.Errorf("no active desktop in wmctrl output")
	}
	return idx, nil
}

// ForegroundApp returns the application owning the focused window, or ""
func (e *X11Enumerator) ForegroundApp() (string, error) {
	out, err := exec.Command(e.xdotool, "getactivewindow").Output()
	if err != nil {
		return "", fmt.Errorf("xdotool failed: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return "", fmt.Errorf("unexpected xdotool output: %w", err)
	}

	windows, err := e.List()
	if err != nil {
		return "", err
	}
	for _, w := range windows {
		handle, err := strconv.ParseInt(strings.TrimPrefix(w.Handle, "0x"), 16, 64)
		if err == nil && handle == id {
			return w.App, nil
		}
	}
	return "", nil
}

// parseWindowList parses `wmctrl -lpGx` output. Columns are window id,
// desktop, pid, x, y, width, height, WM_CLASS, host, then the title.
func parseWindowList(out string) []Info {
	var windows []Info
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		desktop, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		pid, _ := strconv.Atoi(fields[2])
		x, _ := strconv.Atoi(fields[3])
		y, _ := strconv.Atoi(fields[4])
		w, _ := strconv.Atoi(fields[5])
		h, _ := strconv.Atoi(fields[6])

		info := Info{
			Handle: fields[0],
			App:    appFromClass(fields[7]),
			PID:    pid,
			Bounds: Rect{X: x, Y: y, Width: w, Height: h},
		}
		if desktop >= 0 {
			// -1 means sticky; the desktop is then unknown
			d := desktop
			info.Desktop = &d
		}
		if len(fields) > 9 {
			info.Title = strings.Join(fields[9:], " ")
		}
		windows = append(windows, info)
	}
	return windows
}

// parseActiveDesktop finds the line marked '*' in `wmctrl -d` output
func parseActiveDesktop(out string) (int, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != "*" {
			continue
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, false
		}
		return idx, true
	}
	return 0, false
}

// appFromClass extracts the application name from WM_CLASS ("instance.Class")
func appFromClass(class string) string {
	if i := strings.LastIndex(class, "."); i >= 0 && i < len(class)-1 {
		return class[i+1:]
	}
	return class
}

// fillProcessInfo resolves executable path and command line from /proc
func fillProcessInfo(w *Info) {
	if w.PID <= 0 {
		return
	}
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", w.PID)); err == nil {
		w.ExePath = exe
	}
	if cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", w.PID)); err == nil {
		w.CommandLine = strings.TrimSpace(strings.ReplaceAll(string(cmdline), "\x00", " "))
	}
}
