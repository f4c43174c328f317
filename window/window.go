package window

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vericap/vericap/core"
)

// ErrNoMatch indicates no window satisfied the predicate
var ErrNoMatch = errors.New("no matching window")

// Rect is a screen rectangle in absolute coordinates
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Info describes one enumerated OS window
type Info struct {
	Handle      string
	App         string
	Title       string
	PID         int
	ExePath     string
	CommandLine string
	Bounds      Rect
	Desktop     *int // virtual desktop index, nil when unknown
}

// Target is the resolved identity of the window to capture. It is produced
// before the attempt loop and treated as read-only within an attempt.
type Target struct {
	Handle  string
	App     string
	Title   string
	PID     int
	Bounds  Rect
	Desktop *int
}

// Enumerator lists OS windows and reports desktop state
type Enumerator interface {
	List() ([]Info, error)
	ActiveDesktop() (int, error)
	ForegroundApp() (string, error)
}

// Matches reports whether the window satisfies every configured criterion
func Matches(spec *core.TargetSpec, w *Info) (bool, error) {
	if spec.App != "" && !strings.Contains(strings.ToLower(w.App), strings.ToLower(spec.App)) {
		return false, nil
	}
	if spec.TitlePattern != "" {
		re, err := regexp.Compile(spec.TitlePattern)
		if err != nil {
			return false, fmt.Errorf("invalid title pattern: %w", err)
		}
		if !re.MatchString(w.Title) {
			return false, nil
		}
	}
	if spec.PID != 0 && w.PID != spec.PID {
		return false, nil
	}
	if spec.ExePath != "" && !strings.Contains(w.ExePath, spec.ExePath) {
		return false, nil
	}
	if spec.ExeExclude != "" && w.ExePath != "" && strings.Contains(w.ExePath, spec.ExeExclude) {
		return false, nil
	}
	if spec.CommandLine != "" && !strings.Contains(w.CommandLine, spec.CommandLine) {
		return false, nil
	}
	return true, nil
}

// Find resolves the first window matching the predicate. Returns ErrNoMatch
// when nothing qualifies.
func Find(enum Enumerator, spec *core.TargetSpec) (*Target, error) {
	windows, err := enum.List()
	if err != nil {
		return nil, fmt.Errorf("window enumeration failed: %w", err)
	}

	for i := range windows {
		w := &windows[i]
		ok, err := Matches(spec, w)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return &Target{
			Handle:  w.Handle,
			App:     w.App,
			Title:   w.Title,
			PID:     w.PID,
			Bounds:  w.Bounds,
			Desktop: w.Desktop,
		}, nil
	}
	return nil, ErrNoMatch
}
