package desktop

import (
	"time"

	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/window"
)

// Context records the desktop state observed at orchestration start so it can
// be restored afterwards. It is mutated only by the Synchronizer.
type Context struct {
	OriginalDesktop int
	OriginalApp     string
	Switched        bool

	restored bool
}

// Synchronizer switches the active virtual desktop to reach the capture
// target and restores the prior state when the orchestration ends.
type Synchronizer struct {
	enum        window.Enumerator
	activator   Activator
	settle      time.Duration
	fallbackApp string
	logger      *core.Logger
	sleep       func(time.Duration)
}

// NewSynchronizer creates a desktop synchronizer. fallbackApp is activated on
// restore when the original desktop had no foreground application.
func NewSynchronizer(enum window.Enumerator, activator Activator, settle time.Duration, fallbackApp string, logger *core.Logger) *Synchronizer {
	return &Synchronizer{
		enum:        enum,
		activator:   activator,
		settle:      settle,
		fallbackApp: fallbackApp,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Snapshot records the currently active desktop and foreground application
func (s *Synchronizer) Snapshot() (*Context, error) {
	current, err := s.enum.ActiveDesktop()
	if err != nil {
		return nil, err
	}
	ctx := &Context{OriginalDesktop: current}
	if app, err := s.enum.ForegroundApp(); err == nil {
		ctx.OriginalApp = app
	}
	return ctx, nil
}

// SwitchIfNeeded activates the target's application when the target lives on
// a different desktop than the one recorded in ctx. A switch is followed by a
// settle delay so the window manager can finish its transition.
func (s *Synchronizer) SwitchIfNeeded(ctx *Context, target *window.Target) error {
	if target.Desktop == nil || *target.Desktop == ctx.OriginalDesktop {
		return nil
	}

	s.logger.Debug("Switching desktop %d -> %d via %s", ctx.OriginalDesktop, *target.Desktop, target.App)
	if err := s.activator.Activate(target.App); err != nil {
		return err
	}
	ctx.Switched = true
	s.sleep(s.settle)
	return nil
}

// Restore reactivates whichever application owned the original desktop, or
// the fallback app when none did. It runs at most once per context, only
// when a switch actually occurred, and never reports failure: restoration is
// best-effort and must not mask the orchestrator's primary outcome.
func (s *Synchronizer) Restore(ctx *Context) {
	if ctx == nil || !ctx.Switched || ctx.restored {
		return
	}
	ctx.restored = true

	app := ctx.OriginalApp
	if app == "" {
		app = s.fallbackApp
	}
	if app == "" {
		s.logger.Warn("No application to restore original desktop %d", ctx.OriginalDesktop)
		return
	}
	if err := s.activator.Activate(app); err != nil {
		s.logger.Warn("Desktop restoration via %s failed: %v", app, err)
	}
}
