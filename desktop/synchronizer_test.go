package desktop

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/window"
)

type fakeEnumerator struct {
	desktop    int
	foreground string
	desktopErr error
}

func (f *fakeEnumerator) List() ([]window.Info, error)   { return nil, nil }
func (f *fakeEnumerator) ActiveDesktop() (int, error)    { return f.desktop, f.desktopErr }
func (f *fakeEnumerator) ForegroundApp() (string, error) { return f.foreground, nil }

type fakeActivator struct {
	calls []string
	err   error
}

func (f *fakeActivator) Activate(app string) error {
	f.calls = append(f.calls, app)
	return f.err
}

func newTestSynchronizer(enum window.Enumerator, act Activator, fallback string) *Synchronizer {
	s := NewSynchronizer(enum, act, time.Millisecond, fallback, core.NewLogger(false))
	s.sleep = func(time.Duration) {}
	return s
}

func targetOnDesktop(d int) *window.Target {
	return &window.Target{App: "Firefox", Desktop: &d}
}

func TestSynchronizer_Snapshot(t *testing.T) {
	enum := &fakeEnumerator{desktop: 2, foreground: "Terminal"}
	s := newTestSynchronizer(enum, &fakeActivator{}, "")

	ctx, err := s.Snapshot()

	require.NoError(t, err)
	assert.Equal(t, 2, ctx.OriginalDesktop)
	assert.Equal(t, "Terminal", ctx.OriginalApp)
	assert.False(t, ctx.Switched)
}

func TestSynchronizer_SwitchIfNeeded(t *testing.T) {
	act := &fakeActivator{}
	s := newTestSynchronizer(&fakeEnumerator{desktop: 0}, act, "")
	ctx := &Context{OriginalDesktop: 0}

	err := s.SwitchIfNeeded(ctx, targetOnDesktop(1))

	require.NoError(t, err)
	assert.True(t, ctx.Switched)
	assert.Equal(t, []string{"Firefox"}, act.calls)
}

func TestSynchronizer_SwitchIfNeeded_SameDesktop(t *testing.T) {
	act := &fakeActivator{}
	s := newTestSynchronizer(&fakeEnumerator{desktop: 1}, act, "")
	ctx := &Context{OriginalDesktop: 1}

	err := s.SwitchIfNeeded(ctx, targetOnDesktop(1))

	require.NoError(t, err)
	assert.False(t, ctx.Switched)
	assert.Empty(t, act.calls)
}

func TestSynchronizer_SwitchIfNeeded_UnknownDesktop(t *testing.T) {
	act := &fakeActivator{}
	s := newTestSynchronizer(&fakeEnumerator{desktop: 0}, act, "")
	ctx := &Context{OriginalDesktop: 0}

	err := s.SwitchIfNeeded(ctx, &window.Target{App: "Firefox"})

	require.NoError(t, err)
	assert.False(t, ctx.Switched)
	assert.Empty(t, act.calls)
}

func TestSynchronizer_Restore(t *testing.T) {
	act := &fakeActivator{}
	s := newTestSynchronizer(&fakeEnumerator{}, act, "")
	ctx := &Context{OriginalApp: "Terminal", Switched: true}

	s.Restore(ctx)

	assert.Equal(t, []string{"Terminal"}, act.calls)
}

func TestSynchronizer_Restore_OnlyOnce(t *testing.T) {
	act := &fakeActivator{}
	s := newTestSynchronizer(&fakeEnumerator{}, act, "")
	ctx := &Context{OriginalApp: "Terminal", Switched: true}

	s.Restore(ctx)
	s.Restore(ctx)
	s.Restore(ctx)

	assert.Len(t, act.calls, 1)
}

func TestSynchronizer_Restore_NoSwitchNoRestore(t *testing.T) {
	act := &fakeActivator{}
	s := newTestSynchronizer(&fakeEnumerator{}, act, "")

	s.Restore(&Context{OriginalApp: "Terminal"})
	s.Restore(nil)

	assert.Empty(t, act.calls)
}

func TestSynchronizer_Restore_FallbackApp(t *testing.T) {
	act := &fakeActivator{}
	s := newTestSynchronizer(&fakeEnumerator{}, act, "Desktop")
	ctx := &Context{Switched: true} // original desktop had no foreground app

	s.Restore(ctx)

	assert.Equal(t, []string{"Desktop"}, act.calls)
}

func TestSynchronizer_Restore_SwallowsFailure(t *testing.T) {
	act := &fakeActivator{err: fmt.Errorf("wm gone")}
	s := newTestSynchronizer(&fakeEnumerator{}, act, "")
	ctx := &Context{OriginalApp: "Terminal", Switched: true}

	assert.NotPanics(t, func() { s.Restore(ctx) })
	assert.Len(t, act.calls, 1)
}
