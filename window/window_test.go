package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vericap/vericap/core"
)

func sampleWindow() Info {
	d := 1
	return Info{
		Handle:      "0x0340000a",
		App:         "Firefox",
		Title:       "Mozilla Firefox - Home",
		PID:         4242,
		ExePath:     "/usr/lib/firefox/firefox",
		CommandLine: "/usr/lib/firefox/firefox --new-window",
		Bounds:      Rect{X: 10, Y: 20, Width: 800, Height: 600},
		Desktop:     &d,
	}
}

func TestMatches(t *testing.T) {
	w := sampleWindow()

	tests := []struct {
		name string
		spec core.TargetSpec
		want bool
	}{
		{"app substring case-insensitive", core.TargetSpec{App: "firefox"}, true},
		{"app mismatch", core.TargetSpec{App: "chrome"}, false},
		{"title pattern", core.TargetSpec{TitlePattern: "Mozilla.*Home"}, true},
		{"title pattern mismatch", core.TargetSpec{TitlePattern: "^Chromium"}, false},
		{"pid", core.TargetSpec{PID: 4242}, true},
		{"pid mismatch", core.TargetSpec{PID: 99}, false},
		{"exe substring", core.TargetSpec{ExePath: "lib/firefox"}, true},
		{"exe exclusion hits", core.TargetSpec{App: "firefox", ExeExclude: "/usr/lib"}, false},
		{"exe exclusion misses", core.TargetSpec{App: "firefox", ExeExclude: "/opt"}, true},
		{"command line", core.TargetSpec{CommandLine: "--new-window"}, true},
		{"all criteria", core.TargetSpec{App: "fire", TitlePattern: "Firefox", PID: 4242}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(&tt.spec, &w)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches_InvalidPattern(t *testing.T) {
	w := sampleWindow()
	spec := core.TargetSpec{TitlePattern: "(["}

	_, err := Matches(&spec, &w)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid title pattern")
}

type fakeEnumerator struct {
	windows []Info
	err     error
}

func (f *fakeEnumerator) List() ([]Info, error)         { return f.windows, f.err }
func (f *fakeEnumerator) ActiveDesktop() (int, error)   { return 0, nil }
func (f *fakeEnumerator) ForegroundApp() (string, error) { return "", nil }

func TestFind(t *testing.T) {
	enum := &fakeEnumerator{windows: []Info{sampleWindow()}}

	target, err := Find(enum, &core.TargetSpec{App: "firefox"})

	require.NoError(t, err)
	assert.Equal(t, "Firefox", target.App)
	assert.Equal(t, 4242, target.PID)
	assert.Equal(t, Rect{X: 10, Y: 20, Width: 800, Height: 600}, target.Bounds)
	require.NotNil(t, target.Desktop)
	assert.Equal(t, 1, *target.Desktop)
}

func TestFind_NoMatch(t *testing.T) {
	enum := &fakeEnumerator{windows: []Info{sampleWindow()}}

	_, err := Find(enum, &core.TargetSpec{App: "chrome"})

	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestFind_EmptyList(t *testing.T) {
	enum := &fakeEnumerator{}

	_, err := Find(enum, &core.TargetSpec{App: "anything"})

	assert.ErrorIs(t, err, ErrNoMatch)
}
