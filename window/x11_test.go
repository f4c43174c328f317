//go:build linux
// +build linux

package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wmctrlOutput = `0x03400003  1 2901   10   20  800  600  navigator.Firefox   host Mozilla Firefox - Home
0x04a00007 -1 3100    0    0 1920 1080  code.Code           host main.go - vericap - Visual Studio Code
0x05200001  0 0       0    0 1920   24  panel.Xfce4-panel   host
garbage line
`

func TestParseWindowList(t *testing.T) {
	windows := parseWindowList(wmctrlOutput)

	require.Len(t, windows, 3)

	assert.Equal(t, "0x03400003", windows[0].Handle)
	assert.Equal(t, "Firefox", windows[0].App)
	assert.Equal(t, 2901, windows[0].PID)
	assert.Equal(t, Rect{X: 10, Y: 20, Width: 800, Height: 600}, windows[0].Bounds)
	require.NotNil(t, windows[0].Desktop)
	assert.Equal(t, 1, *windows[0].Desktop)
	assert.Equal(t, "Mozilla Firefox - Home", windows[0].Title)

	// sticky windows report no desktop
	assert.Nil(t, windows[1].Desktop)
	assert.Equal(t, "Code", windows[1].App)

	// windows without a title still parse
	assert.Equal(t, "Xfce4-panel", windows[2].App)
	assert.Equal(t, "", windows[2].Title)
}

func TestParseActiveDesktop(t *testing.T) {
	out := `0  - DG: 1920x1080  VP: N/A  WA: 0,0 1920x1056  Desktop 1
1  * DG: 1920x1080  VP: 0,0  WA: 0,0 1920x1056  Desktop 2
`
	idx, ok := parseActiveDesktop(out)

	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestParseActiveDesktop_None(t *testing.T) {
	_, ok := parseActiveDesktop("0  - DG: 1x1\n")

	assert.False(t, ok)
}

func TestAppFromClass(t *testing.T) {
	assert.Equal(t, "Firefox", appFromClass("navigator.Firefox"))
	assert.Equal(t, "xterm", appFromClass("xterm"))
	assert.Equal(t, "Navigator", appFromClass("a.b.Navigator"))
}
