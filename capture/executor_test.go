package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/verify"
	"github.com/vericap/vericap/window"
)

// fakeCapturer writes pre-rendered frames, one per call, or fails
type fakeCapturer struct {
	native core.Format
	frames []image.Image
	errs   []error
	calls  int
}

func (f *fakeCapturer) Capture(bounds window.Rect, cfg *core.CaptureConfig, outputPath string) error {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return f.errs[idx]
	}
	frame := f.frames[len(f.frames)-1]
	if idx < len(f.frames) {
		frame = f.frames[idx]
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, frame)
}

func (f *fakeCapturer) NativeFormat() core.Format {
	if f.native == "" {
		return core.FormatPNG
	}
	return f.native
}

// fakeConverter copies the raw artifact or fails
type fakeConverter struct {
	err   error
	calls int
}

func (f *fakeConverter) Convert(rawPath string, cfg *core.CaptureConfig, outputPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(rawPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}

type countingActivator struct {
	calls []string
	err   error
}

func (c *countingActivator) Activate(app string) error {
	c.calls = append(c.calls, app)
	return c.err
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / w)
			img.Set(x, y, color.RGBA{v, uint8((y * 255) / h), 255 - v, 255})
		}
	}
	return img
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{30, 30, 30, 255})
		}
	}
	return img
}

func testConfig(checks ...string) *core.CaptureConfig {
	cfg := core.DefaultConfig()
	cfg.Target.App = "firefox"
	cfg.Verify = checks
	cfg.SettleDelay = 100 * time.Millisecond
	cfg.RetryDelay = time.Second
	return cfg
}

func testTarget(w, h int) *window.Target {
	return &window.Target{App: "Firefox", Title: "Home", Bounds: window.Rect{Width: w, Height: h}}
}

func newTestExecutor(capturer Capturer, converter Converter, act *countingActivator) (*Executor, *[]time.Duration) {
	logger := core.NewLogger(false)
	engine := verify.NewEngine(nil, nil, nil, logger)
	ex := NewExecutor(capturer, converter, engine, act, logger)

	var slept []time.Duration
	ex.sleep = func(d time.Duration) { slept = append(slept, d) }
	return ex, &slept
}

func pathsIn(dir string, attempt int) AttemptPaths {
	return attemptPaths(filepath.Join(dir, "out.png"), attempt, core.FormatPNG)
}

func TestExecutor_Execute_FirstAttemptNoWait(t *testing.T) {
	act := &countingActivator{}
	ex, slept := newTestExecutor(&fakeCapturer{frames: []image.Image{gradient(100, 80)}}, &fakeConverter{}, act)

	res, err := ex.Execute(testTarget(100, 80), testConfig("basic"), 1, pathsIn(t.TempDir(), 1), nil)

	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Empty(t, act.calls)
	assert.Empty(t, *slept)
}

func TestExecutor_Execute_ActivateFirst(t *testing.T) {
	act := &countingActivator{}
	ex, slept := newTestExecutor(&fakeCapturer{frames: []image.Image{gradient(100, 80)}}, &fakeConverter{}, act)
	cfg := testConfig("basic")
	cfg.ActivateFirst = true

	_, err := ex.Execute(testTarget(100, 80), cfg, 1, pathsIn(t.TempDir(), 1), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Firefox"}, act.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, *slept)
}

func TestExecutor_Execute_ReactivateSettleScales(t *testing.T) {
	act := &countingActivator{}
	ex, slept := newTestExecutor(&fakeCapturer{frames: []image.Image{gradient(100, 80)}}, &fakeConverter{}, act)
	cfg := testConfig("basic")
	cfg.RetryStrategy = core.RetryReactivate

	_, err := ex.Execute(testTarget(100, 80), cfg, 3, pathsIn(t.TempDir(), 3), nil)

	require.NoError(t, err)
	// settle scales linearly with the attempt number, no retry delay
	assert.Equal(t, []string{"Firefox"}, act.calls)
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, *slept)
}

func TestExecutor_Execute_RetryDelayWithoutActivation(t *testing.T) {
	act := &countingActivator{}
	ex, slept := newTestExecutor(&fakeCapturer{frames: []image.Image{gradient(100, 80)}}, &fakeConverter{}, act)
	cfg := testConfig("basic")
	cfg.RetryStrategy = core.RetryExponential

	_, err := ex.Execute(testTarget(100, 80), cfg, 3, pathsIn(t.TempDir(), 3), nil)

	require.NoError(t, err)
	// exactly one of activation settle or retry delay, never both
	assert.Empty(t, act.calls)
	assert.Equal(t, []time.Duration{4 * time.Second}, *slept)
}

func TestExecutor_Execute_CaptureFailure(t *testing.T) {
	ex, _ := newTestExecutor(&fakeCapturer{errs: []error{fmt.Errorf("x11grab died")}, frames: []image.Image{gradient(10, 10)}}, &fakeConverter{}, &countingActivator{})

	res, err := ex.Execute(testTarget(10, 10), testConfig("basic"), 1, pathsIn(t.TempDir(), 1), nil)

	assert.Nil(t, res)
	var captureErr *core.CaptureError
	require.ErrorAs(t, err, &captureErr)
	assert.Equal(t, 1, captureErr.Attempt)
}

func TestExecutor_Execute_ActivationFailureNonFatal(t *testing.T) {
	act := &countingActivator{err: fmt.Errorf("wm busy")}
	ex, _ := newTestExecutor(&fakeCapturer{frames: []image.Image{gradient(100, 80)}}, &fakeConverter{}, act)
	cfg := testConfig("basic")
	cfg.ActivateFirst = true

	res, err := ex.Execute(testTarget(100, 80), cfg, 1, pathsIn(t.TempDir(), 1), nil)

	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestExecutor_Execute_ConversionFailure(t *testing.T) {
	conv := &fakeConverter{err: fmt.Errorf("encoder missing")}
	ex, _ := newTestExecutor(&fakeCapturer{frames: []image.Image{gradient(100, 80)}}, conv, &countingActivator{})
	cfg := testConfig("basic")
	cfg.Format = core.FormatJPEG // differs from the PNG native format

	res, err := ex.Execute(testTarget(100, 80), cfg, 1, pathsIn(t.TempDir(), 1), nil)

	require.NoError(t, err, "conversion failure must not abort the attempt")
	assert.False(t, res.Verified)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, verify.StrategyConversion, res.Results[0].Strategy)
	assert.False(t, res.Results[0].Passed)
	// raw artifact stays authoritative
	assert.Equal(t, res.RawPath, res.ArtifactPath)
	assert.Equal(t, core.FormatPNG, res.ArtifactFormat)
}

func TestExecutor_Execute_ConversionSuccess(t *testing.T) {
	conv := &fakeConverter{}
	ex, _ := newTestExecutor(&fakeCapturer{frames: []image.Image{gradient(100, 80)}}, conv, &countingActivator{})
	cfg := testConfig("basic")
	cfg.Format = core.FormatJPEG

	res, err := ex.Execute(testTarget(100, 80), cfg, 1, pathsIn(t.TempDir(), 1), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, conv.calls)
	assert.Equal(t, res.ConvertedPath, res.ArtifactPath)
	assert.Equal(t, core.FormatJPEG, res.ArtifactFormat)
}

func TestExecutor_Execute_VerificationDisabled(t *testing.T) {
	ex, _ := newTestExecutor(&fakeCapturer{frames: []image.Image{blank(100, 80)}}, &fakeConverter{}, &countingActivator{})
	cfg := testConfig() // no checks configured

	res, err := ex.Execute(testTarget(100, 80), cfg, 1, pathsIn(t.TempDir(), 1), nil)

	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.True(t, res.Verified, "empty verification set passes vacuously")
}
