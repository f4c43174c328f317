// Package verify runs configurable checks against captured artifacts.
package verify

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/probe"
	"github.com/vericap/vericap/window"
)

// Engine evaluates verification strategies against one artifact. Strategies
// are independent and order-insensitive; a failing collaborator produces a
// failed Result rather than an error escaping the engine.
type Engine struct {
	prober probe.Prober
	ocr    OCR
	frames FrameExtractor
	logger *core.Logger
}

// NewEngine creates a verification engine with the given collaborators
func NewEngine(prober probe.Prober, ocr OCR, frames FrameExtractor, logger *core.Logger) *Engine {
	return &Engine{prober: prober, ocr: ocr, frames: frames, logger: logger}
}

// Verify runs the configured strategy set against the artifact and returns
// one Result per strategy plus the artifact's perceptual hash (images only),
// which the next attempt can pass back as previousHash to detect stale
// retries. An empty strategy set returns no results.
func (e *Engine) Verify(artifact string, format core.Format, target *window.Target, cfg *core.CaptureConfig, previousHash *uint64) ([]Result, *uint64) {
	video := format.Video()
	strategies := ExpandStrategies(cfg, video)
	if len(strategies) == 0 {
		return nil, nil
	}

	var currentHash *uint64
	if !video {
		if img, err := loadImage(artifact); err == nil {
			h := AverageHash(img)
			currentHash = &h
		}
	}

	results := make([]Result, 0, len(strategies))
	for _, s := range strategies {
		r := e.run(s, artifact, video, target, cfg, previousHash, currentHash)
		e.logger.Debug("Verification %s: passed=%v %s", s, r.Passed, r.Message)
		results = append(results, r)
	}
	return results, currentHash
}

// run dispatches one strategy, converting panics into failed results
func (e *Engine) run(s Strategy, artifact string, video bool, target *window.Target, cfg *core.CaptureConfig, previousHash, currentHash *uint64) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failed(s, fmt.Sprintf("check panicked: %v", r), nil)
		}
	}()

	switch s {
	case StrategyBasic:
		return e.checkBasic(artifact, video)
	case StrategyDimension:
		return e.checkDimension(artifact, target, cfg)
	case StrategyDuration:
		return e.checkDuration(artifact, cfg)
	case StrategyFrames:
		return e.checkFrames(artifact, cfg)
	case StrategyContent:
		return e.checkContent(artifact, cfg, previousHash, currentHash)
	case StrategyMotion:
		return e.checkMotion(artifact, cfg)
	case StrategyText:
		return e.checkText(artifact, cfg)
	}
	return failed(s, fmt.Sprintf("unknown strategy %q", s), nil)
}

// checkBasic verifies the artifact exists, is non-empty and parses
func (e *Engine) checkBasic(artifact string, video bool) Result {
	fi, err := os.Stat(artifact)
	if err != nil {
		return failed(StrategyBasic, fmt.Sprintf("artifact missing: %v", err), nil)
	}
	if fi.Size() == 0 {
		return failed(StrategyBasic, "artifact is empty", nil)
	}

	detail := map[string]interface{}{"size_bytes": fi.Size()}
	if video {
		meta, err := e.prober.Probe(artifact)
		if err != nil {
			return failed(StrategyBasic, fmt.Sprintf("metadata probe failed: %v", err), detail)
		}
		detail["duration"] = meta.Duration.String()
		return passed(StrategyBasic, "video artifact readable", detail)
	}

	w, h, err := probe.ImageSize(artifact)
	if err != nil {
		return failed(StrategyBasic, fmt.Sprintf("not a valid image: %v", err), detail)
	}
	detail["width"] = w
	detail["height"] = h
	return passed(StrategyBasic, "image artifact readable", detail)
}

// checkDimension compares image pixel size against expected window bounds,
// trying both 1x and 2x scale to accommodate high-DPI captures. The scale
// with the smaller combined relative error is authoritative; both width and
// height must then fall within the tolerance.
func (e *Engine) checkDimension(artifact string, target *window.Target, cfg *core.CaptureConfig) Result {
	aw, ah, err := probe.ImageSize(artifact)
	if err != nil {
		return failed(StrategyDimension, fmt.Sprintf("failed to read image size: %v", err), nil)
	}
	ew, eh := target.Bounds.Width, target.Bounds.Height
	if ew <= 0 || eh <= 0 {
		return failed(StrategyDimension, "expected bounds unknown", nil)
	}

	bestScale, bestErrW, bestErrH := 0, math.MaxFloat64, math.MaxFloat64
	for _, scale := range []int{1, 2} {
		errW := relError(aw, ew*scale)
		errH := relError(ah, eh*scale)
		if errW+errH < bestErrW+bestErrH {
			bestScale, bestErrW, bestErrH = scale, errW, errH
		}
	}

	detail := map[string]interface{}{
		"actual":   fmt.Sprintf("%dx%d", aw, ah),
		"expected": fmt.Sprintf("%dx%d", ew, eh),
		"scale":    bestScale,
	}
	tol := cfg.DimensionTolerance
	if bestErrW <= tol && bestErrH <= tol {
		return passed(StrategyDimension, fmt.Sprintf("dimensions match at %dx scale", bestScale), detail)
	}
	return failed(StrategyDimension,
		fmt.Sprintf("got %dx%d, want %dx%d within %.0f%% (best scale %dx)", aw, ah, ew, eh, tol*100, bestScale), detail)
}

// checkDuration verifies video duration is within tolerance of the request
func (e *Engine) checkDuration(artifact string, cfg *core.CaptureConfig) Result {
	meta, err := e.prober.Probe(artifact)
	if err != nil {
		return failed(StrategyDuration, fmt.Sprintf("metadata probe failed: %v", err), nil)
	}

	diff := meta.Duration - cfg.Duration
	if diff < 0 {
		diff = -diff
	}
	detail := map[string]interface{}{
		"actual":   meta.Duration.String(),
		"expected": cfg.Duration.String(),
	}
	if diff <= cfg.DurationTolerance {
		return passed(StrategyDuration, "duration within tolerance", detail)
	}
	return failed(StrategyDuration,
		fmt.Sprintf("duration %s differs from requested %s by more than %s", meta.Duration, cfg.Duration, cfg.DurationTolerance), detail)
}

// checkFrames verifies the video holds at least the expected frame count
func (e *Engine) checkFrames(artifact string, cfg *core.CaptureConfig) Result {
	meta, err := e.prober.Probe(artifact)
	if err != nil {
		return failed(StrategyFrames, fmt.Sprintf("metadata probe failed: %v", err), nil)
	}

	floor := cfg.FrameFloor
	if floor <= 0 {
		floor = int(0.8 * cfg.Duration.Seconds() * float64(cfg.FPS))
	}
	detail := map[string]interface{}{"actual": meta.FrameCount, "floor": floor}
	if meta.FrameCount >= floor {
		return passed(StrategyFrames, "frame count sufficient", detail)
	}
	return failed(StrategyFrames, fmt.Sprintf("only %d frames, need at least %d", meta.FrameCount, floor), detail)
}

// checkContent guards against blank captures and stale retry frames
func (e *Engine) checkContent(artifact string, cfg *core.CaptureConfig, previousHash, currentHash *uint64) Result {
	img, err := loadImage(artifact)
	if err != nil {
		return failed(StrategyContent, fmt.Sprintf("failed to decode image: %v", err), nil)
	}

	ratio := DominantColorRatio(img)
	detail := map[string]interface{}{"dominant_ratio": ratio}
	if ratio >= 0.99 {
		return failed(StrategyContent, fmt.Sprintf("image is blank (dominant color ratio %.3f)", ratio), detail)
	}

	if previousHash != nil && currentHash != nil {
		dist := HammingDistance(*previousHash, *currentHash)
		detail["hash_distance"] = dist
		if dist < cfg.HashThreshold {
			return failed(StrategyContent,
				fmt.Sprintf("image identical to previous attempt (hash distance %d < %d)", dist, cfg.HashThreshold), detail)
		}
	}
	return passed(StrategyContent, "image has varied content", detail)
}

// checkMotion verifies the first and near-last video frames differ. Very
// short clips cannot be expected to show motion and pass by definition.
func (e *Engine) checkMotion(artifact string, cfg *core.CaptureConfig) Result {
	meta, err := e.prober.Probe(artifact)
	if err != nil {
		return failed(StrategyMotion, fmt.Sprintf("metadata probe failed: %v", err), nil)
	}
	if meta.Duration < cfg.MinMotionDuration {
		return passed(StrategyMotion,
			fmt.Sprintf("skipped: duration %s below %s", meta.Duration, cfg.MinMotionDuration),
			map[string]interface{}{"skipped": true})
	}

	dir := filepath.Dir(artifact)
	base := filepath.Base(artifact)
	firstPath := filepath.Join(dir, "."+base+".first.png")
	lastPath := filepath.Join(dir, "."+base+".last.png")
	defer os.Remove(firstPath)
	defer os.Remove(lastPath)

	lastOffset := meta.Duration - 250*time.Millisecond
	if lastOffset < 0 {
		lastOffset = 0
	}
	if err := e.frames.ExtractFrame(artifact, 0, firstPath); err != nil {
		return failed(StrategyMotion, fmt.Sprintf("first frame extraction failed: %v", err), nil)
	}
	if err := e.frames.ExtractFrame(artifact, lastOffset, lastPath); err != nil {
		return failed(StrategyMotion, fmt.Sprintf("last frame extraction failed: %v", err), nil)
	}

	first, err := loadImage(firstPath)
	if err != nil {
		return failed(StrategyMotion, fmt.Sprintf("failed to decode first frame: %v", err), nil)
	}
	last, err := loadImage(lastPath)
	if err != nil {
		return failed(StrategyMotion, fmt.Sprintf("failed to decode last frame: %v", err), nil)
	}

	dist := HammingDistance(AverageHash(first), AverageHash(last))
	detail := map[string]interface{}{"hash_distance": dist, "threshold": cfg.HashThreshold}
	if dist >= cfg.HashThreshold {
		return passed(StrategyMotion, "video shows motion", detail)
	}
	return failed(StrategyMotion,
		fmt.Sprintf("first and last frames too similar (hash distance %d < %d)", dist, cfg.HashThreshold), detail)
}

// checkText verifies OCR output contains every expected string
func (e *Engine) checkText(artifact string, cfg *core.CaptureConfig) Result {
	if len(cfg.ExpectedText) == 0 {
		return passed(StrategyText, "no expected text configured", nil)
	}
	if e.ocr == nil {
		return failed(StrategyText, "no OCR backend available", nil)
	}

	text, err := e.ocr.Recognize(artifact)
	if err != nil {
		return failed(StrategyText, fmt.Sprintf("OCR failed: %v", err), nil)
	}

	lower := strings.ToLower(text)
	var missing []string
	for _, want := range cfg.ExpectedText {
		if !strings.Contains(lower, strings.ToLower(want)) {
			missing = append(missing, want)
		}
	}

	excerpt := text
	if len(excerpt) > 120 {
		excerpt = excerpt[:120] + "..."
	}
	detail := map[string]interface{}{"ocr_excerpt": excerpt}
	if len(missing) == 0 {
		return passed(StrategyText, "all expected text found", detail)
	}
	detail["missing"] = missing
	return failed(StrategyText, fmt.Sprintf("expected text not found: %s", strings.Join(missing, ", ")), detail)
}

func relError(actual, expected int) float64 {
	if expected == 0 {
		return math.MaxFloat64
	}
	return math.Abs(float64(actual)-float64(expected)) / float64(expected)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func passed(s Strategy, msg string, detail map[string]interface{}) Result {
	return Result{Strategy: s, Passed: true, Message: msg, Detail: detail}
}

func failed(s Strategy, msg string, detail map[string]interface{}) Result {
	return Result{Strategy: s, Passed: false, Message: msg, Detail: detail}
}
