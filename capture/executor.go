package capture

import (
	"fmt"
	"time"

	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/desktop"
	"github.com/vericap/vericap/retry"
	"github.com/vericap/vericap/verify"
	"github.com/vericap/vericap/window"
)

// AttemptPaths are the per-attempt temporary artifact locations. Each attempt
// number gets unique paths so attempts can never clobber each other.
type AttemptPaths struct {
	Raw       string
	Converted string
}

// AttemptResult carries everything one attempt produced
type AttemptResult struct {
	Attempt        int
	RawPath        string
	ConvertedPath  string
	ArtifactPath   string      // authoritative artifact for this attempt
	ArtifactFormat core.Format // format of the authoritative artifact
	Results        []verify.Result
	Verified       bool
	ContentHash    *uint64
}

// Executor performs one full capture attempt: activate or delay, capture,
// convert when the target format differs from the raw format, then verify.
type Executor struct {
	capturer  Capturer
	converter Converter
	engine    *verify.Engine
	activator desktop.Activator
	logger    *core.Logger
	sleep     func(time.Duration)
}

// NewExecutor creates an attempt executor
func NewExecutor(capturer Capturer, converter Converter, engine *verify.Engine, activator desktop.Activator, logger *core.Logger) *Executor {
	return &Executor{
		capturer:  capturer,
		converter: converter,
		engine:    engine,
		activator: activator,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// Execute runs one attempt. A non-nil error means the capture primitive
// itself failed; verification and conversion failures are reported inside
// the AttemptResult instead.
func (ex *Executor) Execute(target *window.Target, cfg *core.CaptureConfig, attempt int, paths AttemptPaths, previousHash *uint64) (*AttemptResult, error) {
	// Exactly one of activation settle or retry delay happens per
	// non-first attempt, never both.
	activate := cfg.ActivateFirst || (attempt > 1 && cfg.RetryStrategy == core.RetryReactivate)
	if activate {
		if err := ex.activator.Activate(target.App); err != nil {
			ex.logger.Warn("Activation of %s failed on attempt %d: %v", target.App, attempt, err)
		}
		ex.sleep(retry.Settle(attempt, cfg.SettleDelay))
	} else if attempt > 1 {
		ex.sleep(retry.Delay(attempt, cfg))
	}

	ex.logger.Debug("Attempt %d: capturing %dx%d at (%d,%d) to %s",
		attempt, target.Bounds.Width, target.Bounds.Height, target.Bounds.X, target.Bounds.Y, paths.Raw)
	if err := ex.capturer.Capture(target.Bounds, cfg, paths.Raw); err != nil {
		return nil, &core.CaptureError{Attempt: attempt, Err: err}
	}

	result := &AttemptResult{
		Attempt:        attempt,
		RawPath:        paths.Raw,
		ArtifactPath:   paths.Raw,
		ArtifactFormat: ex.capturer.NativeFormat(),
	}

	var synthetic []verify.Result
	if cfg.Format != ex.capturer.NativeFormat() {
		if err := ex.converter.Convert(paths.Raw, cfg, paths.Converted); err != nil {
			// Conversion failure consumes a retry like any failed check
			// instead of aborting the attempt.
			convErr := &core.ConversionError{Attempt: attempt, Err: err}
			ex.logger.Warn("%v", convErr)
			synthetic = append(synthetic, verify.Result{
				Strategy: verify.StrategyConversion,
				Passed:   false,
				Message:  fmt.Sprintf("conversion failed: %v", err),
			})
		} else {
			result.ConvertedPath = paths.Converted
			result.ArtifactPath = paths.Converted
			result.ArtifactFormat = cfg.Format
		}
	}

	results, hash := ex.engine.Verify(result.ArtifactPath, result.ArtifactFormat, target, cfg, previousHash)
	result.Results = append(synthetic, results...)
	result.Verified = verify.AllPassed(result.Results)
	result.ContentHash = hash
	return result, nil
}
