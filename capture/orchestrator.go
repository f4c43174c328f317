package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/desktop"
	"github.com/vericap/vericap/verify"
	"github.com/vericap/vericap/window"
)

// CaptureResult is the terminal outcome returned to the caller
type CaptureResult struct {
	Path    string
	RawPath string // set only when the raw intermediate was kept
	Attempt int
	Target  *window.Target
	Results []verify.Result
}

// RunRecord summarizes one orchestration for the history store
type RunRecord struct {
	Predicate      string
	Format         core.Format
	Status         string
	Attempts       int
	WinningAttempt int
	FailedChecks   []string
	OutputPath     string
}

// History receives run records. Recording is best-effort and must never
// influence the capture outcome.
type History interface {
	Record(rec RunRecord)
}

// Orchestrator owns the verified-capture attempt loop
type Orchestrator struct {
	enum     window.Enumerator
	sync     *desktop.Synchronizer
	executor *Executor
	history  History
	logger   *core.Logger
}

// NewOrchestrator creates a capture orchestrator
func NewOrchestrator(enum window.Enumerator, sync *desktop.Synchronizer, executor *Executor, logger *core.Logger) *Orchestrator {
	return &Orchestrator{enum: enum, sync: sync, executor: executor, logger: logger}
}

// SetHistory attaches an optional run-history sink
func (o *Orchestrator) SetHistory(h History) {
	o.history = h
}

// Capture resolves the target, synchronizes the desktop, and retries capture
// attempts until one verifies or the budget is exhausted. Any desktop switch
// performed is restored on every exit path.
func (o *Orchestrator) Capture(cfg *core.CaptureConfig) (result *CaptureResult, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	target, err := o.resolve(cfg)
	if err != nil {
		return nil, err
	}

	dctx, snapErr := o.sync.Snapshot()
	if snapErr != nil {
		o.logger.Warn("Desktop snapshot unavailable: %v", snapErr)
	}
	// Restoration runs on every exit path, succeeds or not, and never
	// replaces the loop's own outcome.
	defer o.sync.Restore(dctx)

	if dctx != nil {
		if err := o.sync.SwitchIfNeeded(dctx, target); err != nil {
			o.logger.Warn("Desktop switch failed: %v", err)
		}
		if dctx.Switched {
			// Bounds and desktop index are not stable across a switch
			target, err = o.resolve(cfg)
			if err != nil {
				return nil, err
			}
		}
	}

	finalPath, err := o.outputPath(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	o.logger.Info("Capturing %s (%s) to %s", target.App, target.Title, finalPath)

	var (
		lastResult *AttemptResult
		prevHash   *uint64
	)
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		paths := attemptPaths(finalPath, attempt, o.executor.capturer.NativeFormat())

		res, aerr := o.executor.Execute(target, cfg, attempt, paths, prevHash)
		if aerr != nil {
			o.logger.Warn("Attempt %d failed: %v", attempt, aerr)
			discard(paths)
			if attempt == cfg.MaxRetries {
				exhausted := &core.RetriesExhaustedError{Attempts: attempt, Err: aerr}
				o.record(cfg, "failed", attempt, 0, nil, finalPath)
				return nil, exhausted
			}
			continue
		}

		if res.Verified {
			kept, err := o.finalize(cfg, res, finalPath)
			if err != nil {
				return nil, err
			}
			o.logger.Info("Capture verified on attempt %d", attempt)
			o.record(cfg, "verified", attempt, attempt, nil, finalPath)
			return &CaptureResult{
				Path:    finalPath,
				RawPath: kept,
				Attempt: attempt,
				Target:  target,
				Results: res.Results,
			}, nil
		}

		failing := verify.FailedStrategies(res.Results)
		o.logger.Warn("Attempt %d failed verification: %v", attempt, failing)
		lastResult = res
		prevHash = res.ContentHash
		discard(paths)
	}

	var failing []string
	if lastResult != nil {
		failing = verify.FailedStrategies(lastResult.Results)
	}
	o.record(cfg, "exhausted", cfg.MaxRetries, 0, failing, finalPath)
	return nil, &core.RetriesExhaustedError{Attempts: cfg.MaxRetries, FailedChecks: failing}
}

// resolve finds the target window and applies any window-relative sub-region
func (o *Orchestrator) resolve(cfg *core.CaptureConfig) (*window.Target, error) {
	target, err := window.Find(o.enum, &cfg.Target)
	if err != nil {
		if errors.Is(err, window.ErrNoMatch) {
			return nil, &core.TargetNotFoundError{Predicate: cfg.Target.String()}
		}
		return nil, err
	}

	if r := cfg.Target.Region; r != nil {
		// sub-region offsets are relative to the window origin
		target.Bounds = window.Rect{
			X:      target.Bounds.X + r.X,
			Y:      target.Bounds.Y + r.Y,
			Width:  r.Width,
			Height: r.Height,
		}
	}
	return target, nil
}

// outputPath returns the configured output path or a timestamped default
func (o *Orchestrator) outputPath(cfg *core.CaptureConfig) (string, error) {
	if cfg.OutputPath != "" {
		return cfg.OutputPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	name := fmt.Sprintf("vericap-%s%s", time.Now().Format("20060102-150405"), cfg.Format.Ext())
	return filepath.Join(cwd, name), nil
}

// finalize promotes the winning attempt's artifact to the final path and
// disposes of the raw intermediate according to KeepRaw.
func (o *Orchestrator) finalize(cfg *core.CaptureConfig, res *AttemptResult, finalPath string) (rawKept string, err error) {
	if err := os.Rename(res.ArtifactPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}

	if res.ConvertedPath != "" && res.RawPath != res.ArtifactPath {
		if cfg.KeepRaw {
			rawFinal := finalPath + ".raw" + filepath.Ext(res.RawPath)
			if err := os.Rename(res.RawPath, rawFinal); err != nil {
				o.logger.Warn("Failed to keep raw intermediate: %v", err)
			} else {
				rawKept = rawFinal
			}
		} else {
			os.Remove(res.RawPath)
		}
	}
	return rawKept, nil
}

// record forwards a run summary to the history sink, if any
func (o *Orchestrator) record(cfg *core.CaptureConfig, status string, attempts, winning int, failing []string, outputPath string) {
	if o.history == nil {
		return
	}
	o.history.Record(RunRecord{
		Predicate:      cfg.Target.String(),
		Format:         cfg.Format,
		Status:         status,
		Attempts:       attempts,
		WinningAttempt: winning,
		FailedChecks:   failing,
		OutputPath:     outputPath,
	})
}

// attemptPaths derives deterministic per-attempt temporary paths by suffixing
// the attempt number, so no two attempts ever share a file.
func attemptPaths(finalPath string, attempt int, nativeFormat core.Format) AttemptPaths {
	dir := filepath.Dir(finalPath)
	base := filepath.Base(finalPath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	return AttemptPaths{
		Raw:       filepath.Join(dir, fmt.Sprintf(".%s.attempt-%d.raw%s", stem, attempt, nativeFormat.Ext())),
		Converted: filepath.Join(dir, fmt.Sprintf(".%s.attempt-%d%s", stem, attempt, ext)),
	}
}

// discard removes an attempt's temporary files, ignoring missing ones
func discard(paths AttemptPaths) {
	os.Remove(paths.Raw)
	os.Remove(paths.Converted)
}
