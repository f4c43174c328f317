// vericap captures verified screenshots and screen recordings of a specific
// application window, retrying until the artifact passes its checks.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vericap/vericap/capture"
	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/database"
	"github.com/vericap/vericap/desktop"
	"github.com/vericap/vericap/internal/cliui"
	"github.com/vericap/vericap/probe"
	"github.com/vericap/vericap/verify"
	"github.com/vericap/vericap/window"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Exit statuses, one per error kind
const (
	exitFailure       = 1
	exitConfiguration = 2
	exitNotFound      = 3
	exitExhausted     = 4
)

func main() {
	var (
		mode = flag.String("mode", "capture", "Operation mode: capture, history, or version")

		app         = flag.String("app", "", "Application name substring to match")
		title       = flag.String("title", "", "Window title pattern (regexp)")
		pid         = flag.Int("pid", 0, "Window owner process id")
		exePath     = flag.String("exe", "", "Executable path substring")
		exeExclude  = flag.String("exe-exclude", "", "Executable path exclusion substring")
		cmdline     = flag.String("cmdline", "", "Command line substring")
		output      = flag.String("output", "", "Output file path")
		format      = flag.String("format", "png", "Output format: png, jpeg, gif, webp, mp4")
		duration    = flag.Duration("duration", 5*time.Second, "Recording duration (video formats)")
		maxDuration = flag.Duration("max-duration", 60*time.Second, "Recording duration ceiling")
		fps         = flag.Int("fps", 10, "Recording frame rate")
		quality     = flag.Int("quality", 0, "Encoding quality (format specific)")
		activate    = flag.Bool("activate", false, "Activate the target window before capturing")
		settle      = flag.Duration("settle", 500*time.Millisecond, "Settle delay after activation")
		retries     = flag.Int("retries", 3, "Attempt budget")
		retryDelay  = flag.Duration("retry-delay", time.Second, "Base delay between attempts")
		retryStrat  = flag.String("retry-strategy", "fixed", "Retry strategy: fixed, exponential, reactivate")
		checks      = flag.String("verify", "all", "Comma-separated verification checks, or empty to disable")
		expectText  = flag.String("expect-text", "", "Comma-separated strings the artifact must contain (OCR)")
		keepRaw     = flag.Bool("keep-raw", false, "Keep the raw intermediate next to the final artifact")
		fallbackApp = flag.String("fallback-app", "", "App activated on restore when the original desktop had none")
		profileName = flag.String("profile", "", "Named profile from ~/.vericap/profiles.yaml")
		noHistory   = flag.Bool("no-history", false, "Skip recording the run in the history database")
		limit       = flag.Int("limit", 20, "History entries to show")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version information")
	)

	flag.Parse()

	if *showVersion || *mode == "version" {
		fmt.Printf("vericap v%s\nBuild: %s\nCommit: %s\n", version, buildTime, gitCommit)
		os.Exit(0)
	}

	logger := core.NewLogger(*debug)
	defer logger.Close()

	if *mode == "history" {
		runs, err := database.ListRuns(*limit)
		if err != nil {
			logger.Error("Failed to load history: %v", err)
			os.Exit(exitFailure)
		}
		cliui.PrintHistory(runs)
		return
	}

	cfg, err := buildConfig(*profileName, *app, *title, *pid, *exePath, *exeExclude, *cmdline)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(exitConfiguration)
	}
	// Explicit flags override profile values; unset flags keep them
	if *output != "" {
		cfg.OutputPath = *output
	}
	overrides := map[string]func(){
		"format":         func() { cfg.Format = core.Format(*format) },
		"duration":       func() { cfg.Duration = *duration },
		"max-duration":   func() { cfg.MaxDuration = *maxDuration },
		"fps":            func() { cfg.FPS = *fps },
		"quality":        func() { cfg.Quality = *quality },
		"activate":       func() { cfg.ActivateFirst = *activate },
		"settle":         func() { cfg.SettleDelay = *settle },
		"retries":        func() { cfg.MaxRetries = *retries },
		"retry-delay":    func() { cfg.RetryDelay = *retryDelay },
		"retry-strategy": func() { cfg.RetryStrategy = core.RetryStrategy(*retryStrat) },
		"verify":         func() { cfg.Verify = splitList(*checks) },
		"expect-text":    func() { cfg.ExpectedText = splitList(*expectText) },
		"keep-raw":       func() { cfg.KeepRaw = *keepRaw },
	}
	flag.Visit(func(f *flag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply()
		}
	})

	orch := buildOrchestrator(cfg, *fallbackApp, *noHistory, logger)

	result, err := orch.Capture(cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(exitCode(err))
	}
	cliui.PrintResult(result)
}

// buildConfig starts from defaults or a named profile and applies the
// target-selection flags.
func buildConfig(profileName, app, title string, pid int, exePath, exeExclude, cmdline string) (*core.CaptureConfig, error) {
	cfg := core.DefaultConfig()
	if profileName != "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg, err = core.Profile(filepath.Join(home, ".vericap", "profiles.yaml"), profileName)
		if err != nil {
			return nil, err
		}
	}

	if app != "" {
		cfg.Target.App = app
	}
	if title != "" {
		cfg.Target.TitlePattern = title
	}
	if pid != 0 {
		cfg.Target.PID = pid
	}
	if exePath != "" {
		cfg.Target.ExePath = exePath
	}
	if exeExclude != "" {
		cfg.Target.ExeExclude = exeExclude
	}
	if cmdline != "" {
		cfg.Target.CommandLine = cmdline
	}
	return cfg, nil
}

// buildOrchestrator wires the collaborator layer for the requested format
func buildOrchestrator(cfg *core.CaptureConfig, fallbackApp string, noHistory bool, logger *core.Logger) *capture.Orchestrator {
	enum := window.NewEnumerator()
	activator := desktop.NewActivator()
	sync := desktop.NewSynchronizer(enum, activator, cfg.SettleDelay, fallbackApp, logger)

	engine := verify.NewEngine(probe.NewFFProbe(), verify.NewTesseractOCR(), verify.NewFFmpegExtractor(), logger)
	executor := capture.NewExecutor(capture.SelectCapturer(cfg.Format), capture.NewConverter(), engine, activator, logger)

	orch := capture.NewOrchestrator(enum, sync, executor, logger)
	if !noHistory {
		orch.SetHistory(database.NewStore(logger))
	}
	return orch
}

// exitCode maps each error kind to a distinct non-zero status
func exitCode(err error) int {
	var cfgErr *core.ConfigurationError
	var notFound *core.TargetNotFoundError
	var exhausted *core.RetriesExhaustedError
	switch {
	case errors.As(err, &cfgErr):
		return exitConfiguration
	case errors.As(err, &notFound):
		return exitNotFound
	case errors.As(err, &exhausted):
		return exitExhausted
	}
	return exitFailure
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
