package verify

import (
	"github.com/vericap/vericap/core"
)

// Strategy identifies one independent verification check
type Strategy string

const (
	StrategyBasic     Strategy = "basic"     // artifact exists, non-empty, parseable
	StrategyDimension Strategy = "dimension" // image pixel size vs window bounds
	StrategyDuration  Strategy = "duration"  // video duration vs requested
	StrategyFrames    Strategy = "frames"    // video frame-count floor
	StrategyContent   Strategy = "content"   // image not blank / not stale
	StrategyMotion    Strategy = "motion"    // video first/last frames differ
	StrategyText      Strategy = "text"      // OCR contains expected strings

	// StrategyConversion marks a synthetic result emitted by the attempt
	// executor when format conversion fails.
	StrategyConversion Strategy = "conversion"

	// StrategyAll expands to the full concrete set before iteration
	StrategyAll Strategy = "all"
)

// Result is the immutable outcome of one strategy against one artifact
type Result struct {
	Strategy Strategy
	Passed   bool
	Message  string
	Detail   map[string]interface{}
}

// AllPassed reports the aggregate verdict; an empty set passes vacuously
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// FailedStrategies lists the names of failing checks
func FailedStrategies(results []Result) []string {
	var names []string
	for _, r := range results {
		if !r.Passed {
			names = append(names, string(r.Strategy))
		}
	}
	return names
}

// ExpandStrategies resolves the configured strategy set for the artifact
// format. The "all" marker expands to every applicable concrete strategy;
// an empty configured set disables verification entirely.
func ExpandStrategies(cfg *core.CaptureConfig, video bool) []Strategy {
	if len(cfg.Verify) == 0 {
		return nil
	}

	var out []Strategy
	seen := make(map[Strategy]bool)
	add := func(s Strategy) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, name := range cfg.Verify {
		s := Strategy(name)
		if s != StrategyAll {
			if applicable(s, video) {
				add(s)
			}
			continue
		}
		add(StrategyBasic)
		if video {
			add(StrategyDuration)
			add(StrategyMotion)
		} else {
			add(StrategyDimension)
			add(StrategyContent)
		}
		if len(cfg.ExpectedText) > 0 {
			add(StrategyText)
		}
	}
	return out
}

func applicable(s Strategy, video bool) bool {
	switch s {
	case StrategyDimension, StrategyContent:
		return !video
	case StrategyDuration, StrategyFrames, StrategyMotion:
		return video
	case StrategyBasic, StrategyText:
		return true
	}
	return false
}
