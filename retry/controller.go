// Package retry decides how long to wait between capture attempts.
package retry

import (
	"time"

	"github.com/vericap/vericap/core"
)

// Delay returns the inter-attempt wait for the given 1-based attempt. The
// executor never applies it before attempt 1. For the reactivate strategy the
// activation settle substitutes for the wait, so Delay is only consulted when
// the executor skipped activation; it then falls back to the base delay.
func Delay(attempt int, cfg *core.CaptureConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch cfg.RetryStrategy {
	case core.RetryExponential:
		return cfg.RetryDelay * (1 << (attempt - 1))
	default:
		return cfg.RetryDelay
	}
}

// Settle returns the post-activation settle delay for the given attempt.
// Later attempts are presumed harder and wait linearly longer.
func Settle(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}
