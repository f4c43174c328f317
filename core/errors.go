package core

import (
	"fmt"
	"strings"
)

// ConfigurationError indicates invalid input detected before any OS interaction.
// It is never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigurationError creates a configuration error with a formatted message
func NewConfigurationError(format string, v ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, v...)}
}

// TargetNotFoundError indicates no window matched the configured predicate.
// Retrying without changing the predicate cannot help, so it is terminal.
type TargetNotFoundError struct {
	Predicate string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("no window matches predicate: %s", e.Predicate)
}

// CaptureError indicates the capture primitive itself failed for one attempt.
// It is retried up to the budget and fatal only on the last attempt.
type CaptureError struct {
	Attempt int
	Err     error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// ConversionError indicates the format converter failed. It is recorded as a
// failed verification result so it consumes a retry without aborting the loop.
type ConversionError struct {
	Attempt int
	Err     error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// RetriesExhaustedError is raised once the attempt budget is consumed with no
// passing attempt. FailedChecks lists the verification strategies that failed
// on the final attempt.
type RetriesExhaustedError struct {
	Attempts     int
	FailedChecks []string
	Err          error
}

func (e *RetriesExhaustedError) Error() string {
	msg := fmt.Sprintf("capture not verified after %d attempt(s)", e.Attempts)
	if len(e.FailedChecks) > 0 {
		msg += fmt.Sprintf("; failing checks: %s", strings.Join(e.FailedChecks, ", "))
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}
