package database

import (
	"github.com/vericap/vericap/capture"
	"github.com/vericap/vericap/core"
)

// Store adapts the sqlite history to the orchestrator's History interface
type Store struct {
	logger *core.Logger
}

// NewStore creates a history store
func NewStore(logger *core.Logger) *Store {
	return &Store{logger: logger}
}

// Record persists a run summary. Failures are logged and swallowed so
// history bookkeeping can never change a capture outcome.
func (s *Store) Record(rec capture.RunRecord) {
	run := &CaptureRun{
		Predicate:      rec.Predicate,
		Format:         string(rec.Format),
		Status:         rec.Status,
		Attempts:       rec.Attempts,
		WinningAttempt: rec.WinningAttempt,
		FailedChecks:   JoinChecks(rec.FailedChecks),
		OutputPath:     rec.OutputPath,
	}
	if err := SaveRun(run); err != nil {
		s.logger.Warn("Failed to record capture history: %v", err)
	}
}
