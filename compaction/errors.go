package compaction

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrNoSummarizer indicates the compactor has no summarizer to call.
	ErrNoSummarizer = errors.New("no summarizer configured")

	// ErrEmptySummary indicates the summarizer returned no usable text.
	ErrEmptySummary = errors.New("summarizer returned empty summary")
)

// Error is a structured compaction error with operation context.
type Error struct {
	// Op is the operation that failed, e.g. "summarize", "chunk".
	Op string

	// Stage is the summarization stage index when applicable, -1 otherwise.
	Stage int

	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Stage >= 0 {
		return fmt.Sprintf("compaction: %s (stage %d): %v", e.Op, e.Stage, e.Err)
	}
	return fmt.Sprintf("compaction: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, stage int, err error) *Error {
	return &Error{Op: op, Stage: stage, Err: err}
}
