package agentloop

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the engine configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoCompletionFunc is returned when no completion provider is configured
	ErrNoCompletionFunc = errors.New("no completion function configured")

	// ErrMaxTurnsExceeded is returned when the turn loop hits its turn cap
	ErrMaxTurnsExceeded = errors.New("max turns exceeded")

	// ErrEmptyToolUse is returned when the model reports tool_use with no
	// tool-call blocks in the response
	ErrEmptyToolUse = errors.New("tool_use completion carried no tool calls")
)

// EngineError represents an engine error with additional context
type EngineError struct {
	Op      string         // Operation that failed
	Turn    int            // Turn number when the error occurred
	Err     error          // Underlying error
	Context map[string]any // Additional context
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Turn > 0 {
		return fmt.Sprintf("%s (turn=%d): %v", e.Op, e.Turn, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *EngineError) WithContext(key string, value any) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewEngineError creates a new EngineError
func NewEngineError(op string, turn int, err error) *EngineError {
	return &EngineError{
		Op:   op,
		Turn: turn,
		Err:  err,
	}
}
