package agentloop

import (
	"time"

	"github.com/youssefsiam38/agentloop/hooks"
)

// Option is a functional option for configuring an Engine
type Option func(*Engine) error

// WithMaxTurns caps how many completion calls one turn loop may make
func WithMaxTurns(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return NewEngineError("WithMaxTurns", 0, ErrInvalidConfig).
				WithContext("max_turns", n)
		}
		e.maxTurns = n
		return nil
	}
}

// WithToolTimeout sets the per-tool execution timeout
func WithToolTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d <= 0 {
			return NewEngineError("WithToolTimeout", 0, ErrInvalidConfig).
				WithContext("timeout", d)
		}
		e.executor.SetTimeout(d)
		return nil
	}
}

// WithMaxConcurrentTools caps concurrent tool calls within one batch
func WithMaxConcurrentTools(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return NewEngineError("WithMaxConcurrentTools", 0, ErrInvalidConfig).
				WithContext("max_concurrent", n)
		}
		e.executor.SetMaxConcurrent(n)
		return nil
	}
}

// WithContinueOnTokenLimit enables or disables automatic continuation
// when a completion stops at the output token limit
func WithContinueOnTokenLimit(enabled bool) Option {
	return func(e *Engine) error {
		e.continueOnTokenLimit = enabled
		return nil
	}
}

// WithMaxContinuations caps token-limit continuations per turn loop
func WithMaxContinuations(n int) Option {
	return func(e *Engine) error {
		if n < 0 {
			return NewEngineError("WithMaxContinuations", 0, ErrInvalidConfig).
				WithContext("max_continuations", n)
		}
		e.maxContinuations = n
		return nil
	}
}

// WithLogger sets the engine's logger
func WithLogger(logger Logger) Option {
	return func(e *Engine) error {
		if logger != nil {
			e.logger = logger
		}
		return nil
	}
}

// WithHooks attaches a hook registry to the engine
func WithHooks(registry *hooks.Registry) Option {
	return func(e *Engine) error {
		e.hooks = registry
		return nil
	}
}
