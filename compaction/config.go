package compaction

import "fmt"

// Default configuration values.
const (
	DefaultContextWindow       = 200000 // Claude Sonnet context window
	DefaultMaxHistoryShare     = 0.5    // retained history may fill half the window
	DefaultSafetyMargin        = 0.85   // headroom below the share before pruning kicks in
	DefaultReserveTokens       = 4096   // output budget reserved for each summarization call
	DefaultChunkBaseRatio      = 0.4    // chunk budget share for small messages
	DefaultChunkMinRatio       = 0.1    // chunk budget floor for very large messages
	DefaultTrigger             = 0.85   // context usage that should trigger compaction
	DefaultSummarizerModel     = "claude-3-5-haiku-20241022"
	DefaultRecencyKeepMessages = 8
	DefaultRecencyKeepTokens   = 20000
)

// RecencyPolicy governs which trailing messages are preserved verbatim
// instead of summarized.
type RecencyPolicy struct {
	// Enabled turns the recency buffer on.
	Enabled bool

	// KeepMessages caps how many trailing messages are kept.
	KeepMessages int

	// KeepTokens caps the token estimate of the kept messages. The most
	// recent message is always kept even when it alone exceeds this cap.
	KeepTokens int
}

// Config holds compaction configuration.
type Config struct {
	// ContextWindow is the model's maximum context size in tokens.
	// Default: 200000
	ContextWindow int

	// MaxHistoryShare is the fraction of the context window that retained
	// history may occupy after compaction.
	// Default: 0.5
	MaxHistoryShare float64

	// SafetyMargin shrinks the history budget to leave headroom.
	// Default: 0.85
	SafetyMargin float64

	// ReserveTokens is the output budget reserved for the summarizer's own
	// response on each call. A Request may override it.
	// Default: 4096
	ReserveTokens int

	// ChunkBaseRatio is the share of the context window allotted to one
	// summarization chunk when messages are small.
	// Default: 0.4
	ChunkBaseRatio float64

	// ChunkMinRatio is the floor the chunk share shrinks toward as the
	// mean message size grows.
	// Default: 0.1
	ChunkMinRatio float64

	// Trigger is the context usage fraction (0.0-1.0) at which
	// NeedsCompaction reports true.
	// Default: 0.85
	Trigger float64

	// SummarizerModel is the model used for summarization calls.
	// Default: "claude-3-5-haiku-20241022"
	SummarizerModel string

	// Recency is the recency buffer policy.
	// Default: enabled, 8 messages, 20000 tokens
	Recency RecencyPolicy
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		ContextWindow:   DefaultContextWindow,
		MaxHistoryShare: DefaultMaxHistoryShare,
		SafetyMargin:    DefaultSafetyMargin,
		ReserveTokens:   DefaultReserveTokens,
		ChunkBaseRatio:  DefaultChunkBaseRatio,
		ChunkMinRatio:   DefaultChunkMinRatio,
		Trigger:         DefaultTrigger,
		SummarizerModel: DefaultSummarizerModel,
		Recency: RecencyPolicy{
			Enabled:      true,
			KeepMessages: DefaultRecencyKeepMessages,
			KeepTokens:   DefaultRecencyKeepTokens,
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.ContextWindow == 0 {
		c.ContextWindow = DefaultContextWindow
	}
	if c.MaxHistoryShare == 0 {
		c.MaxHistoryShare = DefaultMaxHistoryShare
	}
	if c.SafetyMargin == 0 {
		c.SafetyMargin = DefaultSafetyMargin
	}
	if c.ReserveTokens == 0 {
		c.ReserveTokens = DefaultReserveTokens
	}
	if c.ChunkBaseRatio == 0 {
		c.ChunkBaseRatio = DefaultChunkBaseRatio
	}
	if c.ChunkMinRatio == 0 {
		c.ChunkMinRatio = DefaultChunkMinRatio
	}
	if c.Trigger == 0 {
		c.Trigger = DefaultTrigger
	}
	if c.SummarizerModel == "" {
		c.SummarizerModel = DefaultSummarizerModel
	}
	if c.Recency.KeepMessages == 0 {
		c.Recency.KeepMessages = DefaultRecencyKeepMessages
	}
	if c.Recency.KeepTokens == 0 {
		c.Recency.KeepTokens = DefaultRecencyKeepTokens
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ContextWindow <= 0 {
		return fmt.Errorf("%w: context_window must be positive, got %d", ErrInvalidConfig, c.ContextWindow)
	}
	if c.MaxHistoryShare <= 0 || c.MaxHistoryShare > 1.0 {
		return fmt.Errorf("%w: max_history_share must be between 0 and 1, got %f", ErrInvalidConfig, c.MaxHistoryShare)
	}
	if c.SafetyMargin <= 0 || c.SafetyMargin > 1.0 {
		return fmt.Errorf("%w: safety_margin must be between 0 and 1, got %f", ErrInvalidConfig, c.SafetyMargin)
	}
	if c.ReserveTokens <= 0 {
		return fmt.Errorf("%w: reserve_tokens must be positive, got %d", ErrInvalidConfig, c.ReserveTokens)
	}
	if c.ChunkMinRatio <= 0 || c.ChunkBaseRatio <= 0 || c.ChunkMinRatio > c.ChunkBaseRatio {
		return fmt.Errorf("%w: chunk ratios must be positive with min <= base, got min=%f base=%f",
			ErrInvalidConfig, c.ChunkMinRatio, c.ChunkBaseRatio)
	}
	if c.ChunkBaseRatio > 1.0 {
		return fmt.Errorf("%w: chunk_base_ratio must be at most 1, got %f", ErrInvalidConfig, c.ChunkBaseRatio)
	}
	if c.Trigger <= 0 || c.Trigger > 1.0 {
		return fmt.Errorf("%w: trigger must be between 0 and 1, got %f", ErrInvalidConfig, c.Trigger)
	}
	if c.Recency.KeepMessages < 0 || c.Recency.KeepTokens < 0 {
		return fmt.Errorf("%w: recency caps must be non-negative", ErrInvalidConfig)
	}
	if c.SummarizerModel == "" {
		return fmt.Errorf("%w: summarizer_model is required", ErrInvalidConfig)
	}
	return nil
}

// HistoryBudget returns the absolute token budget retained history must fit.
func (c *Config) HistoryBudget() int {
	return int(float64(c.ContextWindow) * c.MaxHistoryShare * c.SafetyMargin)
}

// TriggerThreshold returns the absolute token count that should trigger compaction.
func (c *Config) TriggerThreshold() int {
	return int(float64(c.ContextWindow) * c.Trigger)
}
