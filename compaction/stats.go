package compaction

import "github.com/youssefsiam38/agentloop/types"

// Stats describes a transcript's context usage.
type Stats struct {
	// Messages is the number of messages in the transcript.
	Messages int

	// TotalTokens is the estimated token cost of the transcript.
	TotalTokens int

	// ContextWindow is the configured model context size.
	ContextWindow int

	// Usage is TotalTokens divided by ContextWindow.
	Usage float64
}

// Stats computes context usage for a transcript.
func (c *Compactor) Stats(messages []*types.Message) Stats {
	total := types.SumTokens(messages)
	return Stats{
		Messages:      len(messages),
		TotalTokens:   total,
		ContextWindow: c.config.ContextWindow,
		Usage:         float64(total) / float64(c.config.ContextWindow),
	}
}

// NeedsCompaction reports whether the transcript's estimated usage has
// crossed the configured trigger threshold.
func (c *Compactor) NeedsCompaction(messages []*types.Message) bool {
	return types.SumTokens(messages) >= c.config.TriggerThreshold()
}
