package compaction

import "github.com/youssefsiam38/agentloop/types"

// chunkRatio computes the share of the context window allotted to one
// summarization chunk. The share shrinks from base toward min as the
// mean message size grows, so oversized messages still leave room for
// the instructions and the carried summary in the same call.
func chunkRatio(messages []*types.Message, cfg *Config) float64 {
	if len(messages) == 0 {
		return cfg.ChunkBaseRatio
	}
	mean := float64(types.SumTokens(messages)) / float64(len(messages))

	// A mean at or above 5% of the window pins the ratio to the floor.
	pivot := float64(cfg.ContextWindow) * 0.05
	if pivot <= 0 {
		return cfg.ChunkMinRatio
	}
	scale := mean / pivot
	if scale >= 1 {
		return cfg.ChunkMinRatio
	}
	return cfg.ChunkBaseRatio - (cfg.ChunkBaseRatio-cfg.ChunkMinRatio)*scale
}

// chunkMessages splits messages into ordered chunks whose token estimates
// stay at or below budget. Messages are never split; a single message
// larger than the budget forms a chunk by itself.
func chunkMessages(messages []*types.Message, budget int) [][]*types.Message {
	if len(messages) == 0 {
		return nil
	}

	var chunks [][]*types.Message
	var current []*types.Message
	tokens := 0

	for _, msg := range messages {
		cost := msg.TokenCount()
		if len(current) > 0 && tokens+cost > budget {
			chunks = append(chunks, current)
			current = nil
			tokens = 0
		}
		current = append(current, msg)
		tokens += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
