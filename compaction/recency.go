package compaction

import "github.com/youssefsiam38/agentloop/types"

// splitRecency divides messages into a summarization input and a trailing
// recency buffer per the policy. It walks from the end, admitting messages
// while both caps hold. The most recent message is always admitted even
// when it alone exceeds the token cap, so the buffer is never empty when
// any messages exist.
func splitRecency(messages []*types.Message, policy RecencyPolicy) (older, recent []*types.Message) {
	if !policy.Enabled || len(messages) == 0 {
		return messages, nil
	}

	split := len(messages)
	tokens := 0
	for i := len(messages) - 1; i >= 0; i-- {
		kept := len(messages) - split
		if kept >= policy.KeepMessages {
			break
		}
		cost := messages[i].TokenCount()
		if kept > 0 && tokens+cost > policy.KeepTokens {
			break
		}
		tokens += cost
		split = i
	}

	return messages[:split], messages[split:]
}
