package agentloop

import (
	"context"

	"github.com/youssefsiam38/agentloop/types"
)

// CompletionReason reports why the model stopped generating.
type CompletionReason string

const (
	// ReasonEndTurn means the model finished its turn normally.
	ReasonEndTurn CompletionReason = "end_turn"

	// ReasonToolUse means the model requested tool calls.
	ReasonToolUse CompletionReason = "tool_use"

	// ReasonTokenLimit means generation hit the output token limit.
	ReasonTokenLimit CompletionReason = "token_limit"

	// ReasonStopSequence means a configured stop sequence matched.
	ReasonStopSequence CompletionReason = "stop_sequence"

	// ReasonRefusal means the model declined to continue.
	ReasonRefusal CompletionReason = "refusal"
)

// Terminal reports whether the reason ends the turn loop. Only tool_use
// and token_limit allow the loop to continue.
func (r CompletionReason) Terminal() bool {
	return r != ReasonToolUse && r != ReasonTokenLimit
}

// Completion is one model response.
type Completion struct {
	// Content is the response's ordered content blocks.
	Content []types.ContentBlock

	// Reason reports why generation stopped.
	Reason CompletionReason

	// Usage is the token usage of this call.
	Usage types.Usage
}

// CompletionFunc sends the conversation history to a completion provider
// and returns its response. Errors are fatal to the current turn loop and
// propagate to the caller unretried.
type CompletionFunc func(ctx context.Context, history []*types.Message) (*Completion, error)

// ToolCalls extracts the tool-call blocks from the completion's content.
func (c *Completion) ToolCalls() []types.ContentBlock {
	var calls []types.ContentBlock
	for _, block := range c.Content {
		if block.Type == types.ContentTypeToolUse {
			calls = append(calls, block)
		}
	}
	return calls
}

// Text concatenates the completion's text blocks.
func (c *Completion) Text() string {
	var out string
	for _, block := range c.Content {
		if block.Type == types.ContentTypeText {
			out += block.Text
		}
	}
	return out
}
