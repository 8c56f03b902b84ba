package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// SummarizeFunc performs one summarization call. It receives the system
// instructions, the user prompt, and the output token budget, and returns
// the summary text. Implementations must honor ctx cancellation.
type SummarizeFunc func(ctx context.Context, system, user string, maxTokens int) (string, error)

// AnthropicSummarizer returns a SummarizeFunc backed by the Anthropic
// streaming API using the given model.
func AnthropicSummarizer(client *anthropic.Client, model string) SummarizeFunc {
	return func(ctx context.Context, system, user string, maxTokens int) (string, error) {
		stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
		})

		message := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				return "", fmt.Errorf("accumulate stream: %w", err)
			}
		}
		if err := stream.Err(); err != nil {
			return "", err
		}

		var summary strings.Builder
		for _, block := range message.Content {
			if text, ok := block.AsAny().(anthropic.TextBlock); ok {
				summary.WriteString(text.Text)
			}
		}
		if summary.Len() == 0 {
			return "", ErrEmptySummary
		}
		return summary.String(), nil
	}
}
