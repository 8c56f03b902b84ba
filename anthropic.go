package agentloop

import (
	"context"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentloop/internal/anthropic"
	"github.com/youssefsiam38/agentloop/tool"
	"github.com/youssefsiam38/agentloop/types"
)

// DefaultMaxTokens is the output token budget for completion calls.
const DefaultMaxTokens = 8192

// ProviderConfig configures the Anthropic completion provider.
type ProviderConfig struct {
	// Model is the model ID to use (required)
	Model string

	// SystemPrompt is sent as the system block when non-empty
	SystemPrompt string

	// MaxTokens is the output token budget per call.
	// Default: 8192
	MaxTokens int64

	// Registry declares the tools offered to the model. Optional; a nil
	// registry offers no tools.
	Registry *tool.Registry

	// StopSequences are custom stop sequences. Optional.
	StopSequences []string
}

// NewAnthropicCompletion returns a CompletionFunc backed by the Anthropic
// Messages API. API errors propagate to the turn loop as fatal.
func NewAnthropicCompletion(client *anthropicsdk.Client, cfg ProviderConfig) CompletionFunc {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var tools []anthropicsdk.ToolUnionParam
	if cfg.Registry != nil {
		tools = cfg.Registry.ToAnthropicToolUnions()
	}

	return func(ctx context.Context, history []*types.Message) (*Completion, error) {
		params := anthropicsdk.MessageNewParams{
			Model:     anthropicsdk.Model(cfg.Model),
			MaxTokens: maxTokens,
			Messages:  anthropic.ConvertToAnthropicMessages(history),
		}
		if cfg.SystemPrompt != "" {
			params.System = []anthropicsdk.TextBlockParam{
				{Text: cfg.SystemPrompt},
			}
		}
		if len(tools) > 0 {
			params.Tools = tools
		}
		if len(cfg.StopSequences) > 0 {
			params.StopSequences = cfg.StopSequences
		}

		message, err := client.Messages.New(ctx, params)
		if err != nil {
			return nil, err
		}

		reason := anthropic.ConvertStopReason(message.StopReason)
		if reason == "" {
			reason = string(message.StopReason)
		}

		return &Completion{
			Content: anthropic.ConvertResponseContent(message),
			Reason:  CompletionReason(reason),
			Usage:   anthropic.ConvertUsage(message.Usage),
		}, nil
	}
}
