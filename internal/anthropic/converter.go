// Package anthropic converts between the engine's message model and the
// Anthropic SDK's wire types.
package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentloop/types"
)

// ConvertToAnthropicMessages converts engine messages to Anthropic
// message parameters. Tool-result and custom messages are sent with the
// user role, which is how the API expects them.
func ConvertToAnthropicMessages(messages []*types.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		contentBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			contentBlocks = append(contentBlocks, convertContentBlock(block))
		}

		params = append(params, anthropic.MessageParam{
			Role:    convertRole(msg.Role),
			Content: contentBlocks,
		})
	}

	return params
}

func convertRole(role types.Role) anthropic.MessageParamRole {
	if role == types.RoleAssistant {
		return anthropic.MessageParamRoleAssistant
	}
	return anthropic.MessageParamRoleUser
}

// convertContentBlock converts a single content block
func convertContentBlock(block types.ContentBlock) anthropic.ContentBlockParamUnion {
	switch block.Type {
	case types.ContentTypeText:
		return anthropic.NewTextBlock(block.Text)

	case types.ContentTypeToolUse:
		var input any
		if len(block.ToolInputRaw) > 0 {
			_ = json.Unmarshal(block.ToolInputRaw, &input)
		}
		// The API requires a dictionary, not null
		if input == nil {
			input = map[string]any{}
		}
		return anthropic.NewToolUseBlock(block.ToolUseID, input, block.ToolName)

	case types.ContentTypeToolResult:
		return anthropic.NewToolResultBlock(block.ToolResultID, block.ToolContent, block.IsError)

	case types.ContentTypeImage:
		if block.ImageSource != nil {
			if block.ImageSource.Type == "base64" {
				return anthropic.NewImageBlockBase64(
					block.ImageSource.MediaType,
					block.ImageSource.Data,
				)
			} else if block.ImageSource.Type == "url" {
				return anthropic.NewImageBlock(anthropic.URLImageSourceParam{
					URL: block.ImageSource.URL,
				})
			}
		}
	}

	// Fallback to empty text block
	return anthropic.NewTextBlock("")
}

// ConvertResponseContent converts an Anthropic response's content blocks
// to engine content blocks.
func ConvertResponseContent(message *anthropic.Message) []types.ContentBlock {
	blocks := make([]types.ContentBlock, 0, len(message.Content))
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, types.ContentBlock{
				Type: types.ContentTypeText,
				Text: b.Text,
			})
		case anthropic.ToolUseBlock:
			cb := types.ContentBlock{
				Type:      types.ContentTypeToolUse,
				ToolUseID: b.ID,
				ToolName:  b.Name,
			}
			if inputBytes, err := json.Marshal(b.Input); err == nil {
				cb.ToolInputRaw = inputBytes
			}
			blocks = append(blocks, cb)
		}
	}
	return blocks
}

// ConvertUsage converts Anthropic usage counters to engine usage.
func ConvertUsage(usage anthropic.Usage) types.Usage {
	return types.Usage{
		InputTokens:         int(usage.InputTokens),
		OutputTokens:        int(usage.OutputTokens),
		CacheCreationTokens: int(usage.CacheCreationInputTokens),
		CacheReadTokens:     int(usage.CacheReadInputTokens),
	}
}

// ConvertStopReason maps the API's stop reason onto the engine's
// completion reasons. Unknown values map to the empty string.
func ConvertStopReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonEndTurn:
		return "end_turn"
	case anthropic.StopReasonToolUse:
		return "tool_use"
	case anthropic.StopReasonMaxTokens:
		return "token_limit"
	case anthropic.StopReasonStopSequence:
		return "stop_sequence"
	case anthropic.StopReasonRefusal:
		return "refusal"
	}
	return ""
}
