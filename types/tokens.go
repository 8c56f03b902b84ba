package types

// ApproximateTokens provides fast token estimation without an API call.
// Claude tokenizes roughly 3.5 characters per token for English text.
func ApproximateTokens(content string) int {
	return len(content) * 10 / 35
}

// EstimateMessageTokens estimates tokens for a message from its content blocks.
func EstimateMessageTokens(msg *Message) int {
	total := 0
	for _, block := range msg.Content {
		switch block.Type {
		case ContentTypeText:
			total += ApproximateTokens(block.Text)
		case ContentTypeToolUse:
			total += ApproximateTokens(string(block.ToolInputRaw))
			total += 10 // overhead for the tool call structure
		case ContentTypeToolResult:
			total += ApproximateTokens(block.ToolContent)
			total += 10 // overhead for the tool result structure
		case ContentTypeImage:
			total += 1600 // flat estimate for an image block
		}
	}
	return total + 4 // per-message overhead
}

// SumTokens calculates total tokens across messages.
func SumTokens(messages []*Message) int {
	total := 0
	for _, msg := range messages {
		total += msg.TokenCount()
	}
	return total
}
