// Package types defines the shared message model used by the turn engine
// and the compaction engine.
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role represents the message role
type Role string

const (
	// RoleUser represents a user message
	RoleUser Role = "user"

	// RoleAssistant represents an assistant message
	RoleAssistant Role = "assistant"

	// RoleToolResult represents a message carrying tool results back to the model
	RoleToolResult Role = "tool_result"

	// RoleCustom represents an internal marker message (never sent to the model)
	RoleCustom Role = "custom"
)

// Message represents a conversation message. Messages are immutable once
// appended; history is an append-only ordered sequence owned by the caller.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	Usage     *Usage         `json:"usage,omitempty"`
	Seq       int            `json:"seq"` // creation-order position within the conversation
	CreatedAt time.Time      `json:"created_at"`
}

// TokenCount returns the total token count from usage, falling back to a
// content-based estimate when no usage was recorded.
func (m *Message) TokenCount() int {
	if m.Usage != nil {
		return m.Usage.InputTokens + m.Usage.OutputTokens
	}
	return EstimateMessageTokens(m)
}

// NewMessage creates a message with a fresh ID and the given role and content.
func NewMessage(role Role, content []ContentBlock) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a user message with a single text block.
func NewUserMessage(text string) *Message {
	return NewMessage(RoleUser, []ContentBlock{{Type: ContentTypeText, Text: text}})
}

// NewToolResultMessage creates a tool_result message wrapping the given blocks.
func NewToolResultMessage(blocks []ContentBlock) *Message {
	return NewMessage(RoleToolResult, blocks)
}

// HasToolCalls reports whether the message contains any tool_use blocks.
func (m *Message) HasToolCalls() bool {
	for _, block := range m.Content {
		if block.Type == ContentTypeToolUse {
			return true
		}
	}
	return false
}

// TextContent concatenates all text blocks in the message.
func (m *Message) TextContent() string {
	var result string
	for _, block := range m.Content {
		if block.Type == ContentTypeText {
			result += block.Text
		}
	}
	return result
}

// ContentType represents the type of content block
type ContentType string

const (
	// ContentTypeText represents text content
	ContentTypeText ContentType = "text"

	// ContentTypeToolUse represents a tool call requested by the model
	ContentTypeToolUse ContentType = "tool_use"

	// ContentTypeToolResult represents a tool result block
	ContentTypeToolResult ContentType = "tool_result"

	// ContentTypeImage represents an image block
	ContentTypeImage ContentType = "image"
)

// ContentBlock represents a piece of content in a message
type ContentBlock struct {
	Type ContentType `json:"type"`

	// Text content
	Text string `json:"text,omitempty"`

	// Tool use content
	ToolUseID    string          `json:"id,omitempty"`
	ToolName     string          `json:"name,omitempty"`
	ToolInputRaw json.RawMessage `json:"input,omitempty"`

	// Tool result content
	ToolResultID string `json:"tool_use_id,omitempty"`
	ToolContent  string `json:"content,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
	// ToolStatus carries an optional status or exit-code annotation
	// (e.g. "exit 1", "timed out") recorded alongside the result.
	ToolStatus string `json:"status,omitempty"`

	// Image content
	ImageSource *ImageSource `json:"source,omitempty"`
}

// ImageSource represents an image source
type ImageSource struct {
	Type      string `json:"type"`       // "base64" or "url"
	MediaType string `json:"media_type"` // "image/jpeg", "image/png", etc.
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// Add accumulates counters from another usage record.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}
