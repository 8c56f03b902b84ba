// Package storage persists conversation transcripts and compaction
// history in PostgreSQL.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/youssefsiam38/agentloop/types"
)

// Store errors
var (
	// ErrConversationNotFound is returned when a conversation does not exist
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound is returned when a message does not exist
	ErrMessageNotFound = errors.New("message not found")
)

// Store defines the persistence interface for conversation transcripts
type Store interface {
	// Conversation operations
	CreateConversation(ctx context.Context, identifier string, metadata map[string]any) (string, error)
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)

	// Message operations. Messages are returned in seq order.
	AppendMessage(ctx context.Context, conversationID string, msg *types.Message) error
	AppendMessages(ctx context.Context, conversationID string, messages []*types.Message) error
	GetMessages(ctx context.Context, conversationID string) ([]*types.Message, error)

	// TokenCount sums the token estimates of a conversation's messages.
	TokenCount(ctx context.Context, conversationID string) (int, error)

	// SpliceSummary atomically replaces every message before firstKeptID
	// with the summary message. The replaced messages are archived, not
	// destroyed. An empty firstKeptID replaces the whole transcript.
	SpliceSummary(ctx context.Context, conversationID string, summary *types.Message, firstKeptID string) error

	// Compaction history
	SaveCompactionRecord(ctx context.Context, record *CompactionRecord) error
	GetCompactionHistory(ctx context.Context, conversationID string) ([]*CompactionRecord, error)
}

// Conversation represents a stored conversation
type Conversation struct {
	ID              string         `json:"id"`
	Identifier      string         `json:"identifier"`
	Metadata        map[string]any `json:"metadata"`
	CompactionCount int            `json:"compaction_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CompactionRecord records one compaction pass over a conversation
type CompactionRecord struct {
	ID                 string    `json:"id"`
	ConversationID     string    `json:"conversation_id"`
	TokensBefore       int       `json:"tokens_before"`
	SummaryTokens      int       `json:"summary_tokens"`
	MessagesSummarized int       `json:"messages_summarized"`
	MessagesDropped    int       `json:"messages_dropped"`
	Fallback           bool      `json:"fallback"`
	DurationMs         int64     `json:"duration_ms"`
	CreatedAt          time.Time `json:"created_at"`
}
