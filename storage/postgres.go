package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/youssefsiam38/agentloop/types"
)

// PostgresStore implements Store using PostgreSQL with pgx
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the store's table schema. Apply it once before use.
const Schema = `
CREATE TABLE IF NOT EXISTS agentloop_conversations (
	id UUID PRIMARY KEY,
	identifier TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}',
	compaction_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS agentloop_messages (
	id UUID PRIMARY KEY,
	conversation_id UUID NOT NULL REFERENCES agentloop_conversations(id) ON DELETE CASCADE,
	seq BIGINT NOT NULL,
	role TEXT NOT NULL,
	content JSONB NOT NULL,
	usage JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (conversation_id, seq)
);

CREATE TABLE IF NOT EXISTS agentloop_message_archive (
	id UUID PRIMARY KEY,
	conversation_id UUID NOT NULL,
	seq BIGINT NOT NULL,
	role TEXT NOT NULL,
	content JSONB NOT NULL,
	usage JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS agentloop_compaction_events (
	id UUID PRIMARY KEY,
	conversation_id UUID NOT NULL REFERENCES agentloop_conversations(id) ON DELETE CASCADE,
	tokens_before INT NOT NULL,
	summary_tokens INT NOT NULL,
	messages_summarized INT NOT NULL,
	messages_dropped INT NOT NULL,
	fallback BOOLEAN NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_agentloop_messages_conversation
	ON agentloop_messages (conversation_id, seq);
`

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateConversation creates a new conversation
func (s *PostgresStore) CreateConversation(ctx context.Context, identifier string, metadata map[string]any) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("identifier is required")
	}

	conversationID := uuid.New().String()
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if metadata == nil {
		metadataJSON = []byte("{}")
	}

	query := `
		INSERT INTO agentloop_conversations (id, identifier, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	if _, err := s.pool.Exec(ctx, query, conversationID, identifier, metadataJSON); err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversationID, nil
}

// GetConversation retrieves a conversation by ID
func (s *PostgresStore) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	query := `
		SELECT id, identifier, metadata, compaction_count, created_at, updated_at
		FROM agentloop_conversations
		WHERE id = $1
	`

	var conv Conversation
	var metadataJSON []byte
	err := s.pool.QueryRow(ctx, query, conversationID).Scan(
		&conv.ID,
		&conv.Identifier,
		&metadataJSON,
		&conv.CompactionCount,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if err := json.Unmarshal(metadataJSON, &conv.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &conv, nil
}

// AppendMessage appends one message to a conversation's transcript
func (s *PostgresStore) AppendMessage(ctx context.Context, conversationID string, msg *types.Message) error {
	return s.AppendMessages(ctx, conversationID, []*types.Message{msg})
}

// AppendMessages appends messages in order within a single transaction
func (s *PostgresStore) AppendMessages(ctx context.Context, conversationID string, messages []*types.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var next int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM agentloop_messages WHERE conversation_id = $1`,
		conversationID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to allocate seq: %w", err)
	}

	for i, msg := range messages {
		if err := insertMessage(ctx, tx, conversationID, msg, next+int64(i)); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE agentloop_conversations SET updated_at = NOW() WHERE id = $1`,
		conversationID,
	); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return tx.Commit(ctx)
}

func insertMessage(ctx context.Context, tx pgx.Tx, conversationID string, msg *types.Message, seq int64) error {
	contentJSON, err := json.Marshal(msg.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	var usageJSON []byte
	if msg.Usage != nil {
		if usageJSON, err = json.Marshal(msg.Usage); err != nil {
			return fmt.Errorf("failed to marshal usage: %w", err)
		}
	}

	id := msg.ID
	if id == "" {
		id = uuid.New().String()
	}
	var createdAt any
	if !msg.CreatedAt.IsZero() {
		createdAt = msg.CreatedAt
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO agentloop_messages (id, conversation_id, seq, role, content, usage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::timestamptz, NOW()))
	`, id, conversationID, seq, string(msg.Role), contentJSON, usageJSON, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessages returns a conversation's transcript in seq order
func (s *PostgresStore) GetMessages(ctx context.Context, conversationID string) ([]*types.Message, error) {
	query := `
		SELECT id, seq, role, content, usage, created_at
		FROM agentloop_messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*types.Message
	for rows.Next() {
		var msg types.Message
		var seq int64
		var contentJSON, usageJSON []byte
		if err := rows.Scan(&msg.ID, &seq, &msg.Role, &contentJSON, &usageJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Seq = int(seq)
		if err := json.Unmarshal(contentJSON, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content: %w", err)
		}
		if len(usageJSON) > 0 {
			msg.Usage = &types.Usage{}
			if err := json.Unmarshal(usageJSON, msg.Usage); err != nil {
				return nil, fmt.Errorf("failed to unmarshal usage: %w", err)
			}
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// TokenCount sums the token estimates of a conversation's messages
func (s *PostgresStore) TokenCount(ctx context.Context, conversationID string) (int, error) {
	messages, err := s.GetMessages(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	return types.SumTokens(messages), nil
}

// SpliceSummary atomically replaces every message before firstKeptID with
// the summary message. An empty firstKeptID replaces the whole transcript.
func (s *PostgresStore) SpliceSummary(ctx context.Context, conversationID string, summary *types.Message, firstKeptID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var keptSeq int64
	if firstKeptID == "" {
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM agentloop_messages WHERE conversation_id = $1`,
			conversationID,
		).Scan(&keptSeq)
		if err != nil {
			return fmt.Errorf("failed to resolve splice point: %w", err)
		}
	} else {
		err = tx.QueryRow(ctx,
			`SELECT seq FROM agentloop_messages WHERE conversation_id = $1 AND id = $2`,
			conversationID, firstKeptID,
		).Scan(&keptSeq)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrMessageNotFound, firstKeptID)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve splice point: %w", err)
		}
	}

	var spliceSeq int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MIN(seq), $2) FROM agentloop_messages WHERE conversation_id = $1 AND seq < $2`,
		conversationID, keptSeq,
	).Scan(&spliceSeq)
	if err != nil {
		return fmt.Errorf("failed to resolve splice seq: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO agentloop_message_archive (id, conversation_id, seq, role, content, usage, created_at)
		SELECT id, conversation_id, seq, role, content, usage, created_at
		FROM agentloop_messages
		WHERE conversation_id = $1 AND seq < $2
	`, conversationID, keptSeq); err != nil {
		return fmt.Errorf("failed to archive messages: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM agentloop_messages WHERE conversation_id = $1 AND seq < $2`,
		conversationID, keptSeq,
	); err != nil {
		return fmt.Errorf("failed to delete summarized messages: %w", err)
	}

	if err := insertMessage(ctx, tx, conversationID, summary, spliceSeq); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE agentloop_conversations
		SET compaction_count = compaction_count + 1, updated_at = NOW()
		WHERE id = $1
	`, conversationID); err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}

	return tx.Commit(ctx)
}

// SaveCompactionRecord records a compaction pass
func (s *PostgresStore) SaveCompactionRecord(ctx context.Context, record *CompactionRecord) error {
	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agentloop_compaction_events
			(id, conversation_id, tokens_before, summary_tokens, messages_summarized,
			 messages_dropped, fallback, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, id, record.ConversationID, record.TokensBefore, record.SummaryTokens,
		record.MessagesSummarized, record.MessagesDropped, record.Fallback, record.DurationMs)
	if err != nil {
		return fmt.Errorf("failed to save compaction record: %w", err)
	}
	return nil
}

// GetCompactionHistory returns a conversation's compaction records, newest first
func (s *PostgresStore) GetCompactionHistory(ctx context.Context, conversationID string) ([]*CompactionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, tokens_before, summary_tokens, messages_summarized,
		       messages_dropped, fallback, duration_ms, created_at
		FROM agentloop_compaction_events
		WHERE conversation_id = $1
		ORDER BY created_at DESC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query compaction history: %w", err)
	}
	defer rows.Close()

	var records []*CompactionRecord
	for rows.Next() {
		var r CompactionRecord
		if err := rows.Scan(&r.ID, &r.ConversationID, &r.TokensBefore, &r.SummaryTokens,
			&r.MessagesSummarized, &r.MessagesDropped, &r.Fallback, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan compaction record: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
