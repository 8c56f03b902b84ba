package compaction

import (
	"time"

	"github.com/youssefsiam38/agentloop/types"
)

// Request describes a single compaction run.
type Request struct {
	// Messages is the conversation prefix to compress, oldest first.
	Messages []*types.Message

	// TurnPrefix holds the head of a turn that was split across the
	// compaction boundary. It is disjoint from Messages and only set
	// when SplitTurn is true.
	TurnPrefix []*types.Message

	// SplitTurn indicates the boundary fell inside a turn.
	SplitTurn bool

	// TokensBefore is the total token estimate of the transcript before
	// compaction. It is passed through to the result unmodified.
	TokensBefore int

	// PreviousSummary carries forward the summary produced by an earlier
	// compaction, if any. It seeds the first summarization stage.
	PreviousSummary string

	// ReserveTokens overrides the configured summarizer output budget
	// when positive.
	ReserveTokens int

	// FirstKeptEntryID is an opaque anchor identifying where retained
	// history begins. It is passed through to the result unmodified.
	FirstKeptEntryID string

	// FileOps records files the agent touched during the turns being
	// summarized. They are listed verbatim in the result so path context
	// survives summarization.
	FileOps FileOperations
}

// FileOperations lists files read and modified during a conversation.
type FileOperations struct {
	Read     []string
	Modified []string
}

// Empty reports whether no file operations were recorded.
func (f FileOperations) Empty() bool {
	return len(f.Read) == 0 && len(f.Modified) == 0
}

// Result is the outcome of a compaction run. Compact always returns one.
type Result struct {
	// Summary is the replacement text for the messages that were
	// summarized away.
	Summary string

	// FirstKeptEntryID is copied unchanged from the request.
	FirstKeptEntryID string

	// TokensBefore is copied unchanged from the request.
	TokensBefore int

	// Retained holds the trailing messages preserved verbatim by the
	// recency buffer. They follow the summary in the rebuilt history.
	Retained []*types.Message

	// Fallback is true when summarization failed and Summary was built
	// deterministically from the conversation instead.
	Fallback bool

	// Details carries diagnostics about the run.
	Details Details
}

// Details carries diagnostics about a compaction run.
type Details struct {
	// FilesRead and FilesModified are the sorted, deduplicated path
	// lists from the request's file operations.
	FilesRead     []string
	FilesModified []string

	// MessagesSummarized counts input messages folded into the summary.
	MessagesSummarized int

	// MessagesRetained counts messages kept verbatim.
	MessagesRetained int

	// MessagesDropped counts messages pruned by the budget check before
	// staged summarization.
	MessagesDropped int

	// Chunks counts the summarization stages that ran.
	Chunks int

	// Duration is the wall time of the run.
	Duration time.Duration

	// Err records the summarization failure that forced the fallback,
	// nil otherwise.
	Err error
}
