package agentloop

import (
	"encoding/json"

	"github.com/youssefsiam38/agentloop/types"
)

// EventType represents the type of a turn-loop event
type EventType string

const (
	// EventTypeTurnStart indicates a completion call is about to be made
	EventTypeTurnStart EventType = "turn_start"

	// EventTypeText carries the text of an assistant response
	EventTypeText EventType = "text"

	// EventTypeToolStart indicates a tool call is starting
	EventTypeToolStart EventType = "tool_start"

	// EventTypeToolEnd indicates a tool call has finished
	EventTypeToolEnd EventType = "tool_end"

	// EventTypeTurnEnd indicates a turn has completed
	EventTypeTurnEnd EventType = "turn_end"

	// EventTypeContinuation indicates a token-limit continuation was issued
	EventTypeContinuation EventType = "continuation"

	// EventTypeDone indicates the loop has terminated
	EventTypeDone EventType = "done"
)

// Event represents a turn-loop event emitted by the incremental mode
type Event interface {
	Type() EventType
}

// TurnStartEvent is emitted before each completion call
type TurnStartEvent struct {
	Turn int
}

func (e *TurnStartEvent) Type() EventType { return EventTypeTurnStart }

// TextEvent carries the assistant's text for one turn
type TextEvent struct {
	Turn int
	Text string
}

func (e *TextEvent) Type() EventType { return EventTypeText }

// ToolStartEvent is emitted before a tool call executes
type ToolStartEvent struct {
	Turn     int
	CallID   string
	ToolName string
	Input    json.RawMessage
}

func (e *ToolStartEvent) Type() EventType { return EventTypeToolStart }

// ToolEndEvent is emitted after a tool call finishes
type ToolEndEvent struct {
	Turn     int
	CallID   string
	ToolName string
	Output   string
	IsError  bool
	TimedOut bool
}

func (e *ToolEndEvent) Type() EventType { return EventTypeToolEnd }

// TurnEndEvent is emitted when a turn completes
type TurnEndEvent struct {
	Turn   int
	Reason CompletionReason
	Usage  types.Usage
}

func (e *TurnEndEvent) Type() EventType { return EventTypeTurnEnd }

// ContinuationEvent is emitted when the loop continues past a token limit
type ContinuationEvent struct {
	Turn         int
	Continuation int
}

func (e *ContinuationEvent) Type() EventType { return EventTypeContinuation }

// DoneEvent is emitted exactly once, after the loop terminates
type DoneEvent struct {
	Result *TurnLoopResult

	// Err is the fatal completion-provider error that ended the loop,
	// nil on normal termination.
	Err error
}

func (e *DoneEvent) Type() EventType { return EventTypeDone }
