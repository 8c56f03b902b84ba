package agentloop

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/youssefsiam38/agentloop/tool"
	"github.com/youssefsiam38/agentloop/types"
)

func collectEvents(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestRunTurnStream_EventOrdering(t *testing.T) {
	var completions, execs int32
	complete := scriptedCompletion(&completions,
		toolUseCompletion("call_1", "call_2"),
		textCompletion("all done", ReasonEndTurn),
	)

	engine, err := NewEngine(complete, countingExecutor(&execs))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	events := collectEvents(t, engine.RunTurnStream(context.Background(), nil))
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}

	last := events[len(events)-1]
	done, ok := last.(*DoneEvent)
	if !ok {
		t.Fatalf("last event = %T, want *DoneEvent", last)
	}
	if done.Err != nil {
		t.Fatalf("DoneEvent.Err = %v", done.Err)
	}
	if done.Result.Turns != 2 {
		t.Errorf("Turns = %d, want 2", done.Result.Turns)
	}
	if done.Result.FinalText != "all done" {
		t.Errorf("FinalText = %q, want all done", done.Result.FinalText)
	}

	// Every tool_start is followed by its tool_end before the next
	// tool_start: the sequential mode never interleaves calls.
	var openCall string
	for _, ev := range events {
		switch e := ev.(type) {
		case *ToolStartEvent:
			if openCall != "" {
				t.Errorf("tool %s started while %s still running", e.CallID, openCall)
			}
			openCall = e.CallID
		case *ToolEndEvent:
			if e.CallID != openCall {
				t.Errorf("tool_end for %s, want %s", e.CallID, openCall)
			}
			openCall = ""
		}
	}

	// turn_start arrives before any tool event of that turn, and
	// turn_end after the turn's text.
	var sequence []EventType
	for _, ev := range events {
		sequence = append(sequence, ev.Type())
	}
	want := []EventType{
		EventTypeTurnStart,
		EventTypeText,
		EventTypeTurnEnd,
		EventTypeToolStart,
		EventTypeToolEnd,
		EventTypeToolStart,
		EventTypeToolEnd,
		EventTypeTurnStart,
		EventTypeText,
		EventTypeTurnEnd,
		EventTypeDone,
	}
	if len(sequence) != len(want) {
		t.Fatalf("event sequence = %v, want %v", sequence, want)
	}
	for i := range want {
		if sequence[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, sequence[i], want[i])
		}
	}
}

func TestRunTurnStream_ToolsRunSequentially(t *testing.T) {
	var completions int32
	complete := scriptedCompletion(&completions,
		toolUseCompletion("call_1", "call_2", "call_3"),
		textCompletion("done", ReasonEndTurn),
	)

	var running, peak int32
	executor := tool.NewExecutorFunc(func(ctx context.Context, name string, input json.RawMessage, callID string) (string, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return "ok", nil
	})

	engine, _ := NewEngine(complete, executor)
	events := collectEvents(t, engine.RunTurnStream(context.Background(), nil))

	if atomic.LoadInt32(&peak) != 1 {
		t.Errorf("peak concurrent tools = %d, want 1 in stream mode", peak)
	}

	var toolEnds int
	for _, ev := range events {
		if ev.Type() == EventTypeToolEnd {
			toolEnds++
		}
	}
	if toolEnds != 3 {
		t.Errorf("tool_end events = %d, want 3", toolEnds)
	}
}

func TestRunTurnStream_ContinuationEvent(t *testing.T) {
	var completions, execs int32
	complete := scriptedCompletion(&completions,
		textCompletion("part one", ReasonTokenLimit),
		textCompletion("part two", ReasonEndTurn),
	)

	engine, _ := NewEngine(complete, countingExecutor(&execs))
	events := collectEvents(t, engine.RunTurnStream(context.Background(), nil))

	var continuations int
	for _, ev := range events {
		if ev.Type() == EventTypeContinuation {
			continuations++
		}
	}
	if continuations != 1 {
		t.Errorf("continuation events = %d, want 1", continuations)
	}
}

func TestRunTurnStream_FatalErrorInDone(t *testing.T) {
	complete := func(ctx context.Context, history []*types.Message) (*Completion, error) {
		return nil, context.DeadlineExceeded
	}
	var execs int32
	engine, _ := NewEngine(complete, countingExecutor(&execs))

	// DeadlineExceeded from the provider reads as cancellation.
	events := collectEvents(t, engine.RunTurnStream(context.Background(), nil))
	done := events[len(events)-1].(*DoneEvent)
	if done.Err != nil {
		t.Errorf("DoneEvent.Err = %v, want nil for aborted run", done.Err)
	}
	if !done.Result.Aborted {
		t.Error("Aborted should be true")
	}
}

func TestRunTurnStream_BatchModeRunsToolsConcurrently(t *testing.T) {
	var completions int32
	complete := scriptedCompletion(&completions,
		toolUseCompletion("call_1", "call_2", "call_3"),
		textCompletion("done", ReasonEndTurn),
	)

	var running, peak int32
	executor := tool.NewExecutorFunc(func(ctx context.Context, name string, input json.RawMessage, callID string) (string, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return "ok", nil
	})

	engine, _ := NewEngine(complete, executor)
	if _, err := engine.RunTurnLoop(context.Background(), nil); err != nil {
		t.Fatalf("RunTurnLoop failed: %v", err)
	}

	if atomic.LoadInt32(&peak) < 2 {
		t.Errorf("peak concurrent tools = %d, want >= 2 in batch mode", peak)
	}
}
