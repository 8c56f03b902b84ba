package agentloop

import (
	"context"

	"github.com/youssefsiam38/agentloop/types"
)

// RunTurnStream runs the same state machine as RunTurnLoop but emits
// discrete events as the loop progresses. The channel is closed after a
// final DoneEvent carrying the result (or the fatal completion error).
// Consumers must drain the channel until it closes, including after
// cancelling the context.
//
// Unlike the batch mode, tool calls within a turn execute sequentially so
// tool_start and tool_end events arrive in a deterministic order. This
// asymmetry is intentional; hosts that do not consume events should
// prefer RunTurnLoop for its concurrent tool execution.
func (e *Engine) RunTurnStream(ctx context.Context, history []*types.Message) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		emit := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		result, err := e.run(ctx, history, emit)
		events <- &DoneEvent{Result: result, Err: err}
	}()

	return events
}
