package agentloop

import (
	"context"
	"errors"

	"github.com/youssefsiam38/agentloop/hooks"
	"github.com/youssefsiam38/agentloop/tool"
	"github.com/youssefsiam38/agentloop/types"
)

const (
	// DefaultMaxTurns caps completion calls per turn loop.
	DefaultMaxTurns = 50

	// DefaultMaxContinuations caps token-limit continuations per turn loop.
	DefaultMaxContinuations = 3

	// continuePrompt is the synthetic user message appended when a
	// completion stops at the output token limit.
	continuePrompt = "Please continue from where you stopped."
)

// Engine drives conversational turns against a completion provider.
// One Engine can serve many conversations; it holds no per-conversation
// state. Concurrent turns against the same history must be serialized by
// the caller.
type Engine struct {
	complete             CompletionFunc
	executor             *tool.Executor
	hooks                *hooks.Registry
	logger               Logger
	maxTurns             int
	continueOnTokenLimit bool
	maxContinuations     int
}

// NewEngine creates an Engine. The completion function and tool executor
// are required; options adjust the loop's limits.
func NewEngine(complete CompletionFunc, executor *tool.Executor, opts ...Option) (*Engine, error) {
	if complete == nil {
		return nil, NewEngineError("NewEngine", 0, ErrNoCompletionFunc)
	}
	if executor == nil {
		return nil, NewEngineError("NewEngine", 0, ErrInvalidConfig).
			WithContext("reason", "tool executor is required")
	}

	e := &Engine{
		complete:             complete,
		executor:             executor,
		logger:               noopLogger{},
		maxTurns:             DefaultMaxTurns,
		continueOnTokenLimit: true,
		maxContinuations:     DefaultMaxContinuations,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// TurnLoopResult is the outcome of a turn loop.
type TurnLoopResult struct {
	// FinalText is the concatenated text of the last assistant message.
	FinalText string

	// Turns is the number of completion calls made.
	Turns int

	// StopReason is the completion reason that ended the loop.
	StopReason CompletionReason

	// Aborted is true when the loop stopped due to cancellation.
	Aborted bool

	// Continuations counts token-limit continuations that were issued.
	Continuations int

	// Usage is the accumulated token usage across all turns.
	Usage types.Usage

	// Messages is the updated history: the input plus every message the
	// loop appended. The input slice is not mutated.
	Messages []*types.Message
}

// RunTurnLoop runs turns until a terminal completion reason, the turn
// cap, or cancellation. Tool calls within a turn execute concurrently.
// Only a completion-provider failure returns an error; tool faults are
// absorbed into error tool-results and cancellation sets Aborted.
func (e *Engine) RunTurnLoop(ctx context.Context, history []*types.Message) (*TurnLoopResult, error) {
	return e.run(ctx, history, nil)
}

// run is the shared loop. A nil emit means batch mode; batch mode runs
// tool calls concurrently, while the event-emitting mode serializes them
// so tool_start/tool_end events arrive in execution order.
func (e *Engine) run(ctx context.Context, history []*types.Message, emit func(Event)) (*TurnLoopResult, error) {
	parallel := emit == nil

	result := &TurnLoopResult{
		Messages: append([]*types.Message{}, history...),
	}

	for result.Turns < e.maxTurns {
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}

		if e.hooks != nil {
			if err := e.hooks.TriggerBeforeTurn(ctx, result.Messages); err != nil {
				return nil, NewEngineError("before_turn_hook", result.Turns+1, err)
			}
		}
		if emit != nil {
			emit(&TurnStartEvent{Turn: result.Turns + 1})
		}

		completion, err := e.complete(ctx, result.Messages)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Aborted = true
				break
			}
			return nil, NewEngineError("completion", result.Turns+1, err)
		}
		result.Turns++
		result.Usage.Add(&completion.Usage)
		result.StopReason = completion.Reason

		assistant := types.NewMessage(types.RoleAssistant, completion.Content)
		result.Messages = append(result.Messages, assistant)

		if emit != nil {
			if text := completion.Text(); text != "" {
				emit(&TextEvent{Turn: result.Turns, Text: text})
			}
			emit(&TurnEndEvent{Turn: result.Turns, Reason: completion.Reason, Usage: completion.Usage})
		}
		if e.hooks != nil {
			if err := e.hooks.TriggerAfterTurn(ctx, assistant, string(completion.Reason)); err != nil {
				return nil, NewEngineError("after_turn_hook", result.Turns, err)
			}
		}

		e.logger.Debug("turn complete",
			"turn", result.Turns,
			"reason", completion.Reason,
			"output_tokens", completion.Usage.OutputTokens)

		switch completion.Reason {
		case ReasonToolUse:
			calls := toolCallsFromBlocks(completion.ToolCalls())
			if len(calls) == 0 {
				e.logger.Warn("tool_use completion carried no tool calls, stopping",
					"turn", result.Turns)
				return result.finish(), nil
			}

			results := e.runToolBatch(ctx, calls, result.Turns, parallel, emit)
			result.Messages = append(result.Messages, toolResultMessage(results))

			if ctx.Err() != nil {
				result.Aborted = true
				return result.finish(), nil
			}

		case ReasonTokenLimit:
			if !e.continueOnTokenLimit || result.Continuations >= e.maxContinuations {
				e.logger.Info("token limit reached, not continuing",
					"turn", result.Turns,
					"continuations", result.Continuations)
				return result.finish(), nil
			}
			result.Continuations++
			result.Messages = append(result.Messages, types.NewUserMessage(continuePrompt))
			if emit != nil {
				emit(&ContinuationEvent{Turn: result.Turns, Continuation: result.Continuations})
			}

		case ReasonEndTurn, ReasonStopSequence, ReasonRefusal:
			return result.finish(), nil

		default:
			e.logger.Warn("unknown completion reason, stopping",
				"turn", result.Turns,
				"reason", completion.Reason)
			return result.finish(), nil
		}
	}

	if result.Turns >= e.maxTurns && !result.Aborted {
		e.logger.Warn("turn cap reached", "max_turns", e.maxTurns)
	}
	return result.finish(), nil
}

// runToolBatch executes one turn's tool calls, concurrently or in order.
// In the sequential mode a cancelled context stops issuing new calls; the
// remaining calls get canceled results so every call id is answered.
func (e *Engine) runToolBatch(ctx context.Context, calls []tool.Call, turn int, parallel bool, emit func(Event)) []*tool.Result {
	var results []*tool.Result

	if parallel {
		results = e.executor.ExecuteParallel(ctx, calls)
	} else {
		results = make([]*tool.Result, len(calls))
		for i, call := range calls {
			if ctx.Err() != nil {
				rest := e.executor.ExecuteSequential(ctx, calls[i:])
				copy(results[i:], rest)
				break
			}
			if emit != nil {
				emit(&ToolStartEvent{Turn: turn, CallID: call.ID, ToolName: call.Name, Input: call.Input})
			}
			results[i] = e.executor.Execute(ctx, call)
			if emit != nil {
				emit(&ToolEndEvent{
					Turn:     turn,
					CallID:   call.ID,
					ToolName: call.Name,
					Output:   results[i].Output,
					IsError:  results[i].Err != nil,
					TimedOut: results[i].TimedOut,
				})
			}
		}
	}

	for _, r := range results {
		if r.Err != nil {
			e.logger.Warn("tool call failed",
				"tool", r.Call.Name,
				"call_id", r.Call.ID,
				"status", r.Status,
				"error", r.Err)
		}
		if e.hooks != nil {
			if err := e.hooks.TriggerToolCall(ctx, r.Call.Name, r.Call.Input, r.Output, r.Err); err != nil {
				e.logger.Warn("tool call hook failed", "tool", r.Call.Name, "error", err)
			}
		}
	}

	return results
}

// finish fills the derived result fields.
func (r *TurnLoopResult) finish() *TurnLoopResult {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == types.RoleAssistant {
			r.FinalText = r.Messages[i].TextContent()
			break
		}
	}
	return r
}

func toolCallsFromBlocks(blocks []types.ContentBlock) []tool.Call {
	calls := make([]tool.Call, 0, len(blocks))
	for _, block := range blocks {
		calls = append(calls, tool.Call{
			ID:    block.ToolUseID,
			Name:  block.ToolName,
			Input: block.ToolInputRaw,
		})
	}
	return calls
}

func toolResultMessage(results []*tool.Result) *types.Message {
	blocks := make([]types.ContentBlock, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, r.Block())
	}
	return types.NewToolResultMessage(blocks)
}
