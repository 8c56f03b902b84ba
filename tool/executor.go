package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/youssefsiam38/agentloop/types"
)

const (
	// DefaultTimeout is the per-call execution timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxConcurrent caps how many tool calls from one batch run at
	// once. The model decides how many calls to request; this keeps an
	// oversized request from exhausting the host.
	DefaultMaxConcurrent = 8
)

// Call is a single tool invocation requested by the model.
type Call struct {
	ID    string          // call id assigned by the model
	Name  string          // tool name
	Input json.RawMessage // input parameters
}

// Result is the outcome of one tool call. A Result is always produced, even
// for timeouts, panics, and cancellation.
type Result struct {
	Call     Call
	Output   string
	Blocks   []types.ContentBlock // set when the tool returned rich output
	Err      error
	Status   string // short annotation ("timed out", "canceled", exit code)
	TimedOut bool
	Duration time.Duration
}

// Block renders the result as a tool_result content block. Rich block
// output is flattened to text so the result stays anchored to its call id.
func (r *Result) Block() types.ContentBlock {
	block := types.ContentBlock{
		Type:         types.ContentTypeToolResult,
		ToolResultID: r.Call.ID,
		ToolContent:  r.Output,
		ToolStatus:   r.Status,
	}
	if block.ToolContent == "" && len(r.Blocks) > 0 {
		block.ToolContent = flattenBlocks(r.Blocks)
	}
	if r.Err != nil {
		block.IsError = true
		block.ToolContent = r.Err.Error()
	}
	return block
}

func flattenBlocks(blocks []types.ContentBlock) string {
	var out string
	for _, b := range blocks {
		switch b.Type {
		case types.ContentTypeText:
			if out != "" {
				out += "\n"
			}
			out += b.Text
		case types.ContentTypeImage:
			if out != "" {
				out += "\n"
			}
			out += "[image]"
		}
	}
	return out
}

// ExecFunc executes a named tool call and returns its textual output.
// Hosts that do not use the Registry can supply one directly.
type ExecFunc func(ctx context.Context, name string, input json.RawMessage, callID string) (string, error)

// StatusError attaches a short status annotation (e.g. "exit 1") to a tool
// error. The executor surfaces the annotation on the result.
type StatusError struct {
	Status string
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return e.Status
	}
	return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Executor runs tool calls with per-call timeouts and bounded concurrency.
type Executor struct {
	exec          ExecFunc
	registry      *Registry
	timeout       time.Duration
	maxConcurrent int
}

// NewExecutor creates an executor backed by a tool registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry:      registry,
		timeout:       DefaultTimeout,
		maxConcurrent: DefaultMaxConcurrent,
	}
}

// NewExecutorFunc creates an executor backed by a host-supplied function.
func NewExecutorFunc(fn ExecFunc) *Executor {
	return &Executor{
		exec:          fn,
		timeout:       DefaultTimeout,
		maxConcurrent: DefaultMaxConcurrent,
	}
}

// SetTimeout sets the per-call execution timeout.
func (e *Executor) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		e.timeout = timeout
	}
}

// SetMaxConcurrent caps the number of calls from one batch running at once.
func (e *Executor) SetMaxConcurrent(n int) {
	if n > 0 {
		e.maxConcurrent = n
	}
}

// Execute runs a single tool call, racing it against the per-call timeout
// and the caller's context. A tool that never returns still yields a timed
// out result; the abandoned goroutine is left to finish on its own.
func (e *Executor) Execute(ctx context.Context, call Call) *Result {
	start := time.Now()
	result := &Result{Call: call}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		output string
		blocks []types.ContentBlock
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("tool %s panicked: %v", call.Name, rec)}
			}
		}()
		output, blocks, err := e.invoke(execCtx, call)
		done <- outcome{output: output, blocks: blocks, err: err}
	}()

	select {
	case out := <-done:
		result.Output = out.output
		result.Blocks = out.blocks
		result.Err = out.err
	case <-execCtx.Done():
		if ctx.Err() != nil {
			result.Err = fmt.Errorf("tool %s canceled", call.Name)
			result.Status = "canceled"
		} else {
			result.Err = fmt.Errorf("tool %s timed out after %v", call.Name, e.timeout)
			result.Status = "timed out"
			result.TimedOut = true
		}
	}
	result.Duration = time.Since(start)

	var statusErr *StatusError
	if result.Status == "" && errors.As(result.Err, &statusErr) {
		result.Status = statusErr.Status
	}

	return result
}

// invoke dispatches to the exec func or the registry.
func (e *Executor) invoke(ctx context.Context, call Call) (string, []types.ContentBlock, error) {
	if e.exec != nil {
		output, err := e.exec(ctx, call.Name, call.Input, call.ID)
		return output, nil, err
	}

	t, exists := e.registry.Get(call.Name)
	if !exists {
		return "", nil, fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}
	if bt, ok := t.(BlockTool); ok {
		blocks, err := bt.ExecuteBlocks(ctx, call.Input)
		return "", blocks, err
	}
	output, err := t.Execute(ctx, call.Input)
	return output, nil, err
}

// ExecuteSequential runs calls one at a time in order. Used by the
// incremental turn mode, which needs deterministic event ordering.
// A canceled context stops issuing new calls; the remaining calls get
// canceled results.
func (e *Executor) ExecuteSequential(ctx context.Context, calls []Call) []*Result {
	results := make([]*Result, len(calls))
	for i, call := range calls {
		if ctx.Err() != nil {
			results[i] = canceledResult(call)
			continue
		}
		results[i] = e.Execute(ctx, call)
	}
	return results
}

// ExecuteParallel runs all calls concurrently, bounded by the executor's
// concurrency cap. Calls still waiting for a slot when the context is
// canceled are not started and get canceled results; calls already running
// are drained to completion (each still bounded by its own timeout).
func (e *Executor) ExecuteParallel(ctx context.Context, calls []Call) []*Result {
	if len(calls) == 0 {
		return []*Result{}
	}

	results := make([]*Result, len(calls))
	sem := make(chan struct{}, e.maxConcurrent)
	var wg sync.WaitGroup

	wg.Add(len(calls))
	for i, call := range calls {
		go func(idx int, c Call) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = canceledResult(c)
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[idx] = canceledResult(c)
				return
			}
			results[idx] = e.Execute(ctx, c)
		}(i, call)
	}

	wg.Wait()
	return results
}

// ExecuteBatch executes a batch of tool calls with the given strategy.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []Call, parallel bool) []*Result {
	if parallel {
		return e.ExecuteParallel(ctx, calls)
	}
	return e.ExecuteSequential(ctx, calls)
}

func canceledResult(call Call) *Result {
	return &Result{
		Call:   call,
		Err:    fmt.Errorf("tool %s canceled before start", call.Name),
		Status: "canceled",
	}
}
