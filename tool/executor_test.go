package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func sleepTool(name string, d time.Duration, output string) Tool {
	return NewFuncTool(name, "test tool", Schema{Type: "object", Properties: map[string]Property{}},
		func(ctx context.Context, input json.RawMessage) (string, error) {
			select {
			case <-time.After(d):
				return output, nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})
}

func TestExecutor_TimeoutRace(t *testing.T) {
	registry := NewRegistry()

	// A tool that ignores its context entirely and never resolves.
	hang := NewFuncTool("hang", "never resolves", Schema{Type: "object", Properties: map[string]Property{}},
		func(ctx context.Context, input json.RawMessage) (string, error) {
			select {} // block forever
		})
	if err := registry.Register(hang); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(sleepTool("fast", 5*time.Millisecond, "fast result")); err != nil {
		t.Fatal(err)
	}

	executor := NewExecutor(registry)
	executor.SetTimeout(50 * time.Millisecond)

	calls := []Call{
		{ID: "call-1", Name: "hang"},
		{ID: "call-2", Name: "fast"},
	}
	results := executor.ExecuteParallel(context.Background(), calls)

	if results[0].Err == nil {
		t.Fatal("expected error from hanging tool")
	}
	if !strings.Contains(results[0].Err.Error(), "timed out") {
		t.Errorf("expected %q to contain \"timed out\"", results[0].Err.Error())
	}
	if !results[0].TimedOut {
		t.Error("expected TimedOut to be set")
	}
	if results[0].Status != "timed out" {
		t.Errorf("Status = %q, want \"timed out\"", results[0].Status)
	}
	block := results[0].Block()
	if !block.IsError {
		t.Error("expected is_error tool result for timeout")
	}

	// The sibling in the same batch is unaffected.
	if results[1].Err != nil {
		t.Fatalf("sibling tool failed: %v", results[1].Err)
	}
	if results[1].Output != "fast result" {
		t.Errorf("sibling output = %q, want %q", results[1].Output, "fast result")
	}
}

func TestExecutor_PanicBecomesErrorResult(t *testing.T) {
	registry := NewRegistry()
	boom := NewFuncTool("boom", "panics", Schema{Type: "object", Properties: map[string]Property{}},
		func(ctx context.Context, input json.RawMessage) (string, error) {
			panic("kaboom")
		})
	if err := registry.Register(boom); err != nil {
		t.Fatal(err)
	}

	executor := NewExecutor(registry)
	result := executor.Execute(context.Background(), Call{ID: "c1", Name: "boom"})

	if result.Err == nil {
		t.Fatal("expected error from panicking tool")
	}
	if !strings.Contains(result.Err.Error(), "panicked") {
		t.Errorf("unexpected error: %v", result.Err)
	}
}

func TestExecutor_StatusAnnotation(t *testing.T) {
	executor := NewExecutorFunc(func(ctx context.Context, name string, input json.RawMessage, callID string) (string, error) {
		return "", &StatusError{Status: "exit 1", Err: errors.New("command failed")}
	})

	result := executor.Execute(context.Background(), Call{ID: "c1", Name: "sh"})
	if result.Status != "exit 1" {
		t.Errorf("Status = %q, want %q", result.Status, "exit 1")
	}
	if !result.Block().IsError {
		t.Error("expected is_error result")
	}
}

func TestExecutor_ToolNotFound(t *testing.T) {
	executor := NewExecutor(NewRegistry())
	result := executor.Execute(context.Background(), Call{ID: "c1", Name: "missing"})
	if !errors.Is(result.Err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", result.Err)
	}
}

func TestExecutor_ParallelBounded(t *testing.T) {
	var running, peak int32
	var mu sync.Mutex

	executor := NewExecutorFunc(func(ctx context.Context, name string, input json.RawMessage, callID string) (string, error) {
		current := atomic.AddInt32(&running, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return "ok", nil
	})
	executor.SetMaxConcurrent(2)

	calls := make([]Call, 6)
	for i := range calls {
		calls[i] = Call{ID: fmt.Sprintf("c%d", i), Name: "work"}
	}

	results := executor.ExecuteParallel(context.Background(), calls)
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("call %d failed: %v", i, r.Err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestExecutor_SequentialOrderAndCancel(t *testing.T) {
	var order []string
	var mu sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())

	executor := NewExecutorFunc(func(cctx context.Context, name string, input json.RawMessage, callID string) (string, error) {
		mu.Lock()
		order = append(order, callID)
		mu.Unlock()
		if callID == "c2" {
			cancel() // cancel mid-batch; c3 must not start
		}
		return "ok", nil
	})

	calls := []Call{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	results := executor.ExecuteSequential(ctx, calls)

	mu.Lock()
	got := strings.Join(order, ",")
	mu.Unlock()
	if got != "c1,c2" {
		t.Errorf("execution order = %q, want %q", got, "c1,c2")
	}
	if results[2].Err == nil || results[2].Status != "canceled" {
		t.Errorf("expected canceled result for c3, got %+v", results[2])
	}
}

func TestRegistry_RejectsBadSchema(t *testing.T) {
	registry := NewRegistry()
	bad := NewFuncTool("bad", "wrong schema type", Schema{Type: "string"},
		func(ctx context.Context, input json.RawMessage) (string, error) { return "", nil })
	if err := registry.Register(bad); err == nil {
		t.Error("expected schema validation error")
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	a := sleepTool("dup", time.Millisecond, "")
	if err := registry.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(a); err == nil {
		t.Error("expected duplicate registration error")
	}
}
