package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/youssefsiam38/agentloop/compaction"
	"github.com/youssefsiam38/agentloop/types"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
}

func TestOnBeforeTurn(t *testing.T) {
	r := NewRegistry()
	called := false

	r.OnBeforeTurn(func(ctx context.Context, messages []*types.Message) error {
		called = true
		return nil
	})

	err := r.TriggerBeforeTurn(context.Background(), nil)
	if err != nil {
		t.Errorf("TriggerBeforeTurn returned error: %v", err)
	}
	if !called {
		t.Error("hook was not called")
	}
}

func TestOnAfterTurn(t *testing.T) {
	r := NewRegistry()
	var capturedReason string

	r.OnAfterTurn(func(ctx context.Context, message *types.Message, stopReason string) error {
		capturedReason = stopReason
		return nil
	})

	err := r.TriggerAfterTurn(context.Background(), types.NewUserMessage("hi"), "end_turn")
	if err != nil {
		t.Errorf("TriggerAfterTurn returned error: %v", err)
	}
	if capturedReason != "end_turn" {
		t.Errorf("stopReason = %q, want end_turn", capturedReason)
	}
}

func TestOnToolCall(t *testing.T) {
	r := NewRegistry()
	var capturedName string
	var capturedOutput string

	r.OnToolCall(func(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
		capturedName = toolName
		capturedOutput = output
		return nil
	})

	err := r.TriggerToolCall(context.Background(), "calculator", json.RawMessage(`{"x":1}`), "42", nil)
	if err != nil {
		t.Errorf("TriggerToolCall returned error: %v", err)
	}
	if capturedName != "calculator" {
		t.Errorf("toolName = %q, want calculator", capturedName)
	}
	if capturedOutput != "42" {
		t.Errorf("output = %q, want 42", capturedOutput)
	}
}

func TestOnCompactionHooks(t *testing.T) {
	r := NewRegistry()
	beforeCalled := false
	afterCalled := false

	r.OnBeforeCompaction(func(ctx context.Context, req *compaction.Request) error {
		beforeCalled = true
		return nil
	})
	r.OnAfterCompaction(func(ctx context.Context, result *compaction.Result) error {
		afterCalled = true
		return nil
	})

	if err := r.TriggerBeforeCompaction(context.Background(), &compaction.Request{}); err != nil {
		t.Errorf("TriggerBeforeCompaction returned error: %v", err)
	}
	if err := r.TriggerAfterCompaction(context.Background(), &compaction.Result{}); err != nil {
		t.Errorf("TriggerAfterCompaction returned error: %v", err)
	}
	if !beforeCalled || !afterCalled {
		t.Error("compaction hooks were not called")
	}
}

func TestHookErrorStopsChain(t *testing.T) {
	r := NewRegistry()
	wantErr := errors.New("hook failed")
	secondCalled := false

	r.OnBeforeTurn(func(ctx context.Context, messages []*types.Message) error {
		return wantErr
	})
	r.OnBeforeTurn(func(ctx context.Context, messages []*types.Message) error {
		secondCalled = true
		return nil
	})

	err := r.TriggerBeforeTurn(context.Background(), nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if secondCalled {
		t.Error("second hook should not run after the first fails")
	}
}

func TestHooksRunInOrder(t *testing.T) {
	r := NewRegistry()
	var order []int

	for i := 0; i < 3; i++ {
		n := i
		r.OnBeforeTurn(func(ctx context.Context, messages []*types.Message) error {
			order = append(order, n)
			return nil
		})
	}

	if err := r.TriggerBeforeTurn(context.Background(), nil); err != nil {
		t.Fatalf("TriggerBeforeTurn returned error: %v", err)
	}
	for i, n := range order {
		if n != i {
			t.Errorf("hook order = %v, want sequential", order)
			break
		}
	}
}

func TestConcurrentRegistration(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.OnToolCall(func(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
				return nil
			})
		}()
	}
	wg.Wait()

	if err := r.TriggerToolCall(context.Background(), "t", nil, "", nil); err != nil {
		t.Errorf("TriggerToolCall returned error: %v", err)
	}
}
