package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestHooks_ReverseOrder(t *testing.T) {
	var h Hooks

	callOrder := make([]int, 0)
	var mu sync.Mutex

	for i := 1; i <= 3; i++ {
		h.Add(func(ctx context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	if errs := h.Run(context.Background()); len(errs) != 0 {
		t.Fatalf("Run() errors = %v", errs)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 {
		t.Fatalf("expected 3 hooks called, got %d", len(callOrder))
	}
	if callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3, 2, 1]", callOrder)
	}
}

func TestHooks_CollectsErrors(t *testing.T) {
	var h Hooks

	errA := errors.New("hook a")
	errB := errors.New("hook b")
	ran := 0

	h.Add(func(ctx context.Context) error { ran++; return errA })
	h.Add(func(ctx context.Context) error { ran++; return nil })
	h.Add(func(ctx context.Context) error { ran++; return errB })

	errs := h.Run(context.Background())
	if ran != 3 {
		t.Errorf("ran = %d, want 3 (errors must not stop later hooks)", ran)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs[0] != errB || errs[1] != errA {
		t.Errorf("errors = %v, want [%v %v]", errs, errB, errA)
	}
}

func TestHooks_ConcurrentAdd(t *testing.T) {
	var h Hooks

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Add(func(ctx context.Context) error {
				return nil
			})
		}()
	}

	wg.Wait()

	if h.Len() != numGoroutines {
		t.Errorf("expected %d hooks, got %d", numGoroutines, h.Len())
	}
}
