package shutdown

import (
	"context"
	"sync"
)

// Hooks is an ordered list of cleanup callbacks.
// Callbacks run in reverse order of registration, mirroring startup order.
type Hooks struct {
	mu    sync.Mutex
	hooks []func(context.Context) error
}

// Add registers a cleanup callback.
func (h *Hooks) Add(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Len returns the number of registered callbacks.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks)
}

// Run executes every callback in reverse order and returns the errors in
// execution order. A failing callback does not stop the ones after it.
func (h *Hooks) Run(ctx context.Context) []error {
	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
