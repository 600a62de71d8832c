package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Guard errors.
var (
	ErrResourceConnect = errors.New("shutdown: resource connect failed")
	ErrGuardClosed     = errors.New("shutdown: guard already closed")
)

// Resource is an external dependency with a non-trivial teardown.
type Resource interface {
	Close(ctx context.Context) error
}

// CloseFunc adapts a function to the Resource interface.
type CloseFunc func(ctx context.Context) error

// Close implements Resource.
func (f CloseFunc) Close(ctx context.Context) error {
	return f(ctx)
}

// Connector establishes a Resource.
type Connector func(ctx context.Context) (Resource, error)

// Guard owns a Resource and guarantees its Close runs at most once,
// no matter how many shutdown paths call it.
type Guard struct {
	name    string
	connect Connector

	mu  sync.Mutex
	res Resource

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// NewGuard creates a guard for the resource produced by connect.
// A nil connect yields a guard with nothing to close.
func NewGuard(name string, connect Connector) *Guard {
	return &Guard{
		name:    name,
		connect: connect,
	}
}

// Name returns the resource name.
func (g *Guard) Name() string {
	return g.name
}

// Connect establishes the resource. Calling it again after success is a no-op.
func (g *Guard) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed.Load() {
		return ErrGuardClosed
	}
	if g.res != nil || g.connect == nil {
		return nil
	}

	res, err := g.connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrResourceConnect, g.name, err)
	}
	if res == nil {
		return fmt.Errorf("%w: %s: connector returned no resource", ErrResourceConnect, g.name)
	}

	g.res = res
	return nil
}

// Resource returns the connected resource, or nil if it is not connected
// or already closed.
func (g *Guard) Resource() Resource {
	if g.closed.Load() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.res
}

// Connected reports whether the resource was established.
func (g *Guard) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.res != nil
}

// Closed reports whether Close has been called.
func (g *Guard) Closed() bool {
	return g.closed.Load()
}

// Close releases the resource. The underlying Close runs at most once;
// every call returns the result of that first invocation. Closing a guard
// that never connected is a no-op.
func (g *Guard) Close(ctx context.Context) error {
	g.closeOnce.Do(func() {
		g.closed.Store(true)

		g.mu.Lock()
		res := g.res
		g.mu.Unlock()

		if res == nil {
			return
		}
		if err := res.Close(ctx); err != nil {
			g.closeErr = fmt.Errorf("close %s: %w", g.name, err)
		}
	})
	return g.closeErr
}
