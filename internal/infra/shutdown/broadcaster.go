package shutdown

import (
	"context"
	"sync"
	"sync/atomic"
)

// Broadcaster fans a single shutdown notification out to any number of
// receivers. Fire is idempotent and receivers that subscribe after the
// notification observe it immediately.
type Broadcaster struct {
	once        sync.Once
	done        chan struct{}
	fired       atomic.Bool
	subscribers atomic.Int64

	mu     sync.RWMutex
	reason string
}

// NewBroadcaster creates a broadcaster that has not fired.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		done: make(chan struct{}),
	}
}

// Fire delivers the notification to every current and future receiver.
// It returns true only for the call that actually fired; any later or
// concurrent call is a no-op returning false.
func (b *Broadcaster) Fire(reason string) bool {
	fired := false
	b.once.Do(func() {
		b.mu.Lock()
		b.reason = reason
		b.mu.Unlock()

		b.fired.Store(true)
		close(b.done)
		fired = true
	})
	return fired
}

// Fired reports whether Fire has been called.
func (b *Broadcaster) Fired() bool {
	return b.fired.Load()
}

// Reason returns the reason passed to the winning Fire call, or "" before firing.
func (b *Broadcaster) Reason() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reason
}

// Done returns a channel that is closed once the broadcaster fires.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

// Subscribe returns a new receiver. It may be called before or after Fire.
func (b *Broadcaster) Subscribe() Receiver {
	b.subscribers.Add(1)
	return Receiver{b: b}
}

// Subscribers returns how many receivers have been handed out.
func (b *Broadcaster) Subscribers() int64 {
	return b.subscribers.Load()
}

// Receiver observes a Broadcaster. The zero value never fires.
type Receiver struct {
	b *Broadcaster
}

// Done returns a channel that is closed once the broadcaster has fired.
func (r Receiver) Done() <-chan struct{} {
	if r.b == nil {
		return nil
	}
	return r.b.done
}

// Fired reports whether the notification has been delivered.
func (r Receiver) Fired() bool {
	return r.b != nil && r.b.Fired()
}

// Reason returns the reason the broadcaster fired with.
func (r Receiver) Reason() string {
	if r.b == nil {
		return ""
	}
	return r.b.Reason()
}

// Context returns a child of parent that is cancelled when the broadcaster
// fires. The returned cancel func must be called to release the watcher.
func (r Receiver) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if r.b == nil {
		return ctx, cancel
	}

	go func() {
		select {
		case <-r.b.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
