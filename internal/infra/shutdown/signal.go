package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
)

// ErrSignalInstall is returned when the termination signal handler cannot be installed.
var ErrSignalInstall = errors.New("shutdown: cannot install signal handler")

// Notifier registers channels for OS signal delivery.
// The default implementation delegates to os/signal; tests inject their own.
type Notifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type osNotifier struct{}

func (osNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (osNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// SignalSource waits for the process termination request.
//
// It fires at most once. A second signal received after the first closes
// the Escalated channel so callers can force a hard stop.
type SignalSource struct {
	notifier Notifier
	signals  []os.Signal
	ch       chan os.Signal

	escalated chan struct{}
	stopped   chan struct{}

	received  sync.Once
	stopOnce  sync.Once
	escalOnce sync.Once
}

// SignalOption configures a SignalSource.
type SignalOption func(*SignalSource)

// WithNotifier replaces the os/signal based notifier.
func WithNotifier(n Notifier) SignalOption {
	return func(s *SignalSource) {
		s.notifier = n
	}
}

// WithSignals overrides the default signal set (SIGINT, and SIGTERM on unix).
func WithSignals(sigs ...os.Signal) SignalOption {
	return func(s *SignalSource) {
		s.signals = sigs
	}
}

// NewSignalSource installs the signal handler.
func NewSignalSource(opts ...SignalOption) (*SignalSource, error) {
	s := &SignalSource{
		notifier:  osNotifier{},
		signals:   append([]os.Signal(nil), shutdownSignals...),
		ch:        make(chan os.Signal, 2),
		escalated: make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.notifier == nil {
		return nil, fmt.Errorf("%w: no notifier", ErrSignalInstall)
	}
	if len(s.signals) == 0 {
		return nil, fmt.Errorf("%w: no signals configured", ErrSignalInstall)
	}

	s.notifier.Notify(s.ch, s.signals...)
	return s, nil
}

// Signals returns the signals this source listens for.
func (s *SignalSource) Signals() []os.Signal {
	return append([]os.Signal(nil), s.signals...)
}

// Wait blocks until a termination signal arrives or ctx is done.
// Only one caller should wait on a source.
func (s *SignalSource) Wait(ctx context.Context) (os.Signal, error) {
	select {
	case sig := <-s.ch:
		s.received.Do(func() {
			go s.watchEscalation()
		})
		return sig, nil
	case <-s.stopped:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Escalated returns a channel closed when a second signal arrives after Wait returned.
func (s *SignalSource) Escalated() <-chan struct{} {
	return s.escalated
}

// Stop unregisters the handler. It is safe to call more than once.
func (s *SignalSource) Stop() {
	s.stopOnce.Do(func() {
		s.notifier.Stop(s.ch)
		close(s.stopped)
	})
}

func (s *SignalSource) watchEscalation() {
	select {
	case <-s.ch:
		s.escalOnce.Do(func() {
			close(s.escalated)
		})
	case <-s.stopped:
	}
}
