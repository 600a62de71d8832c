package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/jobrunner-go/internal/infra/shutdown"
)

// Default timings.
const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultForceGrace      = time.Second
)

// Coordinator starts every registered listener concurrently and shuts them
// down together.
type Coordinator struct {
	logger      *slog.Logger
	timeout     time.Duration
	forceGrace  time.Duration
	policy      BindPolicy
	cascade     bool
	escalate    bool
	listen      ListenFunc
	signalOpts  []shutdown.SignalOption
	trigger     <-chan struct{}
	observers   observers
	broadcaster *shutdown.Broadcaster

	mu        sync.Mutex
	services  []Descriptor
	names     map[string]struct{}
	resources []*shutdown.Guard
	hardStop  context.CancelFunc
	draining  bool
	deadline  *time.Timer
	drainAt   time.Time

	state     atomic.Int32
	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithShutdownTimeout bounds the graceful drain. Zero or negative disables the bound.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// WithForceGrace sets how long listeners get to return after the drain
// deadline before they are reported as timed out.
func WithForceGrace(d time.Duration) Option {
	return func(c *Coordinator) {
		c.forceGrace = d
	}
}

// WithBindPolicy sets what a bind failure does to sibling listeners.
func WithBindPolicy(p BindPolicy) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithCascade makes a runtime failure in one listener shut down the others.
func WithCascade(enabled bool) Option {
	return func(c *Coordinator) {
		c.cascade = enabled
	}
}

// WithEscalation makes a second termination signal during drain force an
// immediate stop.
func WithEscalation(enabled bool) Option {
	return func(c *Coordinator) {
		c.escalate = enabled
	}
}

// WithSignalOptions configures the signal source created by Run.
func WithSignalOptions(opts ...shutdown.SignalOption) Option {
	return func(c *Coordinator) {
		c.signalOpts = append(c.signalOpts, opts...)
	}
}

// WithTrigger adds a channel whose close requests shutdown, in addition to
// OS signals.
func WithTrigger(ch <-chan struct{}) Option {
	return func(c *Coordinator) {
		c.trigger = ch
	}
}

// WithListenFunc replaces net.Listen.
func WithListenFunc(fn ListenFunc) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.listen = fn
		}
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// New creates an idle coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:      slog.Default(),
		timeout:     DefaultShutdownTimeout,
		forceGrace:  DefaultForceGrace,
		policy:      BestEffort,
		listen:      net.Listen,
		broadcaster: shutdown.NewBroadcaster(),
		names:       make(map[string]struct{}),
		ready:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Register adds a listener. It fails once Run has started.
func (c *Coordinator) Register(desc Descriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateIdle {
		return ErrNotIdle
	}
	if _, ok := c.names[desc.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateService, desc.Name)
	}

	c.names[desc.Name] = struct{}{}
	c.services = append(c.services, desc)
	return nil
}

// AddResource registers a guarded resource. Resources are connected in
// registration order during Starting and closed in reverse order after
// every listener has returned.
func (c *Coordinator) AddResource(g *shutdown.Guard) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateIdle {
		return ErrNotIdle
	}
	c.resources = append(c.resources, g)
	return nil
}

// State returns the current lifecycle phase.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Ready returns a channel closed once every listener has either bound its
// address or failed to. It is also closed when Run ends before Running.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// Shutdown requests a graceful shutdown, as if a signal had arrived.
// It returns false if shutdown was already requested.
func (c *Coordinator) Shutdown(reason string) bool {
	return c.beginDrain(reason)
}

// Run drives the full lifecycle and blocks until Closed.
func (c *Coordinator) Run(ctx context.Context) *RunReport {
	report := &RunReport{}

	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		report.InitErr = ErrNotIdle
		return report
	}
	c.observers.StateChanged(StateStarting)
	c.logger.Info("coordinator starting")

	defer c.markReady()

	c.mu.Lock()
	services := append([]Descriptor(nil), c.services...)
	c.mu.Unlock()

	if len(services) == 0 {
		report.InitErr = ErrNoServices
		c.finish(report)
		return report
	}

	signals, err := shutdown.NewSignalSource(c.signalOpts...)
	if err != nil {
		report.InitErr = err
		c.finish(report)
		return report
	}
	defer signals.Stop()

	if err := c.connectResources(ctx); err != nil {
		report.InitErr = err
		report.CloseErrs = c.closeResources(context.WithoutCancel(ctx))
		c.finish(report)
		return report
	}

	// hardCtx bounds every listener's drain. It is cancelled by the
	// shutdown deadline or by signal escalation.
	hardCtx, hardStop := context.WithCancel(context.WithoutCancel(ctx))
	defer hardStop()

	c.setState(StateRunning)

	c.mu.Lock()
	c.hardStop = hardStop
	c.mu.Unlock()

	// Shutdown may have been requested before Running.
	if c.broadcaster.Fired() {
		c.enterDraining()
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	c.watch(ctx, watchCtx, signals, hardStop)

	outcomes := c.dispatch(withDrainContext(context.WithoutCancel(ctx), hardCtx), services)
	report.Outcomes = c.collect(outcomes, services, hardCtx)

	// Every listener has returned; make sure the state machine went
	// through Draining even if nobody asked for shutdown.
	c.beginDrain("all services stopped")
	report.Reason = c.broadcaster.Reason()

	c.mu.Lock()
	if c.deadline != nil {
		c.deadline.Stop()
	}
	drainAt := c.drainAt
	c.mu.Unlock()

	closeCtx, cancelClose := c.closeContext(ctx, hardCtx)
	report.CloseErrs = c.closeResources(closeCtx)
	cancelClose()
	report.Duration = time.Since(drainAt)
	c.observers.ShutdownCompleted(report.Duration)

	c.finish(report)
	return report
}

// watch turns signals, context cancellation and the external trigger into
// a broadcaster fire.
func (c *Coordinator) watch(ctx, watchCtx context.Context, signals *shutdown.SignalSource, hardStop context.CancelFunc) {
	go func() {
		sig, err := signals.Wait(watchCtx)
		if err != nil {
			return
		}
		c.logger.Info("termination signal received", "signal", sig.String())
		c.beginDrain("signal " + sig.String())

		if !c.escalate {
			return
		}
		select {
		case <-signals.Escalated():
			c.logger.Warn("second termination signal received, forcing shutdown")
			hardStop()
		case <-watchCtx.Done():
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			c.beginDrain("context canceled")
		case <-c.trigger:
			c.beginDrain("shutdown requested")
		case <-watchCtx.Done():
		}
	}()
}

// dispatch launches every listener at once. None waits on another.
func (c *Coordinator) dispatch(ctx context.Context, services []Descriptor) <-chan Outcome {
	outcomes := make(chan Outcome, len(services))

	var boundWG sync.WaitGroup
	boundWG.Add(len(services))

	var g errgroup.Group
	for _, desc := range services {
		h := &handle{
			desc:      desc,
			listen:    c.listen,
			observers: c.observers,
			logger:    c.logger,
		}

		var once sync.Once
		h.bound = func(err error) {
			once.Do(boundWG.Done)
			if err != nil && c.policy == FailFast {
				c.beginDrain("bind failure: " + desc.Name)
			}
		}

		recv := c.broadcaster.Subscribe()
		g.Go(func() error {
			out := h.run(ctx, recv)
			outcomes <- out
			return out.Err
		})
	}

	go func() {
		boundWG.Wait()
		c.markReady()
	}()

	// Every outcome carries its own error; Wait only reports the first one
	// once the last handle has returned.
	go func() {
		if err := g.Wait(); err != nil {
			c.logger.Debug("all services returned", "first_error", err)
		}
		close(outcomes)
	}()

	return outcomes
}

// collect gathers one outcome per service. After the drain deadline,
// listeners get forceGrace to return before being reported as timed out.
func (c *Coordinator) collect(outcomes <-chan Outcome, services []Descriptor, hardCtx context.Context) []Outcome {
	results := make([]Outcome, 0, len(services))
	seen := make(map[string]bool, len(services))

	hardDone := hardCtx.Done()
	var forced <-chan time.Time

loop:
	for {
		select {
		case out, ok := <-outcomes:
			if !ok {
				break loop
			}
			seen[out.Name] = true
			results = append(results, out)
			c.logOutcome(out)
			c.observers.ServiceStopped(out)

			if c.cascade && !out.OK() && !IsBindError(out.Err) {
				c.beginDrain("service failed: " + out.Name)
			}
		case <-hardDone:
			hardDone = nil
			timer := time.NewTimer(c.forceGrace)
			defer timer.Stop()
			forced = timer.C
		case <-forced:
			break loop
		}
	}

	for _, desc := range services {
		if seen[desc.Name] {
			continue
		}
		out := Outcome{
			Name:    desc.Name,
			Addr:    desc.Addr,
			Err:     &RuntimeError{Service: desc.Name, Err: ErrDrainTimeout},
			Stopped: time.Now(),
		}
		results = append(results, out)
		c.logOutcome(out)
		c.observers.ServiceStopped(out)
	}

	return results
}

// beginDrain fires the broadcaster. Only the first caller wins.
func (c *Coordinator) beginDrain(reason string) bool {
	if !c.broadcaster.Fire(reason) {
		return false
	}
	c.logger.Info("shutdown requested", "reason", reason)
	c.enterDraining()
	return true
}

// enterDraining moves a running coordinator to Draining and arms the
// shutdown deadline. It does nothing before Running or when already draining.
func (c *Coordinator) enterDraining() {
	c.mu.Lock()
	if c.hardStop == nil || c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.drainAt = time.Now()
	if c.timeout > 0 {
		hardStop := c.hardStop
		c.deadline = time.AfterFunc(c.timeout, func() {
			c.logger.Warn("shutdown deadline exceeded, forcing stop",
				"timeout", c.timeout)
			hardStop()
		})
	}
	services := append([]Descriptor(nil), c.services...)
	c.mu.Unlock()

	c.logger.Info("draining services", "reason", c.broadcaster.Reason())
	c.setState(StateDraining)

	for _, desc := range services {
		c.observers.ServiceServing(desc.Name, false)
	}
}

func (c *Coordinator) connectResources(ctx context.Context) error {
	c.mu.Lock()
	resources := append([]*shutdown.Guard(nil), c.resources...)
	c.mu.Unlock()

	for _, g := range resources {
		if err := g.Connect(ctx); err != nil {
			c.logger.Error("resource connect failed",
				"resource", g.Name(),
				"error", err)
			return err
		}
		c.logger.Info("resource connected", "resource", g.Name())
	}
	return nil
}

// closeContext bounds resource close. A drain that ended gracefully keeps
// hardCtx; once hardCtx is cancelled resources get forceGrace of their own.
func (c *Coordinator) closeContext(ctx, hardCtx context.Context) (context.Context, context.CancelFunc) {
	if hardCtx.Err() == nil {
		return hardCtx, func() {}
	}
	grace := c.forceGrace
	if grace <= 0 {
		grace = DefaultForceGrace
	}
	return context.WithTimeout(context.WithoutCancel(ctx), grace)
}

// closeResources closes every guard in reverse registration order.
func (c *Coordinator) closeResources(ctx context.Context) []error {
	c.mu.Lock()
	resources := append([]*shutdown.Guard(nil), c.resources...)
	c.mu.Unlock()

	var hooks shutdown.Hooks
	for _, g := range resources {
		hooks.Add(func(ctx context.Context) error {
			if !g.Connected() {
				return nil
			}
			if err := g.Close(ctx); err != nil {
				c.logger.Warn("resource close failed",
					"resource", g.Name(),
					"error", err)
				return &ResourceCloseError{Resource: g.Name(), Err: err}
			}
			c.logger.Info("resource closed", "resource", g.Name())
			return nil
		})
	}

	return hooks.Run(ctx)
}

func (c *Coordinator) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev == s {
		return
	}
	c.logger.Debug("coordinator state changed",
		"from", prev.String(),
		"to", s.String())
	c.observers.StateChanged(s)
}

func (c *Coordinator) markReady() {
	c.readyOnce.Do(func() {
		close(c.ready)
	})
}

func (c *Coordinator) finish(report *RunReport) {
	c.setState(StateClosed)
	c.logSummary(report)
}

func (c *Coordinator) logOutcome(out Outcome) {
	if out.OK() {
		c.logger.Info("service stopped",
			"service", out.Name,
			"addr", out.Addr)
		return
	}
	c.logger.Error("service failed",
		"service", out.Name,
		"addr", out.Addr,
		"result", out.Result(),
		"error", out.Err)
}

func (c *Coordinator) logSummary(report *RunReport) {
	if report.InitErr != nil {
		c.logger.Error("coordinator failed to start", "error", report.InitErr)
	}
	for _, err := range report.CloseErrs {
		c.logger.Warn("resource did not close cleanly", "error", err)
	}
	c.logger.Info("coordinator closed",
		"services", len(report.Outcomes),
		"failed", len(report.Failed()),
		"reason", report.Reason,
		"exit_code", report.ExitCode())
}
