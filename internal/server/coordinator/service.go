package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/jobrunner-go/internal/infra/shutdown"
)

// ServeFunc serves on an already bound listener until ctx is cancelled,
// then stops accepting, finishes in-flight work, and returns.
type ServeFunc func(ctx context.Context, ln net.Listener) error

// ListenFunc binds a network address.
type ListenFunc func(network, addr string) (net.Listener, error)

// Descriptor describes one listener. It is immutable once registered.
type Descriptor struct {
	Name  string
	Addr  string
	Serve ServeFunc
}

func (d Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	if d.Addr == "" {
		return fmt.Errorf("%w: %s: address is required", ErrInvalidService, d.Name)
	}
	if d.Serve == nil {
		return fmt.Errorf("%w: %s: serve func is required", ErrInvalidService, d.Name)
	}
	return nil
}

// Outcome is the terminal result of one listener.
type Outcome struct {
	Name    string
	Addr    string
	Err     error
	Started time.Time
	Stopped time.Time
}

// OK reports whether the listener stopped cleanly.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result returns "ok", "bind_error", "timeout" or "error".
func (o Outcome) Result() string {
	switch {
	case o.Err == nil:
		return "ok"
	case IsBindError(o.Err):
		return "bind_error"
	case errors.Is(o.Err, ErrDrainTimeout):
		return "timeout"
	default:
		return "error"
	}
}

// Server is the subset of *http.Server a listener needs.
type Server interface {
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
}

// ServeServer adapts an http.Server style server to a ServeFunc.
//
// When ctx is cancelled the server is shut down gracefully, bounded by the
// drain context the coordinator attaches to ctx. If the drain is cut short
// the server is closed hard (when it implements io.Closer) and the returned
// error wraps ErrDrainTimeout.
func ServeServer(srv Server) ServeFunc {
	return func(ctx context.Context, ln net.Listener) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve(ln)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		if err := srv.Shutdown(DrainContext(ctx)); err != nil {
			if c, ok := srv.(io.Closer); ok {
				_ = c.Close()
			}
			<-errCh
			return fmt.Errorf("%w: %w", ErrDrainTimeout, err)
		}

		return <-errCh
	}
}

type drainKey struct{}

func withDrainContext(ctx, drain context.Context) context.Context {
	return context.WithValue(ctx, drainKey{}, drain)
}

// DrainContext returns the context that bounds a listener's graceful drain.
// It is cancelled when the shutdown deadline passes or shutdown is forced.
// Outside a coordinator it returns context.Background().
func DrainContext(ctx context.Context) context.Context {
	if d, ok := ctx.Value(drainKey{}).(context.Context); ok {
		return d
	}
	return context.Background()
}

// handle runs one descriptor.
type handle struct {
	desc      Descriptor
	listen    ListenFunc
	observers observers
	logger    *slog.Logger

	// bound is called exactly once, with the bind error or nil.
	bound func(err error)
}

// run binds the listener, serves until recv fires, and reports the outcome.
// Bind failures return immediately without waiting for shutdown.
func (h *handle) run(ctx context.Context, recv shutdown.Receiver) (out Outcome) {
	out = Outcome{
		Name:    h.desc.Name,
		Addr:    h.desc.Addr,
		Started: time.Now(),
	}
	defer func() {
		out.Stopped = time.Now()
	}()

	ln, err := h.listen("tcp", h.desc.Addr)
	if err != nil {
		out.Err = &BindError{Service: h.desc.Name, Addr: h.desc.Addr, Err: err}
		h.logger.Error("service failed to bind",
			"service", h.desc.Name,
			"addr", h.desc.Addr,
			"error", err)
		h.bound(out.Err)
		return out
	}
	out.Addr = ln.Addr().String()
	h.bound(nil)

	h.logger.Info("service listening",
		"service", h.desc.Name,
		"addr", out.Addr)

	serveCtx, cancel := recv.Context(ctx)
	defer cancel()

	h.observers.ServiceServing(h.desc.Name, true)
	defer h.observers.ServiceServing(h.desc.Name, false)

	err = h.serve(serveCtx, ln)
	_ = ln.Close()

	if err = normalizeServeErr(err, recv.Fired() || serveCtx.Err() != nil); err != nil {
		out.Err = &RuntimeError{Service: h.desc.Name, Err: err}
	}
	return out
}

// serve invokes the descriptor's ServeFunc, turning a panic into an error.
func (h *handle) serve(ctx context.Context, ln net.Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("service panic recovered",
				"service", h.desc.Name,
				"panic", r)
			err = fmt.Errorf("%w: %v", ErrServicePanic, r)
		}
	}()

	return h.desc.Serve(ctx, ln)
}

// normalizeServeErr maps the errors servers return on a requested stop to
// nil. Before shutdown was requested the same errors mean the listener died.
func normalizeServeErr(err error, stopping bool) error {
	switch {
	case err == nil:
		return nil
	case !stopping:
		return err
	case errors.Is(err, http.ErrServerClosed):
		return nil
	case errors.Is(err, net.ErrClosed):
		return nil
	default:
		return err
	}
}
