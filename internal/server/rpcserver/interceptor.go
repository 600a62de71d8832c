package rpcserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

// LoggingInterceptor logs all RPC requests and responses.
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor.
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

// WrapUnary implements connect.Interceptor.
func (i *LoggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()

		resp, err := next(ctx, req)

		duration := time.Since(start)
		if err != nil {
			i.logger.Warn("rpc error",
				"method", req.Spec().Procedure,
				"peer", req.Peer().Addr,
				"protocol", req.Peer().Protocol,
				"code", connect.CodeOf(err).String(),
				"duration_ms", duration.Milliseconds(),
				"error", err)
		} else {
			i.logger.Debug("rpc completed",
				"method", req.Spec().Procedure,
				"peer", req.Peer().Addr,
				"protocol", req.Peer().Protocol,
				"duration_ms", duration.Milliseconds())
		}

		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *LoggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next // No-op for server-side
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *LoggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()

		err := next(ctx, conn)

		duration := time.Since(start)
		if err != nil {
			i.logger.Warn("rpc stream error",
				"method", conn.Spec().Procedure,
				"peer", conn.Peer().Addr,
				"duration_ms", duration.Milliseconds(),
				"error", err)
		} else {
			i.logger.Debug("rpc stream completed",
				"method", conn.Spec().Procedure,
				"peer", conn.Peer().Addr,
				"duration_ms", duration.Milliseconds())
		}

		return err
	}
}

// RecoveryInterceptor recovers from panics.
type RecoveryInterceptor struct {
	logger *slog.Logger
}

// NewRecoveryInterceptor creates a new recovery interceptor.
func NewRecoveryInterceptor(logger *slog.Logger) *RecoveryInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryInterceptor{logger: logger}
}

// WrapUnary implements connect.Interceptor.
func (i *RecoveryInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
		defer func() {
			if r := recover(); r != nil {
				i.logger.Error("rpc panic recovered",
					"method", req.Spec().Procedure,
					"panic", r)

				err = connect.NewError(connect.CodeInternal,
					fmt.Errorf("internal server error: panic recovered"))
			}
		}()

		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *RecoveryInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next // No-op for server-side
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *RecoveryInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) (err error) {
		defer func() {
			if r := recover(); r != nil {
				i.logger.Error("rpc stream panic recovered",
					"method", conn.Spec().Procedure,
					"panic", r)

				err = connect.NewError(connect.CodeInternal,
					fmt.Errorf("internal server error: panic recovered"))
			}
		}()

		return next(ctx, conn)
	}
}

// MetricsInterceptor records request counts and latency per procedure.
type MetricsInterceptor struct {
	metrics *metric.Registry
}

// NewMetricsInterceptor creates a metrics interceptor. A nil registry uses
// the global one.
func NewMetricsInterceptor(r *metric.Registry) *MetricsInterceptor {
	if r == nil {
		r = metric.Global()
	}
	return &MetricsInterceptor{metrics: r}
}

// WrapUnary implements connect.Interceptor.
func (i *MetricsInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		procedure := req.Spec().Procedure
		i.metrics.RecordRPCRequest(procedure, codeLabel(err))
		i.metrics.ObserveRPCDuration(procedure, time.Since(start).Seconds())

		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *MetricsInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next // No-op for server-side
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *MetricsInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)

		procedure := conn.Spec().Procedure
		i.metrics.RecordRPCRequest(procedure, codeLabel(err))
		i.metrics.ObserveRPCDuration(procedure, time.Since(start).Seconds())

		return err
	}
}

func codeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}

// DefaultInterceptors returns the default set of interceptors for the RPC
// listener. Recovery runs innermost so recovered panics are logged and
// counted as internal errors.
func DefaultInterceptors(logger *slog.Logger, metrics *metric.Registry) []connect.Interceptor {
	return []connect.Interceptor{
		NewMetricsInterceptor(metrics),
		NewLoggingInterceptor(logger),
		NewRecoveryInterceptor(logger),
	}
}
