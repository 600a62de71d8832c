package rpcserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"

	jobrunnerv1 "github.com/yndnr/jobrunner-go/api/jobrunner/v1"
	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

// Config configures the RPC server.
type Config struct {
	Jobs    *JobService
	Metrics *metric.Registry
	Logger  *slog.Logger

	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// Server hosts the job service and the gRPC health service.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	health     *grpchealth.StaticChecker
	logger     *slog.Logger
}

// New creates an RPC server. Health starts as NOT_SERVING for every
// service until SetServing is called.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}

	health := grpchealth.NewStaticChecker(jobrunnerv1.ServiceName)
	health.SetStatus("", grpchealth.StatusNotServing)
	health.SetStatus(jobrunnerv1.ServiceName, grpchealth.StatusNotServing)

	interceptors := connect.WithInterceptors(DefaultInterceptors(cfg.Logger, cfg.Metrics)...)

	mux := http.NewServeMux()
	if cfg.Jobs != nil {
		mux.Handle(jobrunnerv1.NewJobRunnerServiceHandler(cfg.Jobs, interceptors))
	}
	mux.Handle(grpchealth.NewHandler(health))

	return &Server{
		httpServer: &http.Server{
			Handler:           mux,
			Protocols:         Protocols(),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelWarn),
		},
		handler: mux,
		health:  health,
		logger:  cfg.Logger,
	}
}

// Protocols returns the protocols the RPC listener speaks: HTTP/1.1 and
// prior-knowledge HTTP/2 without TLS, which gRPC clients require.
// Shutdown tracks and drains connections of both.
func Protocols() *http.Protocols {
	var p http.Protocols
	p.SetHTTP1(true)
	p.SetUnencryptedHTTP2(true)
	return &p
}

// Handler returns the HTTP handler, for tests. Serve it with Protocols.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until Shutdown or Close.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown marks every service NOT_SERVING, then gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetServing(false)
	return s.httpServer.Shutdown(ctx)
}

// Close stops the server immediately.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// SetServing flips the health status of the server and the job service.
func (s *Server) SetServing(serving bool) {
	status := grpchealth.StatusNotServing
	if serving {
		status = grpchealth.StatusServing
	}
	s.health.SetStatus("", status)
	s.health.SetStatus(jobrunnerv1.ServiceName, status)
	s.logger.Debug("rpc health status changed", "status", status.String())
}

// HealthObserver returns a coordinator observer that keeps health status in
// step with the named listener.
func (s *Server) HealthObserver(listener string) coordinator.Observer {
	return &healthObserver{server: s, listener: listener}
}

type healthObserver struct {
	coordinator.NopObserver
	server   *Server
	listener string
}

func (o *healthObserver) ServiceServing(name string, serving bool) {
	if name == o.listener {
		o.server.SetServing(serving)
	}
}
