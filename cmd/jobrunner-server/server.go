package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yndnr/jobrunner-go/internal/infra/buildinfo"
	"github.com/yndnr/jobrunner-go/internal/infra/shutdown"
	"github.com/yndnr/jobrunner-go/internal/server/config"
	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
	"github.com/yndnr/jobrunner-go/internal/server/httpserver"
	"github.com/yndnr/jobrunner-go/internal/server/httpserver/handler"
	"github.com/yndnr/jobrunner-go/internal/server/rpcserver"
	"github.com/yndnr/jobrunner-go/internal/storage"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

// Listener and resource names, as they appear in logs and metrics.
const (
	rpcListener  = "rpc"
	httpListener = "http"
	storeName    = "job-store"
)

// server is the assembled process: two listeners and the job store, all
// owned by one coordinator.
type server struct {
	coord *coordinator.Coordinator
	store *shutdown.Guard
	rpc   *rpcserver.Server
	http  *httpserver.Server
}

// newServer wires every component from cfg. Nothing is bound or opened
// until Run.
func newServer(cfg *config.ServerConfig, logger *slog.Logger, metrics *metric.Registry, opts ...coordinator.Option) (*server, error) {
	s := &server{}

	s.store = shutdown.NewGuard(storeName, func(ctx context.Context) (shutdown.Resource, error) {
		js, err := storage.Open(config.ToStorageConfig(cfg), logger)
		if err != nil {
			return nil, err
		}
		return js, nil
	})

	jobs := rpcserver.NewJobService(rpcserver.JobServiceConfig{
		Store: func() rpcserver.JobStore {
			if js := s.jobStore(); js != nil {
				return js
			}
			return nil
		},
		Rate:    cfg.Jobs.Rate,
		Burst:   cfg.Jobs.Burst,
		Metrics: metrics,
		Logger:  logger,
	})

	s.rpc = rpcserver.New(rpcserver.Config{
		Jobs:    jobs,
		Metrics: metrics,
		Logger:  logger,
	})

	coordOpts := append(config.ToCoordinatorOptions(cfg, logger),
		coordinator.WithObserver(metric.NewLifecycleObserver(metrics)),
		coordinator.WithObserver(s.rpc.HealthObserver(rpcListener)),
	)
	s.coord = coordinator.New(append(coordOpts, opts...)...)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.Config{
			Metrics: metrics.Handler(),
			State:   func() string { return s.coord.State().String() },
			Ready:   func() bool { return s.coord.State() == coordinator.StateRunning },
			Jobs: func() (int64, bool) {
				js := s.jobStore()
				if js == nil {
					return 0, false
				}
				return js.Count(), true
			},
			Version: buildinfo.Version,
			Logger:  logger,
		},
		Metrics:         metrics,
		Logger:          logger,
		GlobalRateLimit: cfg.Server.HTTP.Ratelimit,
	})
	s.http = httpserver.New(router, logger)

	collector := metric.NewCollector(s.coord.State, func() (storage.Stats, bool) {
		js := s.jobStore()
		if js == nil {
			return storage.Stats{}, false
		}
		return js.Stats(), true
	})
	if err := metrics.Register(collector); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}

	if err := s.coord.AddResource(s.store); err != nil {
		return nil, err
	}
	if err := s.coord.Register(coordinator.Descriptor{
		Name:  rpcListener,
		Addr:  cfg.Server.RPC.Addr,
		Serve: coordinator.ServeServer(s.rpc),
	}); err != nil {
		return nil, err
	}
	if err := s.coord.Register(coordinator.Descriptor{
		Name:  httpListener,
		Addr:  cfg.Server.HTTP.Addr,
		Serve: coordinator.ServeServer(s.http),
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// jobStore returns the open job store, or nil before connect and after close.
func (s *server) jobStore() *storage.JobStore {
	js, _ := s.store.Resource().(*storage.JobStore)
	return js
}

// Run blocks until both listeners have stopped and the store is closed.
func (s *server) Run(ctx context.Context) *coordinator.RunReport {
	return s.coord.Run(ctx)
}
