package rpcserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	jobrunnerv1 "github.com/yndnr/jobrunner-go/api/jobrunner/v1"
	"github.com/yndnr/jobrunner-go/internal/storage"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

// Errors returned to clients.
var (
	ErrRateLimited      = errors.New("job submission rate exceeded")
	ErrStoreUnavailable = errors.New("job store unavailable")
)

// JobStore is the subset of storage.JobStore the service needs.
type JobStore interface {
	Put(ctx context.Context, job *storage.Job) error
	Get(ctx context.Context, id string) (*storage.Job, error)
}

// StoreFunc returns the live job store, or nil once it is closed.
type StoreFunc func() JobStore

// JobServiceConfig configures a JobService.
type JobServiceConfig struct {
	// Store resolves the job store per request.
	Store StoreFunc

	// Rate is the sustained submissions per second. Zero or negative
	// disables the limit.
	Rate float64

	// Burst is the maximum burst of submissions.
	Burst int

	Metrics *metric.Registry
	Logger  *slog.Logger
}

// JobService implements jobrunnerv1.JobRunnerServiceHandler.
type JobService struct {
	store   StoreFunc
	limiter *rate.Limiter
	metrics *metric.Registry
	logger  *slog.Logger

	// now is overridable for tests.
	now func() time.Time
}

var _ jobrunnerv1.JobRunnerServiceHandler = (*JobService)(nil)

// NewJobService creates a job service.
func NewJobService(cfg JobServiceConfig) *JobService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.Global()
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &JobService{
		store:   cfg.Store,
		limiter: rate.NewLimiter(limit, burst),
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Submit validates, stores and returns a queued job.
func (s *JobService) Submit(ctx context.Context, req *connect.Request[jobrunnerv1.SubmitRequest]) (*connect.Response[jobrunnerv1.SubmitResponse], error) {
	if req.Msg.Name == "" {
		s.metrics.RecordJobRejected("invalid")
		return nil, connect.NewError(connect.CodeInvalidArgument, storage.ErrJobNameRequired)
	}

	if !s.limiter.Allow() {
		s.metrics.RecordJobRejected("rate_limited")
		return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
	}

	store, err := s.resolveStore()
	if err != nil {
		return nil, err
	}

	job := &storage.Job{
		ID:        ulid.Make().String(),
		Name:      req.Msg.Name,
		Payload:   req.Msg.Payload,
		State:     storage.JobStateQueued,
		CreatedAt: s.now().UTC(),
	}

	if err := store.Put(ctx, job); err != nil {
		return nil, s.storeError("submit", err)
	}

	s.metrics.IncJobsSubmitted()
	s.logger.Info("job submitted",
		"job_id", job.ID,
		"name", job.Name,
		"payload_bytes", len(job.Payload))

	return connect.NewResponse(&jobrunnerv1.SubmitResponse{Job: toWire(job)}), nil
}

// Get returns a stored job.
func (s *JobService) Get(ctx context.Context, req *connect.Request[jobrunnerv1.GetRequest]) (*connect.Response[jobrunnerv1.GetResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, storage.ErrJobIDRequired)
	}
	if _, err := ulid.ParseStrict(req.Msg.ID); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid job id: %w", err))
	}

	store, err := s.resolveStore()
	if err != nil {
		return nil, err
	}

	job, err := store.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, s.storeError("get", err)
	}

	return connect.NewResponse(&jobrunnerv1.GetResponse{Job: toWire(job)}), nil
}

func (s *JobService) resolveStore() (JobStore, error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeUnavailable, ErrStoreUnavailable)
	}
	store := s.store()
	if store == nil {
		return nil, connect.NewError(connect.CodeUnavailable, ErrStoreUnavailable)
	}
	return store, nil
}

// storeError maps storage errors to Connect codes.
func (s *JobService) storeError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrJobNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, ErrStoreUnavailable)
	case errors.Is(err, storage.ErrJobNameTooLong),
		errors.Is(err, storage.ErrPayloadTooLarge),
		errors.Is(err, storage.ErrJobNameRequired):
		s.metrics.RecordJobRejected("invalid")
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		s.logger.Error("job store failure",
			"op", op,
			"error", err)
		return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: store failure", op))
	}
}

func toWire(j *storage.Job) *jobrunnerv1.Job {
	return &jobrunnerv1.Job{
		ID:        j.ID,
		Name:      j.Name,
		Payload:   j.Payload,
		State:     j.State,
		CreatedAt: j.CreatedAt,
	}
}
