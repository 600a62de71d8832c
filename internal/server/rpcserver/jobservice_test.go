package rpcserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"connectrpc.com/connect"

	jobrunnerv1 "github.com/yndnr/jobrunner-go/api/jobrunner/v1"
	"github.com/yndnr/jobrunner-go/internal/storage"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *storage.JobStore {
	t.Helper()
	s, err := storage.Open(storage.Config{InMemory: true}, testLogger())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

func newTestService(t *testing.T, store JobStore, rate float64, burst int) *JobService {
	t.Helper()
	return NewJobService(JobServiceConfig{
		Store:   func() JobStore { return store },
		Rate:    rate,
		Burst:   burst,
		Metrics: metric.NewRegistry(),
		Logger:  testLogger(),
	})
}

func TestJobService_SubmitAndGet(t *testing.T) {
	svc := newTestService(t, openStore(t), 0, 0)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	resp, err := svc.Submit(ctx, connect.NewRequest(&jobrunnerv1.SubmitRequest{
		Name:    "resize",
		Payload: []byte("img-1"),
	}))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	job := resp.Msg.Job
	if job.ID == "" {
		t.Fatal("Submit() returned empty ID")
	}
	if job.State != storage.JobStateQueued {
		t.Errorf("State = %q, want queued", job.State)
	}
	if !job.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", job.CreatedAt, fixed)
	}

	got, err := svc.Get(ctx, connect.NewRequest(&jobrunnerv1.GetRequest{ID: job.ID}))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Msg.Job.Name != "resize" || string(got.Msg.Job.Payload) != "img-1" {
		t.Errorf("Get() = %+v", got.Msg.Job)
	}
}

func TestJobService_Errors(t *testing.T) {
	svc := newTestService(t, openStore(t), 0, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{"submit without name", func() error {
			_, err := svc.Submit(ctx, connect.NewRequest(&jobrunnerv1.SubmitRequest{}))
			return err
		}, connect.CodeInvalidArgument},
		{"submit oversized payload", func() error {
			_, err := svc.Submit(ctx, connect.NewRequest(&jobrunnerv1.SubmitRequest{
				Name:    "big",
				Payload: make([]byte, storage.MaxJobPayloadLen+1),
			}))
			return err
		}, connect.CodeInvalidArgument},
		{"get without id", func() error {
			_, err := svc.Get(ctx, connect.NewRequest(&jobrunnerv1.GetRequest{}))
			return err
		}, connect.CodeInvalidArgument},
		{"get malformed id", func() error {
			_, err := svc.Get(ctx, connect.NewRequest(&jobrunnerv1.GetRequest{ID: "nope"}))
			return err
		}, connect.CodeInvalidArgument},
		{"get unknown job", func() error {
			_, err := svc.Get(ctx, connect.NewRequest(&jobrunnerv1.GetRequest{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV"}))
			return err
		}, connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if got := connect.CodeOf(err); got != tt.want {
				t.Errorf("code = %v, want %v (err = %v)", got, tt.want, err)
			}
		})
	}
}

func TestJobService_RateLimit(t *testing.T) {
	svc := newTestService(t, openStore(t), 0.001, 2)
	ctx := context.Background()
	req := func() error {
		_, err := svc.Submit(ctx, connect.NewRequest(&jobrunnerv1.SubmitRequest{Name: "x"}))
		return err
	}

	for i := 0; i < 2; i++ {
		if err := req(); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	err := req()
	if connect.CodeOf(err) != connect.CodeResourceExhausted {
		t.Fatalf("code = %v, want resource_exhausted", connect.CodeOf(err))
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestJobService_StoreUnavailable(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		svc := newTestService(t, nil, 0, 0)
		_, err := svc.Submit(context.Background(), connect.NewRequest(&jobrunnerv1.SubmitRequest{Name: "x"}))
		if connect.CodeOf(err) != connect.CodeUnavailable {
			t.Errorf("code = %v, want unavailable", connect.CodeOf(err))
		}
	})

	t.Run("closed store", func(t *testing.T) {
		store := openStore(t)
		_ = store.Close(context.Background())

		svc := newTestService(t, store, 0, 0)
		_, err := svc.Submit(context.Background(), connect.NewRequest(&jobrunnerv1.SubmitRequest{Name: "x"}))
		if connect.CodeOf(err) != connect.CodeUnavailable {
			t.Errorf("code = %v, want unavailable", connect.CodeOf(err))
		}
	})
}

type failingStore struct{}

func (failingStore) Put(context.Context, *storage.Job) error {
	return errors.New("disk on fire")
}

func (failingStore) Get(context.Context, string) (*storage.Job, error) {
	return nil, errors.New("disk on fire")
}

func TestJobService_StoreFailureIsInternal(t *testing.T) {
	svc := newTestService(t, failingStore{}, 0, 0)

	_, err := svc.Submit(context.Background(), connect.NewRequest(&jobrunnerv1.SubmitRequest{Name: "x"}))
	if connect.CodeOf(err) != connect.CodeInternal {
		t.Errorf("code = %v, want internal", connect.CodeOf(err))
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) && connectErr.Message() != "submit: store failure" {
		t.Errorf("message = %q, storage detail leaked", connectErr.Message())
	}
}
