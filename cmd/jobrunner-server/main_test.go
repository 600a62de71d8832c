package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	jobrunnerv1 "github.com/yndnr/jobrunner-go/api/jobrunner/v1"
	"github.com/yndnr/jobrunner-go/internal/infra/confloader"
	"github.com/yndnr/jobrunner-go/internal/server/config"
	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

// addrRecorder binds port 0 and remembers the actual address per requested one.
type addrRecorder struct {
	mu    sync.Mutex
	addrs map[string]string
}

func (r *addrRecorder) listen(network, addr string) (net.Listener, error) {
	ln, err := net.Listen(network, "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.addrs[addr] = ln.Addr().String()
	r.mu.Unlock()
	return ln, nil
}

func (r *addrRecorder) get(addr string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addrs[addr]
}

func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Server.RPC.Addr = "127.0.0.1:50051"
	cfg.Server.HTTP.Addr = "127.0.0.1:8080"
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.Gcinterval = 0
	cfg.Shutdown.Timeout = 5 * time.Second
	if err := config.Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	return cfg
}

func TestServer_StartServeStop(t *testing.T) {
	cfg := testConfig(t)
	rec := &addrRecorder{addrs: make(map[string]string)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := newServer(cfg, logger, metric.NewRegistry(), coordinator.WithListenFunc(rec.listen))
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}

	done := make(chan *coordinator.RunReport, 1)
	go func() { done <- srv.Run(context.Background()) }()

	select {
	case <-srv.coord.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server not ready")
	}

	httpBase := "http://" + rec.get(cfg.Server.HTTP.Addr)
	rpcBase := "http://" + rec.get(cfg.Server.RPC.Addr)

	resp, err := http.Get(httpBase + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "Hello, World!" {
		t.Errorf("GET / = %q", body)
	}

	resp, err = http.Get(httpBase + "/ready")
	if err != nil {
		t.Fatalf("GET /ready error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready = %d, want 200", resp.StatusCode)
	}

	client := jobrunnerv1.NewJobRunnerServiceClient(http.DefaultClient, rpcBase)
	submitted, err := client.Submit(context.Background(), connect.NewRequest(&jobrunnerv1.SubmitRequest{
		Name:    "resize",
		Payload: []byte(`{"w":640}`),
	}))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	got, err := client.Get(context.Background(), connect.NewRequest(&jobrunnerv1.GetRequest{ID: submitted.Msg.Job.ID}))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Msg.Job.Name != "resize" {
		t.Errorf("Get().Name = %q", got.Msg.Job.Name)
	}

	resp, err = http.Get(httpBase + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{
		`jobrunner_coordinator_state{state="running"} 1`,
		"jobrunner_store_jobs 1",
		`jobrunner_service_serving{service="rpc"} 1`,
		"jobrunner_jobs_submitted_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	if !srv.coord.Shutdown("test") {
		t.Fatal("Shutdown() = false")
	}

	var report *coordinator.RunReport
	select {
	case report = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return")
	}

	if code := report.ExitCode(); code != coordinator.ExitOK {
		t.Errorf("ExitCode() = %d, err = %v", code, report.Err())
	}
	if len(report.Outcomes) != 2 {
		t.Errorf("outcomes = %d, want 2", len(report.Outcomes))
	}
	if !srv.store.Closed() {
		t.Error("job store should be closed")
	}
	if srv.jobStore() != nil {
		t.Error("jobStore() should be nil after close")
	}
}

func TestServer_StoreOpenFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Memory = true
	// Set after Verify so only the store open rejects it.
	cfg.Storage.Key = "bad"

	var listens int
	srv, err := newServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), metric.NewRegistry(),
		coordinator.WithListenFunc(func(network, addr string) (net.Listener, error) {
			listens++
			return net.Listen(network, "127.0.0.1:0")
		}))
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}

	report := srv.Run(context.Background())
	if report.InitErr == nil {
		t.Fatal("InitErr should be set")
	}
	if report.ExitCode() != coordinator.ExitFailure {
		t.Errorf("ExitCode() = %d, want 1", report.ExitCode())
	}
	if len(report.Outcomes) != 0 || listens != 0 {
		t.Errorf("outcomes = %d, listens = %d, want none", len(report.Outcomes), listens)
	}
}

func TestServer_DuplicateCollector(t *testing.T) {
	cfg := testConfig(t)
	metrics := metric.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := newServer(cfg, logger, metrics); err != nil {
		t.Fatalf("first newServer() error = %v", err)
	}
	if _, err := newServer(cfg, logger, metrics); err == nil {
		t.Error("second newServer() on the same registry should fail")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("JOBRUNNER_SERVER_RPC_ADDR", "127.0.0.1:6000")
	t.Setenv("JOBRUNNER_STORAGE_DIR", t.TempDir())

	cfg, err := loadConfig(newLoaderForTest(map[string]any{"shutdown.timeout": 2 * time.Second}))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.RPC.Addr != "127.0.0.1:6000" {
		t.Errorf("RPC.Addr = %q", cfg.Server.RPC.Addr)
	}
	if cfg.Server.HTTP.Addr != config.DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want default", cfg.Server.HTTP.Addr)
	}
	if cfg.Shutdown.Timeout != 2*time.Second {
		t.Errorf("Shutdown.Timeout = %v", cfg.Shutdown.Timeout)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("JOBRUNNER_SHUTDOWN_POLICY", "sometimes")
	t.Setenv("JOBRUNNER_STORAGE_DIR", t.TempDir())

	if _, err := loadConfig(newLoaderForTest(nil)); err == nil {
		t.Error("loadConfig() should reject an unknown policy")
	}
}

func newLoaderForTest(overrides map[string]any) *confloader.Loader {
	return confloader.NewLoader(confloader.WithOverrides(overrides))
}
