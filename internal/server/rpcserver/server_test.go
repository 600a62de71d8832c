package rpcserver

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	jobrunnerv1 "github.com/yndnr/jobrunner-go/api/jobrunner/v1"
	"github.com/yndnr/jobrunner-go/internal/storage"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

// h2cClient speaks HTTP/2 over plaintext TCP.
func h2cClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server, *metric.Registry) {
	t.Helper()
	metrics := metric.NewRegistry()
	srv := New(Config{
		Jobs:    newTestService(t, openStore(t), 0, 0),
		Metrics: metrics,
		Logger:  testLogger(),
	})
	ts := httptest.NewUnstartedServer(srv.Handler())
	ts.Config.Protocols = Protocols()
	ts.Start()
	t.Cleanup(ts.Close)
	return srv, ts, metrics
}

func healthCheck(t *testing.T, baseURL, service string, opts ...connect.ClientOption) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	client := connect.NewClient[healthpb.HealthCheckRequest, healthpb.HealthCheckResponse](
		h2cClient(), baseURL+"/grpc.health.v1.Health/Check", opts...)

	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&healthpb.HealthCheckRequest{Service: service}))
	if err != nil {
		t.Fatalf("health check error = %v", err)
	}
	return resp.Msg.GetStatus()
}

func TestServer_HealthFollowsServing(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	if got := healthCheck(t, ts.URL, jobrunnerv1.ServiceName, connect.WithGRPC()); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("initial status = %v, want NOT_SERVING", got)
	}

	obs := srv.HealthObserver("rpc")
	obs.ServiceServing("http", true)
	if got := healthCheck(t, ts.URL, jobrunnerv1.ServiceName, connect.WithGRPC()); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after unrelated listener = %v, want NOT_SERVING", got)
	}

	obs.ServiceServing("rpc", true)
	if got := healthCheck(t, ts.URL, jobrunnerv1.ServiceName, connect.WithGRPC()); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", got)
	}
	if got := healthCheck(t, ts.URL, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("overall status = %v, want SERVING", got)
	}

	obs.ServiceServing("rpc", false)
	if got := healthCheck(t, ts.URL, jobrunnerv1.ServiceName, connect.WithGRPC()); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after drain = %v, want NOT_SERVING", got)
	}
}

func TestServer_JobServiceOverProtocols(t *testing.T) {
	_, ts, metrics := newTestServer(t)

	protocols := []struct {
		name string
		opts []connect.ClientOption
	}{
		{"connect", nil},
		{"grpc", []connect.ClientOption{connect.WithGRPC()}},
		{"grpcweb", []connect.ClientOption{connect.WithGRPCWeb()}},
	}

	for _, p := range protocols {
		t.Run(p.name, func(t *testing.T) {
			client := jobrunnerv1.NewJobRunnerServiceClient(h2cClient(), ts.URL, p.opts...)
			ctx := context.Background()

			sub, err := client.Submit(ctx, connect.NewRequest(&jobrunnerv1.SubmitRequest{Name: "encode", Payload: []byte("x")}))
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}

			got, err := client.Get(ctx, connect.NewRequest(&jobrunnerv1.GetRequest{ID: sub.Msg.Job.ID}))
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Msg.Job.Name != "encode" {
				t.Errorf("Get().Name = %q", got.Msg.Job.Name)
			}

			_, err = client.Get(ctx, connect.NewRequest(&jobrunnerv1.GetRequest{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV"}))
			if connect.CodeOf(err) != connect.CodeNotFound {
				t.Errorf("unknown job code = %v, want not_found", connect.CodeOf(err))
			}
		})
	}

	body := scrapeMetrics(t, metrics)
	want := `jobrunner_rpc_requests_total{code="ok",procedure="/jobrunner.v1.JobRunnerService/Submit"} 3`
	if !contains(body, want) {
		t.Errorf("expected %s", want)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv := New(Config{Logger: testLogger(), Metrics: metric.NewRegistry()})
	srv.SetServing(true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ln)
	}()

	if got := healthCheck(t, "http://"+ln.Addr().String(), "", connect.WithGRPC()); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", got)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-done; err != http.ErrServerClosed {
		t.Errorf("Serve() = %v, want ErrServerClosed", err)
	}
}

// blockingStore holds every Put until release is closed.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Put(context.Context, *storage.Job) error {
	close(s.entered)
	<-s.release
	return nil
}

func (s *blockingStore) Get(context.Context, string) (*storage.Job, error) {
	return nil, storage.ErrJobNotFound
}

func TestServer_ShutdownWaitsForInFlightRPC(t *testing.T) {
	store := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	srv := New(Config{
		Jobs:    newTestService(t, store, 0, 0),
		Metrics: metric.NewRegistry(),
		Logger:  testLogger(),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ln)
	}()

	client := jobrunnerv1.NewJobRunnerServiceClient(h2cClient(), "http://"+ln.Addr().String(), connect.WithGRPC())
	submitted := make(chan error, 1)
	go func() {
		_, err := client.Submit(context.Background(), connect.NewRequest(&jobrunnerv1.SubmitRequest{Name: "slow"}))
		submitted <- err
	}()

	select {
	case <-store.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("Submit never reached the store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- srv.Shutdown(ctx)
	}()

	select {
	case err := <-shutdownDone:
		t.Fatalf("Shutdown() = %v returned while Submit was still in the store", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(store.release)

	if err := <-submitted; err != nil {
		t.Errorf("in-flight Submit() error = %v", err)
	}
	if err := <-shutdownDone; err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := <-served; err != http.ErrServerClosed {
		t.Errorf("Serve() = %v, want ErrServerClosed", err)
	}
}
