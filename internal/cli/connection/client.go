// Package connection provides the RPC client used by jobrunner-cli.
package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	jobrunnerv1 "github.com/yndnr/jobrunner-go/api/jobrunner/v1"
)

// DefaultServer is the RPC listener address used when none is given.
const DefaultServer = "127.0.0.1:50051"

// healthCheckProcedure is the standard gRPC health Check method.
const healthCheckProcedure = "/grpc.health.v1.Health/Check"

// Client talks to the RPC listener of a jobrunner-server.
type Client struct {
	baseURL string
	jobs    jobrunnerv1.JobRunnerServiceClient
	health  *connect.Client[healthpb.HealthCheckRequest, healthpb.HealthCheckResponse]
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	tlsConfig *tls.Config
}

// WithTLSConfig sets the TLS config used for https servers.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *clientOptions) {
		o.tlsConfig = cfg
	}
}

// NewClient creates a client for server, given as host:port or a URL.
// A timeout of zero means no client-side limit beyond the caller's context.
func NewClient(server string, timeout time.Duration, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	baseURL := server
	if baseURL == "" {
		baseURL = DefaultServer
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newTransport(baseURL, o.tlsConfig),
	}

	return &Client{
		baseURL: baseURL,
		jobs:    jobrunnerv1.NewJobRunnerServiceClient(httpClient, baseURL),
		health: connect.NewClient[healthpb.HealthCheckRequest, healthpb.HealthCheckResponse](
			httpClient, baseURL+healthCheckProcedure, connect.WithGRPC()),
	}
}

// newTransport returns an HTTP/2 transport. Plain http URLs use h2c.
func newTransport(baseURL string, tlsConfig *tls.Config) http.RoundTripper {
	if strings.HasPrefix(baseURL, "https://") {
		return &http2.Transport{TLSClientConfig: tlsConfig}
	}
	return &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health returns the serving status of service ("" for the whole server),
// e.g. "SERVING" or "NOT_SERVING".
func (c *Client) Health(ctx context.Context, service string) (string, error) {
	resp, err := c.health.CallUnary(ctx, connect.NewRequest(&healthpb.HealthCheckRequest{Service: service}))
	if err != nil {
		return "", describe("health check", err)
	}
	return resp.Msg.GetStatus().String(), nil
}

// SubmitJob queues a job and returns it.
func (c *Client) SubmitJob(ctx context.Context, name string, payload []byte) (*jobrunnerv1.Job, error) {
	resp, err := c.jobs.Submit(ctx, connect.NewRequest(&jobrunnerv1.SubmitRequest{
		Name:    name,
		Payload: payload,
	}))
	if err != nil {
		return nil, describe("submit job", err)
	}
	return resp.Msg.Job, nil
}

// GetJob fetches a job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (*jobrunnerv1.Job, error) {
	resp, err := c.jobs.Get(ctx, connect.NewRequest(&jobrunnerv1.GetRequest{ID: id}))
	if err != nil {
		return nil, describe("get job", err)
	}
	return resp.Msg.Job, nil
}

// describe turns a Connect error into "op: [code] message".
func describe(op string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%s: [%s] %s", op, connectErr.Code(), connectErr.Message())
	}
	return fmt.Errorf("%s: %w", op, err)
}
