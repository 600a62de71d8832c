package jobrunnerv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ServiceName is the fully-qualified name of the job service.
const ServiceName = "jobrunner.v1.JobRunnerService"

// Procedure names.
const (
	SubmitProcedure = "/" + ServiceName + "/Submit"
	GetProcedure    = "/" + ServiceName + "/Get"
)

// JobRunnerServiceHandler is implemented by the server.
type JobRunnerServiceHandler interface {
	Submit(context.Context, *connect.Request[SubmitRequest]) (*connect.Response[SubmitResponse], error)
	Get(context.Context, *connect.Request[GetRequest]) (*connect.Response[GetResponse], error)
}

// NewJobRunnerServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewJobRunnerServiceHandler(svc JobRunnerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	submit := connect.NewUnaryHandler(SubmitProcedure, svc.Submit, opts...)
	get := connect.NewUnaryHandler(GetProcedure, svc.Get, opts...)

	return "/" + ServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SubmitProcedure:
			submit.ServeHTTP(w, r)
		case GetProcedure:
			get.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// JobRunnerServiceClient calls the job service.
type JobRunnerServiceClient interface {
	Submit(context.Context, *connect.Request[SubmitRequest]) (*connect.Response[SubmitResponse], error)
	Get(context.Context, *connect.Request[GetRequest]) (*connect.Response[GetResponse], error)
}

type jobRunnerServiceClient struct {
	submit *connect.Client[SubmitRequest, SubmitResponse]
	get    *connect.Client[GetRequest, GetResponse]
}

// NewJobRunnerServiceClient creates a client for the service at baseURL,
// e.g. http://127.0.0.1:50051.
func NewJobRunnerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) JobRunnerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)

	return &jobRunnerServiceClient{
		submit: connect.NewClient[SubmitRequest, SubmitResponse](httpClient, baseURL+SubmitProcedure, opts...),
		get:    connect.NewClient[GetRequest, GetResponse](httpClient, baseURL+GetProcedure, opts...),
	}
}

func (c *jobRunnerServiceClient) Submit(ctx context.Context, req *connect.Request[SubmitRequest]) (*connect.Response[SubmitResponse], error) {
	return c.submit.CallUnary(ctx, req)
}

func (c *jobRunnerServiceClient) Get(ctx context.Context, req *connect.Request[GetRequest]) (*connect.Response[GetResponse], error) {
	return c.get.CallUnary(ctx, req)
}
