package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/jobrunner-go/internal/infra/buildinfo"
)

const namespace = "jobrunner"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Lifecycle metrics
	ServiceServing   *prometheus.GaugeVec
	ServiceOutcomes  *prometheus.CounterVec
	ShutdownDuration prometheus.Histogram

	// RPC metrics
	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	// Job metrics
	JobsSubmitted prometheus.Counter
	JobsRejected  *prometheus.CounterVec
}

var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go and process collectors plus every
// jobrunner metric.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	info := buildinfo.Get()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information; the value is always 1.",
			ConstLabels: prometheus.Labels{
				"version":    info.Version,
				"commit":     info.Commit,
				"go_version": info.GoVersion,
			},
		}, func() float64 { return 1 }),
	)

	r := &Registry{
		registry: reg,

		ServiceServing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "serving",
			Help:      "Whether a listener is currently serving (1) or not (0).",
		}, []string{"service"}),

		ServiceOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "outcomes_total",
			Help:      "Listener terminal outcomes by result.",
		}, []string{"service", "result"}),

		ShutdownDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "shutdown",
			Name:      "duration_seconds",
			Help:      "Time from the start of draining until all resources were closed.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		RPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "RPC requests by procedure and status code.",
		}, []string{"procedure", "code"}),

		RPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "code"}),

		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "submitted_total",
			Help:      "Jobs accepted and stored.",
		}),

		JobsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "rejected_total",
			Help:      "Job submissions rejected by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		r.ServiceServing,
		r.ServiceOutcomes,
		r.ShutdownDuration,
		r.RPCRequestsTotal,
		r.RPCRequestDuration,
		r.HTTPRequestsTotal,
		r.JobsSubmitted,
		r.JobsRejected,
	)

	return r
}

// Register adds an extra collector to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Gatherer exposes the underlying registry for tests and custom handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler serving this registry in the Prometheus
// text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// SetServiceServing records whether a listener is serving.
func (r *Registry) SetServiceServing(service string, serving bool) {
	v := 0.0
	if serving {
		v = 1
	}
	r.ServiceServing.WithLabelValues(service).Set(v)
}

// RecordServiceOutcome counts a listener's terminal outcome.
func (r *Registry) RecordServiceOutcome(service, result string) {
	r.ServiceOutcomes.WithLabelValues(service, result).Inc()
}

// ObserveShutdownDuration records how long shutdown took.
func (r *Registry) ObserveShutdownDuration(seconds float64) {
	r.ShutdownDuration.Observe(seconds)
}

// RecordRPCRequest counts an RPC by procedure and code.
func (r *Registry) RecordRPCRequest(procedure, code string) {
	r.RPCRequestsTotal.WithLabelValues(procedure, code).Inc()
}

// ObserveRPCDuration records RPC latency.
func (r *Registry) ObserveRPCDuration(procedure string, seconds float64) {
	r.RPCRequestDuration.WithLabelValues(procedure).Observe(seconds)
}

// RecordHTTPRequest counts an HTTP request.
func (r *Registry) RecordHTTPRequest(method, path, code string) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}

// IncJobsSubmitted counts a stored job.
func (r *Registry) IncJobsSubmitted() {
	r.JobsSubmitted.Inc()
}

// RecordJobRejected counts a rejected submission.
func (r *Registry) RecordJobRejected(reason string) {
	r.JobsRejected.WithLabelValues(reason).Inc()
}
