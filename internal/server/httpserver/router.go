package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/jobrunner-go/internal/server/httpserver/handler"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves every route.
	Handler handler.Config

	// Metrics counts requests. Nil disables request metrics.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// GlobalRateLimit is the rate limit per IP (requests/second). Zero disables it.
	GlobalRateLimit int
}

// NewRouter creates the HTTP handler with all routes and middleware.
//
// Order: Recover -> RequestID -> RateLimit -> AccessLog -> Handler
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultRouterConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Handler.Logger == nil {
		cfg.Handler.Logger = cfg.Logger
	}

	h := handler.New(cfg.Handler)

	middlewares := []Middleware{
		Recover(cfg.Logger),
		RequestID(),
	}
	if cfg.GlobalRateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.GlobalRateLimit))
	}
	middlewares = append(middlewares, AccessLog(cfg.Logger, cfg.Metrics))

	return Chain(h, middlewares...)
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		GlobalRateLimit: 100, // 100 requests/second per IP
	}
}
