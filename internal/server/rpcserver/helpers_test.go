package rpcserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

func scrapeMetrics(t *testing.T, r *metric.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
