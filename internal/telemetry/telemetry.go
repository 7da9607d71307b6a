// Package telemetry exposes Prometheus metrics for the renderer.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	previewRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_requests_total",
			Help: "Total preview requests, labeled by classified agent kind.",
		},
		[]string{"agent"},
	)

	previewRenderDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preview_render_duration_seconds",
			Help:    "Histogram of lookup+resolve+render latency for crawler responses.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	settingsLookupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_lookup_failures_total",
			Help: "Settings-store lookups that failed and degraded to defaults.",
		},
	)

	invalidationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidation_events_total",
			Help: "Cache-invalidation events published, labeled by action.",
		},
		[]string{"action"},
	)

	contactRelayTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_relay_total",
			Help: "Contact-form relay attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Agent kinds for ObservePreview.
const (
	AgentCrawler = "crawler"
	AgentBrowser = "browser"
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObservePreview records one classified preview request.
func ObservePreview(agent string) {
	previewRequestsTotal.WithLabelValues(agent).Inc()
}

// ObserveRenderDuration records the latency of one crawler response.
func ObserveRenderDuration(duration time.Duration) {
	previewRenderDurationSeconds.Observe(duration.Seconds())
}

// ObserveLookupFailure records a settings lookup that degraded to defaults.
func ObserveLookupFailure() {
	settingsLookupFailuresTotal.Inc()
}

// ObserveInvalidation records a published invalidation event.
func ObserveInvalidation(action string) {
	invalidationEventsTotal.WithLabelValues(action).Inc()
}

// ObserveContactRelay records the outcome of a contact relay attempt.
func ObserveContactRelay(outcome string) {
	contactRelayTotal.WithLabelValues(outcome).Inc()
}
