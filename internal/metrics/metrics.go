// Package metrics provides Prometheus instrumentation for the dilution engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var (
	// CalculationsTotal counts scenario projections by surface and outcome.
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dilution_calculations_total",
		Help: "Total number of dilution calculations",
	}, []string{"surface", "outcome"})

	// CalculationLatency tracks time spent inside the calculation pipeline.
	CalculationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dilution_calculation_latency_seconds",
		Help:    "Calculation latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	}, []string{"surface"})

	// InputErrors counts rejected inputs by error code.
	InputErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dilution_input_errors_total",
		Help: "Rejected calculator inputs by error code",
	}, []string{"code"})

	// WarrantAdvisories counts projections flagged as likely unexercised.
	WarrantAdvisories = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dilution_warrant_advisories_total",
		Help: "Projections where the warrant is likely not exercised",
	})

	// LiveSessions tracks connected live-recalculation WebSocket clients.
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dilution_live_sessions",
		Help: "Number of connected live calculation sessions",
	})

	// StaleFrames counts live frames dropped because a newer one was seen.
	StaleFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dilution_live_stale_frames_total",
		Help: "Live calculation frames dropped as stale",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dilution_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dilution_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObserveCalculation records one calculation's outcome and latency.
func ObserveCalculation(surface, outcome string, started time.Time) {
	CalculationsTotal.WithLabelValues(surface, outcome).Inc()
	CalculationLatency.WithLabelValues(surface).Observe(time.Since(started).Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern labels requests by chi route pattern, not raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
