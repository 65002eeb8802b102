// Package prometheus implements metrics.HTTPMetrics on a Prometheus
// registry and exposes the registry through the engine's own router.
package prometheus

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/breezehq/breeze/internal/logger"
	"github.com/breezehq/breeze/pkg/httpd"
	"github.com/breezehq/breeze/pkg/metrics"
)

type httpMetrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	activeConnections prometheus.Gauge
	connectionsTotal  prometheus.Counter
}

// NewHTTPMetrics creates a Prometheus-backed metrics.HTTPMetrics registered
// on reg. A nil registry yields the no-op implementation.
func NewHTTPMetrics(reg *prometheus.Registry) metrics.HTTPMetrics {
	if reg == nil {
		return metrics.NewNoop()
	}

	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "breeze_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "breeze_http_request_duration_milliseconds",
				Help: "Duration of HTTP requests in milliseconds",
				Buckets: []float64{
					1,    // 1ms
					10,   // 10ms
					100,  // 100ms
					1000, // 1s
					5000, // 5s
				},
			},
			[]string{"method", "path"},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "breeze_http_active_connections",
				Help: "Current number of open client connections",
			},
		),
		connectionsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "breeze_http_connections_total",
				Help: "Total number of client connections accepted",
			},
		),
	}
}

func (m *httpMetrics) RecordRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds() * 1000)
}

func (m *httpMetrics) ConnectionOpened() {
	m.activeConnections.Inc()
	m.connectionsTotal.Inc()
}

func (m *httpMetrics) ConnectionClosed() {
	m.activeConnections.Dec()
}

// Handler adapts the standard Prometheus exposition handler onto the
// engine's handler contract, so /metrics is served without a second HTTP
// server.
func Handler(reg *prometheus.Registry) httpd.Handler {
	exposition := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return func(req *httpd.Request, res *httpd.Response) {
		hr, err := http.NewRequest(req.Method, "http://localhost/metrics", nil)
		if err != nil {
			logger.Error("Building exposition request failed: %v", err)
			res.Error(500, "Metrics unavailable")
			return
		}

		rw := &responseWriter{header: make(http.Header), status: http.StatusOK}
		exposition.ServeHTTP(rw, hr)

		res.Status(rw.status)
		if ct := rw.header.Get("Content-Type"); ct != "" {
			res.Header("Content-Type", ct)
		}
		res.Body = rw.body.String()
	}
}

// responseWriter is the minimal http.ResponseWriter the exposition handler
// needs, buffering into memory.
type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) Write(p []byte) (int, error) { return w.body.Write(p) }

func (w *responseWriter) WriteHeader(status int) { w.status = status }
