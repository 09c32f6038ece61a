package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	upstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_upstream_calls_total",
			Help: "Calls to the accounting platform by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	upstreamCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_upstream_call_duration_seconds",
			Help:    "Latency of calls to the accounting platform.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	redirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_fail_closed_redirects_total",
			Help: "Requests turned into a re-authentication redirect, by error kind.",
		},
		[]string{"kind"},
	)

	registerOnce sync.Once
)

// Init registers the metrics in the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration,
			upstreamCallsTotal, upstreamCallDuration, redirectsTotal)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records RPS, latency and in-flight requests. pathLabel keeps the
// label set bounded (route pattern rather than raw path).
func Instrument(next http.Handler, pathLabel func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := pathLabel(r)
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

// ObserveUpstream records one remote call. Call as
// defer obs.ObserveUpstream("invoices", time.Now(), &err).
func ObserveUpstream(operation string, start time.Time, err *error) {
	outcome := "ok"
	if err != nil && *err != nil {
		outcome = "error"
	}
	upstreamCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	upstreamCallsTotal.WithLabelValues(operation, outcome).Inc()
}

// CountRedirect records a fail-closed redirect.
func CountRedirect(kind string) {
	redirectsTotal.WithLabelValues(kind).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
