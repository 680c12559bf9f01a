package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_poll_cycles_total",
		Help: "Completed background poll cycles.",
	})
	pollFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_poll_failures_total",
		Help: "Backend fetch failures per data kind.",
	}, []string{"kind"})
	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_poll_cycle_duration_seconds",
		Help:    "Wall time of one full poll cycle.",
		Buckets: prometheus.DefBuckets,
	})
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_http_requests_total",
		Help: "Dashboard API requests by method and status.",
	}, []string{"method", "status"})
	httpDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_http_request_duration_seconds",
		Help:    "Dashboard API request latency.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObservePollCycle records one completed poll cycle.
func ObservePollCycle(d time.Duration) {
	pollCycles.Inc()
	pollDuration.Observe(d.Seconds())
}

// ObservePollFailure records one failed backend fetch for a data kind.
func ObservePollFailure(kind string) {
	pollFailures.WithLabelValues(kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the instrumented writer.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Middleware instruments dashboard API requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		httpRequests.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
		httpDuration.Observe(time.Since(start).Seconds())
	})
}
