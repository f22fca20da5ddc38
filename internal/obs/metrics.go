package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_expiry_sweep_runs_total",
			Help: "Expiry sweep executions by outcome.",
		},
		[]string{"outcome"},
	)

	sweepExpiredJobs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_expiry_sweep_expired_total",
		Help: "Jobs flipped to inactive by the expiry sweep.",
	})
)

// Init registers metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, sweepRuns, sweepExpiredJobs)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSweep records one expiry sweep run.
func ObserveSweep(expired int64, err error) {
	if err != nil {
		sweepRuns.WithLabelValues("error").Inc()
		return
	}
	sweepRuns.WithLabelValues("ok").Inc()
	sweepExpiredJobs.Add(float64(expired))
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses resource identifiers so metric cardinality stays
// bounded regardless of how many jobs/applications/interviews exist.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	for _, p := range []struct{ prefix, canon, suffix string }{
		{"/v1/jobs/", "/v1/jobs/:id", ""},
		{"/v1/applications/", "/v1/applications/:id/status", "/status"},
		{"/v1/applications/", "/v1/applications/:id/schedule-interview", "/schedule-interview"},
		{"/v1/applications/", "/v1/applications/:id/interviews", "/interviews"},
		{"/v1/interviews/", "/v1/interviews/:id", ""},
	} {
		rest, ok := strings.CutPrefix(path, p.prefix)
		if !ok || rest == "" {
			continue
		}
		id, hadSuffix := strings.CutSuffix(rest, p.suffix)
		if !hadSuffix || id == "" || strings.Contains(id, "/") {
			continue
		}
		switch id {
		// fixed sub-collections, not identifiers
		case "my-jobs", "my-applications", "employer", "upcoming", "apply":
			continue
		}
		return p.canon
	}
	return path
}

// statusWriter captures the response code written downstream.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
