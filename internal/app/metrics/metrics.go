package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jarvisfi",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jarvisfi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jarvisfi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	chatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jarvisfi",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total number of chat exchanges.",
		},
		[]string{"source"},
	)

	chatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jarvisfi",
			Subsystem: "chat",
			Name:      "reply_duration_seconds",
			Help:      "Time to produce an assistant reply.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	calculatorRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jarvisfi",
			Subsystem: "calculators",
			Name:      "runs_total",
			Help:      "Total number of calculator invocations.",
		},
		[]string{"calculator", "success"},
	)

	alertsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jarvisfi",
			Subsystem: "alerts",
			Name:      "emitted_total",
			Help:      "Total number of smart alerts recorded.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		chatMessages,
		chatDuration,
		calculatorRuns,
		alertsEmitted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordChatMessage records a produced assistant reply. source names the
// transport that carried the exchange, "api" or "websocket".
func RecordChatMessage(source string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	chatMessages.WithLabelValues(source).Inc()
	chatDuration.Observe(duration.Seconds())
}

// RecordCalculatorRun records a calculator invocation.
func RecordCalculatorRun(name string, success bool) {
	if name == "" {
		name = "unknown"
	}
	result := "false"
	if success {
		result = "true"
	}
	calculatorRuns.WithLabelValues(name, result).Inc()
}

// RecordAlert records an emitted smart alert.
func RecordAlert(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	alertsEmitted.WithLabelValues(kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// canonicalPath collapses IDs out of API paths so the label set stays small.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	// /api/v1/{module}/{resource}/{id...} -> /api/v1/{module}/{resource}
	if len(parts) <= 4 {
		return "/" + strings.Join(parts, "/")
	}
	return "/" + strings.Join(parts[:4], "/")
}
