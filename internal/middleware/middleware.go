package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code and the
// number of bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogHealthChecks: true}
}

var healthPaths = []string{"/healthz", "/livez", "/readyz"}

func isHealthPath(path string) bool {
	for _, p := range healthPaths {
		if path == p {
			return true
		}
	}
	return false
}

// Logger returns a middleware that logs each request with its status,
// size and duration.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.LogHealthChecks && isHealthPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			logging.Info("%s %s %d %dB %v %s",
				r.Method, r.URL.RequestURI(), wrapped.statusCode,
				wrapped.bytesWritten, time.Since(start), r.RemoteAddr)
		})
	}
}

// Metrics returns a middleware that records Prometheus metrics per request.
// Path labels use the route pattern prefix to keep cardinality bounded.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthPath(r.URL.Path) || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			path := metricPath(r.URL.Path)
			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// metricPath collapses per-file URLs into their route prefix.
func metricPath(path string) string {
	for _, prefix := range []string{"/media/", "/thumbs/"} {
		if strings.HasPrefix(path, prefix) {
			return prefix
		}
	}
	if strings.HasPrefix(path, "/api/files/") {
		return "/api/files/"
	}
	return path
}
