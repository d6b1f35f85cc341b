package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/eldtechnologies/intake/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// knownPaths is the fixed route set. Everything else collapses into one
// label so scanners probing random URLs cannot blow up metric cardinality.
var knownPaths = map[string]bool{
	"/":                true,
	"/submissions":     true,
	"/api/submissions": true,
	"/api/stats":       true,
	"/health":          true,
	"/metrics":         true,
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(duration)
	})
}

func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "/other"
}
