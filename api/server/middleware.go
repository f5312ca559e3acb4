package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Middleware (logging, metrics)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware logs every HTTP request at debug level
func loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create custom response writer to capture the status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Process request
		next.ServeHTTP(rw, r)

		Logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start))
	}
}

// requestCounters caches the per-route counters so the hot path avoids the
// name-parsing lookup inside the metrics package
var requestCounters = xsync.NewMapOf[string, *metrics.Counter]()

// metricsMiddleware counts requests per matched route and status code.
// Exposed via GET /metrics in Prometheus text format.
func metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		// Count by the mux pattern, not the raw URL: labelling by arbitrary
		// request paths would let an external prober grow the counter set
		// without bound
		if r.Pattern == "" {
			return
		}

		name := fmt.Sprintf(`tfstated_http_requests_total{route=%q,status="%d"}`,
			r.Pattern, rw.statusCode)

		counter, _ := requestCounters.LoadOrCompute(name, func() *metrics.Counter {
			return metrics.GetOrCreateCounter(name)
		})
		counter.Inc()
	}
}
