package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/metrics"
)

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

var skipLoggingPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// RequestLogging logs each request and records it in m. It must be the
// innermost middleware: the mux sets r.Pattern on the request it is handed,
// which is only visible here when r is passed through unchanged.
func RequestLogging(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipLoggingPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, rw.statusCode, duration)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rw.statusCode,
				"duration_ms", duration.Milliseconds(),
				"request_id", ctxkeys.RequestID(r.Context()),
			}
			if user := ctxkeys.User(r.Context()); user != nil {
				attrs = append(attrs, "user_id", user.ID)
			}

			if rw.statusCode >= http.StatusInternalServerError {
				slog.Error("http request", attrs...)
				return
			}
			slog.Info("http request", attrs...)
		})
	}
}
