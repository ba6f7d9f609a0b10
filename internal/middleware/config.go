package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/trakapp/trak/internal/config"
	"github.com/trakapp/trak/internal/ctxkeys"
)

// Config adds the app configuration and a request id to the request context.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := ctxkeys.WithConfig(r.Context(), cfg)
			ctx = ctxkeys.WithRequestID(ctx, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
