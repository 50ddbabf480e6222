package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/maumercado/task-queue-go/internal/logger"
)

// RequestLogger returns a middleware that logs each request's method,
// path, status, and duration through the structured logger, wrapping
// chi's response-writer instrumentation to capture the status code.
func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Int("bytes", ww.BytesWritten()).
				Msg("request handled")
		})
	}
}
