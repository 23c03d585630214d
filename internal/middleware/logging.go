package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/logging"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/telemetry"
)

// RequestLogger logs one line per request and records HTTP metrics.
// It also seeds the request logger with the chi request id.
func RequestLogger(log logrus.FieldLogger, metrics *telemetry.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := logging.FromContext(r.Context(), log)
			ctx := logging.WithRequestFields(logging.WithLogger(r.Context(), reqLog))

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			metrics.RecordRequest(r.Context(), r.Method, route, status, float64(elapsed.Microseconds())/1000)

			entry := reqLog.WithFields(logging.RequestFields(ctx)).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": elapsed.Milliseconds(),
				"remote":      r.RemoteAddr,
			})
			switch {
			case status >= 500:
				entry.Error("request completed")
			case status >= 400:
				entry.Warn("request completed")
			default:
				entry.Debug("request completed")
			}
		})
	}
}
