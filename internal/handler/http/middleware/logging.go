package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logging writes one structured entry per request. Responses with a status of
// 400 or more are logged at warn level.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("req_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Int("status", status),
				zap.Int("resp_bytes", ww.BytesWritten()),
				zap.Int64("dur_ms", time.Since(start).Milliseconds()),
			}
			if status >= http.StatusBadRequest {
				logger.Warn("http_request", fields...)
				return
			}
			logger.Info("http_request", fields...)
		})
	}
}
