package middleware

import (
	"net/http"
	"time"

	"eps-citas/internal/platform/logger"
	"eps-citas/internal/platform/metrics"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog registra cada request (sin headers ni body) y lo cuenta en métricas.
func AccessLog(log logger.Logger, m *metrics.ServerMetrics) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, status)
			log.Info("request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  chimw.GetReqID(r.Context()),
			})
		})
	}
}
