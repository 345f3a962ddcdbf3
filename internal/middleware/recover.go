package middleware

import (
	"net/http"
	"runtime/debug"

	"eps-citas/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover atrapa panics de los handlers, los loguea y responde 500 con envelope.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered", map[string]any{
					"panic":      rec,
					"path":       r.URL.Path,
					"request_id": chimw.GetReqID(r.Context()),
					"stack":      string(debug.Stack()),
				})
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
