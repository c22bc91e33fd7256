package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmrzaf/tabgen/internal/logging"
)

// NewRouter mounts every /api/v1 route on a chi router.
func NewRouter(h *Handler, logger *logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return loggingMiddleware(logger, next) })

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate", h.Generate)
		r.Post("/describe", h.Describe)

		r.Get("/specs", h.ListSpecs)
		r.Get("/specs/{id}", h.GetSpec)

		r.Route("/targets", func(r chi.Router) {
			r.Get("/", h.ListTargets)
			r.Post("/", h.CreateTarget)
			r.Get("/{id}", h.GetTarget)
			r.Put("/{id}", h.UpdateTarget)
			r.Delete("/{id}", h.DeleteTarget)
			r.Post("/{id}/test", h.TestTarget)
			r.Get("/{id}/checks", h.ListTargetChecks)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Post("/", h.CreateRun)
			r.Post("/plan", h.PlanRun)
			r.Get("/{id}", h.GetRun)
			r.Get("/{id}/logs", h.GetRunLogs)
		})
	})
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(started).Milliseconds(),
			"remote":      r.RemoteAddr,
		}
		if sw.status >= 500 {
			logger.Errorw("request.completed", fields)
			return
		}
		if sw.status >= 400 {
			logger.Warnw("request.completed", fields)
			return
		}
		logger.Infow("request.completed", fields)
	})
}
