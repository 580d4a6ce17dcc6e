package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/photoframe-core/internal/viewer"
)

// ViewerPath is where the full-screen viewer page is mounted.
const ViewerPath = "/viewer/"

// healthCheckTimeout bounds every dependency probe made by GET /health.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware, s.observeMiddleware, s.recoveryMiddleware, s.corsMiddleware, s.bodyLimitMiddleware)

	if s.cfg.Viewer.Enabled {
		r.Handle(ViewerPath+"*", http.StripPrefix("/viewer", viewer.Handler(s.cfg.Viewer.Dir)))
		r.Handle("/viewer", http.RedirectHandler(ViewerPath, http.StatusMovedPermanently))
		r.Get("/", http.RedirectHandler(ViewerPath, http.StatusFound).ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystemMetrics)
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

		r.Get("/state", s.handleGetState)
		r.Route("/slideshow", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Post("/tap", s.handleTap)
		})
		r.Get("/picture", s.handleGetPicture)
		r.Get("/library", s.handleGetLibrary)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status together with the result
// of every registered dependency check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(s.checks))
	for name, checker := range s.checks {
		if err := checker.HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
