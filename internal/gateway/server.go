package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", s.handleHealth())

	if s.cfg.Metrics != nil {
		r.Handle("/metrics", s.cfg.Metrics)
	}

	// Webhooks — own HMAC auth per source.
	r.Post("/webhooks/{source}", s.dispatcher.ServeHTTP)

	// Admin endpoints — bearer auth required. Not mounted without a token.
	if s.cfg.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.cfg.AdminToken))
			r.Route("/api", func(r chi.Router) {
				r.Delete("/histories", s.handleClearHistories())
				r.Get("/modules", s.handleListModules())
			})
		})
	}

	return r
}
