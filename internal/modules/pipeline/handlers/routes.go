package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all pipeline routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pipeline", func(r chi.Router) {
		r.Post("/run", h.HandleRun)
		r.Post("/report", h.HandleReport)
	})
}
