package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all run snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGetRun)
		r.Get("/snapshot", h.HandleGetSnapshot)
		r.Get("/report", h.HandleGetReport)
		r.Post("/archive", h.HandleArchive)
	})
}
