package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the request/response Monte Carlo routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/montecarlo/run", h.HandleRun)
}

// RegisterStreamRoutes registers the websocket route. Mount it outside any request timeout.
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/montecarlo/stream", h.HandleStream)
}
