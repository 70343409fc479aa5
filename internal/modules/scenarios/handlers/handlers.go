// Package handlers provides HTTP handlers for stored scenarios and their runs.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 10 << 20

// Handler handles scenario HTTP requests
type Handler struct {
	service *scenarios.Service
	loader  *scenarios.Loader
	log     zerolog.Logger
}

// NewHandler creates a new scenario handler
func NewHandler(service *scenarios.Service, loader *scenarios.Loader, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		loader:  loader,
		log:     log.With().Str("handler", "scenarios").Logger(),
	}
}

// HandleCreate handles POST /api/v1/scenarios
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	scenario, ok := h.decode(w, r)
	if !ok {
		return
	}

	stored, err := h.service.Repository().Create(scenario)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info().Str("scenario_id", stored.ID).Str("name", scenario.Name).Msg("Scenario created")
	h.writeJSON(w, http.StatusCreated, stored)
}

// HandleList handles GET /api/v1/scenarios
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Repository().List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": list,
		"count":     len(list),
	})
}

// HandleGet handles GET /api/v1/scenarios/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.Repository().Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

// HandleUpdate handles PUT /api/v1/scenarios/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scenario, ok := h.decode(w, r)
	if !ok {
		return
	}

	repo := h.service.Repository()
	if err := repo.Update(id, scenario); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := repo.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

// HandleDelete handles DELETE /api/v1/scenarios/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Repository().Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRun handles POST /api/v1/scenarios/{id}/run
// Query parameters: montecarlo (bool), iterations (int), archive (bool)
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	opts, err := parseRunOptions(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	outcome, err := h.service.RunStored(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, outcome)
}

// HandleListRuns handles GET /api/v1/scenarios/{id}/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	repo := h.service.Repository()
	if _, err := repo.Get(id); err != nil {
		h.writeError(w, err)
		return
	}

	runs, err := repo.ListRuns(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (domain.Scenario, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, domain.NewError(domain.CodeInvalidInput, "reading request body: %v", err))
		return domain.Scenario{}, false
	}
	scenario, err := h.loader.Decode(data, scenarios.FormatFromContentType(r.Header.Get("Content-Type")))
	if err != nil {
		h.writeError(w, err)
		return domain.Scenario{}, false
	}
	return scenario, true
}

func parseRunOptions(r *http.Request) (scenarios.RunOptions, error) {
	q := r.URL.Query()
	var opts scenarios.RunOptions
	var err error

	if v := q.Get("montecarlo"); v != "" {
		if opts.MonteCarlo, err = strconv.ParseBool(v); err != nil {
			return opts, domain.NewError(domain.CodeInvalidInput, "montecarlo must be a boolean, got %q", v)
		}
	}
	if v := q.Get("archive"); v != "" {
		if opts.Archive, err = strconv.ParseBool(v); err != nil {
			return opts, domain.NewError(domain.CodeInvalidInput, "archive must be a boolean, got %q", v)
		}
	}
	if v := q.Get("iterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, domain.NewError(domain.CodeInvalidInput, "iterations must be a non-negative integer, got %q", v)
		}
		opts.Iterations = &n
	}
	return opts, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a domain error with its mapped status
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := domain.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Scenario request failed")
	}
	h.writeJSON(w, status, map[string]*domain.Error{"error": domain.AsError(err)})
}
