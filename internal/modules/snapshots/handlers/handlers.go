// Package handlers provides HTTP handlers for stored run snapshots.
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/report"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/aristath/capstack/internal/modules/snapshots"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles run snapshot HTTP requests
type Handler struct {
	service *scenarios.Service
	report  *report.Writer
	log     zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(service *scenarios.Service, reportWriter *report.Writer, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		report:  reportWriter,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleGetRun handles GET /api/v1/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, snap, err := h.service.Repository().GetRun(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scenarios.RunOutcome{Record: rec, Snapshot: snap})
}

// HandleGetSnapshot handles GET /api/v1/runs/{id}/snapshot
// Returns the stored msgpack body unchanged.
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := h.service.Repository().GetRunSnapshot(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", snapshots.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.msgpack"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleGetReport handles GET /api/v1/runs/{id}/report
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	_, snap, err := h.service.Repository().GetRun(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	switch snap.Kind {
	case snapshots.KindPipeline:
		err = h.report.Pipeline(&buf, snap.Pipeline)
	case snapshots.KindMonteCarlo:
		err = h.report.MonteCarlo(&buf, snap.MonteCarlo)
	default:
		err = domain.NewError(domain.CodeInvalidInput, "unknown snapshot kind %q", snap.Kind)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleArchive handles POST /api/v1/runs/{id}/archive
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key, err := h.service.ArchiveRun(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info().Str("run_id", id).Str("key", key).Msg("Run archived")
	h.writeJSON(w, http.StatusOK, map[string]string{
		"runId":      id,
		"archiveKey": key,
	})
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
		h.log.Error().Err(err).Msg("Snapshot request failed")
	}
	h.writeJSON(w, status, map[string]*domain.Error{"error": domain.AsError(err)})
}
