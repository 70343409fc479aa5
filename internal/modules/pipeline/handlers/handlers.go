// Package handlers provides HTTP handlers for one-shot pipeline runs.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/aristath/capstack/internal/modules/report"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps scenario documents accepted over HTTP.
const maxBodyBytes = 10 << 20

// Handler handles pipeline HTTP requests
type Handler struct {
	runner *pipeline.Runner
	loader *scenarios.Loader
	report *report.Writer
	log    zerolog.Logger
}

// NewHandler creates a new pipeline handler
func NewHandler(runner *pipeline.Runner, loader *scenarios.Loader, reportWriter *report.Writer, log zerolog.Logger) *Handler {
	return &Handler{
		runner: runner,
		loader: loader,
		report: reportWriter,
		log:    log.With().Str("handler", "pipeline").Logger(),
	}
}

// HandleRun handles POST /api/v1/pipeline/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	result, ok := h.run(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleReport handles POST /api/v1/pipeline/report
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	result, ok := h.run(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.report.Pipeline(&buf, result); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*domain.PipelineResult, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, domain.NewError(domain.CodeInvalidInput, "reading request body: %v", err))
		return nil, false
	}

	scenario, err := h.loader.Decode(data, scenarios.FormatFromContentType(r.Header.Get("Content-Type")))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}

	start := time.Now()
	result, err := h.runner.Run(scenario)
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}

	h.log.Debug().
		Str("scenario", scenario.Name).
		Dur("elapsed", time.Since(start)).
		Msg("Pipeline request served")
	return result, true
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
		h.log.Error().Err(err).Msg("Pipeline request failed")
	}
	h.writeJSON(w, status, map[string]*domain.Error{"error": domain.AsError(err)})
}
