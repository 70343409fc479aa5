// Package handlers provides HTTP and websocket handlers for Monte Carlo simulation.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	maxBodyBytes = 10 << 20
	writeWait    = 10 * time.Second
)

// Stream message types
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage is one frame sent to a stream client.
type StreamMessage struct {
	Type     string                     `json:"type"`
	Progress *montecarlo.ProgressUpdate `json:"progress,omitempty"`
	Result   *domain.MonteCarloResult   `json:"result,omitempty"`
	Error    *domain.Error              `json:"error,omitempty"`
}

// Handler handles Monte Carlo HTTP requests
type Handler struct {
	simulator *montecarlo.Simulator
	loader    *scenarios.Loader
	log       zerolog.Logger
}

// NewHandler creates a new Monte Carlo handler
func NewHandler(simulator *montecarlo.Simulator, loader *scenarios.Loader, log zerolog.Logger) *Handler {
	return &Handler{
		simulator: simulator,
		loader:    loader,
		log:       log.With().Str("handler", "montecarlo").Logger(),
	}
}

// HandleRun handles POST /api/v1/montecarlo/run
// Optional query parameter: iterations
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, domain.NewError(domain.CodeInvalidInput, "reading request body: %v", err))
		return
	}

	scenario, cfg, err := h.prepare(data, scenarios.FormatFromContentType(r.Header.Get("Content-Type")), r.URL.Query().Get("iterations"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.simulator.Run(r.Context(), scenario, cfg, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleStream handles GET /api/v1/montecarlo/stream
//
// The client sends one JSON scenario document after the upgrade. The server answers with
// progress frames followed by a single result or error frame. Closing the socket cancels
// the simulation.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")
	conn.SetReadLimit(maxBodyBytes)

	var doc json.RawMessage
	if err := wsjson.Read(r.Context(), conn, &doc); err != nil {
		h.log.Debug().Err(err).Msg("Stream client left before sending a scenario")
		return
	}

	scenario, cfg, err := h.prepare(doc, scenarios.FormatJSON, r.URL.Query().Get("iterations"))
	if err != nil {
		h.send(r.Context(), conn, StreamMessage{Type: MessageError, Error: domain.AsError(err)})
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	// Any further client frame or a close cancels the run.
	ctx := conn.CloseRead(r.Context())

	step := cfg.Iterations / 100
	if step < 1 {
		step = 1
	}
	progress := func(update montecarlo.ProgressUpdate) {
		if update.Completed%step != 0 && update.Completed != update.Total {
			return
		}
		u := update
		h.send(ctx, conn, StreamMessage{Type: MessageProgress, Progress: &u})
	}

	result, err := h.simulator.Run(ctx, scenario, cfg, progress)
	if err != nil {
		h.send(ctx, conn, StreamMessage{Type: MessageError, Error: domain.AsError(err)})
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	if result.Cancelled {
		h.log.Info().Int("completed", result.Completed).Msg("Stream simulation cancelled by client")
		return
	}

	if err := h.send(ctx, conn, StreamMessage{Type: MessageResult, Result: result}); err != nil {
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// prepare decodes the scenario and resolves the simulation config.
func (h *Handler) prepare(data []byte, format scenarios.Format, iterations string) (domain.Scenario, domain.MonteCarloConfig, error) {
	scenario, err := h.loader.Decode(data, format)
	if err != nil {
		return domain.Scenario{}, domain.MonteCarloConfig{}, err
	}
	if scenario.MonteCarlo == nil {
		return domain.Scenario{}, domain.MonteCarloConfig{}, domain.NewValidationError([]domain.ValidationIssue{
			{Path: "monteCarlo", Message: "is required for a Monte Carlo run"},
		})
	}

	cfg := *scenario.MonteCarlo
	if iterations != "" {
		n, err := strconv.Atoi(iterations)
		if err != nil || n < 0 {
			return domain.Scenario{}, domain.MonteCarloConfig{}, domain.NewError(domain.CodeInvalidInput, "iterations must be a non-negative integer, got %q", iterations)
		}
		cfg.Iterations = n
	}
	return scenario, cfg, nil
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, msg); err != nil {
		h.log.Debug().Err(err).Str("type", msg.Type).Msg("Failed to send stream message")
		return err
	}
	return nil
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
		h.log.Error().Err(err).Msg("Monte Carlo request failed")
	}
	h.writeJSON(w, status, map[string]*domain.Error{"error": domain.AsError(err)})
}
