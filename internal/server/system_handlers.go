package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/capstack/internal/config"
	"github.com/aristath/capstack/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log           zerolog.Logger
	db            *database.DB
	statusMonitor *StatusMonitor
	cfg           *config.Config
	startupTime   time.Time
}

// SystemStatusResponse represents the service status
type SystemStatusResponse struct {
	Status              string           `json:"status"`
	Uptime              string           `json:"uptime"`
	StartedAt           time.Time        `json:"startedAt"`
	CPUPercent          float64          `json:"cpuPercent"`
	MemoryPercent       float64          `json:"memoryPercent"`
	Goroutines          int              `json:"goroutines"`
	Database            MonitorStatus    `json:"database"`
	ScenarioCount       int              `json:"scenarioCount"`
	RunCount            int              `json:"runCount"`
	MonteCarlo          MonteCarloStatus `json:"monteCarlo"`
	ArchiveEnabled      bool             `json:"archiveEnabled"`
	RevaluationSchedule string           `json:"revaluationSchedule,omitempty"`
}

// MonteCarloStatus reports the simulation defaults in effect
type MonteCarloStatus struct {
	Workers           int    `json:"workers"`
	DefaultIterations int    `json:"defaultIterations"`
	DefaultSeed       uint64 `json:"defaultSeed"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Stats       *database.Stats `json:"stats"`
	LastChecked string          `json:"lastChecked"`
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, db *database.DB, statusMonitor *StatusMonitor, cfg *config.Config) *SystemHandlers {
	return &SystemHandlers{
		log:           log.With().Str("component", "system_handlers").Logger(),
		db:            db,
		statusMonitor: statusMonitor,
		cfg:           cfg,
		startupTime:   time.Now(),
	}
}

// HandleSystemStatus returns process, store and engine status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "healthy",
		Uptime:        time.Since(h.startupTime).Round(time.Second).String(),
		StartedAt:     h.startupTime.UTC(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
	}

	if h.statusMonitor != nil {
		response.Database = h.statusMonitor.Status()
		if !response.Database.Healthy {
			response.Status = "degraded"
		}
	}

	if h.db != nil {
		conn := h.db.Conn()
		if err := conn.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM scenarios").Scan(&response.ScenarioCount); err != nil {
			h.log.Warn().Err(err).Msg("Failed to count scenarios")
		}
		if err := conn.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM runs").Scan(&response.RunCount); err != nil {
			h.log.Warn().Err(err).Msg("Failed to count runs")
		}
	}

	if h.cfg != nil {
		response.MonteCarlo = MonteCarloStatus{
			Workers:           h.cfg.MonteCarlo.Workers,
			DefaultIterations: h.cfg.MonteCarlo.Iterations,
			DefaultSeed:       h.cfg.MonteCarlo.Seed,
		}
		response.ArchiveEnabled = h.cfg.Archive.Enabled()
		response.RevaluationSchedule = h.cfg.RevaluationSchedule
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns file and page statistics of the store
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	if h.db == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "database not configured"})
		return
	}

	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        h.db.Name(),
		Path:        h.db.Path(),
		Stats:       stats,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) so the status call stays fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
