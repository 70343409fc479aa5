package server

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/capstack/internal/database"
	"github.com/rs/zerolog"
)

// healthCheckTimeout bounds one database integrity check.
const healthCheckTimeout = 10 * time.Second

// StatusMonitor periodically checks the store and logs health transitions
type StatusMonitor struct {
	db  *database.DB
	log zerolog.Logger

	mu          sync.RWMutex
	healthy     bool
	lastError   string
	lastChecked time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// MonitorStatus is the last observed store health.
type MonitorStatus struct {
	Healthy     bool      `json:"healthy"`
	LastError   string    `json:"lastError,omitempty"`
	LastChecked time.Time `json:"lastChecked"`
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(db *database.DB, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		db:      db,
		log:     log.With().Str("component", "status_monitor").Logger(),
		healthy: true,
		stop:    make(chan struct{}),
	}
}

// Start begins periodic status monitoring
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop ends the monitoring loop. Safe to call more than once.
func (m *StatusMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Healthy reports the result of the last check.
func (m *StatusMonitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// Status returns the last observed state.
func (m *StatusMonitor) Status() MonitorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MonitorStatus{Healthy: m.healthy, LastError: m.lastError, LastChecked: m.lastChecked}
}

// monitor runs the periodic monitoring loop
func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do initial check
	m.Check()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-m.stop:
			return
		}
	}
}

// Check runs one health check and records the result.
func (m *StatusMonitor) Check() {
	if m.db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	err := m.db.HealthCheck(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	wasHealthy := m.healthy
	m.healthy = err == nil
	m.lastChecked = time.Now().UTC()
	m.lastError = ""
	if err != nil {
		m.lastError = err.Error()
	}

	switch {
	case wasHealthy && !m.healthy:
		m.log.Error().Err(err).Str("database", m.db.Name()).Msg("Database health check failed")
	case !wasHealthy && m.healthy:
		m.log.Info().Str("database", m.db.Name()).Msg("Database healthy again")
	}
}
