// Package snapshots encodes scenario runs into portable msgpack snapshots.
package snapshots

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/capstack/internal/domain"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Version is bumped whenever the snapshot layout changes incompatibly.
const Version = 1

// ContentType is used when snapshots are served or archived.
const ContentType = "application/msgpack"

// Kind tags what a snapshot holds.
type Kind string

const (
	KindPipeline   Kind = "pipeline"
	KindMonteCarlo Kind = "montecarlo"
)

// Snapshot is the scenario together with one run of it.
type Snapshot struct {
	Version    int                      `msgpack:"version" json:"version"`
	ID         string                   `msgpack:"id" json:"id"`
	Kind       Kind                     `msgpack:"kind" json:"kind"`
	CreatedAt  time.Time                `msgpack:"createdAt" json:"createdAt"`
	Scenario   domain.Scenario          `msgpack:"scenario" json:"scenario"`
	Pipeline   *domain.PipelineResult   `msgpack:"pipeline,omitempty" json:"pipeline,omitempty"`
	MonteCarlo *domain.MonteCarloResult `msgpack:"monteCarlo,omitempty" json:"monteCarlo,omitempty"`
}

// NewPipeline wraps a deterministic pipeline run.
func NewPipeline(scenario domain.Scenario, result *domain.PipelineResult) *Snapshot {
	return &Snapshot{
		Version:   Version,
		ID:        uuid.NewString(),
		Kind:      KindPipeline,
		CreatedAt: time.Now().UTC(),
		Scenario:  scenario,
		Pipeline:  result,
	}
}

// NewMonteCarlo wraps a simulation batch.
func NewMonteCarlo(scenario domain.Scenario, result *domain.MonteCarloResult) *Snapshot {
	return &Snapshot{
		Version:    Version,
		ID:         uuid.NewString(),
		Kind:       KindMonteCarlo,
		CreatedAt:  time.Now().UTC(),
		Scenario:   scenario,
		MonteCarlo: result,
	}
}

// KPIs returns the headline numbers of the snapshot: the pipeline KPIs or the
// Monte Carlo base case.
func (s *Snapshot) KPIs() domain.KPISnapshot {
	switch {
	case s.Pipeline != nil:
		return s.Pipeline.KPIs
	case s.MonteCarlo != nil:
		return s.MonteCarlo.BaseCase
	}
	return domain.KPISnapshot{}
}

// WarningCount counts the warnings carried by the run.
func (s *Snapshot) WarningCount() int {
	switch {
	case s.Pipeline != nil:
		return len(s.Pipeline.Warnings)
	case s.MonteCarlo != nil:
		return len(s.MonteCarlo.Warnings)
	}
	return 0
}

// Encode serialises the snapshot.
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot and rejects unknown versions.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, domain.NewError(domain.CodeInvalidInput, "malformed snapshot: %v", err)
	}
	if s.Version != Version {
		return nil, domain.NewError(domain.CodeInvalidInput, "unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// WriteFile encodes the snapshot to path.
func WriteFile(path string, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode(data)
}
