// Package scenarios ingests scenario documents and stores them with their runs.
package scenarios

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/capstack/internal/domain"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Format is a scenario document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension. Unknown extensions read as YAML,
// which also accepts JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// FormatFromContentType picks the format from a request Content-Type. Anything that is not
// YAML is read as JSON.
func FormatFromContentType(contentType string) Format {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// Loader decodes and normalises scenario documents.
type Loader struct {
	mcDefaults map[string]any
	log        zerolog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMonteCarloDefaults fills monteCarlo.iterations and monteCarlo.seed when a document
// has a monteCarlo block without them.
func WithMonteCarloDefaults(iterations int, seed uint64) LoaderOption {
	return func(l *Loader) {
		l.mcDefaults = map[string]any{"iterations": iterations, "seed": seed}
	}
}

// NewLoader creates a new scenario loader.
func NewLoader(log zerolog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{log: log.With().Str("component", "scenario_loader").Logger()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads a scenario from disk. Files without a name take the file's base name.
func (l *Loader) LoadFile(path string) (domain.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("reading scenario file: %w", err)
	}

	s, err := l.Decode(data, FormatFromPath(path))
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Decode parses a document, applies legacy normalisation and checks its shape.
//
// Parameters:
//   - data: raw document bytes
//   - format: FormatJSON or FormatYAML
//
// Returns:
//   - domain.Scenario: canonical scenario
//   - error: invalid_input when the document cannot be parsed, validation_failed for shape problems
func (l *Loader) Decode(data []byte, format Format) (domain.Scenario, error) {
	var doc map[string]any
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return domain.Scenario{}, domain.NewError(domain.CodeInvalidInput, "unknown format %q", format)
	}
	if err != nil {
		return domain.Scenario{}, domain.NewError(domain.CodeInvalidInput, "parsing %s document: %v", format, err)
	}
	if doc == nil {
		return domain.Scenario{}, domain.NewError(domain.CodeInvalidInput, "empty document")
	}

	doc, notes := Normalize(doc)
	for _, note := range notes {
		l.log.Debug().Str("rewrite", note).Msg("Normalized legacy scenario field")
	}
	if mc, ok := doc["monteCarlo"].(map[string]any); ok {
		for key, value := range l.mcDefaults {
			if _, set := mc[key]; !set {
				mc[key] = value
			}
		}
	}

	// Round trip through JSON so the canonical tags are the single source of truth.
	canonical, err := json.Marshal(doc)
	if err != nil {
		return domain.Scenario{}, domain.NewError(domain.CodeInvalidInput, "re-encoding document: %v", err)
	}
	var s domain.Scenario
	if err := json.Unmarshal(canonical, &s); err != nil {
		return domain.Scenario{}, domain.NewError(domain.CodeInvalidInput, "decoding scenario: %v", err)
	}

	if err := ValidateShape(s).Err(); err != nil {
		return domain.Scenario{}, err
	}
	return s, nil
}
