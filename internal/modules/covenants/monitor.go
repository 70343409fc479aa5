// Package covenants evaluates lender covenants month by month against the debt schedule,
// honouring grace periods before a breach counts as a failure.
package covenants

import (
	"fmt"
	"math"

	"github.com/aristath/capstack/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultCriticalMargin is the relative deviation past which a failing breach is critical.
const DefaultCriticalMargin = 0.10

// Monitor evaluates covenants.
type Monitor struct {
	log zerolog.Logger
}

// NewMonitor creates a new covenant monitor.
func NewMonitor(log zerolog.Logger) *Monitor {
	return &Monitor{
		log: log.With().Str("component", "covenant_monitor").Logger(),
	}
}

// Validate checks covenant definitions.
func Validate(covenants []domain.Covenant) domain.Issues {
	var issues domain.Issues
	seen := make(map[string]bool, len(covenants))
	for i, c := range covenants {
		path := fmt.Sprintf("covenants[%d]", i)
		if c.ID == "" {
			issues.Add(path+".id", "is required")
		} else if seen[c.ID] {
			issues.Add(path+".id", "duplicate covenant id %q", c.ID)
		}
		seen[c.ID] = true

		switch c.Type {
		case domain.CovenantMinDSCR, domain.CovenantMaxLTV, domain.CovenantMinCash:
		default:
			issues.Add(path+".type", "unknown covenant type %q", c.Type)
		}
		if c.GracePeriodMonths < 0 {
			issues.Add(path+".gracePeriodMonths", "must not be negative")
		}
		switch c.Severity {
		case "", domain.SeverityWarning, domain.SeverityCritical:
		default:
			issues.Add(path+".severity", "must be warning or critical")
		}
		if c.CriticalMargin != nil && *c.CriticalMargin < 0 {
			issues.Add(path+".criticalMargin", "must not be negative")
		}
	}
	return issues
}

// Evaluate produces one status per covenant per month and a summary per covenant.
func (m *Monitor) Evaluate(covenants []domain.Covenant, months []domain.MonthlyDebtKPI) ([]domain.CovenantStatus, []domain.CovenantSummary, error) {
	if err := Validate(covenants).Err(); err != nil {
		return nil, nil, err
	}

	statuses := make([]domain.CovenantStatus, 0, len(covenants)*len(months))
	summaries := make([]domain.CovenantSummary, 0, len(covenants))

	for _, c := range covenants {
		summary := domain.CovenantSummary{
			CovenantID:    c.ID,
			Type:          c.Type,
			WorstSeverity: domain.SeverityOK,
		}

		consecutive := 0
		for _, month := range months {
			actual := observe(c.Type, month)
			breached := actual != nil && isBreach(c.Type, *actual, c.Threshold)
			if breached {
				consecutive++
			} else {
				consecutive = 0
			}

			status := domain.CovenantStatus{
				CovenantID:          c.ID,
				Month:               month.Month,
				YearIndex:           month.YearIndex,
				ActualValue:         actual,
				Threshold:           c.Threshold,
				Breached:            breached,
				ConsecutiveBreaches: consecutive,
				Passed:              consecutive <= c.GracePeriodMonths,
				Severity:            severity(c, actual, breached, consecutive),
			}
			statuses = append(statuses, status)

			if breached {
				summary.BreachMonths++
			}
			if !status.Passed {
				summary.FailingMonths++
				if summary.FirstFailureMonth == nil {
					summary.FirstFailureMonth = domain.Int(month.Month)
				}
			}
			if actual != nil && (summary.WorstValue == nil || isWorse(c.Type, *actual, *summary.WorstValue)) {
				summary.WorstValue = domain.Float(*actual)
			}
			if rank(status.Severity) > rank(summary.WorstSeverity) {
				summary.WorstSeverity = status.Severity
			}
		}

		if summary.FailingMonths > 0 {
			m.log.Debug().
				Str("covenant", c.ID).
				Int("failing_months", summary.FailingMonths).
				Int("first_failure", *summary.FirstFailureMonth).
				Msg("Covenant failed")
		}
		summaries = append(summaries, summary)
	}

	return statuses, summaries, nil
}

func observe(t domain.CovenantType, month domain.MonthlyDebtKPI) *float64 {
	switch t {
	case domain.CovenantMinDSCR:
		return month.DSCR
	case domain.CovenantMaxLTV:
		return month.LTV
	case domain.CovenantMinCash:
		return domain.Float(month.CashPosition)
	}
	return nil
}

func isBreach(t domain.CovenantType, actual, threshold float64) bool {
	if t == domain.CovenantMaxLTV {
		return actual > threshold
	}
	return actual < threshold
}

func isWorse(t domain.CovenantType, candidate, current float64) bool {
	if t == domain.CovenantMaxLTV {
		return candidate > current
	}
	return candidate < current
}

func severity(c domain.Covenant, actual *float64, breached bool, consecutive int) domain.Severity {
	if !breached {
		return domain.SeverityOK
	}
	if consecutive <= c.GracePeriodMonths {
		return domain.SeverityWarning
	}
	if c.Severity == domain.SeverityCritical {
		return domain.SeverityCritical
	}

	margin := DefaultCriticalMargin
	if c.CriticalMargin != nil {
		margin = *c.CriticalMargin
	}
	deviation := math.Inf(1)
	if c.Threshold != 0 {
		deviation = math.Abs(*actual-c.Threshold) / math.Abs(c.Threshold)
	}
	if deviation >= margin {
		return domain.SeverityCritical
	}
	return domain.SeverityWarning
}

func rank(s domain.Severity) int {
	switch s {
	case domain.SeverityCritical:
		return 2
	case domain.SeverityWarning:
		return 1
	default:
		return 0
	}
}
