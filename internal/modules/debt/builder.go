// Package debt turns a multi-tranche capital structure into yearly debt schedules and
// the levered free cash flow seen by the equity.
//
// Year 0 is the acquisition year. A tranche is drawn in its start year and serviced in the
// following TermYears project years, truncated at the horizon.
package debt

import (
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/pkg/formulas"
	"github.com/rs/zerolog"
)

// balanceTolerance is the overshoot below which a negative balance is treated as rounding.
const balanceTolerance = 0.01

// Result is the output of one schedule build.
type Result struct {
	Tranches   []domain.TrancheSchedule
	Schedule   []domain.DebtScheduleEntry
	LeveredFcf []domain.LeveredFcf
	Warnings   []domain.Warning
}

// OwnerCashFlows returns the levered free cash flow series.
func (r *Result) OwnerCashFlows() []float64 {
	out := make([]float64, len(r.LeveredFcf))
	for i, row := range r.LeveredFcf {
		out[i] = row.LeveredFreeCashFlow
	}
	return out
}

// Builder builds debt schedules.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new debt schedule builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "debt_builder").Logger(),
	}
}

// Build validates the capital structure and produces the per-tranche and aggregated
// schedules plus the levered cash-flow bridge.
//
// Parameters:
//   - capital: Tranches and exit behaviour
//   - inputs: Project cash flows; the unlevered series defines the horizon
//
// Returns:
//   - *Result: Schedules, levered cash flow and warnings
//   - error: *domain.Error with code validation_failed when the structure is invalid
func (b *Builder) Build(capital domain.CapitalStructureConfig, inputs domain.ProjectInputs) (*Result, error) {
	horizon := inputs.Horizon()
	if err := Validate(capital, horizon).Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Tranches: make([]domain.TrancheSchedule, 0, len(capital.Tranches)),
	}

	for _, t := range capital.Tranches {
		entries, warnings := scheduleTranche(t, horizon, capital.RepayAtExit)
		result.Tranches = append(result.Tranches, domain.TrancheSchedule{
			TrancheID: t.ID,
			Label:     t.Label,
			Entries:   entries,
		})
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Schedule = aggregate(result.Tranches, horizon)
	result.LeveredFcf = leveredBridge(inputs.UnleveredFcf, result.Schedule)

	b.log.Debug().
		Int("tranches", len(capital.Tranches)).
		Int("horizon", horizon).
		Int("warnings", len(result.Warnings)).
		Msg("Built debt schedule")

	return result, nil
}

// scheduleTranche produces entries for every project year 0..horizon.
func scheduleTranche(t domain.DebtTranche, horizon int, repayAtExit bool) ([]domain.DebtScheduleEntry, []domain.Warning) {
	entries := make([]domain.DebtScheduleEntry, horizon+1)
	for y := range entries {
		entries[y].YearIndex = y
	}

	start := t.EffectiveStartYear()
	if start > horizon {
		return entries, nil
	}

	var warnings []domain.Warning

	amortYears := t.TermYears
	if t.AmortizationYears != nil {
		amortYears = *t.AmortizationYears
	}
	ioYears := 0
	if t.Amortization == domain.AmortizationInterestOnly && t.IOYears != nil {
		ioYears = *t.IOYears
	}

	draw := &entries[start]
	draw.Proceeds = t.Principal
	draw.Fees = t.Principal * t.OriginationFeePct
	draw.EndingBalance = t.Principal

	balance := t.Principal
	payment := 0.0
	needPayment := true
	maturity := start + t.TermYears

	for y := start + 1; y <= horizon && y <= maturity; y++ {
		k := y - start
		e := &entries[y]
		e.BeginningBalance = balance
		e.Interest = balance * t.Rate

		scheduled := 0.0
		switch t.Amortization {
		case domain.AmortizationMortgage:
			if needPayment {
				payment = formulas.AnnuityPayment(balance, t.Rate, amortYears-(k-1))
				needPayment = false
			}
			scheduled = payment - e.Interest
		case domain.AmortizationInterestOnly:
			if k > ioYears && t.AmortizationYears != nil {
				if needPayment {
					payment = formulas.AnnuityPayment(balance, t.Rate, amortYears-(k-1))
					needPayment = false
				}
				scheduled = payment - e.Interest
			}
		case domain.AmortizationBullet:
		}
		if scheduled < 0 {
			scheduled = 0
		}
		if scheduled > balance {
			if scheduled-balance > balanceTolerance {
				warnings = append(warnings, negativeBalanceWarning(t.ID, y))
			}
			scheduled = balance
		}
		e.Principal = scheduled
		balance -= scheduled

		if k == t.TermYears && balance > 0 {
			// Balloon or bullet repayment at maturity.
			e.Principal += balance
			e.Fees += balance * t.ExitFeePct
			balance = 0
		}

		if t.RefinanceAtYear != nil && y == *t.RefinanceAtYear {
			pct := 1.0
			if t.RefinanceAmountPct != nil {
				pct = *t.RefinanceAmountPct
			}
			repaid := balance * pct
			e.Repayment += repaid
			e.Fees += repaid * t.ExitFeePct
			balance -= repaid

			newMoney := repaid
			if t.RefinancePrincipal != nil {
				newMoney = *t.RefinancePrincipal
			}
			e.Proceeds += newMoney
			e.Fees += newMoney * t.OriginationFeePct
			balance += newMoney
			needPayment = true
		}

		if balance < 0 {
			if -balance > balanceTolerance {
				warnings = append(warnings, negativeBalanceWarning(t.ID, y))
			}
			balance = 0
		}
		e.EndingBalance = balance
	}

	if repayAtExit && horizon < maturity && balance > 0 {
		e := &entries[horizon]
		e.Repayment += balance
		e.Fees += balance * t.ExitFeePct
		e.EndingBalance = 0
	}

	return entries, warnings
}

func negativeBalanceWarning(trancheID string, year int) domain.Warning {
	return domain.Warning{
		Code:      domain.WarnNegativeBalance,
		Message:   "tranche " + trancheID + " balance went negative and was floored at 0",
		YearIndex: domain.Int(year),
	}
}

// aggregate sums the tranche schedules year by year.
func aggregate(tranches []domain.TrancheSchedule, horizon int) []domain.DebtScheduleEntry {
	out := make([]domain.DebtScheduleEntry, horizon+1)
	for y := range out {
		out[y].YearIndex = y
		for _, ts := range tranches {
			e := ts.Entries[y]
			out[y].BeginningBalance += e.BeginningBalance
			out[y].Interest += e.Interest
			out[y].Principal += e.Principal
			out[y].Repayment += e.Repayment
			out[y].Proceeds += e.Proceeds
			out[y].Fees += e.Fees
			out[y].EndingBalance += e.EndingBalance
		}
	}
	return out
}

// leveredBridge applies debt flows to the unlevered series.
func leveredBridge(unlevered []float64, schedule []domain.DebtScheduleEntry) []domain.LeveredFcf {
	out := make([]domain.LeveredFcf, len(unlevered))
	for y, fcf := range unlevered {
		e := schedule[y]
		ds := e.DebtService()
		out[y] = domain.LeveredFcf{
			YearIndex:           y,
			UnleveredFcf:        fcf,
			DebtService:         ds,
			Interest:            e.Interest,
			Principal:           e.Principal,
			Repayment:           e.Repayment,
			DebtProceeds:        e.Proceeds,
			TransactionCosts:    e.Fees,
			LeveredFreeCashFlow: fcf + e.Proceeds - ds - e.Repayment - e.Fees,
		}
	}
	return out
}
