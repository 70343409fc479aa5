// Package domain provides the plain value types shared by the capital engine modules.
//
// Every type here is data only: the engine never mutates an input, and every
// run produces wholly new output structures, so values can be round-tripped
// through JSON, YAML or msgpack without loss.
package domain

// AmortizationStyle selects how a tranche repays principal.
type AmortizationStyle string

const (
	AmortizationInterestOnly AmortizationStyle = "interest_only"
	AmortizationMortgage     AmortizationStyle = "mortgage"
	AmortizationBullet       AmortizationStyle = "bullet"
)

// DebtTranche is one loan in the capital stack.
// Optional fields are pointers; nil means "not configured".
type DebtTranche struct {
	ID                 string            `json:"id" yaml:"id" msgpack:"id" validate:"required"`
	Label              string            `json:"label,omitempty" yaml:"label,omitempty" msgpack:"label,omitempty"`
	Seniority          int               `json:"seniority" yaml:"seniority" msgpack:"seniority"`
	Principal          float64           `json:"principal" yaml:"principal" msgpack:"principal" validate:"gte=0"`
	Rate               float64           `json:"rate" yaml:"rate" msgpack:"rate" validate:"gte=0,lte=1"`
	Amortization       AmortizationStyle `json:"amortization" yaml:"amortization" msgpack:"amortization" validate:"required,oneof=interest_only mortgage bullet"`
	TermYears          int               `json:"termYears" yaml:"termYears" msgpack:"termYears" validate:"gte=1"`
	IOYears            *int              `json:"ioYears,omitempty" yaml:"ioYears,omitempty" msgpack:"ioYears,omitempty" validate:"omitempty,gte=0"`
	AmortizationYears  *int              `json:"amortizationYears,omitempty" yaml:"amortizationYears,omitempty" msgpack:"amortizationYears,omitempty" validate:"omitempty,gte=1"`
	StartYear          *int              `json:"startYear,omitempty" yaml:"startYear,omitempty" msgpack:"startYear,omitempty" validate:"omitempty,gte=0"`
	RefinanceAtYear    *int              `json:"refinanceAtYear,omitempty" yaml:"refinanceAtYear,omitempty" msgpack:"refinanceAtYear,omitempty" validate:"omitempty,gte=1"`
	RefinanceAmountPct *float64          `json:"refinanceAmountPct,omitempty" yaml:"refinanceAmountPct,omitempty" msgpack:"refinanceAmountPct,omitempty" validate:"omitempty,gte=0,lte=1"`
	RefinancePrincipal *float64          `json:"refinancePrincipal,omitempty" yaml:"refinancePrincipal,omitempty" msgpack:"refinancePrincipal,omitempty" validate:"omitempty,gte=0"`
	OriginationFeePct  float64           `json:"originationFeePct,omitempty" yaml:"originationFeePct,omitempty" msgpack:"originationFeePct,omitempty" validate:"gte=0,lte=1"`
	ExitFeePct         float64           `json:"exitFeePct,omitempty" yaml:"exitFeePct,omitempty" msgpack:"exitFeePct,omitempty" validate:"gte=0,lte=1"`
}

// EffectiveStartYear returns the project year the tranche is drawn in.
func (t DebtTranche) EffectiveStartYear() int {
	if t.StartYear == nil {
		return 0
	}
	return *t.StartYear
}

// ProjectConfig holds the project-level valuation parameters.
type ProjectConfig struct {
	DiscountRate       float64  `json:"discountRate" yaml:"discountRate" msgpack:"discountRate" validate:"gt=-1"`
	TerminalGrowthRate float64  `json:"terminalGrowthRate" yaml:"terminalGrowthRate" msgpack:"terminalGrowthRate" validate:"gt=-1"`
	TaxRate            float64  `json:"taxRate" yaml:"taxRate" msgpack:"taxRate" validate:"gte=0,lte=1"`
	CostOfEquity       *float64 `json:"costOfEquity,omitempty" yaml:"costOfEquity,omitempty" msgpack:"costOfEquity,omitempty"`
	InitialInvestment  *float64 `json:"initialInvestment,omitempty" yaml:"initialInvestment,omitempty" msgpack:"initialInvestment,omitempty" validate:"omitempty,gte=0"`
}

// ProjectInputs is the cash-flow series produced upstream by the operation engines.
// Index 0 is the acquisition year; indices 1..N are operating years.
type ProjectInputs struct {
	UnleveredFcf []float64 `json:"unleveredFcf" yaml:"unleveredFcf" msgpack:"unleveredFcf" validate:"min=1"`
	NOI          []float64 `json:"noi,omitempty" yaml:"noi,omitempty" msgpack:"noi,omitempty"`
	MonthlyNOI   []float64 `json:"monthlyNoi,omitempty" yaml:"monthlyNoi,omitempty" msgpack:"monthlyNoi,omitempty"`
}

// Horizon returns the last year index of the series.
func (in ProjectInputs) Horizon() int {
	return len(in.UnleveredFcf) - 1
}

// NOIAt returns the NOI of year t, falling back to the unlevered cash flow
// when no separate NOI series was supplied.
func (in ProjectInputs) NOIAt(t int) float64 {
	if t < len(in.NOI) {
		return in.NOI[t]
	}
	if t < len(in.UnleveredFcf) {
		return in.UnleveredFcf[t]
	}
	return 0
}

// CapitalStructureConfig is the debt side of the capital stack.
type CapitalStructureConfig struct {
	Tranches    []DebtTranche `json:"tranches" yaml:"tranches" msgpack:"tranches" validate:"dive"`
	RepayAtExit bool          `json:"repayAtExit,omitempty" yaml:"repayAtExit,omitempty" msgpack:"repayAtExit,omitempty"`
	OpeningCash float64       `json:"openingCash,omitempty" yaml:"openingCash,omitempty" msgpack:"openingCash,omitempty"`
}

// EquityClass is one partner in the equity waterfall.
type EquityClass struct {
	ID              string  `json:"id" yaml:"id" msgpack:"id" validate:"required"`
	Name            string  `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	ContributionPct float64 `json:"contributionPct" yaml:"contributionPct" msgpack:"contributionPct" validate:"gte=0,lte=1"`
}

// TierType tags a waterfall tier.
type TierType string

const (
	TierReturnOfCapital TierType = "return_of_capital"
	TierPreferredReturn TierType = "preferred_return"
	TierPromote         TierType = "promote"
)

// ClawbackTrigger selects when a clawback is evaluated.
type ClawbackTrigger string

const (
	ClawbackFinalPeriod ClawbackTrigger = "final_period"
	ClawbackAnnual      ClawbackTrigger = "annual"
)

// ClawbackMethod selects how the clawback target is computed.
type ClawbackMethod string

const (
	ClawbackHypotheticalLiquidation ClawbackMethod = "hypothetical_liquidation"
	ClawbackLookback                ClawbackMethod = "lookback"
)

// WaterfallTier is one ordered allocation rule.
type WaterfallTier struct {
	ID                 string             `json:"id" yaml:"id" msgpack:"id" validate:"required"`
	Type               TierType           `json:"type" yaml:"type" msgpack:"type" validate:"required,oneof=return_of_capital preferred_return promote"`
	DistributionSplits map[string]float64 `json:"distributionSplits,omitempty" yaml:"distributionSplits,omitempty" msgpack:"distributionSplits,omitempty"`
	HurdleIRR          *float64           `json:"hurdleIrr,omitempty" yaml:"hurdleIrr,omitempty" msgpack:"hurdleIrr,omitempty"`
	PrefRate           *float64           `json:"prefRate,omitempty" yaml:"prefRate,omitempty" msgpack:"prefRate,omitempty"`
	CompoundPref       bool               `json:"compoundPref,omitempty" yaml:"compoundPref,omitempty" msgpack:"compoundPref,omitempty"`
	EnableCatchUp      bool               `json:"enableCatchUp,omitempty" yaml:"enableCatchUp,omitempty" msgpack:"enableCatchUp,omitempty"`
	CatchUpPartnerID   string             `json:"catchUpPartnerId,omitempty" yaml:"catchUpPartnerId,omitempty" msgpack:"catchUpPartnerId,omitempty"`
	CatchUpTargetSplit *float64           `json:"catchUpTargetSplit,omitempty" yaml:"catchUpTargetSplit,omitempty" msgpack:"catchUpTargetSplit,omitempty"`
	CatchUpRate        *float64           `json:"catchUpRate,omitempty" yaml:"catchUpRate,omitempty" msgpack:"catchUpRate,omitempty"`
	EnableClawback     bool               `json:"enableClawback,omitempty" yaml:"enableClawback,omitempty" msgpack:"enableClawback,omitempty"`
	ClawbackTrigger    ClawbackTrigger    `json:"clawbackTrigger,omitempty" yaml:"clawbackTrigger,omitempty" msgpack:"clawbackTrigger,omitempty"`
	ClawbackMethod     ClawbackMethod     `json:"clawbackMethod,omitempty" yaml:"clawbackMethod,omitempty" msgpack:"clawbackMethod,omitempty"`
}

// WaterfallConfig lists the partners and the tiers in evaluation order.
type WaterfallConfig struct {
	EquityClasses []EquityClass   `json:"equityClasses" yaml:"equityClasses" msgpack:"equityClasses" validate:"min=1,dive"`
	Tiers         []WaterfallTier `json:"tiers" yaml:"tiers" msgpack:"tiers" validate:"min=1,dive"`
}

// CovenantType tags a covenant rule.
type CovenantType string

const (
	CovenantMinDSCR CovenantType = "min_dscr"
	CovenantMaxLTV  CovenantType = "max_ltv"
	CovenantMinCash CovenantType = "min_cash"
)

// Severity grades a covenant observation.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Covenant is a threshold rule evaluated monthly.
type Covenant struct {
	ID                string       `json:"id" yaml:"id" msgpack:"id" validate:"required"`
	Name              string       `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Type              CovenantType `json:"type" yaml:"type" msgpack:"type" validate:"required,oneof=min_dscr max_ltv min_cash"`
	Threshold         float64      `json:"threshold" yaml:"threshold" msgpack:"threshold"`
	GracePeriodMonths int          `json:"gracePeriodMonths,omitempty" yaml:"gracePeriodMonths,omitempty" msgpack:"gracePeriodMonths,omitempty" validate:"gte=0"`
	Severity          Severity     `json:"severity,omitempty" yaml:"severity,omitempty" msgpack:"severity,omitempty" validate:"omitempty,oneof=warning critical"`
	CriticalMargin    *float64     `json:"criticalMargin,omitempty" yaml:"criticalMargin,omitempty" msgpack:"criticalMargin,omitempty" validate:"omitempty,gte=0"`
}

// DistributionType tags a Monte Carlo marginal distribution.
type DistributionType string

const (
	DistributionNormal    DistributionType = "normal"
	DistributionLognormal DistributionType = "lognormal"
	DistributionPERT      DistributionType = "pert"
)

// VariableTarget names the scenario input a stochastic variable drives.
type VariableTarget string

const (
	TargetOccupancy      VariableTarget = "occupancy"
	TargetADR            VariableTarget = "adr"
	TargetNOI            VariableTarget = "noi"
	TargetInterestRate   VariableTarget = "interest_rate"
	TargetDiscountRate   VariableTarget = "discount_rate"
	TargetTerminalGrowth VariableTarget = "terminal_growth"
)

// StochasticVariable describes one sampled driver.
type StochasticVariable struct {
	Name         string           `json:"name" yaml:"name" msgpack:"name" validate:"required"`
	Target       VariableTarget   `json:"target" yaml:"target" msgpack:"target" validate:"required,oneof=occupancy adr noi interest_rate discount_rate terminal_growth"`
	Distribution DistributionType `json:"distribution" yaml:"distribution" msgpack:"distribution" validate:"required,oneof=normal lognormal pert"`
	Base         float64          `json:"base" yaml:"base" msgpack:"base"`
	Mean         float64          `json:"mean,omitempty" yaml:"mean,omitempty" msgpack:"mean,omitempty"`
	StdDev       float64          `json:"stdDev,omitempty" yaml:"stdDev,omitempty" msgpack:"stdDev,omitempty" validate:"gte=0"`
	Min          float64          `json:"min,omitempty" yaml:"min,omitempty" msgpack:"min,omitempty"`
	Mode         float64          `json:"mode,omitempty" yaml:"mode,omitempty" msgpack:"mode,omitempty"`
	Max          float64          `json:"max,omitempty" yaml:"max,omitempty" msgpack:"max,omitempty"`
}

// MonteCarloConfig configures a simulation batch.
type MonteCarloConfig struct {
	Iterations  int                  `json:"iterations" yaml:"iterations" msgpack:"iterations" validate:"gte=0"`
	Seed        uint64               `json:"seed" yaml:"seed" msgpack:"seed"`
	Workers     int                  `json:"workers,omitempty" yaml:"workers,omitempty" msgpack:"workers,omitempty" validate:"gte=0"`
	Variables   []StochasticVariable `json:"variables" yaml:"variables" msgpack:"variables" validate:"dive"`
	Correlation [][]float64          `json:"correlation,omitempty" yaml:"correlation,omitempty" msgpack:"correlation,omitempty"`
}

// Scenario is the full input of one pipeline run.
type Scenario struct {
	Name       string                 `json:"name" yaml:"name" msgpack:"name"`
	Project    ProjectConfig          `json:"project" yaml:"project" msgpack:"project"`
	Inputs     ProjectInputs          `json:"inputs" yaml:"inputs" msgpack:"inputs"`
	Capital    CapitalStructureConfig `json:"capital" yaml:"capital" msgpack:"capital"`
	Waterfall  *WaterfallConfig       `json:"waterfall,omitempty" yaml:"waterfall,omitempty" msgpack:"waterfall,omitempty"`
	Covenants  []Covenant             `json:"covenants,omitempty" yaml:"covenants,omitempty" msgpack:"covenants,omitempty" validate:"dive"`
	MonteCarlo *MonteCarloConfig      `json:"monteCarlo,omitempty" yaml:"monteCarlo,omitempty" msgpack:"monteCarlo,omitempty"`
}
