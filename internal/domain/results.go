package domain

// Warning is a non-fatal observation attached to a successful result.
type Warning struct {
	Code      string `json:"code" msgpack:"code"`
	Message   string `json:"message" msgpack:"message"`
	YearIndex *int   `json:"yearIndex,omitempty" msgpack:"yearIndex,omitempty"`
}

// Warning codes emitted by the engine.
const (
	WarnNegativeBalance       = "negative_balance_floored"
	WarnTerminalValue         = "terminal_value_undefined"
	WarnUndistributedCash     = "undistributed_cash"
	WarnReconciliation        = "reconciliation_drift"
	WarnIterationFailed       = "iteration_failed"
	WarnCorrelationRegularize = "correlation_regularized"
	WarnNoContributions       = "no_contributions"
)

// DebtScheduleEntry is one year of a tranche or of the aggregated schedule.
// Principal is scheduled amortization plus any balloon or bullet at maturity. Repayment is
// principal paid off early by a refinance or the exit, funded by new money or sale proceeds.
type DebtScheduleEntry struct {
	YearIndex        int     `json:"yearIndex" msgpack:"yearIndex"`
	BeginningBalance float64 `json:"beginningBalance" msgpack:"beginningBalance"`
	Interest         float64 `json:"interest" msgpack:"interest"`
	Principal        float64 `json:"principal" msgpack:"principal"`
	Repayment        float64 `json:"repayment" msgpack:"repayment"`
	Proceeds         float64 `json:"proceeds" msgpack:"proceeds"`
	Fees             float64 `json:"fees" msgpack:"fees"`
	EndingBalance    float64 `json:"endingBalance" msgpack:"endingBalance"`
}

// DebtService is interest plus scheduled principal. Refinance and exit payoffs are excluded.
func (e DebtScheduleEntry) DebtService() float64 {
	return e.Interest + e.Principal
}

// TrancheSchedule is the per-year schedule of one tranche.
type TrancheSchedule struct {
	TrancheID string              `json:"trancheId" msgpack:"trancheId"`
	Label     string              `json:"label,omitempty" msgpack:"label,omitempty"`
	Entries   []DebtScheduleEntry `json:"entries" msgpack:"entries"`
}

// LeveredFcf is one year of the levered cash-flow bridge.
type LeveredFcf struct {
	YearIndex           int     `json:"yearIndex" msgpack:"yearIndex"`
	UnleveredFcf        float64 `json:"unleveredFcf" msgpack:"unleveredFcf"`
	DebtService         float64 `json:"debtService" msgpack:"debtService"`
	Interest            float64 `json:"interest" msgpack:"interest"`
	Principal           float64 `json:"principal" msgpack:"principal"`
	Repayment           float64 `json:"repayment" msgpack:"repayment"`
	DebtProceeds        float64 `json:"debtProceeds" msgpack:"debtProceeds"`
	TransactionCosts    float64 `json:"transactionCosts" msgpack:"transactionCosts"`
	LeveredFreeCashFlow float64 `json:"leveredFreeCashFlow" msgpack:"leveredFreeCashFlow"`
}

// DebtKPIs summarises the capital stack.
type DebtKPIs struct {
	TotalDebt           float64    `json:"totalDebt" msgpack:"totalDebt"`
	InitialInvestment   float64    `json:"initialInvestment" msgpack:"initialInvestment"`
	EquityRequired      float64    `json:"equityRequired" msgpack:"equityRequired"`
	InitialLTV          *float64   `json:"initialLtv" msgpack:"initialLtv"`
	WeightedAverageRate float64    `json:"weightedAverageRate" msgpack:"weightedAverageRate"`
	MinDSCR             *float64   `json:"minDscr" msgpack:"minDscr"`
	AverageDSCR         *float64   `json:"averageDscr" msgpack:"averageDscr"`
	DebtYield           *float64   `json:"debtYield" msgpack:"debtYield"`
	DSCRByYear          []*float64 `json:"dscrByYear" msgpack:"dscrByYear"`
	TotalInterest       float64    `json:"totalInterest" msgpack:"totalInterest"`
	TotalFees           float64    `json:"totalFees" msgpack:"totalFees"`
}

// MonthlyDebtKPI is one month of the covenant view of the schedule.
type MonthlyDebtKPI struct {
	Month         int      `json:"month" msgpack:"month"`
	YearIndex     int      `json:"yearIndex" msgpack:"yearIndex"`
	NOI           float64  `json:"noi" msgpack:"noi"`
	DebtService   float64  `json:"debtService" msgpack:"debtService"`
	EndingBalance float64  `json:"endingBalance" msgpack:"endingBalance"`
	DSCR          *float64 `json:"dscr" msgpack:"dscr"`
	LTV           *float64 `json:"ltv" msgpack:"ltv"`
	CashPosition  float64  `json:"cashPosition" msgpack:"cashPosition"`
}

// CovenantStatus is the evaluation of one covenant in one month.
type CovenantStatus struct {
	CovenantID          string   `json:"covenantId" msgpack:"covenantId"`
	Month               int      `json:"month" msgpack:"month"`
	YearIndex           int      `json:"yearIndex" msgpack:"yearIndex"`
	ActualValue         *float64 `json:"actualValue" msgpack:"actualValue"`
	Threshold           float64  `json:"threshold" msgpack:"threshold"`
	Breached            bool     `json:"breached" msgpack:"breached"`
	ConsecutiveBreaches int      `json:"consecutiveBreaches" msgpack:"consecutiveBreaches"`
	Passed              bool     `json:"passed" msgpack:"passed"`
	Severity            Severity `json:"severity" msgpack:"severity"`
}

// CovenantSummary condenses the monthly statuses of one covenant.
type CovenantSummary struct {
	CovenantID        string       `json:"covenantId" msgpack:"covenantId"`
	Type              CovenantType `json:"type" msgpack:"type"`
	BreachMonths      int          `json:"breachMonths" msgpack:"breachMonths"`
	FailingMonths     int          `json:"failingMonths" msgpack:"failingMonths"`
	FirstFailureMonth *int         `json:"firstFailureMonth" msgpack:"firstFailureMonth"`
	WorstValue        *float64     `json:"worstValue" msgpack:"worstValue"`
	WorstSeverity     Severity     `json:"worstSeverity" msgpack:"worstSeverity"`
}

// CapitalEngineResult is the debt side output of a pipeline run.
type CapitalEngineResult struct {
	Schedule              []DebtScheduleEntry `json:"schedule" msgpack:"schedule"`
	Tranches              []TrancheSchedule   `json:"tranches" msgpack:"tranches"`
	LeveredFcf            []LeveredFcf        `json:"leveredFcf" msgpack:"leveredFcf"`
	OwnerLeveredCashFlows []float64           `json:"ownerLeveredCashFlows" msgpack:"ownerLeveredCashFlows"`
	DebtKPIs              DebtKPIs            `json:"debtKpis" msgpack:"debtKpis"`
	MonthlyDebtKPIs       []MonthlyDebtKPI    `json:"monthlyDebtKpis,omitempty" msgpack:"monthlyDebtKpis,omitempty"`
	CovenantStatuses      []CovenantStatus    `json:"covenantStatuses,omitempty" msgpack:"covenantStatuses,omitempty"`
	CovenantSummaries     []CovenantSummary   `json:"covenantSummaries,omitempty" msgpack:"covenantSummaries,omitempty"`
}

// AnnualWaterfallRow is one year of the waterfall.
type AnnualWaterfallRow struct {
	YearIndex            int                           `json:"yearIndex" msgpack:"yearIndex"`
	OwnerCashFlow        float64                       `json:"ownerCashFlow" msgpack:"ownerCashFlow"`
	PartnerDistributions map[string]float64            `json:"partnerDistributions" msgpack:"partnerDistributions"`
	ClawbackAdjustments  map[string]float64            `json:"clawbackAdjustments,omitempty" msgpack:"clawbackAdjustments,omitempty"`
	TierDistributions    map[string]map[string]float64 `json:"tierDistributions,omitempty" msgpack:"tierDistributions,omitempty"`
}

// PartnerDistributionSeries is one partner's cash flows after clawback.
type PartnerDistributionSeries struct {
	PartnerID   string    `json:"partnerId" msgpack:"partnerId"`
	CashFlows   []float64 `json:"cashFlows" msgpack:"cashFlows"`
	Cumulative  []float64 `json:"cumulative" msgpack:"cumulative"`
	Contributed float64   `json:"contributed" msgpack:"contributed"`
	Distributed float64   `json:"distributed" msgpack:"distributed"`
	Clawback    float64   `json:"clawback" msgpack:"clawback"`
	IRR         *float64  `json:"irr" msgpack:"irr"`
	MOIC        *float64  `json:"moic" msgpack:"moic"`
}

// WaterfallResult is the equity side output of a pipeline run.
type WaterfallResult struct {
	Rows     []AnnualWaterfallRow        `json:"rows" msgpack:"rows"`
	Partners []PartnerDistributionSeries `json:"partners" msgpack:"partners"`
	Warnings []Warning                   `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
}

// ValuationResult is the discounted cash-flow view of the project.
type ValuationResult struct {
	WACC            float64  `json:"wacc" msgpack:"wacc"`
	CostOfEquity    float64  `json:"costOfEquity" msgpack:"costOfEquity"`
	CostOfDebt      float64  `json:"costOfDebt" msgpack:"costOfDebt"`
	EquityWeight    float64  `json:"equityWeight" msgpack:"equityWeight"`
	DebtWeight      float64  `json:"debtWeight" msgpack:"debtWeight"`
	NPVExTerminal   float64  `json:"npvExTerminal" msgpack:"npvExTerminal"`
	TerminalValue   *float64 `json:"terminalValue" msgpack:"terminalValue"`
	PVTerminalValue *float64 `json:"pvTerminalValue" msgpack:"pvTerminalValue"`
	NPV             float64  `json:"npv" msgpack:"npv"`
	EnterpriseValue float64  `json:"enterpriseValue" msgpack:"enterpriseValue"`
	UnleveredIRR    *float64 `json:"unleveredIrr" msgpack:"unleveredIrr"`
	LeveredIRR      *float64 `json:"leveredIrr" msgpack:"leveredIrr"`
	EquityMultiple  *float64 `json:"equityMultiple" msgpack:"equityMultiple"`
	PaybackPeriod   *float64 `json:"paybackPeriod" msgpack:"paybackPeriod"`
	LeveredPayback  *float64 `json:"leveredPaybackPeriod" msgpack:"leveredPaybackPeriod"`
}

// KPISnapshot is the compact per-run summary used by Monte Carlo.
type KPISnapshot struct {
	NPV            float64  `json:"npv" msgpack:"npv"`
	UnleveredIRR   *float64 `json:"unleveredIrr" msgpack:"unleveredIrr"`
	LeveredIRR     *float64 `json:"leveredIrr" msgpack:"leveredIrr"`
	MOIC           *float64 `json:"moic" msgpack:"moic"`
	EquityMultiple *float64 `json:"equityMultiple" msgpack:"equityMultiple"`
	WACC           float64  `json:"wacc" msgpack:"wacc"`
}

// PipelineResult is the complete output of one pipeline run.
type PipelineResult struct {
	ScenarioName string              `json:"scenarioName" msgpack:"scenarioName"`
	Capital      CapitalEngineResult `json:"capital" msgpack:"capital"`
	Valuation    ValuationResult     `json:"valuation" msgpack:"valuation"`
	Waterfall    *WaterfallResult    `json:"waterfall,omitempty" msgpack:"waterfall,omitempty"`
	KPIs         KPISnapshot         `json:"kpis" msgpack:"kpis"`
	Warnings     []Warning           `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
}

// KPIStatistics aggregates one KPI across Monte Carlo iterations.
type KPIStatistics struct {
	Count  int     `json:"count" msgpack:"count"`
	Mean   float64 `json:"mean" msgpack:"mean"`
	StdDev float64 `json:"stdDev" msgpack:"stdDev"`
	Min    float64 `json:"min" msgpack:"min"`
	Max    float64 `json:"max" msgpack:"max"`
	P10    float64 `json:"p10" msgpack:"p10"`
	P50    float64 `json:"p50" msgpack:"p50"`
	P90    float64 `json:"p90" msgpack:"p90"`
	// TailMean is the mean of the worst decile.
	TailMean float64 `json:"tailMean" msgpack:"tailMean"`
}

// IterationResult is one successful Monte Carlo iteration.
type IterationResult struct {
	Index int                `json:"index" msgpack:"index"`
	Draws map[string]float64 `json:"draws" msgpack:"draws"`
	KPIs  KPISnapshot        `json:"kpis" msgpack:"kpis"`
}

// MonteCarloResult is the output of a simulation batch.
type MonteCarloResult struct {
	RequestedIterations int                      `json:"requestedIterations" msgpack:"requestedIterations"`
	Completed           int                      `json:"completed" msgpack:"completed"`
	Failed              int                      `json:"failed" msgpack:"failed"`
	Cancelled           bool                     `json:"cancelled" msgpack:"cancelled"`
	BaseCase            KPISnapshot              `json:"baseCase" msgpack:"baseCase"`
	Iterations          []IterationResult        `json:"iterations" msgpack:"iterations"`
	Statistics          map[string]KPIStatistics `json:"statistics" msgpack:"statistics"`
	Warnings            []Warning                `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
}
