// Package report renders pipeline and Monte Carlo results as plain-text tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/aristath/capstack/internal/domain"
	"github.com/leekchan/accounting"
)

// Options controls number formatting.
type Options struct {
	Currency  string
	Precision int
}

// DefaultOptions prints whole dollars.
func DefaultOptions() Options {
	return Options{Currency: "$", Precision: 0}
}

// Writer renders results.
type Writer struct {
	money accounting.Accounting
}

// NewWriter creates a report writer.
func NewWriter(opts Options) *Writer {
	return &Writer{
		money: accounting.Accounting{
			Symbol:         opts.Currency,
			Precision:      opts.Precision,
			Thousand:       ",",
			Decimal:        ".",
			Format:         "%s%v",
			FormatNegative: "-%s%v",
		},
	}
}

// Money formats an amount with the configured currency.
func (w *Writer) Money(v float64) string {
	return w.money.FormatMoney(v)
}

// Pipeline writes the full report of a pipeline run.
func (w *Writer) Pipeline(out io.Writer, r *domain.PipelineResult) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	p := &printer{w: tw}

	title := r.ScenarioName
	if title == "" {
		title = "scenario"
	}
	p.line("Capital stack report: %s", title)
	p.blank()

	w.kpis(p, r)
	w.debt(p, r.Capital)
	w.covenants(p, r.Capital.CovenantSummaries)
	if r.Waterfall != nil {
		w.waterfall(p, r.Waterfall)
	}
	warnings(p, r.Warnings)

	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

// MonteCarlo writes the distribution summary of a simulation batch.
func (w *Writer) MonteCarlo(out io.Writer, r *domain.MonteCarloResult) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	p := &printer{w: tw}

	status := "complete"
	if r.Cancelled {
		status = "cancelled"
	}
	p.line("Monte Carlo: %d/%d iterations (%d failed, %s)", r.Completed, r.RequestedIterations, r.Failed, status)
	p.blank()

	names := make([]string, 0, len(r.Statistics))
	for name := range r.Statistics {
		names = append(names, name)
	}
	sort.Strings(names)

	p.row("KPI", "count", "mean", "std dev", "p10", "p50", "p90", "worst 10%")
	for _, name := range names {
		s := r.Statistics[name]
		format := w.statFormatter(name)
		p.row(name, fmt.Sprint(s.Count), format(s.Mean), format(s.StdDev), format(s.P10), format(s.P50), format(s.P90), format(s.TailMean))
	}
	p.blank()
	warnings(p, r.Warnings)

	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

func (w *Writer) statFormatter(kpi string) func(float64) string {
	switch kpi {
	case "npv":
		return w.Money
	case "moic", "equityMultiple":
		return func(v float64) string { return fmt.Sprintf("%.2fx", v) }
	default:
		return percent
	}
}

func (w *Writer) kpis(p *printer, r *domain.PipelineResult) {
	v := r.Valuation
	p.line("Valuation")
	p.row("NPV", w.Money(v.NPV))
	p.row("NPV ex terminal", w.Money(v.NPVExTerminal))
	p.row("Enterprise value", w.Money(v.EnterpriseValue))
	p.row("Terminal value", w.optionalMoney(v.TerminalValue))
	p.row("WACC", percent(v.WACC))
	p.row("Cost of equity / debt", percent(v.CostOfEquity)+" / "+percent(v.CostOfDebt))
	p.row("Unlevered IRR", optionalPercent(v.UnleveredIRR))
	p.row("Levered IRR", optionalPercent(v.LeveredIRR))
	p.row("Equity multiple", optionalMultiple(v.EquityMultiple))
	p.row("MOIC", optionalMultiple(r.KPIs.MOIC))
	p.row("Payback (years)", optionalNumber(v.PaybackPeriod))
	p.blank()
}

func (w *Writer) debt(p *printer, c domain.CapitalEngineResult) {
	k := c.DebtKPIs
	p.line("Debt")
	p.row("Total debt", w.Money(k.TotalDebt))
	p.row("Equity required", w.Money(k.EquityRequired))
	p.row("Initial LTV", optionalPercent(k.InitialLTV))
	p.row("Weighted rate", percent(k.WeightedAverageRate))
	p.row("Min / avg DSCR", optionalNumber(k.MinDSCR)+" / "+optionalNumber(k.AverageDSCR))
	p.row("Debt yield", optionalPercent(k.DebtYield))
	p.blank()

	p.row("Year", "Unlevered", "Proceeds", "Interest", "Principal", "Repaid", "Fees", "Levered", "Balance")
	for i, lf := range c.LeveredFcf {
		balance := 0.0
		if i < len(c.Schedule) {
			balance = c.Schedule[i].EndingBalance
		}
		p.row(fmt.Sprint(lf.YearIndex), w.Money(lf.UnleveredFcf), w.Money(lf.DebtProceeds), w.Money(lf.Interest),
			w.Money(lf.Principal), w.Money(lf.Repayment), w.Money(lf.TransactionCosts), w.Money(lf.LeveredFreeCashFlow), w.Money(balance))
	}
	p.blank()
}

func (w *Writer) covenants(p *printer, summaries []domain.CovenantSummary) {
	if len(summaries) == 0 {
		return
	}
	p.line("Covenants")
	p.row("Covenant", "Type", "Breach months", "Failing months", "First failure", "Worst", "Severity")
	for _, s := range summaries {
		first := "-"
		if s.FirstFailureMonth != nil {
			first = fmt.Sprint(*s.FirstFailureMonth)
		}
		worst := optionalNumber(s.WorstValue)
		if s.Type == domain.CovenantMinCash && s.WorstValue != nil {
			worst = w.Money(*s.WorstValue)
		}
		p.row(s.CovenantID, string(s.Type), fmt.Sprint(s.BreachMonths), fmt.Sprint(s.FailingMonths), first, worst, string(s.WorstSeverity))
	}
	p.blank()
}

func (w *Writer) waterfall(p *printer, wf *domain.WaterfallResult) {
	p.line("Waterfall")
	p.row("Partner", "Contributed", "Distributed", "Clawback", "IRR", "MOIC")
	for _, s := range wf.Partners {
		p.row(s.PartnerID, w.Money(s.Contributed), w.Money(s.Distributed), w.Money(s.Clawback), optionalPercent(s.IRR), optionalMultiple(s.MOIC))
	}
	p.blank()
}

func warnings(p *printer, ws []domain.Warning) {
	if len(ws) == 0 {
		return
	}
	p.line("Warnings")
	for _, warning := range ws {
		if warning.YearIndex != nil {
			p.line("  [%s] year %d: %s", warning.Code, *warning.YearIndex, warning.Message)
			continue
		}
		p.line("  [%s] %s", warning.Code, warning.Message)
	}
}

func (w *Writer) optionalMoney(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return w.Money(*v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func optionalPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return percent(*v)
}

func optionalMultiple(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", *v)
}

func optionalNumber(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// printer keeps the first write error so callers check it once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) row(cells ...string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, strings.Join(cells, "\t")+"\t")
}

func (p *printer) blank() {
	p.line("")
}
