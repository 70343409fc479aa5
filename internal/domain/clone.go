package domain

// Clone returns a deep copy of the scenario so callers can mutate it freely.
func (s Scenario) Clone() Scenario {
	out := s
	out.Project.CostOfEquity = cloneFloat(s.Project.CostOfEquity)
	out.Project.InitialInvestment = cloneFloat(s.Project.InitialInvestment)

	out.Inputs.UnleveredFcf = cloneFloats(s.Inputs.UnleveredFcf)
	out.Inputs.NOI = cloneFloats(s.Inputs.NOI)
	out.Inputs.MonthlyNOI = cloneFloats(s.Inputs.MonthlyNOI)

	if s.Capital.Tranches != nil {
		out.Capital.Tranches = make([]DebtTranche, len(s.Capital.Tranches))
		for i, t := range s.Capital.Tranches {
			out.Capital.Tranches[i] = t.Clone()
		}
	}

	if s.Waterfall != nil {
		wf := s.Waterfall.Clone()
		out.Waterfall = &wf
	}

	if s.Covenants != nil {
		out.Covenants = make([]Covenant, len(s.Covenants))
		for i, c := range s.Covenants {
			c.CriticalMargin = cloneFloat(c.CriticalMargin)
			out.Covenants[i] = c
		}
	}

	if s.MonteCarlo != nil {
		mc := *s.MonteCarlo
		mc.Variables = append([]StochasticVariable(nil), s.MonteCarlo.Variables...)
		if s.MonteCarlo.Correlation != nil {
			mc.Correlation = make([][]float64, len(s.MonteCarlo.Correlation))
			for i, row := range s.MonteCarlo.Correlation {
				mc.Correlation[i] = cloneFloats(row)
			}
		}
		out.MonteCarlo = &mc
	}

	return out
}

// Clone returns a deep copy of the tranche.
func (t DebtTranche) Clone() DebtTranche {
	out := t
	out.IOYears = cloneInt(t.IOYears)
	out.AmortizationYears = cloneInt(t.AmortizationYears)
	out.StartYear = cloneInt(t.StartYear)
	out.RefinanceAtYear = cloneInt(t.RefinanceAtYear)
	out.RefinanceAmountPct = cloneFloat(t.RefinanceAmountPct)
	out.RefinancePrincipal = cloneFloat(t.RefinancePrincipal)
	return out
}

// Clone returns a deep copy of the waterfall configuration.
func (w WaterfallConfig) Clone() WaterfallConfig {
	out := WaterfallConfig{
		EquityClasses: append([]EquityClass(nil), w.EquityClasses...),
	}
	if w.Tiers != nil {
		out.Tiers = make([]WaterfallTier, len(w.Tiers))
		for i, tier := range w.Tiers {
			c := tier
			if tier.DistributionSplits != nil {
				c.DistributionSplits = make(map[string]float64, len(tier.DistributionSplits))
				for k, v := range tier.DistributionSplits {
					c.DistributionSplits[k] = v
				}
			}
			c.HurdleIRR = cloneFloat(tier.HurdleIRR)
			c.PrefRate = cloneFloat(tier.PrefRate)
			c.CatchUpTargetSplit = cloneFloat(tier.CatchUpTargetSplit)
			c.CatchUpRate = cloneFloat(tier.CatchUpRate)
			out.Tiers[i] = c
		}
	}
	return out
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v. Handy for optional fields and nullable results.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
