package pipeline

import (
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/covenants"
	"github.com/aristath/capstack/internal/modules/debt"
	"github.com/aristath/capstack/internal/modules/waterfall"
)

// Validate runs every structural check of a scenario and returns all issues together.
func Validate(s domain.Scenario) domain.Issues {
	var issues domain.Issues

	if s.Project.DiscountRate <= -1 {
		issues.Add("project.discountRate", "must be greater than -1")
	}
	if s.Project.TerminalGrowthRate <= -1 {
		issues.Add("project.terminalGrowthRate", "must be greater than -1")
	}
	if s.Project.TaxRate < 0 || s.Project.TaxRate > 1 {
		issues.Add("project.taxRate", "must be between 0 and 1")
	}
	if s.Project.CostOfEquity != nil && *s.Project.CostOfEquity <= -1 {
		issues.Add("project.costOfEquity", "must be greater than -1")
	}
	if s.Project.InitialInvestment != nil && *s.Project.InitialInvestment < 0 {
		issues.Add("project.initialInvestment", "must not be negative")
	}

	issues.Merge(debt.Validate(s.Capital, s.Inputs.Horizon()))
	if s.Waterfall != nil {
		issues.Merge(waterfall.Validate(*s.Waterfall))
	}
	issues.Merge(covenants.Validate(s.Covenants))

	return issues
}
