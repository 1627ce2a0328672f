package calculation

import (
	"github.com/networthpro/retirement-engine/internal/domain"
)

// RunSimulation projects the input forward year by year and returns the
// complete annual series with summary totals. The input is never mutated, so
// running the same input twice yields identical results.
func RunSimulation(input *domain.SimulationInput) (*domain.SimulationResult, error) {
	engine, err := NewEngine(input)
	if err != nil {
		return nil, err
	}
	return engine.Run(), nil
}

// Run executes the full projection horizon for the engine's input
func (e *Engine) Run() *domain.SimulationResult {
	in := e.Input
	horizon := in.ProjectionYears()
	state := e.InitialState()

	result := &domain.SimulationResult{
		Years: make([]domain.YearSnapshot, 0, horizon+1),
	}
	result.Years = append(result.Years, e.startingSnapshot(state))

	summary := &result.Summary
	summary.YearsProjected = horizon
	runwayIntact := true

	for year := 1; year <= horizon; year++ {
		next, snap := e.Step(state, year)
		state = next
		result.Years = append(result.Years, snap)

		summary.TotalTaxPaid = summary.TotalTaxPaid.Add(snap.TaxPaid)
		summary.TotalTaxPaidReal = summary.TotalTaxPaidReal.Add(snap.TaxPaid.Div(state.InflationIndex))
		summary.TotalWithdrawals = summary.TotalWithdrawals.Add(snap.Withdrawals)
		summary.TotalGrossIncome = summary.TotalGrossIncome.Add(snap.TotalIncome())
		if runwayIntact {
			if snap.HasShortfall() {
				runwayIntact = false
			} else {
				summary.RunwayYears++
			}
		}
	}

	if final := result.FinalYear(); final != nil {
		summary.FinalNetWorth = final.NetWorth
	}
	return result
}

// startingSnapshot freezes the initial position as year 0 of the series
func (e *Engine) startingSnapshot(s State) domain.YearSnapshot {
	in := e.Input
	return domain.YearSnapshot{
		Year:                    0,
		Age:                     in.CurrentAge,
		Retired:                 in.RetiredAt(in.CurrentAge),
		TaxableBalance:          s.Assets.Taxable.Total(),
		TaxDeferredBalance:      s.Assets.TaxDeferred.Total(),
		TaxFreeBalance:          s.Assets.TaxFree.Total(),
		PrimaryHomeValue:        s.Assets.PrimaryHome,
		InvestmentPropertyValue: s.Assets.InvestmentProperty,
		OtherAssetsValue:        s.Assets.OtherAssets,
		MortgageBalance:         s.MortgageBalance,
		OtherLoanBalance:        s.OtherLoanBalance,
		NetWorth:                s.NetWorth(),
	}
}
