package output

import (
	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/domain"
)

// Assessment captures the headline health signals of a projection run.
type Assessment struct {
	Funded            bool
	FirstShortfallAge int // zero when fully funded
	PeakNetWorth      decimal.Decimal
	PeakAge           int
	FinalNetWorth     decimal.Decimal
}

// AssessResult scans a projection for the signals shown in console reports.
// Extracted from embedded console logic for testability.
func AssessResult(result *domain.SimulationResult) Assessment {
	if result == nil || len(result.Years) == 0 {
		return Assessment{}
	}

	a := Assessment{
		Funded:       true,
		PeakNetWorth: result.Years[0].NetWorth,
		PeakAge:      result.Years[0].Age,
	}
	for _, y := range result.Years[1:] {
		if y.NetWorth.GreaterThan(a.PeakNetWorth) {
			a.PeakNetWorth = y.NetWorth
			a.PeakAge = y.Age
		}
		if a.Funded && y.HasShortfall() {
			a.Funded = false
			a.FirstShortfallAge = y.Age
		}
	}
	a.FinalNetWorth = result.FinalYear().NetWorth
	return a
}
