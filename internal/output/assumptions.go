package output

import (
	"fmt"

	"github.com/networthpro/retirement-engine/internal/domain"
)

// GenerateAssumptions renders the market assumptions as display strings for
// the report headers. Rates arrive as whole percents.
func GenerateAssumptions(a domain.Assumptions) []string {
	return []string{
		fmt.Sprintf("Inflation: %.1f%% annually", a.InflationRate.InexactFloat64()),
		fmt.Sprintf("Stock return: %.1f%% annually (dividend yield %.1f%%)", a.StockReturn.InexactFloat64(), a.DividendYield.InexactFloat64()),
		fmt.Sprintf("Bond return: %.1f%% annually", a.BondReturn.InexactFloat64()),
		fmt.Sprintf("Cash return: %.1f%% annually", a.CashReturn.InexactFloat64()),
		fmt.Sprintf("Property appreciation: %.1f%% annually (rental yield %.1f%%)", a.PropertyAppreciation.InexactFloat64(), a.RentalYield.InexactFloat64()),
		fmt.Sprintf("Tax rules: %s profile", a.CountryCode),
	}
}
