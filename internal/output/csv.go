package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVExporter provides raw annual projection detail, one row per simulated year.
type CSVExporter struct{}

func (c CSVExporter) Name() string { return "csv" }

func (c CSVExporter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{
		"Year", "Age", "Retired",
		"TaxableBalance", "TaxDeferredBalance", "TaxFreeBalance",
		"PrimaryHome", "InvestmentProperty", "OtherAssets",
		"MortgageBalance", "OtherLoanBalance",
		"Salary", "Pension", "RentalIncome", "Dividends", "Withdrawals", "RealizedGains",
		"Expenses", "DebtService",
		"TaxPaid", "PropertyTax", "RMDTaken", "RothConversion",
		"Shortfall", "NetWorth",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, y := range report.Result.Years {
		row := []string{
			intToString(y.Year),
			intToString(y.Age),
			boolToString(y.Retired),
			y.TaxableBalance.StringFixed(2),
			y.TaxDeferredBalance.StringFixed(2),
			y.TaxFreeBalance.StringFixed(2),
			y.PrimaryHomeValue.StringFixed(2),
			y.InvestmentPropertyValue.StringFixed(2),
			y.OtherAssetsValue.StringFixed(2),
			y.MortgageBalance.StringFixed(2),
			y.OtherLoanBalance.StringFixed(2),
			y.Salary.StringFixed(2),
			y.Pension.StringFixed(2),
			y.RentalIncome.StringFixed(2),
			y.Dividends.StringFixed(2),
			y.Withdrawals.StringFixed(2),
			y.RealizedGains.StringFixed(2),
			y.Expenses.StringFixed(2),
			y.TotalDebtService().StringFixed(2),
			y.TaxPaid.StringFixed(2),
			y.PropertyTax.StringFixed(2),
			y.RMDTaken.StringFixed(2),
			y.RothConversion.StringFixed(2),
			y.Shortfall.StringFixed(2),
			y.NetWorth.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func intToString(v int) string   { return strconv.Itoa(v) }
func boolToString(v bool) string { return strconv.FormatBool(v) }
