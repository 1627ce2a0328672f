package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/networthpro/retirement-engine/pkg/money"
)

// ConsoleFormatter renders the detailed year-by-year console report via the
// pluggable interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "=================================================================================")
	fmt.Fprintln(&buf, "NETWORTH PRO RETIREMENT PROJECTION")
	fmt.Fprintln(&buf, "=================================================================================")
	if report.PlanName != "" {
		fmt.Fprintf(&buf, "Plan: %s\n", report.PlanName)
	}
	fmt.Fprintln(&buf)

	if len(report.Assumptions) > 0 {
		fmt.Fprintln(&buf, "KEY ASSUMPTIONS:")
		for _, a := range report.Assumptions {
			fmt.Fprintf(&buf, "• %s\n", a)
		}
		fmt.Fprintln(&buf)
	}

	result := report.Result
	fmt.Fprintln(&buf, "YEAR BY YEAR:")
	fmt.Fprintf(&buf, "%4s %4s %4s %15s %15s %12s %12s %12s %12s %12s\n",
		"Year", "Age", "Ret", "Net Worth", "Liquid", "Income", "Expenses", "Tax", "Withdrawn", "Shortfall")
	fmt.Fprintln(&buf, strings.Repeat("-", 112))
	for _, y := range result.Years {
		retired := ""
		if y.Retired {
			retired = "yes"
		}
		fmt.Fprintf(&buf, "%4d %4d %4s %15s %15s %12s %12s %12s %12s %12s\n",
			y.Year,
			y.Age,
			retired,
			money.FormatWhole(y.NetWorth),
			money.FormatWhole(y.LiquidAssets()),
			money.FormatWhole(y.TotalIncome()),
			money.FormatWhole(y.Expenses),
			money.FormatWhole(y.TaxPaid),
			money.FormatWhole(y.Withdrawals),
			money.FormatWhole(y.Shortfall),
		)
	}
	fmt.Fprintln(&buf)

	s := result.Summary
	fmt.Fprintln(&buf, "SUMMARY")
	fmt.Fprintln(&buf, "=======")
	fmt.Fprintf(&buf, "Years Projected:     %d\n", s.YearsProjected)
	fmt.Fprintf(&buf, "Final Net Worth:     %s\n", money.Format(s.FinalNetWorth))
	fmt.Fprintf(&buf, "Total Tax Paid:      %s (today's money: %s)\n", money.Format(s.TotalTaxPaid), money.Format(s.TotalTaxPaidReal))
	fmt.Fprintf(&buf, "Total Withdrawals:   %s\n", money.Format(s.TotalWithdrawals))
	fmt.Fprintf(&buf, "Total Gross Income:  %s\n", money.Format(s.TotalGrossIncome))
	fmt.Fprintf(&buf, "Runway:              %d of %d years\n", s.RunwayYears, s.YearsProjected)
	fmt.Fprintln(&buf)

	writeAssessment(&buf, report)
	return buf.Bytes(), nil
}

// ConsoleLiteFormatter provides a concise console style summary via the
// formatter interface.
type ConsoleLiteFormatter struct{}

func (c ConsoleLiteFormatter) Name() string { return "console-lite" }

func (c ConsoleLiteFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "RETIREMENT PROJECTION SUMMARY")
	fmt.Fprintln(&buf, "================================")
	if report.PlanName != "" {
		fmt.Fprintf(&buf, "Plan: %s\n", report.PlanName)
	}
	s := report.Result.Summary
	fmt.Fprintf(&buf, "FinalNetWorth=%s TaxPaid=%s Withdrawals=%s Runway=%d/%d\n",
		money.FormatWhole(s.FinalNetWorth),
		money.FormatWhole(s.TotalTaxPaid),
		money.FormatWhole(s.TotalWithdrawals),
		s.RunwayYears,
		s.YearsProjected,
	)
	writeAssessment(&buf, report)
	return buf.Bytes(), nil
}

// writeAssessment appends the plan health lines shared by both console formatters
func writeAssessment(buf *bytes.Buffer, report *Report) {
	assessment := AssessResult(report.Result)
	final := report.Result.FinalYear()
	if final == nil {
		return
	}
	fmt.Fprintln(buf, "ASSESSMENT:")
	if assessment.Funded {
		fmt.Fprintf(buf, "Plan fully funded through age %d\n", final.Age)
	} else {
		fmt.Fprintf(buf, "Shortfall begins at age %d\n", assessment.FirstShortfallAge)
	}
	fmt.Fprintf(buf, "Peak net worth %s at age %d\n", money.Format(assessment.PeakNetWorth), assessment.PeakAge)
}
