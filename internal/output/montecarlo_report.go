package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/pkg/money"
)

var decimalHundred = decimal.NewFromInt(100)

// MonteCarloConsoleReport renders Monte Carlo results for terminal display
type MonteCarloConsoleReport struct {
	Result *calculation.MonteCarloResult
}

// Render produces the full console block for one Monte Carlo run
func (m *MonteCarloConsoleReport) Render() []byte {
	var buf bytes.Buffer
	r := m.Result

	fmt.Fprintln(&buf, "MONTE CARLO ANALYSIS")
	fmt.Fprintln(&buf, "====================")
	fmt.Fprintf(&buf, "Iterations:             %d (%s, seed %d)\n", r.Iterations, r.Provider, r.Seed)
	fmt.Fprintf(&buf, "Success Rate:           %s (%s)\n", money.FormatPercent(r.SuccessRate.Mul(decimalHundred)), m.riskLevel())
	fmt.Fprintf(&buf, "Median Final Net Worth: %s\n", money.Format(r.MedianFinalNetWorth))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "FINAL NET WORTH PERCENTILES:")
	fmt.Fprintf(&buf, "  5th:  %s  (worst 5%% of runs)\n", money.FormatWhole(r.Percentiles.P5))
	fmt.Fprintf(&buf, "  25th: %s\n", money.FormatWhole(r.Percentiles.P25))
	fmt.Fprintf(&buf, "  50th: %s  (median run)\n", money.FormatWhole(r.Percentiles.P50))
	fmt.Fprintf(&buf, "  75th: %s\n", money.FormatWhole(r.Percentiles.P75))
	fmt.Fprintf(&buf, "  95th: %s  (best 5%% of runs)\n", money.FormatWhole(r.Percentiles.P95))
	fmt.Fprintln(&buf)

	if n := len(r.Fan.Ages); n > 0 {
		last := n - 1
		fmt.Fprintf(&buf, "NET WORTH FAN AT AGE %d:\n", r.Fan.Ages[last])
		fmt.Fprintf(&buf, "  P10: %s\n", money.FormatWhole(r.Fan.P10[last]))
		fmt.Fprintf(&buf, "  P50: %s\n", money.FormatWhole(r.Fan.P50[last]))
		fmt.Fprintf(&buf, "  P90: %s\n", money.FormatWhole(r.Fan.P90[last]))
	}
	return buf.Bytes()
}

// riskLevel buckets the success rate the same way the web UI colors its gauge
func (m *MonteCarloConsoleReport) riskLevel() string {
	rate := m.Result.SuccessRate
	switch {
	case rate.GreaterThanOrEqual(decimal.NewFromFloat(0.90)):
		return "low risk"
	case rate.GreaterThanOrEqual(decimal.NewFromFloat(0.75)):
		return "moderate risk"
	case rate.GreaterThanOrEqual(decimal.NewFromFloat(0.50)):
		return "elevated risk"
	default:
		return "high risk"
	}
}

// MonteCarloCSVReport generates CSV exports for Monte Carlo results
type MonteCarloCSVReport struct {
	Result *calculation.MonteCarloResult
}

// GenerateSummaryCSV creates a summary CSV with aggregate statistics
func (m *MonteCarloCSVReport) GenerateSummaryCSV(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Metric", "Value", "Description"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	r := m.Result
	summaryData := [][]string{
		{"Success Rate", fmt.Sprintf("%.2f%%", r.SuccessRate.Mul(decimalHundred).InexactFloat64()), "Percentage of runs ending with positive net worth"},
		{"Median Final Net Worth", "$" + r.MedianFinalNetWorth.StringFixed(0), "Median final net worth across all runs"},
		{"5th Percentile", "$" + r.Percentiles.P5.StringFixed(0), "Worst 5% of runs"},
		{"25th Percentile", "$" + r.Percentiles.P25.StringFixed(0), "Below average runs"},
		{"50th Percentile", "$" + r.Percentiles.P50.StringFixed(0), "Typical run"},
		{"75th Percentile", "$" + r.Percentiles.P75.StringFixed(0), "Above average runs"},
		{"95th Percentile", "$" + r.Percentiles.P95.StringFixed(0), "Best 5% of runs"},
		{"Iterations", strconv.Itoa(r.Iterations), "Total number of simulations run"},
		{"Provider", r.Provider, "Source of per-year market returns"},
		{"Seed", strconv.FormatInt(r.Seed, 10), "Base random seed (rerun with the same seed to reproduce)"},
	}

	for _, row := range summaryData {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write data row: %w", err)
		}
	}
	return nil
}

// GenerateFanCSV creates a CSV with the per-age net worth fan, one row per
// projection step
func (m *MonteCarloCSVReport) GenerateFanCSV(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Age", "P10", "P50", "P90"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	fan := m.Result.Fan
	for i, age := range fan.Ages {
		row := []string{
			strconv.Itoa(age),
			fan.P10[i].StringFixed(2),
			fan.P50[i].StringFixed(2),
			fan.P90[i].StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write fan row: %w", err)
		}
	}
	return nil
}

// GenerateIterationsCSV creates a detailed CSV with individual iteration results
func (m *MonteCarloCSVReport) GenerateIterationsCSV(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Iteration", "Success", "FinalNetWorth", "RunwayYears", "TotalWithdrawals"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, outcome := range m.Result.Outcomes {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatBool(outcome.Success),
			outcome.FinalNetWorth.StringFixed(2),
			strconv.Itoa(outcome.RunwayYears),
			outcome.TotalWithdrawals.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write iteration row: %w", err)
		}
	}
	return nil
}

// GenerateAllCSVReports creates all CSV reports in a single directory
func (m *MonteCarloCSVReport) GenerateAllCSVReports(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	summaryPath := filepath.Join(outputDir, "monte_carlo_summary.csv")
	if err := m.GenerateSummaryCSV(summaryPath); err != nil {
		return fmt.Errorf("failed to generate summary CSV: %w", err)
	}

	fanPath := filepath.Join(outputDir, "monte_carlo_fan.csv")
	if err := m.GenerateFanCSV(fanPath); err != nil {
		return fmt.Errorf("failed to generate fan CSV: %w", err)
	}

	iterationsPath := filepath.Join(outputDir, "monte_carlo_iterations.csv")
	if err := m.GenerateIterationsCSV(iterationsPath); err != nil {
		return fmt.Errorf("failed to generate iterations CSV: %w", err)
	}
	return nil
}
