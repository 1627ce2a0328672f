package calculation

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

//go:embed data/historical_returns.csv
var embeddedReturnsCSV []byte

// HistoricalYear is one year of market history. All values are decimal
// fractions (0.07 means 7%).
type HistoricalYear struct {
	Year        int             `json:"year"`
	StockReturn decimal.Decimal `json:"stock_return"`
	BondReturn  decimal.Decimal `json:"bond_return"`
	Inflation   decimal.Decimal `json:"inflation"`
}

// SeriesStatistics summarizes one column of a historical dataset
type SeriesStatistics struct {
	Mean   decimal.Decimal `json:"mean"`
	StdDev decimal.Decimal `json:"std_dev"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Count  int             `json:"count"`
}

// HistoricalReturns holds the bootstrap population sampled by the Monte
// Carlo harness, with per-column statistics for the parametric sampler
type HistoricalReturns struct {
	Years          []HistoricalYear `json:"years"`
	StockStats     SeriesStatistics `json:"stock_stats"`
	BondStats      SeriesStatistics `json:"bond_stats"`
	InflationStats SeriesStatistics `json:"inflation_stats"`
}

// LoadEmbeddedReturns parses the dataset compiled into the binary: S&P 500
// total returns, 10-year Treasury total returns and CPI-U, 1974 through 2023
func LoadEmbeddedReturns() (*HistoricalReturns, error) {
	return parseReturnsCSV(bytes.NewReader(embeddedReturnsCSV))
}

// LoadReturnsFromFile reads a dataset from an external CSV laid out like the
// embedded one: year, stock_return, bond_return, inflation
func LoadReturnsFromFile(path string) (*HistoricalReturns, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open historical data file %s: %w", path, err)
	}
	defer file.Close()
	return parseReturnsCSV(file)
}

func parseReturnsCSV(r io.Reader) (*HistoricalReturns, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("invalid CSV format: expected 4 columns (year, stock_return, bond_return, inflation)")
	}

	var years []HistoricalYear
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}

		if len(record) < 4 {
			continue // Skip malformed rows
		}

		year, err := strconv.Atoi(record[0])
		if err != nil {
			continue // Skip rows with invalid year
		}

		stock, err := decimal.NewFromString(record[1])
		if err != nil {
			continue
		}
		bond, err := decimal.NewFromString(record[2])
		if err != nil {
			continue
		}
		inflation, err := decimal.NewFromString(record[3])
		if err != nil {
			continue
		}

		years = append(years, HistoricalYear{
			Year:        year,
			StockReturn: stock,
			BondReturn:  bond,
			Inflation:   inflation,
		})
	}

	if len(years) == 0 {
		return nil, fmt.Errorf("no valid data rows found")
	}

	hr := &HistoricalReturns{Years: years}
	hr.StockStats = calculateSeriesStatistics(hr.column(func(y HistoricalYear) decimal.Decimal { return y.StockReturn }))
	hr.BondStats = calculateSeriesStatistics(hr.column(func(y HistoricalYear) decimal.Decimal { return y.BondReturn }))
	hr.InflationStats = calculateSeriesStatistics(hr.column(func(y HistoricalYear) decimal.Decimal { return y.Inflation }))
	return hr, nil
}

func (hr *HistoricalReturns) column(pick func(HistoricalYear) decimal.Decimal) []decimal.Decimal {
	values := make([]decimal.Decimal, len(hr.Years))
	for i, y := range hr.Years {
		values[i] = pick(y)
	}
	return values
}

// Len returns the number of years in the bootstrap population
func (hr *HistoricalReturns) Len() int {
	return len(hr.Years)
}

// AvailableYears returns the first and last calendar year covered
func (hr *HistoricalReturns) AvailableYears() (int, int) {
	if len(hr.Years) == 0 {
		return 0, 0
	}
	minYear := hr.Years[0].Year
	maxYear := hr.Years[0].Year
	for _, y := range hr.Years {
		if y.Year < minYear {
			minYear = y.Year
		}
		if y.Year > maxYear {
			maxYear = y.Year
		}
	}
	return minYear, maxYear
}

// ValidateDataQuality performs sanity checks on the loaded dataset and
// returns a description of each issue found
func (hr *HistoricalReturns) ValidateDataQuality() []string {
	var issues []string

	minYear, maxYear := hr.AvailableYears()
	if expected := maxYear - minYear + 1; len(hr.Years) != expected {
		issues = append(issues, fmt.Sprintf("Dataset covers %d-%d but has %d rows, expected %d", minYear, maxYear, len(hr.Years), expected))
	}

	for _, y := range hr.Years {
		if y.StockReturn.GreaterThan(decimal.NewFromInt(1)) || y.StockReturn.LessThan(decimal.NewFromFloat(-0.5)) {
			issues = append(issues, fmt.Sprintf("Extreme stock return in %d: %s", y.Year, y.StockReturn.String()))
		}
		if y.BondReturn.GreaterThan(decimal.NewFromFloat(0.5)) || y.BondReturn.LessThan(decimal.NewFromFloat(-0.5)) {
			issues = append(issues, fmt.Sprintf("Extreme bond return in %d: %s", y.Year, y.BondReturn.String()))
		}
		if y.Inflation.GreaterThan(decimal.NewFromFloat(0.25)) || y.Inflation.LessThan(decimal.NewFromFloat(-0.1)) {
			issues = append(issues, fmt.Sprintf("Extreme inflation in %d: %s", y.Year, y.Inflation.String()))
		}
	}

	return issues
}

// calculateSeriesStatistics computes mean, standard deviation and range for
// one column of the dataset
func calculateSeriesStatistics(values []decimal.Decimal) SeriesStatistics {
	if len(values) == 0 {
		return SeriesStatistics{}
	}

	var sum decimal.Decimal
	for _, v := range values {
		sum = sum.Add(v)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(values))))

	min := values[0]
	max := values[0]
	for _, v := range values {
		if v.LessThan(min) {
			min = v
		}
		if v.GreaterThan(max) {
			max = v
		}
	}

	var varianceSum decimal.Decimal
	for _, v := range values {
		diff := v.Sub(mean)
		varianceSum = varianceSum.Add(diff.Mul(diff))
	}
	variance := varianceSum.Div(decimal.NewFromInt(int64(len(values))))
	varianceFloat, _ := variance.Float64()
	stdDev := decimal.NewFromFloat(math.Sqrt(varianceFloat))

	return SeriesStatistics{
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Count:  len(values),
	}
}
