package calculation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// writeTestCSV drops a dataset file into a temp dir and returns its path.
func writeTestCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "returns.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test CSV: %v", err)
	}
	return path
}

func TestLoadEmbeddedReturns(t *testing.T) {
	data, err := LoadEmbeddedReturns()
	if err != nil {
		t.Fatalf("LoadEmbeddedReturns: %v", err)
	}

	if data.Len() != 50 {
		t.Errorf("Len = %d, want 50", data.Len())
	}
	first, last := data.AvailableYears()
	if first != 1974 || last != 2023 {
		t.Errorf("AvailableYears = %d-%d, want 1974-2023", first, last)
	}
	if issues := data.ValidateDataQuality(); len(issues) != 0 {
		t.Errorf("embedded dataset has quality issues: %v", issues)
	}

	y0 := data.Years[0]
	if y0.Year != 1974 {
		t.Fatalf("first year = %d, want 1974", y0.Year)
	}
	if !y0.StockReturn.Equal(decimal.NewFromFloat(-0.2647)) {
		t.Errorf("1974 stock return = %s, want -0.2647", y0.StockReturn)
	}
	if !y0.BondReturn.Equal(decimal.NewFromFloat(0.0435)) {
		t.Errorf("1974 bond return = %s, want 0.0435", y0.BondReturn)
	}
	if !y0.Inflation.Equal(decimal.NewFromFloat(0.11)) {
		t.Errorf("1974 inflation = %s, want 0.11", y0.Inflation)
	}

	final := data.Years[data.Len()-1]
	if final.Year != 2023 || !final.StockReturn.Equal(decimal.NewFromFloat(0.2629)) {
		t.Errorf("final year = %d/%s, want 2023/0.2629", final.Year, final.StockReturn)
	}
}

func TestEmbeddedDatasetStatistics(t *testing.T) {
	data, err := LoadEmbeddedReturns()
	if err != nil {
		t.Fatalf("LoadEmbeddedReturns: %v", err)
	}

	stock := data.StockStats
	if stock.Count != 50 {
		t.Errorf("stock count = %d, want 50", stock.Count)
	}
	if !stock.Min.Equal(decimal.NewFromFloat(-0.37)) {
		t.Errorf("stock min = %s, want -0.37", stock.Min)
	}
	if !stock.Max.Equal(decimal.NewFromFloat(0.3758)) {
		t.Errorf("stock max = %s, want 0.3758", stock.Max)
	}
	if stock.Mean.LessThan(decimal.NewFromFloat(0.05)) || stock.Mean.GreaterThan(decimal.NewFromFloat(0.20)) {
		t.Errorf("stock mean = %s outside the plausible 5%%-20%% band", stock.Mean)
	}
	if stock.StdDev.LessThan(decimal.NewFromFloat(0.10)) || stock.StdDev.GreaterThan(decimal.NewFromFloat(0.25)) {
		t.Errorf("stock stdev = %s outside the plausible 10%%-25%% band", stock.StdDev)
	}

	inflation := data.InflationStats
	if inflation.Mean.LessThan(decimal.NewFromFloat(0.01)) || inflation.Mean.GreaterThan(decimal.NewFromFloat(0.10)) {
		t.Errorf("inflation mean = %s outside the plausible 1%%-10%% band", inflation.Mean)
	}
}

func TestLoadReturnsFromFile(t *testing.T) {
	path := writeTestCSV(t, strings.Join([]string{
		"year,stock_return,bond_return,inflation",
		"2001,0.10,0.05,0.02",
		"not-a-year,0.10,0.05,0.02",
		"2002,oops,0.05,0.02",
		"2003,-0.20,0.08,0.03",
	}, "\n"))

	data, err := LoadReturnsFromFile(path)
	if err != nil {
		t.Fatalf("LoadReturnsFromFile: %v", err)
	}

	// The two unparseable rows are skipped, not fatal
	if data.Len() != 2 {
		t.Fatalf("Len = %d, want 2 parsed rows", data.Len())
	}
	first, last := data.AvailableYears()
	if first != 2001 || last != 2003 {
		t.Errorf("AvailableYears = %d-%d, want 2001-2003", first, last)
	}
	if !data.Years[1].StockReturn.Equal(decimal.NewFromFloat(-0.20)) {
		t.Errorf("2003 stock return = %s, want -0.20", data.Years[1].StockReturn)
	}
	if data.StockStats.Count != 2 {
		t.Errorf("stock stats count = %d, want 2", data.StockStats.Count)
	}
}

func TestLoadReturnsFromFileErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{
			name:     "empty file",
			contents: "",
			wantErr:  "failed to read header",
		},
		{
			name:     "too few columns",
			contents: "year,stock_return,bond_return\n2001,0.10,0.05",
			wantErr:  "invalid CSV format",
		},
		{
			name:     "header only",
			contents: "year,stock_return,bond_return,inflation\n",
			wantErr:  "no valid data rows found",
		},
		{
			name:     "ragged data row",
			contents: "year,stock_return,bond_return,inflation\n2001,0.10\n",
			wantErr:  "failed to read data row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReturnsFromFile(writeTestCSV(t, tt.contents))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadReturnsFromFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil ||
		!strings.Contains(err.Error(), "failed to open historical data file") {
		t.Errorf("missing file err = %v", err)
	}
}

func TestValidateDataQualityFlagsProblems(t *testing.T) {
	data := &HistoricalReturns{
		Years: []HistoricalYear{
			{Year: 2000, StockReturn: decimal.NewFromFloat(1.5), BondReturn: decimal.NewFromFloat(-0.6), Inflation: decimal.NewFromFloat(0.30)},
			{Year: 2002, StockReturn: decimal.NewFromFloat(0.10), BondReturn: decimal.NewFromFloat(0.05), Inflation: decimal.NewFromFloat(0.02)},
		},
	}

	issues := data.ValidateDataQuality()
	if len(issues) != 4 {
		t.Fatalf("issue count = %d, want 4: %v", len(issues), issues)
	}

	joined := strings.Join(issues, "; ")
	for _, fragment := range []string{"expected 3", "Extreme stock return in 2000", "Extreme bond return in 2000", "Extreme inflation in 2000"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("issues missing %q: %v", fragment, issues)
		}
	}
}

func TestSeriesStatistics(t *testing.T) {
	values := []decimal.Decimal{
		decimal.NewFromInt(2),
		decimal.NewFromInt(4),
		decimal.NewFromInt(4),
		decimal.NewFromInt(4),
		decimal.NewFromInt(5),
		decimal.NewFromInt(5),
		decimal.NewFromInt(7),
		decimal.NewFromInt(9),
	}

	stats := calculateSeriesStatistics(values)
	if !stats.Mean.Equal(decimal.NewFromInt(5)) {
		t.Errorf("mean = %s, want 5", stats.Mean)
	}
	// Population standard deviation of the classic example set
	if !stats.StdDev.Equal(decimal.NewFromInt(2)) {
		t.Errorf("stdev = %s, want 2", stats.StdDev)
	}
	if !stats.Min.Equal(decimal.NewFromInt(2)) || !stats.Max.Equal(decimal.NewFromInt(9)) {
		t.Errorf("range = %s..%s, want 2..9", stats.Min, stats.Max)
	}
	if stats.Count != 8 {
		t.Errorf("count = %d, want 8", stats.Count)
	}

	empty := calculateSeriesStatistics(nil)
	if empty.Count != 0 || !empty.Mean.IsZero() {
		t.Errorf("empty stats = %+v", empty)
	}
}
