package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/output"
)

func TestEndToEndProjection(t *testing.T) {
	// Validate the example plan and run it through the deterministic engine
	parser := config.NewInputParser()
	plan := parser.CreateExamplePlan()
	require.NoError(t, parser.ValidatePlan(plan))

	input := config.ToSimulationInput(plan)
	result, err := calculation.RunSimulation(input)
	require.NoError(t, err)
	require.NotNil(t, result)

	horizon := input.ProjectionYears()
	assert.Len(t, result.Years, horizon+1)
	assert.Equal(t, horizon, result.Summary.YearsProjected)
	assert.Equal(t, horizon, result.Summary.RunwayYears)
	assert.True(t, result.Summary.FinalNetWorth.GreaterThan(decimal.Zero))

	assessment := output.AssessResult(result)
	assert.True(t, assessment.Funded)
	assert.Zero(t, assessment.FirstShortfallAge)

	// The UI-facing series mirrors the engine series year for year
	points := config.ToProjectionPoints(plan, result)
	assert.Len(t, points, len(result.Years))
	assert.Equal(t, plan.Household.CurrentAge, points[0].Age)
	assert.Equal(t, plan.Household.LifeExpectancy, points[len(points)-1].Age)
}

func TestPlanFileRoundTrip(t *testing.T) {
	parser := config.NewInputParser()
	plan := parser.CreateExamplePlan()

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, output.SavePlan(plan, path))

	loaded, err := parser.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, plan.Name, loaded.Name)
	assert.Equal(t, plan.Household, loaded.Household)
	assert.True(t, plan.Market.InflationRate.Equal(loaded.Market.InflationRate))
	require.NotNil(t, loaded.Accounts.Taxable.StockBasis)
	assert.True(t, plan.Accounts.Taxable.StockBasis.Equal(*loaded.Accounts.Taxable.StockBasis))

	// A plan that survives the file round trip projects identically
	base, err := calculation.RunSimulation(config.ToSimulationInput(plan))
	require.NoError(t, err)
	reloaded, err := calculation.RunSimulation(config.ToSimulationInput(loaded))
	require.NoError(t, err)
	assert.True(t, base.Summary.FinalNetWorth.Equal(reloaded.Summary.FinalNetWorth))
}

// chdir switches the working directory for the duration of the test,
// restoring the original directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func TestOutputGeneration(t *testing.T) {
	chdir(t, t.TempDir())

	parser := config.NewInputParser()
	plan := parser.CreateExamplePlan()
	input := config.ToSimulationInput(plan)
	result, err := calculation.RunSimulation(input)
	require.NoError(t, err)

	report := &output.Report{
		PlanName:    plan.Name,
		Assumptions: output.GenerateAssumptions(input.Assumptions),
		Result:      result,
	}

	// Console output renders without touching disk
	formatter := output.GetFormatterByName("console")
	require.NotNil(t, formatter)
	rendered, err := formatter.Format(report)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(rendered), "NETWORTH PRO RETIREMENT PROJECTION"))
	assert.True(t, strings.Contains(string(rendered), plan.Name))

	// File-writing formats land in the temp working directory
	assert.NoError(t, output.GenerateReport(report, "json"))
	assert.NoError(t, output.GenerateReport(report, "csv"))
	assert.NoError(t, output.GenerateReport(report, "all"))
}

func TestMonteCarloPipeline(t *testing.T) {
	parser := config.NewInputParser()
	plan := parser.CreateExamplePlan()
	input := config.ToSimulationInput(plan)

	data, err := calculation.LoadEmbeddedReturns()
	require.NoError(t, err)

	cfg := calculation.ConfigForMode(plan.Mode)
	cfg.Iterations = 25
	cfg.Provider = calculation.ProviderFixed
	cfg.Seed = 11

	result, err := calculation.NewMonteCarloSimulator(input, data, cfg).Run()
	require.NoError(t, err)

	assert.Equal(t, 25, result.Iterations)
	assert.Equal(t, calculation.ProviderFixed, result.Provider)
	assert.Equal(t, int64(11), result.Seed)
	assert.Len(t, result.Outcomes, 25)
	assert.Len(t, result.Fan.Ages, input.ProjectionYears()+1)

	// Identical deterministic iterations collapse the distribution
	assert.True(t, result.SuccessRate.Equal(decimal.NewFromInt(1)))
	assert.True(t, result.Percentiles.P5.Equal(result.Percentiles.P95))
	assert.True(t, result.MedianFinalNetWorth.Equal(result.Percentiles.P50))
}

func TestHistoricalBootstrapPipeline(t *testing.T) {
	parser := config.NewInputParser()
	plan := parser.CreateExamplePlan()
	input := config.ToSimulationInput(plan)

	data, err := calculation.LoadEmbeddedReturns()
	require.NoError(t, err)

	cfg := calculation.MonteCarloConfig{
		Iterations: 40,
		Provider:   calculation.ProviderHistoricalBootstrap,
		Seed:       99,
	}
	result, err := calculation.NewMonteCarloSimulator(input, data, cfg).Run()
	require.NoError(t, err)

	assert.Equal(t, 40, result.Iterations)
	assert.True(t, result.SuccessRate.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, result.SuccessRate.LessThanOrEqual(decimal.NewFromInt(1)))

	// Sampled histories spread the tails around the median
	assert.True(t, result.Percentiles.P5.LessThanOrEqual(result.Percentiles.P50))
	assert.True(t, result.Percentiles.P50.LessThanOrEqual(result.Percentiles.P95))
}
