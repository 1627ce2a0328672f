package calculation

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/domain"
)

const (
	defaultMonteCarloIterations = 1000
	maxConcurrentIterations     = 10
)

// Product modes. Pro bootstraps whole historical years; essential perturbs
// the configured assumptions with independent normal draws and runs fewer
// iterations.
const (
	ModeEssential = "essential"
	ModePro       = "pro"
)

// ConfigForMode returns the Monte Carlo configuration for a product mode
func ConfigForMode(mode string) MonteCarloConfig {
	if strings.EqualFold(mode, ModeEssential) {
		return MonteCarloConfig{Iterations: 600, Provider: ProviderNormalPerturbation}
	}
	return MonteCarloConfig{Iterations: defaultMonteCarloIterations, Provider: ProviderHistoricalBootstrap}
}

// MonteCarloConfig holds configuration for a Monte Carlo run
type MonteCarloConfig struct {
	Iterations        int    // Default: 1000
	Provider          string // Default: historical_bootstrap
	Seed              int64  // Default: drawn from the clock
	DisableStressTest bool   // Drop the configured market shock from every iteration
}

// MonteCarloSimulator projects one plan many times under randomized market
// conditions
type MonteCarloSimulator struct {
	Input          *domain.SimulationInput
	HistoricalData *HistoricalReturns
	Config         MonteCarloConfig
	Logger         Logger
}

// MonteCarloResult aggregates all iteration outcomes
type MonteCarloResult struct {
	Iterations          int              `json:"iterations"`
	Provider            string           `json:"provider"`
	Seed                int64            `json:"seed"`
	SuccessRate         decimal.Decimal  `json:"success_rate"`
	MedianFinalNetWorth decimal.Decimal  `json:"median_final_net_worth"`
	Percentiles         PercentileRanges `json:"percentiles"`
	Fan                 FanChart         `json:"fan"`

	// Outcomes carries the raw per-iteration results for programmatic
	// consumers; it is not serialized into responses.
	Outcomes []IterationOutcome `json:"-"`
}

// IterationOutcome is the result of one simulated lifetime
type IterationOutcome struct {
	FinalNetWorth    decimal.Decimal   `json:"final_net_worth"`
	Success          bool              `json:"success"`
	RunwayYears      int               `json:"runway_years"`
	TotalWithdrawals decimal.Decimal   `json:"total_withdrawals"`
	NetWorthPath     []decimal.Decimal `json:"net_worth_path"`
}

// PercentileRanges represents percentiles of final net worth across iterations
type PercentileRanges struct {
	P5  decimal.Decimal `json:"p5"`
	P25 decimal.Decimal `json:"p25"`
	P50 decimal.Decimal `json:"p50"`
	P75 decimal.Decimal `json:"p75"`
	P95 decimal.Decimal `json:"p95"`
}

// FanChart carries percentile net worth paths across time for charting,
// including the year-0 starting position
type FanChart struct {
	Ages []int             `json:"ages"`
	P10  []decimal.Decimal `json:"p10"`
	P50  []decimal.Decimal `json:"p50"`
	P90  []decimal.Decimal `json:"p90"`
}

// NewMonteCarloSimulator creates a simulator for the given input and
// historical dataset, filling config defaults
func NewMonteCarloSimulator(input *domain.SimulationInput, data *HistoricalReturns, config MonteCarloConfig) *MonteCarloSimulator {
	if config.Iterations <= 0 {
		config.Iterations = defaultMonteCarloIterations
	}
	if config.Provider == "" {
		config.Provider = ProviderHistoricalBootstrap
	}
	if config.Seed == 0 {
		config.Seed = seedFunc()
	}

	return &MonteCarloSimulator{
		Input:          input,
		HistoricalData: data,
		Config:         config,
		Logger:         NopLogger{},
	}
}

// SetLogger sets the logger for the simulator. If nil is provided, a no-op
// logger is used.
func (mcs *MonteCarloSimulator) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	mcs.Logger = l
}

// Run executes all iterations and aggregates the outcomes. Iterations share
// no mutable state: each works on a deep clone of the input with its own
// random source seeded from the base seed plus the iteration index, so a
// fixed seed reproduces results regardless of goroutine scheduling.
func (mcs *MonteCarloSimulator) Run() (*MonteCarloResult, error) {
	if _, err := NewTaxCalculator(mcs.Input.Assumptions.CountryCode); err != nil {
		return nil, err
	}
	if mcs.Config.Provider == ProviderHistoricalBootstrap && (mcs.HistoricalData == nil || mcs.HistoricalData.Len() == 0) {
		return nil, fmt.Errorf("historical data not loaded")
	}

	horizon := mcs.Input.ProjectionYears()
	mcs.Logger.Debugf("Monte Carlo: %d iterations, %d years, provider %s, seed %d",
		mcs.Config.Iterations, horizon, mcs.Config.Provider, mcs.Config.Seed)

	outcomes := make([]IterationOutcome, mcs.Config.Iterations)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentIterations) // Limit concurrent iterations

	for i := 0; i < mcs.Config.Iterations; i++ {
		wg.Add(1)
		go func(iteration int) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire semaphore
			defer func() { <-semaphore }() // Release semaphore

			outcomes[iteration] = mcs.runIteration(iteration, horizon)
		}(i)
	}
	wg.Wait()

	return mcs.aggregate(outcomes, horizon), nil
}

// runIteration projects one deep-cloned input under a freshly drawn return
// sequence
func (mcs *MonteCarloSimulator) runIteration(iteration, horizon int) IterationOutcome {
	rng := rand.New(rand.NewSource(mcs.Config.Seed + int64(iteration)))

	clone := mcs.Input.Clone()
	clone.ReturnSequence = mcs.providerFor(rng).Sequence(horizon)
	if mcs.Config.DisableStressTest {
		clone.StressTest = nil
	}

	engine, err := NewEngine(clone)
	if err != nil {
		// Country validity was checked before fan-out, so this cannot
		// happen; an empty outcome counts as a failed iteration
		return IterationOutcome{}
	}
	run := engine.Run()

	outcome := IterationOutcome{
		FinalNetWorth:    run.Summary.FinalNetWorth,
		Success:          run.Summary.FinalNetWorth.GreaterThan(decimal.Zero),
		RunwayYears:      run.Summary.RunwayYears,
		TotalWithdrawals: run.Summary.TotalWithdrawals,
		NetWorthPath:     make([]decimal.Decimal, 0, len(run.Years)),
	}
	for _, y := range run.Years {
		outcome.NetWorthPath = append(outcome.NetWorthPath, y.NetWorth)
	}
	return outcome
}

func (mcs *MonteCarloSimulator) providerFor(rng *rand.Rand) ReturnSequenceProvider {
	switch mcs.Config.Provider {
	case ProviderNormalPerturbation:
		return NewNormalPerturbation(mcs.Input.Assumptions, mcs.HistoricalData, rng)
	case ProviderFixed:
		return NewFixedReturns(mcs.Input.Assumptions)
	default:
		return NewHistoricalBootstrap(mcs.HistoricalData, rng)
	}
}

func (mcs *MonteCarloSimulator) aggregate(outcomes []IterationOutcome, horizon int) *MonteCarloResult {
	successCount := 0
	finals := make([]decimal.Decimal, len(outcomes))
	for i, o := range outcomes {
		if o.Success {
			successCount++
		}
		finals[i] = o.FinalNetWorth
	}
	sortDecimals(finals)

	return &MonteCarloResult{
		Iterations:          len(outcomes),
		Provider:            mcs.Config.Provider,
		Seed:                mcs.Config.Seed,
		SuccessRate:         decimal.NewFromInt(int64(successCount)).Div(decimal.NewFromInt(int64(len(outcomes)))),
		MedianFinalNetWorth: percentileOf(finals, 50),
		Percentiles: PercentileRanges{
			P5:  percentileOf(finals, 5),
			P25: percentileOf(finals, 25),
			P50: percentileOf(finals, 50),
			P75: percentileOf(finals, 75),
			P95: percentileOf(finals, 95),
		},
		Fan:      mcs.buildFan(outcomes, horizon),
		Outcomes: outcomes,
	}
}

// buildFan computes the 10th/50th/90th percentile net worth at every time
// step across all iterations
func (mcs *MonteCarloSimulator) buildFan(outcomes []IterationOutcome, horizon int) FanChart {
	steps := horizon + 1
	fan := FanChart{
		Ages: make([]int, steps),
		P10:  make([]decimal.Decimal, steps),
		P50:  make([]decimal.Decimal, steps),
		P90:  make([]decimal.Decimal, steps),
	}

	values := make([]decimal.Decimal, 0, len(outcomes))
	for step := 0; step < steps; step++ {
		fan.Ages[step] = mcs.Input.CurrentAge + step
		values = values[:0]
		for _, o := range outcomes {
			if step < len(o.NetWorthPath) {
				values = append(values, o.NetWorthPath[step])
			}
		}
		sortDecimals(values)
		fan.P10[step] = percentileOf(values, 10)
		fan.P50[step] = percentileOf(values, 50)
		fan.P90[step] = percentileOf(values, 90)
	}
	return fan
}

// percentileOf reads the nearest-rank percentile from an ascending-sorted
// slice
func percentileOf(sorted []decimal.Decimal, pct int) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	idx := pct * (len(sorted) - 1) / 100
	return sorted[idx]
}

func sortDecimals(values []decimal.Decimal) {
	sort.Slice(values, func(i, j int) bool {
		return values[i].LessThan(values[j])
	})
}
