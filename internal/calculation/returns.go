package calculation

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/domain"
)

// Provider names accepted in Monte Carlo configuration
const (
	ProviderFixed               = "fixed"
	ProviderHistoricalBootstrap = "historical_bootstrap"
	ProviderNormalPerturbation  = "normal_perturbation"
)

// cashSpreadOverInflation approximates the cash yield in sampled scenarios
// as inflation plus half a percentage point
var cashSpreadOverInflation = decimal.NewFromFloat(0.5)

// ReturnSequenceProvider yields the per-year market returns for one
// simulation run. Sequences carry whole-percent rates, matching
// domain.Assumptions, so the engine consumes them interchangeably with the
// fixed assumption rates.
type ReturnSequenceProvider interface {
	Sequence(years int) []domain.YearReturns
	Name() string
}

// FixedReturns repeats the configured assumption rates every year
type FixedReturns struct {
	assumptions domain.Assumptions
}

// NewFixedReturns creates the deterministic provider used outside Monte Carlo
func NewFixedReturns(assumptions domain.Assumptions) *FixedReturns {
	return &FixedReturns{assumptions: assumptions}
}

// Sequence returns the assumption rates repeated for every year
func (f *FixedReturns) Sequence(years int) []domain.YearReturns {
	seq := make([]domain.YearReturns, years)
	for i := range seq {
		seq[i] = domain.YearReturns{
			Year:        i + 1,
			StockReturn: f.assumptions.StockReturn,
			BondReturn:  f.assumptions.BondReturn,
			CashReturn:  f.assumptions.CashReturn,
			Inflation:   f.assumptions.InflationRate,
		}
	}
	return seq
}

// Name returns the provider name
func (f *FixedReturns) Name() string {
	return ProviderFixed
}

// HistoricalBootstrap samples whole historical years uniformly with
// replacement, so each simulated year replays one actual market year with
// its stock, bond and inflation values kept together
type HistoricalBootstrap struct {
	data *HistoricalReturns
	rng  *rand.Rand
}

// NewHistoricalBootstrap creates a bootstrap provider drawing from the given
// dataset with the given random source
func NewHistoricalBootstrap(data *HistoricalReturns, rng *rand.Rand) *HistoricalBootstrap {
	return &HistoricalBootstrap{data: data, rng: rng}
}

// Sequence draws one historical year per simulated year, converting the
// dataset's decimal fractions to whole-percent rates
func (h *HistoricalBootstrap) Sequence(years int) []domain.YearReturns {
	seq := make([]domain.YearReturns, years)
	if h.data == nil || h.data.Len() == 0 {
		return seq
	}

	for i := range seq {
		sample := h.data.Years[h.rng.Intn(h.data.Len())]
		inflation := sample.Inflation.Mul(hundred)
		seq[i] = domain.YearReturns{
			Year:        i + 1,
			StockReturn: sample.StockReturn.Mul(hundred),
			BondReturn:  sample.BondReturn.Mul(hundred),
			CashReturn:  inflation.Add(cashSpreadOverInflation),
			Inflation:   inflation,
		}
	}
	return seq
}

// Name returns the provider name
func (h *HistoricalBootstrap) Name() string {
	return ProviderHistoricalBootstrap
}

// NormalPerturbation draws each year's stock and bond returns independently
// from Normal(configured mean, historical stdev) via the Box-Muller
// transform. Inflation stays at the configured assumption.
type NormalPerturbation struct {
	assumptions domain.Assumptions
	stockStdDev decimal.Decimal // Whole percent
	bondStdDev  decimal.Decimal // Whole percent
	rng         *rand.Rand
}

// NewNormalPerturbation creates a parametric provider. Volatilities come
// from the historical dataset when supplied, long-run defaults otherwise.
func NewNormalPerturbation(assumptions domain.Assumptions, data *HistoricalReturns, rng *rand.Rand) *NormalPerturbation {
	stockStdDev := decimal.NewFromInt(15)
	bondStdDev := decimal.NewFromInt(7)
	if data != nil && data.Len() > 0 {
		stockStdDev = data.StockStats.StdDev.Mul(hundred)
		bondStdDev = data.BondStats.StdDev.Mul(hundred)
	}
	return &NormalPerturbation{
		assumptions: assumptions,
		stockStdDev: stockStdDev,
		bondStdDev:  bondStdDev,
		rng:         rng,
	}
}

// Sequence draws independent normal stock and bond returns for every year
func (n *NormalPerturbation) Sequence(years int) []domain.YearReturns {
	seq := make([]domain.YearReturns, years)
	for i := range seq {
		seq[i] = domain.YearReturns{
			Year:        i + 1,
			StockReturn: n.normalDraw(n.assumptions.StockReturn, n.stockStdDev),
			BondReturn:  n.normalDraw(n.assumptions.BondReturn, n.bondStdDev),
			CashReturn:  n.assumptions.InflationRate.Add(cashSpreadOverInflation),
			Inflation:   n.assumptions.InflationRate,
		}
	}
	return seq
}

// Name returns the provider name
func (n *NormalPerturbation) Name() string {
	return ProviderNormalPerturbation
}

func (n *NormalPerturbation) normalDraw(mean, stdDev decimal.Decimal) decimal.Decimal {
	u1 := n.rng.Float64()
	for u1 == 0 {
		u1 = n.rng.Float64()
	}
	u2 := n.rng.Float64()
	z := boxMullerTransform(u1, u2)
	return mean.Add(decimal.NewFromFloat(z).Mul(stdDev))
}

// boxMullerTransform converts two uniform samples into a standard normal draw
func boxMullerTransform(u1, u2 float64) float64 {
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
