package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/domain"
)

// defaultUnrealizedGainRatio is assumed for holdings with no recorded cost
// basis: half of every liquidated dollar counts as long-term gain.
var defaultUnrealizedGainRatio = decimal.NewFromFloat(0.5)

// WithdrawalOutcome reports how a cash gap was covered across the three pots
type WithdrawalOutcome struct {
	FromTaxable   decimal.Decimal `json:"from_taxable"`
	FromDeferred  decimal.Decimal `json:"from_deferred"`
	FromTaxFree   decimal.Decimal `json:"from_tax_free"`
	RealizedGains decimal.Decimal `json:"realized_gains"` // Long-term gains realized in the taxable pot
}

// Total returns the combined amount withdrawn across all pots
func (wo *WithdrawalOutcome) Total() decimal.Decimal {
	return wo.FromTaxable.Add(wo.FromDeferred).Add(wo.FromTaxFree)
}

// Add merges another outcome into this one
func (wo *WithdrawalOutcome) Add(other WithdrawalOutcome) {
	wo.FromTaxable = wo.FromTaxable.Add(other.FromTaxable)
	wo.FromDeferred = wo.FromDeferred.Add(other.FromDeferred)
	wo.FromTaxFree = wo.FromTaxFree.Add(other.FromTaxFree)
	wo.RealizedGains = wo.RealizedGains.Add(other.RealizedGains)
}

// WithdrawFromPot liquidates up to amount from the pot, pro rata across its
// stock, bond and cash holdings. It returns the amount actually liquidated
// (never more than the pot holds) and the long-term gains realized on the
// stock and bond portions. Cost bases shrink by the liquidated ratio so later
// withdrawals realize gains consistently.
func WithdrawFromPot(pot *domain.AssetPot, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero
	}
	total := pot.Total()
	if total.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero
	}

	taken := decimal.Min(total, amount)
	ratio := taken.Div(total)
	keep := decimal.NewFromInt(1).Sub(ratio)

	gains := realizedGain(pot.Stock.Mul(ratio), pot.StockBasis, ratio)
	gains = gains.Add(realizedGain(pot.Bond.Mul(ratio), pot.BondBasis, ratio))

	pot.Stock = pot.Stock.Mul(keep)
	pot.Bond = pot.Bond.Mul(keep)
	pot.Cash = pot.Cash.Mul(keep)
	scaleBasis(pot.StockBasis, keep)
	scaleBasis(pot.BondBasis, keep)
	scaleBasis(pot.CashBasis, keep)

	return taken, gains
}

// realizedGain computes max(0, proceeds - basis*ratio) for one holding,
// falling back to the default unrealized-gain ratio when no basis is tracked
func realizedGain(proceeds decimal.Decimal, basis *decimal.Decimal, ratio decimal.Decimal) decimal.Decimal {
	if proceeds.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	var basisSold decimal.Decimal
	if basis != nil {
		basisSold = basis.Mul(ratio)
	} else {
		basisSold = proceeds.Mul(decimal.NewFromInt(1).Sub(defaultUnrealizedGainRatio))
	}
	gain := proceeds.Sub(basisSold)
	if gain.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return gain
}

func scaleBasis(basis *decimal.Decimal, keep decimal.Decimal) {
	if basis != nil {
		*basis = basis.Mul(keep)
	}
}

// WithdrawalStrategy defines the pot ordering used to cover a cash gap
type WithdrawalStrategy interface {
	Withdraw(assets *domain.Assets, gap decimal.Decimal) WithdrawalOutcome
	GetStrategyName() string
}

// StandardStrategy drains taxable first, then tax-deferred, then tax-free,
// preserving tax-advantaged growth for as long as possible
type StandardStrategy struct{}

// NewStandardStrategy creates the default ordering strategy
func NewStandardStrategy() *StandardStrategy {
	return &StandardStrategy{}
}

// Withdraw covers the gap in taxable, deferred, tax-free order
func (s *StandardStrategy) Withdraw(assets *domain.Assets, gap decimal.Decimal) WithdrawalOutcome {
	var out WithdrawalOutcome

	taken, gains := WithdrawFromPot(&assets.Taxable, gap)
	out.FromTaxable = taken
	out.RealizedGains = gains
	remaining := gap.Sub(taken)

	taken, _ = WithdrawFromPot(&assets.TaxDeferred, remaining)
	out.FromDeferred = taken
	remaining = remaining.Sub(taken)

	taken, _ = WithdrawFromPot(&assets.TaxFree, remaining)
	out.FromTaxFree = taken

	return out
}

// GetStrategyName returns the name of this strategy
func (s *StandardStrategy) GetStrategyName() string {
	return domain.StrategyStandard
}

// TaxSensitiveStrategy drains taxable first, then tax-free, deferring
// ordinary-income-generating withdrawals for as long as possible
type TaxSensitiveStrategy struct{}

// NewTaxSensitiveStrategy creates the tax-sensitive ordering strategy
func NewTaxSensitiveStrategy() *TaxSensitiveStrategy {
	return &TaxSensitiveStrategy{}
}

// Withdraw covers the gap in taxable, tax-free, deferred order
func (s *TaxSensitiveStrategy) Withdraw(assets *domain.Assets, gap decimal.Decimal) WithdrawalOutcome {
	var out WithdrawalOutcome

	taken, gains := WithdrawFromPot(&assets.Taxable, gap)
	out.FromTaxable = taken
	out.RealizedGains = gains
	remaining := gap.Sub(taken)

	taken, _ = WithdrawFromPot(&assets.TaxFree, remaining)
	out.FromTaxFree = taken
	remaining = remaining.Sub(taken)

	taken, _ = WithdrawFromPot(&assets.TaxDeferred, remaining)
	out.FromDeferred = taken

	return out
}

// GetStrategyName returns the name of this strategy
func (s *TaxSensitiveStrategy) GetStrategyName() string {
	return domain.StrategyTaxSensitive
}

// ProRataStrategy draws from all three pots proportionally to each pot's
// share of total liquid assets
type ProRataStrategy struct{}

// NewProRataStrategy creates the proportional ordering strategy
func NewProRataStrategy() *ProRataStrategy {
	return &ProRataStrategy{}
}

// Withdraw covers the gap proportionally across the pots
func (s *ProRataStrategy) Withdraw(assets *domain.Assets, gap decimal.Decimal) WithdrawalOutcome {
	var out WithdrawalOutcome
	if gap.LessThanOrEqual(decimal.Zero) {
		return out
	}
	total := assets.TotalLiquid()
	if total.LessThanOrEqual(decimal.Zero) {
		return out
	}

	target := decimal.Min(gap, total)

	taken, gains := WithdrawFromPot(&assets.Taxable, target.Mul(assets.Taxable.Total()).Div(total))
	out.FromTaxable = taken
	out.RealizedGains = gains

	taken, _ = WithdrawFromPot(&assets.TaxDeferred, target.Mul(assets.TaxDeferred.Total()).Div(total))
	out.FromDeferred = taken

	taken, _ = WithdrawFromPot(&assets.TaxFree, target.Mul(assets.TaxFree.Total()).Div(total))
	out.FromTaxFree = taken

	return out
}

// GetStrategyName returns the name of this strategy
func (s *ProRataStrategy) GetStrategyName() string {
	return domain.StrategyProRata
}

// NewWithdrawalStrategy creates the ordering strategy for a configured name.
// Unknown names fall back to the standard ordering.
func NewWithdrawalStrategy(name string) WithdrawalStrategy {
	switch name {
	case domain.StrategyTaxSensitive:
		return NewTaxSensitiveStrategy()
	case domain.StrategyProRata:
		return NewProRataStrategy()
	default:
		return NewStandardStrategy()
	}
}
