package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxRuleKind identifies the shape of a tax rule
type TaxRuleKind string

const (
	TaxRuleProgressive TaxRuleKind = "progressive"
	TaxRuleFlat        TaxRuleKind = "flat"
	TaxRuleAssessed    TaxRuleKind = "assessed"
	TaxRuleFixed       TaxRuleKind = "fixed"
	TaxRuleLinked      TaxRuleKind = "linked"
	TaxRuleInclusion   TaxRuleKind = "inclusion"
	TaxRuleCredit      TaxRuleKind = "credit"
)

// TaxCategory names one of the four rule slots in a profile
type TaxCategory string

const (
	CategoryIncome       TaxCategory = "income"
	CategoryCapitalGains TaxCategory = "capital_gains"
	CategoryDividends    TaxCategory = "dividends"
	CategoryProperty     TaxCategory = "property"
)

// TaxBracket is one step of a progressive schedule. Ceiling is the upper
// bound of the bracket in nominal currency; the last bracket of a schedule
// is unbounded and its Ceiling is ignored.
type TaxBracket struct {
	Ceiling decimal.Decimal `json:"ceiling"`
	Rate    decimal.Decimal `json:"rate"`
}

// TaxRule is a tagged variant describing how one category of income is taxed.
// Only the fields relevant to its Kind are populated.
type TaxRule struct {
	Kind TaxRuleKind `json:"kind"`

	// progressive
	Brackets []TaxBracket `json:"brackets,omitempty"`

	// progressive, flat, assessed: tax-free amount subtracted before applying rates
	Allowance decimal.Decimal `json:"allowance,omitempty"`

	// flat, assessed, credit
	Rate decimal.Decimal `json:"rate,omitempty"`

	// fixed: flat currency amount, scaled by the indexing factor
	Amount decimal.Decimal `json:"amount,omitempty"`

	// linked: delegate to a sibling rule in the same profile
	LinkedTo TaxCategory `json:"linked_to,omitempty"`

	// inclusion: fraction of the amount taxed as ordinary income
	InclusionRate decimal.Decimal `json:"inclusion_rate,omitempty"`
}

// TaxProfile bundles the four tax rules for one jurisdiction.
// IndexBrackets false freezes bracket ceilings and allowances at their
// nominal values regardless of accumulated inflation.
type TaxProfile struct {
	Country       string
	IncomeTax     TaxRule
	CapitalGains  TaxRule
	Dividends     TaxRule
	PropertyTax   TaxRule
	IndexBrackets bool
}

// Rule returns the rule stored in the named category slot
func (tp *TaxProfile) Rule(category TaxCategory) TaxRule {
	switch category {
	case CategoryCapitalGains:
		return tp.CapitalGains
	case CategoryDividends:
		return tp.Dividends
	case CategoryProperty:
		return tp.PropertyTax
	default:
		return tp.IncomeTax
	}
}

// UnknownProfileError indicates a country code with no tax profile. An
// unknown profile is a caller programming error, not a runtime financial
// condition, so it surfaces as a typed error instead of a silent default.
type UnknownProfileError struct {
	Country string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("no tax profile for country %q", e.Country)
}

// TaxCalculator evaluates the tax rules of a single jurisdiction profile
type TaxCalculator struct {
	Profile *TaxProfile
}

// NewTaxCalculator creates a tax calculator for the given country code
func NewTaxCalculator(country string) (*TaxCalculator, error) {
	profile, err := ProfileFor(country)
	if err != nil {
		return nil, err
	}
	return &TaxCalculator{Profile: profile}, nil
}

// CalculateRuleTax evaluates one rule against an amount. indexFactor scales
// bracket ceilings, allowances and fixed amounts for accumulated inflation;
// stackedIncome is income already taxed under the same schedule, so that a
// progressive rule charges this amount at its correct marginal position.
func (tc *TaxCalculator) CalculateRuleTax(amount decimal.Decimal, rule TaxRule, indexFactor, stackedIncome decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	switch rule.Kind {
	case TaxRuleProgressive:
		withAmount := progressiveTax(stackedIncome.Add(amount), rule, indexFactor)
		onStacked := progressiveTax(stackedIncome, rule, indexFactor)
		return withAmount.Sub(onStacked)

	case TaxRuleFlat, TaxRuleAssessed:
		taxable := amount
		if rule.Allowance.GreaterThan(decimal.Zero) {
			taxable = taxable.Sub(rule.Allowance.Mul(indexFactor))
		}
		if taxable.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero
		}
		return taxable.Mul(rule.Rate)

	case TaxRuleFixed:
		return rule.Amount.Mul(indexFactor)

	case TaxRuleLinked:
		return tc.CalculateRuleTax(amount, tc.Profile.Rule(rule.LinkedTo), indexFactor, stackedIncome)

	case TaxRuleInclusion:
		included := amount.Mul(rule.InclusionRate)
		return tc.CalculateRuleTax(included, tc.Profile.IncomeTax, indexFactor, stackedIncome)

	case TaxRuleCredit:
		// Flat effective rate approximating a credit-adjusted system
		return amount.Mul(rule.Rate)

	default:
		return decimal.Zero
	}
}

// CalculateAnnualTax combines ordinary-income, dividend and capital-gains tax
// for one year. Dividends stack on top of ordinary income and gains stack on
// top of both, so each category lands at its correct marginal position.
func (tc *TaxCalculator) CalculateAnnualTax(ordinary, dividends, gains, inflationIndex decimal.Decimal) decimal.Decimal {
	factor := tc.indexingFactor(inflationIndex)

	tax := tc.CalculateRuleTax(ordinary, tc.Profile.IncomeTax, factor, decimal.Zero)
	tax = tax.Add(tc.CalculateRuleTax(dividends, tc.Profile.Dividends, factor, ordinary))
	tax = tax.Add(tc.CalculateRuleTax(gains, tc.Profile.CapitalGains, factor, ordinary.Add(dividends)))
	return tax
}

// CalculatePropertyTax evaluates the profile's property rule against the
// combined assessed property value
func (tc *TaxCalculator) CalculatePropertyTax(propertyValue, inflationIndex decimal.Decimal) decimal.Decimal {
	return tc.CalculateRuleTax(propertyValue, tc.Profile.PropertyTax, tc.indexingFactor(inflationIndex), decimal.Zero)
}

// OrdinaryBracketCeiling returns the gross ordinary income at which the
// income-tax bracket carrying the given marginal rate tops out, with bracket
// ceiling and allowance indexed for inflation. Returns false when the income
// tax is not progressive, no bracket carries the rate, or the matching
// bracket is the unbounded top bracket.
func (tc *TaxCalculator) OrdinaryBracketCeiling(rate, inflationIndex decimal.Decimal) (decimal.Decimal, bool) {
	rule := tc.Profile.IncomeTax
	if rule.Kind != TaxRuleProgressive {
		return decimal.Zero, false
	}
	factor := tc.indexingFactor(inflationIndex)
	for i, bracket := range rule.Brackets {
		if i == len(rule.Brackets)-1 {
			break
		}
		if bracket.Rate.Equal(rate) {
			return bracket.Ceiling.Add(rule.Allowance).Mul(factor), true
		}
	}
	return decimal.Zero, false
}

func (tc *TaxCalculator) indexingFactor(inflationIndex decimal.Decimal) decimal.Decimal {
	if !tc.Profile.IndexBrackets {
		return decimal.NewFromInt(1)
	}
	if inflationIndex.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return inflationIndex
}

// progressiveTax computes the total tax on income under the full bracket
// schedule, scaling ceilings and the allowance by the indexing factor
func progressiveTax(income decimal.Decimal, rule TaxRule, indexFactor decimal.Decimal) decimal.Decimal {
	taxable := income
	if rule.Allowance.GreaterThan(decimal.Zero) {
		taxable = taxable.Sub(rule.Allowance.Mul(indexFactor))
	}
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var tax decimal.Decimal
	floor := decimal.Zero
	for i, bracket := range rule.Brackets {
		last := i == len(rule.Brackets)-1
		ceiling := bracket.Ceiling.Mul(indexFactor)

		var incomeInBracket decimal.Decimal
		if last {
			incomeInBracket = taxable.Sub(floor)
		} else {
			incomeInBracket = decimal.Min(taxable, ceiling).Sub(floor)
		}
		if incomeInBracket.GreaterThan(decimal.Zero) {
			tax = tax.Add(incomeInBracket.Mul(bracket.Rate))
		}
		if !last && taxable.LessThanOrEqual(ceiling) {
			break
		}
		floor = ceiling
	}
	return tax
}
