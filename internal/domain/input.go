package domain

import (
	"github.com/shopspring/decimal"
)

// Withdrawal strategy names accepted by SimulationInput.WithdrawalStrategy
const (
	StrategyStandard     = "standard"
	StrategyTaxSensitive = "tax_sensitive"
	StrategyProRata      = "pro_rata"
)

// Loan payback strategies accepted by OtherLoan.PaybackStrategy
const (
	PaybackInterestOnly = "interest_only"
	PaybackAtRetirement = "at_retirement"
	PaybackAmortized    = "amortized"
)

// Roth conversion modes accepted by RothConversionPolicy.Mode
const (
	RothConversionFixedAmount = "fixed_amount"
	RothConversionFillBracket = "fill_bracket"
)

// Destinations for a one-time inheritance
const (
	InheritanceToTaxable  = "taxable"
	InheritanceToProperty = "investment_property"
)

// Sources a one-time gift can be taken from
const (
	GiftFromTaxable     = "taxable"
	GiftFromPrimaryHome = "primary_home"
	GiftFromOtherAssets = "other_assets"
)

// AssetPot is one tax-treatment bucket of assets holding stock, bond and cash balances
type AssetPot struct {
	Stock decimal.Decimal `yaml:"stock" json:"stock"`
	Bond  decimal.Decimal `yaml:"bond" json:"bond"`
	Cash  decimal.Decimal `yaml:"cash" json:"cash"`

	// Cost bases for capital-gains tracking (optional - when absent a default
	// unrealized-gain ratio is assumed at withdrawal time)
	StockBasis *decimal.Decimal `yaml:"stock_basis,omitempty" json:"stock_basis,omitempty"`
	BondBasis  *decimal.Decimal `yaml:"bond_basis,omitempty" json:"bond_basis,omitempty"`
	CashBasis  *decimal.Decimal `yaml:"cash_basis,omitempty" json:"cash_basis,omitempty"`
}

// Total returns the combined stock, bond and cash balance of the pot
func (p *AssetPot) Total() decimal.Decimal {
	return p.Stock.Add(p.Bond).Add(p.Cash)
}

// IsEmpty returns true if the pot holds no assets
func (p *AssetPot) IsEmpty() bool {
	return p.Total().LessThanOrEqual(decimal.Zero)
}

// Clone returns a deep copy of the pot, duplicating basis pointers
func (p *AssetPot) Clone() AssetPot {
	out := AssetPot{
		Stock: p.Stock,
		Bond:  p.Bond,
		Cash:  p.Cash,
	}
	if p.StockBasis != nil {
		v := *p.StockBasis
		out.StockBasis = &v
	}
	if p.BondBasis != nil {
		v := *p.BondBasis
		out.BondBasis = &v
	}
	if p.CashBasis != nil {
		v := *p.CashBasis
		out.CashBasis = &v
	}
	return out
}

// Assets groups the three tax-treatment pots with property and other holdings
type Assets struct {
	Taxable     AssetPot `yaml:"taxable" json:"taxable"`
	TaxDeferred AssetPot `yaml:"tax_deferred" json:"tax_deferred"`
	TaxFree     AssetPot `yaml:"tax_free" json:"tax_free"`

	PrimaryHome        decimal.Decimal `yaml:"primary_home" json:"primary_home"`
	InvestmentProperty decimal.Decimal `yaml:"investment_property" json:"investment_property"`
	OtherAssets        decimal.Decimal `yaml:"other_assets" json:"other_assets"`
}

// TotalLiquid returns the combined balance of the three liquid pots
func (a *Assets) TotalLiquid() decimal.Decimal {
	return a.Taxable.Total().Add(a.TaxDeferred.Total()).Add(a.TaxFree.Total())
}

// Clone returns a deep copy of all asset pots and property values
func (a *Assets) Clone() Assets {
	return Assets{
		Taxable:            a.Taxable.Clone(),
		TaxDeferred:        a.TaxDeferred.Clone(),
		TaxFree:            a.TaxFree.Clone(),
		PrimaryHome:        a.PrimaryHome,
		InvestmentProperty: a.InvestmentProperty,
		OtherAssets:        a.OtherAssets,
	}
}

// Mortgage represents the primary-home mortgage with a fixed amortization schedule
type Mortgage struct {
	Balance   decimal.Decimal `yaml:"balance" json:"balance"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"` // Whole percent (4 means 4%)
	TermYears int             `yaml:"term_years" json:"term_years"`
}

// OtherLoan represents a general interest-bearing loan or margin debt
type OtherLoan struct {
	Balance           decimal.Decimal `yaml:"balance" json:"balance"`
	Rate              decimal.Decimal `yaml:"rate" json:"rate"`                         // Whole percent
	PaybackStrategy   string          `yaml:"payback_strategy" json:"payback_strategy"` // interest_only|at_retirement|amortized
	AmortizationYears int             `yaml:"amortization_years,omitempty" json:"amortization_years,omitempty"`
}

// CashFlow holds the working-phase income, savings plan and the
// two-phase retirement spending model
type CashFlow struct {
	Salary decimal.Decimal `yaml:"salary" json:"salary"`

	// Annual savings allocated while working, one amount per pot
	SavingsTaxable     decimal.Decimal `yaml:"savings_taxable" json:"savings_taxable"`
	SavingsTaxDeferred decimal.Decimal `yaml:"savings_tax_deferred" json:"savings_tax_deferred"`
	SavingsTaxFree     decimal.Decimal `yaml:"savings_tax_free" json:"savings_tax_free"`

	// Annual expense targets per phase, in today's money
	WorkingExpenses decimal.Decimal `yaml:"working_expenses" json:"working_expenses"`
	GoGoExpenses    decimal.Decimal `yaml:"go_go_expenses" json:"go_go_expenses"`
	SlowGoExpenses  decimal.Decimal `yaml:"slow_go_expenses" json:"slow_go_expenses"`
	SlowGoAge       int             `yaml:"slow_go_age" json:"slow_go_age"`

	PensionAnnual   decimal.Decimal `yaml:"pension_annual" json:"pension_annual"`
	PensionStartAge int             `yaml:"pension_start_age" json:"pension_start_age"`
}

// TotalSavings returns the combined annual savings across all three pots
func (cf *CashFlow) TotalSavings() decimal.Decimal {
	return cf.SavingsTaxable.Add(cf.SavingsTaxDeferred).Add(cf.SavingsTaxFree)
}

// Assumptions contains the market and demographic parameters for a projection.
// All rate fields are whole-percent values (7 means 7%).
type Assumptions struct {
	InflationRate        decimal.Decimal `yaml:"inflation_rate" json:"inflation_rate"`
	StockReturn          decimal.Decimal `yaml:"stock_return" json:"stock_return"`
	BondReturn           decimal.Decimal `yaml:"bond_return" json:"bond_return"`
	CashReturn           decimal.Decimal `yaml:"cash_return" json:"cash_return"`
	DividendYield        decimal.Decimal `yaml:"dividend_yield" json:"dividend_yield"`
	PropertyAppreciation decimal.Decimal `yaml:"property_appreciation" json:"property_appreciation"`
	RentalYield          decimal.Decimal `yaml:"rental_yield" json:"rental_yield"`
	CountryCode          string          `yaml:"country_code" json:"country_code"` // ISO code, e.g. "US", "UK", "DE"
	YearsToProject       int             `yaml:"years_to_project" json:"years_to_project"`
}

// StressTest describes a one-time market crash injected into the projection
type StressTest struct {
	CrashAge           int             `yaml:"crash_age" json:"crash_age"`
	DropPercent        decimal.Decimal `yaml:"drop_percent" json:"drop_percent"` // Whole percent (30 means a 30% drop)
	RecoveryYears      int             `yaml:"recovery_years" json:"recovery_years"`
	RecoveryReturn     decimal.Decimal `yaml:"recovery_return" json:"recovery_return"`           // Stock return override during recovery, whole percent
	FlexibleCutPercent decimal.Decimal `yaml:"flexible_cut_percent" json:"flexible_cut_percent"` // Spending cut during recovery, whole percent
}

// Inheritance represents a one-time receipt at a specific age
type Inheritance struct {
	Age         int             `yaml:"age" json:"age"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"` // Today's money, inflation-scaled when received
	Destination string          `yaml:"destination,omitempty" json:"destination,omitempty"`
}

// Gift represents a one-time outflow at a specific age
type Gift struct {
	Age    int             `yaml:"age" json:"age"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"` // Nominal at the time of the gift
	Source string          `yaml:"source,omitempty" json:"source,omitempty"`
}

// RothConversionPolicy controls voluntary tax-deferred to tax-free conversions.
// In fill_bracket mode the target bracket is identified by its rate as a
// decimal fraction (0.24 selects the 24% bracket).
type RothConversionPolicy struct {
	Mode              string          `yaml:"mode" json:"mode"` // fixed_amount|fill_bracket
	AnnualAmount      decimal.Decimal `yaml:"annual_amount,omitempty" json:"annual_amount,omitempty"`
	TargetBracketRate decimal.Decimal `yaml:"target_bracket_rate,omitempty" json:"target_bracket_rate,omitempty"`
	StartAge          int             `yaml:"start_age,omitempty" json:"start_age,omitempty"`
	EndAge            int             `yaml:"end_age,omitempty" json:"end_age,omitempty"`
}

// AppliesAt returns true if conversions are active in the year ending at the given age
func (rc *RothConversionPolicy) AppliesAt(age int) bool {
	if rc.StartAge > 0 && age < rc.StartAge {
		return false
	}
	if rc.EndAge > 0 && age > rc.EndAge {
		return false
	}
	return true
}

// YearReturns overrides the growth rates for a single simulated year.
// All rates are whole-percent values, matching Assumptions.
type YearReturns struct {
	Year        int             `yaml:"year,omitempty" json:"year,omitempty"`
	StockReturn decimal.Decimal `yaml:"stock_return" json:"stock_return"`
	BondReturn  decimal.Decimal `yaml:"bond_return" json:"bond_return"`
	CashReturn  decimal.Decimal `yaml:"cash_return" json:"cash_return"`
	Inflation   decimal.Decimal `yaml:"inflation" json:"inflation"`
}

// SimulationInput is the complete immutable configuration for one projection run
type SimulationInput struct {
	CurrentAge     int `yaml:"current_age" json:"current_age"`
	RetirementAge  int `yaml:"retirement_age" json:"retirement_age"`
	LifeExpectancy int `yaml:"life_expectancy" json:"life_expectancy"`

	Assets      Assets      `yaml:"assets" json:"assets"`
	Mortgage    *Mortgage   `yaml:"mortgage,omitempty" json:"mortgage,omitempty"`
	OtherLoan   *OtherLoan  `yaml:"other_loan,omitempty" json:"other_loan,omitempty"`
	CashFlow    CashFlow    `yaml:"cash_flow" json:"cash_flow"`
	Assumptions Assumptions `yaml:"assumptions" json:"assumptions"`

	WithdrawalStrategy string `yaml:"withdrawal_strategy" json:"withdrawal_strategy"` // standard|tax_sensitive|pro_rata

	StressTest     *StressTest           `yaml:"stress_test,omitempty" json:"stress_test,omitempty"`
	Inheritance    *Inheritance          `yaml:"inheritance,omitempty" json:"inheritance,omitempty"`
	Gift           *Gift                 `yaml:"gift,omitempty" json:"gift,omitempty"`
	RothConversion *RothConversionPolicy `yaml:"roth_conversion,omitempty" json:"roth_conversion,omitempty"`

	// Per-year return overrides, used by the Monte Carlo harness. When set,
	// entry k-1 supplies the rates for simulated year k.
	ReturnSequence []YearReturns `yaml:"return_sequence,omitempty" json:"return_sequence,omitempty"`
}

// ProjectionYears returns the number of years the simulation should advance
func (si *SimulationInput) ProjectionYears() int {
	if si.Assumptions.YearsToProject > 0 {
		return si.Assumptions.YearsToProject
	}
	if si.LifeExpectancy > si.CurrentAge {
		return si.LifeExpectancy - si.CurrentAge
	}
	return 0
}

// RetiredAt reports whether the household is retired in the simulated year
// ending at the given age. The year ending at the retirement age itself is
// the last working year.
func (si *SimulationInput) RetiredAt(age int) bool {
	return age > si.RetirementAge
}

// Clone returns a deep copy of the input. Monte Carlo iterations each work on
// their own clone so runs never share mutable state.
func (si *SimulationInput) Clone() *SimulationInput {
	out := &SimulationInput{
		CurrentAge:         si.CurrentAge,
		RetirementAge:      si.RetirementAge,
		LifeExpectancy:     si.LifeExpectancy,
		Assets:             si.Assets.Clone(),
		CashFlow:           si.CashFlow,
		Assumptions:        si.Assumptions,
		WithdrawalStrategy: si.WithdrawalStrategy,
	}
	if si.Mortgage != nil {
		m := *si.Mortgage
		out.Mortgage = &m
	}
	if si.OtherLoan != nil {
		l := *si.OtherLoan
		out.OtherLoan = &l
	}
	if si.StressTest != nil {
		st := *si.StressTest
		out.StressTest = &st
	}
	if si.Inheritance != nil {
		inh := *si.Inheritance
		out.Inheritance = &inh
	}
	if si.Gift != nil {
		g := *si.Gift
		out.Gift = &g
	}
	if si.RothConversion != nil {
		rc := *si.RothConversion
		out.RothConversion = &rc
	}
	if si.ReturnSequence != nil {
		out.ReturnSequence = make([]YearReturns, len(si.ReturnSequence))
		copy(out.ReturnSequence, si.ReturnSequence)
	}
	return out
}
