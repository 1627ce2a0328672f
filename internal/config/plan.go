package config

import (
	"github.com/shopspring/decimal"
)

// Plan is the user-editable plan configuration. All rate fields are decimal
// fractions (0.07 means 7%); the adapter converts them to the whole-percent
// convention the simulation engine expects.
type Plan struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Mode        string `yaml:"mode,omitempty" json:"mode,omitempty"` // Default: pro

	Household   Household   `yaml:"household" json:"household"`
	Accounts    Accounts    `yaml:"accounts" json:"accounts"`
	Property    Property    `yaml:"property,omitempty" json:"property,omitempty"`
	Liabilities Liabilities `yaml:"liabilities,omitempty" json:"liabilities,omitempty"`
	Income      Income      `yaml:"income" json:"income"`
	Spending    Spending    `yaml:"spending" json:"spending"`
	Savings     SavingsPlan `yaml:"savings,omitempty" json:"savings,omitempty"`

	Market             MarketAssumptions `yaml:"market" json:"market"`
	WithdrawalStrategy string            `yaml:"withdrawal_strategy,omitempty" json:"withdrawal_strategy,omitempty"` // Default: standard

	StressTest     *StressTestConfig     `yaml:"stress_test,omitempty" json:"stress_test,omitempty"`
	Inheritance    *InheritanceConfig    `yaml:"inheritance,omitempty" json:"inheritance,omitempty"`
	Gift           *GiftConfig           `yaml:"gift,omitempty" json:"gift,omitempty"`
	RothConversion *RothConversionConfig `yaml:"roth_conversion,omitempty" json:"roth_conversion,omitempty"`
}

// Household holds the ages and jurisdiction the projection runs over
type Household struct {
	CurrentAge     int    `yaml:"current_age" json:"current_age"`
	RetirementAge  int    `yaml:"retirement_age" json:"retirement_age"`
	LifeExpectancy int    `yaml:"life_expectancy" json:"life_expectancy"`
	CountryCode    string `yaml:"country_code" json:"country_code"`
}

// AccountTier holds one tax tier's balances by asset class. Basis fields are
// optional; when omitted the engine assumes half of any liquidation is
// unrealized gain.
type AccountTier struct {
	Stock decimal.Decimal `yaml:"stock" json:"stock"`
	Bond  decimal.Decimal `yaml:"bond" json:"bond"`
	Cash  decimal.Decimal `yaml:"cash" json:"cash"`

	StockBasis *decimal.Decimal `yaml:"stock_basis,omitempty" json:"stock_basis,omitempty"`
	BondBasis  *decimal.Decimal `yaml:"bond_basis,omitempty" json:"bond_basis,omitempty"`
	CashBasis  *decimal.Decimal `yaml:"cash_basis,omitempty" json:"cash_basis,omitempty"`
}

// Total returns the tier's combined balance
func (t *AccountTier) Total() decimal.Decimal {
	return t.Stock.Add(t.Bond).Add(t.Cash)
}

// Accounts groups the three tax-treatment tiers
type Accounts struct {
	Taxable     AccountTier `yaml:"taxable" json:"taxable"`
	TaxDeferred AccountTier `yaml:"tax_deferred" json:"tax_deferred"`
	TaxFree     AccountTier `yaml:"tax_free" json:"tax_free"`
}

// Property holds illiquid asset values
type Property struct {
	PrimaryHome        decimal.Decimal `yaml:"primary_home,omitempty" json:"primary_home,omitempty"`
	InvestmentProperty decimal.Decimal `yaml:"investment_property,omitempty" json:"investment_property,omitempty"`
	OtherAssets        decimal.Decimal `yaml:"other_assets,omitempty" json:"other_assets,omitempty"`
}

// Liabilities holds the optional debts
type Liabilities struct {
	Mortgage  *MortgageConfig `yaml:"mortgage,omitempty" json:"mortgage,omitempty"`
	OtherLoan *LoanConfig     `yaml:"other_loan,omitempty" json:"other_loan,omitempty"`
}

// MortgageConfig describes a fixed-rate amortizing mortgage
type MortgageConfig struct {
	Balance   decimal.Decimal `yaml:"balance" json:"balance"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"` // Fraction, e.g. 0.04
	TermYears int             `yaml:"term_years" json:"term_years"`
}

// LoanConfig describes a general interest-bearing loan or margin debt
type LoanConfig struct {
	Balance           decimal.Decimal `yaml:"balance" json:"balance"`
	Rate              decimal.Decimal `yaml:"rate" json:"rate"` // Fraction
	PaybackStrategy   string          `yaml:"payback_strategy" json:"payback_strategy"`
	AmortizationYears int             `yaml:"amortization_years,omitempty" json:"amortization_years,omitempty"`
}

// Income holds salary and pension parameters
type Income struct {
	Salary          decimal.Decimal `yaml:"salary,omitempty" json:"salary,omitempty"`
	PensionAnnual   decimal.Decimal `yaml:"pension_annual,omitempty" json:"pension_annual,omitempty"`
	PensionStartAge int             `yaml:"pension_start_age,omitempty" json:"pension_start_age,omitempty"`
}

// Spending holds the phased annual expense levels. Working applies before
// retirement, go-go from retirement until the slow-go age, slow-go after.
type Spending struct {
	Working   decimal.Decimal `yaml:"working" json:"working"`
	GoGo      decimal.Decimal `yaml:"go_go" json:"go_go"`
	SlowGo    decimal.Decimal `yaml:"slow_go,omitempty" json:"slow_go,omitempty"`
	SlowGoAge int             `yaml:"slow_go_age,omitempty" json:"slow_go_age,omitempty"`
}

// SavingsPlan holds annual pre-retirement contribution amounts per tier
type SavingsPlan struct {
	Taxable     decimal.Decimal `yaml:"taxable,omitempty" json:"taxable,omitempty"`
	TaxDeferred decimal.Decimal `yaml:"tax_deferred,omitempty" json:"tax_deferred,omitempty"`
	TaxFree     decimal.Decimal `yaml:"tax_free,omitempty" json:"tax_free,omitempty"`
}

// MarketAssumptions holds the long-run rate assumptions as fractions
type MarketAssumptions struct {
	InflationRate        decimal.Decimal `yaml:"inflation_rate" json:"inflation_rate"`
	StockReturn          decimal.Decimal `yaml:"stock_return" json:"stock_return"`
	BondReturn           decimal.Decimal `yaml:"bond_return" json:"bond_return"`
	CashReturn           decimal.Decimal `yaml:"cash_return" json:"cash_return"`
	DividendYield        decimal.Decimal `yaml:"dividend_yield,omitempty" json:"dividend_yield,omitempty"`
	PropertyAppreciation decimal.Decimal `yaml:"property_appreciation,omitempty" json:"property_appreciation,omitempty"`
	RentalYield          decimal.Decimal `yaml:"rental_yield,omitempty" json:"rental_yield,omitempty"`

	// YearsToProject overrides the life-expectancy horizon when positive
	YearsToProject int `yaml:"years_to_project,omitempty" json:"years_to_project,omitempty"`
}

// StressTestConfig describes a one-time market crash and recovery window
type StressTestConfig struct {
	CrashAge       int             `yaml:"crash_age" json:"crash_age"`
	Drop           decimal.Decimal `yaml:"drop" json:"drop"` // Fraction of stock/bond value lost
	RecoveryYears  int             `yaml:"recovery_years,omitempty" json:"recovery_years,omitempty"`
	RecoveryReturn decimal.Decimal `yaml:"recovery_return,omitempty" json:"recovery_return,omitempty"` // Fraction, overrides stock return
	FlexibleCut    decimal.Decimal `yaml:"flexible_cut,omitempty" json:"flexible_cut,omitempty"`       // Fraction of spending cut during recovery
}

// InheritanceConfig describes a one-time receipt at a given age
type InheritanceConfig struct {
	Age         int             `yaml:"age" json:"age"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"` // Today's money, inflation-scaled on receipt
	Destination string          `yaml:"destination,omitempty" json:"destination,omitempty"`
}

// GiftConfig describes a one-time outbound gift at a given age
type GiftConfig struct {
	Age    int             `yaml:"age" json:"age"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
	Source string          `yaml:"source,omitempty" json:"source,omitempty"`
}

// RothConversionConfig describes an annual deferred-to-tax-free conversion
// policy
type RothConversionConfig struct {
	Mode         string          `yaml:"mode" json:"mode"`
	AnnualAmount decimal.Decimal `yaml:"annual_amount,omitempty" json:"annual_amount,omitempty"`

	// TargetBracketRate selects the income bracket to fill by its marginal
	// rate as a fraction, e.g. 0.24 for the 24% bracket
	TargetBracketRate decimal.Decimal `yaml:"target_bracket_rate,omitempty" json:"target_bracket_rate,omitempty"`

	StartAge int `yaml:"start_age,omitempty" json:"start_age,omitempty"`
	EndAge   int `yaml:"end_age,omitempty" json:"end_age,omitempty"`
}
