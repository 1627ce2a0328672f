package domain

import (
	"github.com/shopspring/decimal"
)

// YearSnapshot captures the complete state of one simulated year. Snapshots
// are produced once by the year-step engine and never mutated afterwards.
type YearSnapshot struct {
	Year    int  `json:"year"`
	Age     int  `json:"age"`
	Retired bool `json:"is_retired"`

	// Balances (end of year)
	TaxableBalance          decimal.Decimal `json:"taxable_balance"`
	TaxDeferredBalance      decimal.Decimal `json:"tax_deferred_balance"`
	TaxFreeBalance          decimal.Decimal `json:"tax_free_balance"`
	PrimaryHomeValue        decimal.Decimal `json:"primary_home_value"`
	InvestmentPropertyValue decimal.Decimal `json:"investment_property_value"`
	OtherAssetsValue        decimal.Decimal `json:"other_assets_value"`
	MortgageBalance         decimal.Decimal `json:"mortgage_balance"`
	OtherLoanBalance        decimal.Decimal `json:"other_loan_balance"`

	// Income components
	Salary        decimal.Decimal `json:"salary"`
	Pension       decimal.Decimal `json:"pension"`
	RentalIncome  decimal.Decimal `json:"rental_income"`
	Dividends     decimal.Decimal `json:"dividends"`
	Withdrawals   decimal.Decimal `json:"withdrawals"`
	RealizedGains decimal.Decimal `json:"realized_gains"`

	// Spending and debt service
	Expenses          decimal.Decimal `json:"expenses"`
	MortgageInterest  decimal.Decimal `json:"mortgage_interest"`
	MortgagePrincipal decimal.Decimal `json:"mortgage_principal"`
	OtherLoanInterest decimal.Decimal `json:"other_loan_interest"`
	OtherLoanPayment  decimal.Decimal `json:"other_loan_payment"`

	// Taxes and mandated flows
	TaxPaid        decimal.Decimal `json:"tax_paid"`
	PropertyTax    decimal.Decimal `json:"property_tax"`
	RMDRequired    decimal.Decimal `json:"rmd_required"`
	RMDTaken       decimal.Decimal `json:"rmd_taken"`
	RothConversion decimal.Decimal `json:"roth_conversion"`

	// Plan health
	Shortfall decimal.Decimal `json:"shortfall"` // Cumulative, never decreases
	NetWorth  decimal.Decimal `json:"net_worth"`
}

// TotalIncome returns the gross income recognized in this year
func (ys *YearSnapshot) TotalIncome() decimal.Decimal {
	return ys.Salary.Add(ys.Pension).
		Add(ys.RentalIncome).Add(ys.Dividends).
		Add(ys.Withdrawals)
}

// TotalDebtService returns the combined mortgage and loan payments for the year
func (ys *YearSnapshot) TotalDebtService() decimal.Decimal {
	return ys.MortgageInterest.Add(ys.MortgagePrincipal).Add(ys.OtherLoanPayment)
}

// LiquidAssets returns the combined balance of the three pots
func (ys *YearSnapshot) LiquidAssets() decimal.Decimal {
	return ys.TaxableBalance.Add(ys.TaxDeferredBalance).Add(ys.TaxFreeBalance)
}

// HasShortfall returns true once the plan has failed to cover its cash needs
func (ys *YearSnapshot) HasShortfall() bool {
	return ys.Shortfall.GreaterThan(decimal.Zero)
}

// Summary aggregates a full projection run into headline metrics
type Summary struct {
	YearsProjected   int             `json:"years_projected"`
	FinalNetWorth    decimal.Decimal `json:"final_net_worth"`
	TotalTaxPaid     decimal.Decimal `json:"total_tax_paid"`
	TotalTaxPaidReal decimal.Decimal `json:"total_tax_paid_real"` // Deflated to today's money
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	TotalGrossIncome decimal.Decimal `json:"total_gross_income"`

	// Consecutive years from the start with no cumulative shortfall
	RunwayYears int `json:"runway_years"`
}

// SimulationResult is the full output of one deterministic projection run
type SimulationResult struct {
	Years   []YearSnapshot `json:"years"`
	Summary Summary        `json:"summary"`
}

// FinalYear returns the last snapshot of the run, or nil for an empty result
func (sr *SimulationResult) FinalYear() *YearSnapshot {
	if len(sr.Years) == 0 {
		return nil
	}
	return &sr.Years[len(sr.Years)-1]
}
