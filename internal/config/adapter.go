package config

import (
	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// percent converts a fraction rate to the engine's whole-percent convention
func percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred)
}

// ToSimulationInput converts a validated plan into the engine's input shape.
// Plan rates are decimal fractions while the engine's assumptions block
// expects whole-percent numbers, so every rate field is multiplied by 100
// here. The target bracket rate of a Roth conversion policy is the one
// exception: it selects a bracket by its marginal rate, and profile bracket
// rates are fractions.
func ToSimulationInput(plan *Plan) *domain.SimulationInput {
	in := &domain.SimulationInput{
		CurrentAge:     plan.Household.CurrentAge,
		RetirementAge:  plan.Household.RetirementAge,
		LifeExpectancy: plan.Household.LifeExpectancy,
		Assets: domain.Assets{
			Taxable:            toAssetPot(&plan.Accounts.Taxable),
			TaxDeferred:        toAssetPot(&plan.Accounts.TaxDeferred),
			TaxFree:            toAssetPot(&plan.Accounts.TaxFree),
			PrimaryHome:        plan.Property.PrimaryHome,
			InvestmentProperty: plan.Property.InvestmentProperty,
			OtherAssets:        plan.Property.OtherAssets,
		},
		CashFlow: domain.CashFlow{
			Salary:             plan.Income.Salary,
			SavingsTaxable:     plan.Savings.Taxable,
			SavingsTaxDeferred: plan.Savings.TaxDeferred,
			SavingsTaxFree:     plan.Savings.TaxFree,
			WorkingExpenses:    plan.Spending.Working,
			GoGoExpenses:       plan.Spending.GoGo,
			SlowGoExpenses:     plan.Spending.SlowGo,
			SlowGoAge:          plan.Spending.SlowGoAge,
			PensionAnnual:      plan.Income.PensionAnnual,
			PensionStartAge:    plan.Income.PensionStartAge,
		},
		Assumptions: domain.Assumptions{
			InflationRate:        percent(plan.Market.InflationRate),
			StockReturn:          percent(plan.Market.StockReturn),
			BondReturn:           percent(plan.Market.BondReturn),
			CashReturn:           percent(plan.Market.CashReturn),
			DividendYield:        percent(plan.Market.DividendYield),
			PropertyAppreciation: percent(plan.Market.PropertyAppreciation),
			RentalYield:          percent(plan.Market.RentalYield),
			CountryCode:          plan.Household.CountryCode,
			YearsToProject:       plan.Market.YearsToProject,
		},
		WithdrawalStrategy: plan.WithdrawalStrategy,
	}

	if m := plan.Liabilities.Mortgage; m != nil {
		in.Mortgage = &domain.Mortgage{
			Balance:   m.Balance,
			Rate:      percent(m.Rate),
			TermYears: m.TermYears,
		}
	}
	if o := plan.Liabilities.OtherLoan; o != nil {
		strategy := o.PaybackStrategy
		if strategy == "" {
			strategy = domain.PaybackInterestOnly
		}
		in.OtherLoan = &domain.OtherLoan{
			Balance:           o.Balance,
			Rate:              percent(o.Rate),
			PaybackStrategy:   strategy,
			AmortizationYears: o.AmortizationYears,
		}
	}
	if st := plan.StressTest; st != nil {
		in.StressTest = &domain.StressTest{
			CrashAge:           st.CrashAge,
			DropPercent:        percent(st.Drop),
			RecoveryYears:      st.RecoveryYears,
			RecoveryReturn:     percent(st.RecoveryReturn),
			FlexibleCutPercent: percent(st.FlexibleCut),
		}
	}
	if inh := plan.Inheritance; inh != nil {
		destination := inh.Destination
		if destination == "" {
			destination = domain.InheritanceToTaxable
		}
		in.Inheritance = &domain.Inheritance{
			Age:         inh.Age,
			Amount:      inh.Amount,
			Destination: destination,
		}
	}
	if g := plan.Gift; g != nil {
		source := g.Source
		if source == "" {
			source = domain.GiftFromTaxable
		}
		in.Gift = &domain.Gift{
			Age:    g.Age,
			Amount: g.Amount,
			Source: source,
		}
	}
	if rc := plan.RothConversion; rc != nil {
		in.RothConversion = &domain.RothConversionPolicy{
			Mode:              rc.Mode,
			AnnualAmount:      rc.AnnualAmount,
			TargetBracketRate: rc.TargetBracketRate,
			StartAge:          rc.StartAge,
			EndAge:            rc.EndAge,
		}
	}

	return in
}

func toAssetPot(t *AccountTier) domain.AssetPot {
	pot := domain.AssetPot{
		Stock: t.Stock,
		Bond:  t.Bond,
		Cash:  t.Cash,
	}
	if t.StockBasis != nil {
		basis := *t.StockBasis
		pot.StockBasis = &basis
	}
	if t.BondBasis != nil {
		basis := *t.BondBasis
		pot.BondBasis = &basis
	}
	if t.CashBasis != nil {
		basis := *t.CashBasis
		pot.CashBasis = &basis
	}
	return pot
}

// ProjectionPoint is the UI-facing shape of one simulated year, with each
// account tier's balance split into stock/bond/cash
type ProjectionPoint struct {
	Year    int  `json:"year"`
	Age     int  `json:"age"`
	Retired bool `json:"retired"`

	TaxableStock     decimal.Decimal `json:"taxable_stock"`
	TaxableBond      decimal.Decimal `json:"taxable_bond"`
	TaxableCash      decimal.Decimal `json:"taxable_cash"`
	TaxDeferredStock decimal.Decimal `json:"tax_deferred_stock"`
	TaxDeferredBond  decimal.Decimal `json:"tax_deferred_bond"`
	TaxDeferredCash  decimal.Decimal `json:"tax_deferred_cash"`
	TaxFreeStock     decimal.Decimal `json:"tax_free_stock"`
	TaxFreeBond      decimal.Decimal `json:"tax_free_bond"`
	TaxFreeCash      decimal.Decimal `json:"tax_free_cash"`

	PrimaryHome        decimal.Decimal `json:"primary_home"`
	InvestmentProperty decimal.Decimal `json:"investment_property"`
	OtherAssets        decimal.Decimal `json:"other_assets"`
	MortgageBalance    decimal.Decimal `json:"mortgage_balance"`
	OtherLoanBalance   decimal.Decimal `json:"other_loan_balance"`

	TotalIncome decimal.Decimal `json:"total_income"`
	Expenses    decimal.Decimal `json:"expenses"`
	TaxPaid     decimal.Decimal `json:"tax_paid"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Shortfall   decimal.Decimal `json:"shortfall"`
	NetWorth    decimal.Decimal `json:"net_worth"`
}

// tierRatios captures a tier's initial asset-class mix
type tierRatios struct {
	stock decimal.Decimal
	bond  decimal.Decimal
	cash  decimal.Decimal
}

func ratiosFor(t *AccountTier) tierRatios {
	total := t.Total()
	if total.LessThanOrEqual(decimal.Zero) {
		// Empty tiers fill with stock first, mirroring where engine
		// contributions land
		return tierRatios{stock: decimal.NewFromInt(1)}
	}
	return tierRatios{
		stock: t.Stock.Div(total),
		bond:  t.Bond.Div(total),
		cash:  t.Cash.Div(total),
	}
}

// split divides a tier total by the captured mix, assigning any rounding
// remainder to cash so the three parts always sum to the total
func (r tierRatios) split(total decimal.Decimal) (stock, bond, cash decimal.Decimal) {
	stock = total.Mul(r.stock)
	bond = total.Mul(r.bond)
	cash = total.Sub(stock).Sub(bond)
	return stock, bond, cash
}

// ToProjectionPoints converts the engine's yearly series into UI-facing
// points. The engine reports tier totals only; the stock/bond/cash split is
// estimated by re-applying each tier's initial asset mix. This is an
// approximation, not an exact reconstruction: it drifts as asset classes
// grow at different rates.
func ToProjectionPoints(plan *Plan, result *domain.SimulationResult) []ProjectionPoint {
	taxable := ratiosFor(&plan.Accounts.Taxable)
	deferred := ratiosFor(&plan.Accounts.TaxDeferred)
	taxFree := ratiosFor(&plan.Accounts.TaxFree)

	points := make([]ProjectionPoint, 0, len(result.Years))
	for i := range result.Years {
		y := &result.Years[i]
		p := ProjectionPoint{
			Year:               y.Year,
			Age:                y.Age,
			Retired:            y.Retired,
			PrimaryHome:        y.PrimaryHomeValue,
			InvestmentProperty: y.InvestmentPropertyValue,
			OtherAssets:        y.OtherAssetsValue,
			MortgageBalance:    y.MortgageBalance,
			OtherLoanBalance:   y.OtherLoanBalance,
			TotalIncome:        y.TotalIncome(),
			Expenses:           y.Expenses,
			TaxPaid:            y.TaxPaid,
			Withdrawals:        y.Withdrawals,
			Shortfall:          y.Shortfall,
			NetWorth:           y.NetWorth,
		}
		p.TaxableStock, p.TaxableBond, p.TaxableCash = taxable.split(y.TaxableBalance)
		p.TaxDeferredStock, p.TaxDeferredBond, p.TaxDeferredCash = deferred.split(y.TaxDeferredBalance)
		p.TaxFreeStock, p.TaxFreeBond, p.TaxFreeCash = taxFree.split(y.TaxFreeBalance)
		points = append(points, p)
	}
	return points
}
