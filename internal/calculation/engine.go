package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/domain"
)

// The withdrawal solver is a best-effort fixed-point loop, not a closed-form
// solve: it may under- or over-shoot by up to withdrawalEpsilon, and any gap
// left when the iteration cap is hit accumulates into the cumulative
// shortfall.
const maxWithdrawalIterations = 5

// withdrawalEpsilon is the residual cash gap treated as covered
var withdrawalEpsilon = decimal.NewFromInt(10)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// State is the mutable portion of a simulation between years. Step returns a
// fresh State every year, so callers never observe partial mutation and the
// Monte Carlo harness gets its per-iteration isolation structurally.
type State struct {
	Assets           domain.Assets
	MortgageBalance  decimal.Decimal
	OtherLoanBalance decimal.Decimal
	InflationIndex   decimal.Decimal // Cumulative price level, 1.0 at the start
	Shortfall        decimal.Decimal // Cumulative unmet cash need, never decreases
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := s
	out.Assets = s.Assets.Clone()
	return out
}

// NetWorth returns liquid assets plus property minus debt and accumulated
// shortfall
func (s *State) NetWorth() decimal.Decimal {
	return s.Assets.TotalLiquid().
		Add(s.Assets.PrimaryHome).
		Add(s.Assets.InvestmentProperty).
		Add(s.Assets.OtherAssets).
		Sub(s.MortgageBalance).
		Sub(s.OtherLoanBalance).
		Sub(s.Shortfall)
}

// Engine advances one household state through simulated years. It never
// fails on an infeasible plan: unmet cash needs degrade into the cumulative
// shortfall so every run produces a full-length series.
type Engine struct {
	Input    *domain.SimulationInput
	TaxCalc  *TaxCalculator
	RMDCalc  *RMDCalculator
	Strategy WithdrawalStrategy
	Logger   Logger

	// Fixed annuity payments, computed once from the initial schedules
	mortgagePayment  decimal.Decimal
	otherLoanPayment decimal.Decimal
}

// NewEngine creates an engine for one simulation input. The only error is an
// unknown country code on the tax profile lookup.
func NewEngine(input *domain.SimulationInput) (*Engine, error) {
	taxCalc, err := NewTaxCalculator(input.Assumptions.CountryCode)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Input:    input,
		TaxCalc:  taxCalc,
		RMDCalc:  NewRMDCalculator(nil),
		Strategy: NewWithdrawalStrategy(input.WithdrawalStrategy),
		Logger:   NopLogger{},
	}
	if m := input.Mortgage; m != nil {
		e.mortgagePayment = annuityPayment(m.Balance, m.Rate, m.TermYears)
	}
	if l := input.OtherLoan; l != nil && l.PaybackStrategy == domain.PaybackAmortized {
		e.otherLoanPayment = annuityPayment(l.Balance, l.Rate, l.AmortizationYears)
	}
	return e, nil
}

// SetLogger sets the logger for the engine. If nil is provided, a no-op
// logger is used.
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	e.Logger = l
	e.RMDCalc.logger = l
}

// InitialState builds the year-0 state from the input
func (e *Engine) InitialState() State {
	st := State{
		Assets:         e.Input.Assets.Clone(),
		InflationIndex: one,
	}
	if e.Input.Mortgage != nil {
		st.MortgageBalance = e.Input.Mortgage.Balance
	}
	if e.Input.OtherLoan != nil {
		st.OtherLoanBalance = e.Input.OtherLoan.Balance
	}
	return st
}

// Step advances the state by one year and freezes a snapshot of everything
// that happened. year counts from 1; the year ends at age CurrentAge+year.
func (e *Engine) Step(prev State, year int) (State, domain.YearSnapshot) {
	s := prev.Clone()
	in := e.Input
	age := in.CurrentAge + year
	retired := in.RetiredAt(age)
	inRecovery := e.inRecoveryWindow(age)
	returns := e.returnsForYear(year, age)

	// Market shock: a configured crash knocks stock and bond balances down
	// in the designated year. Cost bases stay put, the loss is unrealized.
	if st := in.StressTest; st != nil && age == st.CrashAge {
		keep := one.Sub(st.DropPercent.Div(hundred))
		for _, pot := range []*domain.AssetPot{&s.Assets.Taxable, &s.Assets.TaxDeferred, &s.Assets.TaxFree} {
			pot.Stock = pot.Stock.Mul(keep)
			pot.Bond = pot.Bond.Mul(keep)
		}
	}

	// Price level advances before anything is priced this year
	s.InflationIndex = s.InflationIndex.Mul(one.Add(returns.Inflation.Div(hundred)))

	// Growth. Retired taxable stock splits its return into price
	// appreciation and a separately taxed dividend yield.
	taxableStockBefore := s.Assets.Taxable.Stock
	stockRate := returns.StockReturn
	taxableStockRate := stockRate
	if retired {
		taxableStockRate = stockRate.Sub(in.Assumptions.DividendYield)
	}
	growPot(&s.Assets.Taxable, taxableStockRate, returns.BondReturn, returns.CashReturn)
	growPot(&s.Assets.TaxDeferred, stockRate, returns.BondReturn, returns.CashReturn)
	growPot(&s.Assets.TaxFree, stockRate, returns.BondReturn, returns.CashReturn)

	appreciation := one.Add(in.Assumptions.PropertyAppreciation.Div(hundred))
	s.Assets.PrimaryHome = s.Assets.PrimaryHome.Mul(appreciation)
	s.Assets.InvestmentProperty = s.Assets.InvestmentProperty.Mul(appreciation)

	// Income accrual
	var salary decimal.Decimal
	if !retired {
		salary = in.CashFlow.Salary.Mul(s.InflationIndex)
	}
	var pension decimal.Decimal
	if age >= in.CashFlow.PensionStartAge {
		pension = in.CashFlow.PensionAnnual.Mul(s.InflationIndex)
	}
	rental := s.Assets.InvestmentProperty.Mul(in.Assumptions.RentalYield.Div(hundred))
	var dividends decimal.Decimal
	if retired {
		dividends = taxableStockBefore.Mul(in.Assumptions.DividendYield.Div(hundred))
	}
	passiveIncome := salary.Add(pension).Add(rental).Add(dividends)

	// Expense target for the current phase, with the flexible post-crash cut
	expenses := e.expenseTarget(age, retired).Mul(s.InflationIndex)
	if inRecovery && in.StressTest.FlexibleCutPercent.GreaterThan(decimal.Zero) {
		expenses = expenses.Mul(one.Sub(in.StressTest.FlexibleCutPercent.Div(hundred)))
	}

	// Debt service
	mortInterest, mortPrincipal := e.serviceMortgage(&s)
	loanInterest, loanPayment := e.serviceOtherLoan(&s, age)
	debtService := mortInterest.Add(mortPrincipal).Add(loanPayment)

	// Cash need before tax. Negative means passive income covers the year.
	baseNeed := expenses.Add(debtService).Sub(passiveIncome)

	// Pre-retirement savings plan, applied only when operating cash flow is
	// non-negative
	if !retired && baseNeed.LessThanOrEqual(decimal.Zero) {
		contribute(&s.Assets.Taxable, in.CashFlow.SavingsTaxable)
		contribute(&s.Assets.TaxDeferred, in.CashFlow.SavingsTaxDeferred)
		contribute(&s.Assets.TaxFree, in.CashFlow.SavingsTaxFree)
	}

	// Required minimum distribution, forced ahead of optional withdrawals.
	// A pre-retirement cash shortfall opens deferred access early.
	var rmdRequired, rmdTaken decimal.Decimal
	country := in.Assumptions.CountryCode
	if (retired || baseNeed.GreaterThan(decimal.Zero)) && e.RMDCalc.IsRMDRequired(age, country) {
		rmdRequired = e.RMDCalc.CalculateRMD(s.Assets.TaxDeferred.Total(), age, country)
		rmdTaken, _ = WithdrawFromPot(&s.Assets.TaxDeferred, rmdRequired)
	}

	// Withdrawal solver: alternate between taxing the withdrawals taken so
	// far and withdrawing to cover the still-open gap, until the gap is
	// inside epsilon or the iteration cap is hit
	ordinaryBase := salary.Add(pension).Add(rental)
	propertyValue := s.Assets.PrimaryHome.Add(s.Assets.InvestmentProperty)

	outcome := WithdrawalOutcome{FromDeferred: rmdTaken}
	var tax, propertyTax decimal.Decimal
	for iter := 0; iter < maxWithdrawalIterations; iter++ {
		tax, propertyTax = e.annualTax(ordinaryBase, dividends, outcome, retired, propertyValue, s.InflationIndex)
		gap := baseNeed.Add(tax).Sub(outcome.Total())
		if gap.LessThanOrEqual(withdrawalEpsilon) {
			break
		}
		more := e.Strategy.Withdraw(&s.Assets, gap)
		if more.Total().LessThanOrEqual(decimal.Zero) {
			break // Pots exhausted, nothing left to draw
		}
		outcome.Add(more)
	}
	tax, propertyTax = e.annualTax(ordinaryBase, dividends, outcome, retired, propertyValue, s.InflationIndex)

	residual := baseNeed.Add(tax).Sub(outcome.Total())
	if residual.GreaterThan(withdrawalEpsilon) {
		s.Shortfall = s.Shortfall.Add(residual)
	} else if residual.LessThan(decimal.Zero) && retired {
		// Retired surplus (pension, rent or a forced RMD beyond spending)
		// is banked as taxable cash
		s.Assets.Taxable.Cash = s.Assets.Taxable.Cash.Add(residual.Neg())
	}

	// Roth conversion, taxed as ordinary income on top of everything already
	// recognized this year. The conversion tax is paid from taxable assets
	// first, then tax-free assets, never from the converted amount itself.
	conversion, conversionTax := e.convertToRoth(&s, age, ordinaryBase.Add(outcome.FromDeferred), &outcome)
	tax = tax.Add(conversionTax)

	// One-time events
	if inh := in.Inheritance; inh != nil && age == inh.Age {
		amount := inh.Amount.Mul(s.InflationIndex)
		if inh.Destination == domain.InheritanceToProperty {
			s.Assets.InvestmentProperty = s.Assets.InvestmentProperty.Add(amount)
		} else {
			s.Assets.Taxable.Cash = s.Assets.Taxable.Cash.Add(amount)
			if s.Assets.Taxable.CashBasis != nil {
				*s.Assets.Taxable.CashBasis = s.Assets.Taxable.CashBasis.Add(amount)
			}
		}
	}
	if g := in.Gift; g != nil && age == g.Age {
		switch g.Source {
		case domain.GiftFromPrimaryHome:
			s.Assets.PrimaryHome = decimal.Max(decimal.Zero, s.Assets.PrimaryHome.Sub(g.Amount))
		case domain.GiftFromOtherAssets:
			s.Assets.OtherAssets = decimal.Max(decimal.Zero, s.Assets.OtherAssets.Sub(g.Amount))
		default:
			// Gifted assets carry their basis out, no gains realized
			WithdrawFromPot(&s.Assets.Taxable, g.Amount)
		}
	}

	snapshot := domain.YearSnapshot{
		Year:                    year,
		Age:                     age,
		Retired:                 retired,
		TaxableBalance:          s.Assets.Taxable.Total(),
		TaxDeferredBalance:      s.Assets.TaxDeferred.Total(),
		TaxFreeBalance:          s.Assets.TaxFree.Total(),
		PrimaryHomeValue:        s.Assets.PrimaryHome,
		InvestmentPropertyValue: s.Assets.InvestmentProperty,
		OtherAssetsValue:        s.Assets.OtherAssets,
		MortgageBalance:         s.MortgageBalance,
		OtherLoanBalance:        s.OtherLoanBalance,
		Salary:                  salary,
		Pension:                 pension,
		RentalIncome:            rental,
		Dividends:               dividends,
		Withdrawals:             outcome.Total(),
		RealizedGains:           outcome.RealizedGains,
		Expenses:                expenses,
		MortgageInterest:        mortInterest,
		MortgagePrincipal:       mortPrincipal,
		OtherLoanInterest:       loanInterest,
		OtherLoanPayment:        loanPayment,
		TaxPaid:                 tax,
		PropertyTax:             propertyTax,
		RMDRequired:             rmdRequired,
		RMDTaken:                rmdTaken,
		RothConversion:          conversion,
		Shortfall:               s.Shortfall,
		NetWorth:                s.NetWorth(),
	}
	return s, snapshot
}

// returnsForYear picks the year's rates from the override sequence when one
// is supplied, the fixed assumptions otherwise. A configured post-crash
// recovery return overrides the stock rate inside the recovery window.
func (e *Engine) returnsForYear(year, age int) domain.YearReturns {
	var r domain.YearReturns
	if seq := e.Input.ReturnSequence; len(seq) >= year && year >= 1 {
		r = seq[year-1]
	} else {
		a := e.Input.Assumptions
		r = domain.YearReturns{
			Year:        year,
			StockReturn: a.StockReturn,
			BondReturn:  a.BondReturn,
			CashReturn:  a.CashReturn,
			Inflation:   a.InflationRate,
		}
	}
	if e.inRecoveryWindow(age) {
		r.StockReturn = e.Input.StressTest.RecoveryReturn
	}
	return r
}

// inRecoveryWindow reports whether the year ending at age falls in the
// post-crash recovery window
func (e *Engine) inRecoveryWindow(age int) bool {
	st := e.Input.StressTest
	return st != nil && st.RecoveryYears > 0 && age > st.CrashAge && age <= st.CrashAge+st.RecoveryYears
}

func (e *Engine) expenseTarget(age int, retired bool) decimal.Decimal {
	cf := e.Input.CashFlow
	switch {
	case !retired:
		return cf.WorkingExpenses
	case cf.SlowGoAge > 0 && age >= cf.SlowGoAge:
		return cf.SlowGoExpenses
	default:
		return cf.GoGoExpenses
	}
}

// serviceMortgage applies one year of the fixed annuity schedule, splitting
// the payment into interest and principal and clamping the final payment so
// the balance never overshoots
func (e *Engine) serviceMortgage(s *State) (interest, principal decimal.Decimal) {
	m := e.Input.Mortgage
	if m == nil || s.MortgageBalance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero
	}

	interest = s.MortgageBalance.Mul(m.Rate.Div(hundred))
	principal = e.mortgagePayment.Sub(interest)
	if principal.LessThan(decimal.Zero) {
		principal = decimal.Zero
	}
	if principal.GreaterThan(s.MortgageBalance) {
		principal = s.MortgageBalance
	}
	s.MortgageBalance = s.MortgageBalance.Sub(principal)
	return interest, principal
}

// serviceOtherLoan applies one year of the loan's payback strategy. The
// payment includes interest plus whatever principal the strategy retires.
func (e *Engine) serviceOtherLoan(s *State, age int) (interest, payment decimal.Decimal) {
	l := e.Input.OtherLoan
	if l == nil || s.OtherLoanBalance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero
	}

	interest = s.OtherLoanBalance.Mul(l.Rate.Div(hundred))
	switch l.PaybackStrategy {
	case domain.PaybackAtRetirement:
		payment = interest
		if age == e.Input.RetirementAge {
			payment = payment.Add(s.OtherLoanBalance)
			s.OtherLoanBalance = decimal.Zero
		}
	case domain.PaybackAmortized:
		principal := e.otherLoanPayment.Sub(interest)
		if principal.LessThan(decimal.Zero) {
			principal = decimal.Zero
		}
		if principal.GreaterThan(s.OtherLoanBalance) {
			principal = s.OtherLoanBalance
		}
		s.OtherLoanBalance = s.OtherLoanBalance.Sub(principal)
		payment = interest.Add(principal)
	default:
		// interest_only carries the balance indefinitely
		payment = interest
	}
	return interest, payment
}

// annualTax computes the year's full tax bill for the income recognized so
// far: ordinary income (including deferred withdrawals), dividends stacked
// on top, realized gains stacked on both, plus property tax once retired
func (e *Engine) annualTax(ordinaryBase, dividends decimal.Decimal, outcome WithdrawalOutcome, retired bool, propertyValue, inflationIndex decimal.Decimal) (total, property decimal.Decimal) {
	ordinary := ordinaryBase.Add(outcome.FromDeferred)
	total = e.TaxCalc.CalculateAnnualTax(ordinary, dividends, outcome.RealizedGains, inflationIndex)
	if retired {
		property = e.TaxCalc.CalculatePropertyTax(propertyValue, inflationIndex)
		total = total.Add(property)
	}
	return total, property
}

// convertToRoth applies the optional conversion policy: move a fixed amount,
// or enough to fill the target bracket, from the deferred pot to the
// tax-free pot. Returns the converted amount and the tax it triggered.
func (e *Engine) convertToRoth(s *State, age int, ordinaryIncome decimal.Decimal, outcome *WithdrawalOutcome) (decimal.Decimal, decimal.Decimal) {
	rc := e.Input.RothConversion
	if rc == nil || !rc.AppliesAt(age) {
		return decimal.Zero, decimal.Zero
	}
	deferredTotal := s.Assets.TaxDeferred.Total()
	if deferredTotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero
	}

	var conversion decimal.Decimal
	switch rc.Mode {
	case domain.RothConversionFixedAmount:
		conversion = decimal.Min(rc.AnnualAmount, deferredTotal)
	case domain.RothConversionFillBracket:
		ceiling, ok := e.TaxCalc.OrdinaryBracketCeiling(rc.TargetBracketRate, s.InflationIndex)
		if !ok {
			return decimal.Zero, decimal.Zero
		}
		headroom := ceiling.Sub(ordinaryIncome)
		if headroom.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, decimal.Zero
		}
		conversion = decimal.Min(headroom, deferredTotal)
	default:
		return decimal.Zero, decimal.Zero
	}
	if conversion.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero
	}

	// Move the converted slice in kind, pro rata across holdings
	ratio := conversion.Div(deferredTotal)
	moveHolding(&s.Assets.TaxDeferred.Stock, &s.Assets.TaxFree.Stock, ratio)
	moveHolding(&s.Assets.TaxDeferred.Bond, &s.Assets.TaxFree.Bond, ratio)
	moveHolding(&s.Assets.TaxDeferred.Cash, &s.Assets.TaxFree.Cash, ratio)
	scaleBasis(s.Assets.TaxDeferred.StockBasis, one.Sub(ratio))
	scaleBasis(s.Assets.TaxDeferred.BondBasis, one.Sub(ratio))
	scaleBasis(s.Assets.TaxDeferred.CashBasis, one.Sub(ratio))

	factor := e.TaxCalc.indexingFactor(s.InflationIndex)
	conversionTax := e.TaxCalc.CalculateRuleTax(conversion, e.TaxCalc.Profile.IncomeTax, factor, ordinaryIncome)

	// Pay the conversion tax: taxable assets first, then tax-free
	paid, gains := WithdrawFromPot(&s.Assets.Taxable, conversionTax)
	outcome.RealizedGains = outcome.RealizedGains.Add(gains)
	remaining := conversionTax.Sub(paid)
	if remaining.GreaterThan(decimal.Zero) {
		taken, _ := WithdrawFromPot(&s.Assets.TaxFree, remaining)
		remaining = remaining.Sub(taken)
	}
	if remaining.GreaterThan(decimal.Zero) {
		s.Shortfall = s.Shortfall.Add(remaining)
	}

	return conversion, conversionTax
}

// growPot applies one year of whole-percent returns to a pot's holdings
func growPot(pot *domain.AssetPot, stockRate, bondRate, cashRate decimal.Decimal) {
	pot.Stock = pot.Stock.Mul(one.Add(stockRate.Div(hundred)))
	pot.Bond = pot.Bond.Mul(one.Add(bondRate.Div(hundred)))
	pot.Cash = pot.Cash.Mul(one.Add(cashRate.Div(hundred)))
}

// contribute adds savings to a pot, pro-rated by its current holding mix.
// An empty pot starts invested in stock. Tracked bases grow with the
// contribution since new money enters at cost.
func contribute(pot *domain.AssetPot, amount decimal.Decimal) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	total := pot.Total()
	var stockShare, bondShare, cashShare decimal.Decimal
	if total.GreaterThan(decimal.Zero) {
		stockShare = amount.Mul(pot.Stock).Div(total)
		bondShare = amount.Mul(pot.Bond).Div(total)
		cashShare = amount.Sub(stockShare).Sub(bondShare)
	} else {
		stockShare = amount
	}
	pot.Stock = pot.Stock.Add(stockShare)
	pot.Bond = pot.Bond.Add(bondShare)
	pot.Cash = pot.Cash.Add(cashShare)
	if pot.StockBasis != nil {
		*pot.StockBasis = pot.StockBasis.Add(stockShare)
	}
	if pot.BondBasis != nil {
		*pot.BondBasis = pot.BondBasis.Add(bondShare)
	}
	if pot.CashBasis != nil {
		*pot.CashBasis = pot.CashBasis.Add(cashShare)
	}
}

func moveHolding(from, to *decimal.Decimal, ratio decimal.Decimal) {
	moved := from.Mul(ratio)
	*from = from.Sub(moved)
	*to = to.Add(moved)
}

// annuityPayment computes the fixed annual payment for a loan via the
// standard amortization formula, degrading to straight-line for a zero rate
func annuityPayment(balance, wholePercentRate decimal.Decimal, termYears int) decimal.Decimal {
	if balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if termYears <= 0 {
		return balance
	}
	rate := wholePercentRate.Div(hundred)
	if rate.IsZero() {
		return balance.Div(decimal.NewFromInt(int64(termYears)))
	}
	// P = r*B / (1 - (1+r)^-n)
	onePlus := one.Add(rate)
	denominator := one.Sub(one.Div(onePlus.Pow(decimal.NewFromInt(int64(termYears)))))
	if denominator.IsZero() {
		return balance.Div(decimal.NewFromInt(int64(termYears)))
	}
	return rate.Mul(balance).Div(denominator)
}
