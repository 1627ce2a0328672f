package calculation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/networthpro/retirement-engine/internal/domain"
)

// baseInput returns a working-age household with flat markets and no cash
// flows, so each test overrides only the levers it exercises.
func baseInput() *domain.SimulationInput {
	return &domain.SimulationInput{
		CurrentAge:     40,
		RetirementAge:  65,
		LifeExpectancy: 90,
		Assumptions: domain.Assumptions{
			CountryCode: "US",
		},
		WithdrawalStrategy: domain.StrategyStandard,
	}
}

// runEngine advances a fresh engine through the given number of years and
// returns the snapshots (index 0 is year 1) plus the final state.
func runEngine(t *testing.T, input *domain.SimulationInput, years int) ([]domain.YearSnapshot, State) {
	t.Helper()
	engine, err := NewEngine(input)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	state := engine.InitialState()
	snaps := make([]domain.YearSnapshot, 0, years)
	for year := 1; year <= years; year++ {
		var snap domain.YearSnapshot
		state, snap = engine.Step(state, year)
		snaps = append(snaps, snap)
	}
	return snaps, state
}

func assertClose(t *testing.T, got, want decimal.Decimal, label string) {
	t.Helper()
	if got.Sub(want).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		t.Errorf("%s = %s, want %s", label, got.StringFixed(4), want.StringFixed(4))
	}
}

func TestNewEngineUnknownCountry(t *testing.T) {
	input := baseInput()
	input.Assumptions.CountryCode = "XX"

	_, err := NewEngine(input)
	if err == nil {
		t.Fatal("expected error for unknown country")
	}
	var unknownErr *UnknownProfileError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownProfileError, got %T", err)
	}
}

func TestInitialStateCarriesDebtAndClonesAssets(t *testing.T) {
	input := baseInput()
	input.Assets.Taxable.Stock = decimal.NewFromInt(1000)
	input.Mortgage = &domain.Mortgage{Balance: decimal.NewFromInt(200000), Rate: decimal.NewFromInt(4), TermYears: 25}
	input.OtherLoan = &domain.OtherLoan{Balance: decimal.NewFromInt(30000), Rate: decimal.NewFromInt(6), PaybackStrategy: domain.PaybackInterestOnly}

	engine, err := NewEngine(input)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	state := engine.InitialState()

	if !state.InflationIndex.Equal(decimal.NewFromInt(1)) {
		t.Errorf("initial inflation index = %s, want 1", state.InflationIndex)
	}
	if !state.MortgageBalance.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("initial mortgage balance = %s", state.MortgageBalance)
	}
	if !state.OtherLoanBalance.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("initial loan balance = %s", state.OtherLoanBalance)
	}

	state.Assets.Taxable.Stock = decimal.Zero
	if !input.Assets.Taxable.Stock.Equal(decimal.NewFromInt(1000)) {
		t.Error("mutating the state reached back into the input assets")
	}
}

func TestGrowPotAppliesWholePercentRates(t *testing.T) {
	pot := domain.AssetPot{
		Stock: decimal.NewFromInt(1000),
		Bond:  decimal.NewFromInt(1000),
		Cash:  decimal.NewFromInt(1000),
	}
	growPot(&pot, decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(2))

	if !pot.Stock.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("stock = %s, want 1100", pot.Stock)
	}
	if !pot.Bond.Equal(decimal.NewFromInt(1050)) {
		t.Errorf("bond = %s, want 1050", pot.Bond)
	}
	if !pot.Cash.Equal(decimal.NewFromInt(1020)) {
		t.Errorf("cash = %s, want 1020", pot.Cash)
	}
}

func TestContributeFollowsHoldingMix(t *testing.T) {
	pot := domain.AssetPot{
		Stock:      decimal.NewFromInt(600),
		Bond:       decimal.NewFromInt(300),
		Cash:       decimal.NewFromInt(100),
		StockBasis: decPtr(500),
	}
	contribute(&pot, decimal.NewFromInt(100))

	if !pot.Stock.Equal(decimal.NewFromInt(660)) {
		t.Errorf("stock = %s, want 660", pot.Stock)
	}
	if !pot.Bond.Equal(decimal.NewFromInt(330)) {
		t.Errorf("bond = %s, want 330", pot.Bond)
	}
	if !pot.Cash.Equal(decimal.NewFromInt(110)) {
		t.Errorf("cash = %s, want 110", pot.Cash)
	}
	// New money enters at cost
	if !pot.StockBasis.Equal(decimal.NewFromInt(560)) {
		t.Errorf("stock basis = %s, want 560", pot.StockBasis)
	}

	empty := domain.AssetPot{}
	contribute(&empty, decimal.NewFromInt(500))
	if !empty.Stock.Equal(decimal.NewFromInt(500)) {
		t.Errorf("empty pot contribution went to %s stock, want 500", empty.Stock)
	}

	contribute(&empty, decimal.Zero)
	if !empty.Total().Equal(decimal.NewFromInt(500)) {
		t.Errorf("zero contribution changed the pot to %s", empty.Total())
	}
}

func TestAnnuityPayment(t *testing.T) {
	if got := annuityPayment(decimal.Zero, decimal.NewFromInt(5), 10); !got.IsZero() {
		t.Errorf("zero balance payment = %s, want 0", got)
	}
	if got := annuityPayment(decimal.NewFromInt(100000), decimal.NewFromInt(5), 0); !got.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("zero term payment = %s, want the full balance", got)
	}
	if got := annuityPayment(decimal.NewFromInt(100000), decimal.Zero, 10); !got.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("zero rate payment = %s, want straight-line 10000", got)
	}
	assertClose(t, annuityPayment(decimal.NewFromInt(100000), decimal.NewFromInt(5), 10),
		decimal.NewFromFloat(12950.4575), "5%/10y annuity payment")
}

func TestStepGrowsBalances(t *testing.T) {
	input := baseInput()
	input.Assets.Taxable = domain.AssetPot{
		Stock: decimal.NewFromInt(1000),
		Bond:  decimal.NewFromInt(1000),
		Cash:  decimal.NewFromInt(1000),
	}
	input.Assumptions.StockReturn = decimal.NewFromInt(10)
	input.Assumptions.BondReturn = decimal.NewFromInt(5)
	input.Assumptions.CashReturn = decimal.NewFromInt(2)

	snaps, _ := runEngine(t, input, 1)

	if !snaps[0].TaxableBalance.Equal(decimal.NewFromInt(3170)) {
		t.Errorf("taxable balance = %s, want 3170", snaps[0].TaxableBalance)
	}
	if !snaps[0].NetWorth.Equal(decimal.NewFromInt(3170)) {
		t.Errorf("net worth = %s, want 3170", snaps[0].NetWorth)
	}
	if snaps[0].Age != 41 || snaps[0].Retired {
		t.Errorf("year 1 should end at age 41 working, got age %d retired=%v", snaps[0].Age, snaps[0].Retired)
	}
}

func TestStepWorkingYearSavings(t *testing.T) {
	input := baseInput()
	input.CashFlow.Salary = decimal.NewFromInt(100000)
	input.CashFlow.WorkingExpenses = decimal.NewFromInt(50000)
	input.CashFlow.SavingsTaxable = decimal.NewFromInt(12000)
	input.CashFlow.SavingsTaxDeferred = decimal.NewFromInt(23000)
	input.CashFlow.SavingsTaxFree = decimal.NewFromInt(7000)

	snaps, _ := runEngine(t, input, 1)
	snap := snaps[0]

	if !snap.TaxPaid.Equal(decimal.NewFromInt(13841)) {
		t.Errorf("tax paid = %s, want 13841", snap.TaxPaid)
	}
	if !snap.TaxableBalance.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("taxable = %s, want 12000", snap.TaxableBalance)
	}
	if !snap.TaxDeferredBalance.Equal(decimal.NewFromInt(23000)) {
		t.Errorf("deferred = %s, want 23000", snap.TaxDeferredBalance)
	}
	if !snap.TaxFreeBalance.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("tax-free = %s, want 7000", snap.TaxFreeBalance)
	}
	if !snap.Withdrawals.IsZero() {
		t.Errorf("withdrawals = %s, want zero while salary covers the year", snap.Withdrawals)
	}
	// Working-phase surplus beyond the savings plan is spent, not banked
	if !snap.Salary.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("salary = %s, want 100000", snap.Salary)
	}
}

func TestStepWorkingShortfallSkipsSavings(t *testing.T) {
	input := baseInput()
	input.CashFlow.Salary = decimal.NewFromInt(30000)
	input.CashFlow.WorkingExpenses = decimal.NewFromInt(50000)
	input.CashFlow.SavingsTaxable = decimal.NewFromInt(5000)
	input.Assets.Taxable.Cash = decimal.NewFromInt(100000)

	snaps, _ := runEngine(t, input, 1)
	snap := snaps[0]

	// The 20000 gap plus 1616 of tax on the salary comes out of taxable;
	// the savings plan is suspended in a deficit year.
	if !snap.Withdrawals.Equal(decimal.NewFromInt(21616)) {
		t.Errorf("withdrawals = %s, want 21616", snap.Withdrawals)
	}
	if !snap.TaxableBalance.Equal(decimal.NewFromInt(78384)) {
		t.Errorf("taxable = %s, want 78384", snap.TaxableBalance)
	}
	if !snap.TaxDeferredBalance.IsZero() {
		t.Errorf("deferred = %s, want zero (no savings contributed)", snap.TaxDeferredBalance)
	}
	if !snap.TaxPaid.Equal(decimal.NewFromInt(1616)) {
		t.Errorf("tax paid = %s, want 1616", snap.TaxPaid)
	}
	if !snap.Shortfall.IsZero() {
		t.Errorf("shortfall = %s, want zero", snap.Shortfall)
	}
}

func TestStepRetiredDividendSplit(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 65
	input.RetirementAge = 65
	input.Assets.Taxable.Stock = decimal.NewFromInt(100000)
	input.Assumptions.StockReturn = decimal.NewFromInt(7)
	input.Assumptions.DividendYield = decimal.NewFromInt(2)

	snaps, _ := runEngine(t, input, 1)
	snap := snaps[0]

	if !snap.Retired {
		t.Fatal("year ending at 66 should be retired")
	}
	// Stock appreciates at 5% with the 2% yield paid out on the pre-growth
	// balance; the dividend surplus is banked as taxable cash.
	if !snap.Dividends.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("dividends = %s, want 2000", snap.Dividends)
	}
	if !snap.TaxableBalance.Equal(decimal.NewFromInt(107000)) {
		t.Errorf("taxable = %s, want 107000 (105000 stock + 2000 banked)", snap.TaxableBalance)
	}
	if !snap.TaxPaid.IsZero() {
		t.Errorf("tax paid = %s, want zero under the gains allowance", snap.TaxPaid)
	}
}

func TestStepRetiredSurplusBanked(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 65
	input.RetirementAge = 65
	input.CashFlow.PensionAnnual = decimal.NewFromInt(30000)
	input.CashFlow.PensionStartAge = 60
	input.CashFlow.GoGoExpenses = decimal.NewFromInt(20000)

	snaps, _ := runEngine(t, input, 1)
	snap := snaps[0]

	if !snap.Pension.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("pension = %s, want 30000", snap.Pension)
	}
	if !snap.TaxPaid.Equal(decimal.NewFromInt(1616)) {
		t.Errorf("tax paid = %s, want 1616", snap.TaxPaid)
	}
	// 30000 pension less 20000 expenses less 1616 tax
	if !snap.TaxableBalance.Equal(decimal.NewFromInt(8384)) {
		t.Errorf("taxable = %s, want 8384 banked", snap.TaxableBalance)
	}
}

func TestStepPensionStartAge(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 65
	input.RetirementAge = 65
	input.CashFlow.PensionAnnual = decimal.NewFromInt(30000)
	input.CashFlow.PensionStartAge = 70
	input.CashFlow.GoGoExpenses = decimal.NewFromInt(10000)
	input.Assets.Taxable.Cash = decimal.NewFromInt(300000)

	snaps, _ := runEngine(t, input, 5)

	for i := 0; i < 4; i++ {
		if !snaps[i].Pension.IsZero() {
			t.Errorf("age %d pension = %s, want zero before start age", snaps[i].Age, snaps[i].Pension)
		}
	}
	if !snaps[4].Pension.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("age 70 pension = %s, want 30000", snaps[4].Pension)
	}
}

func TestStepRentalIncomeAndPropertyTax(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 65
	input.RetirementAge = 65
	input.Assets.InvestmentProperty = decimal.NewFromInt(300000)
	input.Assumptions.PropertyAppreciation = decimal.NewFromInt(10)
	input.Assumptions.RentalYield = decimal.NewFromInt(4)

	snaps, _ := runEngine(t, input, 1)
	snap := snaps[0]

	if !snap.InvestmentPropertyValue.Equal(decimal.NewFromInt(330000)) {
		t.Errorf("property value = %s, want 330000", snap.InvestmentPropertyValue)
	}
	// Rent accrues on the appreciated value
	if !snap.RentalIncome.Equal(decimal.NewFromInt(13200)) {
		t.Errorf("rental income = %s, want 13200", snap.RentalIncome)
	}
	if !snap.PropertyTax.Equal(decimal.NewFromInt(3630)) {
		t.Errorf("property tax = %s, want 3630 (1.1%% of 330000)", snap.PropertyTax)
	}
	if !snap.TaxPaid.Equal(decimal.NewFromInt(3630)) {
		t.Errorf("tax paid = %s, want property tax only", snap.TaxPaid)
	}
	// Rent less property tax is banked
	if !snap.TaxableBalance.Equal(decimal.NewFromInt(9570)) {
		t.Errorf("taxable = %s, want 9570", snap.TaxableBalance)
	}
}

func TestStepCrashAndRecoveryWindow(t *testing.T) {
	input := baseInput()
	input.Assets.Taxable = domain.AssetPot{
		Stock: decimal.NewFromInt(1000),
		Bond:  decimal.NewFromInt(1000),
		Cash:  decimal.NewFromInt(1000),
	}
	input.Assumptions.StockReturn = decimal.NewFromInt(7)
	input.CashFlow.Salary = decimal.NewFromInt(50000)
	input.CashFlow.WorkingExpenses = decimal.NewFromInt(10000)
	input.StressTest = &domain.StressTest{
		CrashAge:           41,
		DropPercent:        decimal.NewFromInt(30),
		RecoveryYears:      2,
		RecoveryReturn:     decimal.NewFromInt(10),
		FlexibleCutPercent: decimal.NewFromInt(50),
	}

	snaps, _ := runEngine(t, input, 4)

	// Crash year: stock and bond drop 30% before normal growth applies.
	// 1000*0.7*1.07 + 700 + 1000
	if !snaps[0].TaxableBalance.Equal(decimal.NewFromInt(2449)) {
		t.Errorf("crash year balance = %s, want 2449", snaps[0].TaxableBalance)
	}
	if !snaps[0].Expenses.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("crash year expenses = %s, want full 10000", snaps[0].Expenses)
	}

	// Recovery years: stock grows at the recovery return and spending is cut.
	if !snaps[1].TaxableBalance.Equal(decimal.NewFromFloat(2523.9)) {
		t.Errorf("first recovery balance = %s, want 2523.9", snaps[1].TaxableBalance)
	}
	if !snaps[1].Expenses.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("first recovery expenses = %s, want 5000", snaps[1].Expenses)
	}
	if !snaps[2].TaxableBalance.Equal(decimal.NewFromFloat(2606.29)) {
		t.Errorf("second recovery balance = %s, want 2606.29", snaps[2].TaxableBalance)
	}
	if !snaps[2].Expenses.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("second recovery expenses = %s, want 5000", snaps[2].Expenses)
	}

	// Window closed: normal return and full spending resume.
	if !snaps[3].TaxableBalance.Equal(decimal.NewFromFloat(2669.7303)) {
		t.Errorf("post-recovery balance = %s, want 2669.7303", snaps[3].TaxableBalance)
	}
	if !snaps[3].Expenses.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("post-recovery expenses = %s, want 10000", snaps[3].Expenses)
	}
}

func TestStepExpensePhases(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 64
	input.RetirementAge = 65
	input.CashFlow.Salary = decimal.NewFromInt(100000)
	input.CashFlow.WorkingExpenses = decimal.NewFromInt(50000)
	input.CashFlow.GoGoExpenses = decimal.NewFromInt(40000)
	input.CashFlow.SlowGoExpenses = decimal.NewFromInt(30000)
	input.CashFlow.SlowGoAge = 80
	input.Assets.Taxable.Cash = decimal.NewFromInt(2000000)

	snaps, _ := runEngine(t, input, 16)

	if snaps[0].Retired || !snaps[0].Expenses.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("age 65 should be a working year at 50000, got retired=%v expenses=%s",
			snaps[0].Retired, snaps[0].Expenses)
	}
	if !snaps[1].Retired || !snaps[1].Expenses.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("age 66 should be go-go at 40000, got retired=%v expenses=%s",
			snaps[1].Retired, snaps[1].Expenses)
	}
	if !snaps[15].Expenses.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("age 80 should be slow-go at 30000, got %s", snaps[15].Expenses)
	}
}

func TestStepSlowGoDisabledByZeroAge(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 64
	input.RetirementAge = 65
	input.CashFlow.GoGoExpenses = decimal.NewFromInt(40000)
	input.CashFlow.SlowGoExpenses = decimal.NewFromInt(30000)
	input.CashFlow.SlowGoAge = 0
	input.Assets.Taxable.Cash = decimal.NewFromInt(2000000)

	snaps, _ := runEngine(t, input, 16)

	if !snaps[15].Expenses.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("with no slow-go age expenses = %s at 80, want go-go 40000", snaps[15].Expenses)
	}
}

func TestStepMortgageAmortization(t *testing.T) {
	input := baseInput()
	input.CashFlow.Salary = decimal.NewFromInt(200000)
	input.Mortgage = &domain.Mortgage{
		Balance:   decimal.NewFromInt(100000),
		Rate:      decimal.NewFromInt(4),
		TermYears: 10,
	}

	snaps, _ := runEngine(t, input, 12)

	if !snaps[0].MortgageInterest.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("year 1 interest = %s, want 4000", snaps[0].MortgageInterest)
	}
	assertClose(t, snaps[0].MortgagePrincipal, decimal.NewFromFloat(8329.0944), "year 1 principal")

	// Interest declines as the balance amortizes
	if !snaps[5].MortgageInterest.LessThan(snaps[0].MortgageInterest) {
		t.Errorf("interest should decline, year 6 = %s vs year 1 = %s",
			snaps[5].MortgageInterest, snaps[0].MortgageInterest)
	}

	if snaps[9].MortgageBalance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		t.Errorf("balance after the 10-year term = %s, want under 1", snaps[9].MortgageBalance)
	}
	if !snaps[10].MortgageBalance.IsZero() {
		t.Errorf("balance in year 11 = %s, want zero", snaps[10].MortgageBalance)
	}
	if !snaps[11].MortgageInterest.IsZero() {
		t.Errorf("interest on a paid-off mortgage = %s, want zero", snaps[11].MortgageInterest)
	}
}

func TestStepOtherLoanInterestOnly(t *testing.T) {
	input := baseInput()
	input.CashFlow.Salary = decimal.NewFromInt(200000)
	input.OtherLoan = &domain.OtherLoan{
		Balance:         decimal.NewFromInt(50000),
		Rate:            decimal.NewFromInt(6),
		PaybackStrategy: domain.PaybackInterestOnly,
	}

	snaps, _ := runEngine(t, input, 5)

	for i, snap := range snaps {
		if !snap.OtherLoanInterest.Equal(decimal.NewFromInt(3000)) {
			t.Errorf("year %d interest = %s, want 3000", i+1, snap.OtherLoanInterest)
		}
		if !snap.OtherLoanPayment.Equal(decimal.NewFromInt(3000)) {
			t.Errorf("year %d payment = %s, want interest only", i+1, snap.OtherLoanPayment)
		}
		if !snap.OtherLoanBalance.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("year %d balance = %s, want unchanged 50000", i+1, snap.OtherLoanBalance)
		}
	}
}

func TestStepOtherLoanPaidAtRetirement(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 63
	input.RetirementAge = 65
	input.CashFlow.Salary = decimal.NewFromInt(200000)
	input.OtherLoan = &domain.OtherLoan{
		Balance:         decimal.NewFromInt(50000),
		Rate:            decimal.NewFromInt(6),
		PaybackStrategy: domain.PaybackAtRetirement,
	}

	snaps, _ := runEngine(t, input, 3)

	if !snaps[0].OtherLoanPayment.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("pre-retirement payment = %s, want interest only", snaps[0].OtherLoanPayment)
	}
	if !snaps[1].OtherLoanPayment.Equal(decimal.NewFromInt(53000)) {
		t.Errorf("retirement-year payment = %s, want 53000 (interest + balance)", snaps[1].OtherLoanPayment)
	}
	if !snaps[1].OtherLoanBalance.IsZero() {
		t.Errorf("retirement-year balance = %s, want zero", snaps[1].OtherLoanBalance)
	}
	if !snaps[2].OtherLoanPayment.IsZero() {
		t.Errorf("post-payoff payment = %s, want zero", snaps[2].OtherLoanPayment)
	}
}

func TestStepOtherLoanAmortized(t *testing.T) {
	input := baseInput()
	input.CashFlow.Salary = decimal.NewFromInt(200000)
	input.OtherLoan = &domain.OtherLoan{
		Balance:           decimal.NewFromInt(50000),
		Rate:              decimal.Zero,
		PaybackStrategy:   domain.PaybackAmortized,
		AmortizationYears: 5,
	}

	snaps, _ := runEngine(t, input, 6)

	if !snaps[0].OtherLoanPayment.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("year 1 payment = %s, want straight-line 10000", snaps[0].OtherLoanPayment)
	}
	if !snaps[0].OtherLoanBalance.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("year 1 balance = %s, want 40000", snaps[0].OtherLoanBalance)
	}
	if !snaps[4].OtherLoanBalance.IsZero() {
		t.Errorf("year 5 balance = %s, want zero", snaps[4].OtherLoanBalance)
	}
	if !snaps[5].OtherLoanPayment.IsZero() {
		t.Errorf("year 6 payment = %s, want zero", snaps[5].OtherLoanPayment)
	}
}

func TestStepForcedMinimumDistribution(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 73
	input.RetirementAge = 65
	input.Assets.TaxDeferred.Cash = decimal.NewFromInt(265000)

	snaps, _ := runEngine(t, input, 1)
	snap := snaps[0]

	// Age 74 uses the 25.5 divisor
	assertClose(t, snap.RMDRequired, decimal.NewFromFloat(10392.1569), "required distribution")
	if !snap.RMDTaken.Equal(snap.RMDRequired) {
		t.Errorf("taken %s != required %s with a sufficient balance", snap.RMDTaken, snap.RMDRequired)
	}
	// The distribution is under the allowance, so it lands in taxable intact
	if !snap.TaxPaid.IsZero() {
		t.Errorf("tax paid = %s, want zero", snap.TaxPaid)
	}
	if !snap.TaxableBalance.Equal(snap.RMDTaken) {
		t.Errorf("taxable = %s, want the banked distribution %s", snap.TaxableBalance, snap.RMDTaken)
	}
	assertClose(t, snap.TaxDeferredBalance, decimal.NewFromInt(265000).Sub(snap.RMDTaken), "deferred remainder")
}

func TestStepShortfallAccumulates(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 65
	input.RetirementAge = 65
	input.CashFlow.GoGoExpenses = decimal.NewFromInt(50000)

	snaps, _ := runEngine(t, input, 3)

	expected := []int64{50000, 100000, 150000}
	for i, want := range expected {
		if !snaps[i].Shortfall.Equal(decimal.NewFromInt(want)) {
			t.Errorf("year %d shortfall = %s, want %d", i+1, snaps[i].Shortfall, want)
		}
		if !snaps[i].HasShortfall() {
			t.Errorf("year %d should report a shortfall", i+1)
		}
	}
	if !snaps[2].NetWorth.Equal(decimal.NewFromInt(-150000)) {
		t.Errorf("net worth = %s, want -150000", snaps[2].NetWorth)
	}
}

func TestStepInheritanceScalesWithInflation(t *testing.T) {
	toTaxable := baseInput()
	toTaxable.CurrentAge = 50
	toTaxable.CashFlow.Salary = decimal.NewFromInt(100000)
	toTaxable.Assumptions.InflationRate = decimal.NewFromInt(10)
	toTaxable.Inheritance = &domain.Inheritance{
		Age:         52,
		Amount:      decimal.NewFromInt(100000),
		Destination: domain.InheritanceToTaxable,
	}

	snaps, _ := runEngine(t, toTaxable, 2)
	// Two years of 10% inflation: 100000 * 1.21
	if !snaps[1].TaxableBalance.Equal(decimal.NewFromInt(121000)) {
		t.Errorf("inherited taxable = %s, want 121000", snaps[1].TaxableBalance)
	}

	toProperty := baseInput()
	toProperty.CurrentAge = 50
	toProperty.CashFlow.Salary = decimal.NewFromInt(100000)
	toProperty.Assumptions.InflationRate = decimal.NewFromInt(10)
	toProperty.Inheritance = &domain.Inheritance{
		Age:         52,
		Amount:      decimal.NewFromInt(100000),
		Destination: domain.InheritanceToProperty,
	}

	snaps, _ = runEngine(t, toProperty, 2)
	if !snaps[1].InvestmentPropertyValue.Equal(decimal.NewFromInt(121000)) {
		t.Errorf("inherited property = %s, want 121000", snaps[1].InvestmentPropertyValue)
	}
	if !snaps[1].TaxableBalance.IsZero() {
		t.Errorf("taxable = %s, want zero when inheriting into property", snaps[1].TaxableBalance)
	}
}

func TestStepGiftSources(t *testing.T) {
	t.Run("taxable carries basis out untaxed", func(t *testing.T) {
		input := baseInput()
		input.CurrentAge = 50
		input.Assets.Taxable = domain.AssetPot{
			Stock:      decimal.NewFromInt(100000),
			StockBasis: decPtr(60000),
		}
		input.Gift = &domain.Gift{Age: 52, Amount: decimal.NewFromInt(30000), Source: domain.GiftFromTaxable}

		snaps, state := runEngine(t, input, 2)

		if !snaps[1].TaxableBalance.Equal(decimal.NewFromInt(70000)) {
			t.Errorf("taxable after gift = %s, want 70000", snaps[1].TaxableBalance)
		}
		if !snaps[1].TaxPaid.IsZero() || !snaps[1].RealizedGains.IsZero() {
			t.Errorf("gift should not realize gains, tax=%s gains=%s", snaps[1].TaxPaid, snaps[1].RealizedGains)
		}
		if !state.Assets.Taxable.StockBasis.Equal(decimal.NewFromInt(42000)) {
			t.Errorf("basis after gift = %s, want 42000", state.Assets.Taxable.StockBasis)
		}
	})

	t.Run("primary home floors at zero", func(t *testing.T) {
		input := baseInput()
		input.CurrentAge = 50
		input.Assets.PrimaryHome = decimal.NewFromInt(500000)
		input.Gift = &domain.Gift{Age: 52, Amount: decimal.NewFromInt(600000), Source: domain.GiftFromPrimaryHome}

		snaps, _ := runEngine(t, input, 2)
		if !snaps[1].PrimaryHomeValue.IsZero() {
			t.Errorf("home value = %s, want floored at zero", snaps[1].PrimaryHomeValue)
		}
	})

	t.Run("other assets reduce", func(t *testing.T) {
		input := baseInput()
		input.CurrentAge = 50
		input.Assets.OtherAssets = decimal.NewFromInt(10000)
		input.Gift = &domain.Gift{Age: 52, Amount: decimal.NewFromInt(4000), Source: domain.GiftFromOtherAssets}

		snaps, _ := runEngine(t, input, 2)
		if !snaps[1].OtherAssetsValue.Equal(decimal.NewFromInt(6000)) {
			t.Errorf("other assets = %s, want 6000", snaps[1].OtherAssetsValue)
		}
	})
}

func TestStepRothConversionFixedAmountWindow(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 60
	input.RetirementAge = 60
	input.Assets.TaxDeferred.Cash = decimal.NewFromInt(500000)
	input.Assets.Taxable.Cash = decimal.NewFromInt(100000)
	input.RothConversion = &domain.RothConversionPolicy{
		Mode:         domain.RothConversionFixedAmount,
		AnnualAmount: decimal.NewFromInt(10000),
		StartAge:     62,
		EndAge:       63,
	}

	snaps, _ := runEngine(t, input, 4)

	expected := []int64{0, 10000, 10000, 0}
	for i, want := range expected {
		if !snaps[i].RothConversion.Equal(decimal.NewFromInt(want)) {
			t.Errorf("age %d conversion = %s, want %d", snaps[i].Age, snaps[i].RothConversion, want)
		}
	}
	assertClose(t, snaps[3].TaxDeferredBalance, decimal.NewFromInt(480000), "deferred after conversions")
	assertClose(t, snaps[3].TaxFreeBalance, decimal.NewFromInt(20000), "tax-free after conversions")
}

func TestStepRothConversionFillBracket(t *testing.T) {
	input := baseInput()
	input.CurrentAge = 65
	input.RetirementAge = 65
	input.Assets.Taxable.Cash = decimal.NewFromInt(50000)
	input.Assets.TaxDeferred.Cash = decimal.NewFromInt(1000000)
	input.CashFlow.PensionAnnual = decimal.NewFromInt(20000)
	input.CashFlow.PensionStartAge = 60
	input.RothConversion = &domain.RothConversionPolicy{
		Mode:              domain.RothConversionFillBracket,
		TargetBracketRate: decimal.NewFromFloat(0.12),
	}

	snaps, _ := runEngine(t, input, 1)
	snap := snaps[0]

	// 20000 of pension leaves 41750 of headroom under the 61750 gross
	// ceiling of the 12% bracket.
	if !snap.RothConversion.Equal(decimal.NewFromInt(41750)) {
		t.Errorf("conversion = %s, want 41750", snap.RothConversion)
	}
	if !snap.TaxFreeBalance.Equal(decimal.NewFromInt(41750)) {
		t.Errorf("tax-free = %s, want 41750", snap.TaxFreeBalance)
	}
	if !snap.TaxDeferredBalance.Equal(decimal.NewFromInt(958250)) {
		t.Errorf("deferred = %s, want 958250", snap.TaxDeferredBalance)
	}
	// 540 on the pension plus 4886 on the conversion
	if !snap.TaxPaid.Equal(decimal.NewFromInt(5426)) {
		t.Errorf("tax paid = %s, want 5426", snap.TaxPaid)
	}
	// 50000 plus the 19460 banked surplus, less the 4886 conversion tax
	assertClose(t, snap.TaxableBalance, decimal.NewFromInt(64574), "taxable after conversion tax")
}

func TestStepDoesNotMutateInput(t *testing.T) {
	input := baseInput()
	input.Assets.Taxable.Stock = decimal.NewFromInt(100000)
	input.Assumptions.StockReturn = decimal.NewFromInt(7)
	input.Mortgage = &domain.Mortgage{Balance: decimal.NewFromInt(100000), Rate: decimal.NewFromInt(4), TermYears: 10}
	input.CashFlow.Salary = decimal.NewFromInt(80000)
	input.CashFlow.WorkingExpenses = decimal.NewFromInt(40000)

	engine, err := NewEngine(input)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	initial := engine.InitialState()

	_, first := engine.Step(initial, 1)
	_, second := engine.Step(initial, 1)

	if !first.NetWorth.Equal(second.NetWorth) {
		t.Errorf("repeated step diverged: %s vs %s", first.NetWorth, second.NetWorth)
	}
	if !first.TaxPaid.Equal(second.TaxPaid) {
		t.Errorf("repeated step tax diverged: %s vs %s", first.TaxPaid, second.TaxPaid)
	}
	if !initial.Assets.Taxable.Stock.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("step mutated its input state, stock = %s", initial.Assets.Taxable.Stock)
	}
	if !input.Assets.Taxable.Stock.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("step mutated the simulation input, stock = %s", input.Assets.Taxable.Stock)
	}
}
