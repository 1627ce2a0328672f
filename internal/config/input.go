package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/internal/domain"
)

// InputParser handles parsing of plan configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseYAML(data)
}

// ParseYAML parses and validates a plan from raw YAML bytes
func (ip *InputParser) ParseYAML(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}
	return &plan, nil
}

// ValidatePlan validates the loaded plan
func (ip *InputParser) ValidatePlan(plan *Plan) error {
	if plan.Mode != "" && !strings.EqualFold(plan.Mode, calculation.ModePro) && !strings.EqualFold(plan.Mode, calculation.ModeEssential) {
		return fmt.Errorf("mode must be '%s' or '%s'", calculation.ModePro, calculation.ModeEssential)
	}

	if err := ip.validateHousehold(&plan.Household); err != nil {
		return fmt.Errorf("household validation failed: %w", err)
	}
	if err := ip.validateAccounts(&plan.Accounts); err != nil {
		return fmt.Errorf("accounts validation failed: %w", err)
	}
	if err := ip.validateProperty(&plan.Property); err != nil {
		return fmt.Errorf("property validation failed: %w", err)
	}
	if err := ip.validateLiabilities(&plan.Liabilities); err != nil {
		return fmt.Errorf("liabilities validation failed: %w", err)
	}
	if err := ip.validateIncome(&plan.Income); err != nil {
		return fmt.Errorf("income validation failed: %w", err)
	}
	if err := ip.validateSpending(&plan.Spending, &plan.Household); err != nil {
		return fmt.Errorf("spending validation failed: %w", err)
	}
	if err := ip.validateSavings(&plan.Savings); err != nil {
		return fmt.Errorf("savings validation failed: %w", err)
	}
	if err := ip.validateMarket(&plan.Market); err != nil {
		return fmt.Errorf("market assumptions validation failed: %w", err)
	}

	switch plan.WithdrawalStrategy {
	case "", domain.StrategyStandard, domain.StrategyTaxSensitive, domain.StrategyProRata:
	default:
		return fmt.Errorf("withdrawal strategy must be '%s', '%s', or '%s'",
			domain.StrategyStandard, domain.StrategyTaxSensitive, domain.StrategyProRata)
	}

	if plan.StressTest != nil {
		if err := ip.validateStressTest(plan.StressTest); err != nil {
			return fmt.Errorf("stress test validation failed: %w", err)
		}
	}
	if plan.Inheritance != nil {
		if err := ip.validateInheritance(plan.Inheritance); err != nil {
			return fmt.Errorf("inheritance validation failed: %w", err)
		}
	}
	if plan.Gift != nil {
		if err := ip.validateGift(plan.Gift); err != nil {
			return fmt.Errorf("gift validation failed: %w", err)
		}
	}
	if plan.RothConversion != nil {
		if err := ip.validateRothConversion(plan.RothConversion); err != nil {
			return fmt.Errorf("roth conversion validation failed: %w", err)
		}
	}

	return nil
}

// validateHousehold validates ages and jurisdiction
func (ip *InputParser) validateHousehold(h *Household) error {
	if h.CurrentAge <= 0 {
		return fmt.Errorf("current age must be positive")
	}
	if h.RetirementAge < h.CurrentAge {
		return fmt.Errorf("retirement age cannot be before current age")
	}
	if h.LifeExpectancy < h.RetirementAge {
		return fmt.Errorf("life expectancy cannot be before retirement age")
	}
	if h.CountryCode == "" {
		return fmt.Errorf("country code is required")
	}
	if _, err := calculation.ProfileFor(h.CountryCode); err != nil {
		return fmt.Errorf("unsupported country code %q (supported: %s)",
			h.CountryCode, strings.Join(calculation.SupportedCountries(), ", "))
	}
	return nil
}

// validateAccounts validates the three account tiers
func (ip *InputParser) validateAccounts(a *Accounts) error {
	tiers := []struct {
		name string
		tier *AccountTier
	}{
		{"taxable", &a.Taxable},
		{"tax-deferred", &a.TaxDeferred},
		{"tax-free", &a.TaxFree},
	}
	for _, t := range tiers {
		if t.tier.Stock.LessThan(decimal.Zero) {
			return fmt.Errorf("%s stock balance cannot be negative", t.name)
		}
		if t.tier.Bond.LessThan(decimal.Zero) {
			return fmt.Errorf("%s bond balance cannot be negative", t.name)
		}
		if t.tier.Cash.LessThan(decimal.Zero) {
			return fmt.Errorf("%s cash balance cannot be negative", t.name)
		}
		for _, basis := range []*decimal.Decimal{t.tier.StockBasis, t.tier.BondBasis, t.tier.CashBasis} {
			if basis != nil && basis.LessThan(decimal.Zero) {
				return fmt.Errorf("%s cost basis cannot be negative", t.name)
			}
		}
	}
	return nil
}

func (ip *InputParser) validateProperty(p *Property) error {
	if p.PrimaryHome.LessThan(decimal.Zero) {
		return fmt.Errorf("primary home value cannot be negative")
	}
	if p.InvestmentProperty.LessThan(decimal.Zero) {
		return fmt.Errorf("investment property value cannot be negative")
	}
	if p.OtherAssets.LessThan(decimal.Zero) {
		return fmt.Errorf("other assets value cannot be negative")
	}
	return nil
}

// validateLiabilities validates the optional mortgage and loan blocks
func (ip *InputParser) validateLiabilities(l *Liabilities) error {
	if m := l.Mortgage; m != nil {
		if m.Balance.LessThan(decimal.Zero) {
			return fmt.Errorf("mortgage balance cannot be negative")
		}
		if m.Rate.LessThan(decimal.Zero) || m.Rate.GreaterThan(decimal.NewFromFloat(0.25)) {
			return fmt.Errorf("mortgage rate must be between 0 and 25%%")
		}
		if m.Balance.GreaterThan(decimal.Zero) && m.TermYears <= 0 {
			return fmt.Errorf("mortgage term must be positive")
		}
	}
	if o := l.OtherLoan; o != nil {
		if o.Balance.LessThan(decimal.Zero) {
			return fmt.Errorf("loan balance cannot be negative")
		}
		if o.Rate.LessThan(decimal.Zero) || o.Rate.GreaterThan(decimal.NewFromFloat(0.25)) {
			return fmt.Errorf("loan rate must be between 0 and 25%%")
		}
		switch o.PaybackStrategy {
		case "", domain.PaybackInterestOnly, domain.PaybackAtRetirement, domain.PaybackAmortized:
		default:
			return fmt.Errorf("loan payback strategy must be '%s', '%s', or '%s'",
				domain.PaybackInterestOnly, domain.PaybackAtRetirement, domain.PaybackAmortized)
		}
		if o.PaybackStrategy == domain.PaybackAmortized && o.AmortizationYears <= 0 {
			return fmt.Errorf("amortization years must be positive for amortized loans")
		}
	}
	return nil
}

func (ip *InputParser) validateIncome(inc *Income) error {
	if inc.Salary.LessThan(decimal.Zero) {
		return fmt.Errorf("salary cannot be negative")
	}
	if inc.PensionAnnual.LessThan(decimal.Zero) {
		return fmt.Errorf("pension cannot be negative")
	}
	if inc.PensionAnnual.GreaterThan(decimal.Zero) && inc.PensionStartAge <= 0 {
		return fmt.Errorf("pension start age is required when a pension is configured")
	}
	return nil
}

// validateSpending validates the phased expense levels
func (ip *InputParser) validateSpending(s *Spending, h *Household) error {
	if s.Working.LessThan(decimal.Zero) {
		return fmt.Errorf("working-phase spending cannot be negative")
	}
	if s.GoGo.LessThan(decimal.Zero) {
		return fmt.Errorf("go-go spending cannot be negative")
	}
	if s.SlowGo.LessThan(decimal.Zero) {
		return fmt.Errorf("slow-go spending cannot be negative")
	}
	if s.SlowGoAge > 0 && s.SlowGoAge < h.RetirementAge {
		return fmt.Errorf("slow-go age cannot be before retirement age")
	}
	return nil
}

func (ip *InputParser) validateSavings(s *SavingsPlan) error {
	if s.Taxable.LessThan(decimal.Zero) || s.TaxDeferred.LessThan(decimal.Zero) || s.TaxFree.LessThan(decimal.Zero) {
		return fmt.Errorf("savings amounts cannot be negative")
	}
	return nil
}

// validateMarket validates the rate assumptions. Rates are fractions here;
// the bounds keep obviously corrupt input (whole-percent values pasted into
// fraction fields) from reaching the engine.
func (ip *InputParser) validateMarket(m *MarketAssumptions) error {
	if m.InflationRate.LessThan(decimal.NewFromFloat(-0.10)) || m.InflationRate.GreaterThan(decimal.NewFromFloat(0.20)) {
		return fmt.Errorf("inflation rate must be between -10%% and 20%%, got %s", m.InflationRate)
	}
	minus1 := decimal.NewFromInt(-1)
	for _, r := range []struct {
		name string
		rate decimal.Decimal
	}{
		{"stock return", m.StockReturn},
		{"bond return", m.BondReturn},
		{"cash return", m.CashReturn},
		{"property appreciation", m.PropertyAppreciation},
	} {
		if r.rate.LessThan(minus1) || r.rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be between -100%% and 100%%, got %s", r.name, r.rate)
		}
	}
	if m.DividendYield.LessThan(decimal.Zero) || m.DividendYield.GreaterThan(decimal.NewFromFloat(0.20)) {
		return fmt.Errorf("dividend yield must be between 0 and 20%%")
	}
	if m.RentalYield.LessThan(decimal.Zero) || m.RentalYield.GreaterThan(decimal.NewFromFloat(0.50)) {
		return fmt.Errorf("rental yield must be between 0 and 50%%")
	}
	if m.YearsToProject < 0 || m.YearsToProject > 100 {
		return fmt.Errorf("years to project must be between 1 and 100")
	}
	return nil
}

func (ip *InputParser) validateStressTest(st *StressTestConfig) error {
	if st.CrashAge <= 0 {
		return fmt.Errorf("crash age must be positive")
	}
	if st.Drop.LessThan(decimal.Zero) || st.Drop.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("drop must be a fraction between 0 and 1")
	}
	if st.RecoveryYears < 0 {
		return fmt.Errorf("recovery years cannot be negative")
	}
	if st.FlexibleCut.LessThan(decimal.Zero) || st.FlexibleCut.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("flexible cut must be a fraction between 0 and 1")
	}
	return nil
}

func (ip *InputParser) validateInheritance(inh *InheritanceConfig) error {
	if inh.Age <= 0 {
		return fmt.Errorf("inheritance age must be positive")
	}
	if inh.Amount.LessThan(decimal.Zero) {
		return fmt.Errorf("inheritance amount cannot be negative")
	}
	switch inh.Destination {
	case "", domain.InheritanceToTaxable, domain.InheritanceToProperty:
	default:
		return fmt.Errorf("inheritance destination must be '%s' or '%s'",
			domain.InheritanceToTaxable, domain.InheritanceToProperty)
	}
	return nil
}

func (ip *InputParser) validateGift(g *GiftConfig) error {
	if g.Age <= 0 {
		return fmt.Errorf("gift age must be positive")
	}
	if g.Amount.LessThan(decimal.Zero) {
		return fmt.Errorf("gift amount cannot be negative")
	}
	switch g.Source {
	case "", domain.GiftFromTaxable, domain.GiftFromPrimaryHome, domain.GiftFromOtherAssets:
	default:
		return fmt.Errorf("gift source must be '%s', '%s', or '%s'",
			domain.GiftFromTaxable, domain.GiftFromPrimaryHome, domain.GiftFromOtherAssets)
	}
	return nil
}

func (ip *InputParser) validateRothConversion(rc *RothConversionConfig) error {
	switch rc.Mode {
	case domain.RothConversionFixedAmount:
		if rc.AnnualAmount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("annual amount must be positive for %s conversions", domain.RothConversionFixedAmount)
		}
	case domain.RothConversionFillBracket:
		if rc.TargetBracketRate.LessThanOrEqual(decimal.Zero) || rc.TargetBracketRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("target bracket rate must be a fraction between 0 and 1")
		}
	default:
		return fmt.Errorf("conversion mode must be '%s' or '%s'",
			domain.RothConversionFixedAmount, domain.RothConversionFillBracket)
	}
	if rc.StartAge > 0 && rc.EndAge > 0 && rc.EndAge < rc.StartAge {
		return fmt.Errorf("conversion end age cannot be before start age")
	}
	return nil
}

// CreateExamplePlan creates a filled-in example plan
func (ip *InputParser) CreateExamplePlan() *Plan {
	stockBasis := decimal.NewFromInt(150000)

	return &Plan{
		Name:        "Example Household",
		Description: "Starter plan covering every configuration section",
		Mode:        calculation.ModePro,
		Household: Household{
			CurrentAge:     40,
			RetirementAge:  65,
			LifeExpectancy: 90,
			CountryCode:    "US",
		},
		Accounts: Accounts{
			Taxable: AccountTier{
				Stock:      decimal.NewFromInt(250000),
				Bond:       decimal.NewFromInt(50000),
				Cash:       decimal.NewFromInt(25000),
				StockBasis: &stockBasis,
			},
			TaxDeferred: AccountTier{
				Stock: decimal.NewFromInt(320000),
				Bond:  decimal.NewFromInt(80000),
			},
			TaxFree: AccountTier{
				Stock: decimal.NewFromInt(95000),
			},
		},
		Property: Property{
			PrimaryHome: decimal.NewFromInt(450000),
		},
		Liabilities: Liabilities{
			Mortgage: &MortgageConfig{
				Balance:   decimal.NewFromInt(280000),
				Rate:      decimal.NewFromFloat(0.0425),
				TermYears: 25,
			},
		},
		Income: Income{
			Salary:          decimal.NewFromInt(140000),
			PensionAnnual:   decimal.NewFromInt(18000),
			PensionStartAge: 67,
		},
		Spending: Spending{
			Working:   decimal.NewFromInt(70000),
			GoGo:      decimal.NewFromInt(65000),
			SlowGo:    decimal.NewFromInt(50000),
			SlowGoAge: 78,
		},
		Savings: SavingsPlan{
			Taxable:     decimal.NewFromInt(12000),
			TaxDeferred: decimal.NewFromInt(23000),
			TaxFree:     decimal.NewFromInt(7000),
		},
		Market: MarketAssumptions{
			InflationRate:        decimal.NewFromFloat(0.025),
			StockReturn:          decimal.NewFromFloat(0.07),
			BondReturn:           decimal.NewFromFloat(0.035),
			CashReturn:           decimal.NewFromFloat(0.02),
			DividendYield:        decimal.NewFromFloat(0.018),
			PropertyAppreciation: decimal.NewFromFloat(0.03),
			RentalYield:          decimal.NewFromFloat(0.04),
		},
		WithdrawalStrategy: domain.StrategyStandard,
	}
}
