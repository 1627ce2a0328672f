package calculation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TAX PROFILE ASSUMPTIONS:
//
// 1. United States: 2024 single-filer brackets with the standard deduction as
//    the allowance; long-term capital-gains brackets; qualified dividends
//    taxed at capital-gains rates; ~1.1% assessed property tax.
//
// 2. United Kingdom: personal allowance plus basic/higher/additional bands.
//    Thresholds are policy-frozen, so the profile disables inflation indexing.
//    Capital gains use the annual exempt amount; council tax is a fixed
//    annual amount.
//
// 3. Canada: combined federal/provincial bracket approximation; 50% capital
//    gains inclusion; dividends use a flat effective rate approximating the
//    gross-up and dividend tax credit.
//
// 4. Australia: resident rates with the tax-free threshold as a zero-rate
//    bracket; 50% CGT discount via inclusion; franking credits approximated
//    by a flat effective dividend rate; council rates as a fixed amount.
//
// 5. Germany: bracket approximation of the formula tariff; 26.375% flat
//    withholding (incl. solidarity surcharge) on gains and dividends with the
//    saver's allowance; low assessed property tax.
//
// 6. Singapore: resident progressive schedule; no tax on capital gains or
//    dividends; property tax approximated on market value.

// ProfileFor returns the tax profile for a country code. Unknown codes
// return an UnknownProfileError.
func ProfileFor(country string) (*TaxProfile, error) {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US", "USA":
		return usProfile(), nil
	case "UK", "GB":
		return ukProfile(), nil
	case "CA":
		return caProfile(), nil
	case "AU":
		return auProfile(), nil
	case "DE":
		return deProfile(), nil
	case "SG":
		return sgProfile(), nil
	default:
		return nil, &UnknownProfileError{Country: country}
	}
}

// SupportedCountries lists the country codes with a tax profile
func SupportedCountries() []string {
	return []string{"US", "UK", "CA", "AU", "DE", "SG"}
}

func usProfile() *TaxProfile {
	return &TaxProfile{
		Country: "US",
		IncomeTax: TaxRule{
			Kind:      TaxRuleProgressive,
			Allowance: decimal.NewFromInt(14600),
			Brackets: []TaxBracket{
				{decimal.NewFromInt(11600), decimal.NewFromFloat(0.10)},
				{decimal.NewFromInt(47150), decimal.NewFromFloat(0.12)},
				{decimal.NewFromInt(100525), decimal.NewFromFloat(0.22)},
				{decimal.NewFromInt(191950), decimal.NewFromFloat(0.24)},
				{decimal.NewFromInt(243725), decimal.NewFromFloat(0.32)},
				{decimal.NewFromInt(609350), decimal.NewFromFloat(0.35)},
				{decimal.Zero, decimal.NewFromFloat(0.37)},
			},
		},
		CapitalGains: TaxRule{
			Kind: TaxRuleProgressive,
			Brackets: []TaxBracket{
				{decimal.NewFromInt(47025), decimal.Zero},
				{decimal.NewFromInt(518900), decimal.NewFromFloat(0.15)},
				{decimal.Zero, decimal.NewFromFloat(0.20)},
			},
		},
		Dividends: TaxRule{
			Kind:     TaxRuleLinked,
			LinkedTo: CategoryCapitalGains,
		},
		PropertyTax: TaxRule{
			Kind: TaxRuleAssessed,
			Rate: decimal.NewFromFloat(0.011),
		},
		IndexBrackets: true,
	}
}

func ukProfile() *TaxProfile {
	return &TaxProfile{
		Country: "UK",
		IncomeTax: TaxRule{
			Kind:      TaxRuleProgressive,
			Allowance: decimal.NewFromInt(12570),
			Brackets: []TaxBracket{
				{decimal.NewFromInt(37700), decimal.NewFromFloat(0.20)},
				{decimal.NewFromInt(112570), decimal.NewFromFloat(0.40)},
				{decimal.Zero, decimal.NewFromFloat(0.45)},
			},
		},
		CapitalGains: TaxRule{
			Kind:      TaxRuleFlat,
			Rate:      decimal.NewFromFloat(0.20),
			Allowance: decimal.NewFromInt(3000),
		},
		Dividends: TaxRule{
			Kind:      TaxRuleProgressive,
			Allowance: decimal.NewFromInt(500),
			Brackets: []TaxBracket{
				{decimal.NewFromInt(37700), decimal.NewFromFloat(0.0875)},
				{decimal.NewFromInt(112570), decimal.NewFromFloat(0.3375)},
				{decimal.Zero, decimal.NewFromFloat(0.3935)},
			},
		},
		PropertyTax: TaxRule{
			Kind:   TaxRuleFixed,
			Amount: decimal.NewFromInt(2200), // Council tax, band D-ish
		},
		// Thresholds frozen by policy, not indexed to inflation
		IndexBrackets: false,
	}
}

func caProfile() *TaxProfile {
	return &TaxProfile{
		Country: "CA",
		IncomeTax: TaxRule{
			Kind:      TaxRuleProgressive,
			Allowance: decimal.NewFromInt(15705),
			Brackets: []TaxBracket{
				{decimal.NewFromInt(55867), decimal.NewFromFloat(0.25)},
				{decimal.NewFromInt(111733), decimal.NewFromFloat(0.33)},
				{decimal.NewFromInt(173205), decimal.NewFromFloat(0.42)},
				{decimal.Zero, decimal.NewFromFloat(0.48)},
			},
		},
		CapitalGains: TaxRule{
			Kind:          TaxRuleInclusion,
			InclusionRate: decimal.NewFromFloat(0.5),
		},
		Dividends: TaxRule{
			Kind: TaxRuleCredit,
			Rate: decimal.NewFromFloat(0.30),
		},
		PropertyTax: TaxRule{
			Kind: TaxRuleAssessed,
			Rate: decimal.NewFromFloat(0.01),
		},
		IndexBrackets: true,
	}
}

func auProfile() *TaxProfile {
	return &TaxProfile{
		Country: "AU",
		IncomeTax: TaxRule{
			Kind: TaxRuleProgressive,
			Brackets: []TaxBracket{
				{decimal.NewFromInt(18200), decimal.Zero},
				{decimal.NewFromInt(45000), decimal.NewFromFloat(0.16)},
				{decimal.NewFromInt(135000), decimal.NewFromFloat(0.30)},
				{decimal.NewFromInt(190000), decimal.NewFromFloat(0.37)},
				{decimal.Zero, decimal.NewFromFloat(0.45)},
			},
		},
		CapitalGains: TaxRule{
			Kind:          TaxRuleInclusion,
			InclusionRate: decimal.NewFromFloat(0.5),
		},
		Dividends: TaxRule{
			Kind: TaxRuleCredit,
			Rate: decimal.NewFromFloat(0.15),
		},
		PropertyTax: TaxRule{
			Kind:   TaxRuleFixed,
			Amount: decimal.NewFromInt(1800), // Council rates
		},
		IndexBrackets: true,
	}
}

func deProfile() *TaxProfile {
	return &TaxProfile{
		Country: "DE",
		IncomeTax: TaxRule{
			Kind:      TaxRuleProgressive,
			Allowance: decimal.NewFromInt(11604),
			Brackets: []TaxBracket{
				{decimal.NewFromInt(17000), decimal.NewFromFloat(0.14)},
				{decimal.NewFromInt(55000), decimal.NewFromFloat(0.30)},
				{decimal.NewFromInt(266000), decimal.NewFromFloat(0.42)},
				{decimal.Zero, decimal.NewFromFloat(0.45)},
			},
		},
		CapitalGains: TaxRule{
			Kind:      TaxRuleFlat,
			Rate:      decimal.NewFromFloat(0.26375),
			Allowance: decimal.NewFromInt(1000),
		},
		Dividends: TaxRule{
			Kind:     TaxRuleLinked,
			LinkedTo: CategoryCapitalGains,
		},
		PropertyTax: TaxRule{
			Kind: TaxRuleAssessed,
			Rate: decimal.NewFromFloat(0.0035),
		},
		IndexBrackets: true,
	}
}

func sgProfile() *TaxProfile {
	return &TaxProfile{
		Country: "SG",
		IncomeTax: TaxRule{
			Kind: TaxRuleProgressive,
			Brackets: []TaxBracket{
				{decimal.NewFromInt(20000), decimal.Zero},
				{decimal.NewFromInt(40000), decimal.NewFromFloat(0.03)},
				{decimal.NewFromInt(80000), decimal.NewFromFloat(0.07)},
				{decimal.NewFromInt(120000), decimal.NewFromFloat(0.115)},
				{decimal.NewFromInt(200000), decimal.NewFromFloat(0.18)},
				{decimal.NewFromInt(320000), decimal.NewFromFloat(0.20)},
				{decimal.Zero, decimal.NewFromFloat(0.22)},
			},
		},
		// No capital gains or dividend tax
		CapitalGains: TaxRule{
			Kind: TaxRuleFlat,
			Rate: decimal.Zero,
		},
		Dividends: TaxRule{
			Kind: TaxRuleFlat,
			Rate: decimal.Zero,
		},
		PropertyTax: TaxRule{
			Kind: TaxRuleAssessed,
			Rate: decimal.NewFromFloat(0.004),
		},
		IndexBrackets: true,
	}
}
