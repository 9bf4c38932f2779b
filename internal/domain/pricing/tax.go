package pricing

import "github.com/shopspring/decimal"

// DefaultTaxRate is the flat tax applied to every order total.
var DefaultTaxRate = decimal.RequireFromString("0.15")

// TaxCalculator computes a flat-rate tax.
type TaxCalculator struct {
	rate decimal.Decimal
}

// NewTaxCalculator returns a TaxCalculator using DefaultTaxRate.
func NewTaxCalculator() TaxCalculator {
	return TaxCalculator{rate: DefaultTaxRate}
}

// NewTaxCalculatorWithRate returns a TaxCalculator using the given rate.
func NewTaxCalculatorWithRate(rate decimal.Decimal) TaxCalculator {
	return TaxCalculator{rate: rate}
}

// Rate returns the configured tax rate.
func (c TaxCalculator) Rate() decimal.Decimal {
	return c.rate
}

// CalculateTax returns total * rate. Negative and zero totals are not
// rejected.
func (c TaxCalculator) CalculateTax(total decimal.Decimal) decimal.Decimal {
	return total.Mul(c.rate)
}
