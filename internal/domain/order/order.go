package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/order-pricing/internal/domain/pricing"
)

// Order is one customer transaction being priced. Discount and tax start at
// zero and are only set by ApplyDiscount and CalculateTax.
type Order struct {
	customerName  string
	customerClass pricing.CustomerClass
	items         []string
	totalAmount   decimal.Decimal

	discount     decimal.Decimal
	discountRule string
	tax          decimal.Decimal

	discounts pricing.DiscountCalculator
	taxes     pricing.TaxCalculator
}

// Option customizes the calculators bound to an Order.
type Option func(*Order)

// WithTaxRate binds a TaxCalculator using rate instead of the default.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(o *Order) {
		o.taxes = pricing.NewTaxCalculatorWithRate(rate)
	}
}

// WithDiscountRules binds a DiscountCalculator evaluating rules instead of
// the default tier table.
func WithDiscountRules(rules []pricing.Rule) Option {
	return func(o *Order) {
		o.discounts = pricing.NewDiscountCalculatorWithRules(rules)
	}
}

// New creates a fully populated Order. No validation is performed: empty
// names, empty item lists and negative totals are all accepted.
func New(
	customerName string,
	customerClass pricing.CustomerClass,
	items []string,
	totalAmount decimal.Decimal,
	opts ...Option,
) *Order {
	o := &Order{
		customerName:  customerName,
		customerClass: customerClass,
		items:         append([]string(nil), items...),
		totalAmount:   totalAmount,
		discount:      decimal.Zero,
		tax:           decimal.Zero,
		discounts:     pricing.NewDiscountCalculator(),
		taxes:         pricing.NewTaxCalculator(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Order) CustomerName() string                 { return o.customerName }
func (o *Order) CustomerClass() pricing.CustomerClass { return o.customerClass }
func (o *Order) TotalAmount() decimal.Decimal         { return o.totalAmount }
func (o *Order) Discount() decimal.Decimal            { return o.discount }
func (o *Order) Tax() decimal.Decimal                 { return o.tax }

// Items returns a copy of the item labels in insertion order.
func (o *Order) Items() []string {
	return append([]string(nil), o.items...)
}

// SetTotalAmount replaces the subtotal. Previously computed discount and tax
// are kept as-is until ApplyDiscount and CalculateTax run again; use Price
// for a result that is always consistent with the current total.
func (o *Order) SetTotalAmount(total decimal.Decimal) {
	o.totalAmount = total
}

// ApplyDiscount sets the discount from the customer class and total.
func (o *Order) ApplyDiscount() {
	rule, ok := o.discounts.Match(o.customerClass, o.totalAmount)
	if !ok {
		o.discount, o.discountRule = decimal.Zero, ""
		return
	}
	o.discount, o.discountRule = o.totalAmount.Mul(rule.Rate), rule.Name
}

// CalculateTax sets the tax from the total.
func (o *Order) CalculateTax() {
	o.tax = o.taxes.CalculateTax(o.totalAmount)
}

// FinalAmount returns total - discount + tax using the stored discount and
// tax. It is never cached.
func (o *Order) FinalAmount() decimal.Decimal {
	return o.totalAmount.Sub(o.discount).Add(o.tax)
}

// Summary snapshots the order's current fields.
func (o *Order) Summary() PricedOrder {
	return PricedOrder{
		CustomerName:  o.customerName,
		CustomerClass: o.customerClass,
		Items:         o.Items(),
		TotalAmount:   o.totalAmount,
		Discount:      o.discount,
		DiscountRule:  o.discountRule,
		Tax:           o.tax,
		FinalAmount:   o.FinalAmount(),
	}
}
