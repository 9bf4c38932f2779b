package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/order-pricing/internal/domain/pricing"
)

// PricedOrder is an immutable pricing result for a single order.
type PricedOrder struct {
	CustomerName  string
	CustomerClass pricing.CustomerClass
	Items         []string
	TotalAmount   decimal.Decimal
	Discount      decimal.Decimal
	// DiscountRule names the tier that produced Discount, empty when none applied.
	DiscountRule string
	Tax          decimal.Decimal
	FinalAmount  decimal.Decimal
}

// Price computes discount and tax from the order's current total and class
// using the order's own calculators. The order itself is not modified, so the
// result can never be stale.
func Price(o *Order) PricedOrder {
	discount := decimal.Zero
	ruleName := ""
	if rule, ok := o.discounts.Match(o.customerClass, o.totalAmount); ok {
		discount = o.totalAmount.Mul(rule.Rate)
		ruleName = rule.Name
	}
	tax := o.taxes.CalculateTax(o.totalAmount)

	return PricedOrder{
		CustomerName:  o.customerName,
		CustomerClass: o.customerClass,
		Items:         o.Items(),
		TotalAmount:   o.totalAmount,
		Discount:      discount,
		DiscountRule:  ruleName,
		Tax:           tax,
		FinalAmount:   o.totalAmount.Sub(discount).Add(tax),
	}
}
