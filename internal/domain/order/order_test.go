package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-pricing/internal/domain/pricing"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: expected %s, got %s", field, want, got)
}

func TestOrder_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		class    pricing.CustomerClass
		items    []string
		total    string
		discount string
		tax      string
		final    string
	}{
		{name: "vip over 1000", class: pricing.Vip, items: []string{"Item1", "Item2"}, total: "1200", discount: "240", tax: "180", final: "1140"},
		{name: "regular 300", class: pricing.Regular, total: "300", discount: "15", tax: "45", final: "330"},
		{name: "regular 600", class: pricing.Regular, total: "600", discount: "60", tax: "90", final: "630"},
		{name: "vip at 100", class: pricing.Vip, total: "100", discount: "0", tax: "15", final: "115"},
		{name: "regular zero", class: pricing.Regular, total: "0", discount: "0", tax: "0", final: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New("Alice", tt.class, tt.items, d(tt.total))
			o.ApplyDiscount()
			o.CalculateTax()

			assertDecimal(t, tt.discount, o.Discount(), "discount")
			assertDecimal(t, tt.tax, o.Tax(), "tax")
			assertDecimal(t, tt.final, o.FinalAmount(), "final")

			p := Price(o)
			assertDecimal(t, tt.discount, p.Discount, "priced discount")
			assertDecimal(t, tt.tax, p.Tax, "priced tax")
			assertDecimal(t, tt.final, p.FinalAmount, "priced final")
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	items := []string{"b", "a", "b"}
	o := New("", pricing.Regular, items, d("-5"))

	assert.Equal(t, "", o.CustomerName())
	assert.Equal(t, pricing.Regular, o.CustomerClass())
	assert.Equal(t, []string{"b", "a", "b"}, o.Items())
	assertDecimal(t, "-5", o.TotalAmount(), "total")
	assert.True(t, o.Discount().IsZero())
	assert.True(t, o.Tax().IsZero())
	assertDecimal(t, "-5", o.FinalAmount(), "final")

	// The order keeps its own copy of the items.
	items[0] = "changed"
	assert.Equal(t, "b", o.Items()[0])
}

func TestOrder_DiscountAndTaxCommute(t *testing.T) {
	a := New("A", pricing.Vip, nil, d("750"))
	a.ApplyDiscount()
	a.CalculateTax()

	b := New("A", pricing.Vip, nil, d("750"))
	b.CalculateTax()
	b.ApplyDiscount()

	assert.True(t, a.Discount().Equal(b.Discount()))
	assert.True(t, a.Tax().Equal(b.Tax()))
	assert.Equal(t, a.Summary(), b.Summary())
}

func TestOrder_ApplyDiscountIdempotent(t *testing.T) {
	o := New("A", pricing.Regular, nil, d("600"))
	o.ApplyDiscount()
	first := o.Discount()
	o.ApplyDiscount()

	assert.True(t, first.Equal(o.Discount()))
	assert.Equal(t, "regular-over-500", o.Summary().DiscountRule)
}

func TestOrder_StaleAfterTotalChange(t *testing.T) {
	o := New("A", pricing.Regular, nil, d("600"))
	o.ApplyDiscount()
	o.CalculateTax()

	o.SetTotalAmount(d("50"))

	// Stored fields keep the old values until recomputed.
	assertDecimal(t, "60", o.Discount(), "stale discount")
	assertDecimal(t, "90", o.Tax(), "stale tax")
	assertDecimal(t, "80", o.FinalAmount(), "stale final")

	// Price always reflects the current total.
	p := Price(o)
	assertDecimal(t, "0", p.Discount, "fresh discount")
	assertDecimal(t, "7.5", p.Tax, "fresh tax")
	assertDecimal(t, "57.5", p.FinalAmount, "fresh final")
	assert.Empty(t, p.DiscountRule)

	// Price does not mutate the order.
	assertDecimal(t, "60", o.Discount(), "discount after Price")

	o.ApplyDiscount()
	o.CalculateTax()
	assert.Equal(t, p, o.Summary())
}

func TestOrder_Options(t *testing.T) {
	o := New("A", pricing.Regular, nil, d("200"),
		WithTaxRate(d("0.10")),
		WithDiscountRules([]pricing.Rule{{Name: "flat", Above: d("0"), Rate: d("0.5")}}),
	)
	o.ApplyDiscount()
	o.CalculateTax()

	assertDecimal(t, "100", o.Discount(), "discount")
	assertDecimal(t, "20", o.Tax(), "tax")
	assertDecimal(t, "120", o.FinalAmount(), "final")
}

func TestSummary_IsSnapshot(t *testing.T) {
	o := New("A", pricing.Vip, []string{"x"}, d("1200"))
	o.ApplyDiscount()
	s := o.Summary()
	require.Len(t, s.Items, 1)

	s.Items[0] = "mutated"
	assert.Equal(t, []string{"x"}, o.Items())
	assert.True(t, s.Tax.IsZero())
	assertDecimal(t, "960", s.FinalAmount, "final without tax")
}
