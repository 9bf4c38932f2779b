package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name     string
		class    CustomerClass
		total    decimal.Decimal
		want     decimal.Decimal
		wantRule string
	}{
		{name: "regular zero", class: Regular, total: d("0"), want: d("0")},
		{name: "regular at 100 boundary", class: Regular, total: d("100"), want: d("0")},
		{name: "regular just over 100", class: Regular, total: d("100.01"), want: d("5.0005"), wantRule: "regular-over-100"},
		{name: "regular 300", class: Regular, total: d("300"), want: d("15"), wantRule: "regular-over-100"},
		{name: "regular at 500 boundary", class: Regular, total: d("500"), want: d("25"), wantRule: "regular-over-100"},
		{name: "regular 600 not additive", class: Regular, total: d("600"), want: d("60"), wantRule: "regular-over-500"},
		{name: "regular at 1000 boundary", class: Regular, total: d("1000"), want: d("100"), wantRule: "regular-over-500"},
		{name: "regular over 1000", class: Regular, total: d("1000.01"), want: d("200.002"), wantRule: "any-over-1000"},
		{name: "vip at 100 boundary", class: Vip, total: d("100"), want: d("0")},
		{name: "vip just over 100", class: Vip, total: d("100.01"), want: d("10.001"), wantRule: "vip-over-100"},
		{name: "vip 600", class: Vip, total: d("600"), want: d("90"), wantRule: "vip-over-500"},
		{name: "vip 1200 global override", class: Vip, total: d("1200"), want: d("240"), wantRule: "any-over-1000"},
		{name: "negative total passes through", class: Vip, total: d("-50"), want: d("0")},
		{name: "unknown class only gets global tier", class: CustomerClass(0), total: d("2000"), want: d("400"), wantRule: "any-over-1000"},
		{name: "unknown class below global tier", class: CustomerClass(0), total: d("600"), want: d("0")},
	}

	calc := NewDiscountCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.ApplyDiscount(tt.class, tt.total)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)

			rule, ok := calc.Match(tt.class, tt.total)
			if tt.wantRule == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantRule, rule.Name)
		})
	}
}

func TestApplyDiscount_AtOrBelow100IsZero(t *testing.T) {
	calc := NewDiscountCalculator()
	for _, class := range []CustomerClass{Regular, Vip} {
		for _, total := range []string{"0", "0.01", "42", "99.99", "100"} {
			got := calc.ApplyDiscount(class, d(total))
			assert.True(t, got.IsZero(), "%s %s: got %s", class, total, got)
		}
	}
}

func TestApplyDiscount_GlobalOverrideAbove1000(t *testing.T) {
	calc := NewDiscountCalculator()
	for _, class := range []CustomerClass{Regular, Vip} {
		for _, total := range []string{"1000.01", "1200", "5000", "123456.78"} {
			want := d(total).Mul(d("0.20"))
			got := calc.ApplyDiscount(class, d(total))
			assert.True(t, want.Equal(got), "%s %s: expected %s, got %s", class, total, want, got)
		}
	}
}

func TestNewDiscountCalculatorWithRules(t *testing.T) {
	rules := []Rule{
		{Name: "low", Above: d("10"), Rate: d("0.5")},
		{Name: "high", Above: d("20"), Rate: d("0.25")},
	}
	calc := NewDiscountCalculatorWithRules(rules)

	// Mutating the input must not change the calculator.
	rules[0].Rate = d("0.9")

	assert.True(t, d("7.5").Equal(calc.ApplyDiscount(Regular, d("15"))))
	assert.True(t, d("7.5").Equal(calc.ApplyDiscount(Vip, d("30"))))
	assert.True(t, calc.ApplyDiscount(Vip, d("10")).IsZero())
}

func TestRule_Matches(t *testing.T) {
	vipOnly := Rule{Classes: []CustomerClass{Vip}, Above: d("100"), Rate: d("0.1")}

	assert.True(t, vipOnly.Matches(Vip, d("101")))
	assert.False(t, vipOnly.Matches(Regular, d("101")))
	assert.False(t, vipOnly.Matches(Vip, d("100")))
}
