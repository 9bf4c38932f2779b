package pricing

import "github.com/shopspring/decimal"

// Rule is a single discount tier. When it matches, the discount becomes
// total * Rate.
type Rule struct {
	Name string
	// Classes restricts the rule to the listed classifications.
	// Empty means the rule applies to every classification.
	Classes []CustomerClass
	// Above is the strict lower bound on the total.
	Above decimal.Decimal
	Rate  decimal.Decimal
}

// Matches reports whether the rule applies to the given class and total.
func (r Rule) Matches(class CustomerClass, total decimal.Decimal) bool {
	if !total.GreaterThan(r.Above) {
		return false
	}
	if len(r.Classes) == 0 {
		return true
	}
	for _, c := range r.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// DefaultRules returns the standard tier table. Order matters: later rules
// override earlier ones.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "regular-over-100", Classes: []CustomerClass{Regular}, Above: decimal.NewFromInt(100), Rate: decimal.RequireFromString("0.05")},
		{Name: "regular-over-500", Classes: []CustomerClass{Regular}, Above: decimal.NewFromInt(500), Rate: decimal.RequireFromString("0.10")},
		{Name: "vip-over-100", Classes: []CustomerClass{Vip}, Above: decimal.NewFromInt(100), Rate: decimal.RequireFromString("0.10")},
		{Name: "vip-over-500", Classes: []CustomerClass{Vip}, Above: decimal.NewFromInt(500), Rate: decimal.RequireFromString("0.15")},
		{Name: "any-over-1000", Above: decimal.NewFromInt(1000), Rate: decimal.RequireFromString("0.20")},
	}
}

// DiscountCalculator evaluates an ordered rule list, last match wins.
// Tiers replace each other; they never accumulate.
type DiscountCalculator struct {
	rules []Rule
}

// NewDiscountCalculator returns a DiscountCalculator with DefaultRules.
func NewDiscountCalculator() DiscountCalculator {
	return DiscountCalculator{rules: DefaultRules()}
}

// NewDiscountCalculatorWithRules returns a DiscountCalculator evaluating the
// given rules in order.
func NewDiscountCalculatorWithRules(rules []Rule) DiscountCalculator {
	return DiscountCalculator{rules: append([]Rule(nil), rules...)}
}

// Match returns the last rule matching class and total. ok is false when
// no rule applies.
func (c DiscountCalculator) Match(class CustomerClass, total decimal.Decimal) (rule Rule, ok bool) {
	for _, r := range c.rules {
		if r.Matches(class, total) {
			rule, ok = r, true
		}
	}
	return rule, ok
}

// ApplyDiscount returns the discount amount for the given class and total,
// or zero when no tier applies.
func (c DiscountCalculator) ApplyDiscount(class CustomerClass, total decimal.Decimal) decimal.Decimal {
	rule, ok := c.Match(class, total)
	if !ok {
		return decimal.Zero
	}
	return total.Mul(rule.Rate)
}
