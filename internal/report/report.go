// Package report renders the human-readable order summary.
package report

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-pricing/internal/domain/order"
)

// amountPlaces is the number of decimal places amounts are rendered with.
const amountPlaces = 2

// Text renders the multi-line summary: one "Field: value" line per field, in
// the fixed order Customer, Customer Type, Items, Total Amount, Discount, Tax,
// Final Amount.
func Text(p order.PricedOrder) string {
	var b strings.Builder
	line := func(field, value string) {
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	line("Customer", p.CustomerName)
	line("Customer Type", p.CustomerClass.String())
	line("Items", strings.Join(p.Items, ", "))
	line("Total Amount", formatAmount(p.TotalAmount))
	line("Discount", formatAmount(p.Discount))
	line("Tax", formatAmount(p.Tax))
	line("Final Amount", formatAmount(p.FinalAmount))

	return b.String()
}

// WriteText writes Text(p) to w.
func WriteText(w io.Writer, p order.PricedOrder) error {
	if _, err := io.WriteString(w, Text(p)); err != nil {
		return errors.Wrap(err, "write summary")
	}
	return nil
}

func formatAmount(v decimal.Decimal) string {
	return v.StringFixed(amountPlaces)
}
