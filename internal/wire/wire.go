// Package wire is the JSON codec for pricing requests and priced orders.
package wire

import (
	"bytes"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-pricing/internal/domain/order"
)

var (
	// ErrMissingTotal is returned when an order object has no totalAmount.
	ErrMissingTotal = errors.New("totalAmount required")
	// ErrTrailingData is returned when a document holds more than one value.
	ErrTrailingData = errors.New("unexpected data after JSON value")
)

// DecodeRequestBytes decodes a document that must hold exactly one order.
func DecodeRequestBytes(data []byte) (order.PriceOrderRequest, error) {
	value, err := single(data)
	if err != nil {
		return order.PriceOrderRequest{}, err
	}
	return DecodeRequest(jx.DecodeBytes(value))
}

// DecodeBatchBytes decodes a document that must hold exactly one batch.
func DecodeBatchBytes(data []byte) ([]order.PriceOrderRequest, error) {
	value, err := single(data)
	if err != nil {
		return nil, err
	}
	return DecodeBatch(jx.DecodeBytes(value))
}

// single returns the first JSON value of data and fails when anything but
// whitespace follows it.
func single(data []byte) ([]byte, error) {
	raw, err := jx.DecodeBytes(data).Raw()
	if err != nil {
		return nil, err
	}
	value := bytes.TrimSpace(raw)
	if len(value) != len(bytes.TrimSpace(data)) {
		return nil, ErrTrailingData
	}
	return value, nil
}

// DecodeRequest reads a single order object:
//
//	{"customerName":"Alice","customerType":"VIP","items":["Item1"],"totalAmount":1200}
//
// totalAmount may be a JSON number or a numeric string. Unknown fields are
// skipped.
func DecodeRequest(d *jx.Decoder) (order.PriceOrderRequest, error) {
	var (
		req      order.PriceOrderRequest
		hasTotal bool
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "customerName":
			v, err := d.Str()
			req.CustomerName = v
			return err
		case "customerType":
			v, err := d.Str()
			req.CustomerType = v
			return err
		case "items":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				v, err := d.Str()
				if err != nil {
					return err
				}
				req.Items = append(req.Items, v)
				return nil
			})
		case "totalAmount":
			v, err := decodeAmount(d)
			if err != nil {
				return errors.Wrap(err, "totalAmount")
			}
			req.TotalAmount, hasTotal = v, true
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return order.PriceOrderRequest{}, err
	}
	if !hasTotal {
		return order.PriceOrderRequest{}, ErrMissingTotal
	}
	return req, nil
}

// DecodeBatch reads {"orders":[...]}.
func DecodeBatch(d *jx.Decoder) ([]order.PriceOrderRequest, error) {
	var reqs []order.PriceOrderRequest
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "orders" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			req, err := DecodeRequest(d)
			if err != nil {
				return errors.Wrapf(err, "order %d", len(reqs))
			}
			reqs = append(reqs, req)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func decodeAmount(d *jx.Decoder) (decimal.Decimal, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("unexpected %s", tt)
	}
}

// EncodePriced writes p as a JSON object. Amounts are JSON numbers.
func EncodePriced(e *jx.Encoder, p order.PricedOrder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("customerName", func(e *jx.Encoder) { e.Str(p.CustomerName) })
		e.Field("customerType", func(e *jx.Encoder) { e.Str(p.CustomerClass.String()) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range p.Items {
					e.Str(item)
				}
			})
		})
		e.Field("totalAmount", func(e *jx.Encoder) { e.Float64(p.TotalAmount.InexactFloat64()) })
		e.Field("discount", func(e *jx.Encoder) { e.Float64(p.Discount.InexactFloat64()) })
		if p.DiscountRule != "" {
			e.Field("discountRule", func(e *jx.Encoder) { e.Str(p.DiscountRule) })
		}
		e.Field("tax", func(e *jx.Encoder) { e.Float64(p.Tax.InexactFloat64()) })
		e.Field("finalAmount", func(e *jx.Encoder) { e.Float64(p.FinalAmount.InexactFloat64()) })
	})
}

// EncodeBatch writes {"orders":[...]}.
func EncodeBatch(e *jx.Encoder, priced []order.PricedOrder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("orders", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range priced {
					EncodePriced(e, p)
				}
			})
		})
	})
}
