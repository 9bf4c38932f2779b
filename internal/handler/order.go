package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-pricing/internal/domain/order"
	"github.com/xenking/order-pricing/internal/report"
	"github.com/xenking/order-pricing/internal/wire"
)

// PriceOrder prices a single order and responds with the JSON summary.
func (h *Handler) PriceOrder(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeOrderRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	priced, err := h.orderService.PriceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		wire.EncodePriced(e, *priced)
	})
}

// OrderSummary prices a single order and responds with the text summary.
func (h *Handler) OrderSummary(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeOrderRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	priced, err := h.orderService.PriceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := report.WriteText(w, *priced); err != nil {
		zctx.From(r.Context()).Warn("Write summary failed", zap.Error(err))
	}
}

// PriceBatch prices {"orders":[...]} and responds with {"orders":[...]} in
// the same order.
func (h *Handler) PriceBatch(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reqs, err := wire.DecodeBatchBytes(body)
	if err != nil {
		writeError(w, r, &decodeError{err: errors.Wrap(err, "decode batch")})
		return
	}

	priced, err := h.orderService.PriceBatch(r.Context(), reqs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		wire.EncodeBatch(e, priced)
	})
}

func (h *Handler) decodeOrderRequest(w http.ResponseWriter, r *http.Request) (order.PriceOrderRequest, error) {
	body, err := h.readBody(w, r)
	if err != nil {
		return order.PriceOrderRequest{}, err
	}
	req, err := wire.DecodeRequestBytes(body)
	if err != nil {
		return order.PriceOrderRequest{}, &decodeError{err: errors.Wrap(err, "decode order")}
	}
	return req, nil
}
