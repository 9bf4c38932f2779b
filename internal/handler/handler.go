package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-pricing/internal/domain/order"
)

// defaultMaxBodyBytes caps request bodies when HandlerConfig leaves it unset.
const defaultMaxBodyBytes = 1 << 20

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// MaxBodyBytes limits the size of request bodies.
	MaxBodyBytes int64
}

// Handler serves the pricing API, delegating business logic to the order
// service.
type Handler struct {
	orderService *order.Service
	maxBodyBytes int64
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, orderService *order.Service) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		orderService: orderService,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders/price", h.PriceOrder)
	mux.HandleFunc("POST /api/orders/summary", h.OrderSummary)
	mux.HandleFunc("POST /api/orders/price/batch", h.PriceBatch)
}

// readBody reads the whole request body, bounded by maxBodyBytes.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, &decodeError{err: errors.Wrap(err, "read body")}
	}
	return body, nil
}

// decodeError marks malformed request bodies.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// writeJSON writes a JSON response built by enc.
func writeJSON(w http.ResponseWriter, status int, enc func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	enc(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeErrorBody(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// writeError converts domain errors to error responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		decErr *decodeError
		inErr  *order.InvalidInputError
	)
	switch {
	case errors.As(err, &decErr):
		writeErrorBody(w, http.StatusBadRequest, decErr.Error())
	case errors.Is(err, order.ErrEmptyBatch):
		writeErrorBody(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &inErr):
		writeErrorBody(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("Pricing failed", zap.Error(err))
		writeErrorBody(w, http.StatusInternalServerError, "internal error")
	}
}
