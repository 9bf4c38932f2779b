package order

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-pricing/internal/domain/pricing"
)

const instrumentationName = "github.com/xenking/order-pricing/internal/domain/order"

// PriceOrderRequest holds the input for pricing a single order.
type PriceOrderRequest struct {
	CustomerName string
	// CustomerType is the textual customer class label, e.g. "VIP".
	CustomerType string
	Items        []string
	TotalAmount  decimal.Decimal
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// TaxRate overrides pricing.DefaultTaxRate when set. Zero is a valid rate.
	TaxRate *decimal.Decimal
	// RejectNegative makes negative totals fail with ErrNegativeTotal
	// instead of being priced as-is.
	RejectNegative bool
	// BatchConcurrency limits parallel pricing in PriceBatch.
	// Defaults to GOMAXPROCS.
	BatchConcurrency int
	// MaxBatchSize caps the number of orders per batch. Zero means no cap.
	MaxBatchSize int

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Service prices orders. It holds no per-order state and is safe for
// concurrent use.
type Service struct {
	taxRate        decimal.Decimal
	rejectNegative bool
	concurrency    int
	maxBatch       int

	tracer trace.Tracer
	priced metric.Int64Counter
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) (*Service, error) {
	taxRate := pricing.DefaultTaxRate
	if cfg.TaxRate != nil {
		taxRate = *cfg.TaxRate
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}

	priced, err := cfg.MeterProvider.Meter(instrumentationName).Int64Counter(
		"pricing.orders.priced",
		metric.WithDescription("Number of orders priced"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create priced counter")
	}

	return &Service{
		taxRate:        taxRate,
		rejectNegative: cfg.RejectNegative,
		concurrency:    cfg.BatchConcurrency,
		maxBatch:       cfg.MaxBatchSize,
		tracer:         cfg.TracerProvider.Tracer(instrumentationName),
		priced:         priced,
	}, nil
}

// NewOrder validates req and builds an Order bound to the service's
// calculators.
func (s *Service) NewOrder(req PriceOrderRequest) (*Order, error) {
	class, err := pricing.ParseCustomerClass(req.CustomerType)
	if err != nil {
		return nil, &InvalidInputError{Field: "customerType", Err: err}
	}
	if s.rejectNegative && req.TotalAmount.IsNegative() {
		return nil, &InvalidInputError{Field: "totalAmount", Err: ErrNegativeTotal}
	}
	return New(req.CustomerName, class, req.Items, req.TotalAmount, WithTaxRate(s.taxRate)), nil
}

// PriceOrder builds the order, applies the discount, calculates the tax and
// returns the resulting summary.
func (s *Service) PriceOrder(ctx context.Context, req PriceOrderRequest) (*PricedOrder, error) {
	ctx, span := s.tracer.Start(ctx, "PriceOrder")
	defer span.End()

	o, err := s.NewOrder(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}

	o.ApplyDiscount()
	o.CalculateTax()
	priced := o.Summary()

	classAttr := attribute.String("customer_type", priced.CustomerClass.String())
	span.SetAttributes(
		classAttr,
		attribute.String("discount_rule", priced.DiscountRule),
		attribute.Int("items", len(priced.Items)),
	)
	s.priced.Add(ctx, 1, metric.WithAttributes(classAttr))

	return &priced, nil
}

// PriceBatch prices independent orders concurrently. Results keep the input
// order. The first failing order aborts the batch with a *BatchItemError.
func (s *Service) PriceBatch(ctx context.Context, reqs []PriceOrderRequest) ([]PricedOrder, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.maxBatch > 0 && len(reqs) > s.maxBatch {
		return nil, &InvalidInputError{
			Field: "orders",
			Err:   errors.Errorf("batch of %d exceeds limit of %d", len(reqs), s.maxBatch),
		}
	}

	ctx, span := s.tracer.Start(ctx, "PriceBatch",
		trace.WithAttributes(attribute.Int("orders", len(reqs))),
	)
	defer span.End()

	out := make([]PricedOrder, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.PriceOrder(gctx, req)
			if err != nil {
				return &BatchItemError{Index: i, Err: err}
			}
			out[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		return nil, err
	}

	return out, nil
}
