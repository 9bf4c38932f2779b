package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/order-pricing/internal/domain/order"
	"github.com/xenking/order-pricing/internal/handler"
	"github.com/xenking/order-pricing/pkg/health"
	"github.com/xenking/order-pricing/pkg/httpmiddleware"
)

const serviceName = "pricing-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	orderService, err := newOrderService(cfg.Pricing, m.MeterProvider(), m.TracerProvider())
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("pricing", time.Second, PricingCheck(orderService))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc-pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           NewHandler(ctx, lg, cfg, orderService, healthSvc, m.TracerProvider(), m.MeterProvider()),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func newOrderService(cfg PricingConfig, mp metric.MeterProvider, tp trace.TracerProvider) (*order.Service, error) {
	rate, err := cfg.Rate()
	if err != nil {
		return nil, err
	}
	return order.NewService(order.ServiceConfig{
		TaxRate:          &rate,
		RejectNegative:   cfg.RejectNegative,
		BatchConcurrency: cfg.BatchConcurrency,
		MaxBatchSize:     cfg.MaxBatchSize,
		MeterProvider:    mp,
		TracerProvider:   tp,
	})
}

// NewHandler builds the HTTP handler: health endpoints and the pricing API
// behind the middleware chain.
func NewHandler(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	orderService *order.Service,
	healthSvc *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(handler.HandlerConfig{MaxBodyBytes: cfg.Pricing.MaxBodyBytes}, orderService).Register(mux)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument(serviceName, tp, mp),
		httpmiddleware.LogRequests(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
	)
}

// canaryDiscount is the discount every correctly configured service gives a
// VIP order of 1200.
var canaryDiscount = decimal.NewFromInt(240)

// PricingCheck prices a fixed canary order and fails when the result is off.
// It does not go through PriceOrder, so canaries are not counted as priced
// orders.
func PricingCheck(svc *order.Service) health.CheckFunc {
	return func(context.Context) error {
		o, err := svc.NewOrder(order.PriceOrderRequest{
			CustomerName: "canary",
			CustomerType: "VIP",
			TotalAmount:  decimal.NewFromInt(1200),
		})
		if err != nil {
			return errors.Wrap(err, "build canary")
		}
		if p := order.Price(o); !p.Discount.Equal(canaryDiscount) {
			return errors.Errorf("canary discount %s, want %s", p.Discount, canaryDiscount)
		}
		return nil
	}
}
