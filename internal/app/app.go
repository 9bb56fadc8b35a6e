package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/cache"
	"github.com/xenking/storefront-checkout/internal/domain/discount"
	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/events"
	"github.com/xenking/storefront-checkout/internal/handler"
	"github.com/xenking/storefront-checkout/internal/storage/postgres"
	"github.com/xenking/storefront-checkout/pkg/health"
	"github.com/xenking/storefront-checkout/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	taxRate, err := cfg.VATRate()
	if err != nil {
		return err
	}
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("tax_rate", taxRate.String()),
	)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck("postgres", pool))
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Optional order tracking cache.
	var orderCache order.Cache
	if cfg.Redis.Addr != "" {
		client := cache.NewRedisClient(cfg.Redis)
		defer func() { _ = client.Close() }()

		rc := cache.NewRedisOrderCache(client, cfg.Redis.TTL)
		orderCache = rc
		healthSvc.Add(health.Readiness, "redis", 2*time.Second, health.PingCheck("redis", rc))
		lg.Info("Order cache enabled", zap.String("redis", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	}

	// Optional order events.
	var publisher handler.EventPublisher
	if cfg.Kafka.Enabled() {
		p := events.NewKafkaPublisher(cfg.Kafka)
		defer func() {
			if err := p.Close(); err != nil {
				lg.Warn("Close kafka publisher", zap.Error(err))
			}
		}()
		publisher = p
		lg.Info("Order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalog := postgres.NewProductCatalog(pool)
	discountRepo := postgres.NewDiscountRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	// Domain services.
	checkout, err := order.NewService(
		order.Config{TaxRate: taxRate},
		catalog,
		discount.NewEvaluator(discountRepo),
		orderRepo,
		orderCache,
	)
	if err != nil {
		return errors.Wrap(err, "create checkout service")
	}

	// HTTP handlers.
	h, err := handler.NewHandler(
		handler.HandlerConfig{CheckoutTimeout: cfg.CheckoutTimeout},
		checkout,
		publisher,
		m.MeterProvider(),
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.CheckoutTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("storefront-api", routeFinder, m),
			httpmiddleware.Labeler(routeFinder),
			httpmiddleware.LogRequests(routeFinder),
		),
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
