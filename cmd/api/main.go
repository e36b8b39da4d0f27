package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/bookify-backend/api/routes"
	"github.com/angelmondragon/bookify-backend/internal/bootstrap"
	"github.com/angelmondragon/bookify-backend/internal/payments"
	razorpaywebhook "github.com/angelmondragon/bookify-backend/internal/webhooks/razorpay"
	"github.com/angelmondragon/bookify-backend/pkg/metrics"
	"github.com/angelmondragon/bookify-backend/pkg/razorpay"
	"github.com/angelmondragon/bookify-backend/pkg/redis"
)

const (
	webhookScope    = "razorpay-webhook"
	shutdownTimeout = 15 * time.Second
)

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(context.Background(), "api")
	if err != nil {
		bootstrap.Fatal(sigCtx, nil, "api boot failed", err)
	}
	server, err := buildServer(rt)
	if err != nil {
		_ = rt.Close()
		bootstrap.Fatal(sigCtx, rt.Logger, "api wiring failed", err)
	}

	logg := rt.Logger
	ctx := logg.WithField(rt.Context(context.Background()), "addr", server.Addr)
	logg.Info(ctx, "api.start")

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err = <-errCh:
	case <-sigCtx.Done():
		logg.Info(ctx, "api.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = server.Shutdown(shutdownCtx)
		cancel()
	}
	if closeErr := rt.Close(); closeErr != nil {
		logg.Error(ctx, "api.close_failed", closeErr)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		bootstrap.Fatal(ctx, logg, "api server stopped unexpectedly", err)
	}
}

// buildServer wires Redis, metrics, the gateway and the payment services into
// the HTTP router. Clients it opens are registered on rt for shutdown.
func buildServer(rt *bootstrap.Runtime) (*http.Server, error) {
	cfg, logg := rt.Config, rt.Logger
	ctx := context.Background()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, err
	}
	rt.OnClose("redis", redisClient.Close)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gateway, err := razorpay.NewClient(ctx, cfg.Razorpay, paymentMetrics, logg)
	if err != nil {
		return nil, err
	}
	paymentsService, err := payments.Wire(rt.DB.DB(), gateway, cfg.Payments, paymentMetrics, logg)
	if err != nil {
		return nil, err
	}
	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		Payments: paymentsService,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	webhookGuard, err := razorpaywebhook.NewIdempotencyGuard(redisClient, cfg.Razorpay.WebhookTTL, webhookScope)
	if err != nil {
		return nil, err
	}

	// PORT is injected by the hosting platform and wins over config
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	logg.Info(logg.WithField(ctx, "razorpayMode", gateway.Mode()), "api.gateway_ready")

	return &http.Server{
		Addr: ":" + port,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              rt.DB,
			Redis:           redisClient,
			Payments:        paymentsService,
			WebhookService:  webhookService,
			WebhookGuard:    webhookGuard,
			WebhookVerifier: gateway,
			Metrics:         registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
