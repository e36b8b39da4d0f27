package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/bookify-backend/internal/bootstrap"
	"github.com/angelmondragon/bookify-backend/internal/cron"
	"github.com/angelmondragon/bookify-backend/internal/payments"
	"github.com/angelmondragon/bookify-backend/pkg/metrics"
	"github.com/angelmondragon/bookify-backend/pkg/outbox"
	"github.com/angelmondragon/bookify-backend/pkg/razorpay"
	"github.com/angelmondragon/bookify-backend/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, "cron-worker")
	if err != nil {
		bootstrap.Fatal(ctx, nil, "cron worker boot failed", err)
	}
	logg := rt.Logger
	ctx = rt.Context(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	service, err := buildService(ctx, rt, registry)
	if err != nil {
		_ = rt.Close()
		bootstrap.Fatal(ctx, logg, "cron worker wiring failed", err)
	}
	serveMetrics(ctx, rt, registry)

	logg.Info(ctx, "cron_worker.start")
	runErr := service.Run(ctx)
	if err := rt.Close(); err != nil {
		logg.Error(ctx, "cron_worker.close_failed", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		bootstrap.Fatal(ctx, logg, "cron worker stopped unexpectedly", runErr)
	}
	logg.Info(ctx, "cron_worker.stopped")
}

func buildService(ctx context.Context, rt *bootstrap.Runtime, registry *prometheus.Registry) (*cron.Service, error) {
	cfg, logg := rt.Config, rt.Logger

	lock, err := buildLock(ctx, rt)
	if err != nil {
		return nil, err
	}

	paymentMetrics := metrics.NewPaymentMetrics(registry)
	gateway, err := razorpay.NewClient(ctx, cfg.Razorpay, paymentMetrics, logg)
	if err != nil {
		return nil, err
	}
	paymentsService, err := payments.Wire(rt.DB.DB(), gateway, cfg.Payments, paymentMetrics, logg)
	if err != nil {
		return nil, err
	}

	sweepJob, err := cron.NewPendingPaymentSweepJob(cron.PendingPaymentSweepJobParams{
		Logger:    logg,
		Payments:  paymentsService,
		TTL:       cfg.Payments.PendingOrderTTL,
		BatchSize: cfg.Cron.SweepBatch,
	})
	if err != nil {
		return nil, err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		Repository:    outbox.NewRepository(rt.DB.DB()),
		RetentionDays: cfg.Outbox.RetentionDays,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	jobs, err := cron.NewRegistry(sweepJob, retentionJob)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(registry),
		Interval: cfg.Cron.Interval,
	})
}

// buildLock returns a Redis lock so only one replica runs a tick, or a no-op
// lock when locking is disabled for single-instance deployments.
func buildLock(ctx context.Context, rt *bootstrap.Runtime) (cron.Lock, error) {
	cfg := rt.Config
	if !cfg.Cron.LockEnabled {
		return cron.NoopLock{}, nil
	}
	redisClient, err := redis.New(ctx, cfg.Redis, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.OnClose("redis", redisClient.Close)
	return cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), cfg.Cron.LockTTL)
}

// serveMetrics exposes the worker registry until ctx ends.
func serveMetrics(ctx context.Context, rt *bootstrap.Runtime, registry *prometheus.Registry) {
	addr := rt.Config.Cron.MetricsAddr
	if addr == "" {
		return
	}
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))
	server := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error(ctx, "cron_worker.metrics_listener_failed", err)
		}
	}()
	rt.OnClose("metrics listener", func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}
