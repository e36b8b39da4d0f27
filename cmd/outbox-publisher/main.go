package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/angelmondragon/bookify-backend/internal/bootstrap"
	"github.com/angelmondragon/bookify-backend/pkg/outbox"
	"github.com/angelmondragon/bookify-backend/pkg/pubsub"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, "outbox-publisher")
	if err != nil {
		bootstrap.Fatal(ctx, nil, "outbox publisher boot failed", err)
	}
	logg := rt.Logger
	ctx = logg.WithField(rt.Context(ctx), "topic", rt.Config.PubSub.PaymentsTopic)

	pubsubClient, err := pubsub.NewClient(ctx, rt.Config.GCP, rt.Config.PubSub, logg)
	if err != nil {
		_ = rt.Close()
		bootstrap.Fatal(ctx, logg, "pubsub client failed", err)
	}
	rt.OnClose("pubsub", pubsubClient.Close)

	service, err := NewService(ServiceParams{
		Config:     rt.Config,
		Logger:     logg,
		DB:         rt.DB,
		PubSub:     pubsubClient,
		Repository: outbox.NewRepository(rt.DB.DB()),
		Publisher:  newGCPPublisher(pubsubClient.PaymentsPublisher()),
	})
	if err != nil {
		_ = rt.Close()
		bootstrap.Fatal(ctx, logg, "outbox publisher wiring failed", err)
	}

	logg.Info(ctx, "outbox_publisher.start")
	runErr := service.Run(ctx)
	if err := rt.Close(); err != nil {
		logg.Error(ctx, "outbox_publisher.close_failed", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		bootstrap.Fatal(ctx, logg, "outbox publisher stopped unexpectedly", runErr)
	}
	logg.Info(ctx, "outbox_publisher.stopped")
}
