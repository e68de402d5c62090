package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/photostream-labs/photostream-backend/internal/photos"
	"github.com/photostream-labs/photostream-backend/internal/photos/consumer"
	"github.com/photostream-labs/photostream-backend/internal/uploads"
	"github.com/photostream-labs/photostream-backend/pkg/config"
	"github.com/photostream-labs/photostream-backend/pkg/db"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
	"github.com/photostream-labs/photostream-backend/pkg/pubsub"
	"github.com/photostream-labs/photostream-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "blob-events-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "blob-events-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	feedCache := photos.NewFeedCache(redisClient, cfg.Feed.CacheTTL, logg)
	blobConsumer, err := consumer.NewBlobEventsConsumer(
		photos.NewRepository(dbClient.DB()),
		uploads.NewRepository(dbClient.DB()),
		feedCache,
		pubsubClient.BlobEventsSubscription(),
		logg,
	)
	requireResource(ctx, logg, "blob events consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{"env": cfg.App.Env})
	logg.Info(runCtx, "blob events worker ready")

	if err := blobConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "blob events worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
