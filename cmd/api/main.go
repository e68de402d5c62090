package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/photostream-labs/photostream-backend/api/controllers"
	"github.com/photostream-labs/photostream-backend/api/routes"
	"github.com/photostream-labs/photostream-backend/internal/photos"
	"github.com/photostream-labs/photostream-backend/internal/uploads"
	"github.com/photostream-labs/photostream-backend/pkg/config"
	"github.com/photostream-labs/photostream-backend/pkg/db"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
	"github.com/photostream-labs/photostream-backend/pkg/migrate"
	"github.com/photostream-labs/photostream-backend/pkg/redis"
	"github.com/photostream-labs/photostream-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	uploadsRepo := uploads.NewRepository(dbClient.DB())
	uploadsService, err := uploads.NewService(uploadsRepo, gcsClient, cfg.GCS.BucketName, cfg.GCS.UploadURLExpiry, cfg.Uploads.MaxUploadBytes())
	if err != nil {
		logg.Error(context.Background(), "failed to create uploads service", err)
		os.Exit(1)
	}

	photosRepo := photos.NewRepository(dbClient.DB())
	feedCache := photos.NewFeedCache(redisClient, cfg.Feed.CacheTTL, logg)
	photosService, err := photos.NewService(photosRepo, uploadsRepo, gcsClient, feedCache, logg, cfg.GCS.BucketName, cfg.GCS.DownloadURLExpiry)
	if err != nil {
		logg.Error(context.Background(), "failed to create photos service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	readyDeps := controllers.ReadyDeps{
		DB:    dbClient,
		Redis: redisClient,
		Blobs: gcsClient,
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, readyDeps, uploadsService, photosService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
