package main

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/anihistory/internal/anilist"
	"github.com/example/anihistory/internal/cache"
	"github.com/example/anihistory/internal/events"
	"github.com/example/anihistory/internal/handlers"
	"github.com/example/anihistory/internal/images"
	"github.com/example/anihistory/internal/platform/config"
	"github.com/example/anihistory/internal/platform/db"
	"github.com/example/anihistory/internal/platform/httpserver"
	"github.com/example/anihistory/internal/platform/logging"
	"github.com/example/anihistory/internal/platform/run"
	"github.com/example/anihistory/internal/reconcile"
	"github.com/example/anihistory/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database open", zap.Error(err))
		run.Exit(1)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		log.Error("schema migrate", zap.Error(err))
		run.Exit(1)
	}
	gateway := store.NewPostgres(pool)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		log.Error("aws config", zap.Error(err))
		run.Exit(1)
	}
	uploader := images.NewS3Uploader(s3.NewFromConfig(awsCfg), cfg.S3.Bucket)
	assets := images.URLBuilder{Base: cfg.S3.AssetBaseURL}

	materializer := images.NewMaterializer(uploader, log)
	queue := images.NewQueue(materializer, cfg.Images.Workers, cfg.Images.QueueDepth, log)

	catalog := anilist.New(cfg.AniList.URL,
		anilist.WithLogger(log),
		anilist.WithRateInterval(cfg.AniList.RequestInterval),
		anilist.WithCircuitBreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "anilist",
			Timeout: 30 * time.Second,
		})),
	)

	publisher, err := events.New(cfg.NATSURL, log)
	if err != nil {
		log.Error("nats publisher", zap.Error(err))
		run.Exit(1)
	}

	var listCache *cache.ListCache
	if cfg.RedisURL != "" {
		listCache, err = cache.New(cfg.RedisURL, cfg.CacheTTL, log)
		if err != nil {
			log.Error("redis cache", zap.Error(err))
			run.Exit(1)
		}
		defer func() { _ = listCache.Close() }()
	}

	reconciler := reconcile.New(catalog, gateway, queue, assets, log)
	syncSvc := reconcile.NewService(reconciler, log,
		reconcile.WithNotifier(publisher),
		reconcile.WithInvalidator(listCache),
	)

	r := chi.NewRouter()
	httpserver.SetupRouter(r)
	handlers.Users{
		Store:    gateway,
		Resolver: catalog,
		Sync:     syncSvc,
		Images:   queue,
		Assets:   assets,
		Cache:    listCache,
		Log:      log,
	}.Register(r)

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		srvErr := make(chan error, 1)
		go func() { srvErr <- srv.Start(log) }()

		select {
		case err := <-srvErr:
			return err
		case <-ctx.Done():
		}

		shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Warn("http server shutdown", zap.Error(err))
		}
		if err := syncSvc.Shutdown(shutCtx); err != nil {
			log.Warn("reconciliations still in flight at shutdown", zap.Error(err))
		}
		queue.Close()
		return <-srvErr
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
