package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sitelink-pm/sitelink/internal/app"
	permissionshttp "github.com/sitelink-pm/sitelink/internal/permissions/http"
	"github.com/sitelink-pm/sitelink/internal/platform/blob"
	"github.com/sitelink-pm/sitelink/internal/platform/cache"
	"github.com/sitelink-pm/sitelink/internal/platform/docstore"
	"github.com/sitelink-pm/sitelink/internal/projects"
	projectshttp "github.com/sitelink-pm/sitelink/internal/projects/http"
	"github.com/sitelink-pm/sitelink/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	docs, cleanup, err := openDocstore(ctx, cfg)
	if err != nil {
		logger.Error("open document store", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	blobs, err := blob.NewS3(blob.S3Config{
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
	})
	if err != nil {
		logger.Error("init blob store", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without cache", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	sweepClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sweepClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	svcCfg := projects.ServiceConfig{Sweeper: sweepClient, Logger: logger}
	if redisClient != nil {
		svcCfg.Cache = projects.NewCache(redisClient, cfg.CacheTTL)
	}
	projectService := projects.NewService(docs, blobs, svcCfg)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		ProjectsHandler:    projectshttp.NewHandler(logger, projectService),
		PermissionsHandler: permissionshttp.NewHandler(logger),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Ready: func() error {
			if redisClient == nil {
				return nil
			}
			return redisClient.Ping(ctx).Err()
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func openDocstore(ctx context.Context, cfg *app.Config) (docstore.Store, func(), error) {
	switch cfg.DocstoreDriver {
	case app.DriverMongo:
		store, err := docstore.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	case app.DriverPostgres:
		store, err := docstore.NewPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return docstore.NewMemory(), func() {}, nil
	}
}
