package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/clipit/internal/config"
	"github.com/dunamismax/clipit/internal/logging"
	"github.com/dunamismax/clipit/internal/queue"
	"github.com/dunamismax/clipit/internal/storage"
	"github.com/dunamismax/clipit/internal/store"
	"github.com/dunamismax/clipit/internal/telemetry"
	"github.com/dunamismax/clipit/internal/thumbnail"
	"github.com/dunamismax/clipit/internal/webhook"
	"github.com/dunamismax/clipit/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("component", "worker"))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, "clipit-worker", logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	defer cancelConnect()

	db, err := store.NewPostgresStore(connectCtx, cfg.Database.DSN, store.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("database close failed", zap.Error(err))
		}
	}()

	deps := worker.Deps{
		Store: db,
		Webhooks: webhook.NewClient(webhook.Config{
			SigningSecret: cfg.Webhook.SigningSecret,
			Timeout:       cfg.Webhook.Timeout,
			MaxAttempts:   cfg.Webhook.MaxAttempts,
		}),
	}

	if cfg.Storage.Enabled() {
		if err := thumbnail.Startup(); err != nil {
			return err
		}
		defer thumbnail.Shutdown()

		objects, err := storage.NewClient(storage.Config{
			Endpoint: cfg.Storage.Endpoint,
			Access:   cfg.Storage.AccessKey,
			Secret:   cfg.Storage.SecretKey,
			Bucket:   cfg.Storage.Bucket,
			UseSSL:   cfg.Storage.UseSSL,
		})
		if err != nil {
			return err
		}
		if err := objects.EnsureBucket(connectCtx); err != nil {
			return err
		}
		processor, err := thumbnail.NewProcessor(objects, objects)
		if err != nil {
			return err
		}
		deps.Thumbnails = processor
	} else {
		logger.Info("object storage not configured; thumbnail tasks will be skipped")
	}

	srv, err := worker.NewServer(logger, cfg.Queue, cfg.Worker, deps)
	if err != nil {
		return err
	}

	scheduler, err := queue.NewScheduler(cfg.Queue.RedisClientOpt(), cfg.Queue.Name, cfg.Worker.JobSweepCron)
	if err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           srv.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting worker",
		zap.Int("concurrency", cfg.Worker.Concurrency),
		zap.Int("max_active_tasks", cfg.Worker.MaxActiveTasks),
		zap.String("queue", cfg.Queue.Name),
		zap.String("redis", cfg.Queue.RedisAddr),
		zap.String("job_sweep_cron", cfg.Worker.JobSweepCron),
	)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			srv.Shutdown()
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("metrics listening", zap.String("addr", cfg.Worker.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		if scheduler != nil {
			scheduler.Shutdown()
		}
		srv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
