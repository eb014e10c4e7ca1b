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

	"github.com/dunamismax/clipit/internal/api"
	"github.com/dunamismax/clipit/internal/auth"
	"github.com/dunamismax/clipit/internal/config"
	"github.com/dunamismax/clipit/internal/logging"
	"github.com/dunamismax/clipit/internal/queue"
	"github.com/dunamismax/clipit/internal/ratelimit"
	"github.com/dunamismax/clipit/internal/storage"
	"github.com/dunamismax/clipit/internal/store"
	"github.com/dunamismax/clipit/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
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
	logger = logger.With(zap.String("component", "api"))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, "clipit-api", logger)
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

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.JWTExpiresIn)
	if err != nil {
		return err
	}

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close failed", zap.Error(err))
		}
	}()

	opts := api.Options{
		Store:        db,
		Tokens:       tokens,
		Queue:        queueClient,
		FrontendURL:  cfg.API.FrontendURL,
		MaxBodyBytes: cfg.API.MaxBodyBytes,
		PresignTTL:   cfg.Storage.PresignExpiry,
		BcryptCost:   cfg.Auth.BcryptCost,
	}

	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis client close failed", zap.Error(err))
			}
		}()

		limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Rate, ratelimit.DefaultKeyPrefix)
		if err != nil {
			return fmt.Errorf("create rate limiter: %w", err)
		}
		opts.RateLimiter = limiter
	}

	if cfg.Storage.Enabled() {
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
		opts.Storage = objects
	} else {
		logger.Info("object storage not configured; uploads disabled")
	}

	app, err := api.NewServer(logger, opts)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: cfg.API.ReadHeaderTimeout,
		ReadTimeout:       cfg.API.ReadTimeout,
		WriteTimeout:      cfg.API.WriteTimeout,
		IdleTimeout:       cfg.API.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.API.Addr),
			zap.Bool("rate_limit", cfg.RateLimit.Enabled),
			zap.Bool("storage", cfg.Storage.Enabled()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
