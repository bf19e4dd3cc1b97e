package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/visagepay/visagepay/internal/biometric"
	"github.com/visagepay/visagepay/internal/config"
	"github.com/visagepay/visagepay/internal/face"
	"github.com/visagepay/visagepay/internal/infra"
	"github.com/visagepay/visagepay/internal/logging"
	"github.com/visagepay/visagepay/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	normalizer, err := face.NewHaarNormalizer(cfg.CascadePath)
	if err != nil {
		logger.Error("load face cascade", "path", cfg.CascadePath, "error", err)
		os.Exit(1)
	}
	defer normalizer.Close()

	matcher := face.NewLBPHMatcher()

	templates, err := biometric.NewFileStore(cfg.TemplateDir)
	if err != nil {
		logger.Error("open template store", "dir", cfg.TemplateDir, "error", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, server.Deps{
		DB:         db,
		Cache:      cache,
		Logger:     logger,
		Normalizer: normalizer,
		Matcher:    matcher,
		Templates:  templates,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
