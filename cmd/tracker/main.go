package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/auth"
	"expensetracker/internal/backend"
	"expensetracker/internal/cache"
	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeDatabase)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	userCache := cache.NewLRUCache[core.User](1000, 5*time.Minute)
	caches := cache.NewManager()
	caches.Register(userCache)
	caches.OnClean(func(removed int) {
		logger.Debug("Cache cleanup completed", "entries_removed", removed)
	})
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiration)
	srv := apphttp.NewServer(apphttp.Options{
		Addr:               cfg.Addr(),
		Transactions:       services.NewTransactionService(res.Store, res.Publisher, logger),
		Accounts:           services.NewAuthService(res.Store, tokens, userCache, logger),
		Store:              res.Store,
		UserCache:          userCache,
		Logger:             logger,
		FrontendURL:        cfg.FrontendURL,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	})

	logger.Info("Starting expense tracker",
		"addr", cfg.Addr(),
		"backend", cfg.DataBackend,
		"events_enabled", res.Publisher != nil)

	g, gctx := errgroup.WithContext(ctx)
	cli.RunServer(gctx, g, logger, srv, 30*time.Second)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
