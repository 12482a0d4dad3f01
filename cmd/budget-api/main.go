package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgettracker/internal/backend"
	"budgettracker/internal/cli"
	"budgettracker/internal/config"
	apphttp "budgettracker/internal/http"
	"budgettracker/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateAPI)
	logger.Info("Starting budget-api", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "driver", backendCfg.Type)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Accounts:     res.Accounts,
		Budgets:      res.Budgets,
		Transactions: res.Transactions,
		Dashboard:    res.Dashboard,
		Database:     res.Store,
	}, apphttp.Options{
		TrustedProxies: cfg.TrustedProxies,
		AuthRateLimit:  cfg.AuthRateLimitPerMinute,
	}, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "driver", backendCfg.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
