package main

import (
	"context"
	"os"
	"time"

	"budgettracker/internal/amqp"
	"budgettracker/internal/backend"
	"budgettracker/internal/cli"
	"budgettracker/internal/config"
	"budgettracker/internal/log"
	gsheet "budgettracker/internal/sheets/google"
	"budgettracker/internal/storage"
	"budgettracker/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger.Info("Starting budget-worker", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	// The worker only reads transactions; it shares the API's database.
	store, err := storage.Open(context.Background(), storage.Options{
		Dialect:     backendCfg.Type.Dialect(),
		SQLitePath:  backendCfg.SQLitePath,
		PostgresURL: backendCfg.PostgresURL,
	})
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase)
		os.Exit(1)
	}
	defer store.Close()

	ledger, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	mirror := worker.NewMirror(store, ledger, logger)
	if err := worker.New(client, mirror, ":"+cfg.WorkerPort, logger).Run(ctx); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		client.Close()
		store.Close()
		os.Exit(1)
	}

	if ctx.Err() != nil {
		<-done
	}
}
