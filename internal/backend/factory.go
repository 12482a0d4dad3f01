package backend

import (
	"context"
	"errors"
	"fmt"

	"budgettracker/internal/amqp"
	"budgettracker/internal/auth"
	"budgettracker/internal/log"
	"budgettracker/internal/services"
	"budgettracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the database, connects the optional event bus and
// wires the services. A failing event bus is logged and skipped: the API
// keeps working without change events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, storage.Options{
		Dialect:     config.Type.Dialect(),
		SQLitePath:  config.SQLitePath,
		PostgresURL: config.PostgresURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", config.Type, err)
	}

	// Keep the interface nil when there is no client so services skip publishing.
	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	tokens := auth.NewIssuer(config.JWTSecret, config.JWTAccessTTL, config.JWTRefreshTTL)

	f.logger.Info("Initialized backend",
		"driver", config.Type,
		"schema_version", store.SchemaVersion(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Store:        store,
		Publisher:    publisher,
		Accounts:     services.NewAccountService(store, tokens, f.logger),
		Budgets:      services.NewBudgetService(store, publisher, f.logger),
		Transactions: services.NewTransactionService(store, publisher, f.logger),
		Dashboard:    services.NewDashboardService(store, f.logger),
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}
