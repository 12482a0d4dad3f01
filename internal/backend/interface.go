package backend

import (
	"context"
	"time"

	"budgettracker/internal/services"
	"budgettracker/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the store and the services built on it. Publisher is
// nil when no event bus is configured.
type BackendResult struct {
	Store        *storage.Store
	Publisher    services.Publisher
	Accounts     *services.AccountService
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	Cleanup      CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Database
	Type        BackendType
	SQLitePath  string
	PostgresURL string

	// Tokens. An empty secret is allowed for processes that never issue
	// or verify tokens.
	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	// Optional event bus
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names the database dialect.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Dialect maps the backend type to its storage dialect.
func (bt BackendType) Dialect() storage.Dialect {
	if bt == PostgresBackend {
		return storage.Postgres
	}
	return storage.SQLite
}
