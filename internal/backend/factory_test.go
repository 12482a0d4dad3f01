package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budgettracker/internal/config"
	"budgettracker/internal/services"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DBDriver:      "sqlite",
		SQLiteDBPath:  "/tmp/budget.db",
		JWTSecret:     "0123456789abcdef",
		JWTAccessTTL:  5 * time.Minute,
		JWTRefreshTTL: time.Hour,
		AMQPURL:       "amqp://localhost",
		AMQPExchange:  "budget",
		AMQPQueue:     "budget_events",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLitePath != app.SQLiteDBPath || cfg.AMQPQueue != "budget_events" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DBDriver: "mysql"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"sqlite", Config{Type: SQLiteBackend, SQLitePath: "x.db"}, ""},
		{"postgres", Config{Type: PostgresBackend, PostgresURL: "postgres://localhost/db"}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without url", Config{Type: PostgresBackend}, "Postgres URL"},
		{"bad type", Config{Type: "oracle"}, "invalid backend type"},
		{"amqp without queue", Config{Type: SQLiteBackend, SQLitePath: "x.db", AMQPURL: "amqp://h", AMQPExchange: "e"}, "AMQP exchange and queue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:          SQLiteBackend,
		SQLitePath:    filepath.Join(t.TempDir(), "budget.db"),
		JWTSecret:     "0123456789abcdef0123",
		JWTAccessTTL:  5 * time.Minute,
		JWTRefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Errorf("Cleanup: %v", err)
		}
	}()

	if res.Publisher != nil {
		t.Error("publisher must stay nil without an AMQP URL")
	}
	if res.Store.SchemaVersion() == 0 {
		t.Error("migrations were not applied")
	}

	user, err := res.Accounts.Register(ctx, services.RegisterInput{
		Username:  "alice",
		Password:  "s3cure-Passw0rd!",
		Password2: "s3cure-Passw0rd!",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := res.Budgets.Create(ctx, user.ID, services.BudgetInput{
		MonthYear: services.ScalarPtr("2024-03-01"),
		Amount:    services.ScalarPtr("100"),
	}); err != nil {
		t.Fatalf("Create budget: %v", err)
	}
	if _, err := res.Accounts.Authenticate(ctx, "alice", "s3cure-Passw0rd!"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected validation error")
	}
}
