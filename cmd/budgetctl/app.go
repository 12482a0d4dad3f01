package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"budgettracker/internal/backend"
	"budgettracker/internal/cli"
	"budgettracker/internal/config"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

// Replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// loadConfig reads the environment like the servers do. Logs go to stderr
// so command output stays clean.
func loadConfig() (*config.Config, *log.Logger, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    stderr,
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openBackend opens the configured database with its services. Callers must
// run Cleanup.
func openBackend(ctx context.Context) (*backend.BackendResult, *config.Config, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, err
	}
	return res, cfg, nil
}

func lookupUser(ctx context.Context, res *backend.BackendResult, username string) (core.User, error) {
	user, err := res.Store.UserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("no user named %q", username)
	}
	return user, err
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

func cleanup(res *backend.BackendResult) {
	if err := res.Cleanup(); err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}
}
