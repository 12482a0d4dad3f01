package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"budgettracker/internal/backend"
	"budgettracker/internal/storage"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `budgetctl migrate

  Applies every pending migration to the configured database and prints
  the resulting schema version.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, _, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fail(err)
	}

	store, err := storage.Open(ctx, storage.Options{
		Dialect:     bc.Type.Dialect(),
		SQLitePath:  bc.SQLitePath,
		PostgresURL: bc.PostgresURL,
	})
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	fmt.Fprintf(stdout, "%s schema at version %d\n", store.Dialect(), store.SchemaVersion())
	return subcommands.ExitSuccess
}
