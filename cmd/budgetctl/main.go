// Command budgetctl administers the budget tracker database from a shell.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds the budgetctl commands to c.
func register(c *subcommands.Commander) {
	c.Register(&migrateCmd{}, "database")
	c.Register(&createUserCmd{}, "accounts")
	c.Register(&setBudgetCmd{}, "ledger")
	c.Register(&addTransactionCmd{}, "ledger")
	c.Register(&summaryCmd{}, "ledger")
}
