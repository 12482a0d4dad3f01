package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"budgettracker/internal/services"
)

type createUserCmd struct {
	input services.RegisterInput
}

func (*createUserCmd) Name() string     { return "createuser" }
func (*createUserCmd) Synopsis() string { return "register a new account" }
func (*createUserCmd) Usage() string {
	return `budgetctl createuser -username <name> -email <email> -password <pw> -first <name> -last <name>

  Registers an account with the same rules as the API's registration.
`
}

func (c *createUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input.Username, "username", "", "login name")
	f.StringVar(&c.input.Email, "email", "", "email address")
	f.StringVar(&c.input.Password, "password", "", "password")
	f.StringVar(&c.input.FirstName, "first", "", "first name")
	f.StringVar(&c.input.LastName, "last", "", "last name")
}

func (c *createUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input.Username == "" || c.input.Password == "" {
		return usage("-username and -password are required")
	}
	c.input.Password2 = c.input.Password

	res, _, err := openBackend(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup(res)

	user, err := res.Accounts.Register(ctx, c.input)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "created user %s (id %d)\n", user.Username, user.ID)
	return subcommands.ExitSuccess
}
