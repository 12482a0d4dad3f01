package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"budgettracker/internal/backend"
	"budgettracker/internal/core"
	"budgettracker/internal/services"
)

type setBudgetCmd struct {
	user   string
	month  string
	amount string
}

func (*setBudgetCmd) Name() string     { return "setbudget" }
func (*setBudgetCmd) Synopsis() string { return "set the budget of a month" }
func (*setBudgetCmd) Usage() string {
	return `budgetctl setbudget -user <name> -month <YYYY-MM-DD> -amount <amount>

  Creates the monthly budget of a user, or updates it when one exists.
  Any day of the month may be given.
`
}

func (c *setBudgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "owner username")
	f.StringVar(&c.month, "month", "", "any date in the budget month")
	f.StringVar(&c.amount, "amount", "", "budget amount, e.g. 1500.00")
}

func (c *setBudgetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.month == "" || c.amount == "" {
		return usage("-user, -month and -amount are required")
	}

	res, _, err := openBackend(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup(res)

	user, err := lookupUser(ctx, res, c.user)
	if err != nil {
		return fail(err)
	}

	in := services.BudgetInput{
		MonthYear: services.ScalarPtr(c.month),
		Amount:    services.ScalarPtr(c.amount),
	}
	b, err := res.Budgets.Create(ctx, user.ID, in)
	if _, invalid := services.IsValidationError(err); invalid {
		// Fall back to updating the month's existing budget.
		if existing, lookupErr := findBudget(ctx, res, user.ID, c.month); lookupErr == nil {
			b, err = res.Budgets.Update(ctx, user.ID, existing, in, false)
		}
	}
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "budget %s for %s: %s\n", b.MonthYear.YearMonth().Label(), user.Username, b.Amount)
	return subcommands.ExitSuccess
}

func findBudget(ctx context.Context, res *backend.BackendResult, userID int64, month string) (int64, error) {
	d, err := core.ParseDate(month)
	if err != nil {
		return 0, err
	}
	b, err := res.Store.BudgetForMonth(ctx, userID, d.YearMonth())
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

type addTransactionCmd struct {
	user        string
	date        string
	amount      string
	kind        string
	description string
}

func (*addTransactionCmd) Name() string     { return "addtx" }
func (*addTransactionCmd) Synopsis() string { return "record an income or expense" }
func (*addTransactionCmd) Usage() string {
	return `budgetctl addtx -user <name> -amount <amount> -desc <text> [-date <YYYY-MM-DD>] [-type expense|income]

  Records a transaction. The date defaults to today and the type to expense.
`
}

func (c *addTransactionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "owner username")
	f.StringVar(&c.date, "date", "", "transaction date (defaults to today)")
	f.StringVar(&c.amount, "amount", "", "positive amount, e.g. 45.50")
	f.StringVar(&c.kind, "type", "expense", "expense or income")
	f.StringVar(&c.description, "desc", "", "description")
}

func (c *addTransactionCmd) input() services.TransactionInput {
	in := services.TransactionInput{
		Amount:      services.ScalarPtr(c.amount),
		Description: services.StringPtr(c.description),
		Kind:        services.StringPtr(c.kind),
	}
	if c.date != "" {
		in.Date = services.ScalarPtr(c.date)
	}
	return in
}

func (c *addTransactionCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.amount == "" || c.description == "" {
		return usage("-user, -amount and -desc are required")
	}

	res, _, err := openBackend(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup(res)

	user, err := lookupUser(ctx, res, c.user)
	if err != nil {
		return fail(err)
	}

	t, err := res.Transactions.Create(ctx, user.ID, c.input())
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "recorded %s %s on %s (id %d)\n", t.Kind, t.Amount, t.Date, t.ID)
	return subcommands.ExitSuccess
}
