package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"budgettracker/internal/core"
	"budgettracker/internal/report"
)

type summaryCmd struct {
	user  string
	year  int
	month int
	raw   bool
	style string
	width int
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the dashboard summary of a month" }
func (*summaryCmd) Usage() string {
	return `budgetctl summary -user <name> [-year <yyyy>] [-month <m>] [-raw] [-style <style>]

  Prints the budget, totals, recent transactions and six month history of
  a user, the same figures the dashboard endpoint serves. The period
  defaults to the current month.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	now := core.CurrentYearMonth()
	f.StringVar(&c.user, "user", "", "username")
	f.IntVar(&c.year, "year", now.Year, "year of the summary")
	f.IntVar(&c.month, "month", int(now.Month), "month of the summary (1-12)")
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal styling")
	f.StringVar(&c.style, "style", "", "glamour style (dark, light, notty); detected when empty")
	f.IntVar(&c.width, "width", 100, "word wrap width")
}

func (c *summaryCmd) period() (core.YearMonth, error) {
	p := core.NewYearMonth(c.year, c.month)
	if err := p.Validate(); err != nil {
		return core.YearMonth{}, fmt.Errorf("%d-%d: %w", c.year, c.month, err)
	}
	return p, nil
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return usage("-user is required")
	}
	p, err := c.period()
	if err != nil {
		return usage("%v", err)
	}

	res, cfg, err := openBackend(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup(res)

	user, err := lookupUser(ctx, res, c.user)
	if err != nil {
		return fail(err)
	}
	d, err := res.Dashboard.Summary(ctx, user.ID, p)
	if err != nil {
		return fail(err)
	}

	md, err := report.SummaryMarkdown(user, d, cfg.Currency)
	if err != nil {
		return fail(err)
	}
	if c.raw {
		fmt.Fprint(stdout, md)
		return subcommands.ExitSuccess
	}

	out, err := report.Render(md, report.RenderOptions{Style: c.style, Width: c.width})
	if err != nil {
		return fail(err)
	}
	fmt.Fprint(stdout, out)
	return subcommands.ExitSuccess
}
