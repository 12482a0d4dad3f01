// Package report renders dashboard summaries as markdown for the terminal.
package report

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"

	"budgettracker/internal/core"
)

//go:embed templates/*.md
var templates embed.FS

var summaryTemplate = template.Must(template.ParseFS(templates, "templates/summary.md"))

type (
	summaryData struct {
		Period    string
		User      string
		Currency  string
		Budget    string
		Income    string
		Expenses  string
		Remaining string
		Net       string
		Recent    []transactionRow
		History   []monthRow
	}

	transactionRow struct {
		Date        string
		Kind        string
		Description string
		Amount      string
	}

	monthRow struct {
		Month    string
		Income   string
		Expenses string
		Net      string
	}
)

// FormatMoney formats m in the given ISO currency, e.g. "$1,500.00".
// Unknown currencies fall back to the plain amount followed by the code.
func FormatMoney(m core.Money, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return m.String() + " " + currency
	}
	// Money holds hundredths; go-money wants the currency's own minor unit.
	minor := m.Decimal().Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// SummaryMarkdown renders the dashboard of user as a markdown document.
func SummaryMarkdown(user core.User, d core.Dashboard, currency string) (string, error) {
	currency = strings.ToUpper(currency)
	format := func(m core.Money) string { return FormatMoney(m, currency) }

	name := user.FullName()
	if name == "" {
		name = user.Username
	}

	data := summaryData{
		Period:    d.Period.Label(),
		User:      escapeCell(name),
		Currency:  currency,
		Budget:    format(d.Budget),
		Income:    format(d.Current.Income),
		Expenses:  format(d.Current.Expenses),
		Remaining: format(d.Remaining()),
		Net:       format(d.Net()),
	}
	for _, t := range d.Recent {
		data.Recent = append(data.Recent, transactionRow{
			Date:        t.Date.String(),
			Kind:        t.Kind.String(),
			Description: escapeCell(t.Description),
			Amount:      format(t.Amount),
		})
	}
	for _, m := range d.History {
		data.History = append(data.History, monthRow{
			Month:    m.Period.Label(),
			Income:   format(m.Income),
			Expenses: format(m.Expenses),
			Net:      format(m.Net()),
		})
	}

	var b strings.Builder
	if err := summaryTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return b.String(), nil
}

// escapeCell keeps user text from breaking table rows or adding markup.
func escapeCell(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	return strings.NewReplacer(`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`").Replace(s)
}

// RenderOptions controls terminal rendering. An empty Style picks one from
// the terminal background; "notty" produces plain text.
type RenderOptions struct {
	Style string
	Width int
}

// Render formats markdown for display in a terminal.
func Render(markdown string, opts RenderOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = 100
	}

	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
