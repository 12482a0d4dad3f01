// Package http exposes the budgeting API over net/http.
//
// This file builds the wire representations of domain values. Money is
// always emitted as a two-decimal string and dates as YYYY-MM-DD.

package http

import (
	"time"

	"budgettracker/internal/core"
)

type (
	userView struct {
		ID         int64     `json:"id"`
		Username   string    `json:"username"`
		Email      string    `json:"email"`
		FirstName  string    `json:"first_name"`
		LastName   string    `json:"last_name"`
		DateJoined time.Time `json:"date_joined"`
	}

	registeredView struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	budgetView struct {
		ID               int64      `json:"id"`
		User             int64      `json:"user"`
		MonthYear        core.Date  `json:"month_year"`
		MonthYearDisplay string     `json:"month_year_display"`
		Amount           core.Money `json:"amount"`
		CreatedAt        time.Time  `json:"created_at"`
		UpdatedAt        time.Time  `json:"updated_at"`
	}

	transactionView struct {
		ID          int64      `json:"id"`
		User        int64      `json:"user"`
		Date        core.Date  `json:"date"`
		Amount      core.Money `json:"amount"`
		Description string     `json:"description"`
		Kind        core.Kind  `json:"transaction_type"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
	}

	currentMonthView struct {
		Year            int        `json:"year"`
		Month           int        `json:"month"`
		MonthName       string     `json:"month_name"`
		BudgetAmount    core.Money `json:"budget_amount"`
		TotalIncome     core.Money `json:"total_income"`
		TotalExpenses   core.Money `json:"total_expenses"`
		RemainingBudget core.Money `json:"remaining_budget"`
		Net             core.Money `json:"net"`
	}

	monthSummaryView struct {
		Month         int        `json:"month"`
		Year          int        `json:"year"`
		MonthName     string     `json:"month_name"`
		TotalIncome   core.Money `json:"total_income"`
		TotalExpenses core.Money `json:"total_expenses"`
		Net           core.Money `json:"net"`
	}

	dashboardView struct {
		CurrentMonth       currentMonthView   `json:"current_month"`
		RecentTransactions []transactionView  `json:"recent_transactions"`
		MonthlySummary     []monthSummaryView `json:"monthly_summary"`
	}

	tokenView struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh,omitempty"`
	}
)

func newUserView(u core.User) userView {
	return userView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.DateJoined.UTC(),
	}
}

func newRegisteredView(u core.User) registeredView {
	return registeredView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func newBudgetView(b core.Budget) budgetView {
	return budgetView{
		ID:               b.ID,
		User:             b.UserID,
		MonthYear:        b.MonthYear,
		MonthYearDisplay: b.MonthYear.YearMonth().Label(),
		Amount:           b.Amount,
		CreatedAt:        b.CreatedAt.UTC(),
		UpdatedAt:        b.UpdatedAt.UTC(),
	}
}

func newBudgetViews(bs []core.Budget) []budgetView {
	out := make([]budgetView, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBudgetView(b))
	}
	return out
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		User:        t.UserID,
		Date:        t.Date,
		Amount:      t.Amount,
		Description: t.Description,
		Kind:        t.Kind,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func newTransactionViews(ts []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, newTransactionView(t))
	}
	return out
}

func newDashboardView(d core.Dashboard) dashboardView {
	view := dashboardView{
		CurrentMonth: currentMonthView{
			Year:            d.Period.Year,
			Month:           int(d.Period.Month),
			MonthName:       d.Period.Label(),
			BudgetAmount:    d.Budget,
			TotalIncome:     d.Current.Income,
			TotalExpenses:   d.Current.Expenses,
			RemainingBudget: d.Remaining(),
			Net:             d.Net(),
		},
		RecentTransactions: newTransactionViews(d.Recent),
		MonthlySummary:     make([]monthSummaryView, 0, len(d.History)),
	}
	for _, m := range d.History {
		view.MonthlySummary = append(view.MonthlySummary, monthSummaryView{
			Month:         int(m.Period.Month),
			Year:          m.Period.Year,
			MonthName:     m.Period.Short(),
			TotalIncome:   m.Income,
			TotalExpenses: m.Expenses,
			Net:           m.Net(),
		})
	}
	return view
}
