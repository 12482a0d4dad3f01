package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgettracker/internal/auth"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/services"
)

func TestBudgetViewJSON(t *testing.T) {
	created := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	b := core.Budget{
		ID:        3,
		UserID:    9,
		MonthYear: core.NewDate(2024, 3, 1),
		Amount:    core.Cents(150000),
		CreatedAt: created,
		UpdatedAt: created,
	}

	raw, err := json.Marshal(newBudgetView(b))
	if err != nil {
		t.Fatal(err)
	}
	got := string(raw)
	for _, want := range []string{
		`"id":3`,
		`"user":9`,
		`"month_year":"2024-03-01"`,
		`"month_year_display":"March 2024"`,
		`"amount":"1500.00"`,
		`"created_at":"2024-03-02T10:00:00Z"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("%s missing %s", got, want)
		}
	}
}

func TestTransactionViewJSON(t *testing.T) {
	tx := core.Transaction{
		ID:          1,
		UserID:      2,
		Date:        core.NewDate(2024, 1, 31),
		Amount:      core.Cents(4550),
		Description: "Groceries",
		Kind:        core.Expense,
	}
	raw, err := json.Marshal(newTransactionView(tx))
	if err != nil {
		t.Fatal(err)
	}
	got := string(raw)
	for _, want := range []string{`"date":"2024-01-31"`, `"amount":"45.50"`, `"transaction_type":"expense"`} {
		if !strings.Contains(got, want) {
			t.Errorf("%s missing %s", got, want)
		}
	}
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	for name, v := range map[string]any{
		"budgets":      newBudgetViews(nil),
		"transactions": newTransactionViews(nil),
	} {
		raw, _ := json.Marshal(v)
		if string(raw) != "[]" {
			t.Errorf("%s: got %s, want []", name, raw)
		}
	}
}

func TestDashboardView(t *testing.T) {
	p := core.NewYearMonth(2024, 1)
	d := core.BuildDashboard(p, core.Money{}, []core.DailyTotal{
		{Date: core.NewDate(2024, 1, 5), Kind: core.Expense, Amount: core.Cents(4550)},
		{Date: core.NewDate(2023, 12, 24), Kind: core.Income, Amount: core.Cents(10000)},
	}, nil)

	view := newDashboardView(d)
	cur := view.CurrentMonth
	if cur.MonthName != "January 2024" || cur.RemainingBudget != core.Cents(-4550) || cur.Net != core.Cents(-4550) {
		t.Errorf("current = %+v", cur)
	}
	if view.RecentTransactions == nil || len(view.RecentTransactions) != 0 {
		t.Errorf("recent = %v", view.RecentTransactions)
	}

	want := []string{"Jan 2024", "Dec 2023", "Nov 2023", "Oct 2023", "Sep 2023", "Aug 2023"}
	if len(view.MonthlySummary) != len(want) {
		t.Fatalf("summary has %d entries", len(view.MonthlySummary))
	}
	for i, m := range view.MonthlySummary {
		if got := fmt.Sprintf("%s %d", m.MonthName, m.Year); got != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got, want[i])
		}
	}
	if dec := view.MonthlySummary[1]; dec.TotalIncome != core.Cents(10000) || dec.Net != core.Cents(10000) {
		t.Errorf("december = %+v", dec)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		msg     string
		errType string
	}{
		{"validation", services.FieldError("amount", "bad"), http.StatusBadRequest, "validation failed", log.ErrorTypeValidation},
		{"not found", fmt.Errorf("get budget: %w", core.ErrNotFound), http.StatusNotFound, msgNotFound, log.ErrorTypeNotFound},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, msgInvalidCredentials, log.ErrorTypeAuth},
		{"token", fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized, msgInvalidToken, log.ErrorTypeAuth},
		{"period", core.ErrInvalidPeriod, http.StatusBadRequest, msgInvalidPeriod, ""},
		{"request", badRequest("JSON parse error - oops"), http.StatusBadRequest, "JSON parse error - oops", ""},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, msgInternal, log.ErrorTypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := log.New(log.Config{Level: slog.LevelDebug, Output: &logs})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(log.NewContext(r.Context(), logger))
			writeServiceError(w, r, tt.err)

			if tt.errType == "" && logs.Len() != 0 {
				t.Errorf("unexpected log output %q", logs.String())
			}
			if tt.errType != "" && !strings.Contains(logs.String(), "error_type="+tt.errType) {
				t.Errorf("log %q lacks error_type=%s", logs.String(), tt.errType)
			}

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.msg {
				t.Errorf("error = %q, want %q", body.Error, tt.msg)
			}
			if strings.Contains(w.Body.String(), "disk on fire") {
				t.Error("internal error details leaked")
			}
		})
	}
}
