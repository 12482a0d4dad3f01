package services

import (
	"context"
	"errors"
	"fmt"

	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/storage"
)

type DashboardStore interface {
	BudgetForMonth(ctx context.Context, userID int64, p core.YearMonth) (core.Budget, error)
	DailyTotals(ctx context.Context, userID int64, from, to core.Date) ([]core.DailyTotal, error)
	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
}

type DashboardService struct {
	store  DashboardStore
	logger *log.Logger
}

func NewDashboardService(store DashboardStore, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{store: store, logger: logger.WithComponent(log.ComponentDashboard)}
}

// Summary aggregates the user's month p together with the five months before
// it. It returns core.ErrInvalidPeriod when p is out of range.
func (s *DashboardService) Summary(ctx context.Context, userID int64, p core.YearMonth) (core.Dashboard, error) {
	if err := p.Validate(); err != nil {
		return core.Dashboard{}, err
	}

	var budget core.Money
	b, err := s.store.BudgetForMonth(ctx, userID, p)
	switch {
	case err == nil:
		budget = b.Amount
	case !errors.Is(err, core.ErrNotFound):
		return core.Dashboard{}, fmt.Errorf("dashboard budget: %w", err)
	}

	from, to := core.DashboardWindow(p)
	totals, err := s.store.DailyTotals(ctx, userID, from, to)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("dashboard totals: %w", err)
	}

	recent, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
		From:  p.Start(),
		To:    p.End(),
		Limit: core.RecentLimit,
	})
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("dashboard recent transactions: %w", err)
	}

	s.logger.DebugContext(ctx, "Dashboard built",
		log.FieldUserID, userID,
		log.FieldYear, p.Year,
		log.FieldMonth, int(p.Month))
	return core.BuildDashboard(p, budget, totals, recent), nil
}
