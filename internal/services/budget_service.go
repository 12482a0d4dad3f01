package services

import (
	"context"
	"errors"
	"fmt"

	"budgettracker/internal/amqp"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

const msgBudgetExists = "A budget for this month already exists."

type BudgetStore interface {
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id int64) error
}

// BudgetInput is the writable part of a budget. Nil fields are missing.
type BudgetInput struct {
	MonthYear *Scalar `json:"month_year"`
	Amount    *Scalar `json:"amount"`
}

// BudgetService manages the monthly budgets of one user at a time. Every
// method takes the requesting user's id and never touches other users' rows.
type BudgetService struct {
	store  BudgetStore
	events Publisher
	logger *log.Logger
}

func NewBudgetService(store BudgetStore, events Publisher, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetService{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentBudget),
	}
}

func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

func (s *BudgetService) Get(ctx context.Context, userID, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

// Create stores a budget for the month containing in.MonthYear. The date is
// normalized to day 1.
func (s *BudgetService) Create(ctx context.Context, userID int64, in BudgetInput) (core.Budget, error) {
	b, err := applyBudget(core.Budget{UserID: userID}, in, false)
	if err != nil {
		return core.Budget{}, err
	}

	created, err := s.store.CreateBudget(ctx, b)
	if errors.Is(err, core.ErrConflict) {
		return core.Budget{}, FieldError("month_year", msgBudgetExists)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	notify(ctx, s.events, s.logger, amqp.BudgetCreated, created.ID, userID)
	return created, nil
}

// Update replaces (or with partial, patches) the user's budget id.
func (s *BudgetService) Update(ctx context.Context, userID, id int64, in BudgetInput, partial bool) (core.Budget, error) {
	current, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}
	b, err := applyBudget(current, in, partial)
	if err != nil {
		return core.Budget{}, err
	}

	updated, err := s.store.UpdateBudget(ctx, b)
	if errors.Is(err, core.ErrConflict) {
		return core.Budget{}, FieldError("month_year", msgBudgetExists)
	}
	if err != nil {
		return core.Budget{}, err
	}

	notify(ctx, s.events, s.logger, amqp.BudgetUpdated, id, userID)
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	notify(ctx, s.events, s.logger, amqp.BudgetDeleted, id, userID)
	return nil
}

func applyBudget(b core.Budget, in BudgetInput, partial bool) (core.Budget, error) {
	verr := &ValidationError{}

	switch {
	case in.MonthYear != nil:
		if d, ok := parseDate("month_year", in.MonthYear.String(), verr); ok {
			b.MonthYear = d.FirstOfMonth()
		}
	case !partial:
		verr.Add("month_year", msgRequired)
	}

	switch {
	case in.Amount != nil:
		if m, ok := parseAmount("amount", in.Amount.String(), verr); ok {
			if m.IsNegative() {
				verr.Add("amount", "Ensure this value is greater than or equal to 0.")
			}
			b.Amount = m
		}
	case !partial:
		verr.Add("amount", msgRequired)
	}

	return b, verr.OrNil()
}
