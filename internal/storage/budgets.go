package storage

import (
	"context"
	"fmt"

	"budgettracker/internal/core"
)

const budgetColumns = `id, user_id, month_year, amount_cents, created_at, updated_at`

func scanBudget(r rowScanner) (core.Budget, error) {
	var b core.Budget
	err := r.Scan(&b.ID, &b.UserID, &b.MonthYear, &b.Amount.Cents, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// ListBudgets returns the user's budgets, newest month first.
func (s *Store) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := s.query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY month_year DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(s.queryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID,
	))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, translate(err))
	}
	return b, nil
}

// BudgetForMonth returns the user's budget for the month p, or core.ErrNotFound.
func (s *Store) BudgetForMonth(ctx context.Context, userID int64, p core.YearMonth) (core.Budget, error) {
	b, err := scanBudget(s.queryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND month_year = ?`, userID, p.Start(),
	))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget for %s: %w", p, translate(err))
	}
	return b, nil
}

// CreateBudget inserts b. A second budget for the same user and month
// yields core.ErrConflict.
func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := s.timestamp()
	b.CreatedAt, b.UpdatedAt = now, now
	err := s.queryRow(ctx,
		`INSERT INTO budgets (user_id, month_year, amount_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		b.UserID, b.MonthYear, b.Amount.Cents, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", translate(err))
	}
	return b, nil
}

// UpdateBudget saves month and amount of b, matching on both id and user.
func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := s.exec(ctx,
		`UPDATE budgets SET month_year = ?, amount_cents = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		b.MonthYear, b.Amount.Cents, s.timestamp(), b.ID, b.UserID,
	)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return s.GetBudget(ctx, b.UserID, b.ID)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}
