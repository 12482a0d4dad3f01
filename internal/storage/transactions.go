package storage

import (
	"context"
	"fmt"
	"strings"

	"budgettracker/internal/core"
)

const transactionColumns = `id, user_id, date, amount_cents, description, transaction_type, created_at, updated_at`

// TransactionFilter narrows ListTransactions. Zero values mean no constraint.
// From is inclusive and To exclusive.
type TransactionFilter struct {
	Kind  core.Kind
	From  core.Date
	To    core.Date
	Limit int
}

func scanTransaction(r rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var kind string
	err := r.Scan(&t.ID, &t.UserID, &t.Date, &t.Amount.Cents, &t.Description, &kind, &t.CreatedAt, &t.UpdatedAt)
	t.Kind = core.Kind(kind)
	return t, err
}

// ListTransactions returns the user's transactions matching f, most recent first.
func (s *Store) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Kind != "" {
		where = append(where, "transaction_type = ?")
		args = append(args, string(f.Kind))
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "date < ?")
		args = append(args, f.To)
	}

	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date DESC, created_at DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.queryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID,
	))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, translate(err))
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := s.timestamp()
	t.CreatedAt, t.UpdatedAt = now, now
	err := s.queryRow(ctx,
		`INSERT INTO transactions (user_id, date, amount_cents, description, transaction_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.UserID, t.Date, t.Amount.Cents, t.Description, string(t.Kind), t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", translate(err))
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := s.exec(ctx,
		`UPDATE transactions SET date = ?, amount_cents = ?, description = ?, transaction_type = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Date, t.Amount.Cents, t.Description, string(t.Kind), s.timestamp(), t.ID, t.UserID,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return s.GetTransaction(ctx, t.UserID, t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// DailyTotals sums the user's transactions per day and kind in [from, to).
func (s *Store) DailyTotals(ctx context.Context, userID int64, from, to core.Date) ([]core.DailyTotal, error) {
	rows, err := s.query(ctx,
		`SELECT date, transaction_type, CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT)
		 FROM transactions
		 WHERE user_id = ? AND date >= ? AND date < ?
		 GROUP BY date, transaction_type
		 ORDER BY date`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}
	defer rows.Close()

	var totals []core.DailyTotal
	for rows.Next() {
		var (
			t    core.DailyTotal
			kind string
		)
		if err := rows.Scan(&t.Date, &kind, &t.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		t.Kind = core.Kind(kind)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return totals, nil
}
