// Package sheets mirrors transactions into a spreadsheet ledger.
package sheets

import (
	"context"
	"time"

	"budgettracker/internal/core"
)

// Header is the first row of a ledger sheet. Column A holds the transaction id.
var Header = []any{"id", "user_id", "date", "type", "amount", "description", "updated_at"}

// LedgerRow is one mirrored transaction.
type LedgerRow struct {
	ID          int64
	UserID      int64
	Date        core.Date
	Kind        core.Kind
	Amount      core.Money
	Description string
	UpdatedAt   time.Time
}

func RowFromTransaction(t core.Transaction) LedgerRow {
	return LedgerRow{
		ID:          t.ID,
		UserID:      t.UserID,
		Date:        t.Date,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Description: t.Description,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Values renders the row in Header order.
func (r LedgerRow) Values() []any {
	return []any{
		r.ID,
		r.UserID,
		r.Date.String(),
		string(r.Kind),
		r.Amount.String(),
		r.Description,
		r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Ledger is the outbound port of the mirror worker. Both operations are
// idempotent: Upsert replaces an existing row with the same id and Remove
// of an unknown id succeeds.
type Ledger interface {
	Upsert(ctx context.Context, row LedgerRow) error
	Remove(ctx context.Context, id int64) error
}
