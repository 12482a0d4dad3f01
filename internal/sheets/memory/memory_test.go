package memory

import (
	"context"
	"errors"
	"testing"

	"budgettracker/internal/core"
	ports "budgettracker/internal/sheets"
)

func TestLedgerUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	l := New()

	row := ports.LedgerRow{ID: 2, UserID: 1, Date: core.NewDate(2024, 3, 1), Kind: core.Expense, Amount: core.Cents(1250), Description: "Lunch"}
	if err := l.Upsert(ctx, row); err != nil {
		t.Fatal(err)
	}
	if err := l.Upsert(ctx, ports.LedgerRow{ID: 1, UserID: 1}); err != nil {
		t.Fatal(err)
	}

	row.Description = "Dinner"
	if err := l.Upsert(ctx, row); err != nil {
		t.Fatal(err)
	}

	rows := l.Rows()
	if len(rows) != 2 || rows[0].ID != 1 || rows[1].Description != "Dinner" {
		t.Fatalf("rows = %+v", rows)
	}

	if err := l.Remove(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := l.Remove(ctx, 99); err != nil {
		t.Fatalf("removing an unknown id should succeed: %v", err)
	}
	if _, ok := l.Get(2); ok {
		t.Fatal("row 2 should be gone")
	}
}

func TestLedgerErr(t *testing.T) {
	l := New()
	l.Err = errors.New("quota exceeded")
	if err := l.Upsert(context.Background(), ports.LedgerRow{ID: 1}); !errors.Is(err, l.Err) {
		t.Fatalf("Upsert err = %v", err)
	}
	if err := l.Remove(context.Background(), 1); !errors.Is(err, l.Err) {
		t.Fatalf("Remove err = %v", err)
	}
}
