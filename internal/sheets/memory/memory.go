// Package memory provides an in-process Ledger for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	ports "budgettracker/internal/sheets"
)

var _ ports.Ledger = (*Ledger)(nil)

type Ledger struct {
	mu   sync.Mutex
	rows map[int64]ports.LedgerRow
	// Err, when set, is returned by every call.
	Err error
}

func New() *Ledger {
	return &Ledger{rows: make(map[int64]ports.LedgerRow)}
}

func (l *Ledger) Upsert(_ context.Context, row ports.LedgerRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	l.rows[row.ID] = row
	return nil
}

func (l *Ledger) Remove(_ context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	delete(l.rows, id)
	return nil
}

// Get returns the row stored for id.
func (l *Ledger) Get(id int64) (ports.LedgerRow, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[id]
	return row, ok
}

// Rows returns a snapshot ordered by id.
func (l *Ledger) Rows() []ports.LedgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ports.LedgerRow, 0, len(l.rows))
	for _, row := range l.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
