package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"budgettracker/internal/amqp"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/sheets/memory"
	"budgettracker/internal/storage"
)

func newTestStore(t *testing.T) (*storage.Store, core.User) {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.Options{
		Dialect:    storage.SQLite,
		SQLitePath: filepath.Join(t.TempDir(), "budget.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	u, err := s.CreateUser(context.Background(), core.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}
	return s, u
}

func createTx(t *testing.T, s *storage.Store, userID int64, desc string) core.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), core.Transaction{
		UserID:      userID,
		Date:        core.NewDate(2024, 3, 1),
		Amount:      core.Cents(1250),
		Description: desc,
		Kind:        core.Expense,
	})
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestHandleEvent(t *testing.T) {
	s, u := newTestStore(t)
	ledger := memory.New()
	m := NewMirror(s, ledger, nil)
	ctx := context.Background()

	tx := createTx(t, s, u.ID, "Lunch")

	if err := m.HandleEvent(ctx, amqp.NewChangeEvent(amqp.TransactionCreated, tx.ID, u.ID)); err != nil {
		t.Fatal(err)
	}
	row, ok := ledger.Get(tx.ID)
	if !ok || row.Description != "Lunch" || row.Amount != core.Cents(1250) || row.UserID != u.ID {
		t.Fatalf("row = %+v, %v", row, ok)
	}

	tx.Description = "Brunch"
	if _, err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}
	if err := m.HandleEvent(ctx, amqp.NewChangeEvent(amqp.TransactionUpdated, tx.ID, u.ID)); err != nil {
		t.Fatal(err)
	}
	if row, _ := ledger.Get(tx.ID); row.Description != "Brunch" {
		t.Fatalf("row not updated: %+v", row)
	}

	if err := m.HandleEvent(ctx, amqp.NewChangeEvent(amqp.TransactionDeleted, tx.ID, u.ID)); err != nil {
		t.Fatal(err)
	}
	if _, ok := ledger.Get(tx.ID); ok {
		t.Fatal("row should be removed")
	}

	if got := m.Stats(); got.Processed != 3 || got.Failed != 0 {
		t.Fatalf("stats = %+v", got)
	}
}

func TestHandleEventMissingTransactionRemovesRow(t *testing.T) {
	s, u := newTestStore(t)
	ledger := memory.New()
	m := NewMirror(s, ledger, nil)
	ctx := context.Background()

	tx := createTx(t, s, u.ID, "Lunch")
	if err := m.HandleEvent(ctx, amqp.NewChangeEvent(amqp.TransactionCreated, tx.ID, u.ID)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTransaction(ctx, u.ID, tx.ID); err != nil {
		t.Fatal(err)
	}

	// A late update event for a row that no longer exists.
	if err := m.HandleEvent(ctx, amqp.NewChangeEvent(amqp.TransactionUpdated, tx.ID, u.ID)); err != nil {
		t.Fatal(err)
	}
	if len(ledger.Rows()) != 0 {
		t.Fatalf("rows = %+v", ledger.Rows())
	}
}

func TestHandleEventScopedByUser(t *testing.T) {
	s, u := newTestStore(t)
	ledger := memory.New()
	m := NewMirror(s, ledger, nil)

	tx := createTx(t, s, u.ID, "Lunch")
	if err := m.HandleEvent(context.Background(), amqp.NewChangeEvent(amqp.TransactionCreated, tx.ID, u.ID+100)); err != nil {
		t.Fatal(err)
	}
	if len(ledger.Rows()) != 0 {
		t.Fatal("an event naming the wrong user must not mirror the row")
	}
}

func TestHandleEventIgnoresBudgets(t *testing.T) {
	s, u := newTestStore(t)
	ledger := memory.New()
	ledger.Err = errors.New("must not be called")
	m := NewMirror(s, ledger, nil)

	if err := m.HandleEvent(context.Background(), amqp.NewChangeEvent(amqp.BudgetCreated, 1, u.ID)); err != nil {
		t.Fatal(err)
	}
	if got := m.Stats(); got.Processed != 0 {
		t.Fatalf("stats = %+v", got)
	}
}

func TestHandleEventLedgerFailure(t *testing.T) {
	s, u := newTestStore(t)
	ledger := memory.New()
	ledger.Err = errors.New("quota exceeded")
	var logs bytes.Buffer
	m := NewMirror(s, ledger, log.New(log.Config{Format: "json", Output: &logs}))

	tx := createTx(t, s, u.ID, "Lunch")
	err := m.HandleEvent(context.Background(), amqp.NewChangeEvent(amqp.TransactionCreated, tx.ID, u.ID))
	if !errors.Is(err, ledger.Err) {
		t.Fatalf("err = %v", err)
	}
	if got := m.Stats(); got.Failed != 1 {
		t.Fatalf("stats = %+v", got)
	}
	for _, want := range []string{
		`"operation":"sync"`,
		`"error_type":"internal_error"`,
		`"transaction_id":` + strconv.FormatInt(tx.ID, 10),
		`"user_id":` + strconv.FormatInt(u.ID, 10),
	} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs lack %s:\n%s", want, logs.String())
		}
	}
}

func TestHealthHandler(t *testing.T) {
	m := NewMirror(nil, memory.New(), nil)
	m.processed.Store(4)

	rec := httptest.NewRecorder()
	m.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status    string `json:"status"`
		Processed int64  `json:"processed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Processed != 4 {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

// fakeConsumer hands over a fixed list of events, then waits for cancellation.
type fakeConsumer struct {
	events []amqp.ChangeEvent
	done   chan struct{}
}

func (c *fakeConsumer) Consume(ctx context.Context, handler amqp.Handler) error {
	for _, e := range c.events {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	close(c.done)
	<-ctx.Done()
	return ctx.Err()
}

func TestWorkerRun(t *testing.T) {
	s, u := newTestStore(t)
	ledger := memory.New()
	a := createTx(t, s, u.ID, "A")
	b := createTx(t, s, u.ID, "B")

	consumer := &fakeConsumer{
		events: []amqp.ChangeEvent{
			amqp.NewChangeEvent(amqp.TransactionCreated, a.ID, u.ID),
			amqp.NewChangeEvent(amqp.BudgetCreated, 1, u.ID),
			amqp.NewChangeEvent(amqp.TransactionCreated, b.ID, u.ID),
			amqp.NewChangeEvent(amqp.TransactionDeleted, a.ID, u.ID),
		},
		done: make(chan struct{}),
	}
	w := New(consumer, NewMirror(s, ledger, nil), "127.0.0.1:0", nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	select {
	case <-consumer.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not finish")
	}
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	rows := ledger.Rows()
	if len(rows) != 1 || rows[0].ID != b.ID {
		t.Fatalf("rows = %+v", rows)
	}
}
