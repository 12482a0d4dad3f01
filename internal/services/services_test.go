package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"budgettracker/internal/amqp"
	"budgettracker/internal/auth"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/storage"
)

const testPassword = "s3cure-Passw0rd!"

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.Options{
		Dialect:    storage.SQLite,
		SQLitePath: filepath.Join(t.TempDir(), "budget.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertUser bypasses registration to keep tests fast.
func insertUser(t *testing.T, s *storage.Store, username string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "unused",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func requireFieldError(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	verr, ok := IsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error on %q, got %v", field, err)
	}
	if !verr.Has(field) {
		t.Fatalf("expected message on %q, got %v", field, verr.Fields)
	}
	return verr
}

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	if verr.OrNil() != nil {
		t.Fatal("empty error should be nil")
	}
	verr.Add("password", "too short")
	verr.Add("email", "bad")
	verr.Add("password", "too common")

	if got := verr.Error(); got != "validation failed: email: bad; password: too short too common" {
		t.Errorf("Error() = %q", got)
	}
	if _, ok := IsValidationError(errors.Join(errors.New("x"), verr.OrNil())); !ok {
		t.Error("IsValidationError should unwrap")
	}
}

func TestScalarUnmarshal(t *testing.T) {
	var in BudgetInput
	if err := jsonDecode(`{"month_year":"2024-03-15","amount":1500.5}`, &in); err != nil {
		t.Fatal(err)
	}
	if in.MonthYear.String() != "2024-03-15" || in.Amount.String() != "1500.5" {
		t.Errorf("decoded %q %q", in.MonthYear.String(), in.Amount.String())
	}

	if err := jsonDecode(`{"amount":true}`, &in); err == nil {
		t.Error("booleans should be rejected")
	}

	in = BudgetInput{}
	if err := jsonDecode(`{"amount":null}`, &in); err != nil || in.Amount != nil {
		t.Errorf("null amount: %v %v", err, in.Amount)
	}
}

func TestNotifyIgnoresPublishFailure(t *testing.T) {
	s := newTestStore(t)
	u := insertUser(t, s, "alice")
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewBudgetService(s, pub, nil)

	if _, err := svc.Create(context.Background(), u.ID, BudgetInput{
		MonthYear: ScalarPtr("2024-03-01"),
		Amount:    ScalarPtr("10"),
	}); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
	if len(pub.types()) != 1 {
		t.Fatalf("events = %v", pub.types())
	}
}

func debugLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: buf})
}

func TestNotifyLogsWrites(t *testing.T) {
	s := newTestStore(t)
	u := insertUser(t, s, "alice")
	var buf bytes.Buffer
	svc := NewBudgetService(s, &recordingPublisher{err: errors.New("broker down")}, debugLogger(&buf))

	b, err := svc.Create(context.Background(), u.ID, BudgetInput{
		MonthYear: ScalarPtr("2024-03-01"),
		Amount:    ScalarPtr("10"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(context.Background(), u.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		`"operation":"create"`,
		`"operation":"delete"`,
		`"operation":"publish"`,
		`"error_type":"network_error"`,
		`"budget_id":` + strconv.FormatInt(b.ID, 10),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("logs lack %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"transaction_id"`) {
		t.Errorf("budget write logged as transaction:\n%s", out)
	}
}

func TestWriteOp(t *testing.T) {
	tests := map[amqp.EventType]string{
		amqp.BudgetCreated:      log.OpCreate,
		amqp.TransactionUpdated: log.OpUpdate,
		amqp.TransactionDeleted: log.OpDelete,
	}
	for typ, want := range tests {
		if got := writeOp(typ); got != want {
			t.Errorf("writeOp(%s) = %s, want %s", typ, got, want)
		}
	}
}

func newTestAccounts(t *testing.T) (*AccountService, *storage.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewAccountService(s, auth.NewIssuer("0123456789abcdef0123", 5*time.Minute, 24*time.Hour), nil), s
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Password:  testPassword,
		Password2: testPassword,
		Email:     "Alice@Example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
	}
}
