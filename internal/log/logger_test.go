package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}).WithComponent(ComponentBudget)

	logger.Info("budget created", FieldBudgetID, int64(7))
	logger.Debug("dropped below level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry[FieldComponent] != ComponentBudget {
		t.Errorf("component = %v", entry[FieldComponent])
	}
	if entry[FieldBudgetID] != float64(7) {
		t.Errorf("budget_id = %v", entry[FieldBudgetID])
	}
	if logger.Component() != ComponentBudget {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf}).With(FieldRequestID, "req_abc")

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).InfoContext(ctx, "inside")

	if !strings.Contains(buf.String(), "request_id=req_abc") {
		t.Fatalf("request id missing from %q", buf.String())
	}
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentHTTP).
		WithOperation(OpCreate).
		WithUser(3).
		WithError(errors.New("boom"), ErrorTypeDatabase).
		WithHTTPRequest("GET", "/api/budgets", "", "", "")

	if f[FieldErrorType] != ErrorTypeDatabase || f[FieldError] != "boom" {
		t.Fatalf("error fields = %v", f)
	}
	if _, ok := f[FieldUserAgent]; ok {
		t.Fatal("empty user agent should be omitted")
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatal("ToSlice length mismatch")
	}
	if _, ok := NewFields().WithError(nil, ErrorTypeInternal)[FieldError]; ok {
		t.Fatal("nil error should add nothing")
	}
}
