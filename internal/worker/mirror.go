// Package worker mirrors transaction changes announced on the event bus
// into the spreadsheet ledger.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"budgettracker/internal/amqp"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/sheets"
)

type TransactionReader interface {
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
}

// Consumer delivers change events until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// Mirror applies one change event to the ledger.
type Mirror struct {
	store     TransactionReader
	ledger    sheets.Ledger
	logger    *log.Logger
	processed atomic.Int64
	failed    atomic.Int64
}

func NewMirror(store TransactionReader, ledger sheets.Ledger, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Discard()
	}
	return &Mirror{store: store, ledger: ledger, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent upserts or removes the ledger row of a transaction event.
// Budget events are acknowledged without action. A returned error makes
// the broker redeliver the event.
func (m *Mirror) HandleEvent(ctx context.Context, e amqp.ChangeEvent) error {
	if e.Entity != amqp.EntityTransaction {
		m.logger.DebugContext(ctx, "Ignoring event", log.FieldEventType, e.Type, e.IDField(), e.ID)
		return nil
	}

	if err := m.apply(ctx, e); err != nil {
		m.failed.Add(1)
		m.logger.WarnContext(ctx, "Ledger update failed, event will be redelivered",
			eventFields(e, log.OpSync).WithError(err, log.ErrorTypeInternal).ToSlice()...)
		return err
	}
	m.processed.Add(1)
	return nil
}

func (m *Mirror) apply(ctx context.Context, e amqp.ChangeEvent) error {
	if e.Type.IsDelete() {
		return m.remove(ctx, e)
	}

	tx, err := m.store.GetTransaction(ctx, e.UserID, e.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published.
		return m.remove(ctx, e)
	}
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", e.ID, err)
	}

	if err := m.ledger.Upsert(ctx, sheets.RowFromTransaction(tx)); err != nil {
		return fmt.Errorf("upsert ledger row %d: %w", e.ID, err)
	}
	m.logger.InfoContext(ctx, "Ledger row synced", eventFields(e, log.OpSync).ToSlice()...)
	return nil
}

func (m *Mirror) remove(ctx context.Context, e amqp.ChangeEvent) error {
	if err := m.ledger.Remove(ctx, e.ID); err != nil {
		return fmt.Errorf("remove ledger row %d: %w", e.ID, err)
	}
	m.logger.InfoContext(ctx, "Ledger row removed", eventFields(e, log.OpDelete).ToSlice()...)
	return nil
}

func eventFields(e amqp.ChangeEvent, op string) log.LogFields {
	f := log.NewFields().WithOperation(op).WithUser(e.UserID)
	f[log.FieldEventType] = e.Type
	f[e.IDField()] = e.ID
	return f
}

// Stats counts handled transaction events.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

func (m *Mirror) Stats() Stats {
	return Stats{Processed: m.processed.Load(), Failed: m.failed.Load()}
}

// HealthHandler reports liveness and counters.
func (m *Mirror) HealthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
			Stats
		}{"ok", m.Stats()})
	})
	return mux
}

// Worker runs the consumer and the health server side by side.
type Worker struct {
	consumer Consumer
	mirror   *Mirror
	health   *http.Server
	logger   *log.Logger
}

func New(consumer Consumer, mirror *Mirror, healthAddr string, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Discard()
	}
	return &Worker{
		consumer: consumer,
		mirror:   mirror,
		health: &http.Server{
			Addr:              healthAddr,
			Handler:           mirror.HealthHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Run blocks until ctx is cancelled or one of the parts fails.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.consumer.Consume(ctx, w.mirror.HandleEvent)
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("consume: %w", err)
	})

	g.Go(func() error {
		w.logger.Info("Health server listening", "addr", w.health.Addr)
		if err := w.health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.health.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	stats := w.mirror.Stats()
	w.logger.Info("Worker stopped", "processed", stats.Processed, "failed", stats.Failed)
	return err
}
