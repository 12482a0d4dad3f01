package services

import (
	"context"
	"fmt"
	"strings"

	"budgettracker/internal/amqp"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/storage"
)

type TransactionStore interface {
	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
}

// TransactionInput is the writable part of a transaction. Nil fields are missing.
type TransactionInput struct {
	Date        *Scalar `json:"date"`
	Amount      *Scalar `json:"amount"`
	Description *string `json:"description"`
	Kind        *string `json:"transaction_type"`
}

type transactionFields struct {
	Description string `json:"description" validate:"required,max=255"`
	Kind        string `json:"transaction_type" validate:"required,oneof=income expense"`
}

type TransactionService struct {
	store  TransactionStore
	events Publisher
	logger *log.Logger
	today  func() core.Date
}

func NewTransactionService(store TransactionStore, events Publisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentTransaction),
		today:  core.Today,
	}
}

// List returns the user's transactions, optionally restricted to one type.
// An unknown type matches nothing.
func (s *TransactionService) List(ctx context.Context, userID int64, kind string) ([]core.Transaction, error) {
	f := storage.TransactionFilter{}
	if kind != "" {
		k := core.Kind(kind)
		if !k.Valid() {
			return []core.Transaction{}, nil
		}
		f.Kind = k
	}
	return s.store.ListTransactions(ctx, userID, f)
}

// ListMonth returns the user's transactions dated in the given month. Out of
// range periods yield an empty list rather than an error.
func (s *TransactionService) ListMonth(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error) {
	p := core.NewYearMonth(year, month)
	if err := p.Validate(); err != nil {
		return []core.Transaction{}, nil
	}
	return s.store.ListTransactions(ctx, userID, storage.TransactionFilter{From: p.Start(), To: p.End()})
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// Create stores a transaction. A missing date means today.
func (s *TransactionService) Create(ctx context.Context, userID int64, in TransactionInput) (core.Transaction, error) {
	t, err := s.apply(core.Transaction{UserID: userID, Date: s.today()}, in, false)
	if err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	notify(ctx, s.events, s.logger, amqp.TransactionCreated, created.ID, userID)
	return created, nil
}

// Update replaces (or with partial, patches) the user's transaction id.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, in TransactionInput, partial bool) (core.Transaction, error) {
	current, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	t, err := s.apply(current, in, partial)
	if err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	notify(ctx, s.events, s.logger, amqp.TransactionUpdated, id, userID)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	notify(ctx, s.events, s.logger, amqp.TransactionDeleted, id, userID)
	return nil
}

// apply merges in onto t. The date keeps its current value when omitted;
// the other fields are required unless partial.
func (s *TransactionService) apply(t core.Transaction, in TransactionInput, partial bool) (core.Transaction, error) {
	verr := &ValidationError{}

	if in.Date != nil {
		if d, ok := parseDate("date", in.Date.String(), verr); ok {
			t.Date = d
		}
	}

	switch {
	case in.Amount != nil:
		if m, ok := parseAmount("amount", in.Amount.String(), verr); ok {
			if !m.IsPositive() {
				verr.Add("amount", "Ensure this value is greater than or equal to 0.01.")
			}
			t.Amount = m
		}
	case !partial:
		verr.Add("amount", msgRequired)
	}

	f := transactionFields{Description: t.Description, Kind: string(t.Kind)}
	switch {
	case in.Description != nil:
		f.Description = strings.TrimSpace(*in.Description)
	case !partial:
		f.Description = ""
	}
	switch {
	case in.Kind != nil:
		f.Kind = *in.Kind
	case !partial:
		f.Kind = ""
	}
	checkStruct(f, verr)

	t.Description = f.Description
	t.Kind = core.Kind(f.Kind)
	return t, verr.OrNil()
}
