package http

import (
	"net/http"

	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/services"
)

// handleListTransactions lists the user's transactions, optionally filtered
// by ?type=income|expense.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	txs, err := s.transactions.List(r.Context(), user.ID, r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionViews(txs))
}

// handleMonthlyTransactions never fails on a bad period: it answers with an
// empty list instead.
func (s *Server) handleMonthlyTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	year, month, ok := parsePathMonth(r)
	if !ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Non-numeric monthly listing period",
			log.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusOK, []transactionView{})
		return
	}

	txs, err := s.transactions.ListMonth(r.Context(), user.ID, year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionViews(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var in services.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	t, err := s.transactions.Create(r.Context(), user.ID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionView(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	t, err := s.transactions.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(t))
}

// handleUpdateTransaction serves PUT (full replace) and PATCH (partial update).
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in services.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	t, err := s.transactions.Update(r.Context(), user.ID, id, in, r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
