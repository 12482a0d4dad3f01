package http

import (
	"net/http"

	"budgettracker/internal/core"
	"budgettracker/internal/services"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	budgets, err := s.budgets.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetViews(budgets))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var in services.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	b, err := s.budgets.Create(r.Context(), user.ID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBudgetView(b))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	b, err := s.budgets.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetView(b))
}

// handleUpdateBudget serves PUT (full replace) and PATCH (partial update).
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in services.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	b, err := s.budgets.Update(r.Context(), user.ID, id, in, r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetView(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.budgets.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
