package http

import (
	"net/http"

	"budgettracker/internal/core"
	"budgettracker/internal/log"
)

// handleDashboardSummary serves the month summary for ?year=&month=, each
// defaulting to the current date. Unlike the monthly listing, a bad period
// is a client error here.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request, user core.User) {
	params, err := ParseMonthParams(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	period, err := params.YearMonth()
	if err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard period out of range",
			log.FieldYear, params.Year,
			log.FieldMonth, params.Month)
		writeServiceError(w, r, err)
		return
	}

	d, err := s.dashboard.Summary(r.Context(), user.ID, period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardView(d))
}
