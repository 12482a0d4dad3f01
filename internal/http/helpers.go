package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgettracker/internal/auth"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/services"
)

const (
	msgNotFound           = "not found"
	msgInternal           = "internal server error"
	msgInvalidCredentials = "No active account found with the given credentials"
	msgInvalidToken       = "Token is invalid or expired"
	msgNoCredentials      = "Authentication credentials were not provided."
	msgInvalidPeriod      = "Invalid month or year"
	msgThrottled          = "Request was throttled."
)

type errorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeServiceError maps a service or storage error to its HTTP response.
// Anything unrecognised is logged and reported as a 500 without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := services.IsValidationError(err); ok {
		logRejected(r, err, log.ErrorTypeValidation)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields})
		return
	}

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, reqErr.status, reqErr.msg)
	case errors.Is(err, core.ErrNotFound):
		logRejected(r, err, log.ErrorTypeNotFound)
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, services.ErrInvalidCredentials):
		logRejected(r, err, log.ErrorTypeAuth)
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, auth.ErrInvalidToken):
		logRejected(r, err, log.ErrorTypeAuth)
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
	case errors.Is(err, core.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, msgInvalidPeriod)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeInternal,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// logRejected records a client error at debug level; the trace middleware
// already logs the status.
func logRejected(r *http.Request, err error, errorType string) {
	log.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
		log.FieldError, err,
		log.FieldErrorType, errorType,
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, msgThrottled)
}
