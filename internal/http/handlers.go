package http

import (
	"context"
	"net/http"
	"time"

	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/services"
)

// authedHandler receives the user resolved from the bearer token.
type authedHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// requireAuth resolves the access token of the request and rejects requests
// without a valid one.
func (s *Server) requireAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			writeError(w, http.StatusUnauthorized, msgNoCredentials)
			return
		}

		user, err := s.accounts.UserForToken(r.Context(), token)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, user.ID)
		next(w, r.WithContext(log.NewContext(r.Context(), logger)), user)
	})
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"database": "not_configured"}

	if s.database != nil {
		if err := s.database.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeDatabase)
			checks["database"] = "failed"
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := s.accounts.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username,
		log.FieldOperation, log.OpRegister)
	writeJSON(w, http.StatusCreated, newRegisteredView(user))
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	verr := &services.ValidationError{}
	if in.Username == "" {
		verr.Add("username", "This field is required.")
	}
	if in.Password == "" {
		verr.Add("password", "This field is required.")
	}
	if err := verr.OrNil(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := s.accounts.Authenticate(r.Context(), in.Username, in.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenView{Access: pair.Access, Refresh: pair.Refresh})
}

func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if in.Refresh == "" {
		writeServiceError(w, r, services.FieldError("refresh", "This field is required."))
		return
	}

	access, err := s.accounts.Refresh(r.Context(), in.Refresh)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenView{Access: access})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user core.User) {
	writeJSON(w, http.StatusOK, newUserView(user))
}

// handleUpdateProfile serves PUT (full replace) and PATCH (partial update).
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user core.User) {
	var in services.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	updated, err := s.accounts.UpdateProfile(r.Context(), user.ID, in, r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(updated))
}
