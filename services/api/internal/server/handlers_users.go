package server

import (
	"errors"
	"net/http"

	"booktracker/internal/util"
	"booktracker/pkg/domain"
	"booktracker/services/api/internal/app"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		s.audit(r, "register", "rate_limited")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		s.audit(r, "register", "fail", "reason", "invalid_json")
		return
	}
	id, err := s.app.Register(r.Context(), body)
	if err != nil {
		s.audit(r, "register", "fail", "reason", failureReason(err))
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "register", "success", "user_id", id)
	writeJSON(w, http.StatusCreated, map[string]int64{"userId": id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "login", "rate_limited")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		s.audit(r, "login", "fail", "reason", "invalid_json")
		return
	}
	token, err := s.app.Login(r.Context(), body)
	if err != nil {
		s.audit(r, "login", "fail", "reason", failureReason(err))
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "login", "success")
	s.setSessionCookie(w, token)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := s.sessionToken(r)
	err := s.app.Logout(token)
	switch {
	case errors.Is(err, app.ErrNoSession):
		s.audit(r, "logout", "fail", "reason", "no_session")
		w.WriteHeader(http.StatusBadRequest)
		return
	case err != nil:
		util.LoggerFromContext(r.Context()).Error("logout failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error during logout."})
		return
	}
	s.audit(r, "logout", "success")
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	profile, err := s.app.Profile(r.Context(), identity)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.app.UpdateProfile(r.Context(), identity, body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	if err := s.app.DeleteAccount(r.Context(), identity); err != nil {
		s.audit(r, "account_delete", "fail", "reason", failureReason(err))
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "account_delete", "success", "user_id", identity.UserID)
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// failureReason classifies an error for security logs without echoing it.
func failureReason(err error) string {
	var ve *app.ValidationError
	var rv *app.RuleViolation
	switch {
	case errors.As(err, &ve):
		return "validation_failed"
	case errors.As(err, &rv):
		return "rule_violation"
	case errors.Is(err, app.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, app.ErrUnauthorized):
		return "no_session"
	default:
		return "internal"
	}
}
