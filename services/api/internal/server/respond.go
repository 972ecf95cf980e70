package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"booktracker/internal/util"
	"booktracker/pkg/store"
	"booktracker/pkg/validation"
	"booktracker/services/api/internal/app"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: util.RequestIDFromRequest(r),
	})
}

// readBody decodes a JSON object body. It writes the 400 itself and
// reports false when the body is unusable.
func readBody(w http.ResponseWriter, r *http.Request) (validation.Body, bool) {
	body, err := validation.Decode(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return nil, false
	}
	return body, true
}

// writeAppError maps application and store errors onto HTTP responses.
// Field errors and rule violations are written as a bare [{field, message}]
// list. Unexpected errors are logged and answered with a generic 500.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *app.ValidationError
	var rv *app.RuleViolation
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ve.Fields)
	case errors.As(err, &rv):
		writeJSON(w, http.StatusBadRequest, []validation.FieldError{{Field: rv.Field, Message: rv.Message}})
	case errors.Is(err, app.ErrInvalidID):
		writeProblem(w, r, http.StatusBadRequest, "invalid_id", err.Error())
	case errors.Is(err, app.ErrUnauthorized):
		s.audit(r, "guard", "fail", "reason", "no_session")
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, app.ErrInvalidCredentials):
		writeProblem(w, r, http.StatusUnauthorized, "invalid_credentials", app.ErrInvalidCredentials.Error())
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrReferenced):
		writeProblem(w, r, http.StatusConflict, "conflict", "conflict")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}
