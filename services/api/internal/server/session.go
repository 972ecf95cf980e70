package server

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"booktracker/internal/ratelimit"
	"booktracker/internal/util"
	"booktracker/pkg/domain"
	"booktracker/services/api/internal/app"
)

type identityHandler func(http.ResponseWriter, *http.Request, domain.Identity)

// authenticated resolves the session cookie into an identity and rejects
// anonymous callers with an empty 401 before the body is read.
func (s *Server) authenticated(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.identity(r)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		if !identity.Present {
			s.writeAppError(w, r, app.ErrUnauthorized)
			return
		}
		next(w, r, identity)
	}
}

func (s *Server) identity(r *http.Request) (domain.Identity, error) {
	token, ok := s.sessionToken(r)
	if !ok {
		return domain.Anonymous(), nil
	}
	return s.app.Authenticate(token)
}

func (s *Server) sessionToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trusted)
	ok, retryAfter := limiter.Allow(r.Context(), key)
	if ok {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retryAfter)))
	writeProblem(w, r, http.StatusTooManyRequests, "rate_limited", msg)
	return false
}

func retrySeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
