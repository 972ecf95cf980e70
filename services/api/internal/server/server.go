package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"booktracker/internal/ratelimit"
	"booktracker/internal/util"
	"booktracker/services/api/internal/app"
)

const (
	defaultCookieName = "booktracker.sid"
	maxBodyBytes      = 1 << 20
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App               *app.App
	CookieName        string
	CookieSecure      bool
	SessionTTL        time.Duration
	CORSAllowedOrigin string
	TrustedProxies    *util.TrustedProxies
	// Limiters are optional; a nil limiter disables throttling.
	LoginLimiter  ratelimit.Limiter
	SignupLimiter ratelimit.Limiter
}

// Server exposes the book tracker HTTP API.
type Server struct {
	app           *app.App
	router        *chi.Mux
	cookieName    string
	cookieSecure  bool
	sessionTTL    time.Duration
	corsOrigin    string
	trusted       *util.TrustedProxies
	loginLimiter  ratelimit.Limiter
	signupLimiter ratelimit.Limiter
}

// Route is one registered method and path pattern.
type Route struct {
	Method string
	Path   string
}

// New constructs the server with routes configured. A nil App is accepted
// for route enumeration only.
func New(cfg Config) *Server {
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &Server{
		app:           cfg.App,
		router:        chi.NewRouter(),
		cookieName:    cookieName,
		cookieSecure:  cfg.CookieSecure,
		sessionTTL:    ttl,
		corsOrigin:    strings.TrimSpace(cfg.CORSAllowedOrigin),
		trusted:       cfg.TrustedProxies,
		loginLimiter:  cfg.LoginLimiter,
		signupLimiter: cfg.SignupLimiter,
	}
	s.routes()
	return s
}

// Router returns the configured handler wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.router
	h = util.WithCORS(s.corsOrigin)(h)
	h = util.WithSecurityHeaders(h)
	h = util.WithRequestLog("api", h)
	return util.WithRequestID(h)
}

// Routes lists every registered route.
func (s *Server) Routes() ([]Route, error) {
	var out []Route
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, Route{Method: method, Path: route})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) routes() {
	r := s.router
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	// catalog
	r.Get("/authors", s.handleListAuthors)
	r.Post("/authors", s.handleCreateAuthor)
	r.Get("/genres", s.handleListGenres)
	r.Post("/genres", s.handleCreateGenre)
	r.Get("/books", s.handleListBooks)
	r.Post("/books", s.handleCreateBook)
	r.Get("/books/{id}", s.handleGetBook)
	r.Put("/books/{id}", s.handleUpdateBook)
	r.Delete("/books/{id}", s.handleDeleteBook)

	// users & sessions
	r.Get("/users", s.authenticated(s.handleProfile))
	r.Post("/users", s.handleRegister)
	r.Put("/users", s.authenticated(s.handleUpdateProfile))
	r.Delete("/users", s.authenticated(s.handleDeleteAccount))
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	// libraries
	r.Get("/libraries", s.authenticated(s.handleListLibrary))
	r.Post("/libraries", s.authenticated(s.handleAddToLibrary))
	r.Put("/libraries/{bookId}", s.authenticated(s.handleUpdateLibraryEntry))
	r.Delete("/libraries/{bookId}", s.authenticated(s.handleRemoveFromLibrary))

	// reviews
	r.Get("/book-reviews", s.authenticated(s.handleListMyReviews))
	r.Get("/book-reviews/{bookId}", s.handleListBookReviews)
	r.Post("/book-reviews", s.authenticated(s.handleCreateReview))

	// rankings
	r.Get("/rankings", s.authenticated(s.handleListRankings))
	r.Post("/rankings", s.authenticated(s.handleCreateRanking))
	r.Get("/rankings/{rankingId}", s.authenticated(s.handleGetRanking))
	r.Put("/rankings/{rankingId}", s.authenticated(s.handleUpdateRanking))
	r.Delete("/rankings/{rankingId}", s.authenticated(s.handleDeleteRanking))
	r.Post("/rankings/records/{rankingId}", s.authenticated(s.handleAddRankingRecord))
	r.Put("/rankings/records/{rankingId}", s.authenticated(s.handleUpdateRankingRecord))
	r.Delete("/rankings/records/{rankingId}", s.authenticated(s.handleDeleteRankingRecord))

	r.Get("/statistics", s.authenticated(s.handleStatistics))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
