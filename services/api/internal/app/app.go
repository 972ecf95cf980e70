package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"booktracker/pkg/domain"
	"booktracker/pkg/store"
)

const defaultQueryTimeout = 5 * time.Second

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	RedisAddr         string
	RedisPassword     string
	SessionTTL        time.Duration
	SessionSigningKey string
	JWTIssuer         string
	JWTAudience       string
	QueryTimeout      time.Duration
	Store             store.Store
	Sessions          store.SessionStore
}

// App is the core application service wiring together storage, sessions
// and the catalog, library, review and ranking rules.
type App struct {
	store        store.Store
	sessions     store.SessionStore
	queryTimeout time.Duration
}

// New constructs the application. A nil Store opens Postgres from
// DatabaseURL; a nil Sessions picks a session strategy from the config.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var opts []store.GormStoreOption
		if cfg.DBMaxOpenConns > 0 {
			opts = append(opts, store.WithPool(cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, 30*time.Minute))
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		var err error
		sessionStore, err = newSessionStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		store:        dataStore,
		sessions:     sessionStore,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// newSessionStore picks signed JWT sessions when a signing key is set,
// revoked through Redis when available; otherwise opaque tokens in Redis,
// or in memory for single-instance setups.
func newSessionStore(cfg Config) (store.SessionStore, error) {
	redisAddr := strings.TrimSpace(cfg.RedisAddr)
	if cfg.SessionSigningKey != "" {
		var revoker store.TokenRevoker = store.NewMemoryTokenRevoker()
		if redisAddr != "" {
			revoker = store.NewRedisTokenRevoker(redisAddr, cfg.RedisPassword, cfg.SessionTTL)
		}
		jwtStore, err := store.NewJWTSessionStore([]byte(cfg.SessionSigningKey), cfg.SessionTTL, revoker, store.JWTOptions{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		})
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
		return jwtStore, nil
	}
	if redisAddr != "" {
		return store.NewRedisSessionStore(redisAddr, cfg.RedisPassword, cfg.SessionTTL), nil
	}
	return store.NewMemorySessionStore(cfg.SessionTTL), nil
}

// query bounds a single persistence call by the configured timeout.
func (a *App) query(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.queryTimeout)
}

// requireUser is the authorization guard for identity-scoped operations.
func requireUser(identity domain.Identity) (int64, error) {
	if !identity.Present || identity.UserID <= 0 {
		return 0, ErrUnauthorized
	}
	return identity.UserID, nil
}

// Authenticate resolves a session token into an identity. Unknown or
// expired tokens yield an anonymous identity without error.
func (a *App) Authenticate(token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Anonymous(), nil
	}
	raw, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return domain.Anonymous(), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return domain.Anonymous(), nil
	}
	return domain.Authenticated(id), nil
}

// ParseID parses a path identifier, returning ErrInvalidID with msg on failure.
func ParseID(raw, msg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &InvalidIDError{Message: msg}
	}
	return id, nil
}
