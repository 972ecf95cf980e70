package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

const (
	defaultSessionTTL        = 24 * time.Hour
	defaultQueryTimeout      = 5 * time.Second
	defaultSessionCookieName = "booktracker.sid"
	defaultLoginRateLimit    = 10
	defaultSignupRateLimit   = 5
	minSigningKeyBytes       = 32
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                     string   `yaml:"port"`
	LogLevel                 string   `yaml:"logLevel"`
	DatabaseURL              string   `yaml:"databaseURL"`
	DBMaxOpenConns           int      `yaml:"dbMaxOpenConns"`
	DBMaxIdleConns           int      `yaml:"dbMaxIdleConns"`
	RedisAddr                string   `yaml:"redisAddr"`
	RedisPassword            string   `yaml:"redisPassword"`
	SessionTTL               string   `yaml:"sessionTTL"`
	SessionCookieName        string   `yaml:"sessionCookieName"`
	SessionCookieSecure      bool     `yaml:"sessionCookieSecure"`
	SessionSigningKey        string   `yaml:"sessionSigningKey"`
	JWTIssuer                string   `yaml:"jwtIssuer"`
	JWTAudience              string   `yaml:"jwtAudience"`
	CORSAllowedOrigin        string   `yaml:"corsAllowedOrigin"`
	QueryTimeout             string   `yaml:"queryTimeout"`
	LoginRateLimitPerMinute  int      `yaml:"loginRateLimitPerMinute"`
	SignupRateLimitPerMinute int      `yaml:"signupRateLimitPerMinute"`
	TrustedProxyCIDRs        []string `yaml:"trustedProxyCidrs"`

	// Parsed from the string fields above by Load.
	SessionTTLDuration   time.Duration `yaml:"-"`
	QueryTimeoutDuration time.Duration `yaml:"-"`
}

// Load reads config from path (defaults to config.yaml), applies
// environment overrides and validates the result.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("BOOKTRACKER_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKTRACKER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("BOOKTRACKER_SESSION_TTL"); v != "" {
		cfg.SessionTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKTRACKER_SESSION_COOKIE_NAME"); v != "" {
		cfg.SessionCookieName = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKTRACKER_SESSION_COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.SessionCookieSecure = b
		}
	}
	if v := os.Getenv("BOOKTRACKER_SESSION_SIGNING_KEY"); v != "" {
		cfg.SessionSigningKey = v
	}
	if v := os.Getenv("BOOKTRACKER_CORS_ALLOWED_ORIGIN"); v != "" {
		cfg.CORSAllowedOrigin = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKTRACKER_QUERY_TIMEOUT"); v != "" {
		cfg.QueryTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKTRACKER_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("BOOKTRACKER_SIGNUP_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.SignupRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("BOOKTRACKER_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.SessionCookieName) == "" {
		cfg.SessionCookieName = defaultSessionCookieName
	}
	if cfg.LoginRateLimitPerMinute == 0 {
		cfg.LoginRateLimitPerMinute = defaultLoginRateLimit
	}
	if cfg.SignupRateLimitPerMinute == 0 {
		cfg.SignupRateLimitPerMinute = defaultSignupRateLimit
	}
}

func validateConfig(cfg *FileConfig) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required (set in config.yaml or BOOKTRACKER_PORT)")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	ttl, err := parseDuration(cfg.SessionTTL, defaultSessionTTL)
	if err != nil {
		return fmt.Errorf("config: sessionTTL is invalid: %w", err)
	}
	cfg.SessionTTLDuration = ttl
	timeout, err := parseDuration(cfg.QueryTimeout, defaultQueryTimeout)
	if err != nil {
		return fmt.Errorf("config: queryTimeout is invalid: %w", err)
	}
	cfg.QueryTimeoutDuration = timeout
	if key := cfg.SessionSigningKey; key != "" && len(key) < minSigningKeyBytes {
		return fmt.Errorf("config: sessionSigningKey must be at least %d bytes", minSigningKeyBytes)
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.SignupRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.DBMaxOpenConns < 0 || cfg.DBMaxIdleConns < 0 {
		return errors.New("config: db pool sizes must be >= 0")
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return d, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
