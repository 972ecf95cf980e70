package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booktracker/internal/ratelimit"
	"booktracker/internal/util"
	"booktracker/services/api/internal/app"
	"booktracker/services/api/internal/config"
	"booktracker/services/api/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:       cfg.DatabaseURL,
		DBMaxOpenConns:    cfg.DBMaxOpenConns,
		DBMaxIdleConns:    cfg.DBMaxIdleConns,
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		SessionTTL:        cfg.SessionTTLDuration,
		SessionSigningKey: cfg.SessionSigningKey,
		JWTIssuer:         cfg.JWTIssuer,
		JWTAudience:       cfg.JWTAudience,
		QueryTimeout:      cfg.QueryTimeoutDuration,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	serverCfg := server.Config{
		App:               appCore,
		CookieName:        cfg.SessionCookieName,
		CookieSecure:      cfg.SessionCookieSecure,
		SessionTTL:        cfg.SessionTTLDuration,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustedProxies:    trusted,
	}
	if cfg.RedisAddr != "" {
		loginLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword,
			"booktracker:ratelimit:login", cfg.LoginRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init login limiter: %v", err)
		}
		defer loginLimiter.Close()
		signupLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword,
			"booktracker:ratelimit:signup", cfg.SignupRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init signup limiter: %v", err)
		}
		defer signupLimiter.Close()
		serverCfg.LoginLimiter = loginLimiter
		serverCfg.SignupLimiter = signupLimiter
	} else {
		logger.Warn("redis not configured, login and signup rate limiting disabled")
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.New(serverCfg).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
		return
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
