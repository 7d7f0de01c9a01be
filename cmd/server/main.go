package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/smallwat3r/longerlogin/internal/app"
	"github.com/smallwat3r/longerlogin/internal/auth"
	"github.com/smallwat3r/longerlogin/internal/config"
	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/expiration"
	"github.com/smallwat3r/longerlogin/internal/logger"
	"github.com/smallwat3r/longerlogin/internal/settings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_ = logger.Init("info")
		logger.Logger().Fatal("invalid configuration", zap.Error(err))
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.WithModule("server")

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to parse redis url", zap.Error(err))
	}
	opt.PoolSize = cfg.RedisPoolSize
	opt.MinIdleConns = cfg.RedisMinIdle
	opt.DialTimeout = cfg.RedisDialTimeout
	opt.ReadTimeout = cfg.RedisReadTimeout
	opt.WriteTimeout = cfg.RedisWriteTimeout
	opt.PoolTimeout = cfg.RedisPoolTimeout

	rdb := redis.NewClient(opt)
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}

	repo := domain.NewRedisRepository(rdb)

	// admin init: declare settings before serving requests
	registry := settings.NewRegistry()
	settings.NewExpirationField(repo).Register(registry)

	resolver := expiration.NewResolver(repo)
	issuer, err := auth.NewIssuer(sessionSecret(cfg, log), repo, resolver.CookieExpiration, cfg.RequireHTTPS)
	if err != nil {
		log.Fatal("failed to set up sessions", zap.Error(err))
	}

	if cfg.AdminPasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH is not set; admin login is disabled")
	}
	handler := app.NewHandler(repo, registry, issuer, app.Credentials{
		User:         cfg.AdminUser,
		PasswordHash: cfg.AdminPasswordHash,
	})

	router := app.NewRouter(handler, app.RouterOptions{
		Security: app.SecurityHeadersConfig{
			RequireHTTPS: cfg.RequireHTTPS,
			TrustProxy:   cfg.TrustProxy,
		},
		RateLimiter: app.NewRateLimiter(rdb, app.DefaultRateLimitConfig()),
		TrustProxy:  cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// sessionSecret returns the configured cookie secret, or a random one when
// none is set. A random secret logs everyone out on restart.
func sessionSecret(cfg config.Config, log *zap.Logger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	log.Warn("SESSION_SECRET is not set; using a random secret")
	secret := make([]byte, auth.MinSecretLength)
	if _, err := rand.Read(secret); err != nil {
		log.Fatal("failed to generate session secret", zap.Error(err))
	}
	return secret
}
