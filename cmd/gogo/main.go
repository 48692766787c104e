package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/gogo/internal/captcha"
	"github.com/dukerupert/gogo/internal/config"
	"github.com/dukerupert/gogo/internal/database"
	"github.com/dukerupert/gogo/internal/email"
	"github.com/dukerupert/gogo/internal/logging"
	"github.com/dukerupert/gogo/internal/ratelimit"
	"github.com/dukerupert/gogo/internal/server"
	"github.com/dukerupert/gogo/internal/store"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.UsingDevSecret() {
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	deps := server.Deps{}

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		deps.DB = db
		deps.Leads = store.NewSQLLeadStore(db)
		logger.Info("database opened", "dialect", db.Dialect)

		if err := seedAdmin(context.Background(), store.NewUserStore(db), cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
			logger.Error("seed admin user", "error", err)
			os.Exit(1)
		}
	} else {
		leads := store.NewFileLeadStore(cfg.LeadsFile)
		deps.Leads = leads
		logger.Info("no DATABASE_URL, storing leads on disk", "path", leads.Path())
	}

	mailer := newMailer(cfg, logger.With("component", "email"))
	deps.Mailer = mailer
	logger.Info("mail transport", "transport", mailer.Transport())

	verifier := captcha.NewVerifier(captcha.Config{Secret: cfg.RecaptchaSecret}, logger.With("component", "captcha"))
	if !verifier.Configured() && !cfg.DisableCaptcha {
		logger.Warn("RECAPTCHA_SECRET_KEY not set, every captcha check will fail")
	}
	deps.Captcha = verifier

	limiter, closeLimiter, err := newAPILimiter(cfg, logger.With("component", "ratelimit"))
	if err != nil {
		logger.Error("rate limiter", "error", err)
		os.Exit(1)
	}
	defer closeLimiter()
	deps.APILimiter = limiter

	srv := server.New(cfg, deps, logger)

	// Hourly cleanup of idle login limiter records
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				srv.LoginLimiter().Cleanup()
				logger.Debug("login limiter cleanup complete")
			}
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env, "admin", srv.AdminEnabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cleanupCancel()
	srv.Hub().CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// newMailer prefers SMTP when credentials are present, then Postmark, and
// otherwise logs messages instead of sending them.
func newMailer(cfg *config.Config, logger *slog.Logger) *email.Mailer {
	smtpCfg := email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
	}
	from := cfg.SMTP.From

	switch {
	case smtpCfg.Configured():
		return email.NewMailer(email.NewSMTPSender(smtpCfg), "smtp", from, logger)
	case cfg.PostmarkToken != "":
		return email.NewMailer(email.NewPostmarkSender(cfg.PostmarkToken), "postmark", from, logger)
	default:
		return email.NewMailer(nil, "", from, logger)
	}
}

// newAPILimiter returns the Redis limiter when REDIS_URL is set so that
// several instances share counters, and the in-process limiter otherwise.
func newAPILimiter(cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(cfg.Routes, logger), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Requests fail open while Redis is down, so this is not fatal.
		logger.Warn("redis unreachable at startup", "error", err)
	}
	logger.Info("using redis rate limiter", "addr", opts.Addr)
	return ratelimit.NewRedisLimiter(rdb, cfg.Routes, logger), func() { rdb.Close() }, nil
}
