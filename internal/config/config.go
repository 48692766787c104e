// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dukerupert/gogo/internal/ratelimit"
)

// DevJWTSecret signs sessions when JWT_SECRET is unset. Never use it in
// production.
const DevJWTSecret = "gogo-dev-secret-change-me"

type Config struct {
	Env       string
	Port      string
	LogLevel  string
	LogFormat string

	DatabaseURL string
	LeadsFile   string

	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	SMTP          SMTPConfig
	PostmarkToken string
	NotifyTo      string

	RecaptchaSecret string
	DisableCaptcha  bool

	LeadDefaultStatus string

	RedisURL   string
	RoutesFile string
	Routes     *ratelimit.Routes

	B2BPortalURL string
	// WSAllowedOrigins are extra Origin host patterns accepted by the
	// admin websocket.
	WSAllowedOrigins []string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Production reports whether cookies must be Secure.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// UsingDevSecret reports whether sessions are signed with DevJWTSecret.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// Load reads the environment. The caller loads any .env file first.
func Load() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		Port:      getEnv("PORT", "3000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		LeadsFile:   getEnv("LEADS_FILE", "content/leads.json"),

		JWTSecret:     getEnv("JWT_SECRET", DevJWTSecret),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
		PostmarkToken: os.Getenv("POSTMARK_TOKEN"),
		NotifyTo:      getEnv("LEADS_NOTIFY_TO", "Contact@gogofuels.com"),

		RecaptchaSecret: os.Getenv("RECAPTCHA_SECRET_KEY"),

		LeadDefaultStatus: getEnv("LEAD_DEFAULT_STATUS", "pending"),

		RedisURL:   os.Getenv("REDIS_URL"),
		RoutesFile: os.Getenv("RATE_LIMIT_ROUTES_FILE"),

		B2BPortalURL:     os.Getenv("B2B_PORTAL_URL"),
		WSAllowedOrigins: getEnvList("WS_ALLOWED_ORIGINS"),
	}

	var err error
	if cfg.SMTP.Port, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.DisableCaptcha, err = getEnvBool("DISABLE_CAPTCHA", false); err != nil {
		return nil, err
	}

	if cfg.RoutesFile != "" {
		cfg.Routes, err = ratelimit.LoadRoutes(cfg.RoutesFile)
		if err != nil {
			return nil, fmt.Errorf("load rate limit routes: %w", err)
		}
	} else {
		cfg.Routes = ratelimit.DefaultRoutes()
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}
