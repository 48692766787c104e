package server

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/gogo/internal/audit"
	"github.com/dukerupert/gogo/internal/auth"
	"github.com/dukerupert/gogo/internal/config"
	"github.com/dukerupert/gogo/internal/database"
	"github.com/dukerupert/gogo/internal/handler"
	"github.com/dukerupert/gogo/internal/lead"
	"github.com/dukerupert/gogo/internal/middleware"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/dukerupert/gogo/internal/ratelimit"
	"github.com/dukerupert/gogo/internal/store"
	ws "github.com/dukerupert/gogo/internal/websocket"
)

// Deps are the externally constructed collaborators. DB may be nil, in which
// case the admin panel is disabled and only lead capture is served.
type Deps struct {
	DB         *database.DB
	Leads      store.LeadStore
	Mailer     lead.Mailer
	Captcha    lead.CaptchaVerifier
	APILimiter ratelimit.Limiter
}

type Server struct {
	cfg          *config.Config
	hub          *ws.Hub
	sessions     *auth.Sessions
	loginLimiter *ratelimit.LoginLimiter
	apiLimiter   ratelimit.Limiter
	pipeline     *lead.Pipeline
	leadH        *handler.LeadHandler
	authH        *handler.AuthHandler
	userH        *handler.UserHandler
	auditH       *handler.AuditHandler
	logger       *slog.Logger
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	// Without a database, audit entries only reach the process log.
	var auditStore *store.AuditStore
	var appender audit.Appender
	if deps.DB != nil {
		auditStore = store.NewAuditStore(deps.DB)
		appender = auditStore
	}
	auditor := audit.New(appender, logger.With("component", "audit"))

	pipeline := lead.NewPipeline(lead.Config{
		NotifyTo:       cfg.NotifyTo,
		DisableCaptcha: cfg.DisableCaptcha,
		DefaultStatus:  model.LeadStatus(cfg.LeadDefaultStatus),
	}, deps.Captcha, deps.Mailer, deps.Leads, logger.With("component", "lead"),
		lead.WithAuditor(auditor),
		lead.WithPublisher(hub),
	)

	s := &Server{
		cfg:          cfg,
		hub:          hub,
		loginLimiter: ratelimit.NewLoginLimiter(),
		apiLimiter:   deps.APILimiter,
		pipeline:     pipeline,
		leadH:        handler.NewLeadHandler(pipeline, deps.Leads, auditor, logger.With("component", "lead_handler")),
		logger:       logger,
	}

	if deps.DB != nil {
		userStore := store.NewUserStore(deps.DB)
		issuer := auth.NewIssuer(cfg.JWTSecret)
		s.sessions = auth.NewSessions(issuer, userStore, logger.With("component", "session"))
		s.authH = handler.NewAuthHandler(handler.AuthConfig{
			DisableCaptcha: cfg.DisableCaptcha,
			SecureCookies:  cfg.Production(),
		}, userStore, s.sessions, s.loginLimiter, deps.Captcha, auditor, logger.With("component", "auth"))
		s.userH = handler.NewUserHandler(userStore, auditor, logger.With("component", "users"))
		s.auditH = handler.NewAuditHandler(auditStore, logger.With("component", "audit_handler"))
	}
	return s
}

// AdminEnabled reports whether the admin panel routes are served.
func (s *Server) AdminEnabled() bool {
	return s.sessions != nil
}

// LoginLimiter returns the login limiter for cleanup tasks.
func (s *Server) LoginLimiter() *ratelimit.LoginLimiter {
	return s.loginLimiter
}

// Hub returns the websocket hub so shutdown can close live connections.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /health", handler.Health)
	outerMux.HandleFunc("GET /b2b-login", handler.B2BLogin(s.cfg.B2BPortalURL))

	// Every /api route shares the per-route limiter.
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/leads", s.leadH.Submit)
	if s.AdminEnabled() {
		s.registerAdminRoutes(apiMux)
	} else {
		s.logger.Warn("no database configured, admin panel disabled")
	}

	limit := middleware.RateLimit(s.apiLimiter, s.logger.With("component", "ratelimit"))
	outerMux.Handle("/api/", limit(apiMux))

	logged := middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
	return middleware.SecurityHeaders(logged)
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/auth/login", s.authH.Login)
	mux.HandleFunc("GET /api/admin/auth", s.authH.Session)
	mux.HandleFunc("DELETE /api/admin/auth", s.authH.Logout)

	session := middleware.RequireSession(s.sessions)
	admin := func(h http.Handler) http.Handler {
		return session(middleware.RequireAdmin(h))
	}

	mux.Handle("GET /api/admin/users", admin(http.HandlerFunc(s.userH.List)))
	mux.Handle("POST /api/admin/users", admin(http.HandlerFunc(s.userH.Create)))
	mux.Handle("DELETE /api/admin/users/{id}", admin(http.HandlerFunc(s.userH.Delete)))
	mux.Handle("PATCH /api/admin/users/{id}", admin(http.HandlerFunc(s.userH.UpdatePassword)))

	mux.Handle("GET /api/admin/leads", admin(http.HandlerFunc(s.leadH.List)))
	mux.Handle("PATCH /api/admin/leads/{id}", admin(http.HandlerFunc(s.leadH.Update)))
	mux.Handle("POST /api/admin/leads/{id}/resend", admin(http.HandlerFunc(s.leadH.Resend)))

	mux.Handle("GET /api/admin/audit", admin(http.HandlerFunc(s.auditH.List)))

	mux.Handle("GET /api/admin/ws", admin(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.cfg.WSAllowedOrigins)))
}
