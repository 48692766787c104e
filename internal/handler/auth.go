package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/gogo/internal/auth"
	"github.com/dukerupert/gogo/internal/middleware"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/dukerupert/gogo/internal/ratelimit"
	"github.com/dukerupert/gogo/internal/store"
)

// Auditor records admin and security events.
type Auditor interface {
	Log(ctx context.Context, userEmail string, action model.AuditAction, details map[string]any, ip string)
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

// Credentials is the part of the user store the login flow reads.
type Credentials interface {
	GetByEmail(ctx context.Context, email string) (*model.AdminUser, error)
}

type AuthConfig struct {
	DisableCaptcha bool
	SecureCookies  bool
}

type AuthHandler struct {
	cfg      AuthConfig
	users    Credentials
	sessions *auth.Sessions
	limiter  *ratelimit.LoginLimiter
	captcha  CaptchaVerifier
	audit    Auditor
	logger   *slog.Logger
}

func NewAuthHandler(
	cfg AuthConfig,
	users Credentials,
	sessions *auth.Sessions,
	limiter *ratelimit.LoginLimiter,
	captcha CaptchaVerifier,
	audit Auditor,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		captcha:  captcha,
		audit:    audit,
		logger:   logger,
	}
}

type loginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captchaToken"`
}

type sessionUser struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := middleware.RealIP(r)

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	// Counted before the captcha and credential checks; both consume budget.
	if !h.limiter.Attempt(email) {
		h.audit.Log(ctx, email, model.ActionAccessDenied, map[string]any{"reason": "rate_limited"}, ip)
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again in 15 minutes.")
		return
	}

	if !h.cfg.DisableCaptcha && !h.captcha.Verify(ctx, req.CaptchaToken) {
		h.audit.Log(ctx, email, model.ActionAccessDenied, map[string]any{"reason": "invalid_captcha"}, ip)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Captcha verification failed",
			"code":  "captcha_failed",
		})
		return
	}

	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if reason := rejectReason(user, req.Password); reason != "" {
		h.audit.Log(ctx, email, model.ActionLoginFailed, map[string]any{"reason": reason}, ip)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expires, err := h.sessions.Issue(user)
	if err != nil {
		h.logger.Error("issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.limiter.Clear(email)
	h.audit.Log(ctx, user.Email, model.ActionLoginSuccess, nil, ip)

	h.setSessionCookie(w, token, expires)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    sessionUser{Email: user.Email, Role: user.Role},
	})
}

func rejectReason(user *model.AdminUser, password string) string {
	switch {
	case user == nil:
		return "user_not_found"
	case user.PasswordHash == "":
		return "password_not_set"
	case !auth.VerifyPassword(password, user.PasswordHash):
		return "invalid_password"
	}
	return ""
}

// Session reports whether the request carries a valid admin session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          sessionUser{Email: sess.Email},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := h.currentSession(r); sess != nil {
		h.audit.Log(r.Context(), sess.Email, model.ActionLogout, nil, middleware.RealIP(r))
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) currentSession(r *http.Request) *auth.Session {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return nil
	}
	return h.sessions.Verify(r.Context(), cookie.Value)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.SecureCookies,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.SecureCookies,
	})
}
