package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/gogo/internal/audit"
	"github.com/dukerupert/gogo/internal/auth"
	"github.com/dukerupert/gogo/internal/database"
	"github.com/dukerupert/gogo/internal/middleware"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/dukerupert/gogo/internal/ratelimit"
	"github.com/dukerupert/gogo/internal/store"
)

type stubCaptcha struct {
	ok bool
}

func (s *stubCaptcha) Verify(_ context.Context, token string) bool {
	return s.ok && token != ""
}

type testEnv struct {
	users    *store.UserStore
	audits   *store.AuditStore
	sessions *auth.Sessions
	limiter  *ratelimit.LoginLimiter
	captcha  *stubCaptcha
	mux      *http.ServeMux
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := discardLogger()
	env := &testEnv{
		users:   store.NewUserStore(db),
		audits:  store.NewAuditStore(db),
		limiter: ratelimit.NewLoginLimiter(),
		captcha: &stubCaptcha{ok: true},
	}
	env.sessions = auth.NewSessions(auth.NewIssuer("test-secret"), env.users, logger)
	auditor := audit.New(env.audits, logger)

	authH := NewAuthHandler(AuthConfig{}, env.users, env.sessions, env.limiter, env.captcha, auditor, logger)
	userH := NewUserHandler(env.users, auditor, logger)
	auditH := NewAuditHandler(env.audits, logger)

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireSession(env.sessions)(middleware.RequireAdmin(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/auth/login", authH.Login)
	mux.HandleFunc("GET /api/admin/auth", authH.Session)
	mux.HandleFunc("DELETE /api/admin/auth", authH.Logout)
	mux.Handle("GET /api/admin/users", admin(userH.List))
	mux.Handle("POST /api/admin/users", admin(userH.Create))
	mux.Handle("DELETE /api/admin/users/{id}", admin(userH.Delete))
	mux.Handle("PATCH /api/admin/users/{id}", admin(userH.UpdatePassword))
	mux.Handle("GET /api/admin/audit", admin(auditH.List))
	env.mux = mux
	return env
}

func (e *testEnv) createUser(t *testing.T, email, password string) *model.AdminUser {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := e.users.Create(context.Background(), email, hash, model.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5000"
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	w := e.do("POST", "/api/admin/auth/login", map[string]string{
		"email": email, "password": password, "captchaToken": "tok",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func auditActions(t *testing.T, e *testEnv) []model.AuditAction {
	t.Helper()
	entries, err := e.audits.List(context.Background(), 100)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	var actions []model.AuditAction
	for i := len(entries) - 1; i >= 0; i-- {
		actions = append(actions, entries[i].Action)
	}
	return actions
}
