package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/gogo/internal/model"
)

// CookieName holds the signed session token.
const CookieName = "admin_session"

// UserLookup is the part of the credential store the verifier needs.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.AdminUser, error)
}

// Session is a verified admin session.
type Session struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"-"`
}

// Sessions issues tokens and verifies them against the credential store.
type Sessions struct {
	issuer *Issuer
	users  UserLookup
	logger *slog.Logger
}

func NewSessions(issuer *Issuer, users UserLookup, logger *slog.Logger) *Sessions {
	return &Sessions{issuer: issuer, users: users, logger: logger}
}

func (s *Sessions) Issue(user *model.AdminUser) (string, time.Time, error) {
	return s.issuer.Issue(user.Email, user.Role)
}

// Verify returns nil for any invalid, expired or orphaned token. Deleting a
// user revokes their live sessions on the next request.
func (s *Sessions) Verify(ctx context.Context, token string) *Session {
	if token == "" {
		return nil
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		s.logger.Debug("session token rejected", "error", err)
		return nil
	}
	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		s.logger.Error("session user lookup", "error", err)
		return nil
	}
	if user == nil {
		return nil
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return &Session{UserID: user.ID, Email: user.Email, Role: user.Role, ExpiresAt: expires}
}
