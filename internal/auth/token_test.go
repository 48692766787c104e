package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestIssueAndParse(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := NewIssuer("test-secret", WithClock(clock.Now))

	token, expires, err := iss.Issue("admin@test.com", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := clock.t.Add(24 * time.Hour); !expires.Equal(want) {
		t.Errorf("expires = %v, want %v", expires, want)
	}

	claims, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "admin@test.com" {
		t.Errorf("email = %q, want admin@test.com", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want admin", claims.Role)
	}
	if claims.Type != TokenType {
		t.Errorf("type = %q, want %q", claims.Type, TokenType)
	}
}

func TestParseExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := NewIssuer("test-secret", WithClock(clock.Now))

	token, _, _ := iss.Issue("admin@test.com", "admin")

	clock.Advance(23 * time.Hour)
	if _, err := iss.Parse(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	clock.Advance(time.Hour + time.Second)
	if _, err := iss.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, _, _ := NewIssuer("secret-a").Issue("admin@test.com", "admin")
	if _, err := NewIssuer("secret-b").Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := NewIssuer("s").Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseWrongType(t *testing.T) {
	claims := SessionClaims{
		Email: "admin@test.com",
		Role:  "admin",
		Type:  "password_reset",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssuer("s").Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	claims := SessionClaims{
		Email: "admin@test.com",
		Type:  TokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssuer("s").Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
