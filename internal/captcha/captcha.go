// Package captcha verifies reCAPTCHA tokens server-side. Verification fails
// closed: a missing token, a missing secret or any transport error rejects.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Config holds verifier settings.
type Config struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname,omitempty"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

type Verifier struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewVerifier(cfg Config, logger *slog.Logger) *Verifier {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Verifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Configured reports whether a secret is set.
func (v *Verifier) Configured() bool {
	return v.cfg.Secret != ""
}

// Verify makes one POST to the verification endpoint. It is not retried.
func (v *Verifier) Verify(ctx context.Context, token string) bool {
	if token == "" {
		v.logger.Warn("captcha verification failed: no token provided")
		return false
	}
	if v.cfg.Secret == "" {
		v.logger.Warn("captcha verification failed: secret not configured")
		return false
	}

	ok, err := v.verify(ctx, token)
	if err != nil {
		v.logger.Error("captcha verification error", "error", err)
		return false
	}
	return ok
}

func (v *Verifier) verify(ctx context.Context, token string) (bool, error) {
	form := url.Values{}
	form.Set("secret", v.cfg.Secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, "POST", v.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verify: status %d", resp.StatusCode)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	if !vr.Success {
		v.logger.Warn("captcha verification failed", "error_codes", vr.ErrorCodes)
		return false, nil
	}
	v.logger.Debug("captcha verification passed", "hostname", vr.Hostname)
	return true, nil
}
