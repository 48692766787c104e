package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const postmarkAPIURL = "https://api.postmarkapp.com/email"

// PostmarkSender sends through the Postmark HTTP API.
type PostmarkSender struct {
	serverToken string
	httpClient  *http.Client
}

type Option func(*PostmarkSender)

func WithHTTPClient(c *http.Client) Option {
	return func(s *PostmarkSender) {
		s.httpClient = c
	}
}

func NewPostmarkSender(serverToken string, opts ...Option) *PostmarkSender {
	s := &PostmarkSender{
		serverToken: serverToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody,omitempty"`
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if s.serverToken == "" {
		return fmt.Errorf("postmark not configured: missing server token")
	}

	body, err := json.Marshal(postmarkEmail{
		From:     msg.From,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", postmarkAPIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", s.serverToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}
