// Package email delivers notification messages over SMTP or the Postmark
// API, falling back to writing the composed message to the log when no
// transport is configured.
package email

import (
	"context"
	"log/slog"
)

type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message through a concrete transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer wraps the configured transport. With no transport, Send logs the
// message and reports it as not delivered.
type Mailer struct {
	sender    Sender
	transport string
	from      string
	logger    *slog.Logger
}

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = `"GoGo Leads" <leads@gogofuels.com>`

func NewMailer(sender Sender, transport, from string, logger *slog.Logger) *Mailer {
	if from == "" {
		from = DefaultFrom
	}
	return &Mailer{sender: sender, transport: transport, from: from, logger: logger}
}

// Configured reports whether messages are actually delivered.
func (m *Mailer) Configured() bool {
	return m.sender != nil
}

// Transport names the delivery path, "log" when unconfigured.
func (m *Mailer) Transport() string {
	if m.sender == nil {
		return "log"
	}
	return m.transport
}

// Send returns delivered=false with a nil error when the message was only
// logged.
func (m *Mailer) Send(ctx context.Context, msg Message) (delivered bool, err error) {
	if msg.From == "" {
		msg.From = m.from
	}
	if m.sender == nil {
		m.logger.Warn("mail transport not configured, logging message",
			"from", msg.From,
			"to", msg.To,
			"subject", msg.Subject,
			"html", msg.HTML,
		)
		return false, nil
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return false, err
	}
	m.logger.Info("email sent", "transport", m.transport, "to", msg.To, "subject", msg.Subject)
	return true, nil
}
