// Package lead runs quote submissions through captcha, validation,
// notification and persistence. Only captcha and validation can fail a
// submission; notification and persistence are best effort.
package lead

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/gogo/internal/email"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/dukerupert/gogo/internal/store"
)

const (
	CodeCaptchaFailed    = "captcha_failed"
	CodeValidationFailed = "validation_failed"
)

type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

type Mailer interface {
	Send(ctx context.Context, msg email.Message) (delivered bool, err error)
}

type Auditor interface {
	Log(ctx context.Context, userEmail string, action model.AuditAction, details map[string]any, ip string)
}

// Publisher receives lead change events for live dashboards.
type Publisher interface {
	Publish(entity, action, id string, data any)
}

type Config struct {
	NotifyTo       string
	DisableCaptcha bool
	// DefaultStatus is recorded when the notification was only logged.
	DefaultStatus model.LeadStatus
}

// Result is returned to the submitter.
type Result struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
	LeadID  string      `json:"leadId,omitempty"`

	EmailStatus model.LeadStatus `json:"-"`
	Persisted   bool             `json:"-"`
}

type Pipeline struct {
	cfg       Config
	captcha   CaptchaVerifier
	mailer    Mailer
	leads     store.LeadStore
	audit     Auditor
	events    Publisher
	validator *quoteValidator
	logger    *slog.Logger
}

type Option func(*Pipeline)

func WithAuditor(a Auditor) Option {
	return func(p *Pipeline) { p.audit = a }
}

func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.events = pub }
}

func NewPipeline(cfg Config, captcha CaptchaVerifier, mailer Mailer, leads store.LeadStore, logger *slog.Logger, opts ...Option) *Pipeline {
	if cfg.NotifyTo == "" {
		cfg.NotifyTo = "Contact@gogofuels.com"
	}
	if !cfg.DefaultStatus.Valid() {
		cfg.DefaultStatus = model.LeadPending
	}
	p := &Pipeline{
		cfg:       cfg,
		captcha:   captcha,
		mailer:    mailer,
		leads:     leads,
		validator: newQuoteValidator(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit processes one quote request from ip.
func (p *Pipeline) Submit(ctx context.Context, q QuoteRequest, ip string) Result {
	if !p.cfg.DisableCaptcha && !p.captcha.Verify(ctx, q.CaptchaToken) {
		p.logger.Warn("captcha rejected", "ip", ip)
		return Result{
			Code:    CodeCaptchaFailed,
			Message: "Captcha verification failed. Please try again.",
		}
	}

	q.Normalize()
	if errs := p.validator.Validate(&q); errs != nil {
		p.logger.Info("quote validation failed", "ip", ip, "fields", len(errs))
		return Result{
			Code:    CodeValidationFailed,
			Message: "Please correct the highlighted fields.",
			Errors:  errs,
		}
	}

	l := &model.Lead{
		CompanyName: q.CompanyName,
		FleetSize:   q.FleetSize,
		FuelType:    q.FuelSummary(),
		Email:       q.Email,
		Phone:       &q.Phone,
	}
	p.notify(ctx, l, notificationFromQuote(&q))

	res := Result{
		Success:     true,
		Message:     "Quote request submitted successfully!",
		EmailStatus: l.EmailStatus,
	}

	if err := p.leads.Insert(ctx, l); err != nil {
		p.logger.Error("lead persist failed", "company", l.CompanyName, "email_status", l.EmailStatus, "error", err)
	} else {
		res.Persisted = true
		res.LeadID = l.ID
		p.publish("created", l)
	}

	if p.audit != nil {
		p.audit.Log(ctx, q.Email, model.ActionLeadSubmitted, map[string]any{
			"lead_id":      l.ID,
			"company":      l.CompanyName,
			"email_status": string(l.EmailStatus),
			"persisted":    res.Persisted,
		}, ip)
	}
	return res
}

// Resend retries the notification for a stored lead and records the
// outcome on it. Returns nil, nil when the lead does not exist.
func (p *Pipeline) Resend(ctx context.Context, id string) (*model.Lead, error) {
	l, err := p.leads.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	if l == nil {
		return nil, nil
	}

	emailErr := p.notify(ctx, l, notificationFromLead(l))
	if err := p.leads.UpdateEmailStatus(ctx, l.ID, l.EmailStatus, emailErr); err != nil {
		return nil, fmt.Errorf("update email status: %w", err)
	}
	p.publish("updated", l)
	return l, nil
}

// Publish emits a lead event. Used by admin edits.
func (p *Pipeline) Publish(action string, l *model.Lead) {
	p.publish(action, l)
}

// notify sends the notification and sets l.EmailStatus (and EmailError) to
// reflect the outcome. It returns the transport error text, if any.
func (p *Pipeline) notify(ctx context.Context, l *model.Lead, n notification) string {
	l.EmailError = nil

	msg, err := composeNotification(n, p.cfg.NotifyTo)
	if err == nil {
		var delivered bool
		delivered, err = p.mailer.Send(ctx, msg)
		if err == nil {
			if delivered {
				l.EmailStatus = model.LeadSent
			} else {
				l.EmailStatus = p.cfg.DefaultStatus
				p.logger.Info("lead notification logged", "company", l.CompanyName, "status", l.EmailStatus)
			}
			return ""
		}
	}

	p.logger.Error("lead notification failed", "company", l.CompanyName, "error", err)
	detail := err.Error()
	l.EmailStatus = model.LeadError
	l.EmailError = &detail
	return detail
}

func (p *Pipeline) publish(action string, l *model.Lead) {
	if p.events == nil {
		return
	}
	p.events.Publish("lead", action, l.ID, l)
}
