// Package audit records security-relevant admin actions. Writes are best
// effort: a failed insert is logged and never returned to the caller.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/gogo/internal/model"
)

// Appender is the audit_logs table.
type Appender interface {
	Insert(ctx context.Context, userEmail string, action model.AuditAction, details map[string]any, ip string) error
}

type Logger struct {
	store  Appender
	logger *slog.Logger
}

// New returns a Logger. With a nil store, entries only go to the process log.
func New(store Appender, logger *slog.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

func (l *Logger) Log(ctx context.Context, userEmail string, action model.AuditAction, details map[string]any, ip string) {
	l.logger.Info("audit",
		"user_email", userEmail,
		"action", string(action),
		"details", details,
		"ip", ip,
	)
	if l.store == nil {
		return
	}

	// The triggering request may already be finishing; the write gets its
	// own short deadline detached from request cancellation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := l.store.Insert(ctx, userEmail, action, details, ip); err != nil {
		l.logger.Error("audit write failed", "action", string(action), "error", err)
	}
}
