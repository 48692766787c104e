package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/gogo/internal/database"
	"github.com/dukerupert/gogo/internal/model"
)

// AuditStore is the append-only audit_logs table.
type AuditStore struct {
	db *database.DB
}

func NewAuditStore(db *database.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Insert appends an entry. The timestamp is assigned by the database.
func (s *AuditStore) Insert(ctx context.Context, userEmail string, action model.AuditAction, details map[string]any, ip string) error {
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	var ipAddr sql.NullString
	if ip != "" {
		ipAddr = sql.NullString{String: ip, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO audit_logs (user_email, action, details, ip_address) VALUES (?, ?, ?, ?)`),
		userEmail, string(action), string(raw), ipAddr,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

const (
	defaultAuditListLimit = 100
	maxAuditListLimit     = 500
)

// List returns the most recent entries, newest first. limit defaults to 100
// and is capped at 500.
func (s *AuditStore) List(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	if limit > maxAuditListLimit {
		limit = maxAuditListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT id, user_email, action, details, ip_address, created_at FROM audit_logs ORDER BY id DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditLogEntry
	for rows.Next() {
		var e model.AuditLogEntry
		var action string
		var details []byte
		var ip sql.NullString
		if err := rows.Scan(&e.ID, &e.UserEmail, &action, &details, &ip, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.Action = model.AuditAction(action)
		e.Details = json.RawMessage(details)
		if ip.Valid {
			e.IPAddress = &ip.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
