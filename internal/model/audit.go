package model

import (
	"encoding/json"
	"time"
)

// AuditAction tags an audit log entry.
type AuditAction string

const (
	ActionLoginSuccess   AuditAction = "LOGIN_SUCCESS"
	ActionLoginFailed    AuditAction = "LOGIN_FAILED"
	ActionLogout         AuditAction = "LOGOUT"
	ActionAccessDenied   AuditAction = "ACCESS_DENIED"
	ActionCreateUser     AuditAction = "CREATE_USER"
	ActionDeleteUser     AuditAction = "DELETE_USER"
	ActionUpdatePassword AuditAction = "UPDATE_PASSWORD"
	ActionLeadSubmitted  AuditAction = "LEAD_SUBMITTED"
	ActionUpdateLead     AuditAction = "UPDATE_LEAD"
)

type AuditLogEntry struct {
	ID        int64           `json:"id"`
	UserEmail string          `json:"user_email"`
	Action    AuditAction     `json:"action"`
	Details   json.RawMessage `json:"details"`
	IPAddress *string         `json:"ip_address"`
	CreatedAt time.Time       `json:"created_at"`
}
