package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dukerupert/gogo/internal/model"
)

func TestAuditInsertAndList(t *testing.T) {
	as := NewAuditStore(setupTestDB(t))
	ctx := context.Background()

	if err := as.Insert(ctx, "admin@test.com", model.ActionLoginFailed, map[string]any{"reason": "invalid_password"}, "10.0.0.1"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := as.Insert(ctx, "admin@test.com", model.ActionLoginSuccess, nil, ""); err != nil {
		t.Fatalf("insert: %v", err)
	}

	entries, err := as.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}

	latest := entries[0]
	if latest.Action != model.ActionLoginSuccess {
		t.Errorf("action = %q, want %q", latest.Action, model.ActionLoginSuccess)
	}
	if latest.IPAddress != nil {
		t.Errorf("ip = %v, want nil", *latest.IPAddress)
	}
	if string(latest.Details) != "{}" {
		t.Errorf("details = %s, want {}", latest.Details)
	}
	if latest.CreatedAt.IsZero() {
		t.Error("expected created_at to be set by the store")
	}

	failed := entries[1]
	if failed.IPAddress == nil || *failed.IPAddress != "10.0.0.1" {
		t.Errorf("ip = %v, want 10.0.0.1", failed.IPAddress)
	}
	var details map[string]string
	if err := json.Unmarshal(failed.Details, &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	if details["reason"] != "invalid_password" {
		t.Errorf("reason = %q, want invalid_password", details["reason"])
	}
}

func TestAuditListLimit(t *testing.T) {
	as := NewAuditStore(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		as.Insert(ctx, "admin@test.com", model.ActionLogout, nil, "")
	}

	entries, err := as.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len = %d, want 3", len(entries))
	}
}

func TestAuditListLimitBounds(t *testing.T) {
	as := NewAuditStore(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 505; i++ {
		if err := as.Insert(ctx, "admin@test.com", model.ActionLoginSuccess, nil, ""); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, 100},
		{-1, 100},
		{500, 500},
		{1000, 500},
	}
	for _, tt := range tests {
		entries, err := as.List(ctx, tt.limit)
		if err != nil {
			t.Fatalf("list(%d): %v", tt.limit, err)
		}
		if len(entries) != tt.want {
			t.Errorf("list(%d) len = %d, want %d", tt.limit, len(entries), tt.want)
		}
	}
}
