package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/gogo/internal/model"
)

// leadBackends runs fn against both lead store implementations.
func leadBackends(t *testing.T, fn func(t *testing.T, s LeadStore)) {
	t.Run("sql", func(t *testing.T) {
		fn(t, NewSQLLeadStore(setupTestDB(t)))
	})
	t.Run("file", func(t *testing.T) {
		fn(t, NewFileLeadStore(filepath.Join(t.TempDir(), "content", "leads.json")))
	})
}

func newTestLead(company string) *model.Lead {
	phone := "+22997000000"
	return &model.Lead{
		CompanyName: company,
		FleetSize:   "11-50",
		FuelType:    "Diesel",
		Email:       "fleet@" + company + ".test",
		Phone:       &phone,
	}
}

func TestLeadInsertAssignsDefaults(t *testing.T) {
	leadBackends(t, func(t *testing.T, s LeadStore) {
		ctx := context.Background()
		l := newTestLead("acme")
		if err := s.Insert(ctx, l); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if l.ID == "" {
			t.Error("expected generated ID")
		}
		if l.EmailStatus != model.LeadPending {
			t.Errorf("status = %q, want %q", l.EmailStatus, model.LeadPending)
		}
		if l.CreatedAt.IsZero() {
			t.Error("expected created_at")
		}

		got, err := s.Get(ctx, l.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil {
			t.Fatal("expected lead, got nil")
		}
		if got.CompanyName != "acme" {
			t.Errorf("company = %q, want acme", got.CompanyName)
		}
		if got.Phone == nil || *got.Phone != "+22997000000" {
			t.Errorf("phone = %v, want +22997000000", got.Phone)
		}
	})
}

func TestLeadInsertUniqueIDs(t *testing.T) {
	leadBackends(t, func(t *testing.T, s LeadStore) {
		ctx := context.Background()
		a, b := newTestLead("a"), newTestLead("b")
		s.Insert(ctx, a)
		s.Insert(ctx, b)
		if a.ID == b.ID {
			t.Errorf("ids collide: %q", a.ID)
		}
	})
}

func TestLeadListNewestFirst(t *testing.T) {
	leadBackends(t, func(t *testing.T, s LeadStore) {
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
		for i, name := range []string{"first", "second", "third"} {
			l := newTestLead(name)
			l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := s.Insert(ctx, l); err != nil {
				t.Fatalf("insert %s: %v", name, err)
			}
		}

		leads, err := s.List(ctx, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(leads) != 3 {
			t.Fatalf("len = %d, want 3", len(leads))
		}
		if leads[0].CompanyName != "third" {
			t.Errorf("first = %q, want third", leads[0].CompanyName)
		}
		if leads[2].CompanyName != "first" {
			t.Errorf("last = %q, want first", leads[2].CompanyName)
		}

		limited, _ := s.List(ctx, 2)
		if len(limited) != 2 {
			t.Errorf("limited len = %d, want 2", len(limited))
		}
	})
}

func TestLeadGetNotFound(t *testing.T) {
	leadBackends(t, func(t *testing.T, s LeadStore) {
		l, err := s.Get(context.Background(), "missing")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if l != nil {
			t.Error("expected nil for missing lead")
		}
	})
}

func TestLeadUpdate(t *testing.T) {
	leadBackends(t, func(t *testing.T, s LeadStore) {
		ctx := context.Background()
		l := newTestLead("acme")
		s.Insert(ctx, l)

		l.CompanyName = "Acme Logistics"
		l.EmailStatus = model.LeadContacted
		if err := s.Update(ctx, l); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, _ := s.Get(ctx, l.ID)
		if got.CompanyName != "Acme Logistics" {
			t.Errorf("company = %q, want Acme Logistics", got.CompanyName)
		}
		if got.EmailStatus != model.LeadContacted {
			t.Errorf("status = %q, want contacted", got.EmailStatus)
		}

		missing := newTestLead("ghost")
		missing.ID = "missing"
		if err := s.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("update missing: err = %v, want ErrNotFound", err)
		}
	})
}

func TestLeadUpdateEmailStatus(t *testing.T) {
	leadBackends(t, func(t *testing.T, s LeadStore) {
		ctx := context.Background()
		l := newTestLead("acme")
		s.Insert(ctx, l)

		if err := s.UpdateEmailStatus(ctx, l.ID, model.LeadError, "smtp: connection refused"); err != nil {
			t.Fatalf("update status: %v", err)
		}
		got, _ := s.Get(ctx, l.ID)
		if got.EmailStatus != model.LeadError {
			t.Errorf("status = %q, want error", got.EmailStatus)
		}
		if got.EmailError == nil || *got.EmailError != "smtp: connection refused" {
			t.Errorf("email_error = %v", got.EmailError)
		}

		if err := s.UpdateEmailStatus(ctx, "missing", model.LeadSent, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("missing: err = %v, want ErrNotFound", err)
		}
	})
}

func TestFileLeadStoreRecordShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	s := NewFileLeadStore(path)
	ctx := context.Background()

	s.Insert(ctx, newTestLead("older"))
	s.Insert(ctx, newTestLead("newer"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not a JSON array: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("len = %d, want 2", len(raw))
	}
	if raw[0]["company_name"] != "newer" {
		t.Errorf("first record = %v, want newest first", raw[0]["company_name"])
	}
	for _, key := range []string{"id", "company_name", "fleet_size", "fuel_type", "email", "phone", "email_status", "created_at"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("record missing %q", key)
		}
	}
}

func TestFileLeadStoreFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	s := NewFileLeadStore(path)

	if err := s.Insert(context.Background(), newTestLead("acme")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Errorf("mode = %v, want -rw-r--r--", got)
	}
}

func TestFileLeadStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileLeadStore(path)

	if err := s.Insert(context.Background(), newTestLead("acme")); err == nil {
		t.Fatal("expected error for corrupt file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("corrupt file should be left untouched")
	}
}
