package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/dukerupert/gogo/internal/email"
	"github.com/dukerupert/gogo/internal/lead"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/dukerupert/gogo/internal/store"
)

type recordingSender struct {
	sent []email.Message
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

type leadEnv struct {
	*testEnv
	leads  *store.FileLeadStore
	sender *recordingSender
}

func setupLeadTest(t *testing.T) *leadEnv {
	t.Helper()
	env := setupHandlerTest(t)
	logger := discardLogger()

	leads := store.NewFileLeadStore(filepath.Join(t.TempDir(), "leads.json"))
	sender := &recordingSender{}
	mailer := email.NewMailer(sender, "test", "", logger)
	pipeline := lead.NewPipeline(lead.Config{}, env.captcha, mailer, leads, logger)
	h := NewLeadHandler(pipeline, leads, noopAuditor{}, logger)

	env.mux.HandleFunc("POST /api/leads", h.Submit)
	env.mux.HandleFunc("GET /test/leads", h.List)
	env.mux.HandleFunc("PATCH /test/leads/{id}", h.Update)
	env.mux.HandleFunc("POST /test/leads/{id}/resend", h.Resend)
	return &leadEnv{testEnv: env, leads: leads, sender: sender}
}

func validQuoteBody() map[string]any {
	return map[string]any{
		"companyName":  "Acme Transport",
		"industry":     "Logistics",
		"fleetSize":    "11-50",
		"productNeeds": []string{"Diesel"},
		"email":        "fleet@acme.test",
		"phone":        "+229 97 00 00 00",
		"captchaToken": "tok",
	}
}

func TestLeadSubmit(t *testing.T) {
	env := setupLeadTest(t)

	w := env.do("POST", "/api/leads", validQuoteBody(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	id, _ := body["leadId"].(string)
	if id == "" {
		t.Fatal("expected leadId")
	}

	stored, _ := env.leads.Get(t.Context(), id)
	if stored == nil {
		t.Fatal("lead not persisted")
	}
	if stored.EmailStatus != model.LeadSent {
		t.Errorf("email_status = %q, want sent", stored.EmailStatus)
	}
	if len(env.sender.sent) != 1 {
		t.Errorf("sent = %d, want 1", len(env.sender.sent))
	}
}

func TestLeadSubmitCaptchaFailed(t *testing.T) {
	env := setupLeadTest(t)
	env.captcha.ok = false

	w := env.do("POST", "/api/leads", validQuoteBody(), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false || body["code"] != lead.CodeCaptchaFailed {
		t.Errorf("body = %v", body)
	}
	if leads, _ := env.leads.List(t.Context(), 0); len(leads) != 0 {
		t.Errorf("leads = %d, want 0", len(leads))
	}
}

func TestLeadSubmitValidationFailed(t *testing.T) {
	env := setupLeadTest(t)
	body := validQuoteBody()
	body["email"] = "not-an-email"
	body["phone"] = "123"

	w := env.do("POST", "/api/leads", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["code"] != lead.CodeValidationFailed {
		t.Errorf("code = %v, want validation_failed", resp["code"])
	}
	errs, _ := resp["errors"].(map[string]any)
	if _, ok := errs["email"]; !ok {
		t.Errorf("errors = %v, want email", errs)
	}
	if _, ok := errs["phone"]; !ok {
		t.Errorf("errors = %v, want phone", errs)
	}
}

func TestLeadSubmitInvalidBody(t *testing.T) {
	env := setupLeadTest(t)

	w := env.do("POST", "/api/leads", "[1,2", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeBody(t, w)["success"]; got != false {
		t.Errorf("success = %v, want false", got)
	}
}

func TestLeadListAndUpdate(t *testing.T) {
	env := setupLeadTest(t)
	env.do("POST", "/api/leads", validQuoteBody(), nil)

	leads, _ := env.leads.List(t.Context(), 0)
	if len(leads) != 1 {
		t.Fatalf("leads = %d, want 1", len(leads))
	}
	id := leads[0].ID

	w := env.do("PATCH", "/test/leads/"+id, map[string]string{"email_status": "bogus"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status: code = %d, want 400", w.Code)
	}

	w = env.do("PATCH", "/test/leads/"+id, map[string]string{"email_status": "contacted", "company_name": "Acme Fleet"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, want 200: %s", w.Code, w.Body.String())
	}
	got, _ := env.leads.Get(t.Context(), id)
	if got.EmailStatus != model.LeadContacted {
		t.Errorf("email_status = %q, want contacted", got.EmailStatus)
	}
	if got.CompanyName != "Acme Fleet" {
		t.Errorf("company = %q, want Acme Fleet", got.CompanyName)
	}
	if got.Email != "fleet@acme.test" {
		t.Errorf("email = %q, untouched fields should survive", got.Email)
	}

	if w := env.do("PATCH", "/test/leads/missing", map[string]string{"email_status": "closed"}, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}

	w = env.do("GET", "/test/leads", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w.Code)
	}
}

func TestLeadResend(t *testing.T) {
	env := setupLeadTest(t)
	env.do("POST", "/api/leads", validQuoteBody(), nil)
	leads, _ := env.leads.List(t.Context(), 0)

	w := env.do("POST", "/test/leads/"+leads[0].ID+"/resend", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(env.sender.sent) != 2 {
		t.Errorf("sent = %d, want 2", len(env.sender.sent))
	}

	if w := env.do("POST", "/test/leads/missing/resend", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}
}
