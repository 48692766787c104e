package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/gogo/internal/auth"
	"github.com/dukerupert/gogo/internal/lead"
	"github.com/dukerupert/gogo/internal/middleware"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/dukerupert/gogo/internal/store"
)

// Submitter runs a public quote request through the lead pipeline.
type Submitter interface {
	Submit(ctx context.Context, q lead.QuoteRequest, ip string) lead.Result
	Resend(ctx context.Context, id string) (*model.Lead, error)
	Publish(action string, l *model.Lead)
}

type LeadHandler struct {
	pipeline Submitter
	leads    store.LeadStore
	audit    Auditor
	logger   *slog.Logger
}

func NewLeadHandler(pipeline Submitter, leads store.LeadStore, audit Auditor, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{pipeline: pipeline, leads: leads, audit: audit, logger: logger}
}

// Submit is the public quote form endpoint.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var q lead.QuoteRequest
	if err := decodeJSON(w, r, &q); err != nil {
		writeJSON(w, http.StatusBadRequest, lead.Result{
			Code:    lead.CodeValidationFailed,
			Message: "Invalid request body",
		})
		return
	}

	res := h.pipeline.Submit(r.Context(), q, middleware.RealIP(r))
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.List(r.Context(), 0)
	if err != nil {
		h.logger.Error("list leads", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

type leadUpdate struct {
	CompanyName *string           `json:"company_name"`
	FleetSize   *string           `json:"fleet_size"`
	FuelType    *string           `json:"fuel_type"`
	Email       *string           `json:"email"`
	Phone       *string           `json:"phone"`
	EmailStatus *model.LeadStatus `json:"email_status"`
}

// apply copies the present fields onto l.
func (u leadUpdate) apply(l *model.Lead) {
	if u.CompanyName != nil {
		l.CompanyName = strings.TrimSpace(*u.CompanyName)
	}
	if u.FleetSize != nil {
		l.FleetSize = *u.FleetSize
	}
	if u.FuelType != nil {
		l.FuelType = *u.FuelType
	}
	if u.Email != nil {
		l.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		phone := strings.TrimSpace(*u.Phone)
		l.Phone = &phone
	}
	if u.EmailStatus != nil {
		l.EmailStatus = *u.EmailStatus
	}
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req leadUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EmailStatus != nil && !req.EmailStatus.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid email_status")
		return
	}

	existing, err := h.leads.Get(ctx, id)
	if err != nil {
		h.logger.Error("get lead", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update lead")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Lead not found")
		return
	}

	req.apply(existing)
	if existing.CompanyName == "" || existing.Email == "" {
		writeError(w, http.StatusBadRequest, "company_name and email are required")
		return
	}

	if err := h.leads.Update(ctx, existing); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("update lead", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update lead")
		return
	}

	h.audit.Log(ctx, auth.Email(ctx), model.ActionUpdateLead, map[string]any{
		"lead_id":      id,
		"email_status": string(existing.EmailStatus),
	}, middleware.RealIP(r))
	h.pipeline.Publish("updated", existing)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Resend retries the notification email for a stored lead.
func (h *LeadHandler) Resend(w http.ResponseWriter, r *http.Request) {
	l, err := h.pipeline.Resend(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("resend lead notification", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to resend notification")
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "Lead not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}
