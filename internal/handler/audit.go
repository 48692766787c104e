package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/gogo/internal/model"
)

type AuditLister interface {
	List(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
}

type AuditHandler struct {
	store  AuditLister
	logger *slog.Logger
}

func NewAuditHandler(s AuditLister, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{store: s, logger: logger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list audit logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}
