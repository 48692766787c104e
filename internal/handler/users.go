package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/gogo/internal/auth"
	"github.com/dukerupert/gogo/internal/middleware"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/dukerupert/gogo/internal/store"
)

const minPasswordLength = 8

// UserStore is the admin user management surface of store.UserStore.
type UserStore interface {
	List(ctx context.Context) ([]model.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*model.AdminUser, error)
	GetByID(ctx context.Context, id string) (*model.AdminUser, error)
	Create(ctx context.Context, email, passwordHash, role string) (*model.AdminUser, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type UserHandler struct {
	users  UserStore
	audit  Auditor
	logger *slog.Logger
}

func NewUserHandler(users UserStore, audit Auditor, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, audit: audit, logger: logger}
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("list admin users", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	existing, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		h.logger.Error("check admin user", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	user, err := h.users.Create(ctx, email, hash, model.RoleAdmin)
	if errors.Is(err, store.ErrDuplicateEmail) {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		h.logger.Error("create admin user", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.audit.Log(ctx, auth.Email(ctx), model.ActionCreateUser, map[string]any{
		"created_user": user.Email,
	}, middleware.RealIP(r))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if id == auth.UserID(ctx) {
		writeError(w, http.StatusForbidden, "Cannot delete your own account")
		return
	}

	target, err := h.users.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("get admin user", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.users.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("delete admin user", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.audit.Log(ctx, auth.Email(ctx), model.ActionDeleteUser, map[string]any{
		"deleted_user_id": id,
		"deleted_user":    target.Email,
	}, middleware.RealIP(r))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdatePassword replaces another admin's (or one's own) password.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if err := h.users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("update password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.audit.Log(ctx, auth.Email(ctx), model.ActionUpdatePassword, map[string]any{
		"target_user_id": id,
	}, middleware.RealIP(r))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
