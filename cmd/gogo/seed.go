package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/gogo/internal/auth"
	"github.com/dukerupert/gogo/internal/model"
)

type adminSeeder interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, email, passwordHash, role string) (*model.AdminUser, error)
}

// seedAdmin creates the bootstrap admin when the table is empty and both
// credentials are configured.
func seedAdmin(ctx context.Context, users adminSeeder, email, password string, logger *slog.Logger) error {
	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if email == "" || password == "" {
		logger.Warn("no admin users exist; set ADMIN_EMAIL and ADMIN_PASSWORD to create one")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	user, err := users.Create(ctx, email, hash, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info("bootstrap admin created", "email", user.Email)
	return nil
}
