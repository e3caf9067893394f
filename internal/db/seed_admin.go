package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

// EnsureAdminUser creates the bootstrap account named by ADMIN_EMAIL when it
// does not exist yet. It is a no-op unless both email and password are set.
func EnsureAdminUser(ctx context.Context, users auth.UserDirectory, hasher auth.PasswordHasher, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := auth.NormalizeEmail(cfg.AdminEmail)

	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	if v := cfg.PasswordPolicy().Violations("password", cfg.AdminPassword); len(v) > 0 {
		return fmt.Errorf("ADMIN_PASSWORD: %s", v[0].Message)
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	created, err := users.Insert(ctx, user.User{
		Email:        email,
		Username:     strings.TrimSpace(cfg.AdminUsername),
		FullName:     strings.TrimSpace(cfg.AdminFullName),
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   true,
	})
	if err != nil {
		// another instance won the race
		if errors.Is(err, user.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	log.Info("bootstrap admin created", "user_id", created.ID)
	return nil
}
