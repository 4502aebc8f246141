package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

// SeedDefaultUsers creates the configured admin and user accounts when they
// do not exist yet. Existing accounts are left untouched.
func SeedDefaultUsers(ctx context.Context, users repository.UserRepository, cfg config.SeedConfig, bcryptCost int, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	accounts := []struct {
		name     string
		email    string
		password string
		role     domain.Role
	}{
		{"Admin", cfg.AdminEmail, cfg.AdminPassword, domain.RoleAdmin},
		{"User", cfg.UserEmail, cfg.UserPassword, domain.RoleUser},
	}

	for _, account := range accounts {
		email := strings.ToLower(strings.TrimSpace(account.email))
		if email == "" || account.password == "" {
			continue
		}

		_, err := users.GetByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("lookup seed account %s: %w", email, err)
		}

		hash, err := auth.HashPassword(account.password, bcryptCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		user := &domain.User{Name: account.name, Email: email, PasswordHash: hash, Role: account.role}
		if err := users.Create(ctx, user); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("create seed account %s: %w", email, err)
		}
		logger.Info("seeded default account", zap.String("email", email), zap.String("role", string(account.role)))
	}
	return nil
}
