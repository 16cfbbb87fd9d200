// Package bootstrap wires the runtime dependencies shared by the server and
// the maintenance commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bhreads/internal/auth"
	"bhreads/internal/config"
	"bhreads/internal/database"
	"bhreads/internal/kv"
	"bhreads/internal/middleware"
	"bhreads/internal/models"
	"bhreads/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis, applies the schema when
// MIGRATE_ON_START is set and makes sure the configured admin exists.
// Redis is optional: a failed connection yields a nil client.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := database.ApplySchema(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("schema migration failed: %w", err)
		}
	}

	rdb, err := kv.Connect(ctx, cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without it",
			slog.String("error", err.Error()))
		rdb = nil
	}

	if err := EnsureAdmin(ctx, cfg, repository.NewUserRepository(db)); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	return db, rdb, nil
}

// EnsureAdmin creates the account named by ADMIN_EMAIL or promotes it when it
// already exists. ADMIN_PASSWORD may be plain text or a bcrypt hash. Nothing
// happens when ADMIN_EMAIL is empty.
func EnsureAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return nil
		}
		if err := users.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		middleware.Logger.Info("promoted configured admin", slog.String("email", email))
		return nil
	case models.AsAppError(err).Code != models.CodeNotFound:
		return err
	}

	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set when ADMIN_EMAIL is set")
	}
	hash := cfg.AdminPassword
	if !auth.IsHash(hash) {
		hash, err = auth.NewHasher(cfg.BcryptCost).Hash(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
	}

	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		username = "admin"
	}

	admin := models.NewUser(username, email, hash, time.Now())
	admin.Role = models.RoleAdmin
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	middleware.Logger.Info("created configured admin", slog.String("email", email))
	return nil
}
