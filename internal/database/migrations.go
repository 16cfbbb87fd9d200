package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bhreads/internal/middleware"
	"bhreads/internal/models"
	"bhreads/internal/observability"

	"gorm.io/gorm"
)

var migrations = []Migration{
	{Version: 1, Name: "backfill_user_defaults", Up: backfillUserDefaults},
}

// Migrations returns the registered data migrations in version order.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// legacyUser uses pointers so NULL columns from old rows scan cleanly.
type legacyUser struct {
	ID           uint
	Username     string
	Role         *string
	Avatar       *string
	Bio          *string
	FavoriteItem *string
	LastActive   *time.Time
}

func (u legacyUser) toUser() models.User {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	user := models.User{
		ID:           u.ID,
		Username:     u.Username,
		Role:         models.Role(deref(u.Role)),
		Avatar:       deref(u.Avatar),
		Bio:          deref(u.Bio),
		FavoriteItem: deref(u.FavoriteItem),
	}
	if u.LastActive != nil {
		user.LastActive = *u.LastActive
	}
	return user
}

// backfillUserDefaults fills profile fields missing on accounts created before
// they existed. A user that cannot be updated is logged and skipped.
func backfillUserDefaults(ctx context.Context, db *gorm.DB) error {
	var candidates []legacyUser
	err := db.WithContext(ctx).
		Table("users").
		Select("id, username, role, avatar, bio, favorite_item, last_active").
		Where("role IS NULL OR role NOT IN ?", []string{
			string(models.RoleUser), string(models.RoleModerator), string(models.RoleAdmin),
		}).
		Or("avatar IS NULL OR avatar = ''").
		Or("bio IS NULL OR bio = ''").
		Or("favorite_item IS NULL OR favorite_item = ''").
		Or("last_active IS NULL").
		Order("id").
		Scan(&candidates).Error
	if err != nil {
		return fmt.Errorf("find users to backfill: %w", err)
	}

	now := time.Now()
	updated, failed := 0, 0
	for _, candidate := range candidates {
		user := candidate.toUser()
		if !user.ApplyDefaults(now) {
			continue
		}
		err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"role":          user.Role,
			"avatar":        user.Avatar,
			"bio":           user.Bio,
			"favorite_item": user.FavoriteItem,
			"last_active":   user.LastActive,
		}).Error
		if err != nil {
			failed++
			observability.MigrationBackfillFailures.Inc()
			middleware.Logger.WarnContext(ctx, "Skipping user during profile backfill",
				slog.Any("user_id", user.ID), slog.String("error", err.Error()))
			continue
		}
		updated++
	}

	middleware.Logger.InfoContext(ctx, "Profile backfill finished",
		slog.Int("candidates", len(candidates)), slog.Int("updated", updated), slog.Int("failed", failed))
	return nil
}
