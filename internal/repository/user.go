package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"bhreads/internal/models"
	"bhreads/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users. Reads leave the
// password hash empty unless the method says otherwise.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetCredentials loads the user by email including the password hash.
	GetCredentials(ctx context.Context, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) error
	TouchLastActive(ctx context.Context, id uint, at time.Time) error
	UpdateRole(ctx context.Context, id uint, role models.Role) error
	RoleOf(ctx context.Context, id uint) (models.Role, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// ProfileUpdate carries the profile columns to change; nil fields are left alone.
type ProfileUpdate struct {
	Avatar       *string
	Bio          *string
	FavoriteItem *string
}

func (u ProfileUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.Avatar != nil {
		cols["avatar"] = *u.Avatar
	}
	if u.Bio != nil {
		cols["bio"] = *u.Bio
	}
	if u.FavoriteItem != nil {
		cols["favorite_item"] = *u.FavoriteItem
	}
	return cols
}

type userRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, metrics: observability.NewDatabaseMetrics("users")}
}

func withoutPassword(db *gorm.DB) *gorm.DB {
	return db.Omit("password")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer r.metrics.TrackQuery("get_by_id")()
	var user models.User
	if err := r.db.WithContext(ctx).Scopes(withoutPassword).First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Scopes(withoutPassword).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	var user models.User
	if err := r.db.WithContext(ctx).Scopes(withoutPassword).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) GetCredentials(ctx context.Context, email string) (*models.User, error) {
	defer r.metrics.TrackQuery("get_credentials")()
	email = normalizeEmail(email)
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = ? OR email = ?", strings.ToLower(strings.TrimSpace(username)), normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer r.metrics.TrackQuery("create")()
	user.Email = normalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err, "User", user.Username)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) error {
	cols := update.columns()
	if len(cols) == 0 {
		return nil
	}
	return r.updateColumns(ctx, id, cols)
}

func (r *userRepository) TouchLastActive(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{"last_active": at})
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	if !role.Valid() {
		return models.NewValidationError("Invalid role")
	}
	return r.updateColumns(ctx, id, map[string]any{"role": role})
}

// updateColumns writes only cols, so an unrelated save never touches the password hash.
func (r *userRepository) updateColumns(ctx context.Context, id uint, cols map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return translateError(result.Error, "User", id)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) RoleOf(ctx context.Context, id uint) (models.Role, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id", "role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.NewNotFoundError("User", id)
		}
		return "", models.NewInternalError(err)
	}
	return user.Role, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Scopes(withoutPassword).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
