package service

import (
	"context"
	"strings"

	"bhreads/internal/models"
	"bhreads/internal/observability"
	"bhreads/internal/repository"
	"bhreads/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

// UpdateProfileInput carries profile edits. Empty fields are left unchanged.
type UpdateProfileInput struct {
	Avatar       string `json:"avatar" validate:"max=2048"`
	Bio          string `json:"bio" validate:"max=160"`
	FavoriteItem string `json:"favoriteItem" validate:"max=100"`
}

func NewUserService(userRepo repository.UserRepository, postRepo repository.PostRepository) *UserService {
	return &UserService{userRepo: userRepo, postRepo: postRepo}
}

// UpdateProfile writes the non-empty fields of in and returns the fresh account.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "UpdateProfile")
	defer func() { observability.EndSpan(span, err) }()

	in.Avatar = strings.TrimSpace(in.Avatar)
	in.Bio = strings.TrimSpace(in.Bio)
	in.FavoriteItem = strings.TrimSpace(in.FavoriteItem)
	if err = validation.Struct(&in); err != nil {
		return nil, err
	}

	var update repository.ProfileUpdate
	if in.Avatar != "" {
		update.Avatar = &in.Avatar
	}
	if in.Bio != "" {
		update.Bio = &in.Bio
	}
	if in.FavoriteItem != "" {
		update.FavoriteItem = &in.FavoriteItem
	}
	if err = s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// GetPublicProfile returns the visitor-facing fields of an account and how
// many posts it has written.
func (s *UserService) GetPublicProfile(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.PublicProfile(count), nil
}

func (s *UserService) RoleOf(ctx context.Context, userID uint) (models.Role, error) {
	return s.userRepo.RoleOf(ctx, userID)
}

// SetRole changes the role of an account.
func (s *UserService) SetRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	parsed, ok := models.ParseRole(role)
	if !ok {
		return nil, models.NewValidationError("Role must be one of: user, moderator, admin")
	}
	if err := s.userRepo.UpdateRole(ctx, userID, parsed); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// SetRoleByEmail is SetRole keyed by email.
func (s *UserService) SetRoleByEmail(ctx context.Context, email, role string) (*models.User, error) {
	if err := validation.ValidateEmail(strings.TrimSpace(email)); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.SetRole(ctx, user.ID, role)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}
