// Package service holds the application logic between HTTP handlers and
// repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bhreads/internal/auth"
	"bhreads/internal/models"
	"bhreads/internal/observability"
	"bhreads/internal/repository"
	"bhreads/internal/validation"
)

const invalidCredentialsMessage = "Invalid email or password"

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID uint) (string, time.Time, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.Hasher
	tokens   TokenIssuer
	now      func() time.Time
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,max=255,loose_email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by register and login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func NewAuthService(userRepo repository.UserRepository, hasher *auth.Hasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		now:      time.Now,
	}
}

// Register creates an account with the default profile and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (sess *Session, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Register")
	defer func() {
		observability.EndSpan(span, err)
		observability.RecordAuth("register", err)
	}()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err = validation.Struct(&in); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("User already exists")
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := models.NewUser(in.Username, in.Email, hashed, s.now())
	if err = s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same name or email.
		if appErr := models.AsAppError(err); appErr.Code == models.CodeConflict {
			return nil, models.NewConflictError("User already exists")
		}
		return nil, err
	}
	return s.session(user)
}

// Authenticate checks credentials and refreshes the last-active time. A
// missing account and a wrong password produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (sess *Session, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Authenticate")
	defer func() {
		observability.EndSpan(span, err)
		observability.RecordAuth("login", err)
	}()

	if err = validation.Struct(&in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetCredentials(ctx, in.Email)
	if err != nil {
		if models.AsAppError(err).Code == models.CodeNotFound {
			return nil, models.NewUnauthorizedError(invalidCredentialsMessage)
		}
		return nil, err
	}

	if err = s.hasher.Compare(user.Password, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, models.NewUnauthorizedError(invalidCredentialsMessage)
		}
		return nil, models.NewInternalError(err)
	}

	now := s.now()
	if touchErr := s.userRepo.TouchLastActive(ctx, user.ID, now); touchErr != nil {
		slog.WarnContext(ctx, "failed to update last active", "user_id", user.ID, "err", touchErr)
	} else {
		user.LastActive = now
	}
	return s.session(user)
}

// Me returns the account behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.Password = ""
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
