package middleware

import (
	"errors"
	"log/slog"

	"bhreads/internal/auth"
	"bhreads/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LocalUserID is the Fiber locals key holding the authenticated user id.
const LocalUserID = "userID"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// AuthRequired rejects requests without a valid bearer token. On success the
// user id is stored in locals and in the request context.
func AuthRequired(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := v.Verify(auth.BearerToken(c.Get(fiber.HeaderAuthorization)))
		if err != nil {
			Logger.DebugContext(c.UserContext(), "rejected bearer token", slog.String("reason", err.Error()))
			return models.RespondWithError(c, models.NewUnauthorizedError(tokenErrorMessage(err)))
		}
		setUser(c, userID)
		return c.Next()
	}
}

// OptionalAuth resolves the viewer when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := v.Verify(auth.BearerToken(c.Get(fiber.HeaderAuthorization))); err == nil {
			setUser(c, userID)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or false for anonymous requests.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals(LocalUserID, userID)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	default:
		return "Invalid token"
	}
}
