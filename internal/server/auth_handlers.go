package server

import (
	"bhreads/internal/models"
	"bhreads/internal/service"
	"bhreads/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and receive a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 200 {object} object{success=bool,token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := validation.Bind(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	sess, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
		"user":      sess.User,
	})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} object{success=bool,token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := validation.Bind(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	sess, err := s.authService.Authenticate(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
		"user":      sess.User,
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so the client
// simply discards its copy.
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.authService.Me(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"user": user})
}

// GetRole handles GET /api/auth/role
// @Summary Current role
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,role=string,isAdmin=bool,isModerator=bool}
// @Router /auth/role [get]
func (s *Server) GetRole(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	role, err := s.userService.RoleOf(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"role":        role,
		"isAdmin":     role.IsAdmin(),
		"isModerator": role.IsModerator(),
	})
}
